package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/brahmalabs/brahma/internal/analytics"
	"github.com/brahmalabs/brahma/internal/audit"
	"github.com/brahmalabs/brahma/internal/escalation"
	"github.com/brahmalabs/brahma/internal/policy"
	"github.com/brahmalabs/brahma/internal/store"
)

// app bundles the wired components for one CLI invocation. Commands build it
// in RunE and close it before returning.
type app struct {
	st        store.Store
	trail     *audit.Trail
	agg       *analytics.Aggregator
	machine   *escalation.Machine
	engine    *policy.Engine
	cfg       *policy.Config
	cfgHash   string
	closeFunc func() error
}

// dataDir resolves the state directory, ~/.brahma with a temp-dir fallback.
func dataDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".brahma")
	}
	return filepath.Join(os.TempDir(), "brahma")
}

// openStore opens the SQLite store, degrading to an in-memory store with a
// warning when the database cannot be opened. Data-layer faults never stop a
// command.
func openStore() (store.Store, func() error) {
	db, err := store.OpenSQLite(filepath.Join(dataDir(), "brahma.db"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: persistent store unavailable, state will not survive this run: %v\n", err)
		return store.NewMemory(), func() error { return nil }
	}
	return db, db.Close
}

func newApp() (*app, error) {
	cfg, hash, err := policy.LoadConfigWithHash(configPath)
	if err != nil {
		return nil, err
	}

	st, closeStore := openStore()

	trail, err := audit.NewTrail(st)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}

	var sentinel escalation.Sentinel
	if wh := escalation.NewWebhook(cfg.Sentinel); wh != nil {
		sentinel = wh
	} else {
		sentinel = &escalation.Console{Out: os.Stderr}
	}

	machine := escalation.NewMachine(st, trail, sentinel)
	engine := policy.NewEngine(cfg, trail, machine, st)
	agg := analytics.New(st, analytics.Config{})

	return &app{
		st:        st,
		trail:     trail,
		agg:       agg,
		machine:   machine,
		engine:    engine,
		cfg:       cfg,
		cfgHash:   hash,
		closeFunc: closeStore,
	}, nil
}

func (a *app) close() {
	if err := a.closeFunc(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: close store: %v\n", err)
	}
}

// warn reports an advisory fault without failing the command.
func warn(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
}
