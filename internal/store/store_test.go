package store

import (
	"path/filepath"
	"reflect"
	"testing"
)

// openBackends returns one of each Store implementation for conformance runs.
func openBackends(t *testing.T) map[string]Store {
	t.Helper()

	sq, err := OpenSQLite(filepath.Join(t.TempDir(), "kv.db"))
	if err != nil {
		t.Fatalf("open sqlite store: %v", err)
	}
	t.Cleanup(func() { sq.Close() })

	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": sq,
	}
}

func TestGetMissingKey(t *testing.T) {
	for name, st := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			v, ok, err := st.Get("absent")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if ok || v != "" {
				t.Fatalf("expected missing key, got ok=%v value=%q", ok, v)
			}
		})
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	for name, st := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			if err := st.Put("brahmaSessionId", "session-1"); err != nil {
				t.Fatalf("put: %v", err)
			}
			v, ok, err := st.Get("brahmaSessionId")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if !ok || v != "session-1" {
				t.Fatalf("expected session-1, got ok=%v value=%q", ok, v)
			}
		})
	}
}

func TestPutOverwrites(t *testing.T) {
	for name, st := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			st.Put("k", "old")
			if err := st.Put("k", "new"); err != nil {
				t.Fatalf("overwrite: %v", err)
			}
			v, _, _ := st.Get("k")
			if v != "new" {
				t.Fatalf("expected new, got %q", v)
			}
		})
	}
}

func TestDeleteIsIdempotent(t *testing.T) {
	for name, st := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			st.Put("k", "v")
			if err := st.Delete("k"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := st.Delete("k"); err != nil {
				t.Fatalf("delete missing: %v", err)
			}
			if _, ok, _ := st.Get("k"); ok {
				t.Fatal("expected key gone after delete")
			}
		})
	}
}

func TestKeysSorted(t *testing.T) {
	for name, st := range openBackends(t) {
		t.Run(name, func(t *testing.T) {
			st.Put("brahmaEvents", "[]")
			st.Put("brahma-audit-trail", "[]")
			st.Put("brahmaSessionStats", "{}")

			keys, err := st.Keys()
			if err != nil {
				t.Fatalf("keys: %v", err)
			}
			want := []string{"brahma-audit-trail", "brahmaEvents", "brahmaSessionStats"}
			if !reflect.DeepEqual(keys, want) {
				t.Fatalf("expected %v, got %v", want, keys)
			}
		})
	}
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")

	s1, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	s1.Put("brahma-audit-trail", `[{"action":"flag_decision"}]`)
	s1.Close()

	s2, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	v, ok, err := s2.Get("brahma-audit-trail")
	if err != nil || !ok {
		t.Fatalf("expected persisted value, got ok=%v err=%v", ok, err)
	}
	if v != `[{"action":"flag_decision"}]` {
		t.Fatalf("unexpected value %q", v)
	}
}
