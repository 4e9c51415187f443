package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/brahmalabs/brahma/internal/analytics"
)

var (
	logModule string
	logAction string
	logValue  string
)

func init() {
	rootCmd.AddCommand(logCmd)
	logCmd.AddCommand(logPageCmd)
	logCmd.AddCommand(logTTSCmd)
	logCmd.AddCommand(logSageCmd)
	logCmd.AddCommand(logEmotionCmd)
	logCmd.Flags().StringVar(&logModule, "module", "", "Feature module the event belongs to")
	logCmd.Flags().StringVar(&logAction, "action", "", "Event action (required)")
	logCmd.Flags().StringVar(&logValue, "value", "", "Event value, parsed as JSON when possible")
}

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Record a usage event",
	Long:  "Appends an event to the bounded analytics buffer and updates the active session record.",
	RunE:  runLog,
}

var logPageCmd = &cobra.Command{
	Use:   "page <url>",
	Short: "Record a page view",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogPage,
}

var logTTSCmd = &cobra.Command{
	Use:   "tts <text-length>",
	Short: "Record a text-to-speech playback",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogTTS,
}

var logSageCmd = &cobra.Command{
	Use:   "sage <kind>",
	Short: "Record an interaction with the conversational agent",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogSage,
}

var logEmotionCmd = &cobra.Command{
	Use:   "emotion <tag>",
	Short: "Record an emotional signal from the journal",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogEmotion,
}

// withSession builds the app, starts the active session, and runs fn.
// Analytics faults are advisory: they warn, never fail the command.
func withSession(fn func(a *app, sess *analytics.Session) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	sess, err := a.agg.StartSession()
	warn(err)
	warn(fn(a, &sess))
	return nil
}

func runLog(cmd *cobra.Command, args []string) error {
	if logAction == "" {
		return fmt.Errorf("--action is required")
	}
	return withSession(func(a *app, sess *analytics.Session) error {
		return a.agg.LogEvent(sess, analytics.Event{
			Module: logModule,
			Action: logAction,
			Value:  parseValue(logValue),
		})
	})
}

func runLogPage(cmd *cobra.Command, args []string) error {
	return withSession(func(a *app, sess *analytics.Session) error {
		return a.agg.LogPageView(sess, args[0])
	})
}

func runLogTTS(cmd *cobra.Command, args []string) error {
	textLen, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("text-length must be an integer: %w", err)
	}
	return withSession(func(a *app, sess *analytics.Session) error {
		return a.agg.LogTTSUsage(sess, textLen)
	})
}

func runLogSage(cmd *cobra.Command, args []string) error {
	return withSession(func(a *app, sess *analytics.Session) error {
		return a.agg.LogSageInteraction(sess, args[0])
	})
}

func runLogEmotion(cmd *cobra.Command, args []string) error {
	return withSession(func(a *app, sess *analytics.Session) error {
		return a.agg.LogEmotionalSignal(sess, args[0])
	})
}

// parseValue keeps JSON literals structured and falls back to the raw string.
func parseValue(raw string) any {
	if raw == "" {
		return nil
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err == nil {
		return v
	}
	return raw
}
