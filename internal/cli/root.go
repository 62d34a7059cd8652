// Package cli implements slidectl, the offline companion of the presenter
// server: grammar checks and local rehearsals from a transcript stream.
package cli

import (
	"io"
	"log/slog"
	"strings"

	"github.com/sharetube/smartpresent/pkg/ctxlogger"
	"github.com/spf13/cobra"
)

func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	var logLevel string

	rootCmd := &cobra.Command{
		Use:           "slidectl",
		Short:         "slidectl: check voice commands and rehearse presentations offline",
		Long:          "slidectl classifies transcripts the way the presenter does and runs local rehearsals that read transcripts from a file or stdin instead of a microphone.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "WARN", "Logging level written to stderr")

	newLogger := func(cmd *cobra.Command) (*slog.Logger, error) {
		return buildLogger(cmd.ErrOrStderr(), logLevel)
	}

	rootCmd.AddCommand(
		newParseCmd(),
		newRehearseCmd(newLogger),
	)

	return rootCmd
}

func buildLogger(w io.Writer, level string) (*slog.Logger, error) {
	logLevel := slog.LevelWarn
	if err := logLevel.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return nil, err
	}

	h := ctxlogger.ContextHandler{
		Handler: slog.NewTextHandler(w, &slog.HandlerOptions{Level: logLevel}),
	}

	return slog.New(&h), nil
}
