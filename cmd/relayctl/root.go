package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"signal-relay/internal/logger"
)

// newRootCmd builds the command tree. Tests call it with their own output.
func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:   "relayctl",
		Short: "Inspect and exercise the alert relay from the command line",
		Long: `relayctl runs the relay pipeline locally: classify an alert, preview
the chat message it produces, or send a message through the configured bot.

Alert text is taken from the arguments, or from stdin when no argument is given.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Logs go to stderr so command output stays clean on stdout.
			logger.InitWriter(cmd.ErrOrStderr(), "relayctl", logger.ParseLevel(logLevel))
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(
		newClassifyCmd(),
		newFormatCmd(),
		newSendCmd(),
		newSendTestCmd(),
	)
	return root
}

// alertInput joins args, or reads stdin when there are none.
func alertInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) > 0 {
		return []byte(strings.Join(args, " ")), nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("read stdin: %w", err)
	}
	return b, nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		slog.Debug("command failed", "error", err)
		os.Exit(1)
	}
}
