package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"signal-relay/config"
	"signal-relay/internal/alert"
	"signal-relay/internal/classify"
	"signal-relay/internal/dedup"
	"signal-relay/internal/extract"
	"signal-relay/internal/format"
	"signal-relay/internal/notification"
	"signal-relay/internal/relay"
)

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify [alert text]",
		Short: "Print the category, ticker and strength of an alert",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := alertInput(cmd, args)
			if err != nil {
				return err
			}
			a, err := alert.Parse(body, "")
			if err != nil {
				return err
			}
			text := a.Text()
			cat := classify.Classify(text)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "category: %s\n", cat)
			fmt.Fprintf(out, "group:    %s\n", cat.Group())
			fmt.Fprintf(out, "ticker:   %s\n", extract.Ticker(text))
			fmt.Fprintf(out, "strength: %s\n", extract.Strength(text))
			return nil
		},
	}
}

func newFormatCmd() *cobra.Command {
	var (
		at       string
		tzOffset int
	)
	cmd := &cobra.Command{
		Use:   "format [alert text]",
		Short: "Preview the chat message for an alert without sending it",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := alertInput(cmd, args)
			if err != nil {
				return err
			}
			now := time.Now()
			if at != "" {
				if now, err = time.Parse(time.RFC3339, at); err != nil {
					return fmt.Errorf("--at: %w", err)
				}
			}
			loc := time.FixedZone(fmt.Sprintf("UTC%+d", tzOffset), tzOffset*3600)
			r := relay.New(relay.Deps{
				Formatter: format.New(loc),
				Notifier:  notification.NewLogNotifier(),
				Now:       func() time.Time { return now },
			})
			res, err := r.Preview(cmd.Context(), body, "")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), res.Message)
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "render time as RFC3339 (default now)")
	cmd.Flags().IntVar(&tzOffset, "tz-offset", -4, "display zone offset in hours")
	return cmd
}

// relayFromEnv builds a relay with the configured bot and an in-process
// dedup cache.
func relayFromEnv() (*relay.Relay, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if missing := cfg.MissingCredentials(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing %v", notification.ErrNotConfigured, missing)
	}
	return relay.New(relay.Deps{
		Formatter:  format.New(cfg.Location()),
		Suppressor: dedup.NewSuppressor(dedup.NewMemoryStore(cfg.DedupWindow)),
		Notifier: notification.NewTelegramNotifier(notification.TelegramConfig{
			BotToken: cfg.BotToken,
			ChatID:   cfg.ChatID,
			APIURL:   cfg.TelegramAPIURL,
			Timeout:  cfg.DispatchTimeout,
		}),
	}), nil
}

func report(cmd *cobra.Command, res relay.Result) error {
	fmt.Fprintf(cmd.OutOrStdout(), "%s (trace %s)\n", res.Outcome, res.TraceID)
	switch res.Outcome {
	case relay.Delivered, relay.Suppressed:
		return nil
	}
	if res.Err != nil {
		return res.Err
	}
	return errors.New(string(res.Outcome))
}

func newSendCmd() *cobra.Command {
	var contentType string
	cmd := &cobra.Command{
		Use:   "send [alert text]",
		Short: "Run an alert through the full pipeline and deliver it",
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := alertInput(cmd, args)
			if err != nil {
				return err
			}
			r, err := relayFromEnv()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			return report(cmd, r.Handle(ctx, body, contentType))
		},
	}
	cmd.Flags().StringVar(&contentType, "content-type", "", "treat the body as this content type")
	return cmd
}

func newSendTestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send-test",
		Short: "Send the bot check message",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r, err := relayFromEnv()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			return report(cmd, r.SendTest(ctx))
		},
	}
}
