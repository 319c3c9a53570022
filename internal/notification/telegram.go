package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	neturl "net/url"
	"strings"
	"time"
)

const (
	// DefaultAPIURL is the public Telegram Bot API.
	DefaultAPIURL = "https://api.telegram.org"
	// DefaultTimeout bounds one sendMessage call.
	DefaultTimeout = 10 * time.Second

	defaultParseMode = "Markdown"
	maxErrorBody     = 512
)

// TelegramNotifier sends messages via the Telegram Bot API.
type TelegramNotifier struct {
	botToken string
	chatID   string
	apiURL   string
	client   *http.Client
}

// TelegramConfig configures a TelegramNotifier.
type TelegramConfig struct {
	BotToken string // Bot API token from @BotFather
	ChatID   string // target chat/group/channel
	APIURL   string // defaults to DefaultAPIURL
	Timeout  time.Duration
}

// NewTelegramNotifier creates a Telegram notifier. Missing credentials are
// allowed here; Send then fails fast with ErrNotConfigured.
func NewTelegramNotifier(cfg TelegramConfig) *TelegramNotifier {
	if cfg.APIURL == "" {
		cfg.APIURL = DefaultAPIURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &TelegramNotifier{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		apiURL:   strings.TrimRight(cfg.APIURL, "/"),
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
	}
}

func (t *TelegramNotifier) Configured() bool {
	return t.botToken != "" && t.chatID != ""
}

type sendMessageRequest struct {
	ChatID                string `json:"chat_id"`
	Text                  string `json:"text"`
	ParseMode             string `json:"parse_mode"`
	DisableWebPagePreview bool   `json:"disable_web_page_preview"`
}

func (t *TelegramNotifier) Send(ctx context.Context, msg Message) error {
	if !t.Configured() {
		return ErrNotConfigured
	}

	parseMode := msg.ParseMode
	if parseMode == "" {
		parseMode = defaultParseMode
	}
	body, err := json.Marshal(sendMessageRequest{
		ChatID:                t.chatID,
		Text:                  msg.Text,
		ParseMode:             parseMode,
		DisableWebPagePreview: true,
	})
	if err != nil {
		return fmt.Errorf("telegram: marshal: %w", err)
	}

	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiURL, t.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		// The URL embeds the token; never let it reach the logs.
		var ue *neturl.Error
		if errors.As(err, &ue) {
			ue.URL = redact(ue.URL, t.botToken)
		}
		return fmt.Errorf("telegram: send: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &DeliveryError{Status: resp.StatusCode, Body: strings.TrimSpace(string(detail))}
	}

	slog.Info("message sent", "component", "telegram", "chars", len(msg.Text))
	return nil
}

func redact(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, "***")
}
