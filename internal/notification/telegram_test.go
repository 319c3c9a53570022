package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestTelegram_SendSuccess(t *testing.T) {
	var got sendMessageRequest
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("content-type = %q", ct)
		}
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier(TelegramConfig{BotToken: "123:abc", ChatID: "-100", APIURL: srv.URL})
	if err := n.Send(context.Background(), Message{Text: "*hi*"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if path != "/bot123:abc/sendMessage" {
		t.Errorf("path = %q", path)
	}
	if got.ChatID != "-100" || got.Text != "*hi*" {
		t.Errorf("unexpected payload: %+v", got)
	}
	if got.ParseMode != "Markdown" || !got.DisableWebPagePreview {
		t.Errorf("expected Markdown with link previews disabled, got %+v", got)
	}
}

func TestTelegram_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"description":"Bad Request: can't parse entities"}`))
	}))
	defer srv.Close()

	n := NewTelegramNotifier(TelegramConfig{BotToken: "t", ChatID: "c", APIURL: srv.URL})
	err := n.Send(context.Background(), Message{Text: "x"})

	var de *DeliveryError
	if !errors.As(err, &de) {
		t.Fatalf("expected *DeliveryError, got %v", err)
	}
	if de.Status != http.StatusBadRequest || !strings.Contains(de.Body, "can't parse entities") {
		t.Errorf("unexpected delivery error: %+v", de)
	}
}

func TestTelegram_NotConfiguredSkipsNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	for _, cfg := range []TelegramConfig{
		{ChatID: "c", APIURL: srv.URL},
		{BotToken: "t", APIURL: srv.URL},
		{APIURL: srv.URL},
	} {
		n := NewTelegramNotifier(cfg)
		if n.Configured() {
			t.Errorf("%+v should not be configured", cfg)
		}
		if err := n.Send(context.Background(), Message{Text: "x"}); !errors.Is(err, ErrNotConfigured) {
			t.Errorf("expected ErrNotConfigured, got %v", err)
		}
	}
	if calls != 0 {
		t.Fatalf("no request should reach the API, got %d", calls)
	}
}

func TestTelegram_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	n := NewTelegramNotifier(TelegramConfig{BotToken: "secret-token", ChatID: "c", APIURL: srv.URL, Timeout: 50 * time.Millisecond})
	err := n.Send(context.Background(), Message{Text: "x"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if strings.Contains(err.Error(), "secret-token") {
		t.Errorf("token leaked into error: %v", err)
	}
}

func TestTelegram_Defaults(t *testing.T) {
	n := NewTelegramNotifier(TelegramConfig{BotToken: "t", ChatID: "c"})
	if n.apiURL != DefaultAPIURL {
		t.Errorf("apiURL = %q", n.apiURL)
	}
	if n.client.Timeout != DefaultTimeout {
		t.Errorf("timeout = %v", n.client.Timeout)
	}
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier()
	if !n.Configured() {
		t.Fatal("log notifier is always configured")
	}
	if err := n.Send(context.Background(), Message{Text: "hello"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
