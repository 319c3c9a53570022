// Package api provides the relay's HTTP endpoints.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"signal-relay/internal/relay"
)

// MaxBodyBytes caps a webhook body.
const MaxBodyBytes = 64 << 10

const banner = "🚀 FOGUETE TURBO V7 - Bot Telegram Online!"

// Status is the configuration snapshot served by /status. Secrets are
// already masked.
type Status struct {
	BotTokenConfigured bool   `json:"bot_token_configured"`
	ChatIDConfigured   bool   `json:"chat_id_configured"`
	BotToken           string `json:"bot_token,omitempty"`
	DryRun             bool   `json:"dry_run"`
	DedupBackend       string `json:"dedup_backend"`
	DedupWindow        string `json:"dedup_window"`
	Timezone           string `json:"timezone"`
}

// Deps wires the router.
type Deps struct {
	Relay  *relay.Relay
	Status Status
	// Feed serves /ws; the route is omitted when nil.
	Feed http.Handler
	Now  func() time.Time
}

var endpoints = map[string]string{
	"home":    "/",
	"webhook": "/webhook (POST)",
	"test":    "/test (GET/POST)",
	"status":  "/status (GET)",
	"health":  "/health (GET)",
	"feed":    "/ws",
}

// NewRouter sets up HTTP routes for the relay.
func NewRouter(d Deps) *http.ServeMux {
	if d.Now == nil {
		d.Now = time.Now
	}
	h := &handlers{Deps: d}

	mux := http.NewServeMux()
	mux.HandleFunc("/", h.home)
	mux.HandleFunc("/webhook", h.webhook)
	mux.HandleFunc("/test", h.test)
	mux.HandleFunc("/status", h.status)
	mux.HandleFunc("/health", h.health)
	if d.Feed != nil {
		mux.Handle("/ws", d.Feed)
	}
	return mux
}

type handlers struct {
	Deps
}

// timestamp renders now in the relay's display zone.
func (h *handlers) timestamp() string {
	return h.Now().In(h.Relay.Formatter().Location()).Format(time.RFC3339)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func allow(w http.ResponseWriter, r *http.Request, methods ...string) bool {
	for _, m := range methods {
		if r.Method == m {
			return true
		}
	}
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
	return false
}

func (h *handlers) home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
		return
	}
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         banner,
		"bot_configured": h.Relay.Configured(),
		"timestamp":      h.timestamp(),
		"endpoints":      endpoints,
	})
}

func (h *handlers) webhook(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodPost) {
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "payload too large"})
			return
		}
		slog.Warn("webhook body read failed", "component", "api", "error", err)
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "could not read body"})
		return
	}

	res := h.Relay.Handle(r.Context(), body, r.Header.Get("Content-Type"))
	switch res.Outcome {
	case relay.Delivered:
		writeJSON(w, http.StatusOK, map[string]any{
			"status":    "success",
			"message":   "Alerta enviado com sucesso para Telegram!",
			"category":  res.Category,
			"trace_id":  res.TraceID,
			"timestamp": h.timestamp(),
		})
	case relay.Suppressed:
		writeJSON(w, http.StatusOK, map[string]any{
			"status":   "duplicate",
			"message":  "Alerta duplicado ignorado",
			"trace_id": res.TraceID,
		})
	case relay.Rejected:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Nenhum dado recebido"})
	case relay.NotConfigured:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "bot not configured"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"status":   "error",
			"message":  "Erro ao enviar alerta para Telegram",
			"trace_id": res.TraceID,
		})
	}
}

func (h *handlers) test(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet, http.MethodPost) {
		return
	}
	res := h.Relay.SendTest(r.Context())
	switch res.Outcome {
	case relay.Delivered:
		writeJSON(w, http.StatusOK, map[string]any{
			"status":               "success",
			"message":              "✅ Mensagem de teste enviada para Telegram!",
			"bot_token_configured": h.Status.BotTokenConfigured,
			"chat_id_configured":   h.Status.ChatIDConfigured,
			"timestamp":            h.timestamp(),
		})
	case relay.NotConfigured:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "bot not configured"})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"status":  "error",
			"message": "❌ Erro ao enviar mensagem de teste",
		})
	}
}

func (h *handlers) status(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"bot_online":    true,
		"timestamp":     h.timestamp(),
		"configuration": h.Status,
		"endpoints":     endpoints,
	})
}

func (h *handlers) health(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": h.timestamp(),
	})
}
