package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"github.com/dvloznov/ledger-bot/internal/api/middleware"
	"github.com/dvloznov/ledger-bot/internal/jobs"
	"github.com/dvloznov/ledger-bot/internal/telegram"
)

const (
	// maxUpdateBytes bounds a webhook body.
	maxUpdateBytes = 1 << 20
	// publishTimeout bounds the wait for a full dispatcher shard.
	publishTimeout = 5 * time.Second
)

// WebhookHandler accepts Telegram webhook deliveries and hands them to the
// dispatcher.
type WebhookHandler struct {
	publisher      jobs.Publisher
	log            zerolog.Logger
	publishTimeout time.Duration
}

// NewWebhookHandler creates a new webhook handler.
func NewWebhookHandler(publisher jobs.Publisher, log zerolog.Logger) *WebhookHandler {
	return &WebhookHandler{publisher: publisher, log: log, publishTimeout: publishTimeout}
}

// ServeHTTP handles POST /telegram/webhook.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxUpdateBytes)).Decode(&update); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid update")
		return
	}

	// Telegram redelivers on non-2xx, so a failed or timed out publish is
	// answered 503 and the update comes back later.
	ctx, cancel := context.WithTimeout(r.Context(), h.publishTimeout)
	defer cancel()
	if err := telegram.Publish(ctx, h.publisher, update); err != nil {
		h.log.Error().Err(err).Int("update_id", update.UpdateID).Msg("Failed to enqueue update")
		middleware.WriteError(w, http.StatusServiceUnavailable, "Dispatcher unavailable")
		return
	}

	w.WriteHeader(http.StatusOK)
}

// StatsSource reports dispatcher counters.
type StatsSource interface {
	Stats() jobs.Stats
}

// HealthHandler serves GET /health.
type HealthHandler struct {
	stats StatsSource
	now   func() time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(stats StatsSource) *HealthHandler {
	return &HealthHandler{stats: stats, now: time.Now}
}

// ServeHTTP reports liveness and dispatcher counters.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status": "healthy",
		"time":   h.now().Format(time.RFC3339),
		"jobs":   h.stats.Stats(),
	})
}
