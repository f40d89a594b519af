package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/dmarinho/leadcore/internal/infra/queue"
)

type BouncePublisher interface {
	PublishBounce(ctx context.Context, payload queue.BouncePayload) error
}

// WebhookHandler bridges the mail provider's delivery callbacks onto the
// bounce queue. Decoupled from the database on purpose: the worker does the
// state transition.
type WebhookHandler struct {
	Producer BouncePublisher
	Logger   *zap.Logger
}

func NewWebhookHandler(producer BouncePublisher, logger *zap.Logger) *WebhookHandler {
	return &WebhookHandler{
		Producer: producer,
		Logger:   logger,
	}
}

func (h *WebhookHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var event struct {
		Event  string `json:"event"`
		LeadID string `json:"lead_id"`
		Email  string `json:"email"`
		Reason string `json:"reason"`
	}

	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "Bad JSON", http.StatusBadRequest)
		return
	}

	if event.Event != "bounce" && event.Event != "dropped" {
		// Opens, clicks, deliveries: acknowledged and ignored.
		w.WriteHeader(http.StatusOK)
		return
	}

	if event.LeadID == "" {
		h.Logger.Warn("bounce event without lead_id", zap.String("email", event.Email))
		w.WriteHeader(http.StatusOK)
		return
	}

	payload := queue.BouncePayload{
		LeadID: event.LeadID,
		Email:  event.Email,
		Reason: event.Reason,
	}

	if err := h.Producer.PublishBounce(r.Context(), payload); err != nil {
		h.Logger.Error("failed to enqueue bounce event",
			zap.String("lead_id", event.LeadID),
			zap.Error(err),
		)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}
