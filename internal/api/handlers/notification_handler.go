package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
)

// CompletionNotifier schedules consultation completion notices
type CompletionNotifier interface {
	NotifyCompletion(ctx context.Context, notice *entities.ConsultationCompletionNotice) error
}

// NotificationHandler handles consultation notification endpoints
type NotificationHandler struct {
	notifier CompletionNotifier
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(notifier CompletionNotifier) *NotificationHandler {
	return &NotificationHandler{notifier: notifier}
}

// SendCompletionNotice handles POST /api/consultations/{id}/completion-notice.
// Delivery happens in the background, so success means accepted, not delivered.
func (h *NotificationHandler) SendCompletionNotice(w http.ResponseWriter, r *http.Request) {
	var notice entities.ConsultationCompletionNotice
	if err := json.NewDecoder(r.Body).Decode(&notice); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	notice.ConsultationID = r.PathValue("id")

	if err := h.notifier.NotifyCompletion(r.Context(), &notice); err != nil {
		respondWithAppError(w, err)
		return
	}

	respondWithJSON(w, http.StatusAccepted, map[string]string{
		"status":          "accepted",
		"consultation_id": notice.ConsultationID,
	})
}
