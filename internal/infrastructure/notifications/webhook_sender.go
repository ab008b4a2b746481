package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/providers"
	"github.com/ruralhealth/pharmacy-discovery/internal/infrastructure/observability"
	apperrors "github.com/ruralhealth/pharmacy-discovery/pkg/errors"
)

const maxErrorBody = 512

// WebhookSender posts consultation notices to the workflow automation webhook
type WebhookSender struct {
	url        string
	httpClient *http.Client
}

// NewWebhookSender creates a new webhook sender
func NewWebhookSender(url string, timeout time.Duration) (*WebhookSender, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("CONSULTATION_WEBHOOK_URL must be set")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WebhookSender{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

var _ providers.NotificationSender = (*WebhookSender)(nil)

// SendCompletionNotice posts {chatId, message, patientName, followUpDate} as JSON
func (w *WebhookSender) SendCompletionNotice(ctx context.Context, notice *entities.ConsultationCompletionNotice) error {
	jsonData, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("failed to marshal notice: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return apperrors.NewExternalError("consultation webhook unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return apperrors.NewExternalError("consultation webhook rejected notice",
			fmt.Errorf("status %d: %s", resp.StatusCode, string(body)))
	}
	return nil
}

// LogSender only records notices; it stands in when no webhook URL is configured.
type LogSender struct{}

var _ providers.NotificationSender = LogSender{}

// SendCompletionNotice logs the notice and reports success
func (LogSender) SendCompletionNotice(ctx context.Context, notice *entities.ConsultationCompletionNotice) error {
	observability.LoggerFromContext(ctx).Info().
		Str("consultation_id", notice.ConsultationID).
		Str("chat_id", notice.ChatID).
		Msg("consultation notice not sent: no webhook configured")
	return nil
}
