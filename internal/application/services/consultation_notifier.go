package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
	"github.com/ruralhealth/pharmacy-discovery/internal/domain/providers"
	"github.com/ruralhealth/pharmacy-discovery/internal/infrastructure/observability"
	apperrors "github.com/ruralhealth/pharmacy-discovery/pkg/errors"
)

const defaultNoticeTimeout = 10 * time.Second

// ConsultationNotifier hands completion notices to the outbound webhook in the background.
// Delivery failures are logged and never reach the caller.
type ConsultationNotifier struct {
	sender  providers.NotificationSender
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewConsultationNotifier creates a notifier
func NewConsultationNotifier(sender providers.NotificationSender, timeout time.Duration) *ConsultationNotifier {
	if timeout <= 0 {
		timeout = defaultNoticeTimeout
	}
	return &ConsultationNotifier{sender: sender, timeout: timeout}
}

// NotifyCompletion validates the notice and schedules its delivery.
func (n *ConsultationNotifier) NotifyCompletion(ctx context.Context, notice *entities.ConsultationCompletionNotice) error {
	if notice == nil {
		return apperrors.NewValidationError("notice is required")
	}
	if strings.TrimSpace(notice.ConsultationID) == "" {
		return apperrors.NewValidationError("consultation id is required")
	}
	if strings.TrimSpace(notice.ChatID) == "" {
		return apperrors.NewValidationError("chatId is required")
	}
	if strings.TrimSpace(notice.Message) == "" {
		return apperrors.NewValidationError("message is required")
	}

	logger := observability.LoggerFromContext(ctx).With().Str("consultation_id", notice.ConsultationID).Logger()
	sendCtx := context.WithoutCancel(ctx)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		ctx, cancel := context.WithTimeout(sendCtx, n.timeout)
		defer cancel()

		if err := n.sender.SendCompletionNotice(ctx, notice); err != nil {
			logger.Error().Err(err).Msg("failed to deliver consultation completion notice")
			return
		}
		logger.Info().Msg("consultation completion notice delivered")
	}()
	return nil
}

// Wait blocks until every scheduled notice has finished. Used on shutdown.
func (n *ConsultationNotifier) Wait() {
	n.wg.Wait()
}
