package providers

import (
	"context"

	"github.com/ruralhealth/pharmacy-discovery/internal/domain/entities"
)

// NotificationSender delivers consultation notices to the outbound webhook
type NotificationSender interface {
	SendCompletionNotice(ctx context.Context, notice *entities.ConsultationCompletionNotice) error
}
