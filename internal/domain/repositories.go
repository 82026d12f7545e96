package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// NotificationRepository is the durable store for notifications. The service
// and scheduler depend on this interface; the Postgres implementation lives
// in internal/repository.
type NotificationRepository interface {
	CreateNotification(ctx context.Context, n *Notification) error
	GetNotificationByID(ctx context.Context, id uuid.UUID) (*Notification, error)
	// GetPendingNotifications returns Pending notifications with retry budget
	// left; schedule filtering is the caller's concern.
	GetPendingNotifications(ctx context.Context) ([]*Notification, error)
	UpdateNotificationStatus(ctx context.Context, id uuid.UUID, status NotificationStatus, errorMessage string) error
	UpdateNotificationSent(ctx context.Context, id uuid.UUID, sentAt time.Time, externalID string) error
	IncrementRetryCount(ctx context.Context, id uuid.UUID) error
	MarkAsRead(ctx context.Context, id uuid.UUID) error
}

type TemplateRepository interface {
	CreateTemplate(ctx context.Context, t *NotificationTemplate) error
	UpdateTemplate(ctx context.Context, t *NotificationTemplate) error
	GetTemplateByID(ctx context.Context, id uuid.UUID) (*NotificationTemplate, error)
	// GetTemplatesBySlug returns every locale variant sharing the slug.
	GetTemplatesBySlug(ctx context.Context, slug string) ([]*NotificationTemplate, error)
	GetTemplateBySlugAndLocale(ctx context.Context, slug, locale string) (*NotificationTemplate, error)
}

type RecipientRepository interface {
	CreateRecipient(ctx context.Context, r *NotificationRecipient) error
	UpdateRecipient(ctx context.Context, r *NotificationRecipient) error
	// GetByUserAndChannel returns the single active, non-deleted recipient for
	// the pair, or nil when none exists.
	GetByUserAndChannel(ctx context.Context, userID string, channel NotificationChannel) (*NotificationRecipient, error)
	DeleteRecipient(ctx context.Context, id uuid.UUID) error
}
