package domain

import (
	"time"

	"github.com/google/uuid"
)

// NotificationRecipient is a user's delivery address for one channel:
// an email address, a phone number, or a push token. A user has at most one
// active, non-deleted recipient per (user, channel) pair; registering a
// second one replaces the stored address instead of inserting a duplicate.
type NotificationRecipient struct {
	ID              uuid.UUID           `json:"id"`
	UserID          string              `json:"user_id"`
	Channel         NotificationChannel `json:"channel"`
	Address         string              `json:"address"`
	DisplayName     string              `json:"display_name,omitempty"`
	PreferredLocale string              `json:"preferred_locale,omitempty"`
	IsActive        bool                `json:"is_active"`
	IsDeleted       bool                `json:"is_deleted"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       *time.Time          `json:"updated_at,omitempty"`
}
