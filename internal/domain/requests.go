package domain

import (
	"time"

	"github.com/google/uuid"
)

// CreateNotificationRequest is the create contract shared by the API surface
// and every broker ingestor.
type CreateNotificationRequest struct {
	UserID            string               `json:"user_id,omitempty"`
	Channel           NotificationChannel  `json:"channel,omitempty"`
	Title             string               `json:"title,omitempty"`
	Message           string               `json:"message,omitempty"`
	Data              string               `json:"data,omitempty"`
	Priority          NotificationPriority `json:"priority,omitempty"`
	Recipient         string               `json:"recipient,omitempty"`
	Sender            string               `json:"sender,omitempty"`
	ScheduledAt       *time.Time           `json:"scheduled_at,omitempty"`
	MaxRetries        int                  `json:"max_retries,omitempty"`
	TemplateID        *uuid.UUID           `json:"template_id,omitempty"`
	TemplateSlug      string               `json:"template_slug,omitempty"`
	TemplateVariables map[string]string    `json:"template_variables,omitempty"`
	Locale            string               `json:"locale,omitempty"`
}

func (r *CreateNotificationRequest) HasTemplateReference() bool {
	return r.TemplateID != nil || r.TemplateSlug != ""
}

// UpsertRecipientRequest registers or replaces a user's delivery address for
// one channel.
type UpsertRecipientRequest struct {
	UserID          string              `json:"user_id"`
	Channel         NotificationChannel `json:"channel"`
	Address         string              `json:"address"`
	DisplayName     string              `json:"display_name,omitempty"`
	PreferredLocale string              `json:"preferred_locale,omitempty"`
}

type CreateTemplateRequest struct {
	Name      string                      `json:"name"`
	Channel   NotificationChannel         `json:"channel"`
	Subject   string                      `json:"subject"`
	Body      string                      `json:"body"`
	Variables map[string]TemplateVariable `json:"variables,omitempty"`
	Locale    string                      `json:"locale,omitempty"`
}
