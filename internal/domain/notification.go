package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
	ChannelPush  NotificationChannel = "push"
	ChannelInApp NotificationChannel = "inapp"
)

type NotificationStatus string

const (
	StatusPending   NotificationStatus = "pending"
	StatusSent      NotificationStatus = "sent"
	StatusDelivered NotificationStatus = "delivered"
	StatusFailed    NotificationStatus = "failed"
	StatusCancelled NotificationStatus = "cancelled"
)

type NotificationPriority string

const (
	PriorityLow      NotificationPriority = "low"
	PriorityNormal   NotificationPriority = "normal"
	PriorityHigh     NotificationPriority = "high"
	PriorityCritical NotificationPriority = "critical"
)

const (
	DefaultMaxRetries = 3
	MinMaxRetries     = 1
	MaxMaxRetries     = 10

	DefaultLocale = "en"
)

// Notification is one unit of work: one message through one channel.
// Created Pending by the lifecycle service, mutated only by the dispatch
// scheduler and explicit mark-as-read. Never deleted, only terminal.
type Notification struct {
	ID                uuid.UUID            `json:"id"`
	UserID            string               `json:"user_id,omitempty"`
	Channel           NotificationChannel  `json:"channel"`
	Title             string               `json:"title"`
	Message           string               `json:"message"`
	Data              string               `json:"data,omitempty"` // opaque JSON payload
	Status            NotificationStatus   `json:"status"`
	Priority          NotificationPriority `json:"priority"`
	Recipient         string               `json:"recipient,omitempty"`
	Sender            string               `json:"sender,omitempty"`
	ScheduledAt       *time.Time           `json:"scheduled_at,omitempty"`
	SentAt            *time.Time           `json:"sent_at,omitempty"`
	DeliveredAt       *time.Time           `json:"delivered_at,omitempty"`
	ErrorMessage      string               `json:"error_message,omitempty"`
	RetryCount        int                  `json:"retry_count"`
	MaxRetries        int                  `json:"max_retries"`
	ExternalID        string               `json:"external_id,omitempty"`
	TemplateSlug      string               `json:"template_slug,omitempty"`
	TemplateVariables string               `json:"template_variables,omitempty"` // JSON map of variable values
	DefaultLocale     string               `json:"default_locale,omitempty"`
	IsRead            bool                 `json:"is_read"`
	CreatedAt         time.Time            `json:"created_at"`
	UpdatedAt         *time.Time           `json:"updated_at,omitempty"`
}

// IsDue reports whether the notification is ready for a send attempt:
// still Pending, retry budget left, and no future schedule.
func (n *Notification) IsDue(now time.Time) bool {
	if n.Status != StatusPending {
		return false
	}
	if n.RetryCount >= n.MaxRetries {
		return false
	}
	return n.ScheduledAt == nil || !n.ScheduledAt.After(now)
}

func (n *Notification) IsTerminal() bool {
	switch n.Status {
	case StatusDelivered, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// SendResult is the outcome of one channel sender invocation.
// Send failures are data, not errors; errors are reserved for
// programmer mistakes and broken wiring.
type SendResult struct {
	Success      bool       `json:"success"`
	ExternalID   string     `json:"external_id,omitempty"`
	ErrorMessage string     `json:"error_message,omitempty"`
	SentAt       *time.Time `json:"sent_at,omitempty"`
}
