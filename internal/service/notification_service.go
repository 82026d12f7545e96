package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Odix-Pay/odixpay-notifications/internal/domain"
	"github.com/Odix-Pay/odixpay-notifications/internal/template"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// NotificationService owns the notification lifecycle: creation and
// validation, send-time template resolution, status transitions, recipient
// and template management.
type NotificationService struct {
	notifications domain.NotificationRepository
	templates     domain.TemplateRepository
	recipients    domain.RecipientRepository
	resolver      *template.Resolver
	engine        *template.Engine
	senders       *SenderRegistry
	invalidator   TemplateInvalidator
	maxRetries    int
	logger        *logrus.Logger
}

// TemplateInvalidator drops cached template variants after a write.
type TemplateInvalidator interface {
	Invalidate(ctx context.Context, slug string) error
}

func NewNotificationService(
	notifications domain.NotificationRepository,
	templates domain.TemplateRepository,
	recipients domain.RecipientRepository,
	resolver *template.Resolver,
	engine *template.Engine,
	senders *SenderRegistry,
	invalidator TemplateInvalidator,
	defaultMaxRetries int,
	logger *logrus.Logger,
) *NotificationService {
	if defaultMaxRetries <= 0 {
		defaultMaxRetries = domain.DefaultMaxRetries
	}
	return &NotificationService{
		notifications: notifications,
		templates:     templates,
		recipients:    recipients,
		resolver:      resolver,
		engine:        engine,
		senders:       senders,
		invalidator:   invalidator,
		maxRetries:    defaultMaxRetries,
		logger:        logger,
	}
}

// Create validates the request and persists a Pending notification. Template
// content is NOT rendered here: only the slug and locale are stored, so the
// dispatch scheduler picks up template edits made before the send.
func (s *NotificationService) Create(ctx context.Context, req *domain.CreateNotificationRequest) (*domain.Notification, error) {
	if req == nil {
		return nil, fmt.Errorf("create request cannot be nil: %w", domain.ErrBadRequest)
	}

	now := time.Now().UTC()

	n := &domain.Notification{
		ID:            uuid.New(),
		UserID:        req.UserID,
		Channel:       req.Channel,
		Title:         req.Title,
		Message:       req.Message,
		Data:          req.Data,
		Status:        domain.StatusPending,
		Priority:      req.Priority,
		Recipient:     req.Recipient,
		Sender:        req.Sender,
		ScheduledAt:   req.ScheduledAt,
		RetryCount:    0,
		MaxRetries:    s.clampMaxRetries(req.MaxRetries),
		DefaultLocale: req.Locale,
		CreatedAt:     now,
	}
	if n.Channel == "" {
		n.Channel = domain.ChannelInApp
	}
	if n.Priority == "" {
		n.Priority = domain.PriorityNormal
	}
	if n.ScheduledAt == nil {
		n.ScheduledAt = &now
	}

	if n.UserID == "" && n.Recipient == "" {
		return nil, fmt.Errorf("either user_id or recipient is required: %w", domain.ErrBadRequest)
	}

	// Resolve the delivery address from stored recipients when absent.
	if n.Recipient == "" && n.UserID != "" && n.Channel != domain.ChannelInApp {
		recipient, err := s.recipients.GetByUserAndChannel(ctx, n.UserID, n.Channel)
		if err != nil {
			return nil, fmt.Errorf("resolve recipient: %w", err)
		}
		if recipient == nil {
			return nil, fmt.Errorf("no recipient for user %s on channel %s: %w", n.UserID, n.Channel, domain.ErrNotFound)
		}
		n.Recipient = recipient.Address
		if n.DefaultLocale == "" {
			n.DefaultLocale = recipient.PreferredLocale
		}
	}

	if req.HasTemplateReference() {
		if err := s.applyTemplate(ctx, n, req); err != nil {
			return nil, err
		}
	} else if strings.TrimSpace(n.Title) == "" || strings.TrimSpace(n.Message) == "" {
		return nil, fmt.Errorf("title and message are required without a template: %w", domain.ErrBadRequest)
	}

	// High and Critical priority bypass any caller-supplied schedule.
	if n.Priority == domain.PriorityHigh || n.Priority == domain.PriorityCritical {
		scheduled := time.Now().UTC()
		n.ScheduledAt = &scheduled
	}

	if err := s.notifications.CreateNotification(ctx, n); err != nil {
		return nil, fmt.Errorf("persist notification: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"channel":         n.Channel,
		"priority":        n.Priority,
	}).Info("notification created")

	return n, nil
}

func (s *NotificationService) applyTemplate(ctx context.Context, n *domain.Notification, req *domain.CreateNotificationRequest) error {
	var tmpl *domain.NotificationTemplate
	var err error

	if req.TemplateID != nil {
		tmpl, err = s.templates.GetTemplateByID(ctx, *req.TemplateID)
	} else {
		// Any locale variant carries the channel and schema we validate
		// against; locale selection itself happens at send time.
		tmpl, err = s.resolver.Resolve(ctx, req.TemplateSlug, req.Locale, "")
	}
	if err != nil {
		return err
	}
	if tmpl == nil {
		return fmt.Errorf("template not found: %w", domain.ErrNotFound)
	}

	if tmpl.Channel != domain.ChannelInApp && !domain.ValidateRecipient(tmpl.Channel, n.Recipient) {
		return fmt.Errorf("invalid %s recipient %q: %w", tmpl.Channel, n.Recipient, domain.ErrBadRequest)
	}

	if err := validateTemplateVariables(tmpl, req.TemplateVariables); err != nil {
		return err
	}

	n.Channel = tmpl.Channel // template dictates the channel
	n.TemplateSlug = tmpl.Slug
	if n.DefaultLocale == "" {
		n.DefaultLocale = tmpl.Locale
	}
	if len(req.TemplateVariables) > 0 {
		raw, err := json.Marshal(req.TemplateVariables)
		if err != nil {
			return fmt.Errorf("serialize template variables: %w", err)
		}
		n.TemplateVariables = string(raw)
	}
	return nil
}

// validateTemplateVariables enforces the template's variables schema: every
// variable marked required must be present and non-empty.
func validateTemplateVariables(tmpl *domain.NotificationTemplate, vars map[string]string) error {
	for name, rule := range tmpl.Variables {
		if !rule.Required {
			continue
		}
		value, ok := vars[name]
		if !ok || strings.TrimSpace(value) == "" {
			return fmt.Errorf("required template variable %q is missing: %w", name, domain.ErrBadRequest)
		}
	}
	return nil
}

// CreateMany creates notifications independently; one bad request does not
// block the rest. The returned error aggregates per-item failures.
func (s *NotificationService) CreateMany(ctx context.Context, reqs []*domain.CreateNotificationRequest) ([]*domain.Notification, error) {
	var created []*domain.Notification
	var failures []string

	for i, req := range reqs {
		n, err := s.Create(ctx, req)
		if err != nil {
			failures = append(failures, fmt.Sprintf("item %d: %v", i, err))
			continue
		}
		created = append(created, n)
	}

	if len(failures) > 0 {
		return created, fmt.Errorf("create many: %s", strings.Join(failures, "; "))
	}
	return created, nil
}

// Send performs one delivery attempt and commits the resulting transition.
// locale, when non-empty, overrides the stored locale for template
// resolution on this attempt only.
func (s *NotificationService) Send(ctx context.Context, id uuid.UUID, locale string) error {
	n, err := s.notifications.GetNotificationByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load notification %s: %w", id, err)
	}
	if n == nil {
		return fmt.Errorf("notification %s: %w", id, domain.ErrNotFound)
	}
	if n.Status != domain.StatusPending {
		return nil
	}

	if n.TemplateSlug != "" {
		tmpl, err := s.resolver.Resolve(ctx, n.TemplateSlug, locale, n.DefaultLocale)
		if err != nil {
			// A vanished template is a send failure for this item only.
			return s.recordFailure(ctx, n, fmt.Sprintf("resolve template %q: %v", n.TemplateSlug, err))
		}
		vars := map[string]string{}
		if n.TemplateVariables != "" {
			if err := json.Unmarshal([]byte(n.TemplateVariables), &vars); err != nil {
				return s.recordFailure(ctx, n, fmt.Sprintf("corrupt template variables: %v", err))
			}
		}
		n.Title = s.engine.Render(tmpl.Subject, vars)
		n.Message = s.engine.Render(tmpl.Body, vars)
	}

	sender, err := s.senders.SenderFor(n.Channel)
	if err != nil {
		return s.recordFailure(ctx, n, err.Error())
	}

	result := sender.Send(ctx, n)
	if !result.Success {
		reason := result.ErrorMessage
		if reason == "" {
			reason = "send failed"
		}
		return s.recordFailure(ctx, n, reason)
	}

	sentAt := time.Now().UTC()
	if result.SentAt != nil {
		sentAt = *result.SentAt
	}
	if err := s.notifications.UpdateNotificationSent(ctx, n.ID, sentAt, result.ExternalID); err != nil {
		return fmt.Errorf("commit sent state for %s: %w", n.ID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"channel":         n.Channel,
		"external_id":     result.ExternalID,
	}).Info("notification sent")

	return nil
}

// recordFailure charges one attempt against the retry budget. While budget
// remains the notification stays Pending with the failure recorded, so the
// next scheduler cycle retries it; at the ceiling it becomes terminal Failed.
func (s *NotificationService) recordFailure(ctx context.Context, n *domain.Notification, reason string) error {
	if err := s.notifications.IncrementRetryCount(ctx, n.ID); err != nil {
		return fmt.Errorf("increment retry count for %s: %w", n.ID, err)
	}

	status := domain.StatusPending
	if n.RetryCount+1 >= n.MaxRetries {
		status = domain.StatusFailed
	}

	if err := s.notifications.UpdateNotificationStatus(ctx, n.ID, status, reason); err != nil {
		return fmt.Errorf("record failure for %s: %w", n.ID, err)
	}

	s.logger.WithFields(logrus.Fields{
		"notification_id": n.ID,
		"status":          status,
		"attempt":         n.RetryCount + 1,
		"max_retries":     n.MaxRetries,
	}).Warnf("send attempt failed: %s", reason)

	return nil
}

// MarkAsRead flips the in-app read flag; the delivery status is untouched.
func (s *NotificationService) MarkAsRead(ctx context.Context, id uuid.UUID) error {
	if err := s.notifications.MarkAsRead(ctx, id); err != nil {
		return fmt.Errorf("mark notification %s as read: %w", id, err)
	}
	return nil
}

// UpsertRecipient registers a delivery address, replacing any existing
// active recipient for the same (user, channel) pair in place.
func (s *NotificationService) UpsertRecipient(ctx context.Context, req *domain.UpsertRecipientRequest) (*domain.NotificationRecipient, error) {
	if req == nil || req.UserID == "" {
		return nil, fmt.Errorf("user_id is required: %w", domain.ErrBadRequest)
	}
	if !domain.ValidateRecipient(req.Channel, req.Address) {
		return nil, fmt.Errorf("invalid %s address %q: %w", req.Channel, req.Address, domain.ErrBadRequest)
	}

	existing, err := s.recipients.GetByUserAndChannel(ctx, req.UserID, req.Channel)
	if err != nil {
		return nil, fmt.Errorf("lookup recipient: %w", err)
	}

	now := time.Now().UTC()

	if existing != nil {
		existing.Address = req.Address
		existing.DisplayName = req.DisplayName
		if req.PreferredLocale != "" {
			existing.PreferredLocale = req.PreferredLocale
		}
		existing.UpdatedAt = &now
		if err := s.recipients.UpdateRecipient(ctx, existing); err != nil {
			return nil, fmt.Errorf("update recipient: %w", err)
		}
		return existing, nil
	}

	recipient := &domain.NotificationRecipient{
		ID:              uuid.New(),
		UserID:          req.UserID,
		Channel:         req.Channel,
		Address:         req.Address,
		DisplayName:     req.DisplayName,
		PreferredLocale: req.PreferredLocale,
		IsActive:        true,
		CreatedAt:       now,
	}
	if err := s.recipients.CreateRecipient(ctx, recipient); err != nil {
		return nil, fmt.Errorf("create recipient: %w", err)
	}
	return recipient, nil
}

// RemoveRecipient soft-deletes the active recipient for a (user, channel)
// pair. Removing an address that was never registered is a no-op.
func (s *NotificationService) RemoveRecipient(ctx context.Context, userID string, channel domain.NotificationChannel) error {
	existing, err := s.recipients.GetByUserAndChannel(ctx, userID, channel)
	if err != nil {
		return fmt.Errorf("lookup recipient: %w", err)
	}
	if existing == nil {
		return nil
	}
	if err := s.recipients.DeleteRecipient(ctx, existing.ID); err != nil {
		return fmt.Errorf("delete recipient: %w", err)
	}
	return nil
}

// CreateTemplate persists a new locale variant. The slug comes from the
// name, so variants of one logical template share it.
func (s *NotificationService) CreateTemplate(ctx context.Context, req *domain.CreateTemplateRequest) (*domain.NotificationTemplate, error) {
	if req == nil || strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("template name is required: %w", domain.ErrBadRequest)
	}

	tmpl := &domain.NotificationTemplate{
		ID:        uuid.New(),
		Name:      req.Name,
		Channel:   req.Channel,
		Subject:   req.Subject,
		Body:      req.Body,
		Variables: req.Variables,
		Locale:    req.Locale,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if tmpl.Locale == "" {
		tmpl.Locale = domain.DefaultLocale
	}
	tmpl.GenerateSlug()

	existing, err := s.templates.GetTemplateBySlugAndLocale(ctx, tmpl.Slug, tmpl.Locale)
	if err != nil {
		return nil, fmt.Errorf("check template uniqueness: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("template %q already exists for locale %q: %w", tmpl.Slug, tmpl.Locale, domain.ErrBadRequest)
	}

	if err := s.templates.CreateTemplate(ctx, tmpl); err != nil {
		return nil, fmt.Errorf("persist template: %w", err)
	}
	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, tmpl.Slug); err != nil {
			s.logger.WithError(err).Warn("template cache invalidation failed")
		}
	}
	return tmpl, nil
}

// UpdateTemplate edits a variant in place. Pending notifications referencing
// the slug pick the new content up on their next send attempt.
func (s *NotificationService) UpdateTemplate(ctx context.Context, tmpl *domain.NotificationTemplate) error {
	if tmpl == nil {
		return fmt.Errorf("template cannot be nil: %w", domain.ErrBadRequest)
	}
	now := time.Now().UTC()
	tmpl.UpdatedAt = &now
	if err := s.templates.UpdateTemplate(ctx, tmpl); err != nil {
		return fmt.Errorf("update template: %w", err)
	}
	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, tmpl.Slug); err != nil {
			s.logger.WithError(err).Warn("template cache invalidation failed")
		}
	}
	return nil
}

func (s *NotificationService) clampMaxRetries(v int) int {
	switch {
	case v == 0:
		return s.maxRetries
	case v < domain.MinMaxRetries:
		return domain.MinMaxRetries
	case v > domain.MaxMaxRetries:
		return domain.MaxMaxRetries
	}
	return v
}
