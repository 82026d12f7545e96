package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/Odix-Pay/odixpay-notifications/internal/domain"
	"github.com/Odix-Pay/odixpay-notifications/internal/messaging"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// EventBus is the broker surface the ingestors need.
type EventBus interface {
	Subscribe(eventName string, handler messaging.HandlerFunc) error
}

// Lifecycle is the slice of the notification service driven by inbound
// events.
type Lifecycle interface {
	Create(ctx context.Context, req *domain.CreateNotificationRequest) (*domain.Notification, error)
	CreateMany(ctx context.Context, reqs []*domain.CreateNotificationRequest) ([]*domain.Notification, error)
	MarkAsRead(ctx context.Context, id uuid.UUID) error
	UpsertRecipient(ctx context.Context, req *domain.UpsertRecipientRequest) (*domain.NotificationRecipient, error)
	RemoveRecipient(ctx context.Context, userID string, channel domain.NotificationChannel) error
}

// Subscriber translates inbound broker events into lifecycle calls.
type Subscriber struct {
	bus     EventBus
	service Lifecycle
	logger  *logrus.Logger
}

func NewSubscriber(bus EventBus, service Lifecycle, logger *logrus.Logger) *Subscriber {
	return &Subscriber{bus: bus, service: service, logger: logger}
}

// RegisterAll sets up every subscription synchronously and in order. Any
// failure aborts startup: a silently missing subscription would mean
// silently dropped events.
func (s *Subscriber) RegisterAll() error {
	subscriptions := []struct {
		topic   string
		handler messaging.HandlerFunc
	}{
		{TopicCreateNotification, s.handleCreate},
		{TopicCreateNotificationMany, s.handleCreateMany},
		{TopicMarkAsRead, s.handleMarkAsRead},
		{TopicCard3dOtp, s.handleCard3dOtp},
		{TopicTransactionStatusChanged, s.handleTransactionStatus},
		{TopicCardStatusChanged, s.handleCardStatus},
		{TopicEmailVerified, s.handleEmailChanged},
		{TopicEmailUpdated, s.handleEmailChanged},
		{TopicEmailDeleted, s.handleEmailDeleted},
		{TopicPhoneVerified, s.handlePhoneChanged},
		{TopicPhoneUpdated, s.handlePhoneChanged},
		{TopicPhoneDeleted, s.handlePhoneDeleted},
	}

	for _, sub := range subscriptions {
		if err := s.bus.Subscribe(sub.topic, sub.handler); err != nil {
			return fmt.Errorf("subscribe %s: %w", sub.topic, err)
		}
	}
	return nil
}

func (s *Subscriber) handleCreate(env *messaging.Envelope) (interface{}, error) {
	var req domain.CreateNotificationRequest
	if err := env.Decode(&req); err != nil {
		return nil, fmt.Errorf("decode create request: %w", err)
	}
	n, err := s.service.Create(context.Background(), &req)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (s *Subscriber) handleCreateMany(env *messaging.Envelope) (interface{}, error) {
	var reqs []*domain.CreateNotificationRequest
	if err := env.Decode(&reqs); err != nil {
		return nil, fmt.Errorf("decode create many request: %w", err)
	}
	created, err := s.service.CreateMany(context.Background(), reqs)
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Subscriber) handleMarkAsRead(env *messaging.Envelope) (interface{}, error) {
	var evt MarkAsReadEvent
	if err := env.Decode(&evt); err != nil {
		return nil, fmt.Errorf("decode mark-as-read event: %w", err)
	}
	if err := s.service.MarkAsRead(context.Background(), evt.NotificationID); err != nil {
		return nil, err
	}
	return nil, nil
}

// handleCard3dOtp fans the OTP out to every contact on the event: email when
// present, SMS when a phone number is present.
func (s *Subscriber) handleCard3dOtp(env *messaging.Envelope) (interface{}, error) {
	var evt Card3dOtpEvent
	if err := env.Decode(&evt); err != nil {
		return nil, fmt.Errorf("decode 3ds otp event: %w", err)
	}

	title := "Your payment verification code"
	message := fmt.Sprintf("Use code %s to confirm the payment of %.2f %s.", evt.Otp, evt.Amount, evt.Currency)

	var reqs []*domain.CreateNotificationRequest
	if evt.Email != "" {
		reqs = append(reqs, &domain.CreateNotificationRequest{
			UserID:    evt.UserID,
			Channel:   domain.ChannelEmail,
			Recipient: evt.Email,
			Title:     title,
			Message:   message,
			Priority:  domain.PriorityCritical,
		})
	}
	if evt.PhoneNumber != "" {
		reqs = append(reqs, &domain.CreateNotificationRequest{
			UserID:    evt.UserID,
			Channel:   domain.ChannelSMS,
			Recipient: evt.PhoneCountryCode + evt.PhoneNumber,
			Title:     title,
			Message:   message,
			Priority:  domain.PriorityCritical,
		})
	}
	if len(reqs) == 0 {
		s.logger.Warn("3ds otp event without email or phone, nothing to deliver")
		return nil, nil
	}

	if _, err := s.service.CreateMany(context.Background(), reqs); err != nil {
		return nil, err
	}
	return nil, nil
}

func (s *Subscriber) handleTransactionStatus(env *messaging.Envelope) (interface{}, error) {
	var evt TransactionObservedEvent
	if err := env.Decode(&evt); err != nil {
		return nil, fmt.Errorf("decode transaction event: %w", err)
	}
	if evt.UserID == "" {
		s.logger.WithField("tx", evt.TransactionHash).Debug("transaction event without user, skipping")
		return nil, nil
	}

	outcome := "confirmed"
	if !evt.IsSuccessful {
		outcome = "failed"
	}
	direction := strings.ToLower(evt.Direction)
	if direction == "" {
		direction = "transaction"
	}

	_, err := s.service.Create(context.Background(), &domain.CreateNotificationRequest{
		UserID:   evt.UserID,
		Channel:  domain.ChannelInApp,
		Title:    fmt.Sprintf("Your %s was %s", direction, outcome),
		Message:  fmt.Sprintf("%.4f %s on %s (%s).", evt.Amount, evt.Currency, evt.Network, evt.TransactionHash),
		Priority: domain.PriorityNormal,
	})
	return nil, err
}

func (s *Subscriber) handleCardStatus(env *messaging.Envelope) (interface{}, error) {
	var evt CardStatusChangedEvent
	if err := env.Decode(&evt); err != nil {
		return nil, fmt.Errorf("decode card status event: %w", err)
	}
	if evt.UserID == "" {
		return nil, nil
	}

	_, err := s.service.Create(context.Background(), &domain.CreateNotificationRequest{
		UserID:   evt.UserID,
		Channel:  domain.ChannelInApp,
		Title:    "Card status updated",
		Message:  fmt.Sprintf("Card %s is now %s.", evt.MaskedPan, evt.Status),
		Priority: domain.PriorityNormal,
	})
	return nil, err
}

func (s *Subscriber) handleEmailChanged(env *messaging.Envelope) (interface{}, error) {
	var evt UserDataChangedEvent
	if err := env.Decode(&evt); err != nil {
		return nil, fmt.Errorf("decode user data event: %w", err)
	}
	if evt.UserID == "" || evt.EmailAddress == "" || !evt.IsEmailConfirmed {
		return nil, nil
	}

	_, err := s.service.UpsertRecipient(context.Background(), &domain.UpsertRecipientRequest{
		UserID:      evt.UserID,
		Channel:     domain.ChannelEmail,
		Address:     evt.EmailAddress,
		DisplayName: displayName(evt),
	})
	return nil, err
}

func (s *Subscriber) handleEmailDeleted(env *messaging.Envelope) (interface{}, error) {
	var evt UserDataChangedEvent
	if err := env.Decode(&evt); err != nil {
		return nil, fmt.Errorf("decode user data event: %w", err)
	}
	if evt.UserID == "" {
		return nil, nil
	}
	return nil, s.service.RemoveRecipient(context.Background(), evt.UserID, domain.ChannelEmail)
}

func (s *Subscriber) handlePhoneChanged(env *messaging.Envelope) (interface{}, error) {
	var evt UserDataChangedEvent
	if err := env.Decode(&evt); err != nil {
		return nil, fmt.Errorf("decode user data event: %w", err)
	}
	if evt.UserID == "" || evt.PhoneNumber == "" || !evt.IsPhoneNumberConfirmed {
		return nil, nil
	}

	_, err := s.service.UpsertRecipient(context.Background(), &domain.UpsertRecipientRequest{
		UserID:      evt.UserID,
		Channel:     domain.ChannelSMS,
		Address:     evt.PhoneNumber,
		DisplayName: displayName(evt),
	})
	return nil, err
}

func (s *Subscriber) handlePhoneDeleted(env *messaging.Envelope) (interface{}, error) {
	var evt UserDataChangedEvent
	if err := env.Decode(&evt); err != nil {
		return nil, fmt.Errorf("decode user data event: %w", err)
	}
	if evt.UserID == "" {
		return nil, nil
	}
	return nil, s.service.RemoveRecipient(context.Background(), evt.UserID, domain.ChannelSMS)
}

func displayName(evt UserDataChangedEvent) string {
	name := strings.TrimSpace(evt.FirstName + " " + evt.LastName)
	if name == "" {
		name = evt.UserName
	}
	return name
}
