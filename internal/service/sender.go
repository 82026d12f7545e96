package service

import (
	"context"
	"fmt"
	"time"

	"github.com/Odix-Pay/odixpay-notifications/internal/domain"
)

// ChannelSender delivers one rendered notification through one channel.
// Implementations wrap remote providers and are treated as opaque, fallible
// and possibly slow; a failed send is a result, not an error.
type ChannelSender interface {
	Send(ctx context.Context, n *domain.Notification) domain.SendResult
}

// SenderRegistry holds one sender per channel. Selection is an exhaustive
// switch over the channel enum, so adding a channel breaks compilation here
// rather than failing at runtime.
type SenderRegistry struct {
	Email ChannelSender
	SMS   ChannelSender
	Push  ChannelSender
	InApp ChannelSender
}

func (r *SenderRegistry) SenderFor(channel domain.NotificationChannel) (ChannelSender, error) {
	var s ChannelSender
	switch channel {
	case domain.ChannelEmail:
		s = r.Email
	case domain.ChannelSMS:
		s = r.SMS
	case domain.ChannelPush:
		s = r.Push
	case domain.ChannelInApp:
		s = r.InApp
	default:
		return nil, fmt.Errorf("unsupported channel %q: %w", channel, domain.ErrBadRequest)
	}
	if s == nil {
		return nil, fmt.Errorf("no sender configured for channel %q: %w", channel, domain.ErrInternal)
	}
	return s, nil
}

// InAppSender completes immediately: the stored notification record is the
// delivery for in-app messages.
type InAppSender struct{}

func (InAppSender) Send(_ context.Context, _ *domain.Notification) domain.SendResult {
	now := time.Now().UTC()
	return domain.SendResult{Success: true, SentAt: &now}
}
