package scheduler

import (
	"context"
	"time"

	"github.com/Odix-Pay/odixpay-notifications/internal/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Dispatcher is the slice of the lifecycle service the scheduler drives.
type Dispatcher interface {
	Send(ctx context.Context, id uuid.UUID, locale string) error
}

// Processor is the background dispatch loop: every interval it fetches due
// Pending notifications and attempts delivery one by one. Coordination with
// other components happens only through the repository and the broker; the
// loop holds no shared mutable state.
type Processor struct {
	notifications domain.NotificationRepository
	dispatcher    Dispatcher
	interval      time.Duration
	logger        *logrus.Logger
}

func NewProcessor(notifications domain.NotificationRepository, dispatcher Dispatcher, interval time.Duration, logger *logrus.Logger) *Processor {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Processor{
		notifications: notifications,
		dispatcher:    dispatcher,
		interval:      interval,
		logger:        logger,
	}
}

// Run blocks until ctx is cancelled. Cycle failures are logged and the loop
// carries on at the next tick; nothing short of cancellation stops it.
func (p *Processor) Run(ctx context.Context) {
	p.logger.WithField("interval", p.interval).Info("notification processor started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.RunCycle(ctx); err != nil {
			p.logger.WithError(err).Error("processing cycle failed")
		}

		select {
		case <-ticker.C:
		case <-ctx.Done():
			p.logger.Info("notification processor stopped")
			return
		}
	}
}

// RunCycle performs one poll-and-dispatch pass.
func (p *Processor) RunCycle(ctx context.Context) error {
	pending, err := p.notifications.GetPendingNotifications(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	var due []*domain.Notification
	for _, n := range pending {
		if n.IsDue(now) {
			due = append(due, n)
		}
	}

	if len(due) == 0 {
		p.logger.Debug("no notifications due")
		return nil
	}

	p.logger.WithFields(logrus.Fields{
		"pending": len(pending),
		"due":     len(due),
	}).Info("dispatching due notifications")

	for _, n := range due {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.dispatchOne(ctx, n)
	}

	return nil
}

// dispatchOne isolates a single notification: a panic or error in one send
// never aborts the rest of the batch.
func (p *Processor) dispatchOne(ctx context.Context, n *domain.Notification) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.WithFields(logrus.Fields{
				"notification_id": n.ID,
				"panic":           r,
			}).Error("send panicked")
		}
	}()

	if err := p.dispatcher.Send(ctx, n.ID, ""); err != nil {
		p.logger.WithError(err).WithField("notification_id", n.ID).Error("dispatch failed")
	}
}
