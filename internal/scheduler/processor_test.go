package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Odix-Pay/odixpay-notifications/internal/domain"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	pending []*domain.Notification
	err     error
}

func (s *stubRepo) CreateNotification(context.Context, *domain.Notification) error { return nil }
func (s *stubRepo) GetNotificationByID(context.Context, uuid.UUID) (*domain.Notification, error) {
	return nil, nil
}
func (s *stubRepo) GetPendingNotifications(context.Context) ([]*domain.Notification, error) {
	return s.pending, s.err
}
func (s *stubRepo) UpdateNotificationStatus(context.Context, uuid.UUID, domain.NotificationStatus, string) error {
	return nil
}
func (s *stubRepo) UpdateNotificationSent(context.Context, uuid.UUID, time.Time, string) error {
	return nil
}
func (s *stubRepo) IncrementRetryCount(context.Context, uuid.UUID) error { return nil }
func (s *stubRepo) MarkAsRead(context.Context, uuid.UUID) error          { return nil }

type recordingDispatcher struct {
	sent    []uuid.UUID
	errFor  map[uuid.UUID]error
	panicOn map[uuid.UUID]bool
}

func (d *recordingDispatcher) Send(_ context.Context, id uuid.UUID, _ string) error {
	d.sent = append(d.sent, id)
	if d.panicOn[id] {
		panic("sender blew up")
	}
	return d.errFor[id]
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func pendingNotification(scheduledAt time.Time) *domain.Notification {
	return &domain.Notification{
		ID:          uuid.New(),
		Channel:     domain.ChannelInApp,
		Status:      domain.StatusPending,
		ScheduledAt: &scheduledAt,
		MaxRetries:  domain.DefaultMaxRetries,
	}
}

func TestRunCycleDispatchesOnlyDue(t *testing.T) {
	now := time.Now().UTC()
	due := pendingNotification(now.Add(-time.Minute))
	future := pendingNotification(now.Add(time.Hour))
	exhausted := pendingNotification(now.Add(-time.Minute))
	exhausted.RetryCount = exhausted.MaxRetries

	repo := &stubRepo{pending: []*domain.Notification{due, future, exhausted}}
	dispatcher := &recordingDispatcher{}
	p := NewProcessor(repo, dispatcher, time.Second, quietLogger())

	require.NoError(t, p.RunCycle(context.Background()))

	assert.Equal(t, []uuid.UUID{due.ID}, dispatcher.sent)
}

func TestRunCycleNilScheduleIsDue(t *testing.T) {
	n := pendingNotification(time.Now().UTC())
	n.ScheduledAt = nil

	repo := &stubRepo{pending: []*domain.Notification{n}}
	dispatcher := &recordingDispatcher{}
	p := NewProcessor(repo, dispatcher, time.Second, quietLogger())

	require.NoError(t, p.RunCycle(context.Background()))
	assert.Equal(t, []uuid.UUID{n.ID}, dispatcher.sent)
}

func TestRunCyclePanicIsolation(t *testing.T) {
	now := time.Now().UTC()
	first := pendingNotification(now.Add(-time.Minute))
	second := pendingNotification(now.Add(-time.Minute))
	third := pendingNotification(now.Add(-time.Minute))

	dispatcher := &recordingDispatcher{
		panicOn: map[uuid.UUID]bool{second.ID: true},
	}
	repo := &stubRepo{pending: []*domain.Notification{first, second, third}}
	p := NewProcessor(repo, dispatcher, time.Second, quietLogger())

	require.NoError(t, p.RunCycle(context.Background()))

	assert.Equal(t, []uuid.UUID{first.ID, second.ID, third.ID}, dispatcher.sent)
}

func TestRunCycleDispatchErrorDoesNotAbortBatch(t *testing.T) {
	now := time.Now().UTC()
	first := pendingNotification(now.Add(-time.Minute))
	second := pendingNotification(now.Add(-time.Minute))

	dispatcher := &recordingDispatcher{
		errFor: map[uuid.UUID]error{first.ID: errors.New("provider down")},
	}
	repo := &stubRepo{pending: []*domain.Notification{first, second}}
	p := NewProcessor(repo, dispatcher, time.Second, quietLogger())

	require.NoError(t, p.RunCycle(context.Background()))
	assert.Len(t, dispatcher.sent, 2)
}

func TestRunCycleRepositoryError(t *testing.T) {
	repo := &stubRepo{err: errors.New("connection refused")}
	dispatcher := &recordingDispatcher{}
	p := NewProcessor(repo, dispatcher, time.Second, quietLogger())

	err := p.RunCycle(context.Background())
	require.Error(t, err)
	assert.Empty(t, dispatcher.sent)
}

func TestRunStopsOnCancel(t *testing.T) {
	repo := &stubRepo{}
	dispatcher := &recordingDispatcher{}
	p := NewProcessor(repo, dispatcher, 10*time.Millisecond, quietLogger())

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("processor did not stop after cancellation")
	}
}

func TestRunCycleCancelledMidBatch(t *testing.T) {
	now := time.Now().UTC()
	var pending []*domain.Notification
	for i := 0; i < 3; i++ {
		pending = append(pending, pendingNotification(now.Add(-time.Minute)))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	repo := &stubRepo{pending: pending}
	dispatcher := &recordingDispatcher{}
	p := NewProcessor(repo, dispatcher, time.Second, quietLogger())

	err := p.RunCycle(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, dispatcher.sent)
}
