package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return ts
}

func TestValidateRecipient(t *testing.T) {
	t.Run("email", func(t *testing.T) {
		assert.True(t, ValidateRecipient(ChannelEmail, "user@example.com"))
		assert.False(t, ValidateRecipient(ChannelEmail, "not-an-email"))
		assert.False(t, ValidateRecipient(ChannelEmail, ""))
		assert.False(t, ValidateRecipient(ChannelEmail, "two@@example.com"))
	})

	t.Run("sms", func(t *testing.T) {
		assert.True(t, ValidateRecipient(ChannelSMS, "+14155552671"))
		assert.False(t, ValidateRecipient(ChannelSMS, "12345"))
		assert.False(t, ValidateRecipient(ChannelSMS, ""))
	})

	t.Run("push", func(t *testing.T) {
		assert.True(t, ValidateRecipient(ChannelPush, "fcm-token-abcdef0123456789"))
		assert.False(t, ValidateRecipient(ChannelPush, "short"))
	})

	t.Run("inapp needs no address", func(t *testing.T) {
		assert.True(t, ValidateRecipient(ChannelInApp, ""))
	})

	t.Run("unknown channel", func(t *testing.T) {
		assert.False(t, ValidateRecipient(NotificationChannel("pigeon"), "anything"))
	})
}

func TestNotificationIsDue(t *testing.T) {
	now := mustParse(t, "2024-06-01T12:00:00Z")
	past := mustParse(t, "2024-06-01T11:00:00Z")
	future := mustParse(t, "2024-06-01T13:00:00Z")

	base := Notification{Status: StatusPending, RetryCount: 0, MaxRetries: 3}

	t.Run("pending with past schedule is due", func(t *testing.T) {
		n := base
		n.ScheduledAt = &past
		assert.True(t, n.IsDue(now))
	})

	t.Run("future schedule is not due", func(t *testing.T) {
		n := base
		n.ScheduledAt = &future
		assert.False(t, n.IsDue(now))
	})

	t.Run("nil schedule is due", func(t *testing.T) {
		n := base
		assert.True(t, n.IsDue(now))
	})

	t.Run("exhausted retry budget is not due", func(t *testing.T) {
		n := base
		n.RetryCount = 3
		assert.False(t, n.IsDue(now))
	})

	t.Run("non-pending status is not due", func(t *testing.T) {
		n := base
		n.Status = StatusFailed
		assert.False(t, n.IsDue(now))
	})
}
