package messaging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func TestCloseIsIdempotent(t *testing.T) {
	c := NewClient(&Config{ServiceName: "notifications-service"}, quietLogger())

	require.NoError(t, c.Close())
	assert.True(t, c.closing())

	// Second close must be a no-op, not a double-close of the channel.
	require.NoError(t, c.Close())
}

func TestSubscribeRequiresConnection(t *testing.T) {
	c := NewClient(&Config{ServiceName: "notifications-service"}, quietLogger())

	err := c.Subscribe("notification.create", func(*Envelope) (interface{}, error) { return nil, nil })
	require.Error(t, err)

	// A failed subscribe must not be replayed on reconnect.
	assert.Empty(t, c.subs)
}

func TestSubscribeRejectsNilHandler(t *testing.T) {
	c := NewClient(&Config{ServiceName: "notifications-service"}, quietLogger())

	err := c.Subscribe("notification.create", nil)
	require.Error(t, err)
	assert.Empty(t, c.subs)
}

func TestResubscribeToleratesLostConnection(t *testing.T) {
	c := NewClient(&Config{ServiceName: "notifications-service"}, quietLogger())
	c.subs = append(c.subs, subscription{
		eventName: "notification.create",
		handler:   func(*Envelope) (interface{}, error) { return nil, nil },
	})

	// Still disconnected: every replay fails and is logged, nothing panics.
	c.resubscribe()
}
