package messaging

import (
	"errors"
	"testing"
	"time"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAcknowledger struct {
	acks    int
	nacks   int
	requeue bool
}

func (f *fakeAcknowledger) Ack(_ uint64, _ bool) error { f.acks++; return nil }

func (f *fakeAcknowledger) Nack(_ uint64, _ bool, requeue bool) error {
	f.nacks++
	f.requeue = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(_ uint64, _ bool) error { return nil }

func envelopeBody(t *testing.T, payload interface{}) []byte {
	t.Helper()
	env, err := NewEnvelope(payload, nil)
	require.NoError(t, err)
	body, err := env.Encode()
	require.NoError(t, err)
	return body
}

func TestQueueNameFor(t *testing.T) {
	assert.Equal(t, "notification.create.notifications-service",
		queueNameFor("notification.create", "notifications-service"))
	assert.Equal(t, "card.card3dotp.notifications-service",
		queueNameFor("card.card3dotp", "notifications-service"))
}

func TestRetryDecision(t *testing.T) {
	cases := []struct {
		name       string
		headers    amqp.Table
		attempt    int
		deadLetter bool
	}{
		{"first failure retries", nil, 1, false},
		{"second failure retries", amqp.Table{retryCountHeader: int32(1)}, 2, false},
		{"third failure retries", amqp.Table{retryCountHeader: int32(2)}, 3, false},
		{"fourth failure dead-letters", amqp.Table{retryCountHeader: int32(3)}, 4, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			attempt, deadLetter := retryDecision(tc.headers)
			assert.Equal(t, tc.attempt, attempt)
			assert.Equal(t, tc.deadLetter, deadLetter)
		})
	}
}

func TestHandleDelivery(t *testing.T) {
	t.Run("success is acked", func(t *testing.T) {
		c := NewClient(&Config{ServiceName: "notifications-service"}, quietLogger())
		ack := &fakeAcknowledger{}

		var got string
		handler := func(env *Envelope) (interface{}, error) {
			var payload map[string]string
			require.NoError(t, env.Decode(&payload))
			got = payload["name"]
			return nil, nil
		}

		c.handleDelivery(amqp.Delivery{
			Acknowledger: ack,
			Body:         envelopeBody(t, map[string]string{"name": "ada"}),
		}, handler)

		assert.Equal(t, "ada", got)
		assert.Equal(t, 1, ack.acks)
		assert.Zero(t, ack.nacks)
	})

	t.Run("undecodable body is dead-lettered without invoking the handler", func(t *testing.T) {
		c := NewClient(&Config{ServiceName: "notifications-service"}, quietLogger())
		ack := &fakeAcknowledger{}

		called := false
		c.handleDelivery(amqp.Delivery{
			Acknowledger: ack,
			Body:         []byte("not json"),
		}, func(*Envelope) (interface{}, error) {
			called = true
			return nil, nil
		})

		assert.False(t, called)
		assert.Zero(t, ack.acks)
		assert.Equal(t, 1, ack.nacks)
		assert.False(t, ack.requeue, "dead-lettered messages must not requeue")
	})

	t.Run("failure with retries exhausted is dead-lettered", func(t *testing.T) {
		c := NewClient(&Config{ServiceName: "notifications-service"}, quietLogger())
		ack := &fakeAcknowledger{}

		c.handleDelivery(amqp.Delivery{
			Acknowledger: ack,
			Body:         envelopeBody(t, map[string]string{"name": "ada"}),
			Headers:      amqp.Table{retryCountHeader: int32(maxDeliveryAttempts)},
		}, func(*Envelope) (interface{}, error) {
			return nil, errors.New("handler failed")
		})

		assert.Zero(t, ack.acks)
		assert.Equal(t, 1, ack.nacks)
		assert.False(t, ack.requeue)
	})
}

func TestBackoffDelay(t *testing.T) {
	// 3 republish attempts with strictly increasing delay, then dead-letter.
	assert.Equal(t, 1*time.Second, backoffDelay(1))
	assert.Equal(t, 2*time.Second, backoffDelay(2))
	assert.Equal(t, 4*time.Second, backoffDelay(3))
}

func TestRetryCountFromHeaders(t *testing.T) {
	cases := []struct {
		name     string
		headers  amqp.Table
		expected int
	}{
		{"nil table", nil, 0},
		{"missing header", amqp.Table{}, 0},
		{"int32 value", amqp.Table{retryCountHeader: int32(2)}, 2},
		{"int64 value", amqp.Table{retryCountHeader: int64(3)}, 3},
		{"int value", amqp.Table{retryCountHeader: 1}, 1},
		{"byte slice value", amqp.Table{retryCountHeader: []byte("2")}, 2},
		{"string value", amqp.Table{retryCountHeader: "4"}, 4},
		{"unparseable value", amqp.Table{retryCountHeader: "nope"}, 0},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, retryCountFromHeaders(tc.headers))
		})
	}
}
