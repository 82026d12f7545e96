package messaging

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// DefaultRequestTimeout caps how long Request waits for a reply.
const DefaultRequestTimeout = 10 * time.Second

// Request implements request/reply over pub/sub: it declares a private
// auto-deleting reply queue, publishes the request with correlation metadata,
// and blocks until a matching reply arrives or the timeout fires. The reply
// consumer is always cancelled, so no queue leaks on timeout.
func (c *Client) Request(eventName string, request interface{}, response interface{}, timeout time.Duration) error {
	if eventName == "" {
		return fmt.Errorf("event name cannot be empty")
	}
	if !c.IsConnected() {
		return fmt.Errorf("request %s: no broker connection", eventName)
	}
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}

	channel := c.Channel()

	replyQueue, err := channel.QueueDeclare(
		"",    // broker-generated name
		false, // durable
		true,  // auto-delete
		true,  // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("declare reply queue: %w", err)
	}

	consumerTag := uuid.New().String()
	deliveries, err := channel.Consume(
		replyQueue.Name,
		consumerTag,
		true,  // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("consume reply queue: %w", err)
	}
	defer channel.Cancel(consumerTag, false)

	correlationID := uuid.New().String()

	env, err := NewEnvelope(request, nil)
	if err != nil {
		return fmt.Errorf("build envelope: %w", err)
	}
	body, err := env.Encode()
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	err = channel.Publish(
		c.config.Exchange,
		eventName,
		false,
		false,
		amqp.Publishing{
			ContentType:   "application/json",
			Body:          body,
			CorrelationId: correlationID,
			ReplyTo:       replyQueue.Name,
			MessageId:     env.MessageID,
			Timestamp:     env.Timestamp,
		},
	)
	if err != nil {
		return fmt.Errorf("publish request %s: %w", eventName, err)
	}

	return c.awaitReply(deliveries, correlationID, timeout, response, eventName)
}

// awaitReply blocks until the reply matching correlationID arrives, the
// timeout elapses, or the client shuts down. Deliveries carrying a foreign
// correlation id are discarded.
func (c *Client) awaitReply(deliveries <-chan amqp.Delivery, correlationID string, timeout time.Duration, response interface{}, eventName string) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case msg, ok := <-deliveries:
			if !ok {
				return fmt.Errorf("request %s: reply channel closed", eventName)
			}
			if msg.CorrelationId != correlationID {
				continue
			}
			replyEnv, err := DecodeEnvelope(msg.Body)
			if err != nil {
				return fmt.Errorf("decode reply: %w", err)
			}
			if response == nil {
				return nil
			}
			return replyEnv.Decode(response)
		case <-timer.C:
			return fmt.Errorf("request %s: timed out after %s", eventName, timeout)
		case <-c.ctx.Done():
			return fmt.Errorf("request %s: client closed", eventName)
		}
	}
}
