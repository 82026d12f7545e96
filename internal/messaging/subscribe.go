package messaging

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/streadway/amqp"
)

// maxDeliveryAttempts bounds per-message redelivery before dead-lettering.
const maxDeliveryAttempts = 3

const retryCountHeader = "x-retry-count"

// HandlerFunc processes one decoded envelope. A non-nil reply is published
// back to the requester when the delivery carries reply-to metadata.
type HandlerFunc func(env *Envelope) (interface{}, error)

// Subscribe declares a durable queue named <eventName>.<serviceName>, binds
// it to the exchange with eventName as routing key, and starts consuming with
// prefetch 1 and manual acks. A returning error means the subscription was
// never established; the caller must treat that as fatal at startup.
//
// Handler failures are retried through the broker: the message is republished
// with an incremented x-retry-count header after an exponential delay, and
// nacked to the dead-letter destination once the attempt ceiling is reached.
func (c *Client) Subscribe(eventName string, handler HandlerFunc) error {
	if err := c.consume(eventName, handler); err != nil {
		return err
	}

	// Remember the subscription so a reconnect can restore the consumer.
	c.mu.Lock()
	c.subs = append(c.subs, subscription{eventName: eventName, handler: handler})
	c.mu.Unlock()

	return nil
}

func (c *Client) consume(eventName string, handler HandlerFunc) error {
	if eventName == "" {
		return fmt.Errorf("event name cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("subscribe %s: nil handler", eventName)
	}
	if !c.IsConnected() {
		return fmt.Errorf("subscribe %s: no broker connection", eventName)
	}

	channel := c.Channel()

	queueName := queueNameFor(eventName, c.config.ServiceName)

	queue, err := channel.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", queueName, err)
	}

	if err := channel.QueueBind(queue.Name, eventName, c.config.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", queueName, err)
	}

	// One in-flight message per consumer: a slow handler throttles its own
	// queue instead of accumulating unbounded in-memory work.
	if err := channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set qos on %s: %w", queueName, err)
	}

	deliveries, err := channel.Consume(
		queue.Name,
		c.config.ServiceName, // consumer tag
		false,                // auto-ack
		false,                // exclusive
		false,                // no-local
		false,                // no-wait
		nil,                  // args
	)
	if err != nil {
		return fmt.Errorf("consume %s: %w", queueName, err)
	}

	c.logger.WithField("queue", queue.Name).Info("subscribed")

	go func() {
		for {
			select {
			case msg, ok := <-deliveries:
				if !ok {
					return
				}
				c.handleDelivery(msg, handler)
			case <-c.ctx.Done():
				c.logger.WithField("queue", queue.Name).Info("consumer stopped")
				return
			}
		}
	}()

	return nil
}

func (c *Client) handleDelivery(msg amqp.Delivery, handler HandlerFunc) {
	env, err := DecodeEnvelope(msg.Body)
	if err != nil {
		c.logger.WithError(err).WithField("routing_key", msg.RoutingKey).Error("undecodable message, dead-lettering")
		msg.Nack(false, false)
		return
	}

	reply, err := handler(env)
	if err != nil {
		c.logger.WithError(err).WithField("routing_key", msg.RoutingKey).Error("handler failed")
		c.retryOrDeadLetter(msg)
		return
	}

	// Reply to RPC callers only on success.
	if reply != nil && msg.ReplyTo != "" && msg.CorrelationId != "" {
		if err := c.publishReply(msg.ReplyTo, msg.CorrelationId, reply); err != nil {
			c.logger.WithError(err).WithField("reply_to", msg.ReplyTo).Error("reply publish failed")
		}
	}

	msg.Ack(false)
}

func (c *Client) retryOrDeadLetter(msg amqp.Delivery) {
	attempt, deadLetter := retryDecision(msg.Headers)

	if deadLetter {
		c.logger.WithFields(map[string]interface{}{
			"routing_key": msg.RoutingKey,
			"retry_count": attempt,
		}).Warn("retry limit reached, dead-lettering message")
		msg.Nack(false, false)
		return
	}

	c.logger.WithFields(map[string]interface{}{
		"routing_key": msg.RoutingKey,
		"attempt":     attempt,
	}).Info("retrying message")

	headers := msg.Headers
	if headers == nil {
		headers = amqp.Table{}
	}
	headers[retryCountHeader] = int32(attempt)

	time.Sleep(backoffDelay(attempt))

	err := c.Channel().Publish(
		msg.Exchange,
		msg.RoutingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:   msg.ContentType,
			Body:          msg.Body,
			DeliveryMode:  amqp.Persistent,
			Headers:       headers,
			MessageId:     msg.MessageId,
			Timestamp:     msg.Timestamp,
			ReplyTo:       msg.ReplyTo,
			CorrelationId: msg.CorrelationId,
		},
	)
	if err != nil {
		c.logger.WithError(err).Error("retry publish failed, dead-lettering original")
		msg.Nack(false, false)
		return
	}

	// The republished copy is the new attempt; discard this delivery.
	msg.Ack(false)
}

func (c *Client) publishReply(replyTo, correlationID string, reply interface{}) error {
	env, err := NewEnvelope(reply, nil)
	if err != nil {
		return err
	}
	body, err := env.Encode()
	if err != nil {
		return err
	}
	return c.Channel().Publish(
		"",      // default exchange routes straight to the reply queue
		replyTo, // queue name as routing key
		false,
		false,
		amqp.Publishing{
			ContentType:   "application/json",
			Body:          body,
			CorrelationId: correlationID,
		},
	)
}

// retryDecision maps a delivery's retry history to the next action: attempt
// is the redelivery attempt this failure starts, deadLetter is true once the
// attempt ceiling is exhausted.
func retryDecision(headers amqp.Table) (attempt int, deadLetter bool) {
	attempt = retryCountFromHeaders(headers) + 1
	return attempt, attempt > maxDeliveryAttempts
}

// queueNameFor builds the per-(event, service) queue name: replicas of one
// service load-balance on their queue, other services get their own copies.
func queueNameFor(eventName, serviceName string) string {
	return fmt.Sprintf("%s.%s", eventName, serviceName)
}

// backoffDelay returns the exponential delay before redelivery attempt n:
// 1s, 2s, 4s for attempts 1 through 3.
func backoffDelay(attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
}

// retryCountFromHeaders tolerates the integer encodings AMQP clients use for
// header values, plus stringified counts from foreign publishers.
func retryCountFromHeaders(headers amqp.Table) int {
	if headers == nil {
		return 0
	}
	switch v := headers[retryCountHeader].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	case []byte:
		if n, err := strconv.Atoi(string(v)); err == nil {
			return n
		}
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}
