package messaging

import (
	"fmt"

	"github.com/streadway/amqp"
)

// Publish wraps the payload in an envelope and publishes it to the topic
// exchange with eventName as routing key. Fire-and-forget for the caller;
// the exchange and the message itself are durable.
func (c *Client) Publish(eventName string, payload interface{}, headers map[string]string) error {
	if eventName == "" {
		return fmt.Errorf("event name cannot be empty")
	}
	if !c.IsConnected() {
		return fmt.Errorf("publish %s: no broker connection", eventName)
	}

	env, err := NewEnvelope(payload, headers)
	if err != nil {
		return fmt.Errorf("build envelope: %w", err)
	}
	body, err := env.Encode()
	if err != nil {
		return fmt.Errorf("encode envelope: %w", err)
	}

	err = c.Channel().Publish(
		c.config.Exchange,
		eventName, // routing key
		false,     // mandatory
		false,     // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    env.MessageID,
			Timestamp:    env.Timestamp,
		},
	)
	if err != nil {
		return fmt.Errorf("publish %s: %w", eventName, err)
	}

	c.logger.WithField("event", eventName).Debug("event published")
	return nil
}
