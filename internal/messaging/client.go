package messaging

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// Client owns the connection, the channel and the topic-exchange topology.
// Publish, Subscribe and Request all go through one Client.
type Client struct {
	config     *Config
	logger     *logrus.Logger
	connection *amqp.Connection
	channel    *amqp.Channel
	mu         sync.RWMutex
	isClosing  bool
	subs       []subscription
	ctx        context.Context
	cancel     context.CancelFunc
}

// subscription is the replay record for one consumer, kept so a reconnect
// can restore it on the fresh channel.
type subscription struct {
	eventName string
	handler   HandlerFunc
}

func NewClient(config *Config, logger *logrus.Logger) *Client {
	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		config: config,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Connect dials the broker with a capped bootstrap retry and declares the
// durable topic exchange. Exhausting the retry budget is fatal to startup.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	for attempt := 1; attempt <= c.config.RetryCount; attempt++ {
		c.connection, err = amqp.Dial(c.config.ConnectionURL())
		if err != nil {
			c.logger.WithError(err).Warnf("broker connection failed (attempt %d/%d)", attempt, c.config.RetryCount)
			if attempt < c.config.RetryCount {
				time.Sleep(c.config.RetryDelay * time.Duration(attempt))
				continue
			}
			return fmt.Errorf("connect to broker: %w", err)
		}

		c.channel, err = c.connection.Channel()
		if err != nil {
			c.connection.Close()
			return fmt.Errorf("open channel: %w", err)
		}

		if err = c.channel.ExchangeDeclare(
			c.config.Exchange, // name
			"topic",           // type
			true,              // durable
			false,             // auto-deleted
			false,             // internal
			false,             // no-wait
			nil,               // arguments
		); err != nil {
			c.channel.Close()
			c.connection.Close()
			return fmt.Errorf("declare exchange %s: %w", c.config.Exchange, err)
		}

		c.logger.WithField("host", c.config.Host).Info("connected to broker")

		go c.watchConnection()

		return nil
	}

	return err
}

func (c *Client) watchConnection() {
	notifyClose := make(chan *amqp.Error)
	c.connection.NotifyClose(notifyClose)

	if err, ok := <-notifyClose; ok {
		if c.closing() {
			return
		}
		c.logger.WithError(err).Warn("broker connection lost, reconnecting")
		time.Sleep(2 * time.Second)
		if reconnectErr := c.Connect(); reconnectErr != nil {
			c.logger.WithError(reconnectErr).Error("broker reconnect failed")
			return
		}
		c.resubscribe()
	}
}

func (c *Client) closing() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.isClosing
}

// resubscribe restores every registered consumer on the fresh channel. The
// old consumer goroutines exited when their delivery channels closed with the
// lost connection.
func (c *Client) resubscribe() {
	c.mu.RLock()
	subs := append([]subscription(nil), c.subs...)
	c.mu.RUnlock()

	for _, sub := range subs {
		if err := c.consume(sub.eventName, sub.handler); err != nil {
			c.logger.WithError(err).WithField("event", sub.eventName).Error("resubscribe failed")
		}
	}
}

func (c *Client) Channel() *amqp.Channel {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channel
}

func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connection != nil && !c.connection.IsClosed()
}

func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isClosing {
		return nil
	}
	c.isClosing = true
	c.cancel()

	var closeErr error

	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			closeErr = fmt.Errorf("close channel: %w", err)
		}
	}
	if c.connection != nil {
		if err := c.connection.Close(); err != nil {
			if closeErr != nil {
				closeErr = fmt.Errorf("%v; close connection: %w", closeErr, err)
			} else {
				closeErr = fmt.Errorf("close connection: %w", err)
			}
		}
	}

	if closeErr == nil {
		c.logger.Info("broker connection closed")
	}
	return closeErr
}
