// Package amqp carries dataset-loaded events between the dashboard and the
// history worker over RabbitMQ.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rabbitmq/amqp091-go"

	"salesdash/internal/log"
)

// RoutingKey routes dataset-loaded events.
const RoutingKey = "dataset.loaded"

const (
	defaultPublishTimeout = 5 * time.Second
	defaultPrefetch       = 10
)

// Handler processes one decoded event. A returned error requeues it.
type Handler func(context.Context, *DatasetLoadedMessage) error

// Option tunes a Client.
type Option func(*Client)

// WithLogger sets the client logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l.WithComponent(log.ComponentAMQP) }
}

// WithPublishTimeout bounds a single publish.
func WithPublishTimeout(d time.Duration) Option {
	return func(c *Client) { c.publishTimeout = d }
}

// WithPrefetch limits unacknowledged deliveries held by a consumer.
func WithPrefetch(n int) Option {
	return func(c *Client) { c.prefetch = n }
}

// Client publishes and consumes dataset-loaded events on one channel.
type Client struct {
	conn     *amqp091.Connection
	channel  *amqp091.Channel
	exchange string
	queue    string

	logger         *log.Logger
	publishTimeout time.Duration
	prefetch       int

	// amqp091 channels must not interleave publishes.
	mu sync.Mutex
}

// NewClient dials url and declares a durable direct exchange and a queue
// bound to it under RoutingKey.
func NewClient(url, exchange, queue string, opts ...Option) (*Client, error) {
	c := &Client{
		exchange:       exchange,
		queue:          queue,
		logger:         log.Default(log.ComponentAMQP),
		publishTimeout: defaultPublishTimeout,
		prefetch:       defaultPrefetch,
	}
	for _, opt := range opts {
		opt(c)
	}

	conn, err := amqp091.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial AMQP: %w", err)
	}
	c.conn = conn

	c.channel, err = conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := c.declare(); err != nil {
		c.Close()
		return nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return c, nil
}

func (c *Client) declare() error {
	if err := c.channel.ExchangeDeclare(c.exchange, amqp091.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", c.exchange, err)
	}
	if _, err := c.channel.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare queue %s: %w", c.queue, err)
	}
	if err := c.channel.QueueBind(c.queue, RoutingKey, c.exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", c.queue, err)
	}
	return nil
}

// PublishDatasetLoaded publishes msg as a persistent JSON message.
func (c *Client) PublishDatasetLoaded(ctx context.Context, msg *DatasetLoadedMessage) error {
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.publishTimeout)
	defer cancel()

	c.mu.Lock()
	err = c.channel.PublishWithContext(ctx, c.exchange, RoutingKey, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp091.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    msg.Timestamp,
		Body:         body,
	})
	c.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	c.logger.DebugContext(ctx, "Published dataset loaded message",
		log.FieldOperation, log.OpPublish,
		log.FieldDatasetHash, msg.Hash,
		"origin", msg.Origin,
		"exchange", c.exchange)
	return nil
}

// ConsumeDatasetLoaded delivers events to handler until ctx is cancelled,
// returning ctx.Err() then. Undecodable messages are dropped; handler
// failures are requeued.
func (c *Client) ConsumeDatasetLoaded(ctx context.Context, handler Handler) error {
	if err := c.channel.Qos(c.prefetch, 0, false); err != nil {
		return fmt.Errorf("set prefetch: %w", err)
	}
	deliveries, err := c.channel.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.InfoContext(ctx, "Started consuming dataset loaded messages",
		log.FieldOperation, log.OpConsume,
		"queue", c.queue,
		"prefetch", c.prefetch)

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return errors.New("delivery channel closed")
			}
			c.dispatch(ctx, d.Body, &d, handler)
		}
	}
}

type acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

func (c *Client) dispatch(ctx context.Context, body []byte, ack acknowledger, handler Handler) {
	msg, err := DatasetLoadedMessageFromJSON(body)
	if err != nil {
		c.logger.ErrorContext(ctx, "Dropping undecodable message",
			log.FieldOperation, log.OpConsume,
			log.FieldError, err)
		_ = ack.Nack(false, false)
		return
	}

	if err := handler(ctx, msg); err != nil {
		c.logger.ErrorContext(ctx, "Failed to handle message, requeueing",
			log.FieldOperation, log.OpConsume,
			log.FieldDatasetHash, msg.Hash,
			log.FieldError, err)
		_ = ack.Nack(false, true)
		return
	}
	_ = ack.Ack(false)
}

// Close closes the channel and then the connection.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil && !errors.Is(err, amqp091.ErrClosed) {
			errs = append(errs, fmt.Errorf("close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil && !errors.Is(err, amqp091.ErrClosed) {
			errs = append(errs, fmt.Errorf("close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}
