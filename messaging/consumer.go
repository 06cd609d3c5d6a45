package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/awburgess/rabbit-clients/internal/rabbitmq"
	"github.com/awburgess/rabbit-clients/internal/reliability"
	"github.com/awburgess/rabbit-clients/serialization"
)

// DefaultLoggingQueue receives mirrored deliveries unless overridden.
const DefaultLoggingQueue = "logging"

// HandlerFunc processes one decoded message body and may return a value to
// forward downstream. The return value is ignored unless forward queues are
// configured.
type HandlerFunc[In, Out any] func(ctx context.Context, msg In) (Out, error)

// Consumer invokes a wrapped function once per message delivered on a queue.
// Deliveries are auto-acknowledged on receipt, so a failure during handling
// loses the message; there is no redelivery.
type Consumer[In, Out any] struct {
	manager      *rabbitmq.ConnectionManager
	topology     rabbitmq.Topology
	codec        serialization.Codec[In]
	forwardCodec serialization.Codec[Out]
	retry        reliability.Policy
	logger       *slog.Logger
	consumerTag  string

	forwardQueues []string
	logging       bool
	loggingQueue  string
	singleFetch   bool

	logPublisher *Publisher[LogEnvelope]
	forwarders   []*Publisher[Out]
}

// ConsumerOption configures a Consumer.
type ConsumerOption[In, Out any] func(*Consumer[In, Out])

// WithForwardQueues forwards each handler return value to the named queues,
// in order.
func WithForwardQueues[In, Out any](queues ...string) ConsumerOption[In, Out] {
	return func(c *Consumer[In, Out]) {
		c.forwardQueues = append(c.forwardQueues, queues...)
	}
}

// WithConsumerExchange binds the consume queue to the named exchange. The
// same exchange is used when forwarding. An empty kind declares fanout.
func WithConsumerExchange[In, Out any](name, kind string) ConsumerOption[In, Out] {
	return func(c *Consumer[In, Out]) {
		c.topology.Exchange = name
		c.topology.ExchangeType = kind
	}
}

// WithLogging toggles mirroring of raw deliveries to the logging queue.
// Enabled by default.
func WithLogging[In, Out any](enabled bool) ConsumerOption[In, Out] {
	return func(c *Consumer[In, Out]) {
		c.logging = enabled
	}
}

// WithLoggingQueue overrides the logging queue name.
func WithLoggingQueue[In, Out any](queue string) ConsumerOption[In, Out] {
	return func(c *Consumer[In, Out]) {
		c.loggingQueue = queue
	}
}

// WithSingleFetch switches Run from indefinite listening to a single
// non-blocking fetch attempt.
func WithSingleFetch[In, Out any]() ConsumerOption[In, Out] {
	return func(c *Consumer[In, Out]) {
		c.singleFetch = true
	}
}

// WithConsumerCodec replaces the default JSON codec for incoming bodies.
func WithConsumerCodec[In, Out any](codec serialization.Codec[In]) ConsumerOption[In, Out] {
	return func(c *Consumer[In, Out]) {
		c.codec = codec
	}
}

// WithForwardCodec replaces the default JSON codec for forwarded values.
func WithForwardCodec[In, Out any](codec serialization.Codec[Out]) ConsumerOption[In, Out] {
	return func(c *Consumer[In, Out]) {
		c.forwardCodec = codec
	}
}

// WithConsumerRetry sets the connection retry policy.
func WithConsumerRetry[In, Out any](policy reliability.Policy) ConsumerOption[In, Out] {
	return func(c *Consumer[In, Out]) {
		c.retry = policy
	}
}

// WithConsumerLogger sets the logger.
func WithConsumerLogger[In, Out any](logger *slog.Logger) ConsumerOption[In, Out] {
	return func(c *Consumer[In, Out]) {
		c.logger = logger
	}
}

// NewConsumer creates a consumer bound to a queue. The factory mints one
// connection manager for the consumer itself and one for each side publisher,
// so no connection is ever shared between the consume loop and a publish.
func NewConsumer[In, Out any](managers ManagerFactory, queue string, options ...ConsumerOption[In, Out]) *Consumer[In, Out] {
	c := &Consumer[In, Out]{
		manager:      managers(),
		topology:     rabbitmq.Topology{Queue: queue},
		codec:        serialization.JSONCodec[In]{},
		forwardCodec: serialization.JSONCodec[Out]{},
		retry:        reliability.DefaultPolicy(),
		logger:       slog.Default(),
		logging:      true,
		loggingQueue: DefaultLoggingQueue,
		consumerTag:  queue + "-" + uuid.New().String(),
	}

	for _, opt := range options {
		opt(c)
	}

	if c.logging {
		c.logPublisher = NewPublisher[LogEnvelope](managers(), c.loggingQueue,
			WithPublisherRetry[LogEnvelope](c.retry),
			WithPublisherLogger[LogEnvelope](c.logger),
		)
	}

	for _, q := range c.forwardQueues {
		opts := []PublisherOption[Out]{
			WithPublisherCodec[Out](c.forwardCodec),
			WithPublisherRetry[Out](c.retry),
			WithPublisherLogger[Out](c.logger),
		}
		if c.topology.Exchange != "" {
			opts = append(opts, WithExchange[Out](c.topology.Exchange, c.topology.ExchangeType))
		}
		c.forwarders = append(c.forwarders, NewPublisher[Out](managers(), q, opts...))
	}

	return c
}

// Run consumes according to the configured mode: an indefinite blocking
// listen, or a single non-blocking fetch when WithSingleFetch was given.
func (c *Consumer[In, Out]) Run(ctx context.Context, fn HandlerFunc[In, Out]) error {
	if c.singleFetch {
		return c.FetchOne(ctx, fn)
	}
	return c.Listen(ctx, fn)
}

// Wrap decorates fn as a listener. Calling the result runs the consumer.
func (c *Consumer[In, Out]) Wrap(fn HandlerFunc[In, Out]) func(context.Context) error {
	return func(ctx context.Context) error {
		return c.Run(ctx, fn)
	}
}

// Listen blocks, invoking fn once per delivered message, until the context
// is cancelled or the broker closes the connection. Both stop consumption
// cleanly with a nil error. Handler and decode failures stop consumption and
// surface; the triggering message is already acknowledged and lost.
func (c *Consumer[In, Out]) Listen(ctx context.Context, fn HandlerFunc[In, Out]) error {
	var (
		ch         rabbitmq.Channel
		deliveries <-chan amqp.Delivery
	)

	err := c.retry.Execute(ctx, func() error {
		channel, err := c.manager.Ensure(ctx)
		if err != nil {
			return err
		}
		if err := c.topology.Declare(channel); err != nil {
			return err
		}
		d, err := channel.Consume(c.topology.Queue, c.consumerTag)
		if err != nil {
			return fmt.Errorf("register consumer on %q: %w", c.topology.Queue, err)
		}
		ch, deliveries = channel, d
		return nil
	})
	if err != nil {
		return err
	}

	c.logger.Info("listening", "queue", c.topology.Queue, "consumerTag", c.consumerTag)

	for {
		select {
		case <-ctx.Done():
			if err := ch.Cancel(c.consumerTag); err != nil {
				c.logger.Debug("cancel consumer", "error", err)
			}
			c.logger.Info("consumer stopped", "queue", c.topology.Queue)
			return nil

		case d, ok := <-deliveries:
			if !ok {
				// Broker closed the connection; stop cleanly.
				c.logger.Warn("deliveries closed by broker", "queue", c.topology.Queue)
				return nil
			}
			if err := c.handle(ctx, d, fn); err != nil {
				c.logger.Error("message handling failed",
					"queue", c.topology.Queue,
					"error", err,
				)
				return err
			}
		}
	}
}

// FetchOne performs exactly one non-blocking fetch. An empty queue returns
// nil without invoking fn; a fetched message runs the same handler path as
// Listen, including the logging mirror.
func (c *Consumer[In, Out]) FetchOne(ctx context.Context, fn HandlerFunc[In, Out]) error {
	var (
		delivery amqp.Delivery
		fetched  bool
	)

	err := c.retry.Execute(ctx, func() error {
		channel, err := c.manager.Ensure(ctx)
		if err != nil {
			return err
		}
		if err := c.topology.Declare(channel); err != nil {
			return err
		}
		d, ok, err := channel.Get(c.topology.Queue)
		if err != nil {
			return fmt.Errorf("fetch from %q: %w", c.topology.Queue, err)
		}
		delivery, fetched = d, ok
		return nil
	})
	if err != nil {
		return err
	}

	if !fetched {
		return nil
	}
	return c.handle(ctx, delivery, fn)
}

// handle runs one delivery through decode, logging mirror, the wrapped
// function, and downstream forwarding, in that order.
func (c *Consumer[In, Out]) handle(ctx context.Context, d amqp.Delivery, fn HandlerFunc[In, Out]) error {
	msg, err := c.codec.Decode(d.Body)
	if err != nil {
		return err
	}

	if c.logPublisher != nil {
		// Best effort: a logging failure never blocks delivery to fn.
		if err := c.logPublisher.Publish(ctx, newLogEnvelope(c.consumerTag, d)); err != nil {
			c.logger.Warn("logging publish failed",
				"loggingQueue", c.loggingQueue,
				"error", err,
			)
		}
	}

	out, err := fn(ctx, msg)
	if err != nil {
		return fmt.Errorf("handler: %w", err)
	}

	for _, forwarder := range c.forwarders {
		if err := forwarder.Publish(ctx, out); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the consumer's connection and those of its side publishers.
func (c *Consumer[In, Out]) Close() error {
	errs := []error{c.manager.Close()}
	if c.logPublisher != nil {
		errs = append(errs, c.logPublisher.Close())
	}
	for _, forwarder := range c.forwarders {
		errs = append(errs, forwarder.Close())
	}
	return errors.Join(errs...)
}
