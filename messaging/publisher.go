package messaging

import (
	"context"
	"log/slog"

	"github.com/awburgess/rabbit-clients/internal/rabbitmq"
	"github.com/awburgess/rabbit-clients/internal/reliability"
	"github.com/awburgess/rabbit-clients/serialization"
)

// ManagerFactory mints a connection manager per wrapper. Consumers use it to
// give each side publisher its own connection.
type ManagerFactory func() *rabbitmq.ConnectionManager

// Publisher emits values of T to a fixed queue, optionally through an
// exchange. Delivery is fire-and-forget: once the transport accepts the
// publish no broker-side confirmation is tracked.
type Publisher[T any] struct {
	manager  *rabbitmq.ConnectionManager
	topology rabbitmq.Topology
	codec    serialization.Codec[T]
	retry    reliability.Policy
	logger   *slog.Logger
}

// PublisherOption configures a Publisher.
type PublisherOption[T any] func(*Publisher[T])

// WithExchange routes publishes through the named exchange instead of the
// default exchange. An empty kind declares a fanout exchange.
func WithExchange[T any](name, kind string) PublisherOption[T] {
	return func(p *Publisher[T]) {
		p.topology.Exchange = name
		p.topology.ExchangeType = kind
	}
}

// WithPublisherCodec replaces the default JSON codec.
func WithPublisherCodec[T any](codec serialization.Codec[T]) PublisherOption[T] {
	return func(p *Publisher[T]) {
		p.codec = codec
	}
}

// WithPublisherRetry sets the connection retry policy.
func WithPublisherRetry[T any](policy reliability.Policy) PublisherOption[T] {
	return func(p *Publisher[T]) {
		p.retry = policy
	}
}

// WithPublisherLogger sets the logger.
func WithPublisherLogger[T any](logger *slog.Logger) PublisherOption[T] {
	return func(p *Publisher[T]) {
		p.logger = logger
	}
}

// NewPublisher creates a publisher bound to a queue. The manager is owned by
// the publisher from here on.
func NewPublisher[T any](manager *rabbitmq.ConnectionManager, queue string, options ...PublisherOption[T]) *Publisher[T] {
	p := &Publisher[T]{
		manager:  manager,
		topology: rabbitmq.Topology{Queue: queue},
		codec:    serialization.JSONCodec[T]{},
		retry:    reliability.DefaultPolicy(),
		logger:   slog.Default(),
	}

	for _, opt := range options {
		opt(p)
	}

	return p
}

// Publish serializes v and emits it. Encoding failures surface immediately;
// connection establishment failures are retried per the policy, and
// exhausting all attempts returns the final connection error.
func (p *Publisher[T]) Publish(ctx context.Context, v T) error {
	body, err := p.codec.Encode(v)
	if err != nil {
		return err
	}

	exchange, routingKey := p.topology.PublishTarget()

	err = p.retry.Execute(ctx, func() error {
		ch, err := p.manager.Ensure(ctx)
		if err != nil {
			return err
		}
		if err := p.topology.Declare(ch); err != nil {
			return err
		}
		if err := ch.Publish(ctx, exchange, routingKey, body); err != nil {
			return &rabbitmq.PublishError{Exchange: exchange, RoutingKey: routingKey, Err: err}
		}
		return nil
	})
	if err != nil {
		return err
	}

	p.logger.Debug("published message", "queue", p.topology.Queue, "exchange", exchange)
	return nil
}

// Wrap decorates fn so that its return value is published on every call.
// Functions taking arguments are wrapped by closing over them.
func (p *Publisher[T]) Wrap(fn func(context.Context) (T, error)) func(context.Context) error {
	return func(ctx context.Context) error {
		v, err := fn(ctx)
		if err != nil {
			return err
		}
		return p.Publish(ctx, v)
	}
}

// Close closes the publisher's connection.
func (p *Publisher[T]) Close() error {
	return p.manager.Close()
}
