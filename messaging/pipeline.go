package messaging

import (
	"context"

	"github.com/awburgess/rabbit-clients/internal/reliability"
	"github.com/awburgess/rabbit-clients/serialization"
)

// Pipeline chains a Consumer and a Publisher: the wrapped function's return
// value is forwarded to exactly one downstream queue. It is composition over
// Consumer, fixing the forwarding contract to a single destination.
type Pipeline[In, Out any] struct {
	consumer *Consumer[In, Out]
}

// PipelineOption configures a Pipeline.
type PipelineOption[In, Out any] func(*pipelineConfig[In, Out])

type pipelineConfig[In, Out any] struct {
	consumerOptions []ConsumerOption[In, Out]
}

// WithPipelineExchange binds consume and forward queues to the named
// exchange.
func WithPipelineExchange[In, Out any](name, kind string) PipelineOption[In, Out] {
	return func(cfg *pipelineConfig[In, Out]) {
		cfg.consumerOptions = append(cfg.consumerOptions, WithConsumerExchange[In, Out](name, kind))
	}
}

// WithPipelineSingleFetch switches Run to a single non-blocking fetch.
func WithPipelineSingleFetch[In, Out any]() PipelineOption[In, Out] {
	return func(cfg *pipelineConfig[In, Out]) {
		cfg.consumerOptions = append(cfg.consumerOptions, WithSingleFetch[In, Out]())
	}
}

// WithPipelineLogging toggles the logging mirror.
func WithPipelineLogging[In, Out any](enabled bool) PipelineOption[In, Out] {
	return func(cfg *pipelineConfig[In, Out]) {
		cfg.consumerOptions = append(cfg.consumerOptions, WithLogging[In, Out](enabled))
	}
}

// WithPipelineRetry sets the connection retry policy.
func WithPipelineRetry[In, Out any](policy reliability.Policy) PipelineOption[In, Out] {
	return func(cfg *pipelineConfig[In, Out]) {
		cfg.consumerOptions = append(cfg.consumerOptions, WithConsumerRetry[In, Out](policy))
	}
}

// WithPipelineCodecs replaces the JSON codecs for both directions.
func WithPipelineCodecs[In, Out any](in serialization.Codec[In], out serialization.Codec[Out]) PipelineOption[In, Out] {
	return func(cfg *pipelineConfig[In, Out]) {
		cfg.consumerOptions = append(cfg.consumerOptions,
			WithConsumerCodec[In, Out](in),
			WithForwardCodec[In, Out](out),
		)
	}
}

// NewPipeline creates a pipeline consuming from consumeQueue and forwarding
// handler results to publishQueue.
func NewPipeline[In, Out any](managers ManagerFactory, consumeQueue, publishQueue string, options ...PipelineOption[In, Out]) *Pipeline[In, Out] {
	cfg := &pipelineConfig[In, Out]{}
	for _, opt := range options {
		opt(cfg)
	}

	consumerOptions := append(
		[]ConsumerOption[In, Out]{WithForwardQueues[In, Out](publishQueue)},
		cfg.consumerOptions...,
	)

	return &Pipeline[In, Out]{
		consumer: NewConsumer[In, Out](managers, consumeQueue, consumerOptions...),
	}
}

// Run consumes messages, invoking fn and forwarding its return value, until
// the consumer stops.
func (p *Pipeline[In, Out]) Run(ctx context.Context, fn HandlerFunc[In, Out]) error {
	return p.consumer.Run(ctx, fn)
}

// Wrap decorates fn as a runnable pipeline stage.
func (p *Pipeline[In, Out]) Wrap(fn HandlerFunc[In, Out]) func(context.Context) error {
	return p.consumer.Wrap(fn)
}

// Close closes the pipeline's connections.
func (p *Pipeline[In, Out]) Close() error {
	return p.consumer.Close()
}
