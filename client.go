// Package rabbitclients is a decorator-style convenience layer over RabbitMQ.
//
// Application functions are wrapped as message producers or consumers without
// manual connection or channel management:
//
//	client, err := rabbitclients.NewClient()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	publish := rabbitclients.NewPublisher[Report](client, "reports").Wrap(buildReport)
//	err = publish(ctx) // runs buildReport and emits its return value
//
//	consumer := rabbitclients.NewConsumer[Report, Summary](client, "reports",
//	    messaging.WithForwardQueues[Report, Summary]("summaries"),
//	)
//	err = consumer.Listen(ctx, summarize) // blocks until ctx is cancelled
package rabbitclients

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/awburgess/rabbit-clients/config"
	"github.com/awburgess/rabbit-clients/internal/rabbitmq"
	"github.com/awburgess/rabbit-clients/internal/reliability"
	"github.com/awburgess/rabbit-clients/messaging"
)

// Client holds the shared configuration from which publishers, consumers and
// pipelines are created. Each wrapper receives its own broker connection;
// the Client itself holds none.
type Client struct {
	cfg    *config.Config
	url    string
	logger *slog.Logger
	retry  reliability.Policy
	dial   rabbitmq.Dialer
}

// NewClient creates a client, loading broker settings from the environment
// unless WithConfig or WithURL is given.
func NewClient(options ...ClientOption) (*Client, error) {
	c := &Client{
		logger: slog.Default(),
		retry:  reliability.DefaultPolicy(),
	}

	for _, opt := range options {
		opt(c)
	}

	if c.url == "" {
		if c.cfg == nil {
			cfg, err := config.Load()
			if err != nil {
				return nil, err
			}
			c.cfg = cfg
		}
		c.url = c.cfg.URL()
	}

	return c, nil
}

// NotifyContext returns a context cancelled on SIGINT or SIGTERM, for driving
// Listen in long-running consumers.
func (c *Client) NotifyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// newManager mints a connection manager bound to the client's settings.
func (c *Client) newManager() *rabbitmq.ConnectionManager {
	opts := []rabbitmq.ConnectionOption{rabbitmq.WithLogger(c.logger)}
	if c.dial != nil {
		opts = append(opts, rabbitmq.WithDialer(c.dial))
	}
	return rabbitmq.NewConnectionManager(c.url, opts...)
}

// managerFactory adapts newManager for the messaging package.
func (c *Client) managerFactory() messaging.ManagerFactory {
	return c.newManager
}

// NewPublisher creates a publisher for values of T bound to a queue. This is
// a top-level function because Go methods cannot introduce type parameters.
func NewPublisher[T any](c *Client, queue string, options ...messaging.PublisherOption[T]) *messaging.Publisher[T] {
	base := []messaging.PublisherOption[T]{
		messaging.WithPublisherLogger[T](c.logger),
		messaging.WithPublisherRetry[T](c.retry),
	}
	return messaging.NewPublisher[T](c.newManager(), queue, append(base, options...)...)
}

// NewConsumer creates a consumer for a queue. In is the decoded body type;
// Out is the handler return type forwarded to any configured queues.
func NewConsumer[In, Out any](c *Client, queue string, options ...messaging.ConsumerOption[In, Out]) *messaging.Consumer[In, Out] {
	base := []messaging.ConsumerOption[In, Out]{
		messaging.WithConsumerLogger[In, Out](c.logger),
		messaging.WithConsumerRetry[In, Out](c.retry),
	}
	return messaging.NewConsumer[In, Out](c.managerFactory(), queue, append(base, options...)...)
}

// NewPipeline creates a consume-then-forward pipeline between two queues.
func NewPipeline[In, Out any](c *Client, consumeQueue, publishQueue string, options ...messaging.PipelineOption[In, Out]) *messaging.Pipeline[In, Out] {
	base := []messaging.PipelineOption[In, Out]{
		messaging.WithPipelineRetry[In, Out](c.retry),
	}
	return messaging.NewPipeline[In, Out](c.managerFactory(), consumeQueue, publishQueue, append(base, options...)...)
}
