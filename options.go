package rabbitclients

import (
	"log/slog"

	"github.com/awburgess/rabbit-clients/config"
	"github.com/awburgess/rabbit-clients/internal/rabbitmq"
	"github.com/awburgess/rabbit-clients/internal/reliability"
)

// ClientOption configures the Client.
type ClientOption func(*Client)

// WithConfig supplies broker settings directly instead of reading the
// environment.
func WithConfig(cfg *config.Config) ClientOption {
	return func(c *Client) {
		c.cfg = cfg
	}
}

// WithURL supplies a complete AMQP connection URL, bypassing configuration
// loading entirely.
func WithURL(url string) ClientOption {
	return func(c *Client) {
		c.url = url
	}
}

// WithLogger sets the logger passed to every wrapper the client creates.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRetryPolicy replaces the default connection retry policy.
func WithRetryPolicy(policy reliability.Policy) ClientOption {
	return func(c *Client) {
		c.retry = policy
	}
}

// WithDialer replaces the transport dialer. Used by tests to run against an
// in-memory broker.
func WithDialer(dial rabbitmq.Dialer) ClientOption {
	return func(c *Client) {
		c.dial = dial
	}
}
