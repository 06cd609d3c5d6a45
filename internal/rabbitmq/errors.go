package rabbitmq

import (
	"errors"
	"fmt"
	"net/url"
)

var (
	// ErrNotConnected is returned when no connection has been established.
	ErrNotConnected = errors.New("rabbitmq: not connected")

	// ErrConnectionClosed is returned when the connection reports closed.
	ErrConnectionClosed = errors.New("rabbitmq: connection is closed")

	// ErrInvalidTopology is returned for topology declarations without a queue.
	ErrInvalidTopology = errors.New("rabbitmq: invalid topology configuration")
)

// ConnectionError represents a failure to establish a connection or channel.
// It is the only retryable error in the taxonomy.
type ConnectionError struct {
	Op       string // operation that failed
	URL      string // connection URL (sanitized)
	Err      error  // underlying error
	Attempts int    // attempts made, when known
}

func (e *ConnectionError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("rabbitmq connection error: %s failed after %d attempts: %v", e.Op, e.Attempts, e.Err)
	}
	return fmt.Sprintf("rabbitmq connection error: %s failed: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IsRetryable marks connection establishment failures as retryable for the
// reliability package.
func (e *ConnectionError) IsRetryable() bool { return true }

// TopologyError represents a failed queue, exchange or binding declaration.
type TopologyError struct {
	Component string // exchange, queue or binding
	Name      string
	Err       error
}

func (e *TopologyError) Error() string {
	return fmt.Sprintf("rabbitmq topology error: declare %s %q: %v", e.Component, e.Name, e.Err)
}

func (e *TopologyError) Unwrap() error { return e.Err }

// PublishError represents a failed publish operation.
type PublishError struct {
	Exchange   string
	RoutingKey string
	Err        error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("rabbitmq publish error: publish to %s/%s: %v", e.Exchange, e.RoutingKey, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// IsConnectionError reports whether err is a connection establishment failure.
func IsConnectionError(err error) bool {
	var connErr *ConnectionError
	return errors.As(err, &connErr)
}

// SanitizeURL removes credentials from a connection URL for logging.
func SanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "***"
	}
	return u.Redacted()
}
