package rabbitmq

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// ConnectionManager owns a connection and its single channel. Both are cached
// and lazily recreated together when either reports closed. The cached pair is
// guarded by a mutex so a manager may be shared within one wrapper, but each
// publisher and consumer gets its own manager.
type ConnectionManager struct {
	url         string
	dial        Dialer
	dialTimeout time.Duration
	logger      *slog.Logger

	mu      sync.Mutex
	conn    Connection
	channel Channel
}

// ConnectionOption configures the ConnectionManager.
type ConnectionOption func(*ConnectionManager)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ConnectionOption {
	return func(cm *ConnectionManager) {
		cm.logger = logger
	}
}

// WithDialer replaces the transport dialer.
func WithDialer(dial Dialer) ConnectionOption {
	return func(cm *ConnectionManager) {
		cm.dial = dial
	}
}

// WithDialTimeout bounds a single connection attempt.
func WithDialTimeout(timeout time.Duration) ConnectionOption {
	return func(cm *ConnectionManager) {
		cm.dialTimeout = timeout
	}
}

// NewConnectionManager creates a new connection manager. No connection is
// opened until Ensure or Open is called.
func NewConnectionManager(url string, options ...ConnectionOption) *ConnectionManager {
	cm := &ConnectionManager{
		url:         url,
		dial:        Dial,
		dialTimeout: 30 * time.Second,
		logger:      slog.Default(),
	}

	for _, opt := range options {
		opt(cm)
	}

	return cm
}

// Ensure returns a live channel, opening or reopening the connection and
// channel as needed. Calling Ensure on a healthy manager is a no-op.
func (cm *ConnectionManager) Ensure(ctx context.Context) (Channel, error) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.conn != nil && !cm.conn.IsClosed() && cm.channel != nil && !cm.channel.IsClosed() {
		return cm.channel, nil
	}

	cm.closeLocked()

	conn, ch, err := cm.open(ctx)
	if err != nil {
		return nil, err
	}

	cm.conn = conn
	cm.channel = ch
	return ch, nil
}

// Open establishes a fresh, uncached connection/channel pair. The caller owns
// both exclusively and is responsible for closing the connection.
func (cm *ConnectionManager) Open(ctx context.Context) (Connection, Channel, error) {
	return cm.open(ctx)
}

// IsConnected reports whether the cached connection is live.
func (cm *ConnectionManager) IsConnected() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.conn != nil && !cm.conn.IsClosed()
}

// Close closes the cached connection and channel.
func (cm *ConnectionManager) Close() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.closeLocked()
}

func (cm *ConnectionManager) closeLocked() error {
	var err error
	if cm.conn != nil && !cm.conn.IsClosed() {
		err = cm.conn.Close()
	}
	cm.conn = nil
	cm.channel = nil
	return err
}

// open dials the broker with a timeout and opens one channel on the result.
func (cm *ConnectionManager) open(ctx context.Context) (Connection, Channel, error) {
	dialCtx, cancel := context.WithTimeout(ctx, cm.dialTimeout)
	defer cancel()

	connChan := make(chan Connection, 1)
	errChan := make(chan error, 1)

	go func() {
		conn, err := cm.dial(cm.url)
		if err != nil {
			errChan <- err
			return
		}
		connChan <- conn
	}()

	select {
	case conn := <-connChan:
		ch, err := conn.Channel()
		if err != nil {
			conn.Close()
			return nil, nil, &ConnectionError{
				Op:  "open channel",
				URL: SanitizeURL(cm.url),
				Err: err,
			}
		}

		cm.logger.Debug("connected to RabbitMQ", "url", SanitizeURL(cm.url))
		return conn, ch, nil

	case err := <-errChan:
		return nil, nil, &ConnectionError{
			Op:  "connect",
			URL: SanitizeURL(cm.url),
			Err: err,
		}

	case <-dialCtx.Done():
		// Reap a dial that completes after the caller gave up.
		go func() {
			select {
			case conn := <-connChan:
				conn.Close()
			case <-errChan:
			}
		}()
		return nil, nil, &ConnectionError{
			Op:  "connect",
			URL: SanitizeURL(cm.url),
			Err: dialCtx.Err(),
		}
	}
}
