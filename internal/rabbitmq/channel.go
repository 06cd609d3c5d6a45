package rabbitmq

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Dialer opens a connection to the broker. It is swappable so tests can run
// against an in-memory transport.
type Dialer func(url string) (Connection, error)

// Connection is the subset of an AMQP connection used by this library.
type Connection interface {
	// Channel opens a logical sub-session on the connection.
	Channel() (Channel, error)

	// IsClosed reports whether the connection has been closed.
	IsClosed() bool

	// Close closes the connection and all channels opened on it.
	Close() error
}

// Channel is the transport boundary for queue operations and publish/consume
// calls. A Channel must not be used after its owning Connection reports
// closed; callers re-establish both together via the ConnectionManager.
type Channel interface {
	// QueueDeclare ensures the named queue exists. Redeclaring an existing
	// queue with compatible parameters is a no-op.
	QueueDeclare(name string) error

	// ExchangeDeclare ensures the named exchange of the given kind exists.
	ExchangeDeclare(name, kind string) error

	// QueueBind binds a queue to an exchange.
	QueueBind(queue, exchange string) error

	// Publish sends a body to the exchange with the given routing key.
	Publish(ctx context.Context, exchange, routingKey string, body []byte) error

	// Consume registers an auto-acknowledging consumer on the queue.
	Consume(queue, consumerTag string) (<-chan amqp.Delivery, error)

	// Get performs a single non-blocking fetch. ok is false when the queue
	// is empty.
	Get(queue string) (msg amqp.Delivery, ok bool, err error)

	// Cancel stops deliveries to the named consumer.
	Cancel(consumerTag string) error

	// IsClosed reports whether the channel has been closed.
	IsClosed() bool

	// Close closes the channel.
	Close() error
}

// Dial is the default Dialer, connecting via amqp091-go.
func Dial(url string) (Connection, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	return &amqpConnection{conn: conn}, nil
}

type amqpConnection struct {
	conn *amqp.Connection
}

func (c *amqpConnection) Channel() (Channel, error) {
	ch, err := c.conn.Channel()
	if err != nil {
		return nil, err
	}
	return &amqpChannel{ch: ch}, nil
}

func (c *amqpConnection) IsClosed() bool { return c.conn.IsClosed() }

func (c *amqpConnection) Close() error { return c.conn.Close() }

type amqpChannel struct {
	ch *amqp.Channel
}

func (c *amqpChannel) QueueDeclare(name string) error {
	_, err := c.ch.QueueDeclare(
		name,
		false, // durable
		false, // auto-delete
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	return err
}

func (c *amqpChannel) ExchangeDeclare(name, kind string) error {
	return c.ch.ExchangeDeclare(
		name,
		kind,
		false, // durable
		false, // auto-delete
		false, // internal
		false, // no-wait
		nil,   // arguments
	)
}

func (c *amqpChannel) QueueBind(queue, exchange string) error {
	return c.ch.QueueBind(queue, "", exchange, false, nil)
}

func (c *amqpChannel) Publish(ctx context.Context, exchange, routingKey string, body []byte) error {
	return c.ch.PublishWithContext(
		ctx,
		exchange,
		routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

func (c *amqpChannel) Consume(queue, consumerTag string) (<-chan amqp.Delivery, error) {
	return c.ch.Consume(
		queue,
		consumerTag,
		true,  // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,   // arguments
	)
}

func (c *amqpChannel) Get(queue string) (amqp.Delivery, bool, error) {
	return c.ch.Get(queue, true)
}

func (c *amqpChannel) Cancel(consumerTag string) error {
	return c.ch.Cancel(consumerTag, false)
}

func (c *amqpChannel) IsClosed() bool { return c.ch.IsClosed() }

func (c *amqpChannel) Close() error { return c.ch.Close() }
