package rabbitmq

// Topology describes the destination of a publish or the source of a
// consume: a queue, optionally bound to an exchange. When Exchange is empty,
// routing goes through the default exchange using the queue name.
type Topology struct {
	Queue        string
	Exchange     string
	ExchangeType string
}

const defaultExchangeType = "fanout"

// Declare ensures the topology exists on the broker. Declarations are
// idempotent on the broker side, so Declare may be called before every
// publish or consume.
func (t Topology) Declare(ch Channel) error {
	if t.Queue == "" {
		return ErrInvalidTopology
	}

	if t.Exchange == "" {
		if err := ch.QueueDeclare(t.Queue); err != nil {
			return &TopologyError{Component: "queue", Name: t.Queue, Err: err}
		}
		return nil
	}

	kind := t.ExchangeType
	if kind == "" {
		kind = defaultExchangeType
	}

	if err := ch.ExchangeDeclare(t.Exchange, kind); err != nil {
		return &TopologyError{Component: "exchange", Name: t.Exchange, Err: err}
	}
	if err := ch.QueueDeclare(t.Queue); err != nil {
		return &TopologyError{Component: "queue", Name: t.Queue, Err: err}
	}
	if err := ch.QueueBind(t.Queue, t.Exchange); err != nil {
		return &TopologyError{Component: "binding", Name: t.Queue, Err: err}
	}
	return nil
}

// PublishTarget returns the exchange and routing key for publishing to this
// topology. Without an exchange the default exchange routes by queue name.
func (t Topology) PublishTarget() (exchange, routingKey string) {
	return t.Exchange, t.Queue
}
