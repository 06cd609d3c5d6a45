package messaging

import (
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// LogEnvelope mirrors a consumed delivery onto the logging queue. Body holds
// the original message body verbatim, so consumers of the logging queue can
// decode it exactly as the primary consumer did.
type LogEnvelope struct {
	Channel    string          `json:"channel"`
	Method     string          `json:"method"`
	Properties string          `json:"properties"`
	Body       json.RawMessage `json:"body"`
}

// newLogEnvelope flattens delivery metadata into the envelope's string
// fields. channel identifies the consuming channel by consumer tag.
func newLogEnvelope(consumerTag string, d amqp.Delivery) LogEnvelope {
	return LogEnvelope{
		Channel: consumerTag,
		Method: fmt.Sprintf("exchange=%s routing_key=%s delivery_tag=%d redelivered=%t",
			d.Exchange, d.RoutingKey, d.DeliveryTag, d.Redelivered),
		Properties: fmt.Sprintf("content_type=%s message_id=%s correlation_id=%s",
			d.ContentType, d.MessageId, d.CorrelationId),
		Body: json.RawMessage(d.Body),
	}
}
