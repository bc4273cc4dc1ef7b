package bus

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// IPublisher publishes payloads to arbitrary topics. Response topics are
// chosen per request (each client request carries its own output topic), so
// the publisher is not bound to a fixed topic.
type IPublisher interface {
	PublishTo(topic string, qos byte, retained bool, payload []byte) error
	Close()
}

// Publisher wraps the shared MQTT client for outbound messages.
type Publisher struct {
	client mqtt.Client
}

func NewPublisher(client mqtt.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishTo publishes the payload and waits for broker acknowledgement.
func (p *Publisher) PublishTo(topic string, qos byte, retained bool, payload []byte) error {
	token := p.client.Publish(topic, qos, retained, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, token.Error())
	}
	return nil
}

// Close disconnects the underlying MQTT client.
func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
	}
}
