package bus

import (
	"context"
	"log"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// IConsumer is the subscription side of the bus.
type IConsumer interface {
	Consume(ctx context.Context)
	SetHandler(handler func(topic string, message mqtt.Message) error)
}

// Consumer subscribes to a single topic and dispatches messages to a handler.
type Consumer struct {
	client  mqtt.Client
	topic   string
	qos     byte
	handler func(topic string, message mqtt.Message) error
}

// NewConsumer creates a Consumer on the shared MQTT client. Intent messages
// are delivered at QoS 1 so the skill never misses a request; redeliveries
// are handled downstream.
func NewConsumer(client mqtt.Client, topic string, qos byte, handler func(topic string, message mqtt.Message) error) *Consumer {
	return &Consumer{
		client:  client,
		topic:   topic,
		qos:     qos,
		handler: handler,
	}
}

func (c *Consumer) SetHandler(handler func(topic string, message mqtt.Message) error) {
	c.handler = handler
}

// Consume subscribes and blocks until the context is cancelled. Each message
// is handed to the handler on paho's callback goroutine.
func (c *Consumer) Consume(ctx context.Context) {
	token := c.client.Subscribe(
		c.topic,
		c.qos,
		func(_ mqtt.Client, message mqtt.Message) {
			if c.handler == nil {
				log.Printf("bus: no handler set for topic %s", c.topic)
				return
			}
			if err := c.handler(message.Topic(), message); err != nil {
				log.Printf("bus: error handling message on %s: %v", message.Topic(), err)
			}
		},
	)

	if token.Wait() && token.Error() != nil {
		log.Printf("bus: error subscribing to topic %s: %v", c.topic, token.Error())
		return
	}
	log.Printf("bus: subscribed to topic %s", c.topic)

	<-ctx.Done()

	unsub := c.client.Unsubscribe(c.topic)
	unsub.Wait()
}
