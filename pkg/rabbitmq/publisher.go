package rabbitmq

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"
)

var ErrPublishTimeout = errors.New("mqtt publish timed out")

// IPublisher is what the services depend on; tests swap in a recorder.
type IPublisher interface {
	PublishJSON(topic string, v any) error
	Connected() bool
}

type Publisher struct {
	client  mqtt.Client
	qos     byte
	timeout time.Duration
	log     zerolog.Logger
}

var _ IPublisher = (*Publisher)(nil)

func NewPublisher(client mqtt.Client, qos byte, timeout time.Duration, log zerolog.Logger) *Publisher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Publisher{client: client, qos: qos, timeout: timeout, log: log}
}

// Publish sends payload and waits for the broker ack up to the timeout.
func (p *Publisher) Publish(topic string, payload []byte) error {
	token := p.client.Publish(topic, p.qos, false, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("%w: %s", ErrPublishTimeout, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	p.log.Debug().Str("topic", topic).Int("bytes", len(payload)).Msg("published")
	return nil
}

func (p *Publisher) PublishJSON(topic string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	return p.Publish(topic, b)
}

func (p *Publisher) Connected() bool {
	return p.client != nil && p.client.IsConnectionOpen()
}
