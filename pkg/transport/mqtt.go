package transport

import (
	"context"
	"time"

	"github.com/NotCoffee418/p1reader/pkg/logging"
	"github.com/NotCoffee418/p1reader/pkg/metrics"
	"github.com/NotCoffee418/p1reader/pkg/telegram"
	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sirupsen/logrus"
)

// Telegrams are sent at most once, a missed one is never resent.
const mqttQos = 0

type MQTTOptions struct {
	Broker     string
	Topic      string
	ClientID   string
	RetryDelay time.Duration
}

func newMQTTClient(opts MQTTOptions, log logrus.FieldLogger, onConnect mqtt.OnConnectHandler) mqtt.Client {
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	clientOpts := mqtt.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(opts.RetryDelay).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Warnf("MQTT connection to %s lost: %v", opts.Broker, err)
		})
	if onConnect != nil {
		clientOpts.SetOnConnectHandler(onConnect)
	}
	return mqtt.NewClient(clientOpts)
}

// MQTTPublisher publishes every telegram to a topic.
type MQTTPublisher struct {
	client  mqtt.Client
	topic   string
	log     logrus.FieldLogger
	metrics *metrics.Set
}

// NewMQTTPublisher starts connecting to the broker. Connection attempts keep
// being retried in the background, publishing before that drops telegrams.
func NewMQTTPublisher(opts MQTTOptions, log logrus.FieldLogger, m *metrics.Set) *MQTTPublisher {
	if log == nil {
		log = logging.Discard()
	}
	client := newMQTTClient(opts, log, nil)
	client.Connect()
	return &MQTTPublisher{client: client, topic: opts.Topic, log: log, metrics: m}
}

func (p *MQTTPublisher) Publish(msg *telegram.Message) {
	if !p.client.IsConnectionOpen() {
		p.log.Debugf("MQTT not connected, dropping frame %d", msg.Meta.FrameNumber)
		return
	}
	data, err := msg.ToJsonBytes()
	if err != nil {
		p.log.Errorf("Not publishing frame %d: %v", msg.Meta.FrameNumber, err)
		return
	}
	token := p.client.Publish(p.topic, mqttQos, false, data)
	go func() {
		token.Wait()
		if token.Error() != nil {
			p.log.Warnf("Failed to publish telegram: %v", token.Error())
		}
	}()
	p.metrics.Published("mqtt")
}

func (p *MQTTPublisher) Close() {
	p.client.Disconnect(250)
}

// MQTTSubscriber receives telegrams published by an MQTTPublisher.
type MQTTSubscriber struct {
	opts MQTTOptions
	log  logrus.FieldLogger
}

func NewMQTTSubscriber(opts MQTTOptions, log logrus.FieldLogger) *MQTTSubscriber {
	if log == nil {
		log = logging.Discard()
	}
	return &MQTTSubscriber{opts: opts, log: log}
}

// Listen subscribes and forwards payloads until ctx is cancelled.
func (s *MQTTSubscriber) Listen(ctx context.Context, out chan<- Envelope) error {
	topic := s.opts.Topic
	// Resubscribe after every (re)connect, the broker forgets clean sessions.
	subscribe := func(c mqtt.Client) {
		token := c.Subscribe(topic, mqttQos, s.handler(ctx, out))
		if token.Wait() && token.Error() != nil {
			s.log.Errorf("Failed to subscribe to %s: %v", topic, token.Error())
			return
		}
		s.log.Infof("Subscribed to %s on %s", topic, s.opts.Broker)
	}

	// Connect keeps retrying in the background until Disconnect.
	client := newMQTTClient(s.opts, s.log, subscribe)
	client.Connect()
	<-ctx.Done()
	client.Disconnect(250)
	return nil
}

func (s *MQTTSubscriber) handler(ctx context.Context, out chan<- Envelope) mqtt.MessageHandler {
	sender := "mqtt:" + s.opts.Topic
	return func(_ mqtt.Client, msg mqtt.Message) {
		select {
		case out <- Envelope{Sender: sender, Payload: msg.Payload()}:
		case <-ctx.Done():
		}
	}
}
