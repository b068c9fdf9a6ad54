// Package publish mirrors controller state changes to an MQTT broker.
package publish

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/soar/nsogc-bridge/internal/gamepad"
	"github.com/soar/nsogc-bridge/internal/log"
	"github.com/soar/nsogc-bridge/internal/session"
)

const (
	qos            = 0
	publishTimeout = time.Second
	connectTimeout = 5 * time.Second
)

// Client is the part of an MQTT client the publisher uses.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// Publisher sends the controller state to Topic whenever a user visible
// value changes, and the session status to Topic+"/status" (retained).
type Publisher struct {
	client Client
	topic  string
	last   gamepad.ControllerState
	sent   bool
}

func New(c Client, topic string) *Publisher {
	return &Publisher{client: c, topic: topic}
}

// Dial connects to broker (for example tcp://localhost:1883).
func Dial(broker, topic string) (*Publisher, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(broker)
	opts.SetClientID("nsogc-bridge-" + uuid.NewString()[:8])
	opts.SetAutoReconnect(true)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.WarnF("MQTT connection lost: %v", err)
	})

	c := mqtt.NewClient(opts)
	if token := c.Connect(); !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("mqtt connect %s: timed out", broker)
	} else if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", broker, err)
	}
	log.InfoF("Publishing controller state to %s (%s)", broker, topic)
	return New(c, topic), nil
}

// Run publishes events until the channel closes, then disconnects.
func (p *Publisher) Run(events <-chan session.Event) {
	defer p.client.Disconnect(250)
	for ev := range events {
		p.Handle(ev)
	}
}

// Handle publishes one session event. Deltas carrying only raw jitter are
// skipped.
func (p *Publisher) Handle(ev session.Event) {
	if ev.Status != nil {
		p.publish(p.topic+"/status", true, ev.Status)
	}
	if p.sent {
		d := gamepad.ComputeDelta(p.last, ev.State)
		if d.IsEmpty() || d.OnlyRaw() {
			return
		}
	}
	p.last, p.sent = ev.State, true
	p.publish(p.topic, false, ev.State)
}

func (p *Publisher) publish(topic string, retained bool, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.ErrorF("Error marshaling %s payload: %v", topic, err)
		return
	}
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(publishTimeout) {
		log.WarnF("MQTT publish to %s timed out", topic)
		return
	}
	if err := token.Error(); err != nil {
		log.WarnF("MQTT publish to %s failed: %v", topic, err)
	}
}
