package publish

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/soar/nsogc-bridge/internal/gamepad"
	"github.com/soar/nsogc-bridge/internal/session"
)

type doneToken struct{ err error }

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type message struct {
	topic    string
	retained bool
	payload  []byte
}

type fakeClient struct {
	msgs         []message
	fail         error
	disconnected bool
}

func (c *fakeClient) Publish(topic string, _ byte, retained bool, payload interface{}) mqtt.Token {
	c.msgs = append(c.msgs, message{topic, retained, payload.([]byte)})
	return doneToken{c.fail}
}

func (c *fakeClient) Disconnect(uint) { c.disconnected = true }

func TestHandleSkipsJitter(t *testing.T) {
	c := &fakeClient{}
	p := New(c, "gc/state")

	st := gamepad.ControllerState{Connected: true}
	p.Handle(session.Event{State: st})

	jitter := st
	jitter.Raw.LeftX = 2049
	p.Handle(session.Event{State: jitter})
	p.Handle(session.Event{State: jitter})

	pressed := jitter
	pressed.Buttons.B = true
	p.Handle(session.Event{State: pressed})

	if len(c.msgs) != 2 {
		t.Fatalf("published %d messages, want 2", len(c.msgs))
	}
	var got gamepad.ControllerState
	if err := json.Unmarshal(c.msgs[1].payload, &got); err != nil {
		t.Fatal(err)
	}
	if !got.Buttons.B || got.Raw.LeftX != 2049 || c.msgs[1].topic != "gc/state" || c.msgs[1].retained {
		t.Fatalf("unexpected message %+v", c.msgs[1])
	}
}

func TestHandleStatus(t *testing.T) {
	c := &fakeClient{}
	p := New(c, "gc")
	st := &session.Status{Connected: true, Address: "AA:BB", Emulating: true}
	p.Handle(session.Event{Status: st})

	if len(c.msgs) != 2 {
		t.Fatalf("published %d messages, want status and state", len(c.msgs))
	}
	if m := c.msgs[0]; m.topic != "gc/status" || !m.retained {
		t.Fatalf("status message %+v", m)
	}
	var got session.Status
	if err := json.Unmarshal(c.msgs[0].payload, &got); err != nil {
		t.Fatal(err)
	}
	if got.Address != "AA:BB" || !got.Emulating {
		t.Fatalf("status %+v", got)
	}
}

func TestRunDisconnects(t *testing.T) {
	c := &fakeClient{fail: errors.New("broker gone")}
	p := New(c, "gc")
	events := make(chan session.Event, 2)
	events <- session.Event{}
	close(events)
	p.Run(events)
	if len(c.msgs) != 1 || !c.disconnected {
		t.Fatalf("msgs %d disconnected %v", len(c.msgs), c.disconnected)
	}
}
