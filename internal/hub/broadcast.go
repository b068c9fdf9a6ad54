package hub

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/soar/nsogc-bridge/internal/gamepad"
	"github.com/soar/nsogc-bridge/internal/log"
	"github.com/soar/nsogc-bridge/internal/session"
)

const (
	fullSyncInterval = 5 * time.Second
	deltaCountSync   = 100
)

// Snapshotter provides the current view for newly connected clients.
type Snapshotter interface {
	State() gamepad.ControllerState
	Status() session.Status
}

// Broadcaster listens for session events and broadcasts them to the hub.
type Broadcaster struct {
	hub    *Hub
	events <-chan session.Event
	snap   Snapshotter

	mu        sync.Mutex
	lastState gamepad.ControllerState
	seq       int64
}

func NewBroadcaster(h *Hub, events <-chan session.Event, snap Snapshotter) *Broadcaster {
	return &Broadcaster{
		hub:    h,
		events: events,
		snap:   snap,
	}
}

// Run starts the broadcaster loop. It returns when the event channel closes.
func (b *Broadcaster) Run() {
	ticker := time.NewTicker(fullSyncInterval)
	defer ticker.Stop()

	var deltaCount int64

	for {
		select {
		case ev, ok := <-b.events:
			if !ok {
				return
			}

			b.mu.Lock()
			delta := gamepad.ComputeDelta(b.lastState, ev.State)
			b.lastState = ev.State
			if ev.Status != nil {
				b.broadcast(NewStatusMessage(b.nextSeq(), ev.Status))
			}
			if ev.Step != nil {
				b.broadcast(NewWizardMessage(b.nextSeq(), ev.Step))
			}
			if !delta.IsEmpty() {
				deltaCount++
				// Send full sync periodically
				if deltaCount >= deltaCountSync {
					b.broadcast(NewFullMessage(b.nextSeq(), &ev.State))
					deltaCount = 0
				} else {
					b.broadcast(NewDeltaMessage(b.nextSeq(), delta))
				}
			}
			b.mu.Unlock()

		case <-ticker.C:
			b.mu.Lock()
			if b.lastState.Connected {
				state := b.lastState
				b.broadcast(NewFullMessage(b.nextSeq(), &state))
			}
			b.mu.Unlock()
		}
	}
}

// nextSeq must be called with b.mu held.
func (b *Broadcaster) nextSeq() int64 {
	b.seq++
	return b.seq
}

// SendInitialState sends the current full state and status to a newly
// connected client.
func (b *Broadcaster) SendInitialState(c *Client) {
	state, st := b.snap.State(), b.snap.Status()
	b.mu.Lock()
	full := NewFullMessage(b.nextSeq(), &state)
	status := NewStatusMessage(b.nextSeq(), &st)
	b.mu.Unlock()
	c.sendJSON(full)
	c.sendJSON(status)
}

func (b *Broadcaster) broadcast(msg *WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.ErrorF("Error marshaling %s message: %v", msg.Type, err)
		return
	}
	b.hub.Broadcast(data)
}
