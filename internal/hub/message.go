package hub

import (
	"time"

	"github.com/soar/nsogc-bridge/internal/gamepad"
	"github.com/soar/nsogc-bridge/internal/session"
	"github.com/soar/nsogc-bridge/internal/wizard"
)

// Message types sent from server to client.
const (
	TypeFull   = "full"
	TypeDelta  = "delta"
	TypeStatus = "status"
	TypeWizard = "wizard"
	TypeAck    = "ack"
	TypeError  = "error"
)

// WSMessage represents a WebSocket message sent from server to client.
type WSMessage struct {
	Type      string                   `json:"type"`              // One of the Type* constants
	Seq       int64                    `json:"seq"`               // Sequence number for ordering
	Timestamp int64                    `json:"timestamp"`         // Unix timestamp in milliseconds
	Data      *gamepad.ControllerState `json:"data,omitempty"`    // Full state for type "full"
	Changes   *gamepad.DeltaChanges    `json:"changes,omitempty"` // Delta changes for type "delta"
	Status    *session.Status          `json:"status,omitempty"`
	Step      *wizard.Step             `json:"step,omitempty"`
	Command   string                   `json:"command,omitempty"` // Command answered by "ack" or "error"
	Error     string                   `json:"error,omitempty"`
}

func newMessage(typ string, seq int64) *WSMessage {
	return &WSMessage{Type: typ, Seq: seq, Timestamp: time.Now().UnixMilli()}
}

// NewFullMessage creates a "full" type message containing complete controller state.
func NewFullMessage(seq int64, state *gamepad.ControllerState) *WSMessage {
	m := newMessage(TypeFull, seq)
	m.Data = state
	return m
}

// NewDeltaMessage creates a "delta" type message containing only changed fields.
func NewDeltaMessage(seq int64, changes *gamepad.DeltaChanges) *WSMessage {
	m := newMessage(TypeDelta, seq)
	m.Changes = changes
	return m
}

func NewStatusMessage(seq int64, st *session.Status) *WSMessage {
	m := newMessage(TypeStatus, seq)
	m.Status = st
	return m
}

func NewWizardMessage(seq int64, step *wizard.Step) *WSMessage {
	m := newMessage(TypeWizard, seq)
	m.Step = step
	return m
}

// NewReplyMessage answers a client command; err nil means success.
func NewReplyMessage(command string, err error) *WSMessage {
	if err != nil {
		m := newMessage(TypeError, 0)
		m.Command = command
		m.Error = err.Error()
		return m
	}
	m := newMessage(TypeAck, 0)
	m.Command = command
	return m
}

// Commands accepted from clients.
const (
	CmdStartCalibration = "start_calibration"
	CmdAdvance          = "advance"
	CmdAbortCalibration = "abort_calibration"
	CmdResetCalibration = "reset_calibration"
	CmdSetDeadzone      = "set_deadzone"
	CmdSetEmulation     = "set_emulation"
	CmdSaveSettings     = "save_settings"
	CmdLoadSettings     = "load_settings"
	CmdResetAll         = "reset_all"
)

// ClientMessage represents a message sent from the client to the server.
type ClientMessage struct {
	Type    string  `json:"type"`
	Axis    string  `json:"axis,omitempty"`
	Group   string  `json:"group,omitempty"`
	Value   float64 `json:"value,omitempty"`
	Enabled bool    `json:"enabled,omitempty"`
	// Path selects the record for load_settings; empty means the configured file.
	Path string `json:"path,omitempty"`
}
