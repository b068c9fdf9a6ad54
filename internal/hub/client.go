package hub

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/soar/nsogc-bridge/internal/calibration"
	"github.com/soar/nsogc-bridge/internal/log"
	"github.com/soar/nsogc-bridge/internal/session"
	"github.com/soar/nsogc-bridge/internal/wizard"
)

// Controller is the set of session operations a client may invoke.
type Controller interface {
	StartCalibration(calibration.Axis) (wizard.Step, error)
	AdvanceCalibration() (wizard.Step, error)
	AbortCalibration()
	ResetCalibration()
	SetDeadzone(calibration.DeadzoneGroup, float64) error
	SetEmulation(bool) error
	SaveSettings() error
	LoadSettingsFrom(path string) error
	ResetAll()
	Status() session.Status
}

// Conn is the part of a websocket connection a client uses.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(int, []byte) error
	Close() error
}

// Client represents a connected WebSocket client.
type Client struct {
	hub  *Hub
	conn Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

// NewClient creates a new Client attached to the hub.
func NewClient(hub *Hub, conn Conn) *Client {
	return &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 256),
	}
}

// Send queues msg without blocking. It reports false when the client is
// closed or its buffer is full.
func (c *Client) Send(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

func (c *Client) sendJSON(msg *WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.ErrorF("Error marshaling %s message: %v", msg.Type, err)
		return
	}
	c.Send(data)
}

// WritePump sends messages from the send channel to the WebSocket connection.
func (c *Client) WritePump() {
	defer func() {
		c.conn.Close()
	}()

	for msg := range c.send {
		err := c.conn.WriteMessage(websocket.TextMessage, msg)
		if err != nil {
			break
		}
	}
}

// ReadPumpWithHandler reads messages from the WebSocket and handles client commands.
func (c *Client) ReadPumpWithHandler(ctrl Controller) {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			break
		}

		var clientMsg ClientMessage
		if err := json.Unmarshal(message, &clientMsg); err != nil {
			log.WarnF("Error parsing client message: %v", err)
			continue
		}

		err = Dispatch(ctrl, clientMsg)
		if err != nil {
			log.WarnF("Command %s failed: %v", clientMsg.Type, err)
		}
		c.sendJSON(NewReplyMessage(clientMsg.Type, err))
	}
}

// Dispatch runs one client command against ctrl.
func Dispatch(ctrl Controller, m ClientMessage) error {
	switch m.Type {
	case CmdStartCalibration:
		axis, err := calibration.ParseAxis(m.Axis)
		if err != nil {
			return err
		}
		_, err = ctrl.StartCalibration(axis)
		return err
	case CmdAdvance:
		_, err := ctrl.AdvanceCalibration()
		return err
	case CmdAbortCalibration:
		ctrl.AbortCalibration()
		return nil
	case CmdResetCalibration:
		ctrl.ResetCalibration()
		return nil
	case CmdSetDeadzone:
		g, err := calibration.ParseDeadzoneGroup(m.Group)
		if err != nil {
			return err
		}
		return ctrl.SetDeadzone(g, m.Value)
	case CmdSetEmulation:
		return ctrl.SetEmulation(m.Enabled)
	case CmdSaveSettings:
		return ctrl.SaveSettings()
	case CmdLoadSettings:
		return ctrl.LoadSettingsFrom(m.Path)
	case CmdResetAll:
		ctrl.ResetAll()
		return nil
	}
	return fmt.Errorf("unknown command %q", m.Type)
}
