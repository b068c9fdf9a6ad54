package vpad

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/soar/nsogc-bridge/internal/gamepad"
	"github.com/soar/nsogc-bridge/internal/log"
)

// Frame is one committed pad report.
type Frame struct {
	Buttons        gamepad.XboxButtons
	LX, LY, RX, RY float64
	LT, RT         float64
}

// LogDriver writes each changed frame to the debug log. It stands in for a
// real pad on hosts without uinput.
type LogDriver struct {
	mu        sync.Mutex
	pending   Frame
	last      Frame
	commits   int
	closed    bool
	committed bool
}

func NewLog() *LogDriver {
	return &LogDriver{}
}

func (d *LogDriver) SetButtons(b gamepad.XboxButtons) {
	d.mu.Lock()
	d.pending.Buttons = b
	d.mu.Unlock()
}

func (d *LogDriver) SetAxes(lx, ly, rx, ry float64) {
	d.mu.Lock()
	d.pending.LX, d.pending.LY, d.pending.RX, d.pending.RY = lx, ly, rx, ry
	d.mu.Unlock()
}

func (d *LogDriver) SetTriggers(l, r float64) {
	d.mu.Lock()
	d.pending.LT, d.pending.RT = l, r
	d.mu.Unlock()
}

func (d *LogDriver) Commit() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrClosed
	}
	f := d.pending
	d.commits++
	if d.committed && f == d.last {
		return nil
	}
	d.last, d.committed = f, true
	log.With(logrus.Fields{
		"buttons": f.Buttons.String(),
		"lx":      f.LX,
		"ly":      f.LY,
		"rx":      f.RX,
		"ry":      f.RY,
		"lt":      f.LT,
		"rt":      f.RT,
	}).Debug("virtual pad frame")
	return nil
}

// Last returns the most recently committed frame and the number of commits.
func (d *LogDriver) Last() (Frame, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last, d.commits
}

func (d *LogDriver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}
