// Package vpad drives a virtual Xbox 360 pad from controller state.
package vpad

import (
	"errors"
	"fmt"

	"github.com/soar/nsogc-bridge/internal/gamepad"
)

var ErrClosed = errors.New("virtual pad closed")

// Driver is a virtual pad. Setters stage a frame; Commit publishes it.
type Driver interface {
	SetButtons(b gamepad.XboxButtons)
	SetAxes(lx, ly, rx, ry float64)
	SetTriggers(l, r float64)
	Commit() error
	Close() error
}

// Apply stages st on d and commits it. The left stick drives the left Xbox
// stick and the C-stick the right one.
func Apply(d Driver, st gamepad.ControllerState) error {
	d.SetButtons(st.Xbox())
	d.SetAxes(
		st.Sticks.Left.Position.X, st.Sticks.Left.Position.Y,
		st.Sticks.C.Position.X, st.Sticks.C.Position.Y,
	)
	d.SetTriggers(st.Triggers.L.Value, st.Triggers.R.Value)
	return d.Commit()
}

// Neutral releases every button and centers every axis.
func Neutral(d Driver) error {
	d.SetButtons(0)
	d.SetAxes(0, 0, 0, 0)
	d.SetTriggers(0, 0)
	return d.Commit()
}

const (
	KindUinput = "uinput"
	KindLog    = "log"
)

// Open creates a driver of the named kind.
func Open(kind string) (Driver, error) {
	switch kind {
	case KindUinput:
		u, err := NewUinput()
		if err != nil {
			return nil, err
		}
		return u, nil
	case KindLog:
		return NewLog(), nil
	}
	return nil, fmt.Errorf("unknown pad driver %q", kind)
}
