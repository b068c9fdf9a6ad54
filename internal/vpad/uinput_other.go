//go:build !linux

package vpad

import (
	"errors"

	"github.com/soar/nsogc-bridge/internal/gamepad"
)

var errNoUinput = errors.New("uinput virtual pads are only available on linux")

// Uinput is unavailable on this platform.
type Uinput struct{}

func NewUinput() (*Uinput, error) { return nil, errNoUinput }

func (*Uinput) SetButtons(gamepad.XboxButtons) {}
func (*Uinput) SetAxes(_, _, _, _ float64)     {}
func (*Uinput) SetTriggers(_, _ float64)       {}
func (*Uinput) Commit() error                  { return errNoUinput }
func (*Uinput) Close() error                   { return nil }
