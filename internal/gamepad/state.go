package gamepad

import (
	"math"

	"github.com/soar/nsogc-bridge/internal/packet"
)

type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type StickState struct {
	Position Vector `json:"position"`
	Pressed  bool   `json:"pressed"`
}

type TriggerState struct {
	Value float64 `json:"value"`
}

type ButtonState struct {
	A          bool `json:"a"`
	B          bool `json:"b"`
	X          bool `json:"x"`
	Y          bool `json:"y"`
	Z          bool `json:"z"`
	ZL         bool `json:"zl"`
	Start      bool `json:"start"`
	Home       bool `json:"home"`
	Screenshot bool `json:"screenshot"`
	Chat       bool `json:"chat"`
}

type DpadState struct {
	Up    bool `json:"up"`
	Down  bool `json:"down"`
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

type SticksState struct {
	Left StickState `json:"left"`
	C    StickState `json:"c"`
}

type TriggersState struct {
	L TriggerState `json:"l"`
	R TriggerState `json:"r"`
}

// RawState holds the uncalibrated counts that produced a state.
type RawState struct {
	LeftX    int `json:"leftX"`
	LeftY    int `json:"leftY"`
	CX       int `json:"cX"`
	CY       int `json:"cY"`
	LTrigger int `json:"lTrigger"`
	RTrigger int `json:"rTrigger"`
}

type ControllerState struct {
	Connected bool          `json:"connected"`
	Address   string        `json:"address"`
	Buttons   ButtonState   `json:"buttons"`
	Dpad      DpadState     `json:"dpad"`
	Sticks    SticksState   `json:"sticks"`
	Triggers  TriggersState `json:"triggers"`
	Raw       RawState      `json:"raw"`
}

// Pressed reports the flag for one controller button.
func (s ControllerState) Pressed(b packet.Button) bool {
	switch b {
	case packet.ButtonA:
		return s.Buttons.A
	case packet.ButtonB:
		return s.Buttons.B
	case packet.ButtonX:
		return s.Buttons.X
	case packet.ButtonY:
		return s.Buttons.Y
	case packet.ButtonZ:
		return s.Buttons.Z
	case packet.ButtonZL:
		return s.Buttons.ZL
	case packet.ButtonStart:
		return s.Buttons.Start
	case packet.ButtonHome:
		return s.Buttons.Home
	case packet.ButtonScreenshot:
		return s.Buttons.Screenshot
	case packet.ButtonChat:
		return s.Buttons.Chat
	case packet.ButtonLClick:
		return s.Sticks.Left.Pressed
	case packet.ButtonRClick:
		return s.Sticks.C.Pressed
	case packet.ButtonDpadUp:
		return s.Dpad.Up
	case packet.ButtonDpadDown:
		return s.Dpad.Down
	case packet.ButtonDpadLeft:
		return s.Dpad.Left
	case packet.ButtonDpadRight:
		return s.Dpad.Right
	}
	return false
}

type DeltaChanges struct {
	Connected *bool          `json:"connected,omitempty"`
	Address   *string        `json:"address,omitempty"`
	Buttons   *ButtonState   `json:"buttons,omitempty"`
	Dpad      *DpadState     `json:"dpad,omitempty"`
	Sticks    *SticksState   `json:"sticks,omitempty"`
	Triggers  *TriggersState `json:"triggers,omitempty"`
	Raw       *RawState      `json:"raw,omitempty"`
}

func (d *DeltaChanges) IsEmpty() bool {
	return d.Connected == nil &&
		d.Address == nil &&
		d.Buttons == nil &&
		d.Dpad == nil &&
		d.Sticks == nil &&
		d.Triggers == nil &&
		d.Raw == nil
}

// OnlyRaw reports a delta carrying nothing but sensor jitter.
func (d *DeltaChanges) OnlyRaw() bool {
	return d.Raw != nil &&
		d.Connected == nil &&
		d.Address == nil &&
		d.Buttons == nil &&
		d.Dpad == nil &&
		d.Sticks == nil &&
		d.Triggers == nil
}

const analogThreshold = 0.01

func floatEqual(a, b float64) bool {
	return math.Abs(a-b) < analogThreshold
}

func stickEqual(a, b StickState) bool {
	return floatEqual(a.Position.X, b.Position.X) &&
		floatEqual(a.Position.Y, b.Position.Y) &&
		a.Pressed == b.Pressed
}

func ComputeDelta(old, new_ ControllerState) *DeltaChanges {
	d := &DeltaChanges{}

	if old.Connected != new_.Connected {
		d.Connected = &new_.Connected
	}
	if old.Address != new_.Address {
		d.Address = &new_.Address
	}
	if old.Buttons != new_.Buttons {
		d.Buttons = &new_.Buttons
	}
	if old.Dpad != new_.Dpad {
		d.Dpad = &new_.Dpad
	}
	if !stickEqual(old.Sticks.Left, new_.Sticks.Left) || !stickEqual(old.Sticks.C, new_.Sticks.C) {
		d.Sticks = &new_.Sticks
	}
	if !floatEqual(old.Triggers.L.Value, new_.Triggers.L.Value) ||
		!floatEqual(old.Triggers.R.Value, new_.Triggers.R.Value) {
		d.Triggers = &new_.Triggers
	}
	if old.Raw != new_.Raw {
		d.Raw = &new_.Raw
	}

	return d
}
