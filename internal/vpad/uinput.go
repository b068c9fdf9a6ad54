package vpad

import (
	"math"

	"github.com/soar/nsogc-bridge/internal/gamepad"
)

// Linux input constants for an xpad-compatible Xbox 360 pad.
const (
	evSyn = 0x00
	evKey = 0x01
	evAbs = 0x03

	synReport = 0x00

	btnA      = 0x130
	btnB      = 0x131
	btnX      = 0x133
	btnY      = 0x134
	btnTL     = 0x136
	btnTR     = 0x137
	btnSelect = 0x13a
	btnStart  = 0x13b
	btnMode   = 0x13c
	btnThumbL = 0x13d
	btnThumbR = 0x13e

	absX     = 0x00
	absY     = 0x01
	absZ     = 0x02
	absRX    = 0x03
	absRY    = 0x04
	absRZ    = 0x05
	absHat0X = 0x10
	absHat0Y = 0x11

	busUSB = 0x03

	xboxVendor  = 0x045e
	xbox360Pad  = 0x028e
	xboxPadName = "Microsoft X-Box 360 pad"

	stickMax   = 32767
	triggerMax = 255
)

var keyCodes = []struct {
	bit  gamepad.XboxButtons
	code uint16
}{
	{gamepad.XboxA, btnA},
	{gamepad.XboxB, btnB},
	{gamepad.XboxX, btnX},
	{gamepad.XboxY, btnY},
	{gamepad.XboxLeftShoulder, btnTL},
	{gamepad.XboxRightShoulder, btnTR},
	{gamepad.XboxBack, btnSelect},
	{gamepad.XboxStart, btnStart},
	{gamepad.XboxGuide, btnMode},
	{gamepad.XboxLeftThumb, btnThumbL},
	{gamepad.XboxRightThumb, btnThumbR},
}

type absRange struct {
	code     uint16
	min, max int32
	fuzz     int32
	flat     int32
}

var absRanges = []absRange{
	{absX, -stickMax - 1, stickMax, 16, 128},
	{absY, -stickMax - 1, stickMax, 16, 128},
	{absRX, -stickMax - 1, stickMax, 16, 128},
	{absRY, -stickMax - 1, stickMax, 16, 128},
	{absZ, 0, triggerMax, 0, 0},
	{absRZ, 0, triggerMax, 0, 0},
	{absHat0X, -1, 1, 0, 0},
	{absHat0Y, -1, 1, 0, 0},
}

// event is the type/code/value part of a kernel input_event.
type event struct {
	typ   uint16
	code  uint16
	value int32
}

func scaleStick(v float64) int32 {
	return int32(math.Round(clamp(v, -1, 1) * stickMax))
}

func scaleTrigger(v float64) int32 {
	return int32(math.Round(clamp(v, 0, 1) * triggerMax))
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(lo, math.Min(hi, v))
}

func hat(b gamepad.XboxButtons, neg, pos gamepad.XboxButtons) int32 {
	switch {
	case b&neg != 0 && b&pos == 0:
		return -1
	case b&pos != 0 && b&neg == 0:
		return 1
	}
	return 0
}

// frameEvents lists the events that move the device from prev to next,
// terminated by a sync report. full forces every code to be written.
// Linux Y axes grow downwards, so stick Y is inverted.
func frameEvents(prev, next Frame, full bool) []event {
	var evs []event
	for _, k := range keyCodes {
		was, is := prev.Buttons&k.bit != 0, next.Buttons&k.bit != 0
		if full || was != is {
			v := int32(0)
			if is {
				v = 1
			}
			evs = append(evs, event{evKey, k.code, v})
		}
	}

	abs := func(code uint16, a, b int32) {
		if full || a != b {
			evs = append(evs, event{evAbs, code, b})
		}
	}
	abs(absX, scaleStick(prev.LX), scaleStick(next.LX))
	abs(absY, scaleStick(-prev.LY), scaleStick(-next.LY))
	abs(absRX, scaleStick(prev.RX), scaleStick(next.RX))
	abs(absRY, scaleStick(-prev.RY), scaleStick(-next.RY))
	abs(absZ, scaleTrigger(prev.LT), scaleTrigger(next.LT))
	abs(absRZ, scaleTrigger(prev.RT), scaleTrigger(next.RT))
	abs(absHat0X,
		hat(prev.Buttons, gamepad.XboxDpadLeft, gamepad.XboxDpadRight),
		hat(next.Buttons, gamepad.XboxDpadLeft, gamepad.XboxDpadRight))
	abs(absHat0Y,
		hat(prev.Buttons, gamepad.XboxDpadUp, gamepad.XboxDpadDown),
		hat(next.Buttons, gamepad.XboxDpadUp, gamepad.XboxDpadDown))

	if len(evs) == 0 {
		return nil
	}
	return append(evs, event{evSyn, synReport, 0})
}
