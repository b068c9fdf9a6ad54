package gamepad

import (
	"strings"

	"github.com/soar/nsogc-bridge/internal/packet"
)

// XboxButtons is an XUSB button bitmask.
type XboxButtons uint16

const (
	XboxDpadUp        XboxButtons = 0x0001
	XboxDpadDown      XboxButtons = 0x0002
	XboxDpadLeft      XboxButtons = 0x0004
	XboxDpadRight     XboxButtons = 0x0008
	XboxStart         XboxButtons = 0x0010
	XboxBack          XboxButtons = 0x0020
	XboxLeftThumb     XboxButtons = 0x0040
	XboxRightThumb    XboxButtons = 0x0080
	XboxLeftShoulder  XboxButtons = 0x0100
	XboxRightShoulder XboxButtons = 0x0200
	XboxGuide         XboxButtons = 0x0400
	XboxA             XboxButtons = 0x1000
	XboxB             XboxButtons = 0x2000
	XboxX             XboxButtons = 0x4000
	XboxY             XboxButtons = 0x8000
)

// ButtonMapping pairs a controller button with its Xbox counterpart.
type ButtonMapping struct {
	Source packet.Button
	Target XboxButtons
}

// XboxMapping is the fixed button table. Chat has no Xbox equivalent and is
// not listed.
var XboxMapping = []ButtonMapping{
	{packet.ButtonA, XboxA},
	{packet.ButtonB, XboxB},
	{packet.ButtonX, XboxX},
	{packet.ButtonY, XboxY},
	{packet.ButtonZ, XboxRightShoulder},
	{packet.ButtonZL, XboxLeftShoulder},
	{packet.ButtonStart, XboxStart},
	{packet.ButtonScreenshot, XboxBack},
	{packet.ButtonHome, XboxGuide},
	{packet.ButtonLClick, XboxLeftThumb},
	{packet.ButtonRClick, XboxRightThumb},
	{packet.ButtonDpadUp, XboxDpadUp},
	{packet.ButtonDpadDown, XboxDpadDown},
	{packet.ButtonDpadLeft, XboxDpadLeft},
	{packet.ButtonDpadRight, XboxDpadRight},
}

// Xbox returns the Xbox buttons held in s.
func (s ControllerState) Xbox() XboxButtons {
	var out XboxButtons
	for _, m := range XboxMapping {
		if s.Pressed(m.Source) {
			out |= m.Target
		}
	}
	return out
}

var xboxNames = []struct {
	bit  XboxButtons
	name string
}{
	{XboxA, "A"}, {XboxB, "B"}, {XboxX, "X"}, {XboxY, "Y"},
	{XboxLeftShoulder, "LB"}, {XboxRightShoulder, "RB"},
	{XboxBack, "BACK"}, {XboxStart, "START"}, {XboxGuide, "GUIDE"},
	{XboxLeftThumb, "LS"}, {XboxRightThumb, "RS"},
	{XboxDpadUp, "UP"}, {XboxDpadDown, "DOWN"}, {XboxDpadLeft, "LEFT"}, {XboxDpadRight, "RIGHT"},
}

func (b XboxButtons) String() string {
	var parts []string
	for _, n := range xboxNames {
		if b&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}
