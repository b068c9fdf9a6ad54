package gamepad

import (
	"github.com/soar/nsogc-bridge/internal/calibration"
	"github.com/soar/nsogc-bridge/internal/packet"
)

// Reduce builds the normalized view of one sample. It never fails: a channel
// whose limits are degenerate reads as zero. Connection fields are left for
// the caller to fill.
func Reduce(s packet.Sample, cal calibration.Calibration) ControllerState {
	b := s.Buttons
	st := ControllerState{
		Buttons: ButtonState{
			A:          b.Pressed(packet.ButtonA),
			B:          b.Pressed(packet.ButtonB),
			X:          b.Pressed(packet.ButtonX),
			Y:          b.Pressed(packet.ButtonY),
			Z:          b.Pressed(packet.ButtonZ),
			ZL:         b.Pressed(packet.ButtonZL),
			Start:      b.Pressed(packet.ButtonStart),
			Home:       b.Pressed(packet.ButtonHome),
			Screenshot: b.Pressed(packet.ButtonScreenshot),
			Chat:       b.Pressed(packet.ButtonChat),
		},
		Dpad: DpadState{
			Up:    b.Pressed(packet.ButtonDpadUp),
			Down:  b.Pressed(packet.ButtonDpadDown),
			Left:  b.Pressed(packet.ButtonDpadLeft),
			Right: b.Pressed(packet.ButtonDpadRight),
		},
		Raw: RawState{
			LeftX:    int(s.LeftX),
			LeftY:    int(s.LeftY),
			CX:       int(s.CX),
			CY:       int(s.CY),
			LTrigger: int(s.LTrigger),
			RTrigger: int(s.RTrigger),
		},
	}

	norm := func(a calibration.Axis, raw int) float64 {
		v, err := cal.Normalize(a, raw)
		if err != nil {
			return 0
		}
		return v
	}

	st.Sticks.Left = StickState{
		Position: Vector{X: norm(calibration.LeftX, st.Raw.LeftX), Y: norm(calibration.LeftY, st.Raw.LeftY)},
		Pressed:  b.Pressed(packet.ButtonLClick),
	}
	st.Sticks.C = StickState{
		Position: Vector{X: norm(calibration.CX, st.Raw.CX), Y: norm(calibration.CY, st.Raw.CY)},
		Pressed:  b.Pressed(packet.ButtonRClick),
	}
	st.Triggers.L.Value = norm(calibration.LTrigger, st.Raw.LTrigger)
	st.Triggers.R.Value = norm(calibration.RTrigger, st.Raw.RTrigger)

	return st
}
