// Package packet decodes the input notifications of the NSO GameCube
// controller into raw button and analog samples.
package packet

import (
	"errors"
	"fmt"
)

var ErrTooShort = errors.New("input report too short")

// Sample is one decoded input report. Analog channels are raw sensor counts:
// LeftX and CX are 12-bit, the rest 8-bit.
type Sample struct {
	Buttons  ButtonSet
	LeftX    uint16
	LeftY    uint16
	CX       uint16
	CY       uint16
	LTrigger uint16
	RTrigger uint16
}

// Decode parses a notification payload. Payloads shorter than ReportLength
// yield ErrTooShort and a zero Sample.
func Decode(data []byte) (Sample, error) {
	if len(data) < ReportLength {
		return Sample{}, fmt.Errorf("%w: %d of %d bytes", ErrTooShort, len(data), ReportLength)
	}
	r := Report(data)
	return Sample{
		Buttons:  r.buttons(),
		LeftX:    r.axis12(leftXOffset),
		LeftY:    uint16(r[leftYOffset]),
		CX:       r.axis12(cXOffset),
		CY:       uint16(r[cYOffset]),
		LTrigger: uint16(r[lTriggerOffset]),
		RTrigger: uint16(r[rTriggerOffset]),
	}, nil
}
