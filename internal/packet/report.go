package packet

import (
	"fmt"
	"strings"
)

const (
	// ReportLength is the minimum payload size of an input notification.
	ReportLength = 62

	buttonsOffset  = 4
	leftXOffset    = 10 // low byte, high nibble at +1
	leftYOffset    = 12
	cXOffset       = 13 // low byte, high nibble at +1
	cYOffset       = 15
	lTriggerOffset = 60
	rTriggerOffset = 61
)

// Report is a raw input notification as delivered by the controller.
type Report []byte

func (r Report) axis12(offset int) uint16 {
	return uint16(r[offset]) | uint16(r[offset+1]&0x0F)<<8
}

func (r Report) putAxis12(offset int, v uint16) {
	r[offset] = byte(v)
	r[offset+1] = r[offset+1]&0xF0 | byte(v>>8)&0x0F
}

func (r Report) buttons() ButtonSet {
	var s ButtonSet
	for b, info := range buttonMap {
		if r[info.offset]&info.mask != 0 {
			s |= 1 << b
		}
	}
	return s
}

func (r Report) putButtons(s ButtonSet) {
	for b, info := range buttonMap {
		if s.Pressed(Button(b)) {
			r[info.offset] |= info.mask
		}
	}
}

// Encode builds a report carrying s. X axes are truncated to 12 bits and the
// remaining channels to 8 bits, matching what Decode can represent.
func Encode(s Sample) Report {
	r := make(Report, ReportLength)
	r.putButtons(s.Buttons)
	r.putAxis12(leftXOffset, s.LeftX)
	r[leftYOffset] = byte(s.LeftY)
	r.putAxis12(cXOffset, s.CX)
	r[cYOffset] = byte(s.CY)
	r[lTriggerOffset] = byte(s.LTrigger)
	r[rTriggerOffset] = byte(s.RTrigger)
	return r
}

func (r Report) String() string {
	var builder strings.Builder
	end := len(r)
	if end > cYOffset+1 {
		end = cYOffset + 1
	}
	builder.WriteString("Buttons/Sticks: ")
	for _, p := range r[buttonsOffset:end] {
		builder.WriteString(fmt.Sprintf("0x%02X ", p))
	}
	if len(r) >= ReportLength {
		builder.WriteString(fmt.Sprintf("\nTriggers:       0x%02X 0x%02X", r[lTriggerOffset], r[rTriggerOffset]))
	}
	return builder.String()
}
