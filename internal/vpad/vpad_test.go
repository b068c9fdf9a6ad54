package vpad

import (
	"errors"
	"testing"

	"github.com/soar/nsogc-bridge/internal/calibration"
	"github.com/soar/nsogc-bridge/internal/gamepad"
	"github.com/soar/nsogc-bridge/internal/packet"
)

func TestApply(t *testing.T) {
	s := packet.Sample{
		Buttons:  packet.ButtonSet(0).With(packet.ButtonZ, packet.ButtonHome, packet.ButtonChat),
		LeftX:    3848,
		LeftY:    131,
		CX:       2048,
		CY:       55,
		LTrigger: 230,
		RTrigger: 30,
	}
	st := gamepad.Reduce(s, calibration.Default())

	d := NewLog()
	if err := Apply(d, st); err != nil {
		t.Fatal(err)
	}
	got, n := d.Last()
	want := Frame{
		Buttons: gamepad.XboxRightShoulder | gamepad.XboxGuide,
		LX:      1,
		RY:      -1,
		LT:      1,
	}
	if got != want || n != 1 {
		t.Fatalf("got %+v (%d commits), want %+v", got, n, want)
	}

	if err := Neutral(d); err != nil {
		t.Fatal(err)
	}
	if got, _ := d.Last(); got != (Frame{}) {
		t.Fatalf("neutral frame %+v", got)
	}
}

func TestLogDriverClosed(t *testing.T) {
	d := NewLog()
	d.Close()
	if err := d.Commit(); !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestOpenUnknown(t *testing.T) {
	if _, err := Open("vjoy"); err == nil {
		t.Fatal("expected error")
	}
	d, err := Open(KindLog)
	if err != nil || d == nil {
		t.Fatalf("log driver: %v", err)
	}
}

func TestFrameEventsFull(t *testing.T) {
	evs := frameEvents(Frame{}, Frame{}, true)
	// every key, every axis, then a sync report
	if len(evs) != len(keyCodes)+len(absRanges)+1 {
		t.Fatalf("got %d events", len(evs))
	}
	if last := evs[len(evs)-1]; last != (event{evSyn, synReport, 0}) {
		t.Fatalf("missing sync: %+v", last)
	}
}

func TestFrameEventsDiff(t *testing.T) {
	prev := Frame{}
	next := Frame{
		Buttons: gamepad.XboxA | gamepad.XboxDpadUp,
		LY:      1,
		RT:      0.5,
	}
	evs := frameEvents(prev, next, false)
	want := []event{
		{evKey, btnA, 1},
		{evAbs, absY, -stickMax},
		{evAbs, absRZ, 128},
		{evAbs, absHat0Y, -1},
		{evSyn, synReport, 0},
	}
	if len(evs) != len(want) {
		t.Fatalf("got %+v, want %+v", evs, want)
	}
	for i := range want {
		if evs[i] != want[i] {
			t.Errorf("event %d: got %+v, want %+v", i, evs[i], want[i])
		}
	}

	if evs := frameEvents(next, next, false); evs != nil {
		t.Fatalf("unchanged frame produced %+v", evs)
	}
}

func TestScale(t *testing.T) {
	tests := []struct {
		in   float64
		want int32
	}{
		{0, 0}, {1, stickMax}, {-1, -stickMax}, {2, stickMax}, {0.5, 16384},
	}
	for _, tt := range tests {
		if got := scaleStick(tt.in); got != tt.want {
			t.Errorf("scaleStick(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
	if got := scaleTrigger(-0.2); got != 0 {
		t.Errorf("scaleTrigger(-0.2) = %d", got)
	}
	if got := scaleTrigger(1); got != triggerMax {
		t.Errorf("scaleTrigger(1) = %d", got)
	}
}

func TestHatConflict(t *testing.T) {
	if v := hat(gamepad.XboxDpadLeft|gamepad.XboxDpadRight, gamepad.XboxDpadLeft, gamepad.XboxDpadRight); v != 0 {
		t.Fatalf("opposite directions gave %d", v)
	}
}
