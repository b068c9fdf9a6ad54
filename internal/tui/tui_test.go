package tui

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/soar/nsogc-bridge/internal/calibration"
	"github.com/soar/nsogc-bridge/internal/gamepad"
	"github.com/soar/nsogc-bridge/internal/session"
	"github.com/soar/nsogc-bridge/internal/wizard"
)

type fakeController struct {
	calls   []string
	axis    calibration.Axis
	emulate bool
	fail    error
	step    wizard.Step
}

func (f *fakeController) State() gamepad.ControllerState {
	st := gamepad.ControllerState{Connected: true}
	st.Buttons.A = true
	return st
}
func (f *fakeController) Status() session.Status {
	return session.Status{Connected: true, Address: "AA:BB", Emulating: f.emulate}
}
func (f *fakeController) StartCalibration(a calibration.Axis) (wizard.Step, error) {
	f.calls = append(f.calls, "start")
	f.axis = a
	return wizard.Step{}, f.fail
}
func (f *fakeController) AdvanceCalibration() (wizard.Step, error) {
	f.calls = append(f.calls, "advance")
	return f.step, f.fail
}
func (f *fakeController) AbortCalibration() { f.calls = append(f.calls, "abort") }
func (f *fakeController) ResetCalibration() { f.calls = append(f.calls, "reset") }
func (f *fakeController) SetEmulation(on bool) error {
	f.calls = append(f.calls, "emulation")
	if f.fail == nil {
		f.emulate = on
	}
	return f.fail
}
func (f *fakeController) SaveSettings() error {
	f.calls = append(f.calls, "save")
	return f.fail
}

func (f *fakeController) LoadSettings() error {
	f.calls = append(f.calls, "load")
	return f.fail
}
func (f *fakeController) ResetAll() { f.calls = append(f.calls, "reset_all") }

func press(m tea.Model, k string) (tea.Model, tea.Cmd) {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		msg = tea.KeyMsg{Type: tea.KeyEsc}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	return m.Update(msg)
}

func TestKeys(t *testing.T) {
	f := &fakeController{step: wizard.Step{AxisName: "r_trigger", Done: true}}
	var m tea.Model = New(f)

	for _, k := range []string{"6", "enter", "esc", "r", "e", "l", "a", "s", "x"} {
		m, _ = press(m, k)
	}
	want := []string{"start", "advance", "abort", "reset", "emulation", "load", "reset_all", "save"}
	if strings.Join(f.calls, ",") != strings.Join(want, ",") {
		t.Fatalf("calls %v, want %v", f.calls, want)
	}
	if f.axis != calibration.RTrigger || !f.emulate {
		t.Fatalf("axis %v emulate %v", f.axis, f.emulate)
	}
	if got := m.(Model).message; got != "settings saved" {
		t.Fatalf("message %q", got)
	}
}

func TestAdvanceMessage(t *testing.T) {
	f := &fakeController{step: wizard.Step{AxisName: "left_x", Phase: wizard.CollectingCenter}}
	m, _ := press(New(f), "enter")
	if got := m.(Model).message; got != "left_x: collecting_center" {
		t.Fatalf("message %q", got)
	}
	f.step = wizard.Step{AxisName: "left_x", Done: true}
	m, _ = press(m, "enter")
	if got := m.(Model).message; got != "left_x calibrated" {
		t.Fatalf("message %q", got)
	}
}

func TestErrorsShown(t *testing.T) {
	f := &fakeController{fail: errors.New("controller not connected")}
	m, _ := press(New(f), "1")
	if got := m.(Model).message; got != "error: controller not connected" {
		t.Fatalf("message %q", got)
	}
	if !strings.Contains(m.View(), "error: controller not connected") {
		t.Fatal("error missing from view")
	}
}

func TestQuit(t *testing.T) {
	_, cmd := press(New(&fakeController{}), "q")
	if cmd == nil {
		t.Fatal("no command")
	}
	if cmd() != tea.Quit() {
		t.Fatal("q does not quit")
	}
}

func TestTickRefreshes(t *testing.T) {
	f := &fakeController{}
	m := New(f)
	f.emulate = true
	next, cmd := m.Update(tickMsg{})
	if cmd == nil {
		t.Fatal("tick not rescheduled")
	}
	if !next.(Model).status.Emulating {
		t.Fatal("status not refreshed")
	}
	view := next.View()
	if !strings.Contains(view, "[A]") || !strings.Contains(view, "emulation on") {
		t.Fatalf("view:\n%s", view)
	}
}

func TestDegenerateCommitHint(t *testing.T) {
	f := &fakeController{fail: fmt.Errorf("commit left_x max=900: %w", calibration.ErrDegenerateRange)}
	m, _ := press(New(f), "enter")
	if got := m.(Model).message; !strings.HasSuffix(got, "(press r to reset the calibration)") {
		t.Fatalf("message %q", got)
	}
}

func TestLoadSettingsError(t *testing.T) {
	f := &fakeController{fail: errors.New("malformed settings record")}
	m, _ := press(New(f), "l")
	if got := m.(Model).message; got != "error: malformed settings record" {
		t.Fatalf("message %q", got)
	}
}
