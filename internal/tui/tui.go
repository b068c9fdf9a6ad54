// Package tui is a terminal view of the live controller with keyboard
// driven calibration.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/soar/nsogc-bridge/internal/calibration"
	"github.com/soar/nsogc-bridge/internal/gamepad"
	"github.com/soar/nsogc-bridge/internal/session"
	"github.com/soar/nsogc-bridge/internal/wizard"
)

const refreshInterval = time.Second / 30

// Controller is the session surface the terminal UI drives.
type Controller interface {
	State() gamepad.ControllerState
	Status() session.Status
	StartCalibration(calibration.Axis) (wizard.Step, error)
	AdvanceCalibration() (wizard.Step, error)
	AbortCalibration()
	ResetCalibration()
	SetEmulation(bool) error
	SaveSettings() error
	LoadSettings() error
	ResetAll()
}

type tickMsg time.Time

type Model struct {
	ctrl    Controller
	state   gamepad.ControllerState
	status  session.Status
	message string
}

func New(ctrl Controller) Model {
	return Model{ctrl: ctrl, state: ctrl.State(), status: ctrl.Status()}
}

// Run blocks until the user quits.
func Run(ctrl Controller) error {
	_, err := tea.NewProgram(New(ctrl), tea.WithAltScreen()).Run()
	return err
}

func tick() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		m.state, m.status = m.ctrl.State(), m.ctrl.Status()
		return m, tick()
	case tea.KeyMsg:
		return m.key(msg.String())
	}
	return m, nil
}

func (m Model) key(k string) (tea.Model, tea.Cmd) {
	var err error
	switch k {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "1", "2", "3", "4", "5", "6":
		axis := calibration.Axis(k[0] - '1')
		if _, err = m.ctrl.StartCalibration(axis); err == nil {
			m.message = "calibrating " + axis.String()
		}
	case "enter":
		var step wizard.Step
		if step, err = m.ctrl.AdvanceCalibration(); err == nil {
			if step.Done {
				m.message = step.AxisName + " calibrated"
			} else {
				m.message = fmt.Sprintf("%s: %s", step.AxisName, step.Phase)
			}
		}
	case "esc":
		m.ctrl.AbortCalibration()
		m.message = "calibration aborted"
	case "r":
		m.ctrl.ResetCalibration()
		m.message = "calibration reset to defaults"
	case "e":
		on := !m.ctrl.Status().Emulating
		if err = m.ctrl.SetEmulation(on); err == nil {
			m.message = fmt.Sprintf("emulation %v", onOff(on))
		}
	case "s":
		if err = m.ctrl.SaveSettings(); err == nil {
			m.message = "settings saved"
		}
	case "l":
		if err = m.ctrl.LoadSettings(); err == nil {
			m.message = "settings loaded"
		}
	case "a":
		m.ctrl.ResetAll()
		m.message = "all settings reset to defaults"
	default:
		return m, nil
	}
	if err != nil {
		m.message = "error: " + err.Error()
		if errors.Is(err, calibration.ErrDegenerateRange) {
			m.message += " (press r to reset the calibration)"
		}
	}
	m.state, m.status = m.ctrl.State(), m.ctrl.Status()
	return m, nil
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func mark(name string, on bool) string {
	if on {
		return "[" + name + "]"
	}
	return " " + strings.Repeat(".", len(name)) + " "
}

func (m Model) View() string {
	var b strings.Builder
	st, s := m.state, m.status

	conn := "disconnected"
	if s.Connected {
		conn = "connected"
	}
	fmt.Fprintf(&b, "NSO GC Bridge  %s %s  packets %d dropped %d  emulation %s\n\n",
		conn, s.Address, s.Packets, s.Dropped, onOff(s.Emulating))

	bt := st.Buttons
	for _, p := range []struct {
		name string
		on   bool
	}{
		{"A", bt.A}, {"B", bt.B}, {"X", bt.X}, {"Y", bt.Y}, {"Z", bt.Z}, {"ZL", bt.ZL},
		{"START", bt.Start}, {"HOME", bt.Home}, {"CAP", bt.Screenshot}, {"CHAT", bt.Chat},
		{"UP", st.Dpad.Up}, {"DOWN", st.Dpad.Down}, {"LEFT", st.Dpad.Left}, {"RIGHT", st.Dpad.Right},
	} {
		b.WriteString(mark(p.name, p.on))
	}
	b.WriteString("\n\n")

	fmt.Fprintf(&b, "Left  %+.2f %+.2f    C %+.2f %+.2f\n",
		st.Sticks.Left.Position.X, st.Sticks.Left.Position.Y, st.Sticks.C.Position.X, st.Sticks.C.Position.Y)
	fmt.Fprintf(&b, "L %.2f  R %.2f\n", st.Triggers.L.Value, st.Triggers.R.Value)
	fmt.Fprintf(&b, "raw  LX %4d LY %4d CX %4d CY %4d L %3d R %3d\n\n",
		st.Raw.LeftX, st.Raw.LeftY, st.Raw.CX, st.Raw.CY, st.Raw.LTrigger, st.Raw.RTrigger)

	if w := s.Wizard; w.Active {
		fmt.Fprintf(&b, "calibrating %s: %s  %d samples, average %d  %d%%\n",
			w.AxisName, w.Phase, w.Samples, w.Average, w.Progress)
	} else {
		b.WriteString("calibration idle\n")
	}
	if m.message != "" {
		b.WriteString(m.message + "\n")
	}
	b.WriteString("\n1-6 calibrate axis  enter next  esc abort  r reset  e emulation  s save  l load  a reset all  q quit\n")
	return b.String()
}
