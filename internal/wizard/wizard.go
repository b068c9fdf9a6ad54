// Package wizard walks one axis at a time through its calibration phases,
// averaging a short window of live readings per phase.
package wizard

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/soar/nsogc-bridge/internal/calibration"
	"github.com/soar/nsogc-bridge/internal/packet"
)

var ErrNoSamples = errors.New("no samples collected")

// Phase is the wizard's position within a run.
type Phase int

const (
	Idle Phase = iota
	CollectingMin
	CollectingCenter
	CollectingMax
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case CollectingMin:
		return "collecting_min"
	case CollectingCenter:
		return "collecting_center"
	case CollectingMax:
		return "collecting_max"
	default:
		return "UNKNOWN"
	}
}

// Limit returns the calibration point a collecting phase commits to.
func (p Phase) Limit() (calibration.Limit, bool) {
	switch p {
	case CollectingMin:
		return calibration.Min, true
	case CollectingCenter:
		return calibration.Center, true
	case CollectingMax:
		return calibration.Max, true
	}
	return 0, false
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	for _, q := range []Phase{Idle, CollectingMin, CollectingCenter, CollectingMax} {
		if q.String() == string(b) {
			*p = q
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", b)
}

var (
	stickPhases   = []Phase{CollectingMin, CollectingCenter, CollectingMax}
	triggerPhases = []Phase{CollectingMin, CollectingMax}
)

func phasesFor(a calibration.Axis) []Phase {
	if a.IsTrigger() {
		return triggerPhases
	}
	return stickPhases
}

// Committer receives averaged limits. A commit that would leave the
// calibration invalid must be rejected and leave prior values in place.
type Committer interface {
	CommitLimit(axis calibration.Axis, limit calibration.Limit, value int) error
	ResetDefaults()
}

// Step describes the wizard after a transition.
type Step struct {
	ID       uuid.UUID        `json:"id"`
	Axis     calibration.Axis `json:"-"`
	AxisName string           `json:"axis"`
	Phase    Phase            `json:"phase"`
	Progress int              `json:"progress"`
	Done     bool             `json:"done"`
	// Committed is the averaged value stored by the transition, if any.
	Committed int `json:"committed,omitempty"`
}

// Status is a snapshot for display.
type Status struct {
	Active   bool             `json:"active"`
	ID       uuid.UUID        `json:"id"`
	Axis     calibration.Axis `json:"-"`
	AxisName string           `json:"axis"`
	Phase    Phase            `json:"phase"`
	Samples  int              `json:"samples"`
	Average  int              `json:"average"`
	Progress int              `json:"progress"`
}

// Wizard is not safe for concurrent use; callers serialize access.
type Wizard struct {
	committer Committer

	id     uuid.UUID
	axis   calibration.Axis
	phases []Phase
	index  int // position in phases; -1 when idle
	window *window[int]
}

func New(c Committer) *Wizard {
	return &Wizard{
		committer: c,
		index:     -1,
		window:    newWindow[int](WindowSize),
	}
}

func (w *Wizard) Phase() Phase {
	if w.index < 0 {
		return Idle
	}
	return w.phases[w.index]
}

func (w *Wizard) Active() bool { return w.index >= 0 }

func (w *Wizard) Axis() calibration.Axis { return w.axis }

// progress is the percentage shown to the user: a stick
// run reports 0/33/66/100, a trigger run 0/50/100.
func (w *Wizard) progress(done bool) int {
	if done {
		return 100
	}
	if w.index < 0 {
		return 0
	}
	return w.index * 100 / len(w.phases)
}

func (w *Wizard) step(done bool, committed int) Step {
	return Step{
		ID:        w.id,
		Axis:      w.axis,
		AxisName:  w.axis.String(),
		Phase:     w.Phase(),
		Progress:  w.progress(done),
		Done:      done,
		Committed: committed,
	}
}

// Start begins a run on axis. A run already in progress is discarded.
func (w *Wizard) Start(axis calibration.Axis) (Step, error) {
	if !axis.Valid() {
		return Step{}, fmt.Errorf("start calibration: unknown axis %d", axis)
	}
	w.id = uuid.New()
	w.axis = axis
	w.phases = phasesFor(axis)
	w.index = 0
	w.window.clear()
	return w.step(false, 0), nil
}

// Observe feeds one decoded sample. It is a no-op while idle.
func (w *Wizard) Observe(s packet.Sample) {
	if w.index < 0 {
		return
	}
	w.window.push(Raw(s, w.axis))
}

// Advance commits the averaged window to the current phase's limit and moves
// on. On a failed commit the phase and window are kept so the user can retry.
func (w *Wizard) Advance() (Step, error) {
	if w.index < 0 {
		return Step{}, errors.New("advance calibration: no run in progress")
	}
	avg, ok := w.window.average()
	if !ok {
		return w.step(false, 0), ErrNoSamples
	}
	limit, _ := w.Phase().Limit()
	if err := w.committer.CommitLimit(w.axis, limit, avg); err != nil {
		return w.step(false, 0), fmt.Errorf("commit %s %s=%d: %w", w.axis, limit, avg, err)
	}

	w.window.clear()
	w.index++
	if w.index == len(w.phases) {
		w.index = -1
		return w.step(true, avg), nil
	}
	return w.step(false, avg), nil
}

// Abort ends the run without committing the current phase.
func (w *Wizard) Abort() {
	w.index = -1
	w.window.clear()
}

// Reset restores the default calibration and ends any run.
func (w *Wizard) Reset() {
	w.Abort()
	w.committer.ResetDefaults()
}

func (w *Wizard) Status() Status {
	st := Status{
		Active:   w.index >= 0,
		Phase:    w.Phase(),
		Samples:  w.window.len(),
		Progress: w.progress(false),
	}
	if st.Active {
		st.ID = w.id
		st.Axis = w.axis
		st.AxisName = w.axis.String()
		st.Average, _ = w.window.average()
	}
	return st
}

// Raw returns the reading of axis a carried by s.
func Raw(s packet.Sample, a calibration.Axis) int {
	switch a {
	case calibration.LeftX:
		return int(s.LeftX)
	case calibration.LeftY:
		return int(s.LeftY)
	case calibration.CX:
		return int(s.CX)
	case calibration.CY:
		return int(s.CY)
	case calibration.LTrigger:
		return int(s.LTrigger)
	case calibration.RTrigger:
		return int(s.RTrigger)
	}
	return 0
}
