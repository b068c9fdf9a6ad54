// Package calibration holds the per-axis limits and dead zones of a
// controller session and maps raw sensor counts onto normalized axis values.
package calibration

import (
	"fmt"
)

// Axis identifies one analog channel.
type Axis int

const (
	LeftX Axis = iota
	LeftY
	CX
	CY
	LTrigger
	RTrigger

	NumAxes = 6
)

var axisNames = [NumAxes]string{"left_x", "left_y", "c_x", "c_y", "l_trigger", "r_trigger"}

// Axes lists every axis in declaration order.
var Axes = [NumAxes]Axis{LeftX, LeftY, CX, CY, LTrigger, RTrigger}

func (a Axis) String() string {
	if a >= 0 && int(a) < len(axisNames) {
		return axisNames[a]
	}
	return "UNKNOWN"
}

func (a Axis) IsTrigger() bool {
	return a == LTrigger || a == RTrigger
}

func (a Axis) Valid() bool {
	return a >= 0 && a < NumAxes
}

func ParseAxis(s string) (Axis, error) {
	for i, name := range axisNames {
		if name == s {
			return Axis(i), nil
		}
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}

// Limit names one calibrated point of an axis.
type Limit int

const (
	Min Limit = iota
	Center
	Max
)

func (l Limit) String() string {
	switch l {
	case Min:
		return "min"
	case Center:
		return "center"
	case Max:
		return "max"
	default:
		return "UNKNOWN"
	}
}

type StickLimits struct {
	Min    int `json:"min"`
	Center int `json:"center"`
	Max    int `json:"max"`
}

type TriggerLimits struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// DeadzoneGroup selects which dead zone an adjustment applies to.
type DeadzoneGroup int

const (
	LeftStickDeadzone DeadzoneGroup = iota
	CStickDeadzone
	TriggerDeadzone
)

const (
	MaxStickDeadzone   = 0.5
	MaxTriggerDeadzone = 0.3
)

func (g DeadzoneGroup) String() string {
	switch g {
	case LeftStickDeadzone:
		return "left_stick"
	case CStickDeadzone:
		return "c_stick"
	case TriggerDeadzone:
		return "trigger"
	default:
		return "UNKNOWN"
	}
}

func ParseDeadzoneGroup(s string) (DeadzoneGroup, error) {
	for _, g := range []DeadzoneGroup{LeftStickDeadzone, CStickDeadzone, TriggerDeadzone} {
		if g.String() == s {
			return g, nil
		}
	}
	return 0, fmt.Errorf("unknown dead zone group %q", s)
}

func (g DeadzoneGroup) max() float64 {
	if g == TriggerDeadzone {
		return MaxTriggerDeadzone
	}
	return MaxStickDeadzone
}

// Calibration is the full set of limits and dead zones for one controller.
type Calibration struct {
	LeftX    StickLimits   `json:"left_x"`
	LeftY    StickLimits   `json:"left_y"`
	CX       StickLimits   `json:"c_x"`
	CY       StickLimits   `json:"c_y"`
	LTrigger TriggerLimits `json:"l_trigger"`
	RTrigger TriggerLimits `json:"r_trigger"`

	LeftStickDeadzone float64 `json:"left_stick_deadzone"`
	CStickDeadzone    float64 `json:"c_stick_deadzone"`
	TriggerDeadzone   float64 `json:"trigger_deadzone"`
}

// Default returns the limits used when no saved record exists.
func Default() Calibration {
	return Calibration{
		LeftX:    StickLimits{Min: 248, Center: 2048, Max: 3848},
		LeftY:    StickLimits{Min: 55, Center: 131, Max: 207},
		CX:       StickLimits{Min: 248, Center: 2048, Max: 3848},
		CY:       StickLimits{Min: 55, Center: 131, Max: 207},
		LTrigger: TriggerLimits{Min: 30, Max: 230},
		RTrigger: TriggerLimits{Min: 30, Max: 230},

		LeftStickDeadzone: 0.05,
		CStickDeadzone:    0.05,
		TriggerDeadzone:   0.02,
	}
}

func (c *Calibration) stick(a Axis) *StickLimits {
	switch a {
	case LeftX:
		return &c.LeftX
	case LeftY:
		return &c.LeftY
	case CX:
		return &c.CX
	case CY:
		return &c.CY
	}
	return nil
}

func (c *Calibration) trigger(a Axis) *TriggerLimits {
	switch a {
	case LTrigger:
		return &c.LTrigger
	case RTrigger:
		return &c.RTrigger
	}
	return nil
}

// Deadzone returns the dead zone applied to a.
func (c Calibration) Deadzone(a Axis) float64 {
	switch a {
	case LeftX, LeftY:
		return c.LeftStickDeadzone
	case CX, CY:
		return c.CStickDeadzone
	default:
		return c.TriggerDeadzone
	}
}

func (c *Calibration) deadzone(g DeadzoneGroup) *float64 {
	switch g {
	case LeftStickDeadzone:
		return &c.LeftStickDeadzone
	case CStickDeadzone:
		return &c.CStickDeadzone
	case TriggerDeadzone:
		return &c.TriggerDeadzone
	}
	return nil
}

// Normalize maps a raw reading of a through the current limits.
func (c Calibration) Normalize(a Axis, raw int) (float64, error) {
	if a.IsTrigger() {
		t := c.trigger(a)
		return NormalizeTrigger(raw, t.Min, t.Max, c.Deadzone(a))
	}
	s := c.stick(a)
	if s == nil {
		return 0, fmt.Errorf("unknown axis %d", a)
	}
	return NormalizeStick(raw, s.Min, s.Center, s.Max, c.Deadzone(a))
}

// Validate checks every range and dead zone.
func (c Calibration) Validate() error {
	for _, a := range Axes {
		if a.IsTrigger() {
			t := c.trigger(a)
			if t.Min >= t.Max {
				return fmt.Errorf("%w: %s min=%d max=%d", ErrDegenerateRange, a, t.Min, t.Max)
			}
			continue
		}
		s := c.stick(a)
		if s.Min >= s.Center || s.Center >= s.Max {
			return fmt.Errorf("%w: %s min=%d center=%d max=%d", ErrDegenerateRange, a, s.Min, s.Center, s.Max)
		}
	}
	for _, g := range []DeadzoneGroup{LeftStickDeadzone, CStickDeadzone, TriggerDeadzone} {
		if err := checkDeadzone(g, *c.deadzone(g)); err != nil {
			return err
		}
	}
	return nil
}

func checkDeadzone(g DeadzoneGroup, v float64) error {
	// NaN fails both comparisons.
	if !(v >= 0 && v <= g.max()) {
		return fmt.Errorf("%w: %s dead zone %v not in [0, %v]", ErrDeadzoneRange, g, v, g.max())
	}
	return nil
}

// Limit returns the stored value of one calibrated point.
func (c Calibration) Limit(a Axis, l Limit) (int, error) {
	if a.IsTrigger() {
		t := c.trigger(a)
		switch l {
		case Min:
			return t.Min, nil
		case Max:
			return t.Max, nil
		}
		return 0, fmt.Errorf("trigger %s has no %s limit", a, l)
	}
	s := c.stick(a)
	if s == nil {
		return 0, fmt.Errorf("unknown axis %d", a)
	}
	switch l {
	case Min:
		return s.Min, nil
	case Center:
		return s.Center, nil
	case Max:
		return s.Max, nil
	}
	return 0, fmt.Errorf("unknown limit %d", l)
}

// WithLimit returns a copy of c with one point replaced. The copy is
// validated; on error c is left as it was.
func (c Calibration) WithLimit(a Axis, l Limit, value int) (Calibration, error) {
	next := c
	if a.IsTrigger() {
		t := next.trigger(a)
		switch l {
		case Min:
			t.Min = value
		case Max:
			t.Max = value
		default:
			return c, fmt.Errorf("trigger %s has no %s limit", a, l)
		}
	} else {
		s := next.stick(a)
		if s == nil {
			return c, fmt.Errorf("unknown axis %d", a)
		}
		switch l {
		case Min:
			s.Min = value
		case Center:
			s.Center = value
		case Max:
			s.Max = value
		default:
			return c, fmt.Errorf("unknown limit %d", l)
		}
	}
	if err := next.Validate(); err != nil {
		return c, err
	}
	return next, nil
}

// WithDeadzone returns a copy of c with one dead zone replaced.
func (c Calibration) WithDeadzone(g DeadzoneGroup, v float64) (Calibration, error) {
	dz := c.deadzone(g)
	if dz == nil {
		return c, fmt.Errorf("unknown dead zone group %d", g)
	}
	if err := checkDeadzone(g, v); err != nil {
		return c, err
	}
	next := c
	*next.deadzone(g) = v
	return next, nil
}
