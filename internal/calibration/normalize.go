package calibration

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrDegenerateRange = errors.New("degenerate calibration range")
	ErrDeadzoneRange   = errors.New("dead zone out of range")
)

// NormalizeStick maps a raw stick reading to [-1, 1] using a piecewise-linear
// ratio around center, then applies a rescaling dead zone.
func NormalizeStick(raw, min, center, max int, deadzone float64) (float64, error) {
	if center <= min || max <= center {
		return 0, fmt.Errorf("%w: stick min=%d center=%d max=%d", ErrDegenerateRange, min, center, max)
	}

	var v float64
	if raw < center {
		v = float64(raw-center) / float64(center-min)
	} else {
		v = float64(raw-center) / float64(max-center)
	}
	v = clamp(v, -1, 1)

	mag := math.Abs(v)
	if mag <= deadzone || mag == 0 {
		return 0, nil
	}
	return math.Copysign((mag-deadzone)/(1-deadzone), v), nil
}

// NormalizeTrigger maps a raw trigger reading to [0, 1] with a rescaling dead zone.
func NormalizeTrigger(raw, min, max int, deadzone float64) (float64, error) {
	if max <= min {
		return 0, fmt.Errorf("%w: trigger min=%d max=%d", ErrDegenerateRange, min, max)
	}

	v := clamp(float64(raw-min)/float64(max-min), 0, 1)
	if v <= deadzone || v == 0 {
		return 0, nil
	}
	return (v - deadzone) / (1 - deadzone), nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
