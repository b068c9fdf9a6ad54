package transport

import (
	"context"
	"math"
	"time"

	"github.com/soar/nsogc-bridge/internal/packet"
)

const SimAddress = "00:00:00:00:00:00"

// Sim is a synthetic controller that sweeps every axis with a slow sine
// and cycles a few buttons, for use without hardware.
type Sim struct {
	hz    float64
	start time.Time
	// Frames bounds the run when positive.
	Frames int
}

func NewSim(hz float64) *Sim {
	if hz <= 0 {
		hz = 60
	}
	return &Sim{hz: hz}
}

// wave returns center + amp*sin over a two second period.
func wave(t, phase float64, center, amp float64) uint16 {
	return uint16(math.Round(center + amp*math.Sin(2*math.Pi*(t/2+phase))))
}

// SimSample returns the synthetic sample at t seconds.
func SimSample(t float64) packet.Sample {
	var b packet.ButtonSet
	sec := int(t)
	if sec/2%2 == 1 {
		b = b.With(packet.ButtonA)
	}
	if sec/3%2 == 1 {
		b = b.With(packet.ButtonB)
	}
	if sec/5%2 == 1 {
		b = b.With(packet.ButtonZ)
	}
	if sec/7%2 == 1 {
		b = b.With(packet.ButtonDpadUp)
	}
	return packet.Sample{
		Buttons:  b,
		LeftX:    wave(t, 0, 2048, 1800),
		LeftY:    wave(t, 0.25, 131, 76),
		CX:       wave(t, 0.5, 2048, 1800),
		CY:       wave(t, 0.75, 131, 76),
		LTrigger: wave(t, 0.125, 130, 100),
		RTrigger: wave(t, 0.625, 130, 100),
	}
}

func (s *Sim) Run(ctx context.Context, h Handler) error {
	ticker := time.NewTicker(time.Duration(float64(time.Second) / s.hz))
	defer ticker.Stop()

	s.start = time.Now()
	h.Connected(SimAddress)
	for n := 0; s.Frames <= 0 || n < s.Frames; n++ {
		select {
		case <-ctx.Done():
			h.Disconnected(nil)
			return nil
		case now := <-ticker.C:
			h.Packet(packet.Encode(SimSample(now.Sub(s.start).Seconds())))
		}
	}
	h.Disconnected(nil)
	return nil
}
