package transport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/soar/nsogc-bridge/internal/packet"
)

type recorder struct {
	mu           sync.Mutex
	addr         string
	packets      [][]byte
	disconnected bool
}

func (r *recorder) Connected(addr string) {
	r.mu.Lock()
	r.addr = addr
	r.mu.Unlock()
}

func (r *recorder) Packet(data []byte) {
	r.mu.Lock()
	r.packets = append(r.packets, data)
	r.mu.Unlock()
}

func (r *recorder) Disconnected(error) {
	r.mu.Lock()
	r.disconnected = true
	r.mu.Unlock()
}

func TestSimRunFrames(t *testing.T) {
	sim := NewSim(500)
	sim.Frames = 10
	rec := &recorder{}
	if err := sim.Run(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
	if rec.addr != SimAddress || !rec.disconnected || len(rec.packets) != 10 {
		t.Fatalf("addr=%q disconnected=%v packets=%d", rec.addr, rec.disconnected, len(rec.packets))
	}
	for _, p := range rec.packets {
		if _, err := packet.Decode(p); err != nil {
			t.Fatal(err)
		}
	}
}

func TestSimStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rec := &recorder{}
	done := make(chan error, 1)
	go func() { done <- NewSim(100).Run(ctx, rec) }()
	time.Sleep(30 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("sim did not stop")
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if !rec.disconnected {
		t.Fatal("no disconnect reported")
	}
}

func TestSimSampleInRange(t *testing.T) {
	for i := 0; i < 400; i++ {
		s := SimSample(float64(i) / 100)
		if s.LeftX < 248 || s.LeftX > 3848 || s.LeftY < 55 || s.LeftY > 207 {
			t.Fatalf("t=%v: stick out of range %+v", float64(i)/100, s)
		}
		if s.LTrigger < 30 || s.LTrigger > 230 {
			t.Fatalf("t=%v: trigger out of range %+v", float64(i)/100, s)
		}
	}
}

func TestNewUnknown(t *testing.T) {
	if _, err := New(Options{Kind: "usb"}); err == nil {
		t.Fatal("expected error")
	}
	src, err := New(Options{Kind: KindSim})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := src.(*Sim); !ok {
		t.Fatalf("got %T", src)
	}
}
