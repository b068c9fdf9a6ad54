package hub

import (
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/soar/nsogc-bridge/internal/calibration"
	"github.com/soar/nsogc-bridge/internal/gamepad"
	"github.com/soar/nsogc-bridge/internal/session"
	"github.com/soar/nsogc-bridge/internal/settings"
	"github.com/soar/nsogc-bridge/internal/wizard"
)

type fakeController struct {
	mu      sync.Mutex
	calls   []string
	axis    calibration.Axis
	group   calibration.DeadzoneGroup
	value   float64
	emulate bool
	path    string
	fail    error
}

func (f *fakeController) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeController) StartCalibration(a calibration.Axis) (wizard.Step, error) {
	f.record("start")
	f.axis = a
	return wizard.Step{Axis: a}, f.fail
}
func (f *fakeController) AdvanceCalibration() (wizard.Step, error) {
	f.record("advance")
	return wizard.Step{}, f.fail
}
func (f *fakeController) AbortCalibration() { f.record("abort") }
func (f *fakeController) ResetCalibration() { f.record("reset") }
func (f *fakeController) SetDeadzone(g calibration.DeadzoneGroup, v float64) error {
	f.record("deadzone")
	f.group, f.value = g, v
	return f.fail
}
func (f *fakeController) SetEmulation(on bool) error {
	f.record("emulation")
	f.emulate = on
	return f.fail
}
func (f *fakeController) SaveSettings() error { f.record("save"); return f.fail }
func (f *fakeController) LoadSettingsFrom(path string) error {
	f.record("load")
	f.path = path
	return f.fail
}
func (f *fakeController) ResetAll() { f.record("reset_all") }
func (f *fakeController) Status() session.Status {
	return session.Status{Connected: true}
}
func (f *fakeController) State() gamepad.ControllerState {
	return gamepad.ControllerState{Connected: true}
}

func TestDispatch(t *testing.T) {
	f := &fakeController{}
	msgs := []ClientMessage{
		{Type: CmdStartCalibration, Axis: "c_y"},
		{Type: CmdAdvance},
		{Type: CmdAbortCalibration},
		{Type: CmdResetCalibration},
		{Type: CmdSetDeadzone, Group: "trigger", Value: 0.2},
		{Type: CmdSetEmulation, Enabled: true},
		{Type: CmdSaveSettings},
		{Type: CmdLoadSettings, Path: "/tmp/alt.json"},
		{Type: CmdResetAll},
	}
	for _, m := range msgs {
		if err := Dispatch(f, m); err != nil {
			t.Fatalf("%s: %v", m.Type, err)
		}
	}
	want := []string{"start", "advance", "abort", "reset", "deadzone", "emulation", "save", "load", "reset_all"}
	if len(f.calls) != len(want) {
		t.Fatalf("calls %v", f.calls)
	}
	for i := range want {
		if f.calls[i] != want[i] {
			t.Fatalf("calls %v, want %v", f.calls, want)
		}
	}
	if f.axis != calibration.CY || f.group != calibration.TriggerDeadzone || f.value != 0.2 || !f.emulate || f.path != "/tmp/alt.json" {
		t.Fatalf("arguments not passed: %+v", f)
	}
}

func TestDispatchErrors(t *testing.T) {
	f := &fakeController{}
	for _, m := range []ClientMessage{
		{Type: "select_player"},
		{Type: CmdStartCalibration, Axis: "z"},
		{Type: CmdSetDeadzone, Group: "right_stick"},
	} {
		if err := Dispatch(f, m); err == nil {
			t.Errorf("%+v: expected error", m)
		}
	}
	if len(f.calls) != 0 {
		t.Fatalf("controller called: %v", f.calls)
	}

	f.fail = session.ErrNotConnected
	if err := Dispatch(f, ClientMessage{Type: CmdSetEmulation, Enabled: true}); !errors.Is(err, session.ErrNotConnected) {
		t.Fatalf("got %v", err)
	}
}

// fakeConn feeds scripted reads and records writes.
type fakeConn struct {
	reads  chan []byte
	mu     sync.Mutex
	writes [][]byte
	closed bool
}

func newFakeConn() *fakeConn { return &fakeConn{reads: make(chan []byte, 8)} }

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	msg, ok := <-c.reads
	if !ok {
		return 0, nil, io.EOF
	}
	return 1, msg, nil
}

func (c *fakeConn) WriteMessage(_ int, data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

func recv(t *testing.T, c *Client) WSMessage {
	t.Helper()
	select {
	case data, ok := <-c.send:
		if !ok {
			t.Fatal("send channel closed")
		}
		var m WSMessage
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatal(err)
		}
		return m
	case <-time.After(time.Second):
		t.Fatal("no message")
	}
	return WSMessage{}
}

func waitCount(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for h.Count() != n {
		if time.Now().After(deadline) {
			t.Fatalf("client count %d, want %d", h.Count(), n)
		}
		time.Sleep(time.Millisecond)
	}
}

func TestBroadcaster(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Stop()

	events := make(chan session.Event, 4)
	f := &fakeController{}
	b := NewBroadcaster(h, events, f)
	go b.Run()
	defer close(events)

	c := NewClient(h, newFakeConn())
	h.Register(c)
	waitCount(t, h, 1)

	b.SendInitialState(c)
	if m := recv(t, c); m.Type != TypeFull || m.Data == nil || !m.Data.Connected {
		t.Fatalf("initial full %+v", m)
	}
	if m := recv(t, c); m.Type != TypeStatus || m.Status == nil {
		t.Fatalf("initial status %+v", m)
	}

	st := gamepad.ControllerState{Connected: true}
	st.Buttons.A = true
	events <- session.Event{State: st}
	m := recv(t, c)
	if m.Type != TypeDelta || m.Changes == nil || m.Changes.Buttons == nil || !m.Changes.Buttons.A {
		t.Fatalf("delta %+v", m)
	}

	step := wizard.Step{AxisName: "left_x", Phase: wizard.CollectingCenter}
	events <- session.Event{State: st, Status: &session.Status{Connected: true}, Step: &step}
	if m := recv(t, c); m.Type != TypeStatus {
		t.Fatalf("status %+v", m)
	}
	if m := recv(t, c); m.Type != TypeWizard || m.Step == nil || m.Step.AxisName != "left_x" {
		t.Fatalf("wizard %+v", m)
	}
}

func TestReadPumpReplies(t *testing.T) {
	h := NewHub()
	go h.Run()
	defer h.Stop()

	conn := newFakeConn()
	c := NewClient(h, conn)
	h.Register(c)
	waitCount(t, h, 1)

	f := &fakeController{}
	done := make(chan struct{})
	go func() {
		c.ReadPumpWithHandler(f)
		close(done)
	}()

	conn.reads <- []byte(`{"type":"advance"}`)
	if m := recv(t, c); m.Type != TypeAck || m.Command != CmdAdvance {
		t.Fatalf("reply %+v", m)
	}
	conn.reads <- []byte(`{"type":"start_calibration","axis":"nope"}`)
	if m := recv(t, c); m.Type != TypeError || m.Error == "" {
		t.Fatalf("reply %+v", m)
	}
	conn.reads <- []byte(`not json`)
	conn.reads <- []byte(`{"type":"save_settings"}`)
	if m := recv(t, c); m.Type != TypeAck || m.Command != CmdSaveSettings {
		t.Fatalf("reply %+v", m)
	}

	close(conn.reads)
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("read pump did not exit")
	}
	waitCount(t, h, 0)
	if c.Send([]byte("x")) {
		t.Fatal("send succeeded on a closed client")
	}
}

func TestDispatchSettingsCommands(t *testing.T) {
	fs := afero.NewMemMapFs()
	s := session.New(session.Config{Store: settings.NewStore(fs, "")})
	afero.WriteFile(fs, "/alt.json", []byte(`{"controller_address":"11:22:33:44:55:66"}`), 0o644)
	afero.WriteFile(fs, "/bad.json", []byte(`{"calibration":{"l_trigger_min":"low"}}`), 0o644)

	if err := Dispatch(s, ClientMessage{Type: CmdLoadSettings, Path: "/alt.json"}); err != nil {
		t.Fatal(err)
	}
	if s.Address() != "11:22:33:44:55:66" {
		t.Fatalf("address %q", s.Address())
	}
	if err := Dispatch(s, ClientMessage{Type: CmdLoadSettings, Path: "/bad.json"}); !errors.Is(err, settings.ErrMalformed) {
		t.Fatalf("expected ErrMalformed, got %v", err)
	}
	if s.Address() != "11:22:33:44:55:66" || s.Calibration() != calibration.Default() {
		t.Fatal("bad record changed the session")
	}

	if err := Dispatch(s, ClientMessage{Type: CmdSetDeadzone, Group: "left_stick", Value: 0.4}); err != nil {
		t.Fatal(err)
	}
	if err := Dispatch(s, ClientMessage{Type: CmdResetAll}); err != nil {
		t.Fatal(err)
	}
	if s.Address() != settings.DefaultAddress || s.Calibration() != calibration.Default() {
		t.Fatalf("reset_all left %s %+v", s.Address(), s.Calibration())
	}
	rec, err := settings.NewStore(fs, "").Load(settings.Record{})
	if err != nil {
		t.Fatal(err)
	}
	if rec.ControllerAddress != settings.DefaultAddress {
		t.Fatalf("saved address %q", rec.ControllerAddress)
	}
}
