package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soar/nsogc-bridge/internal/calibration"
	"github.com/soar/nsogc-bridge/internal/gamepad"
	"github.com/soar/nsogc-bridge/internal/hub"
	"github.com/soar/nsogc-bridge/internal/session"
	"github.com/soar/nsogc-bridge/internal/wizard"
)

type fakeSession struct {
	saved chan struct{}
}

func (f *fakeSession) StartCalibration(calibration.Axis) (wizard.Step, error) {
	return wizard.Step{}, nil
}
func (f *fakeSession) AdvanceCalibration() (wizard.Step, error) { return wizard.Step{}, nil }
func (f *fakeSession) AbortCalibration()                         {}
func (f *fakeSession) ResetCalibration()                         {}
func (f *fakeSession) SetDeadzone(calibration.DeadzoneGroup, float64) error {
	return nil
}
func (f *fakeSession) SetEmulation(bool) error { return nil }
func (f *fakeSession) SaveSettings() error {
	f.saved <- struct{}{}
	return nil
}
func (f *fakeSession) LoadSettingsFrom(string) error { return nil }
func (f *fakeSession) ResetAll()                     {}
func (f *fakeSession) Status() session.Status {
	return session.Status{Connected: true, Address: "AA:BB", Packets: 7}
}
func (f *fakeSession) State() gamepad.ControllerState {
	st := gamepad.ControllerState{Connected: true, Address: "AA:BB"}
	st.Buttons.Home = true
	return st
}

var testFS = fstest.MapFS{
	"index.html": {Data: []byte("<!DOCTYPE html>\n<html>\n  <body>\n    <p>  hello  </p>\n  </body>\n</html>\n")},
	"app.js":     {Data: []byte("function add ( a , b ) {\n  return a + b ;\n}\n")},
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeSession) {
	t.Helper()
	h := hub.NewHub()
	go h.Run()
	t.Cleanup(h.Stop)

	f := &fakeSession{saved: make(chan struct{}, 1)}
	events := make(chan session.Event)
	b := hub.NewBroadcaster(h, events, f)
	go b.Run()
	t.Cleanup(func() { close(events) })

	handler, err := New(h, b, f, testFS, "").Handler()
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts, f
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

func TestStatic(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := get(t, ts.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET / = %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html") {
		t.Errorf("content type %q", resp.Header.Get("Content-Type"))
	}
	if !strings.Contains(body, "hello") || strings.Contains(body, "\n  ") {
		t.Errorf("index not minified: %q", body)
	}

	resp, body = get(t, ts.URL+"/app.js")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /app.js = %d", resp.StatusCode)
	}
	if len(body) >= len(testFS["app.js"].Data) {
		t.Errorf("script not minified: %q", body)
	}

	if resp, _ := get(t, ts.URL+"/missing.css"); resp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /missing.css = %d", resp.StatusCode)
	}
}

func TestStatusEndpoint(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, body := get(t, ts.URL+"/api/status")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("GET /api/status = %d", resp.StatusCode)
	}
	var got struct {
		Status session.Status           `json:"status"`
		State  gamepad.ControllerState `json:"state"`
	}
	if err := json.Unmarshal([]byte(body), &got); err != nil {
		t.Fatalf("%v: %s", err, body)
	}
	if !got.Status.Connected || got.Status.Packets != 7 || !got.State.Buttons.Home {
		t.Fatalf("unexpected body %s", body)
	}

	resp, err := http.Post(ts.URL+"/api/status", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("POST /api/status = %d", resp.StatusCode)
	}
}

func TestWebSocket(t *testing.T) {
	ts, f := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	read := func() hub.WSMessage {
		t.Helper()
		var m hub.WSMessage
		if err := conn.ReadJSON(&m); err != nil {
			t.Fatal(err)
		}
		return m
	}
	if m := read(); m.Type != hub.TypeFull || m.Data == nil || !m.Data.Buttons.Home {
		t.Fatalf("first message %+v", m)
	}
	if m := read(); m.Type != hub.TypeStatus || m.Status == nil || m.Status.Address != "AA:BB" {
		t.Fatalf("second message %+v", m)
	}

	if err := conn.WriteJSON(hub.ClientMessage{Type: hub.CmdSaveSettings}); err != nil {
		t.Fatal(err)
	}
	select {
	case <-f.saved:
	case <-time.After(2 * time.Second):
		t.Fatal("save command not dispatched")
	}
	if m := read(); m.Type != hub.TypeAck || m.Command != hub.CmdSaveSettings {
		t.Fatalf("reply %+v", m)
	}
}
