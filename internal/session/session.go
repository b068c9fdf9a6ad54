// Package session owns the live state of the one connected controller:
// calibration, wizard, the current normalized state and the virtual pad.
package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/soar/nsogc-bridge/internal/calibration"
	"github.com/soar/nsogc-bridge/internal/gamepad"
	"github.com/soar/nsogc-bridge/internal/log"
	"github.com/soar/nsogc-bridge/internal/packet"
	"github.com/soar/nsogc-bridge/internal/settings"
	"github.com/soar/nsogc-bridge/internal/vpad"
	"github.com/soar/nsogc-bridge/internal/wizard"
)

var ErrNotConnected = errors.New("controller not connected")

const subscriberBuffer = 64

// Event is delivered to subscribers. State is always set; Status and Step
// are set when the event was caused by a control change or a wizard step.
type Event struct {
	State  gamepad.ControllerState
	Status *Status
	Step   *wizard.Step
}

type Status struct {
	Connected   bool                    `json:"connected"`
	Address     string                  `json:"address"`
	Packets     uint64                  `json:"packets"`
	Dropped     uint64                  `json:"dropped"`
	Emulating   bool                    `json:"emulating"`
	Calibration calibration.Calibration `json:"calibration"`
	Wizard      wizard.Status           `json:"wizard"`
}

type Config struct {
	// Store persists the settings record. Nil disables persistence.
	Store *settings.Store
	// OpenPad creates the virtual pad when emulation is switched on.
	OpenPad func() (vpad.Driver, error)
}

type Session struct {
	mu        sync.RWMutex
	cal       calibration.Calibration
	address   string
	wiz       *wizard.Wizard
	state     gamepad.ControllerState
	prevState gamepad.ControllerState
	connected bool
	packets   uint64
	dropped   uint64
	pad       vpad.Driver
	emulating bool

	store   *settings.Store
	openPad func() (vpad.Driver, error)

	subMu  sync.Mutex
	subs   map[int]chan Event
	nextID int
}

func New(cfg Config) *Session {
	s := &Session{
		cal:     calibration.Default(),
		address: settings.DefaultAddress,
		store:   cfg.Store,
		openPad: cfg.OpenPad,
		subs:    make(map[int]chan Event),
	}
	s.wiz = wizard.New(committer{s})
	return s
}

// committer writes wizard results straight into the session calibration.
// The wizard only runs with s.mu held.
type committer struct{ s *Session }

func (c committer) CommitLimit(a calibration.Axis, l calibration.Limit, v int) error {
	next, err := c.s.cal.WithLimit(a, l, v)
	if err != nil {
		return err
	}
	c.s.cal = next
	return nil
}

func (c committer) ResetDefaults() {
	c.s.cal = calibration.Default()
}

// Subscribe returns a channel of events and a function that ends the
// subscription. Slow subscribers miss events rather than block packets.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = ch
	s.subMu.Unlock()

	return ch, func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if _, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(ch)
		}
	}
}

func (s *Session) emit(ev Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			// Drop if channel is full to avoid blocking the packet path
		}
	}
}

// emitStatus publishes a status and state taken under one read lock.
func (s *Session) emitStatus(step *wizard.Step) {
	s.mu.RLock()
	st, state := s.statusLocked(), s.state
	s.mu.RUnlock()
	s.emit(Event{State: state, Status: &st, Step: step})
}

// LoadSettings applies the record at the configured path.
func (s *Session) LoadSettings() error {
	return s.LoadSettingsFrom("")
}

// LoadSettingsFrom applies the record at path, or at the configured path
// when path is empty. The file is read without holding the session lock. On
// any error the current values are kept and the error is returned.
func (s *Session) LoadSettingsFrom(path string) error {
	if s.store == nil {
		return nil
	}
	store := s.store
	if path != "" {
		store = store.WithPath(path)
	}

	s.mu.RLock()
	base := settings.Record{ControllerAddress: s.address, Calibration: s.cal}
	s.mu.RUnlock()

	rec, err := store.Load(base)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.address, s.cal = rec.ControllerAddress, rec.Calibration
	s.mu.Unlock()
	log.InfoF("Settings loaded from %s", store.Path())
	s.emitStatus(nil)
	return nil
}

func (s *Session) SaveSettings() error {
	if s.store == nil {
		return nil
	}
	s.mu.RLock()
	rec := settings.Record{ControllerAddress: s.address, Calibration: s.cal}
	s.mu.RUnlock()
	if err := s.store.Save(rec); err != nil {
		return err
	}
	log.InfoF("Settings saved to %s", s.store.Path())
	return nil
}

func (s *Session) autosave() {
	if err := s.SaveSettings(); err != nil {
		log.ErrorF("Failed to save settings: %v", err)
	}
}

// Connected marks the controller as live.
func (s *Session) Connected(addr string) {
	s.mu.Lock()
	s.connected = true
	if addr != "" {
		s.address = addr
	}
	s.state.Connected = true
	s.state.Address = s.address
	s.mu.Unlock()
	log.InfoF("Controller connected: %s", addr)
	s.emitStatus(nil)
}

// Disconnected stops the current run and releases the virtual pad's inputs.
// Emulation stays enabled and resumes with the next connection.
func (s *Session) Disconnected(err error) {
	s.mu.Lock()
	s.connected = false
	s.wiz.Abort()
	s.state = gamepad.ControllerState{Address: s.address}
	s.prevState = s.state
	if s.pad != nil {
		if perr := vpad.Neutral(s.pad); perr != nil {
			log.WarnF("Failed to release virtual pad: %v", perr)
		}
	}
	s.mu.Unlock()
	if err != nil {
		log.WarnF("Controller disconnected: %v", err)
	} else {
		log.Info("Controller disconnected")
	}
	s.emitStatus(nil)
}

// Packet is the transport callback for one notification payload.
func (s *Session) Packet(data []byte) {
	if err := s.HandlePacket(data); err != nil {
		log.DebugF("Dropped packet: %v", err)
	}
}

// HandlePacket decodes, reduces and publishes one packet as a single unit.
// A short packet is dropped without touching any state.
func (s *Session) HandlePacket(data []byte) error {
	sample, err := packet.Decode(data)
	if err != nil {
		s.mu.Lock()
		s.dropped++
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.packets++
	st := gamepad.Reduce(sample, s.cal)
	st.Connected = s.connected
	st.Address = s.address
	s.wiz.Observe(sample)
	s.state = st
	var padErr error
	if s.emulating && s.pad != nil {
		padErr = vpad.Apply(s.pad, st)
	}
	delta := gamepad.ComputeDelta(s.prevState, st)
	changed := !delta.IsEmpty()
	if changed {
		s.prevState = st
	}
	s.mu.Unlock()

	if changed {
		s.emit(Event{State: st})
	}
	if padErr != nil {
		return fmt.Errorf("virtual pad: %w", padErr)
	}
	return nil
}

func (s *Session) State() gamepad.ControllerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Session) Calibration() calibration.Calibration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cal
}

func (s *Session) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.address
}

func (s *Session) SetAddress(addr string) {
	s.mu.Lock()
	s.address = addr
	s.mu.Unlock()
}

func (s *Session) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.statusLocked()
}

// statusLocked must be called with s.mu held.
func (s *Session) statusLocked() Status {
	return Status{
		Connected:   s.connected,
		Address:     s.address,
		Packets:     s.packets,
		Dropped:     s.dropped,
		Emulating:   s.emulating,
		Calibration: s.cal,
		Wizard:      s.wiz.Status(),
	}
}

func (s *Session) StartCalibration(axis calibration.Axis) (wizard.Step, error) {
	s.mu.Lock()
	if !s.connected {
		s.mu.Unlock()
		return wizard.Step{}, ErrNotConnected
	}
	step, err := s.wiz.Start(axis)
	s.mu.Unlock()
	if err != nil {
		return step, err
	}
	log.InfoF("Calibrating %s: %s", axis, step.Phase)
	s.emitStatus(&step)
	return step, nil
}

// AdvanceCalibration commits the current phase. Finishing a run saves the
// settings record.
func (s *Session) AdvanceCalibration() (wizard.Step, error) {
	s.mu.Lock()
	step, err := s.wiz.Advance()
	s.mu.Unlock()
	if errors.Is(err, calibration.ErrDegenerateRange) {
		// Stored limits from an earlier run can conflict with this device.
		return step, fmt.Errorf("%w; reset the calibration to clear the stored limits", err)
	}
	if err != nil {
		return step, err
	}
	if step.Done {
		log.InfoF("Calibration of %s complete", step.AxisName)
		s.autosave()
	} else {
		log.InfoF("Calibrating %s: %s", step.AxisName, step.Phase)
	}
	s.emitStatus(&step)
	return step, nil
}

func (s *Session) AbortCalibration() {
	s.mu.Lock()
	s.wiz.Abort()
	s.mu.Unlock()
	s.emitStatus(nil)
}

// ResetCalibration restores the default calibration.
func (s *Session) ResetCalibration() {
	s.mu.Lock()
	s.wiz.Reset()
	s.mu.Unlock()
	log.Info("Calibration reset to defaults")
	s.emitStatus(nil)
}

// ResetAll restores the default calibration and controller address and
// saves the record.
func (s *Session) ResetAll() {
	s.mu.Lock()
	s.wiz.Reset()
	s.address = settings.DefaultAddress
	if !s.connected {
		s.state.Address = s.address
	}
	s.mu.Unlock()
	log.Info("All settings reset to defaults")
	s.autosave()
	s.emitStatus(nil)
}

func (s *Session) SetDeadzone(g calibration.DeadzoneGroup, v float64) error {
	s.mu.Lock()
	next, err := s.cal.WithDeadzone(g, v)
	if err == nil {
		s.cal = next
	}
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.emitStatus(nil)
	return nil
}

// SetEmulation creates or destroys the virtual pad. Switching on requires a
// live connection.
func (s *Session) SetEmulation(on bool) error {
	s.mu.Lock()
	defer func() {
		s.mu.Unlock()
		s.emitStatus(nil)
	}()

	if on == s.emulating {
		return nil
	}
	if !on {
		s.emulating = false
		return s.closePad()
	}
	if !s.connected {
		return ErrNotConnected
	}
	if s.openPad == nil {
		return errors.New("no virtual pad driver configured")
	}
	pad, err := s.openPad()
	if err != nil {
		return fmt.Errorf("create virtual pad: %w", err)
	}
	s.pad, s.emulating = pad, true
	log.Info("Emulation started")
	return nil
}

func (s *Session) Emulating() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.emulating
}

// closePad must be called with s.mu held.
func (s *Session) closePad() error {
	if s.pad == nil {
		return nil
	}
	pad := s.pad
	s.pad = nil
	err := vpad.Neutral(pad)
	if cerr := pad.Close(); err == nil {
		err = cerr
	}
	log.Info("Emulation stopped")
	return err
}

// Close saves the settings record and releases the virtual pad.
func (s *Session) Close() error {
	s.autosave()
	s.mu.Lock()
	s.emulating = false
	err := s.closePad()
	s.mu.Unlock()

	s.subMu.Lock()
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.subMu.Unlock()
	return err
}
