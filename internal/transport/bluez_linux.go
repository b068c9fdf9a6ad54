//go:build linux

package transport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/muka/go-bluetooth/bluez"
	"github.com/muka/go-bluetooth/bluez/profile/adapter"
	"github.com/muka/go-bluetooth/bluez/profile/device"

	"github.com/soar/nsogc-bridge/internal/log"
)

const (
	// InputCharUUID carries the input report notifications.
	InputCharUUID = "ab7de9be-89fe-49ad-828f-118f09df7fd2"

	findTimeout     = 10 * time.Second
	resolveTimeout  = 10 * time.Second
	resolveInterval = 200 * time.Millisecond
)

var ErrDeviceNotFound = errors.New("controller not found")

// BlueZ streams input notifications from a controller through the BlueZ
// D-Bus API.
type BlueZ struct {
	adapterID string
	address   string
}

func NewBlueZ(adapterID, address string) *BlueZ {
	if adapterID == "" {
		adapterID = adapter.GetDefaultAdapterID()
	}
	return &BlueZ{adapterID: adapterID, address: strings.ToUpper(address)}
}

func (b *BlueZ) Run(ctx context.Context, h Handler) error {
	a, err := adapter.GetAdapter(b.adapterID)
	if err != nil {
		return fmt.Errorf("adapter %s: %w", b.adapterID, err)
	}

	dev, err := b.findDevice(ctx, a)
	if err != nil {
		return err
	}
	defer dev.Close()

	log.InfoF("Connecting to %s", b.address)
	if err := dev.Connect(); err != nil {
		return fmt.Errorf("connect %s: %w", b.address, err)
	}
	defer dev.Disconnect()

	if err := waitResolved(ctx, dev); err != nil {
		return err
	}

	char, err := dev.GetCharByUUID(InputCharUUID)
	if err != nil {
		return fmt.Errorf("input characteristic: %w", err)
	}
	notes, err := char.WatchProperties()
	if err != nil {
		return fmt.Errorf("watch input characteristic: %w", err)
	}
	defer char.UnwatchProperties(notes)

	if err := char.StartNotify(); err != nil {
		return fmt.Errorf("start notify: %w", err)
	}
	defer char.StopNotify()

	links, err := dev.WatchProperties()
	if err != nil {
		return fmt.Errorf("watch device: %w", err)
	}
	defer dev.UnwatchProperties(links)

	h.Connected(b.address)
	for {
		select {
		case <-ctx.Done():
			h.Disconnected(nil)
			return nil
		case ev, ok := <-notes:
			if !ok {
				err := errors.New("notification stream closed")
				h.Disconnected(err)
				return err
			}
			v, _ := changed(ev, "Value")
			if data, ok := v.([]byte); ok {
				h.Packet(data)
			}
		case ev, ok := <-links:
			if !ok {
				links = nil
				continue
			}
			if v, ok := changed(ev, "Connected"); ok {
				if up, _ := v.(bool); !up {
					err := errors.New("link lost")
					h.Disconnected(err)
					return err
				}
			}
		}
	}
}

// findDevice looks the controller up among known devices, falling back to a
// bounded discovery.
func (b *BlueZ) findDevice(ctx context.Context, a *adapter.Adapter1) (*device.Device1, error) {
	dev, err := a.GetDeviceByAddress(b.address)
	if err == nil && dev != nil {
		return dev, nil
	}

	log.InfoF("Searching for %s", b.address)
	var found *device.Device1
	err = discover(ctx, a, findTimeout, func(d *device.Device1) bool {
		if strings.EqualFold(d.Properties.Address, b.address) {
			found = d
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, b.address)
	}
	return found, nil
}

// discover runs adapter discovery until timeout, ctx or fn returning false.
func discover(ctx context.Context, a *adapter.Adapter1, timeout time.Duration, fn func(*device.Device1) bool) error {
	if err := a.StartDiscovery(); err != nil {
		return fmt.Errorf("start discovery: %w", err)
	}
	defer a.StopDiscovery()

	events, cancel, err := a.OnDeviceDiscovered()
	if err != nil {
		return fmt.Errorf("watch discovery: %w", err)
	}
	defer cancel()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if ev.Type == adapter.DeviceRemoved {
				continue
			}
			d, err := device.NewDevice1(dbus.ObjectPath(ev.Path))
			if err != nil || d == nil || d.Properties == nil {
				continue
			}
			if !fn(d) {
				return nil
			}
		}
	}
}

func waitResolved(ctx context.Context, dev *device.Device1) error {
	deadline := time.Now().Add(resolveTimeout)
	for {
		ok, err := dev.GetServicesResolved()
		if err == nil && ok {
			return nil
		}
		if time.Now().After(deadline) {
			return errors.New("timed out resolving GATT services")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(resolveInterval):
		}
	}
}

// Scan lists nearby devices whose name contains "Nintendo".
func Scan(ctx context.Context, adapterID string, timeout time.Duration) ([]Device, error) {
	if adapterID == "" {
		adapterID = adapter.GetDefaultAdapterID()
	}
	a, err := adapter.GetAdapter(adapterID)
	if err != nil {
		return nil, fmt.Errorf("adapter %s: %w", adapterID, err)
	}

	seen := map[string]Device{}
	add := func(p *device.Device1Properties) {
		if p == nil || !strings.Contains(p.Name, "Nintendo") {
			return
		}
		seen[p.Address] = Device{Name: p.Name, Address: p.Address, RSSI: p.RSSI}
	}

	known, err := a.GetDevices()
	if err == nil {
		for _, d := range known {
			add(d.Properties)
		}
	}
	err = discover(ctx, a, timeout, func(d *device.Device1) bool {
		add(d.Properties)
		return true
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return nil, err
	}

	out := make([]Device, 0, len(seen))
	for _, d := range seen {
		out = append(out, d)
	}
	return out, nil
}

// changed returns the new value of property name carried by ev.
func changed(ev *bluez.PropertyChanged, name string) (any, bool) {
	if ev == nil || ev.Name != name {
		return nil, false
	}
	return ev.Value, true
}
