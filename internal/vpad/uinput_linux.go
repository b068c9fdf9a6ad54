//go:build linux

package vpad

import (
	"fmt"
	"sync"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/soar/nsogc-bridge/internal/gamepad"
	"github.com/soar/nsogc-bridge/internal/log"
)

const uinputPath = "/dev/uinput"

// ioctl request encoding (Linux _IOC macro)
const (
	iocNRShift   = 0
	iocTypeShift = 8
	iocSizeShift = 16
	iocDirShift  = 30

	iocNone  = 0
	iocWrite = 1
)

func ioc(dir, typ, nr, size uint32) uintptr {
	return uintptr(dir<<iocDirShift | typ<<iocTypeShift | nr<<iocNRShift | size<<iocSizeShift)
}

type inputID struct {
	bustype, vendor, product, version uint16
}

type uinputSetup struct {
	id           inputID
	name         [80]byte
	ffEffectsMax uint32
}

type absInfo struct {
	value, min, max, fuzz, flat, resolution int32
}

type uinputAbsSetup struct {
	code uint16
	_    [2]byte
	info absInfo
}

type inputEvent struct {
	time  unix.Timeval
	typ   uint16
	code  uint16
	value int32
}

var (
	uiDevCreate  = ioc(iocNone, 'U', 1, 0)
	uiDevDestroy = ioc(iocNone, 'U', 2, 0)
	uiDevSetup   = ioc(iocWrite, 'U', 3, uint32(unsafe.Sizeof(uinputSetup{})))
	uiAbsSetup   = ioc(iocWrite, 'U', 4, uint32(unsafe.Sizeof(uinputAbsSetup{})))
	uiSetEvBit   = ioc(iocWrite, 'U', 100, uint32(unsafe.Sizeof(int32(0))))
	uiSetKeyBit  = ioc(iocWrite, 'U', 101, uint32(unsafe.Sizeof(int32(0))))
	uiSetAbsBit  = ioc(iocWrite, 'U', 103, uint32(unsafe.Sizeof(int32(0))))
)

func ioctl(fd int, req, arg uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, uintptr(fd), req, arg)
	if errno != 0 {
		return errno
	}
	return nil
}

// Uinput is a virtual Xbox 360 pad created through /dev/uinput.
type Uinput struct {
	mu      sync.Mutex
	fd      int
	pending Frame
	last    Frame
	synced  bool
}

func NewUinput() (*Uinput, error) {
	fd, err := unix.Open(uinputPath, unix.O_WRONLY|unix.O_NONBLOCK|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", uinputPath, err)
	}
	if err := setupDevice(fd); err != nil {
		unix.Close(fd)
		return nil, err
	}
	log.InfoF("Virtual pad created: %s (%04x:%04x)", xboxPadName, xboxVendor, xbox360Pad)
	return &Uinput{fd: fd}, nil
}

func setupDevice(fd int) error {
	for _, ev := range []uintptr{evKey, evAbs, evSyn} {
		if err := ioctl(fd, uiSetEvBit, ev); err != nil {
			return fmt.Errorf("UI_SET_EVBIT %d: %w", ev, err)
		}
	}
	for _, k := range keyCodes {
		if err := ioctl(fd, uiSetKeyBit, uintptr(k.code)); err != nil {
			return fmt.Errorf("UI_SET_KEYBIT 0x%x: %w", k.code, err)
		}
	}
	for _, a := range absRanges {
		if err := ioctl(fd, uiSetAbsBit, uintptr(a.code)); err != nil {
			return fmt.Errorf("UI_SET_ABSBIT 0x%x: %w", a.code, err)
		}
	}

	var setup uinputSetup
	setup.id = inputID{bustype: busUSB, vendor: xboxVendor, product: xbox360Pad, version: 0x0110}
	copy(setup.name[:], xboxPadName)
	if err := ioctl(fd, uiDevSetup, uintptr(unsafe.Pointer(&setup))); err != nil {
		return fmt.Errorf("UI_DEV_SETUP: %w", err)
	}

	for _, a := range absRanges {
		as := uinputAbsSetup{code: a.code, info: absInfo{min: a.min, max: a.max, fuzz: a.fuzz, flat: a.flat}}
		if err := ioctl(fd, uiAbsSetup, uintptr(unsafe.Pointer(&as))); err != nil {
			return fmt.Errorf("UI_ABS_SETUP 0x%x: %w", a.code, err)
		}
	}

	if err := ioctl(fd, uiDevCreate, 0); err != nil {
		return fmt.Errorf("UI_DEV_CREATE: %w", err)
	}
	return nil
}

func (u *Uinput) SetButtons(b gamepad.XboxButtons) {
	u.mu.Lock()
	u.pending.Buttons = b
	u.mu.Unlock()
}

func (u *Uinput) SetAxes(lx, ly, rx, ry float64) {
	u.mu.Lock()
	u.pending.LX, u.pending.LY, u.pending.RX, u.pending.RY = lx, ly, rx, ry
	u.mu.Unlock()
}

func (u *Uinput) SetTriggers(l, r float64) {
	u.mu.Lock()
	u.pending.LT, u.pending.RT = l, r
	u.mu.Unlock()
}

func (u *Uinput) Commit() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fd < 0 {
		return ErrClosed
	}

	evs := frameEvents(u.last, u.pending, !u.synced)
	if len(evs) == 0 {
		return nil
	}
	buf := make([]inputEvent, len(evs))
	for i, e := range evs {
		buf[i] = inputEvent{typ: e.typ, code: e.code, value: e.value}
	}
	size := len(buf) * int(unsafe.Sizeof(buf[0]))
	if _, err := unix.Write(u.fd, unsafe.Slice((*byte)(unsafe.Pointer(&buf[0])), size)); err != nil {
		return fmt.Errorf("write pad frame: %w", err)
	}
	u.last, u.synced = u.pending, true
	return nil
}

func (u *Uinput) Close() error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.fd < 0 {
		return nil
	}
	ioctl(u.fd, uiDevDestroy, 0)
	err := unix.Close(u.fd)
	u.fd = -1
	return err
}
