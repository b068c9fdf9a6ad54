package tray

import (
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"

	"fyne.io/systray"

	"github.com/soar/nsogc-bridge/internal/log"
)

// ShutdownFunc is called when "Exit" is clicked
type ShutdownFunc func()

// Emulation is the session control behind the "Xbox Emulation" entry.
type Emulation interface {
	Emulating() bool
	SetEmulation(bool) error
}

// Tray manages the system tray icon and menu
type Tray struct {
	url          string
	emu          Emulation
	shutdownFunc ShutdownFunc
	once         sync.Once
	shuttingDown atomic.Bool
	menuOpen     *systray.MenuItem
	menuEmulate  *systray.MenuItem
	menuExit     *systray.MenuItem
}

// New creates a new Tray instance
func New(url string, emu Emulation, shutdownFn ShutdownFunc) *Tray {
	return &Tray{
		url:          url,
		emu:          emu,
		shutdownFunc: shutdownFn,
	}
}

// Run initializes and runs the system tray (blocks until Quit())
func (t *Tray) Run(iconData []byte) {
	systray.Run(func() {
		t.onReady(iconData)
	}, func() {
		t.onExit()
	})
}

// Quit removes the tray icon; Run returns afterwards.
func (t *Tray) Quit() {
	if t.shuttingDown.CompareAndSwap(false, true) {
		systray.Quit()
	}
}

// onReady is called when the tray is ready
func (t *Tray) onReady(iconData []byte) {
	if iconData != nil {
		systray.SetIcon(iconData)
	}
	systray.SetTitle("NSO GC Bridge")
	systray.SetTooltip("NSO GC Bridge - " + t.url)

	t.menuOpen = systray.AddMenuItem("Open Browser", "Open web interface")
	t.menuEmulate = systray.AddMenuItemCheckbox("Xbox Emulation", "Toggle the virtual Xbox 360 pad", t.emu.Emulating())
	systray.AddSeparator()
	t.menuExit = systray.AddMenuItem("Exit", "Quit application")

	// Handle menu clicks in separate goroutines to prevent blocking
	go t.handleMenuClicks()

	log.Info("System tray initialized")
}

// handleMenuClicks processes menu item clicks without blocking
func (t *Tray) handleMenuClicks() {
	for {
		select {
		case <-t.menuOpen.ClickedCh:
			if !t.shuttingDown.Load() {
				OpenBrowser(t.url)
			}
		case <-t.menuEmulate.ClickedCh:
			t.toggleEmulation()
		case <-t.menuExit.ClickedCh:
			if t.shuttingDown.CompareAndSwap(false, true) {
				t.once.Do(t.shutdownFunc)
				systray.Quit()
				return
			}
		}
	}
}

func (t *Tray) toggleEmulation() {
	want := !t.emu.Emulating()
	if err := t.emu.SetEmulation(want); err != nil {
		log.WarnF("Emulation toggle failed: %v", err)
	}
	if t.emu.Emulating() {
		t.menuEmulate.Check()
	} else {
		t.menuEmulate.Uncheck()
	}
}

// onExit is called when the tray is exiting
func (t *Tray) onExit() {
	t.shuttingDown.Store(true)
	log.Info("System tray exiting")
}

// OpenBrowser opens url in the default web browser
func OpenBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	if err := cmd.Start(); err != nil {
		log.WarnF("Failed to open browser: %v", err)
	}
}
