package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/soar/nsogc-bridge/internal/config"
	"github.com/soar/nsogc-bridge/internal/hub"
	"github.com/soar/nsogc-bridge/internal/log"
	"github.com/soar/nsogc-bridge/internal/publish"
	"github.com/soar/nsogc-bridge/internal/server"
	"github.com/soar/nsogc-bridge/internal/session"
	"github.com/soar/nsogc-bridge/internal/settings"
	"github.com/soar/nsogc-bridge/internal/transport"
	"github.com/soar/nsogc-bridge/internal/tray"
	"github.com/soar/nsogc-bridge/internal/tui"
	"github.com/soar/nsogc-bridge/internal/vpad"
)

// On Windows os.Interrupt is sent for Ctrl+C; on Unix it is SIGINT.
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

const (
	scanTimeout    = 5 * time.Second
	retryMin       = time.Second
	retryMax       = 30 * time.Second
	stableDuration = 30 * time.Second
	tuiLogFile     = "nsogc-bridge.log"
)

func main() {
	fsys := afero.NewOsFs()
	cfg, err := config.Load(os.Args[0], os.Args[1:], fsys)
	if errors.Is(err, pflag.ErrHelp) {
		return
	}
	if err != nil {
		log.FatalF("Configuration error: %v", err)
	}
	if err := log.SetLevel(cfg.LogLevel); err != nil {
		log.FatalF("Configuration error: %v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), shutdownSignals...)
	defer cancel()

	if cfg.Scan {
		if err := scan(ctx, cfg.Adapter); err != nil {
			log.FatalF("Scan failed: %v", err)
		}
		return
	}

	sess := session.New(session.Config{
		Store:   settings.NewStore(fsys, cfg.Settings),
		OpenPad: func() (vpad.Driver, error) { return vpad.Open(cfg.Pad) },
	})
	if err := sess.LoadSettings(); err != nil && !errors.Is(err, settings.ErrNotFound) {
		log.WarnF("Using default settings: %v", err)
	}
	if cfg.Address != "" {
		sess.SetAddress(cfg.Address)
	}

	// Create and start hub
	h := hub.NewHub()
	go h.Run()
	defer h.Stop()

	events, unsubscribe := sess.Subscribe()
	broadcaster := hub.NewBroadcaster(h, events, sess)
	go broadcaster.Run()
	defer unsubscribe()

	srv := server.New(h, broadcaster, sess, getFrontendFS(), cfg.Listen)
	serverErrCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrCh <- err
		}
	}()
	url := "http://localhost" + listenPort(cfg.Listen)
	log.InfoF("NSO GC Bridge started: %s", url)

	if cfg.MQTTBroker != "" {
		pub, err := publish.Dial(cfg.MQTTBroker, cfg.MQTTTopic)
		if err != nil {
			log.WarnF("MQTT disabled: %v", err)
		} else {
			pubEvents, pubUnsubscribe := sess.Subscribe()
			defer pubUnsubscribe()
			go pub.Run(pubEvents)
		}
	}

	src, err := transport.New(transport.Options{
		Kind:    cfg.Source,
		Adapter: cfg.Adapter,
		Address: sess.Address(),
		SimHz:   cfg.SimHz,
	})
	if err != nil {
		log.FatalF("Input source: %v", err)
	}
	sourceDone := make(chan struct{})
	go func() {
		runSource(ctx, src, connectHook{Session: sess, emulate: cfg.Emulate})
		close(sourceDone)
	}()

	// Channel for UI-triggered shutdown
	shutdownRequested := make(chan struct{})
	requestShutdown := func() {
		select {
		case <-shutdownRequested:
		default:
			close(shutdownRequested)
		}
	}

	var t *tray.Tray
	if cfg.Tray {
		t = tray.New(url, sess, requestShutdown)
		go t.Run(tray.GetIcon())
	}

	if cfg.TUI {
		go func() {
			runTUI(sess)
			requestShutdown()
		}()
	} else {
		log.Info("Press Ctrl+C to exit")
	}

	// Wait for shutdown signal, UI request, or server error
	select {
	case <-ctx.Done():
		log.Info("Shutting down...")
	case <-shutdownRequested:
		log.Info("Shutdown requested")
	case err := <-serverErrCh:
		log.ErrorF("HTTP server error: %v", err)
	}
	cancel()
	<-sourceDone

	if t != nil {
		t.Quit()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.WarnF("HTTP server shutdown error: %v", err)
	}
	if err := sess.Close(); err != nil {
		log.WarnF("Releasing virtual pad: %v", err)
	}

	log.Info("NSO GC Bridge stopped")
}

// connectHook switches emulation on as soon as the controller connects.
type connectHook struct {
	*session.Session
	emulate bool
}

func (c connectHook) Connected(addr string) {
	c.Session.Connected(addr)
	if c.emulate {
		if err := c.SetEmulation(true); err != nil {
			log.WarnF("Emulation not started: %v", err)
		}
	}
}

// runSource keeps the source running until ctx ends, retrying failed links
// with exponential backoff.
func runSource(ctx context.Context, src transport.Source, h transport.Handler) {
	delay := retryMin
	for {
		started := time.Now()
		err := src.Run(ctx, h)
		if ctx.Err() != nil {
			return
		}
		if time.Since(started) > stableDuration {
			delay = retryMin
		}
		if err != nil {
			log.WarnF("Input source stopped: %v (retrying in %s)", err, delay)
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay = min(delay*2, retryMax)
	}
}

func runTUI(sess *session.Session) {
	f, err := os.OpenFile(tuiLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.WarnF("Cannot open %s, logging disabled while the terminal UI runs: %v", tuiLogFile, err)
		log.SetOutput(io.Discard)
	} else {
		defer f.Close()
		log.SetOutput(f)
	}
	defer log.SetOutput(os.Stdout)

	if err := tui.Run(sess); err != nil {
		log.ErrorF("Terminal UI: %v", err)
	}
}

func scan(ctx context.Context, adapterID string) error {
	devices, err := transport.Scan(ctx, adapterID, scanTimeout)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(devices)
}

func listenPort(addr string) string {
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		return addr[i:]
	}
	return ":" + addr
}
