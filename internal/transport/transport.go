// Package transport delivers controller notifications to a Handler.
package transport

import (
	"context"
	"fmt"
)

// Handler receives the lifecycle and payloads of one controller connection.
// Packet is called from the source's goroutine, one payload at a time.
type Handler interface {
	Connected(addr string)
	Packet(data []byte)
	Disconnected(err error)
}

// Source produces notifications until ctx is cancelled or the link fails.
type Source interface {
	Run(ctx context.Context, h Handler) error
}

// Device is a scan result.
type Device struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	RSSI    int16  `json:"rssi"`
}

const (
	KindBLE = "ble"
	KindSim = "sim"
)

type Options struct {
	Kind    string
	Adapter string
	Address string
	SimHz   float64
}

// New builds the source named by opts.Kind.
func New(opts Options) (Source, error) {
	switch opts.Kind {
	case KindBLE, "":
		return NewBlueZ(opts.Adapter, opts.Address), nil
	case KindSim:
		return NewSim(opts.SimHz), nil
	}
	return nil, fmt.Errorf("unknown transport %q", opts.Kind)
}
