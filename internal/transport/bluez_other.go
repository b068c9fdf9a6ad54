//go:build !linux

package transport

import (
	"context"
	"errors"
	"time"
)

var errNoBlueZ = errors.New("BLE transport requires BlueZ on linux")

type BlueZ struct{}

func NewBlueZ(adapterID, address string) *BlueZ { return &BlueZ{} }

func (*BlueZ) Run(context.Context, Handler) error { return errNoBlueZ }

func Scan(context.Context, string, time.Duration) ([]Device, error) { return nil, errNoBlueZ }
