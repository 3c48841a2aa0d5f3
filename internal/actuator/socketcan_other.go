//go:build !linux

package actuator

import (
	"context"

	"github.com/pkg/errors"
	"go.einride.tech/can"
)

type SocketCAN struct{}

func DialSocketCAN(ctx context.Context, iface string) (*SocketCAN, error) {
	return nil, errors.Errorf("socketcan %s: only supported on linux", iface)
}

func (w *SocketCAN) WriteFrame(ctx context.Context, f can.Frame) error {
	return errors.New("socketcan: only supported on linux")
}

func (w *SocketCAN) Close() error { return nil }
