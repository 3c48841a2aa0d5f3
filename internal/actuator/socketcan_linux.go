//go:build linux

package actuator

import (
	"context"
	"net"

	"github.com/pkg/errors"
	"go.einride.tech/can"
	"go.einride.tech/can/pkg/socketcan"
)

// SocketCAN writes frames to a Linux CAN interface such as vcan0.
type SocketCAN struct {
	conn net.Conn
	tx   *socketcan.Transmitter
}

func DialSocketCAN(ctx context.Context, iface string) (*SocketCAN, error) {
	conn, err := socketcan.DialContext(ctx, "can", iface)
	if err != nil {
		return nil, errors.Wrapf(err, "socketcan dial %s", iface)
	}
	return &SocketCAN{conn: conn, tx: socketcan.NewTransmitter(conn)}, nil
}

func (w *SocketCAN) WriteFrame(ctx context.Context, f can.Frame) error {
	return w.tx.TransmitFrame(ctx, f)
}

func (w *SocketCAN) Close() error { return w.conn.Close() }
