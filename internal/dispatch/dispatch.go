// Package dispatch routes decoded packets to the handlers a server backend
// registers for them.
package dispatch

import (
	"context"
	"runtime/debug"

	"github.com/sirupsen/logrus"

	"github.com/aserdan/citadel/internal/client"
	"github.com/aserdan/citadel/internal/core/wire"
)

// Handler processes one decoded packet for a client. Handlers run on the
// client's read loop goroutine, so a client never processes two packets
// concurrently with itself. A returned error indicates the connection can no
// longer be serviced and resolves to disconnect; protocol-level rejections
// are expressed as outcome packets, not errors.
type Handler func(ctx context.Context, c *client.Client, pkt *wire.Packet) error

// Dispatcher routes decoded packets to their registered handlers. A packet
// with an unknown identifier is dropped with a log line; a panicking handler
// is contained. One bad packet must never take down the connection, let
// alone the process.
type Dispatcher struct {
	logger   *logrus.Logger
	handlers map[uint16]Handler
}

func New(logger *logrus.Logger) *Dispatcher {
	return &Dispatcher{
		logger:   logger,
		handlers: make(map[uint16]Handler),
	}
}

// Register installs a handler for the packet id, replacing any previous
// registration. Registration happens at server start, before any packets
// flow, and is not synchronized.
func (d *Dispatcher) Register(id uint16, h Handler) {
	d.handlers[id] = h
}

// Dispatch invokes the handler registered for the packet's id.
func (d *Dispatcher) Dispatch(ctx context.Context, c *client.Client, pkt *wire.Packet) (err error) {
	handler, ok := d.handlers[pkt.ID()]
	if !ok {
		d.logger.Debugf("dropping packet with unregistered id %d from %s", pkt.ID(), c.IPAddr())
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorf("panic handling packet %d from %s: %v\n%s",
				pkt.ID(), c.IPAddr(), r, debug.Stack())
			err = nil
		}
	}()

	return handler(ctx, c, pkt)
}
