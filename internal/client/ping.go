package client

import (
	"time"

	"github.com/aserdan/citadel/internal/packets"
)

// SendPing emits a liveness probe. If the previous probe was never
// acknowledged the peer is considered dead and the connection is torn down
// instead. The caller owns the schedule; this method only enforces the
// one-outstanding-probe rule.
func (c *Client) SendPing() {
	c.pingMu.Lock()
	defer c.pingMu.Unlock()

	if !c.pingOK {
		c.Disconnect()
		if c.Logger != nil {
			c.Logger.Warnf("client %s did not acknowledge ping, disconnecting", c.IPAddr())
		}
		return
	}

	if c.OnPingTick != nil {
		c.OnPingTick()
	}

	c.pingOK = false
	c.lastPing = time.Now()
	_ = c.Send(packets.NewPing())
}

// PongReceived acknowledges the outstanding probe and records the measured
// round-trip latency.
func (c *Client) PongReceived() {
	c.pingMu.Lock()
	defer c.pingMu.Unlock()

	c.pingOK = true
	c.latency = time.Since(c.lastPing)
}

// Latency returns the round trip time measured by the last ping/pong
// exchange, or zero if none has completed.
func (c *Client) Latency() time.Duration {
	c.pingMu.Lock()
	defer c.pingMu.Unlock()
	return c.latency
}
