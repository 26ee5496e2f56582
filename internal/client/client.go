package client

import (
	"fmt"
	"net"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aserdan/citadel/internal/core/wire"
	"github.com/aserdan/citadel/internal/session"
)

// Client represents one connected game client. It owns the socket, the frame
// reassembly buffer, the obfuscation session, and at most one authenticated
// Session. All packet processing for a Client happens on its own read loop
// goroutine; the ping supervisor is the only other goroutine that touches it,
// through the lock-guarded methods in ping.go.
type Client struct {
	connection net.Conn
	ipAddr     string
	port       string

	Logger *logrus.Logger

	// Codec is the obfuscation session for this connection's streams.
	Codec *CodecSession

	// Framer reassembles inbound frames. Owned exclusively by the read loop.
	Framer *wire.Framer

	// Registry is consulted during teardown to evict this client's session.
	Registry *session.Registry

	// OnPingTick, if set, runs on every liveness probe before the ping packet
	// is sent. The login server uses it to refresh premium state.
	OnPingTick func()

	sessionMu sync.Mutex
	session   *session.Session

	packetCount  atomic.Uint64
	disconnected atomic.Bool
	done         chan struct{}

	pingMu   sync.Mutex
	pingOK   bool
	lastPing time.Time
	latency  time.Duration
}

func NewClient(connection net.Conn) *Client {
	addr := strings.Split(connection.RemoteAddr().String(), ":")
	port := ""
	if len(addr) > 1 {
		port = addr[1]
	}

	return &Client{
		connection: connection,
		ipAddr:     addr[0],
		port:       port,
		done:       make(chan struct{}),
		pingOK:     true,
	}
}

func (c *Client) IPAddr() string { return c.ipAddr }
func (c *Client) Port() string   { return c.port }

// Read consumes the available bytes directly from the client's TCP connection.
func (c *Client) Read(b []byte) (int, error) {
	return c.connection.Read(b)
}

// SetSession binds the authenticated session to this connection.
func (c *Client) SetSession(s *session.Session) {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	c.session = s
}

// CurrentSession returns the bound session, or nil before authorization.
func (c *Client) CurrentSession() *session.Session {
	c.sessionMu.Lock()
	defer c.sessionMu.Unlock()
	return c.session
}

// IncrementPacketCount bumps the monotonic received-packet counter.
func (c *Client) IncrementPacketCount() uint64 {
	return c.packetCount.Add(1)
}

func (c *Client) PacketCount() uint64 { return c.packetCount.Load() }

// SendRaw writes a packet to the client without obfuscating it first. Only
// the handshake goes out this way.
func (c *Client) SendRaw(pkt *wire.Builder) error {
	return c.transmit(pkt.Bytes())
}

// Send serializes a packet, obfuscates it, and writes it to the client. A
// transport failure resolves to disconnect before the error is returned.
func (c *Client) Send(pkt *wire.Builder) error {
	data := pkt.Bytes()
	c.Codec.Encrypt(data)
	return c.transmit(data)
}

// transmit writes the contents of data to the TCP connection until all of it
// has been sent.
func (c *Client) transmit(data []byte) error {
	sent := 0
	for sent < len(data) {
		n, err := c.connection.Write(data[sent:])
		if err != nil {
			c.Disconnect()
			return fmt.Errorf("failed to send to client %v: %s", c.IPAddr(), err.Error())
		}
		sent += n
	}
	return nil
}

// Disconnect tears the connection down: the session (if any) is evicted from
// the registry, the ping supervisor is stopped, and the socket is closed.
// It is safe to call from any goroutine and any number of times; exactly one
// call performs the teardown.
func (c *Client) Disconnect() {
	if !c.disconnected.CompareAndSwap(false, true) {
		return
	}

	close(c.done)

	if s := c.CurrentSession(); s != nil && c.Registry != nil {
		c.Registry.Remove(s.ID)
	}

	_ = c.connection.Close()
}

// Disconnected reports whether teardown has begun.
func (c *Client) Disconnected() bool {
	return c.disconnected.Load()
}

// Done is closed once the client has been disconnected.
func (c *Client) Done() <-chan struct{} {
	return c.done
}
