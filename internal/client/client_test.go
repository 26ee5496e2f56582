package client

import (
	"bytes"
	"io"
	"net"
	"sync"
	"testing"

	"github.com/aserdan/citadel/internal/core/wire"
	"github.com/aserdan/citadel/internal/packets"
	"github.com/aserdan/citadel/internal/session"
)

// newTestClient returns a Client over one end of an in-memory pipe and a
// channel that yields everything written to the other end once it closes.
func newTestClient(t *testing.T) (*Client, <-chan []byte) {
	t.Helper()
	server, peer := net.Pipe()

	c := NewClient(server)
	c.Codec = NewCodecSession(wire.DefaultSendKey, wire.DefaultReceiveKey)
	c.Framer = &wire.Framer{}

	received := make(chan []byte, 1)
	go func() {
		data, _ := io.ReadAll(peer)
		received <- data
	}()

	t.Cleanup(func() { c.Disconnect() })
	return c, received
}

func TestSendObfuscatesWithSendKey(t *testing.T) {
	c, received := newTestClient(t)

	if err := c.Send(packets.NewPing()); err != nil {
		t.Fatalf("Send() returned an unexpected error: %v", err)
	}
	c.Disconnect()

	data := <-received
	(wire.Codec{Key: wire.DefaultSendKey}).Apply(data)

	if !bytes.Equal(data, []byte("4\n")) {
		t.Fatalf("decoded wire bytes = %q, expected %q", data, "4\n")
	}
}

func TestSendRawSkipsObfuscation(t *testing.T) {
	c, received := newTestClient(t)

	if err := c.SendRaw(packets.NewHandshake(wire.DefaultSendKey)); err != nil {
		t.Fatalf("SendRaw() returned an unexpected error: %v", err)
	}
	c.Disconnect()

	data := <-received
	if !bytes.Equal(data, []byte("1 211\n")) {
		t.Fatalf("wire bytes = %q, expected %q", data, "1 211\n")
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	c, _ := newTestClient(t)

	registry := session.NewRegistry()
	c.Registry = registry

	s := &session.Session{AccountID: 42, Authorized: true}
	if !registry.TryRegister(s) {
		t.Fatal("expected registration to succeed")
	}
	c.SetSession(s)

	// Concurrent disconnects from the read loop, the ping supervisor, and an
	// external evictor must result in exactly one teardown.
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Disconnect()
		}()
	}
	wg.Wait()

	if !c.Disconnected() {
		t.Error("expected client to report disconnected")
	}
	if registry.IsAccountOnline(42) {
		t.Error("expected session to be evicted from the registry on disconnect")
	}

	select {
	case <-c.Done():
	default:
		t.Error("expected Done() to be closed after disconnect")
	}
}

func TestSendAfterDisconnectFails(t *testing.T) {
	c, _ := newTestClient(t)
	c.Disconnect()

	if err := c.Send(packets.NewPing()); err == nil {
		t.Error("expected Send() on a closed connection to return an error")
	}
}
