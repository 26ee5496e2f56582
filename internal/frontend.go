package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/davecgh/go-spew/spew"
	"github.com/sirupsen/logrus"

	"github.com/aserdan/citadel/internal/client"
	"github.com/aserdan/citadel/internal/core"
	"github.com/aserdan/citadel/internal/core/wire"
	"github.com/aserdan/citadel/internal/dispatch"
)

// Matches the read buffer the game client sizes its writes against.
const readBufferSize = 1024

// frontend implements the concurrent client connection logic.
//
// Data is read from any connected clients, decoded, reassembled into frames,
// and dispatched one packet at a time, abstracting the lower level connection
// details away from the Backends.
type frontend struct {
	Address    string
	Backend    Backend
	Config     *core.Config
	Logger     *logrus.Logger
	Dispatcher *dispatch.Dispatcher

	connected atomic.Int64
}

// Run initializes the server backend, opens a TCP socket for the specified
// server, and blocks accepting client connections until the context is
// cancelled.
func (f *frontend) Run(ctx context.Context) error {
	if err := f.Backend.Init(ctx); err != nil {
		return fmt.Errorf("error initializing %s server: %v", f.Backend.Identifier(), err)
	}
	f.Backend.RegisterHandlers(f.Dispatcher)

	socket, err := f.createSocket()
	if err != nil {
		return fmt.Errorf("error creating socket on %s: %v", f.Address, err)
	}

	f.startBlockingLoop(ctx, socket)
	return nil
}

// createSocket opens a TCP socket to listen for client connections on the
// Address provided to the frontend.
func (f *frontend) createSocket() (*net.TCPListener, error) {
	hostAddr, err := net.ResolveTCPAddr("tcp", f.Address)
	if err != nil {
		return nil, fmt.Errorf("error resolving address %s", err.Error())
	}

	socket, err := net.ListenTCP("tcp", hostAddr)
	if err != nil {
		return nil, fmt.Errorf("error listening on socket: %s", err.Error())
	}

	return socket, nil
}

// startBlockingLoop implements a connection handling loop that's purely
// responsible for accepting new connections and spinning off goroutines for
// each client.
func (f *frontend) startBlockingLoop(ctx context.Context, socket *net.TCPListener) {
	f.Logger.Printf("[%s] waiting for connections on %v", f.Backend.Identifier(), f.Address)

	connections := make(chan *net.TCPConn)
	go func() {
		defer close(connections)
		for {
			// Poll until we can accept more clients.
			for f.Config.MaxConnections > 0 && f.connected.Load() >= int64(f.Config.MaxConnections) {
				time.Sleep(10 * time.Second)
			}

			connection, err := socket.AcceptTCP()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
					return
				}
				f.Logger.Warnf("failed to accept connection: %s", err.Error())
				continue
			}

			connections <- connection
		}
	}()

	clientWg := &sync.WaitGroup{}
handleLoop:
	for {
		select {
		case <-ctx.Done():
			break handleLoop
		case connection, ok := <-connections:
			if !ok {
				break handleLoop
			}
			clientWg.Add(1)
			go f.acceptClient(ctx, connection, clientWg)
		}
	}

	_ = socket.Close()
	f.Logger.Infof("[%v] shutting down (waiting for connections to close)", f.Backend.Identifier())
	clientWg.Wait()
	f.Logger.Infof("[%v] exited", f.Backend.Identifier())
}

// acceptClient takes a connection and attempts to initiate a "session" by
// setting up the Client and sending the handshake packet. If it succeeds,
// the goroutine moves into the packet processing loop.
func (f *frontend) acceptClient(ctx context.Context, connection *net.TCPConn, wg *sync.WaitGroup) {
	defer wg.Done()

	c := client.NewClient(connection)
	c.Logger = f.Logger
	f.Backend.SetUpClient(c)

	f.connected.Add(1)
	f.Logger.Infof("[%s] accepted connection from %s", f.Backend.Identifier(), c.IPAddr())

	if err := f.Backend.Handshake(c); err != nil {
		f.Logger.Errorf("Handshake() failed for client %s: %s", c.IPAddr(), err)
	}

	// Closing the socket on cancellation unblocks the read loop, so shutdown
	// doesn't have to wait for idle connections to say something.
	go func() {
		select {
		case <-ctx.Done():
			c.Disconnect()
		case <-c.Done():
		}
	}()

	go f.pingLoop(ctx, c)
	f.processPackets(ctx, c)
}

// processPackets starts a blocking loop dedicated to reading data sent from a
// game client and only returns once the connection has closed. Each read is
// decoded, fed through the client's framer, and every completed frame is
// dispatched in stream order.
func (f *frontend) processPackets(ctx context.Context, c *client.Client) {
	defer f.closeConnectionAndRecover(f.Backend.Identifier(), c)

	buffer := make([]byte, readBufferSize)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := c.Read(buffer)
		if err == io.EOF {
			return
		} else if err != nil {
			if !c.Disconnected() {
				f.Logger.Warnf("socket error (%s): %s", c.IPAddr(), err.Error())
			}
			return
		}

		data := buffer[:n]
		c.Codec.Decrypt(data)

		frames, err := c.Framer.Feed(data)
		if err != nil {
			// Protocol violation; the peer is flooding undelimited bytes.
			f.Logger.Warnf("dropping client %s: %s", c.IPAddr(), err.Error())
			return
		}

		for _, frame := range frames {
			pkt, err := wire.Parse(frame)
			if err != nil {
				f.Logger.Debugf("dropping malformed frame from %s: %s", c.IPAddr(), err)
				continue
			}

			c.IncrementPacketCount()

			if f.Config.Debugging.PacketLoggingEnabled {
				f.Logger.Debugf("[%s] packet %d from %s:\n%s",
					f.Backend.Identifier(), c.PacketCount(), c.IPAddr(), spew.Sdump(pkt))
			}

			if err := f.Dispatcher.Dispatch(ctx, c, pkt); err != nil {
				f.Logger.Warn("error in client communication: " + err.Error())
				return
			}
			if c.Disconnected() {
				return
			}
		}
	}
}

// pingLoop drives the client's liveness supervisor on a fixed schedule until
// the connection goes away.
func (f *frontend) pingLoop(ctx context.Context, c *client.Client) {
	interval := f.Config.LoginServer.PingInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.Done():
			return
		case <-ticker.C:
			c.SendPing()
		}
	}
}

// closeConnectionAndRecover is the failsafe that catches any panics,
// disconnects the client, and updates the connection count regardless of the
// state of the connection.
func (f *frontend) closeConnectionAndRecover(serverName string, c *client.Client) {
	if err := recover(); err != nil {
		f.Logger.Errorf("error in client communication with %s: error=%s, trace: %s",
			c.IPAddr(), err, debug.Stack())
	}

	c.Disconnect()
	f.connected.Add(-1)

	f.Logger.Infof("[%s] disconnected client %s", serverName, c.IPAddr())
}
