package internal

import (
	"context"

	"github.com/aserdan/citadel/internal/client"
	"github.com/aserdan/citadel/internal/dispatch"
)

// Backend is an interface for a sub-server that handles a specific set of
// client interactions as part of the game flow.
type Backend interface {
	// Identifier returns a uniquely identifying string.
	Identifier() string

	// Init is called before a Backend is started as a hook for the Backend to
	// perform any necessary initialization before it can accept clients.
	Init(ctx context.Context) error

	// SetUpClient performs any initialization on the Client needed to be able
	// to begin the session. Namely, it's the server's responsibility to
	// configure the obfuscation session and frame limits.
	SetUpClient(c *client.Client)

	// Handshake performs any connection initialization necessary to begin
	// communicating with the client. This likely involves sending a "welcome"
	// packet.
	Handshake(c *client.Client) error

	// RegisterHandlers installs the Backend's packet handlers on the
	// dispatcher that will route this server's client packets.
	RegisterHandlers(d *dispatch.Dispatcher)
}
