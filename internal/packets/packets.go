// Package packets defines the packet identifiers and message layouts
// exchanged with the game client.
package packets

import "github.com/aserdan/citadel/internal/core/wire"

// Packet identifiers. These values are fixed by the client build.
const (
	HandshakeType uint16 = iota + 1
	LoginType
	ServerListType
	PingType
	PongType
	NicknameType
	NoticeType
)

// Positional fields of the login request. Field 1 carries the client build
// number, which this server does not check.
const (
	LoginFieldUsername = 2
	LoginFieldPassword = 3
)

// Field 1 of the nickname request carries the requested display name.
const NicknameFieldName = 1

// OutcomeCode is the result of a login attempt, sent to the client in the
// first field of the server list packet. The set is closed; the client has a
// hardcoded message for each value.
type OutcomeCode uint8

const (
	Success OutcomeCode = iota
	EnterIDError
	EnterPasswordError
	WrongUser
	WrongPW
	Banned
	AlreadyLoggedIn
	NewNickname
	IllegalNickname
	BadSynchronization
)

func (c OutcomeCode) String() string {
	switch c {
	case Success:
		return "Success"
	case EnterIDError:
		return "EnterIDError"
	case EnterPasswordError:
		return "EnterPasswordError"
	case WrongUser:
		return "WrongUser"
	case WrongPW:
		return "WrongPW"
	case Banned:
		return "Banned"
	case AlreadyLoggedIn:
		return "AlreadyLoggedIn"
	case NewNickname:
		return "NewNickname"
	case IllegalNickname:
		return "IllegalNickname"
	case BadSynchronization:
		return "BadSynchronization"
	}
	return "Unknown"
}

// ServerEntry is one game server advertised in the login success packet.
type ServerEntry struct {
	Name    string
	Address string
	Port    int
}

// NewHandshake builds the packet sent immediately after accept, telling the
// client which key the server will obfuscate its stream with. It is the only
// packet sent in the clear.
func NewHandshake(sendKey byte) *wire.Builder {
	return wire.NewBuilder(HandshakeType).AddUint(uint64(sendKey))
}

// NewServerListError builds a server list packet carrying only a rejection
// (or the non-terminal NewNickname request).
func NewServerListError(code OutcomeCode) *wire.Builder {
	return wire.NewBuilder(ServerListType).AddUint(uint64(code))
}

// NewServerListSuccess builds the success packet: outcome 0, the session id,
// the account's display name, and the advertised game servers.
func NewServerListSuccess(sessionID uint32, displayName string, servers []ServerEntry) *wire.Builder {
	b := wire.NewBuilder(ServerListType).
		AddUint(uint64(Success)).
		AddUint(uint64(sessionID)).
		AddString(displayName).
		AddUint(uint64(len(servers)))

	for _, s := range servers {
		b.AddString(s.Name).AddString(s.Address).AddUint(uint64(s.Port))
	}
	return b
}

// NewPing builds the liveness probe.
func NewPing() *wire.Builder {
	return wire.NewBuilder(PingType)
}

// NewNotice builds a free-text message displayed by the client in a dialog.
func NewNotice(message string) *wire.Builder {
	return wire.NewBuilder(NoticeType).AddString(message)
}
