package client

import "github.com/aserdan/citadel/internal/core/wire"

// CodecSession pairs the per-direction stream obfuscation codecs for one
// connection. Every byte sent to the client goes through the send codec and
// every byte received goes through the receive codec.
type CodecSession struct {
	send    wire.Codec
	receive wire.Codec
}

// NewCodecSession returns a CodecSession using the given direction keys.
func NewCodecSession(sendKey, receiveKey byte) *CodecSession {
	return &CodecSession{
		send:    wire.Codec{Key: sendKey},
		receive: wire.Codec{Key: receiveKey},
	}
}

// Encrypt obfuscates outbound bytes in place.
func (s *CodecSession) Encrypt(b []byte) { s.send.Apply(b) }

// Decrypt de-obfuscates inbound bytes in place.
func (s *CodecSession) Decrypt(b []byte) { s.receive.Apply(b) }

// SendKey returns the server-to-client key, which is handed to the client in
// the handshake packet.
func (s *CodecSession) SendKey() byte { return s.send.Key }
