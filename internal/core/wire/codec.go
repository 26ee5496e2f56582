// Package wire implements the stream framing and obfuscation scheme spoken
// by the game client: a per-direction single-byte XOR transform over the raw
// stream, newline-delimited frames, and packets made up of space-separated
// fields with a numeric identifier in the first field.
package wire

// Obfuscation keys baked into the stock client build. Deployments running a
// patched client can override these through the login_server config section.
const (
	DefaultSendKey    = 0xD3
	DefaultReceiveKey = 0x4A
)

// Codec applies a keyed byte-wise transform to a stream. The transform is an
// involution: applying it twice with the same key restores the input, so the
// same Codec both encodes and decodes. This is obfuscation, not encryption.
type Codec struct {
	Key byte
}

// Apply transforms b in place.
func (c Codec) Apply(b []byte) {
	for i := range b {
		b[i] ^= c.Key
	}
}
