package wire

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"strconv"
)

// FieldSeparator splits a decoded frame into its positional fields.
const FieldSeparator = ' '

var (
	ErrEmptyFrame = errors.New("empty frame")
	ErrInvalidID  = errors.New("invalid packet id")
)

// Packet is one decoded inbound frame. It is immutable after Parse and owned
// by the dispatch call processing it.
type Packet struct {
	id     uint16
	fields []string
}

// Parse decodes a frame into a Packet. The first field must be a positive
// decimal packet identifier; anything else is a protocol violation and the
// frame should be dropped.
func Parse(frame []byte) (*Packet, error) {
	if len(frame) == 0 {
		return nil, ErrEmptyFrame
	}

	parts := bytes.Split(frame, []byte{FieldSeparator})
	fields := make([]string, len(parts))
	for i, p := range parts {
		fields[i] = string(p)
	}

	id, err := strconv.Atoi(fields[0])
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidID, fields[0])
	}
	if id <= 0 || id > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}

	return &Packet{id: uint16(id), fields: fields}, nil
}

func (p *Packet) ID() uint16     { return p.id }
func (p *Packet) NumFields() int { return len(p.fields) }

// Field returns the field at index i, or an empty string if the packet
// doesn't have that many fields. Index 0 is the identifier itself.
func (p *Packet) Field(i int) string {
	if i < 0 || i >= len(p.fields) {
		return ""
	}
	return p.fields[i]
}

// Uint parses the field at index i as an unsigned decimal integer.
func (p *Packet) Uint(i int) (uint64, error) {
	return strconv.ParseUint(p.Field(i), 10, 64)
}

// Builder assembles an outbound packet. Fields are appended in order and
// Bytes terminates the frame with the stream delimiter. A Builder is
// serialized once and never shared after construction.
type Builder struct {
	buf bytes.Buffer
}

// NewBuilder starts a packet with the given identifier.
func NewBuilder(id uint16) *Builder {
	b := &Builder{}
	b.buf.WriteString(strconv.Itoa(int(id)))
	return b
}

func (b *Builder) AddString(s string) *Builder {
	b.buf.WriteByte(FieldSeparator)
	b.buf.WriteString(s)
	return b
}

func (b *Builder) AddUint(v uint64) *Builder {
	return b.AddString(strconv.FormatUint(v, 10))
}

// Bytes returns the framed packet, delimiter included. The returned slice is
// freshly allocated so callers may obfuscate it in place.
func (b *Builder) Bytes() []byte {
	out := make([]byte, b.buf.Len()+1)
	copy(out, b.buf.Bytes())
	out[len(out)-1] = Delimiter
	return out
}
