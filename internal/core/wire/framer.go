package wire

import (
	"bytes"
	"errors"
)

// Delimiter terminates every frame on the stream. Payloads are assumed to
// never contain it; the protocol has no escaping mechanism.
const Delimiter = 0x0A

// ErrBufferLimit is returned by Feed when a client accumulates more
// undelimited bytes than the framer allows. The original client never sends
// frames anywhere near that large, so hitting the limit means the peer is
// broken or hostile and the connection should be dropped.
var ErrBufferLimit = errors.New("frame reassembly buffer limit exceeded")

// Framer reassembles delimiter-terminated frames from an arbitrarily chunked
// byte stream. It is owned by exactly one connection and is not safe for
// concurrent use.
type Framer struct {
	// MaxBuffer caps the number of bytes retained while waiting for a
	// delimiter. Zero means unlimited.
	MaxBuffer int

	buf []byte
}

// Feed appends p to the reassembly buffer and returns every complete frame
// it now holds, in stream order, without their trailing delimiters. Bytes
// after the last delimiter are retained for the next call. Frames may be
// empty (two consecutive delimiters); callers reject those during identifier
// extraction.
//
// The returned slices are copies and remain valid after subsequent calls.
func (f *Framer) Feed(p []byte) ([][]byte, error) {
	f.buf = append(f.buf, p...)

	var frames [][]byte
	start := 0
	for {
		i := bytes.IndexByte(f.buf[start:], Delimiter)
		if i < 0 {
			break
		}

		frame := make([]byte, i)
		copy(frame, f.buf[start:start+i])
		frames = append(frames, frame)
		start += i + 1
	}

	if start > 0 {
		n := copy(f.buf, f.buf[start:])
		f.buf = f.buf[:n]
	}

	if f.MaxBuffer > 0 && len(f.buf) > f.MaxBuffer {
		return frames, ErrBufferLimit
	}
	return frames, nil
}

// Pending returns the number of buffered bytes awaiting a delimiter.
func (f *Framer) Pending() int {
	return len(f.buf)
}
