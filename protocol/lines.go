package protocol

import "strings"

// MaxLineLength caps the bytes buffered for one line. Longer input is split into
// lines of this length.
const MaxLineLength = 256

// LineSplitter buffers inbound bytes until a line terminator.
//
// Both '\n' and '\r' terminate a line. Lines are trimmed of surrounding white
// space and empty lines are dropped. A LineSplitter is not safe for concurrent use.
type LineSplitter struct {
	buf []byte
}

// Feed appends p to the buffer and calls fn for every completed line.
func (s *LineSplitter) Feed(p []byte, fn func(line string)) {
	for _, b := range p {
		if b != '\n' && b != '\r' {
			s.buf = append(s.buf, b)
			if len(s.buf) < MaxLineLength {
				continue
			}
		}
		line := strings.TrimSpace(string(s.buf))
		s.buf = s.buf[:0]
		if line != "" {
			fn(line)
		}
	}
}

// Pending returns the bytes of the unterminated line.
func (s *LineSplitter) Pending() string {
	return string(s.buf)
}

// Reset discards any buffered bytes.
func (s *LineSplitter) Reset() {
	s.buf = s.buf[:0]
}

// IsAck reports if line is the acknowledgment marker. The match is case sensitive.
func IsAck(line string) bool {
	return strings.TrimSpace(line) == Ack
}
