// Package protocol implements the framing used between the host and a display module.
//
// Every message is a frame of at most MaxFrameSize bytes:
//
//	<count>:<command><payload>
//
// where count is the decimal ASCII number of bytes following the colon (the command
// bytes plus the payload). The module answers each frame it processed with a line
// reading ACK. Lines and palettes that do not fit a single frame are split into
// successive frames of the same command, each acknowledged on its own.
package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
)

// Frame limits.
const (
	MaxFrameSize      = 62
	MaxLinePixels     = 28 // 16-bit pixels per Line frame
	MaxIndexedPixels  = 56 // 8-bit pixels per IndexedLine frame
	MaxPaletteEntries = 28 // 16-bit keys per Palette frame
	maxSpan           = 0xFFFF
)

// Ack is the line sent by the display module after it processed a frame.
const Ack = "ACK"

// Errors.
var (
	ErrFrameSize = errors.New("protocol: frame too large")
	ErrSpan      = errors.New("protocol: span out of range")
	ErrMalformed = errors.New("protocol: malformed frame")
	ErrCommand   = errors.New("protocol: unknown command")
)

// Command selects what the display module does with a frame.
type Command string

// Commands.
const (
	ResetDraw    Command = "RL" // restart the line draw cursor
	ResetPalette Command = "RP" // restart the palette upload
	Span         Command = "S"  // set column and row span
	Line         Command = "L"  // part of a line, 16-bit colors
	IndexedLine  Command = "l"  // part of a line, palette indices
	Palette      Command = "P"  // part of the palette
)

func (c Command) String() string {
	switch c {
	case ResetDraw:
		return "reset draw"
	case ResetPalette:
		return "reset palette"
	case Span:
		return "span"
	case Line:
		return "line"
	case IndexedLine:
		return "indexed line"
	case Palette:
		return "palette"
	default:
		return fmt.Sprintf("command %q", string(c))
	}
}

// Frame is one encoded message.
type Frame []byte

// Encode builds a frame for command with the given payload.
func Encode(command Command, payload []byte) (Frame, error) {
	var (
		n      = len(command) + len(payload)
		header = strconv.Itoa(n)
		size   = len(header) + 1 + n
	)
	if size > MaxFrameSize {
		return nil, fmt.Errorf("%w: %s frame of %d bytes", ErrFrameSize, command, size)
	}
	f := make(Frame, 0, size)
	f = append(f, header...)
	f = append(f, ':')
	f = append(f, command...)
	f = append(f, payload...)
	return f, nil
}

func mustEncode(command Command, payload []byte) Frame {
	f, err := Encode(command, payload)
	if err != nil {
		panic(err)
	}
	return f
}

// EncodeResetDraw returns the frame that restarts drawing at the top of the display.
func EncodeResetDraw() Frame {
	return mustEncode(ResetDraw, nil)
}

// EncodeResetPalette returns the frame that restarts the palette upload.
func EncodeResetPalette() Frame {
	return mustEncode(ResetPalette, nil)
}

// EncodeSpan returns the frame setting the number of columns and rows each
// transmitted pixel covers.
func EncodeSpan(colSpan, rowSpan int) (Frame, error) {
	if colSpan < 1 || colSpan > maxSpan || rowSpan < 1 || rowSpan > maxSpan {
		return nil, fmt.Errorf("%w: %dx%d", ErrSpan, colSpan, rowSpan)
	}
	payload := make([]byte, 0, 8)
	payload = appendHex(payload, colSpan)
	payload = appendHex(payload, rowSpan)
	return Encode(Span, payload)
}

// appendHex appends v as at least two upper case hex digits.
func appendHex(b []byte, v int) []byte {
	return fmt.Appendf(b, "%02X", v)
}

// EncodeLine splits 16-bit colors into Line frames. Each color is packed in the
// given byte order.
func EncodeLine(colors []uint16, order binary.ByteOrder) []Frame {
	var frames []Frame
	for i := 0; i < len(colors); i += MaxLinePixels {
		j := min(i+MaxLinePixels, len(colors))
		frames = append(frames, mustEncode(Line, packUint16(colors[i:j], order)))
	}
	return frames
}

// EncodeIndexedLine splits palette indices into IndexedLine frames.
func EncodeIndexedLine(indices []byte) []Frame {
	var frames []Frame
	for i := 0; i < len(indices); i += MaxIndexedPixels {
		j := min(i+MaxIndexedPixels, len(indices))
		frames = append(frames, mustEncode(IndexedLine, indices[i:j]))
	}
	return frames
}

// EncodePalette returns the ResetPalette frame followed by the Palette frames
// carrying keys in index order.
func EncodePalette(keys []uint16, order binary.ByteOrder) []Frame {
	frames := []Frame{EncodeResetPalette()}
	for i := 0; i < len(keys); i += MaxPaletteEntries {
		j := min(i+MaxPaletteEntries, len(keys))
		frames = append(frames, mustEncode(Palette, packUint16(keys[i:j], order)))
	}
	return frames
}

func packUint16(values []uint16, order binary.ByteOrder) []byte {
	b := make([]byte, len(values)*2)
	for i, v := range values {
		order.PutUint16(b[i*2:], v)
	}
	return b
}

// Message is a decoded frame.
type Message struct {
	Command Command
	Payload []byte
}

// Parse decodes a single frame.
func Parse(f []byte) (Message, error) {
	if len(f) > MaxFrameSize {
		return Message{}, fmt.Errorf("%w: %d bytes", ErrFrameSize, len(f))
	}

	var i int
	for i < len(f) && f[i] >= '0' && f[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(f) || f[i] != ':' {
		return Message{}, fmt.Errorf("%w: missing length header", ErrMalformed)
	}
	n, err := strconv.Atoi(string(f[:i]))
	if err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	body := f[i+1:]
	if n != len(body) {
		return Message{}, fmt.Errorf("%w: header counts %d bytes, got %d", ErrMalformed, n, len(body))
	}
	if len(body) == 0 {
		return Message{}, fmt.Errorf("%w: missing command", ErrMalformed)
	}

	var command Command
	switch body[0] {
	case 'R':
		if len(body) != 2 {
			return Message{}, fmt.Errorf("%w: reset takes no payload", ErrMalformed)
		}
		command = Command(body[:2])
		if command != ResetDraw && command != ResetPalette {
			return Message{}, fmt.Errorf("%w: %q", ErrCommand, string(command))
		}
	case 'S', 'L', 'l', 'P':
		command = Command(body[:1])
	default:
		return Message{}, fmt.Errorf("%w: %q", ErrCommand, body[0])
	}

	return Message{
		Command: command,
		Payload: append([]byte(nil), body[len(command):]...),
	}, nil
}

// ParseSpan decodes the payload of a Span frame.
func ParseSpan(payload []byte) (colSpan, rowSpan int, err error) {
	// Each value takes two to four digits, try every split.
	for split := 2; split <= len(payload)-2 && split <= 4; split++ {
		col, err1 := strconv.ParseUint(string(payload[:split]), 16, 16)
		row, err2 := strconv.ParseUint(string(payload[split:]), 16, 16)
		if err1 != nil || err2 != nil || len(payload)-split > 4 {
			continue
		}
		if hexWidth(int(col)) == split && hexWidth(int(row)) == len(payload)-split {
			return int(col), int(row), nil
		}
	}
	return 0, 0, fmt.Errorf("%w: span payload %q", ErrMalformed, payload)
}

func hexWidth(v int) int {
	return len(appendHex(nil, v))
}

// Uint16s decodes a Line or Palette payload.
func Uint16s(payload []byte, order binary.ByteOrder) []uint16 {
	values := make([]uint16, len(payload)/2)
	for i := range values {
		values[i] = order.Uint16(payload[i*2:])
	}
	return values
}

func (f Frame) String() string {
	m, err := Parse(f)
	if err != nil {
		return fmt.Sprintf("invalid frame (%v)", err)
	}
	return fmt.Sprintf("%s frame of %d bytes (%d payload)", m.Command, len(f), len(m.Payload))
}
