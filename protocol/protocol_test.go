package protocol

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeReset(t *testing.T) {
	assert.Equal(t, "2:RL", string(EncodeResetDraw()))
	assert.Equal(t, "2:RP", string(EncodeResetPalette()))
}

func TestEncodeSpan(t *testing.T) {
	tests := []struct {
		col, row int
		want     string
	}{
		{20, 16, "5:S1410"},
		{4, 4, "5:S0404"},
		{1, 1, "5:S0101"},
		{0x100, 0x10, "6:S10010"},
		{0xFFFF, 0xABCD, "9:SFFFFABCD"},
	}
	for _, test := range tests {
		f, err := EncodeSpan(test.col, test.row)
		require.NoError(t, err)
		assert.Equal(t, test.want, string(f))

		m, err := Parse(f)
		require.NoError(t, err)
		assert.Equal(t, Span, m.Command)
		col, row, err := ParseSpan(m.Payload)
		require.NoError(t, err)
		assert.Equal(t, test.col, col)
		assert.Equal(t, test.row, row)
	}

	for _, bad := range [][2]int{{0, 1}, {1, 0}, {-1, 4}, {0x10000, 1}} {
		_, err := EncodeSpan(bad[0], bad[1])
		assert.ErrorIs(t, err, ErrSpan)
	}
}

func TestEncodeLine(t *testing.T) {
	colors := make([]uint16, 160)
	for i := range colors {
		colors[i] = uint16(i) | 0xA500
	}

	frames := EncodeLine(colors, binary.BigEndian)
	require.Len(t, frames, 6)

	var got []uint16
	for i, f := range frames {
		assert.LessOrEqual(t, len(f), MaxFrameSize)
		m, err := Parse(f)
		require.NoError(t, err)
		assert.Equal(t, Line, m.Command)
		if i < 5 {
			assert.Len(t, m.Payload, MaxLinePixels*2)
			assert.Equal(t, "57:L", string(f[:4]))
		} else {
			assert.Len(t, m.Payload, 20*2)
			assert.Equal(t, "41:L", string(f[:4]))
		}
		got = append(got, Uint16s(m.Payload, binary.BigEndian)...)
	}
	assert.Equal(t, colors, got)

	// Big endian puts the high byte first.
	assert.Equal(t, byte(0xA5), frames[0][4])
	assert.Equal(t, byte(0x00), frames[0][5])

	little := EncodeLine(colors[:1], binary.LittleEndian)
	require.Len(t, little, 1)
	assert.Equal(t, []byte("3:L\x00\xA5"), []byte(little[0]))

	assert.Empty(t, EncodeLine(nil, binary.BigEndian))
}

func TestEncodeIndexedLine(t *testing.T) {
	indices := make([]byte, 160)
	for i := range indices {
		indices[i] = byte(i)
	}
	frames := EncodeIndexedLine(indices)
	require.Len(t, frames, 3)

	var got []byte
	for _, f := range frames {
		assert.LessOrEqual(t, len(f), MaxFrameSize)
		m, err := Parse(f)
		require.NoError(t, err)
		assert.Equal(t, IndexedLine, m.Command)
		got = append(got, m.Payload...)
	}
	assert.Equal(t, indices, got)
	assert.Equal(t, "57:l", string(frames[0][:4]))
	assert.Equal(t, "49:l", string(frames[2][:4]))
}

func TestEncodePalette(t *testing.T) {
	keys := make([]uint16, 60)
	for i := range keys {
		keys[i] = uint16(i * 0x0421)
	}
	frames := EncodePalette(keys, binary.BigEndian)
	require.Len(t, frames, 4)
	assert.Equal(t, "2:RP", string(frames[0]))

	var got []uint16
	for _, f := range frames[1:] {
		m, err := Parse(f)
		require.NoError(t, err)
		assert.Equal(t, Palette, m.Command)
		got = append(got, Uint16s(m.Payload, binary.BigEndian)...)
	}
	assert.Equal(t, keys, got)

	// An empty palette still resets the upload.
	assert.Len(t, EncodePalette(nil, binary.BigEndian), 1)
}

func TestEncodeTooLarge(t *testing.T) {
	_, err := Encode(Line, make([]byte, 59))
	assert.ErrorIs(t, err, ErrFrameSize)

	f, err := Encode(Line, make([]byte, 58))
	require.NoError(t, err)
	assert.Len(t, f, MaxFrameSize)
}

func TestParseMalformed(t *testing.T) {
	tests := []struct {
		name  string
		frame string
		err   error
	}{
		{"empty", "", ErrMalformed},
		{"no header", ":L", ErrMalformed},
		{"no colon", "3L00", ErrMalformed},
		{"count mismatch", "4:L\x00", ErrMalformed},
		{"no command", "0:", ErrMalformed},
		{"unknown command", "1:X", ErrCommand},
		{"unknown reset", "2:RX", ErrCommand},
		{"reset payload", "3:RLx", ErrMalformed},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse([]byte(test.frame))
			assert.ErrorIs(t, err, test.err)
		})
	}

	_, _, err := ParseSpan([]byte("1"))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestFrameString(t *testing.T) {
	assert.Equal(t, "reset draw frame of 4 bytes (0 payload)", EncodeResetDraw().String())
	assert.Contains(t, Frame("x").String(), "invalid frame")
}

func TestLineSplitter(t *testing.T) {
	var (
		s     LineSplitter
		lines []string
	)
	collect := func(line string) { lines = append(lines, line) }

	s.Feed([]byte("AC"), collect)
	assert.Empty(t, lines)
	assert.Equal(t, "AC", s.Pending())

	s.Feed([]byte("K\r\n  hello world \nnext"), collect)
	assert.Equal(t, []string{"ACK", "hello world"}, lines)
	assert.Equal(t, "next", s.Pending())

	s.Feed([]byte("\n\n\r"), collect)
	assert.Equal(t, []string{"ACK", "hello world", "next"}, lines)

	s.Feed([]byte("partial"), collect)
	s.Reset()
	assert.Empty(t, s.Pending())
}

func TestLineSplitterMaxLength(t *testing.T) {
	var (
		s     LineSplitter
		lines []string
	)
	noise := bytes.Repeat([]byte{0xAA}, MaxLineLength*2+10)
	s.Feed(noise, func(line string) {
		lines = append(lines, line)
	})
	require.Len(t, lines, 2)
	assert.Len(t, lines[0], MaxLineLength)
	assert.Len(t, lines[1], MaxLineLength)
	assert.Len(t, s.Pending(), 10)

	s.Feed([]byte("\nACK\r\n"), func(line string) {
		lines = append(lines, line)
	})
	assert.Equal(t, "ACK", lines[len(lines)-1])
	assert.Len(t, lines, 4)
}

func TestIsAck(t *testing.T) {
	assert.True(t, IsAck("ACK"))
	assert.True(t, IsAck(" ACK \t"))
	assert.False(t, IsAck("ack"))
	assert.False(t, IsAck("ACK!"))
	assert.False(t, IsAck(""))
}
