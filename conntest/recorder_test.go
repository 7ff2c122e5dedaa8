package conntest

import (
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeatGlow/linkdisplay/protocol"
)

func TestRecorderAck(t *testing.T) {
	r := NewRecorder("test")

	var inbound []string
	require.NoError(t, r.Open(func(p []byte) { inbound = append(inbound, string(p)) }))
	assert.True(t, r.IsOpen())

	n, err := r.Write(protocol.EncodeResetDraw())
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	assert.Equal(t, []string{"ACK\r\n"}, inbound)

	// Text is recorded, not acknowledged.
	_, err = r.Write([]byte("hello\n"))
	require.NoError(t, err)
	assert.Len(t, inbound, 1)
	assert.Len(t, r.Writes(), 2)
	assert.Len(t, r.Frames(), 1)

	_, err = r.Messages()
	assert.ErrorIs(t, err, protocol.ErrMalformed)

	r.SetAutoAck(false)
	_, err = r.Write(protocol.EncodeResetPalette())
	require.NoError(t, err)
	assert.Len(t, inbound, 1)

	r.Inject([]byte("boot\n"))
	assert.Equal(t, "boot\n", inbound[1])
}

func TestRecorderMessages(t *testing.T) {
	r := NewRecorder("test")
	require.NoError(t, r.Open(nil))

	span, err := protocol.EncodeSpan(4, 4)
	require.NoError(t, err)
	for _, f := range []protocol.Frame{protocol.EncodeResetDraw(), span} {
		_, err = r.Write(f)
		require.NoError(t, err)
	}

	messages, err := r.Messages()
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, protocol.ResetDraw, messages[0].Command)
	assert.Equal(t, protocol.Span, messages[1].Command)

	r.Reset()
	assert.Empty(t, r.Writes())
}

func TestRecorderFailures(t *testing.T) {
	r := NewRecorder("test")

	_, err := r.Write([]byte("2:RL"))
	assert.ErrorIs(t, err, io.ErrClosedPipe)

	errOpen := errors.New("no such port")
	r.FailOpen(errOpen)
	assert.ErrorIs(t, r.Open(nil), errOpen)
	r.FailOpen(nil)
	require.NoError(t, r.Open(nil))

	errWrite := errors.New("bad write")
	r.FailWrites(errWrite, 1)
	_, err = r.Write([]byte("2:RL"))
	assert.NoError(t, err)
	_, err = r.Write([]byte("2:RL"))
	assert.ErrorIs(t, err, errWrite)
	_, err = r.Write([]byte("2:RL"))
	assert.ErrorIs(t, err, errWrite)
	assert.Len(t, r.Writes(), 1)

	r.FailWrites(nil, 0)
	_, err = r.Write([]byte("2:RL"))
	assert.NoError(t, err)

	errClose := errors.New("close failed")
	r.FailClose(errClose)
	assert.ErrorIs(t, r.Close(), errClose)
	assert.False(t, r.IsOpen())
	assert.Equal(t, 1, r.Opens())
	assert.Equal(t, 1, r.Closes())
}
