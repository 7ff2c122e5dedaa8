// Package conntest provides a recording byte channel for testing links and schedulers
// without a display module attached.
package conntest

import (
	"fmt"
	"io"
	"sync"

	"github.com/BeatGlow/linkdisplay/protocol"
)

// Recorder records every write and answers each valid frame with an ACK line.
//
// The zero value is not usable, use NewRecorder.
type Recorder struct {
	name string

	mu        sync.Mutex
	open      bool
	receive   func([]byte)
	writes    [][]byte
	autoAck   bool
	ackReply  []byte
	openErr   error
	closeErr  error
	writeErr  error
	failAfter int
	opens     int
	closes    int
}

// NewRecorder returns a closed Recorder that acknowledges frames.
func NewRecorder(name string) *Recorder {
	return &Recorder{
		name:      name,
		autoAck:   true,
		ackReply:  []byte(protocol.Ack + "\r\n"),
		failAfter: -1,
	}
}

func (r *Recorder) String() string {
	return fmt.Sprintf("recorder %s", r.name)
}

// Open the recorder, inbound lines are delivered to receive.
func (r *Recorder) Open(receive func([]byte)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.openErr != nil {
		return r.openErr
	}
	r.open = true
	r.receive = receive
	r.opens++
	return nil
}

// Close the recorder. Writes fail with io.ErrClosedPipe until it is opened again.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.open = false
	r.receive = nil
	r.closes++
	return r.closeErr
}

// Write records p. Valid frames are acknowledged before Write returns, unless
// acknowledgements are disabled.
func (r *Recorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	if !r.open {
		r.mu.Unlock()
		return 0, io.ErrClosedPipe
	}
	if r.failAfter == 0 {
		err := r.writeErr
		r.mu.Unlock()
		return 0, err
	}
	if r.failAfter > 0 {
		r.failAfter--
	}
	r.writes = append(r.writes, append([]byte(nil), p...))

	var (
		receive = r.receive
		reply   []byte
	)
	if r.autoAck {
		if _, err := protocol.Parse(p); err == nil {
			reply = r.ackReply
		}
	}
	r.mu.Unlock()

	if receive != nil && reply != nil {
		receive(reply)
	}
	return len(p), nil
}

// SetAutoAck enables or disables acknowledging frames.
func (r *Recorder) SetAutoAck(enable bool) {
	r.mu.Lock()
	r.autoAck = enable
	r.mu.Unlock()
}

// SetAckReply replaces the bytes sent back for each frame.
func (r *Recorder) SetAckReply(reply string) {
	r.mu.Lock()
	r.ackReply = []byte(reply)
	r.mu.Unlock()
}

// FailOpen makes Open return err.
func (r *Recorder) FailOpen(err error) {
	r.mu.Lock()
	r.openErr = err
	r.mu.Unlock()
}

// FailClose makes Close return err.
func (r *Recorder) FailClose(err error) {
	r.mu.Lock()
	r.closeErr = err
	r.mu.Unlock()
}

// FailWrites makes writes fail with err once after writes have succeeded.
// A nil err restores normal operation.
func (r *Recorder) FailWrites(err error, after int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		r.writeErr, r.failAfter = nil, -1
		return
	}
	r.writeErr, r.failAfter = err, after
}

// Inject delivers inbound bytes, as if sent by the display module.
func (r *Recorder) Inject(p []byte) {
	r.mu.Lock()
	receive := r.receive
	r.mu.Unlock()
	if receive != nil {
		receive(p)
	}
}

// IsOpen reports if the recorder is open.
func (r *Recorder) IsOpen() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.open
}

// Opens and Closes count the calls to Open and Close.
func (r *Recorder) Opens() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.opens
}

func (r *Recorder) Closes() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.closes
}

// Writes returns a copy of all recorded writes.
func (r *Recorder) Writes() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]byte, len(r.writes))
	for i, w := range r.writes {
		out[i] = append([]byte(nil), w...)
	}
	return out
}

// Frames returns the recorded writes that are valid frames.
func (r *Recorder) Frames() []protocol.Frame {
	var frames []protocol.Frame
	for _, w := range r.Writes() {
		if _, err := protocol.Parse(w); err == nil {
			frames = append(frames, protocol.Frame(w))
		}
	}
	return frames
}

// Messages decodes the recorded writes. Any write that is not a valid frame is an error.
func (r *Recorder) Messages() ([]protocol.Message, error) {
	writes := r.Writes()
	messages := make([]protocol.Message, 0, len(writes))
	for i, w := range writes {
		m, err := protocol.Parse(w)
		if err != nil {
			return messages, fmt.Errorf("write %d: %w", i, err)
		}
		messages = append(messages, m)
	}
	return messages, nil
}

// Reset forgets the recorded writes.
func (r *Recorder) Reset() {
	r.mu.Lock()
	r.writes = nil
	r.mu.Unlock()
}
