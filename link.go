package display

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/BeatGlow/linkdisplay/conn"
	"github.com/BeatGlow/linkdisplay/protocol"
)

// LinkState is the connection state of a Link.
type LinkState uint8

// Link states.
const (
	Disconnected LinkState = iota
	Connected
)

func (s LinkState) String() string {
	if s == Connected {
		return "connected"
	}
	return "disconnected"
}

// LinkConfig describes the Link configuration.
type LinkConfig struct {
	// AckTimeout is how long Send waits for the module to acknowledge a frame.
	AckTimeout time.Duration

	// Logger receives diagnostics. Optional.
	Logger *log.Logger

	// OnConnected is called after the link connected. Optional.
	OnConnected func()

	// OnDisconnected is called after the link disconnected and its Conn was
	// closed. It is never called with the Link or Scheduler lock held. Optional.
	OnDisconnected func()

	// OnLine receives inbound lines other than acknowledgements. Optional.
	//
	// OnLine runs on the receiving goroutine of the Conn. Closing a Conn waits for
	// that goroutine, so OnLine must not call Disconnect.
	OnLine func(string)
}

// DefaultLinkConfig are the default configuration values.
var DefaultLinkConfig = LinkConfig{
	AckTimeout: time.Second,
}

// Link sends frames over a Conn and waits for each frame to be acknowledged.
//
// Send and SendText must not be called concurrently; the Scheduler serializes
// them under its lock.
type Link struct {
	conn   Conn
	config LinkConfig
	logger *log.Logger

	mu    sync.Mutex
	state LinkState

	// closing is set when a transport fault took the link down and the Conn
	// still has to be closed.
	closing bool

	rxMu  sync.Mutex
	lines protocol.LineSplitter

	ack chan struct{}
}

// NewLink returns a disconnected Link over c.
func NewLink(c Conn, config *LinkConfig) *Link {
	if config == nil {
		config = new(LinkConfig)
		*config = DefaultLinkConfig
	}
	l := &Link{
		conn:   c,
		config: *config,
		ack:    make(chan struct{}, 1),
	}
	if l.config.AckTimeout <= 0 {
		l.config.AckTimeout = DefaultLinkConfig.AckTimeout
	}
	l.logger = discardLogger(l.config.Logger)
	return l
}

func (l *Link) String() string {
	return fmt.Sprintf("link over %s (%s)", l.conn, l.State())
}

// State returns the current link state.
func (l *Link) State() LinkState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Connected reports if the link is connected.
func (l *Link) Connected() bool {
	return l.State() == Connected
}

// Connect opens the underlying Conn. Connecting a connected link is a no-op.
func (l *Link) Connect() error {
	l.teardown()

	l.mu.Lock()
	if l.state == Connected {
		l.mu.Unlock()
		return nil
	}

	l.rxMu.Lock()
	l.lines.Reset()
	l.rxMu.Unlock()
	l.drainAck()

	if err := l.conn.Open(l.receive); err != nil {
		l.mu.Unlock()
		return fmt.Errorf("display: connect %s: %w", l.conn, err)
	}
	l.state = Connected
	l.mu.Unlock()

	l.logger.Printf("%s: connected", l.conn)
	if l.config.OnConnected != nil {
		l.config.OnConnected()
	}
	return nil
}

// Disconnect closes the underlying Conn. The link is disconnected afterwards, even
// if closing failed.
func (l *Link) Disconnect() error {
	l.mu.Lock()
	if l.state == Disconnected && !l.closing {
		l.mu.Unlock()
		return nil
	}
	l.state = Disconnected
	l.closing = false
	l.mu.Unlock()

	return l.close()
}

// teardown closes the Conn after a transport fault. It must be called without
// any lock held, since it runs the OnDisconnected callback.
func (l *Link) teardown() {
	l.mu.Lock()
	closing := l.closing
	l.closing = false
	l.mu.Unlock()

	if closing {
		_ = l.close()
	}
}

func (l *Link) close() error {
	err := l.conn.Close()
	if err != nil {
		l.logger.Printf("%s: close failed: %v", l.conn, err)
	} else {
		l.logger.Printf("%s: disconnected", l.conn)
	}
	if l.config.OnDisconnected != nil {
		l.config.OnDisconnected()
	}
	return err
}

// receive splits inbound bytes into lines.
func (l *Link) receive(p []byte) {
	var lines []string
	l.rxMu.Lock()
	l.lines.Feed(p, func(line string) {
		lines = append(lines, line)
	})
	l.rxMu.Unlock()

	for _, line := range lines {
		if protocol.IsAck(line) {
			select {
			case l.ack <- struct{}{}:
			default:
			}
			continue
		}
		if debug {
			log.Printf("display: %s: received %q", l.conn, line)
		}
		if l.config.OnLine != nil {
			l.config.OnLine(line)
		}
	}
}

func (l *Link) drainAck() {
	select {
	case <-l.ack:
	default:
	}
}

// Send writes one frame and waits for the acknowledgement.
//
// A missing acknowledgement is logged and not an error. Transport faults
// disconnect the link and return an error wrapping ErrLinkDown; other write errors
// are returned as is.
func (l *Link) Send(f protocol.Frame) error {
	err := l.send(f)
	l.teardown()
	return err
}

// send is Send without closing the Conn after a transport fault. The caller
// must call teardown once it released its locks.
func (l *Link) send(f protocol.Frame) error {
	if err := l.write(f); err != nil {
		return err
	}
	if debug {
		log.Printf("display: %s: sent %s", l.conn, f)
	}

	timer := time.NewTimer(l.config.AckTimeout)
	defer timer.Stop()
	select {
	case <-l.ack:
	case <-timer.C:
		l.logger.Printf("%s: no acknowledgement for %s within %s", l.conn, f, l.config.AckTimeout)
		l.drainAck()
	}
	return nil
}

// SendText writes raw text, optionally followed by a newline. It does not wait
// for an acknowledgement.
func (l *Link) SendText(s string, newline bool) error {
	p := []byte(s)
	if newline {
		p = append(p, '\n')
	}
	err := l.write(p)
	l.teardown()
	return err
}

func (l *Link) write(p []byte) error {
	if !l.Connected() {
		return ErrNotConnected
	}

	l.drainAck()
	if _, err := l.conn.Write(p); err != nil {
		if !conn.IsTransportFault(err) {
			return err
		}
		l.logger.Printf("%s: write failed: %v", l.conn, err)
		l.fail()
		return fmt.Errorf("%w: %w", ErrLinkDown, err)
	}
	return nil
}

// fail marks the link down after a transport fault. The Conn is closed by the
// next teardown.
func (l *Link) fail() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.state == Connected {
		l.state = Disconnected
		l.closing = true
	}
}
