// Package conn wraps the byte channels used to reach display modules.
package conn

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"go.bug.st/serial"
	"periph.io/x/conn/v3/physic"
)

// ErrClosed is returned when using a port after Close.
var ErrClosed = errors.New("conn: port is closed")

// Serial is an opened serial port.
type Serial struct {
	port   serial.Port
	name   string
	baud   int
	closed atomic.Bool
}

// OpenSerial opens the named serial port at baud, 8 data bits, no parity and one stop bit.
//
// Reads return after readTimeout without data, so a reader loop can notice Close;
// zero blocks until data arrives.
func OpenSerial(name string, baud int, readTimeout time.Duration) (*Serial, error) {
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: baud,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}

	if readTimeout > 0 {
		if err = port.SetReadTimeout(readTimeout); err != nil {
			_ = port.Close()
			return nil, err
		}
	}

	return &Serial{
		port: port,
		name: name,
		baud: baud,
	}, nil
}

// Ports lists the serial ports found on the system.
func Ports() ([]string, error) {
	return serial.GetPortsList()
}

func (c *Serial) String() string {
	return fmt.Sprintf("serial port %s at %s", c.name, physic.Frequency(c.baud)*physic.Hertz)
}

func (c *Serial) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	return c.port.Close()
}

// SetDTR toggles the data terminal ready line, which resets most Arduino boards.
func (c *Serial) SetDTR(v bool) error {
	return c.port.SetDTR(v)
}

// Read reads inbound bytes. It returns 0, nil when the read timeout expires.
func (c *Serial) Read(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	return c.port.Read(p)
}

func (c *Serial) Write(p []byte) (int, error) {
	if c.closed.Load() {
		return 0, ErrClosed
	}
	return c.port.Write(p)
}

// IsTransportFault reports if err is a fault of the byte channel itself: a closed
// or missing port, a timeout or an invalid argument. Such faults mean the link is
// gone; anything else is a programming or system error.
func IsTransportFault(err error) bool {
	if err == nil {
		return false
	}
	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		return true
	}
	var timeout interface{ Timeout() bool }
	if errors.As(err, &timeout) && timeout.Timeout() {
		return true
	}
	for _, target := range transportFaults {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

var transportFaults = []error{
	ErrClosed,
	os.ErrClosed,
	os.ErrInvalid,
	os.ErrNotExist,
	os.ErrDeadlineExceeded,
	io.EOF,
	io.ErrUnexpectedEOF,
	io.ErrClosedPipe,
	io.ErrShortWrite,
}
