package display

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/BeatGlow/linkdisplay/conn"
)

// Conn errors.
var (
	ErrResetPin = errors.New("display: reset GPIO pin is invalid")
	ErrPortName = errors.New("display: serial port name is empty")
)

// Conn is the duplex byte channel a Link talks over.
type Conn interface {
	String() string

	// Open the channel. Inbound bytes are passed to receive, from any goroutine,
	// until the channel is closed.
	Open(receive func([]byte)) error

	// Close the channel.
	Close() error

	// Write bytes to the channel.
	Write([]byte) (int, error)
}

// SerialConfig describes the serial port configuration.
type SerialConfig struct {
	// Port name, such as /dev/ttyUSB0 or COM3.
	Port string

	// Baud rate.
	Baud int

	// ReadTimeout bounds each read of the receive loop.
	ReadTimeout time.Duration

	// Reset pin, pulsed when the port is opened. Optional.
	Reset gpio.PinOut

	// ResetDTR pulses the DTR line when the port is opened.
	ResetDTR bool

	// Settle is the time to wait after a reset before sending.
	Settle time.Duration

	// Logger receives diagnostics. Optional.
	Logger *log.Logger
}

// DefaultSerialConfig are the default configuration values.
var DefaultSerialConfig = SerialConfig{
	Baud:        250_000,
	ReadTimeout: 50 * time.Millisecond,
	Settle:      2 * time.Second,
}

// ValidBauds are the common serial baud rates.
var ValidBauds = []int{
	9_600,
	19_200,
	38_400,
	57_600,
	115_200,
	230_400,
	250_000,
	460_800,
	500_000,
	921_600,
	1_000_000,
	2_000_000,
}

// ResetPin resolves a GPIO pin by name, as a reset line for SerialConfig.
func ResetPin(name string) (gpio.PinOut, error) {
	if name == "" {
		return nil, nil
	}
	pin := gpioreg.ByName(name)
	if pin == nil || pin == gpio.INVALID {
		return nil, fmt.Errorf("%w: %q", ErrResetPin, name)
	}
	return pin, nil
}

type serialConn struct {
	config SerialConfig
	logger *log.Logger

	mu   sync.Mutex
	port *conn.Serial
	done chan struct{}
}

// NewSerial returns a Conn for a serial port. The port is opened by Conn.Open.
func NewSerial(config *SerialConfig) (Conn, error) {
	if config == nil {
		config = new(SerialConfig)
		*config = DefaultSerialConfig
	}
	if config.Port == "" {
		return nil, ErrPortName
	}

	c := &serialConn{config: *config}
	if c.config.Baud == 0 {
		c.config.Baud = DefaultSerialConfig.Baud
	}
	if c.config.ReadTimeout == 0 {
		c.config.ReadTimeout = DefaultSerialConfig.ReadTimeout
	}
	var valid bool
	for _, baud := range ValidBauds {
		if valid = baud == c.config.Baud; valid {
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("display: invalid baud rate %d", c.config.Baud)
	}
	if c.config.Reset == gpio.INVALID {
		return nil, ErrResetPin
	}
	c.logger = discardLogger(c.config.Logger)
	return c, nil
}

func (c *serialConn) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.port != nil {
		return c.port.String()
	}
	return fmt.Sprintf("serial port %s (closed)", c.config.Port)
}

func (c *serialConn) Open(receive func([]byte)) (err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.port != nil {
		return nil
	}

	var port *conn.Serial
	if port, err = conn.OpenSerial(c.config.Port, c.config.Baud, c.config.ReadTimeout); err != nil {
		return err
	}
	if err = c.reset(port); err != nil {
		_ = port.Close()
		return err
	}

	c.port = port
	c.done = make(chan struct{})
	go c.receive(port, c.done, receive)
	return nil
}

// reset the device, either through the reset pin or the DTR line.
func (c *serialConn) reset(port *conn.Serial) (err error) {
	switch {
	case c.config.Reset != nil:
		if err = c.config.Reset.Out(gpio.High); err != nil {
			return
		}
		time.Sleep(100 * time.Millisecond)
		if err = c.config.Reset.Out(gpio.Low); err != nil {
			return
		}
		time.Sleep(100 * time.Millisecond)
		if err = c.config.Reset.Out(gpio.High); err != nil {
			return
		}
	case c.config.ResetDTR:
		if err = port.SetDTR(false); err != nil {
			return
		}
		time.Sleep(100 * time.Millisecond)
		if err = port.SetDTR(true); err != nil {
			return
		}
	default:
		return nil
	}

	c.logger.Printf("%s: reset, waiting %s for the device to boot", port, c.config.Settle)
	time.Sleep(c.config.Settle)
	return nil
}

func (c *serialConn) receive(port *conn.Serial, done chan struct{}, receive func([]byte)) {
	defer close(done)
	buf := make([]byte, 256)
	for {
		n, err := port.Read(buf)
		if n > 0 && receive != nil {
			receive(buf[:n])
		}
		if err != nil {
			if !conn.IsTransportFault(err) {
				c.logger.Printf("%s: read failed: %v", port, err)
			}
			return
		}
	}
}

func (c *serialConn) Close() error {
	c.mu.Lock()
	port, done := c.port, c.done
	c.port, c.done = nil, nil
	c.mu.Unlock()

	if port == nil {
		return nil
	}
	err := port.Close()
	<-done
	return err
}

func (c *serialConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	port := c.port
	c.mu.Unlock()

	if port == nil {
		return 0, conn.ErrClosed
	}
	return port.Write(p)
}
