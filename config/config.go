// Package config loads the deployment configuration of display modules from YAML.
package config

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	display "github.com/BeatGlow/linkdisplay"
)

// ErrInvalid is wrapped by all validation errors.
var ErrInvalid = errors.New("config: invalid configuration")

// Config represents the complete configuration
type Config struct {
	Port         string          `yaml:"port"`          // serial port name
	Baud         int             `yaml:"baud"`          // serial baud rate
	ResetPin     string          `yaml:"reset_pin"`     // GPIO pin wired to the module reset, optional
	ResetDTR     bool            `yaml:"reset_dtr"`     // pulse DTR on connect
	AckTimeout   time.Duration   `yaml:"ack_timeout"`   // wait for each frame acknowledgement
	TickInterval time.Duration   `yaml:"tick_interval"` // time between drawn lines
	ByteOrder    string          `yaml:"byte_order"`    // big, little
	Displays     []DisplayConfig `yaml:"displays"`
}

// DisplayConfig defines a single display module
type DisplayConfig struct {
	Index       int    `yaml:"index"`
	Width       int    `yaml:"width"`
	Height      int    `yaml:"height"`
	PaletteSize int    `yaml:"palette_size"` // 0 disables indexed color
	Quantizer   string `yaml:"quantizer"`    // mask, median-cut
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Baud:         display.DefaultSerialConfig.Baud,
		AckTimeout:   display.DefaultLinkConfig.AckTimeout,
		TickInterval: display.DefaultTickInterval,
		ByteOrder:    "big",
	}
}

// Load reads and parses a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses a YAML configuration. Missing values are taken from Default.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if len(cfg.Displays) == 0 {
		cfg.Displays = []DisplayConfig{DefaultDisplay(0)}
	}
	for i := range cfg.Displays {
		d := &cfg.Displays[i]
		if d.Width == 0 && d.Height == 0 {
			d.Width, d.Height = display.DefaultDisplayConfig.Width, display.DefaultDisplayConfig.Height
		}
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// DefaultDisplay returns a display of the default size.
func DefaultDisplay(index int) DisplayConfig {
	return DisplayConfig{
		Index:     index,
		Width:     display.DefaultDisplayConfig.Width,
		Height:    display.DefaultDisplayConfig.Height,
		Quantizer: display.MaskQuantizer.String(),
	}
}

// Validate checks the configuration for consistency.
func Validate(cfg *Config) error {
	if cfg.AckTimeout < 0 {
		return fmt.Errorf("%w: negative ack_timeout %s", ErrInvalid, cfg.AckTimeout)
	}
	if cfg.TickInterval < 0 {
		return fmt.Errorf("%w: negative tick_interval %s", ErrInvalid, cfg.TickInterval)
	}
	if _, err := cfg.Order(); err != nil {
		return err
	}
	if _, err := cfg.DisplayConfigs(); err != nil {
		return err
	}
	return nil
}

// Order returns the byte order of 16-bit colors on the wire.
func (cfg *Config) Order() (binary.ByteOrder, error) {
	switch strings.ToLower(cfg.ByteOrder) {
	case "", "big", "big-endian":
		return binary.BigEndian, nil
	case "little", "little-endian":
		return binary.LittleEndian, nil
	default:
		return nil, fmt.Errorf("%w: byte_order %q", ErrInvalid, cfg.ByteOrder)
	}
}

// DisplayConfigs converts the displays to their library configuration.
func (cfg *Config) DisplayConfigs() ([]*display.DisplayConfig, error) {
	order, err := cfg.Order()
	if err != nil {
		return nil, err
	}

	var (
		out  = make([]*display.DisplayConfig, 0, len(cfg.Displays))
		seen = make(map[int]bool)
	)
	for _, d := range cfg.Displays {
		if seen[d.Index] {
			return nil, fmt.Errorf("%w: display %d: %w", ErrInvalid, d.Index, display.ErrDisplayExists)
		}
		seen[d.Index] = true

		q, err := display.ParseQuantizer(d.Quantizer)
		if err != nil {
			return nil, fmt.Errorf("%w: display %d: %w", ErrInvalid, d.Index, err)
		}
		c := &display.DisplayConfig{
			Index:       d.Index,
			Width:       d.Width,
			Height:      d.Height,
			PaletteSize: d.PaletteSize,
			Quantizer:   q,
			Order:       order,
		}
		if err = c.Validate(); err != nil {
			return nil, fmt.Errorf("%w: display %d: %w", ErrInvalid, d.Index, err)
		}
		out = append(out, c)
	}
	return out, nil
}

// SerialConfig returns the serial port configuration. The reset pin is looked up
// in the GPIO registry, so the host drivers must be initialized first.
func (cfg *Config) SerialConfig() (*display.SerialConfig, error) {
	if cfg.Port == "" {
		return nil, fmt.Errorf("%w: no port", ErrInvalid)
	}
	reset, err := display.ResetPin(cfg.ResetPin)
	if err != nil {
		return nil, err
	}
	c := display.DefaultSerialConfig
	c.Port = cfg.Port
	c.Reset = reset
	c.ResetDTR = cfg.ResetDTR
	if cfg.Baud != 0 {
		c.Baud = cfg.Baud
	}
	return &c, nil
}

// LinkConfig returns the link configuration.
func (cfg *Config) LinkConfig() *display.LinkConfig {
	c := display.DefaultLinkConfig
	if cfg.AckTimeout > 0 {
		c.AckTimeout = cfg.AckTimeout
	}
	return &c
}
