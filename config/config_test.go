package config

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	display "github.com/BeatGlow/linkdisplay"
	"github.com/BeatGlow/linkdisplay/pixel"
)

const testConfig = `
port: /dev/ttyUSB0
baud: 115200
ack_timeout: 250ms
tick_interval: 2ms
byte_order: little
displays:
  - index: 0
    width: 160
    height: 128
    palette_size: 64
    quantizer: median-cut
  - index: 3
    width: 320
    height: 240
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "linkdisplay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testConfig), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", cfg.Port)
	assert.Equal(t, 115200, cfg.Baud)
	assert.Equal(t, 250*time.Millisecond, cfg.AckTimeout)
	assert.Equal(t, 2*time.Millisecond, cfg.TickInterval)
	require.Len(t, cfg.Displays, 2)

	displays, err := cfg.DisplayConfigs()
	require.NoError(t, err)
	require.Len(t, displays, 2)
	assert.Equal(t, 64, displays[0].PaletteSize)
	assert.Equal(t, display.MedianCutQuantizer, displays[0].Quantizer)
	assert.Equal(t, binary.LittleEndian, displays[0].Order)
	assert.Equal(t, 3, displays[1].Index)
	assert.Equal(t, 320, displays[1].Width)
	assert.Equal(t, display.MaskQuantizer, displays[1].Quantizer)

	serial, err := cfg.SerialConfig()
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", serial.Port)
	assert.Equal(t, 115200, serial.Baud)
	assert.Nil(t, serial.Reset)

	assert.Equal(t, 250*time.Millisecond, cfg.LinkConfig().AckTimeout)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("port: COM3\n"))
	require.NoError(t, err)
	assert.Equal(t, display.DefaultSerialConfig.Baud, cfg.Baud)
	assert.Equal(t, display.DefaultLinkConfig.AckTimeout, cfg.AckTimeout)
	require.Len(t, cfg.Displays, 1)
	assert.Equal(t, DefaultDisplay(0), cfg.Displays[0])

	order, err := cfg.Order()
	require.NoError(t, err)
	assert.Equal(t, binary.BigEndian, order)
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		err  error
	}{
		{"byte order", "byte_order: middle\n", ErrInvalid},
		{"span", "displays:\n  - {index: 0, width: 150, height: 128}\n", display.ErrSpan},
		{"duplicate", "displays:\n  - {index: 1}\n  - {index: 1}\n", display.ErrDisplayExists},
		{"palette", "displays:\n  - {index: 0, palette_size: 4}\n", pixel.ErrPaletteSize},
		{"quantizer", "displays:\n  - {index: 0, quantizer: octree}\n", display.ErrQuantizer},
		{"timeout", "ack_timeout: -1s\n", ErrInvalid},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, err := Parse([]byte(test.yaml))
			assert.ErrorIs(t, err, test.err)
		})
	}

	_, err := Parse([]byte("displays: [\n"))
	assert.Error(t, err)
}

func TestSerialConfigNoPort(t *testing.T) {
	_, err := Default().SerialConfig()
	assert.ErrorIs(t, err, ErrInvalid)
}
