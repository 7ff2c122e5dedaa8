package display

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"slices"
	"strings"

	"github.com/BeatGlow/linkdisplay/pixel"
)

// Quantizer selects how the palette of indexed displays is built.
type Quantizer uint8

// Quantizers.
const (
	// MaskQuantizer reduces channel precision until the image fits the palette.
	MaskQuantizer Quantizer = iota

	// MedianCutQuantizer picks the palette with a median cut.
	MedianCutQuantizer
)

// ErrQuantizer is returned for unknown quantizer names.
var ErrQuantizer = errors.New("display: unknown quantizer")

// ParseQuantizer parses the name of a quantizer, as returned by Quantizer.String.
func ParseQuantizer(name string) (Quantizer, error) {
	switch strings.ToLower(name) {
	case "", "mask":
		return MaskQuantizer, nil
	case "median-cut", "mediancut":
		return MedianCutQuantizer, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrQuantizer, name)
	}
}

func (q Quantizer) String() string {
	switch q {
	case MaskQuantizer:
		return "mask"
	case MedianCutQuantizer:
		return "median-cut"
	default:
		return fmt.Sprintf("quantizer %d", uint8(q))
	}
}

// Palette builds a palette of at most size colors for m.
func (q Quantizer) Palette(m image.Image, size int) (*pixel.Palette, error) {
	switch q {
	case MaskQuantizer:
		return pixel.BuildPalette(m, size)
	case MedianCutQuantizer:
		return pixel.MedianCutPalette(m, size)
	default:
		return nil, fmt.Errorf("%w: %d", ErrQuantizer, uint8(q))
	}
}

// DisplayConfig describes a display module.
type DisplayConfig struct {
	// Index addresses the display.
	Index int

	// Width in pixels, must be a multiple of every tier's column span.
	Width int

	// Height in pixels, must be a multiple of every tier's row span.
	Height int

	// PaletteSize enables indexed high resolution lines with a palette of this
	// many colors. Zero disables indexed mode.
	PaletteSize int

	// Quantizer builds the palette.
	Quantizer Quantizer

	// Order of the bytes of 16-bit colors on the wire.
	Order binary.ByteOrder
}

// DefaultDisplayConfig are the default configuration values.
var DefaultDisplayConfig = DisplayConfig{
	Width:  160,
	Height: 128,
	Order:  binary.BigEndian,
}

// Validate checks if the display dimensions fit all tier spans.
func (config *DisplayConfig) Validate() error {
	if config.Index < 0 {
		return fmt.Errorf("%w: display index %d", ErrInvalidSize, config.Index)
	}
	if config.Width <= 0 || config.Height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, config.Width, config.Height)
	}
	for _, tier := range Tiers {
		colSpan, rowSpan := tier.Span()
		if config.Width%colSpan != 0 || config.Height%rowSpan != 0 {
			return fmt.Errorf("%w: %dx%d by %s span %dx%d", ErrSpan, config.Width, config.Height, tier, colSpan, rowSpan)
		}
	}
	if config.PaletteSize != 0 {
		if config.PaletteSize < pixel.MinPaletteSize || config.PaletteSize > pixel.MaxPaletteSize {
			return fmt.Errorf("%w: %d", pixel.ErrPaletteSize, config.PaletteSize)
		}
	}
	if config.Quantizer > MedianCutQuantizer {
		return fmt.Errorf("%w: %d", ErrQuantizer, uint8(config.Quantizer))
	}
	return nil
}

// target is the registry state of one display.
type target struct {
	config DisplayConfig
	link   *Link

	source  image.Image
	scaled  *image.RGBA
	palette *pixel.Palette

	paletteDirty bool
	submits      uint64
	cursor       [numTiers]int
	complete     [numTiers]bool

	// shadow mirrors the pixels transmitted to the module.
	shadow *pixel.CRGB16Image
}

// reset discards the progress of all tiers.
func (t *target) reset() {
	for i := range t.cursor {
		t.cursor[i] = 0
		t.complete[i] = false
	}
}

// registry holds the displays by index. It is guarded by the Scheduler lock.
type registry struct {
	displays map[int]*target
}

func newRegistry() registry {
	return registry{displays: make(map[int]*target)}
}

func (r *registry) add(config *DisplayConfig) (*target, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: no configuration", ErrInvalidSize)
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if _, exists := r.displays[config.Index]; exists {
		return nil, fmt.Errorf("%w: %d", ErrDisplayExists, config.Index)
	}

	t := &target{config: *config}
	if t.config.Order == nil {
		t.config.Order = DefaultDisplayConfig.Order
	}
	t.shadow = pixel.NewCRGB16Image(t.config.Width, t.config.Height)
	t.shadow.Order = t.config.Order
	r.displays[config.Index] = t
	return t, nil
}

func (r *registry) get(index int) (*target, error) {
	t, ok := r.displays[index]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownDisplay, index)
	}
	return t, nil
}

// indexes returns the display indexes in ascending order.
func (r *registry) indexes() []int {
	out := make([]int, 0, len(r.displays))
	for index := range r.displays {
		out = append(out, index)
	}
	slices.Sort(out)
	return out
}
