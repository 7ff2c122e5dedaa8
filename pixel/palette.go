package pixel

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/ericpauley/go-quantize/quantize"
)

// Palette limits.
const (
	MinPaletteSize = 8
	MaxPaletteSize = 256
)

// Palette errors.
var (
	ErrPaletteSize = errors.New("pixel: palette size out of range")
	ErrEmptyImage  = errors.New("pixel: image is empty")
)

// Palette maps quantized 16-bit colors to one byte indices.
//
// Indices are assigned in insertion order, starting at 0.
type Palette struct {
	// Mask used to reduce colors to palette keys.
	Mask Mask

	keys  []uint16
	index map[uint16]uint8
}

// NewPalette returns an empty palette that reduces colors through m.
func NewPalette(m Mask) *Palette {
	return &Palette{
		Mask:  m,
		index: make(map[uint16]uint8),
	}
}

// Len is the number of entries in the palette.
func (p *Palette) Len() int {
	return len(p.keys)
}

// Keys returns the palette keys in index order.
func (p *Palette) Keys() []uint16 {
	return append([]uint16(nil), p.keys...)
}

// Color returns the color stored at palette index i.
func (p *Palette) Color(i uint8) CRGB16 {
	if int(i) >= len(p.keys) {
		return CRGB16{}
	}
	return CRGB16{p.keys[i]}
}

// Key reduces c to its palette key.
func (p *Palette) Key(c color.RGBA) uint16 {
	return RGBTo16(c, p.Mask)
}

// Index returns the index of c, if its key is in the palette.
func (p *Palette) Index(c color.RGBA) (uint8, bool) {
	i, ok := p.index[p.Key(c)]
	return i, ok
}

// ColorIndex returns the index of c, falling back to the nearest entry.
func (p *Palette) ColorIndex(c color.RGBA) uint8 {
	if i, ok := p.Index(c); ok {
		return i
	}
	return p.Nearest(c)
}

// Nearest returns the index of the entry closest to c in RGB space.
func (p *Palette) Nearest(c color.RGBA) uint8 {
	var (
		best    uint8
		bestSum = uint32(1<<32 - 1)
	)
	for i, key := range p.keys {
		e := CRGB16{key}.RGB()
		sum := sqDiff(c.R, e.R) + sqDiff(c.G, e.G) + sqDiff(c.B, e.B)
		if sum < bestSum {
			best, bestSum = uint8(i), sum
			if sum == 0 {
				break
			}
		}
	}
	return best
}

func sqDiff(x, y uint8) uint32 {
	d := int32(x) - int32(y)
	return uint32(d * d)
}

// add inserts key if it is new and returns the palette size.
func (p *Palette) add(key uint16) int {
	if _, ok := p.index[key]; !ok {
		p.index[key] = uint8(len(p.keys))
		p.keys = append(p.keys, key)
	}
	return len(p.keys)
}

func (p *Palette) String() string {
	r, g, b := p.Mask.Bits()
	return fmt.Sprintf("palette of %d colors at %d-%d-%d bits", len(p.keys), r, g, b)
}

func checkPaletteSize(size int) error {
	if size < MinPaletteSize || size > MaxPaletteSize {
		return fmt.Errorf("%w: %d is not in [%d,%d]", ErrPaletteSize, size, MinPaletteSize, MaxPaletteSize)
	}
	return nil
}

// scanPalette quantizes every pixel of m through mask, left to right and top to
// bottom. It stops early and returns false once more than maxSize keys are found.
func scanPalette(m image.Image, mask Mask, maxSize int) (*Palette, bool) {
	var (
		p = NewPalette(mask)
		b = m.Bounds()
	)
	if rgba, ok := m.(*image.RGBA); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				if p.add(p.Key(rgba.RGBAAt(x, y))) > maxSize {
					return p, false
				}
			}
		}
		return p, true
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(m.At(x, y)).(color.RGBA)
			if p.add(p.Key(c)) > maxSize {
				return p, false
			}
		}
	}
	return p, true
}

// BuildPalette finds the most precise channel masks that reduce m to at most
// maxSize colors.
//
// The scan starts at full 5-6-5 precision. Every compliant scan is remembered and
// followed by an attempt with one more bit of precision, rotating over the red,
// green and blue channels. Scans with too many colors coarsen all channels by one
// bit until a compliant scan is found. The result is deterministic for a given
// image; m must not be modified while the palette is built.
func BuildPalette(m image.Image, maxSize int) (*Palette, error) {
	if err := checkPaletteSize(maxSize); err != nil {
		return nil, err
	}
	if m == nil || m.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	var (
		mask   = FullMask
		next   int
		best   *Palette
		finer  bool
		p      *Palette
		inSize bool
	)
	for {
		if p, inSize = scanPalette(m, mask, maxSize); inSize {
			best = p
			if mask, next, finer = mask.Finer(next); !finer {
				return best, nil
			}
			continue
		}
		if best != nil {
			return best, nil
		}
		mask = mask.Coarser()
	}
}

// MedianCutPalette reduces m to at most maxSize colors with a median cut
// quantizer. The palette keeps full 5-6-5 precision, so colors of m that are not
// exactly in the palette are mapped to their nearest entry.
func MedianCutPalette(m image.Image, maxSize int) (*Palette, error) {
	if err := checkPaletteSize(maxSize); err != nil {
		return nil, err
	}
	if m == nil || m.Bounds().Empty() {
		return nil, ErrEmptyImage
	}

	q := quantize.MedianCutQuantizer{}
	p := NewPalette(FullMask)
	for _, c := range q.Quantize(make(color.Palette, 0, maxSize), m) {
		p.add(p.Key(color.RGBAModel.Convert(c).(color.RGBA)))
	}
	return p, nil
}
