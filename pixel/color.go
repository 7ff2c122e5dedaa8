package pixel

import "image/color"

// CRGB16Model is the model for 16-bit 5-6-5 RGB colors as sent over the wire.
var CRGB16Model color.Model = color.ModelFunc(crgb16Model)

// Mask selects the significant bits of each 8-bit channel before packing.
//
// The bits of every channel mask are aligned to the top of the byte, so a mask of
// 0xF0 keeps the four most significant bits of that channel.
type Mask struct {
	R, G, B uint8
}

// FullMask keeps every bit that fits into a 5-6-5 color.
var FullMask = Mask{R: 0xF8, G: 0xFC, B: 0xF8}

const numChannels = 3

func (m Mask) channel(i int) uint8 {
	switch i {
	case 0:
		return m.R
	case 1:
		return m.G
	default:
		return m.B
	}
}

func (m *Mask) setChannel(i int, v uint8) {
	switch i {
	case 0:
		m.R = v
	case 1:
		m.G = v
	default:
		m.B = v
	}
}

// IsFull reports if the mask keeps all 5-6-5 bits.
func (m Mask) IsFull() bool {
	return m == FullMask
}

// Coarser drops the least significant kept bit of every channel.
func (m Mask) Coarser() Mask {
	return Mask{
		R: (m.R & 0x7F) << 1,
		G: (m.G & 0x7F) << 1,
		B: (m.B & 0x7F) << 1,
	}
}

// Finer turns one masked-off bit back on. Channels are tried in R, G, B order
// starting at channel next; channels already at full precision are skipped.
// It returns the new mask, the channel to start from on the following call and
// false if every channel is at full precision.
func (m Mask) Finer(next int) (Mask, int, bool) {
	for i := 0; i < numChannels; i++ {
		c := (next + i) % numChannels
		v := m.channel(c)
		if v == FullMask.channel(c) {
			continue
		}
		m.setChannel(c, v>>1|0x80)
		return m, (c + 1) % numChannels, true
	}
	return m, next, false
}

// Bits is the number of bits kept per channel.
func (m Mask) Bits() (r, g, b int) {
	return popcount(m.R), popcount(m.G), popcount(m.B)
}

func popcount(v uint8) (n int) {
	for ; v != 0; v &= v - 1 {
		n++
	}
	return
}

// RGBTo16 reduces a 24-bit color to a 16-bit 5-6-5 value through the channel masks.
//
// Bit layout: RRRR RGGG GGGB BBBB, red is 0xF800, green is 0x07E0, blue is 0x001F.
func RGBTo16(c color.RGBA, m Mask) uint16 {
	return uint16(c.R&m.R)<<8 | uint16(c.G&m.G)<<3 | uint16(c.B&m.B)>>3
}

// CRGB16 represents a 16-bit 5-6-5 RGB color.
type CRGB16 struct {
	// CRed, 5, CGreen, 6, CBlue, 5
	V uint16
}

func (c CRGB16) RGBA() (r, g, b, a uint32) {
	// Build a 5- or 6-bit value at the top of the low byte of each component.
	red := (c.V & 0xF800) >> 8
	grn := (c.V & 0x07E0) >> 3
	blu := (c.V & 0x001F) << 3
	// Duplicate the high bits in the low bits.
	red |= red >> 5
	grn |= grn >> 6
	blu |= blu >> 5
	// Duplicate the whole value in the high byte.
	red |= red << 8
	grn |= grn << 8
	blu |= blu << 8
	return uint32(red), uint32(grn), uint32(blu), 0xffff
}

// RGB returns the 8-bit channels of the color, with the low bits filled in.
func (c CRGB16) RGB() color.RGBA {
	r, g, b, _ := c.RGBA()
	return color.RGBA{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8), A: 0xff}
}

func crgb16Model(c color.Color) color.Color {
	switch c := c.(type) {
	case CRGB16:
		return c
	case color.RGBA:
		return CRGB16{RGBTo16(c, FullMask)}
	default:
		r, g, b, _ := c.RGBA()
		r = (r & 0xF800)
		g = (g & 0xFC00) >> 5
		b = (b & 0xF800) >> 11
		return CRGB16{uint16(r | g | b)}
	}
}
