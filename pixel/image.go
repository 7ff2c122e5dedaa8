package pixel

import (
	"encoding/binary"
	"image"
	"image/color"

	"github.com/BeatGlow/linkdisplay/draw"
)

// Buffer holds the pixel values and is a container that is used by most image formats in this package.
type Buffer struct {
	// Rect is the image bounding box.
	Rect image.Rectangle

	// Pix are the image pixels.
	Pix []byte

	// Stride is the Pix stride (in bytes) between vertically adjacent pixels.
	Stride int
}

func (p *Buffer) Bounds() image.Rectangle {
	return p.Rect
}

func makeBuffer(w, h, stride, size int) Buffer {
	return Buffer{
		Rect:   image.Rect(0, 0, w, h),
		Pix:    make([]byte, size),
		Stride: stride,
	}
}

// CRGB16Image is a 16-bits per pixel 5-6-5-bit RGB image.
type CRGB16Image struct {
	Buffer
	Order binary.ByteOrder
}

func NewCRGB16Image(w, h int) *CRGB16Image {
	return &CRGB16Image{
		Buffer: makeBuffer(w, h, w*2, w*2*h),
		Order:  binary.BigEndian,
	}
}

func (p *CRGB16Image) ColorModel() color.Model {
	return CRGB16Model
}

func (p *CRGB16Image) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*2
}

func (p *CRGB16Image) At(x, y int) color.Color {
	return p.CRGB16At(x, y)
}

// CRGB16At returns the packed color at (x, y), or zero when out of bounds.
func (p *CRGB16Image) CRGB16At(x, y int) CRGB16 {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return CRGB16{}
	}
	return CRGB16{p.Order.Uint16(p.Pix[p.PixOffset(x, y):])}
}

func (p *CRGB16Image) Set(x, y int, c color.Color) {
	p.SetCRGB16(x, y, crgb16Model(c).(CRGB16))
}

func (p *CRGB16Image) SetCRGB16(x, y int, c CRGB16) {
	if !(image.Point{X: x, Y: y}).In(p.Rect) {
		return
	}
	p.Order.PutUint16(p.Pix[p.PixOffset(x, y):], c.V)
}

func (p *CRGB16Image) Fill(c color.Color) {
	p.FillRect(p.Rect, crgb16Model(c).(CRGB16))
}

// FillRect paints the part of r inside the image bounds with c.
func (p *CRGB16Image) FillRect(r image.Rectangle, c CRGB16) {
	r = r.Intersect(p.Rect)
	if r.Empty() {
		return
	}
	var value [2]byte
	p.Order.PutUint16(value[:], c.V)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := p.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x++ {
			copy(p.Pix[i:], value[:])
			i += 2
		}
	}
}

// Clone returns a copy that shares no pixel memory with p.
func (p *CRGB16Image) Clone() *CRGB16Image {
	c := &CRGB16Image{
		Buffer: Buffer{
			Rect:   p.Rect,
			Pix:    make([]byte, len(p.Pix)),
			Stride: p.Stride,
		},
		Order: p.Order,
	}
	copy(c.Pix, p.Pix)
	return c
}

// Interface checks.
var (
	_ draw.Image = (*CRGB16Image)(nil)
)
