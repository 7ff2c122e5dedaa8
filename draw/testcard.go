package draw

import (
	"fmt"
	"image"
	"image/color"
	"sync"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// Gradient returns a gray ramp from black on the left to white on the right,
// constant within each colSpan wide column block. Each block takes the value of
// its center column.
func Gradient(w, h, colSpan int) *image.RGBA {
	if colSpan < 1 {
		colSpan = 1
	}
	m := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		i := x / colSpan
		v := uint8((i*colSpan + (colSpan-1)/2) * 255 / w)
		for y := 0; y < h; y++ {
			m.SetRGBA(x, y, color.RGBA{R: v, G: v, B: v, A: 0xff})
		}
	}
	return m
}

// TestCard returns a color test card: hue bars, a gray ramp, a border, both
// diagonals and the image size as a label.
func TestCard(w, h int) (*image.RGBA, error) {
	m := image.NewRGBA(image.Rect(0, 0, w, h))

	bars := []color.RGBA{
		{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
		{R: 0xff, G: 0xff, A: 0xff},
		{G: 0xff, B: 0xff, A: 0xff},
		{G: 0xff, A: 0xff},
		{R: 0xff, B: 0xff, A: 0xff},
		{R: 0xff, A: 0xff},
		{B: 0xff, A: 0xff},
		{A: 0xff},
	}
	barHeight := h * 2 / 3
	for i, c := range bars {
		x0, x1 := i*w/len(bars), (i+1)*w/len(bars)
		Box(m, image.Rect(x0, 0, x1, barHeight), c)
	}
	Draw(m, image.Rect(0, barHeight, w, h), Gradient(w, h-barHeight, 1), image.Point{}, Src)

	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	Rectangle(m, m.Rect, white)
	Line(m, image.Pt(0, 0), image.Pt(w-1, h-1), white)
	Line(m, image.Pt(w-1, 0), image.Pt(0, h-1), white)

	label := fmt.Sprintf("%dx%d", w, h)
	size := float64(h) / 8
	if size < 6 {
		return m, nil
	}
	if err := Label(m, image.Pt(4, barHeight-4), label, size, white); err != nil {
		return nil, fmt.Errorf("draw: test card label: %w", err)
	}
	return m, nil
}

var (
	regularTTF  = goregular.TTF
	regularOnce sync.Once
	regular     *truetype.Font
	regularErr  error
)

func regularFont() (*truetype.Font, error) {
	regularOnce.Do(func() {
		regular, regularErr = truetype.Parse(regularTTF)
	})
	return regular, regularErr
}

// Label draws text with its baseline starting at dot, in the Go regular font at
// size points, with a one pixel black drop shadow.
func Label(dst Image, dot image.Point, text string, size float64, c color.Color) error {
	f, err := regularFont()
	if err != nil {
		return err
	}
	face := truetype.NewFace(f, &truetype.Options{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	defer face.Close()

	shadow := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(dot.X+1, dot.Y+1),
	}
	shadow.DrawString(text)

	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(dot.X, dot.Y),
	}
	d.DrawString(text)
	return nil
}

// MeasureLabel returns the advance width in pixels of text drawn by Label.
func MeasureLabel(text string, size float64) (int, error) {
	f, err := regularFont()
	if err != nil {
		return 0, err
	}
	face := truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72})
	defer face.Close()
	return font.MeasureString(face, text).Ceil(), nil
}
