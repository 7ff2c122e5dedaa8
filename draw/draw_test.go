package draw

import (
	"image"
	"image/color"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/gofont/goregular"
)

var white = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

func TestLine(t *testing.T) {
	m := image.NewRGBA(image.Rect(0, 0, 8, 8))
	Line(m, image.Pt(0, 0), image.Pt(7, 7), white)
	for i := 0; i < 8; i++ {
		assert.Equal(t, white, m.RGBAAt(i, i))
	}

	m = image.NewRGBA(image.Rect(0, 0, 8, 8))
	Line(m, image.Pt(7, 1), image.Pt(0, 4), white)
	assert.Equal(t, white, m.RGBAAt(7, 1))
	assert.Equal(t, white, m.RGBAAt(0, 4))
	var n int
	for x := 0; x < 8; x++ {
		for y := 0; y < 8; y++ {
			if m.RGBAAt(x, y) == white {
				n++
			}
		}
	}
	assert.Equal(t, 8, n)
}

func TestRectangle(t *testing.T) {
	m := image.NewRGBA(image.Rect(0, 0, 6, 4))
	Rectangle(m, image.Rect(1, 1, 5, 4), white)
	assert.Equal(t, white, m.RGBAAt(1, 1))
	assert.Equal(t, white, m.RGBAAt(4, 1))
	assert.Equal(t, white, m.RGBAAt(1, 3))
	assert.Equal(t, white, m.RGBAAt(4, 3))
	assert.Equal(t, white, m.RGBAAt(4, 2))
	assert.Equal(t, color.RGBA{}, m.RGBAAt(2, 2))
	assert.Equal(t, color.RGBA{}, m.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{}, m.RGBAAt(5, 3))
}

func TestBox(t *testing.T) {
	m := image.NewRGBA(image.Rect(0, 0, 4, 4))
	Box(m, image.Rect(1, 1, 3, 3), white)
	assert.Equal(t, white, m.RGBAAt(1, 1))
	assert.Equal(t, white, m.RGBAAt(2, 2))
	assert.Equal(t, color.RGBA{}, m.RGBAAt(3, 3))
}

func TestGradient(t *testing.T) {
	m := Gradient(160, 128, 20)
	// Block i has the value of its center column (i*20+9)*255/160.
	assert.Equal(t, uint8(14), m.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(14), m.RGBAAt(19, 127).G)
	assert.Equal(t, uint8(46), m.RGBAAt(20, 0).B)
	assert.Equal(t, uint8((7*20+9)*255/160), m.RGBAAt(159, 0).R)

	m = Gradient(160, 1, 1)
	assert.Equal(t, uint8(0), m.RGBAAt(0, 0).R)
	assert.Equal(t, uint8(159*255/160), m.RGBAAt(159, 0).R)
}

func TestTestCard(t *testing.T) {
	m, err := TestCard(160, 128)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 160, 128), m.Bounds())
	assert.Equal(t, white, m.RGBAAt(0, 64))
	assert.Equal(t, white, m.RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{B: 0xff, A: 0xff}, m.RGBAAt(130, 10))
}

func TestTestCardFontError(t *testing.T) {
	regularTTF, regularOnce = []byte("not a font"), sync.Once{}
	t.Cleanup(func() {
		regularTTF, regularOnce = goregular.TTF, sync.Once{}
	})

	_, err := TestCard(160, 128)
	assert.Error(t, err)

	m, err := TestCard(16, 16)
	require.NoError(t, err, "no label below 6 points")
	assert.Equal(t, image.Rect(0, 0, 16, 16), m.Bounds())
}

func TestLabel(t *testing.T) {
	m := image.NewRGBA(image.Rect(0, 0, 64, 24))
	require.NoError(t, Label(m, image.Pt(2, 18), "Hi", 16, white))

	var lit int
	for i := 0; i < len(m.Pix); i += 4 {
		if m.Pix[i] > 0x80 {
			lit++
		}
	}
	assert.Greater(t, lit, 10)

	w, err := MeasureLabel("Hi", 16)
	require.NoError(t, err)
	assert.Greater(t, w, 5)
	assert.Less(t, w, 40)
}

func TestFit(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 14, 12))
	src.SetRGBA(10, 10, white)

	same := Fit(src, 4, 2, nil)
	assert.Equal(t, white, same.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{}, same.RGBAAt(1, 0))

	nearest, err := ParseScaler("nearest")
	require.NoError(t, err)
	double := Fit(src, 8, 4, nearest)
	assert.Equal(t, white, double.RGBAAt(1, 1))
	assert.Equal(t, color.RGBA{}, double.RGBAAt(2, 2))

	_, err = ParseScaler("sinc")
	assert.Error(t, err)
	s, err := ParseScaler("")
	require.NoError(t, err)
	assert.Equal(t, DefaultScaler, s)
}
