package pixel

import (
	"image/color"
	"testing"
)

func TestRGBTo16(t *testing.T) {
	tests := []struct {
		Name string
		In   color.RGBA
		Mask Mask
		Want uint16
	}{
		{"black", color.RGBA{A: 0xff}, FullMask, 0x0000},
		{"white", color.RGBA{0xff, 0xff, 0xff, 0xff}, FullMask, 0xffff},
		{"red", color.RGBA{R: 0xff, A: 0xff}, FullMask, 0xF800},
		{"green", color.RGBA{G: 0xff, A: 0xff}, FullMask, 0x07E0},
		{"green 5 bits", color.RGBA{G: 0xff, A: 0xff}, Mask{0xF8, 0xF8, 0xF8}, 0x07C0},
		{"blue", color.RGBA{B: 0xff, A: 0xff}, FullMask, 0x001F},
		{"red low bits dropped", color.RGBA{R: 0x07, A: 0xff}, FullMask, 0x0000},
		{"coarse", color.RGBA{0xff, 0xff, 0xff, 0xff}, Mask{0xC0, 0xC0, 0xC0}, 0xC000 | 0x0600 | 0x0018},
		{"zero mask", color.RGBA{0x12, 0x34, 0x56, 0xff}, Mask{}, 0x0000},
	}
	for _, test := range tests {
		t.Run(test.Name, func(it *testing.T) {
			if v := RGBTo16(test.In, test.Mask); v != test.Want {
				it.Errorf("expected %#04x, got %#04x", test.Want, v)
			}
		})
	}
}

func TestRGBTo16RedField(t *testing.T) {
	for r := 0xF8; r <= 0xFF; r++ {
		v := RGBTo16(color.RGBA{R: uint8(r), A: 0xff}, FullMask)
		if v != 0xF800 {
			t.Errorf("red %#02x: expected %#04x, got %#04x", r, 0xF800, v)
		}
	}
}

func TestCRGB16ModelMatchesRGBTo16(t *testing.T) {
	for i := 0; i < 1000; i++ {
		c := testRandomColor().(color.RGBA)
		want := RGBTo16(c, FullMask)
		if v := CRGB16Model.Convert(c).(CRGB16).V; v != want {
			t.Fatalf("color %v: expected %#04x, got %#04x", c, want, v)
		}
		// Convert through a color type that is not color.RGBA.
		n := color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
		if v := CRGB16Model.Convert(n).(CRGB16).V; v != want {
			t.Fatalf("color %v: expected %#04x, got %#04x", n, want, v)
		}
	}
}

func TestCRGB16(t *testing.T) {
	tests := []struct {
		V       uint16
		R, G, B uint32
	}{
		{0x0000, 0x0000, 0x0000, 0x0000},
		{0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF},
		{0xF800, 0xFFFF, 0x0000, 0x0000},
		{0x07E0, 0x0000, 0xFFFF, 0x0000},
		{0x001F, 0x0000, 0x0000, 0xFFFF},
	}
	for _, test := range tests {
		r, g, b, a := CRGB16{test.V}.RGBA()
		if r != test.R || g != test.G || b != test.B || a != 0xffff {
			t.Errorf("%#04x: expected (%#04x,%#04x,%#04x), got (%#04x,%#04x,%#04x,%#04x)", test.V, test.R, test.G, test.B, r, g, b, a)
		}
	}
}

func TestMaskCoarser(t *testing.T) {
	m := FullMask
	want := []Mask{
		{0xF0, 0xF8, 0xF0},
		{0xE0, 0xF0, 0xE0},
		{0xC0, 0xE0, 0xC0},
		{0x80, 0xC0, 0x80},
		{0x00, 0x80, 0x00},
		{0x00, 0x00, 0x00},
		{0x00, 0x00, 0x00},
	}
	for i, w := range want {
		if m = m.Coarser(); m != w {
			t.Fatalf("step %d: expected %+v, got %+v", i, w, m)
		}
	}
}

func TestMaskFiner(t *testing.T) {
	var (
		m    = Mask{0xE0, 0xF0, 0xE0}
		next int
		ok   bool
	)
	want := []Mask{
		{0xF0, 0xF0, 0xE0}, // R
		{0xF0, 0xF8, 0xE0}, // G
		{0xF0, 0xF8, 0xF0}, // B
		{0xF8, 0xF8, 0xF0}, // R, now full
		{0xF8, 0xFC, 0xF0}, // G, now full
		{0xF8, 0xFC, 0xF8}, // B, now full
	}
	for i, w := range want {
		if m, next, ok = m.Finer(next); !ok {
			t.Fatalf("step %d: expected more precision", i)
		}
		if m != w {
			t.Fatalf("step %d: expected %+v, got %+v", i, w, m)
		}
	}
	if _, _, ok = m.Finer(next); ok {
		t.Fatal("expected full mask to not increase")
	}
	if !m.IsFull() {
		t.Fatalf("expected full mask, got %+v", m)
	}
}

func TestMaskFinerSkipsFullChannel(t *testing.T) {
	m, next, ok := Mask{0xF8, 0xF0, 0xF0}.Finer(0)
	if !ok {
		t.Fatal("expected more precision")
	}
	if want := (Mask{0xF8, 0xF8, 0xF0}); m != want {
		t.Fatalf("expected %+v, got %+v", want, m)
	}
	if next != 2 {
		t.Fatalf("expected next channel 2, got %d", next)
	}
}
