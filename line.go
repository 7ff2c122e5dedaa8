package display

import (
	"image"
	"image/color"
)

// averageLine returns the colors of output row of a tier, each the truncated mean
// of a colSpan by rowSpan block of m.
func averageLine(m *image.RGBA, row, colSpan, rowSpan int) []color.RGBA {
	var (
		b    = m.Bounds()
		y0   = b.Min.Y + row*rowSpan
		y1   = min(y0+rowSpan, b.Max.Y)
		line = make([]color.RGBA, 0, b.Dx()/colSpan)
	)
	for x0 := b.Min.X; x0+colSpan <= b.Max.X; x0 += colSpan {
		line = append(line, averageBlock(m, image.Rect(x0, y0, x0+colSpan, y1)))
	}
	return line
}

func averageBlock(m *image.RGBA, r image.Rectangle) color.RGBA {
	var (
		sr, sg, sb uint32
		n          = uint32(r.Dx() * r.Dy())
	)
	if n == 0 {
		return color.RGBA{A: 0xff}
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := m.PixOffset(r.Min.X, y)
		for x := r.Min.X; x < r.Max.X; x, i = x+1, i+4 {
			sr += uint32(m.Pix[i+0])
			sg += uint32(m.Pix[i+1])
			sb += uint32(m.Pix[i+2])
		}
	}
	return color.RGBA{
		R: uint8(sr / n),
		G: uint8(sg / n),
		B: uint8(sb / n),
		A: 0xff,
	}
}
