// Package draw has drawing primitives and test patterns for display images.
package draw

import (
	"fmt"
	"image"
	"image/draw"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// Drawer is an alias for [image/draw.Drawer].
type Drawer = draw.Drawer

// Image is an alias for [image/draw.Image].
type Image = draw.Image

// Op is an alias for image/draw.Op
type Op = draw.Op

const (
	// Over specifies ``(src in mask) over dst''.
	Over Op = iota

	// Src specifies ``src in mask''.
	Src
)

// Scaler is an alias for [golang.org/x/image/draw.Scaler].
type Scaler = xdraw.Scaler

// Scalers by name, fastest first.
var Scalers = map[string]Scaler{
	"nearest":  xdraw.NearestNeighbor,
	"approx":   xdraw.ApproxBiLinear,
	"bilinear": xdraw.BiLinear,
	"catmull":  xdraw.CatmullRom,
}

// DefaultScaler is used when no scaler is selected.
var DefaultScaler Scaler = xdraw.CatmullRom

// ParseScaler returns the scaler with the given name.
func ParseScaler(name string) (Scaler, error) {
	if name == "" {
		return DefaultScaler, nil
	}
	if s, ok := Scalers[strings.ToLower(name)]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("draw: unknown scaler %q", name)
}

// Draw calls [DrawMask] with a nil mask.
func Draw(dst Image, r image.Rectangle, src image.Image, sp image.Point, op Op) {
	DrawMask(dst, r, src, sp, nil, image.Point{}, op)
}

// DrawMask aligns r.Min in dst with sp in src and mp in mask and then replaces the rectangle r
// in dst with the result of a Porter-Duff composition. A nil mask is treated as opaque.
func DrawMask(dst Image, r image.Rectangle, src image.Image, sp image.Point, mask image.Image, mp image.Point, op Op) {
	draw.DrawMask(dst, r, src, sp, mask, mp, op)
}

// Fit resamples src to a w by h RGBA image. Images that already have the right
// size are copied pixel for pixel.
func Fit(src image.Image, w, h int, scaler Scaler) *image.RGBA {
	var (
		dst = image.NewRGBA(image.Rect(0, 0, w, h))
		sr  = src.Bounds()
	)
	if sr.Dx() == w && sr.Dy() == h {
		Draw(dst, dst.Rect, src, sr.Min, Src)
		return dst
	}
	if scaler == nil {
		scaler = DefaultScaler
	}
	scaler.Scale(dst, dst.Rect, src, sr, xdraw.Src, nil)
	return dst
}
