// Package pixel implements the color handling for progressive display updates.
//
// It provides the 16-bit 5-6-5 RGB color model used on the wire, compatible with Go's
// native [color.Color] and [image.Image] / [draw.Image] interfaces, and the adaptive
// palette builder used when pixels are sent as one byte palette indices.
package pixel
