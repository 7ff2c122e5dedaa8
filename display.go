// Package display pushes images to small display modules over a serial link.
//
// Images are delivered progressively: a coarse preview is drawn first, then a
// medium and finally the full resolution image, one line per Scheduler tick. Every
// display is addressed by a stable index and bound to a Link, which carries the
// frames of the protocol package and waits for the module to acknowledge each one.
package display

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
)

var debug bool

func init() {
	debug = os.Getenv("LINKDISPLAY_DEBUG") != ""
}

// Errors
var (
	ErrSpan           = errors.New("display: span does not divide the display size")
	ErrInvalidSize    = errors.New("display: invalid display size")
	ErrDisplayExists  = errors.New("display: display index already in use")
	ErrUnknownDisplay = errors.New("display: unknown display index")
	ErrNilImage       = errors.New("display: image is nil")
	ErrNotConnected   = errors.New("display: link is not connected")
	ErrLinkDown       = errors.New("display: link went down")
)

// Tier is the resolution level of a progressive update.
type Tier uint8

// Supported tiers, in drawing priority.
const (
	Low Tier = iota
	Medium
	High
	numTiers
)

// Tiers lists all tiers in drawing priority.
var Tiers = [numTiers]Tier{Low, Medium, High}

var tierSpans = [numTiers]struct{ col, row int }{
	Low:    {20, 16},
	Medium: {4, 4},
	High:   {1, 1},
}

func (t Tier) String() string {
	switch t {
	case Low:
		return "low-res"
	case Medium:
		return "med-res"
	case High:
		return "high-res"
	default:
		return fmt.Sprintf("tier %d", uint8(t))
	}
}

// Span returns the number of source columns and rows averaged into one output pixel.
func (t Tier) Span() (colSpan, rowSpan int) {
	s := tierSpans[t%numTiers]
	return s.col, s.row
}

// Indexed reports if lines of this tier may be sent as palette indices.
func (t Tier) Indexed() bool {
	return t == High
}

// Rows is the number of lines needed to draw a display of the given height.
func (t Tier) Rows(height int) int {
	_, rowSpan := t.Span()
	return (height + rowSpan - 1) / rowSpan
}

func discardLogger(logger *log.Logger) *log.Logger {
	if logger == nil {
		return log.New(io.Discard, "", 0)
	}
	return logger
}
