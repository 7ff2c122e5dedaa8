package display

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"github.com/BeatGlow/linkdisplay/draw"
	"github.com/BeatGlow/linkdisplay/pixel"
	"github.com/BeatGlow/linkdisplay/protocol"
)

// DefaultTickInterval is the Run interval used when none is given.
const DefaultTickInterval = 10 * time.Millisecond

// SchedulerConfig describes the Scheduler configuration.
type SchedulerConfig struct {
	// Scaler resamples submitted images to the display size.
	Scaler draw.Scaler

	// Logger receives progress and link diagnostics. Optional.
	Logger *log.Logger
}

// DefaultSchedulerConfig are the default configuration values.
var DefaultSchedulerConfig = SchedulerConfig{
	Scaler: draw.DefaultScaler,
}

// Progress is a snapshot of the drawing progress of one display.
type Progress struct {
	// Index of the display.
	Index int

	// Cursor is the next row to draw per tier.
	Cursor [numTiers]int

	// Queued reports per tier if rows are waiting to be drawn.
	Queued [numTiers]bool

	// Complete reports per tier if all rows of the current image were drawn.
	Complete [numTiers]bool

	// Palette is the palette of the current image, if any.
	Palette *pixel.Palette
}

// Scheduler shares links between displays and draws submitted images one line
// per Tick, coarse tiers first.
//
// A single lock guards the registry, the queues and all display state. Tick holds
// it for the full line, including the acknowledgement waits of the Link.
type Scheduler struct {
	config SchedulerConfig
	logger *log.Logger

	mu       sync.Mutex
	registry registry
	queues   [numTiers]*queue
}

// NewScheduler returns a Scheduler without displays.
func NewScheduler(config *SchedulerConfig) *Scheduler {
	if config == nil {
		config = new(SchedulerConfig)
		*config = DefaultSchedulerConfig
	}
	s := &Scheduler{
		config:   *config,
		registry: newRegistry(),
		queues: [numTiers]*queue{
			Low:    {lifo: false},
			Medium: {lifo: true},
			High:   {lifo: true},
		},
	}
	if s.config.Scaler == nil {
		s.config.Scaler = DefaultSchedulerConfig.Scaler
	}
	s.logger = discardLogger(s.config.Logger)
	return s
}

// AddDisplay registers a display. Displays persist for the life of the Scheduler.
func (s *Scheduler) AddDisplay(config *DisplayConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.registry.add(config)
	return err
}

// Attach binds a display to a link. A nil link detaches the display; lines of
// detached displays are skipped.
func (s *Scheduler) Attach(index int, link *Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.registry.get(index)
	if err != nil {
		return err
	}
	t.link = link
	return nil
}

// Displays returns the registered display indexes in ascending order.
func (s *Scheduler) Displays() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.indexes()
}

// Submit replaces the image of a display and restarts its progressive update.
//
// The image is resampled to the display size and, for indexed displays, reduced
// to a palette before the Scheduler lock is taken. When submits for the same
// display overlap, the last one to start wins. The Scheduler owns img afterwards;
// the caller must not modify it.
func (s *Scheduler) Submit(index int, img image.Image) error {
	if img == nil {
		return ErrNilImage
	}

	config, seq, err := s.beginSubmit(index)
	if err != nil {
		return err
	}

	scaled := draw.Fit(img, config.Width, config.Height, s.config.Scaler)

	var palette *pixel.Palette
	if config.PaletteSize > 0 {
		if palette, err = config.Quantizer.Palette(scaled, config.PaletteSize); err != nil {
			return fmt.Errorf("display %d: %w", index, err)
		}
		if debug {
			log.Printf("display: display %d: %s", index, palette)
		}
	}

	s.commitSubmit(index, seq, img, scaled, palette)
	return nil
}

// beginSubmit takes a submit sequence number for a display.
func (s *Scheduler) beginSubmit(index int) (DisplayConfig, uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.registry.get(index)
	if err != nil {
		return DisplayConfig{}, 0, err
	}
	t.submits++
	return t.config, t.submits, nil
}

// commitSubmit installs a prepared image, unless a later submit started since.
func (s *Scheduler) commitSubmit(index int, seq uint64, img image.Image, scaled *image.RGBA, palette *pixel.Palette) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, _ := s.registry.get(index)
	if t.submits != seq {
		s.logger.Printf("display %d: dropping image superseded by a later submit", index)
		return
	}
	t.source = img
	t.scaled = scaled
	t.palette = palette
	t.paletteDirty = palette != nil
	t.reset()
	for _, q := range s.queues {
		q.push(index)
	}
}

// Pending returns the number of queued tier entries.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int
	for _, q := range s.queues {
		n += q.Len()
	}
	return n
}

// Progress returns the drawing progress of a display.
func (s *Scheduler) Progress(index int) (Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.registry.get(index)
	if err != nil {
		return Progress{}, err
	}
	p := Progress{
		Index:    index,
		Cursor:   t.cursor,
		Complete: t.complete,
		Palette:  t.palette,
	}
	for tier, q := range s.queues {
		p.Queued[tier] = q.contains(index)
	}
	return p, nil
}

// Preview returns a copy of the pixels transmitted to a display so far.
func (s *Scheduler) Preview(index int) (*pixel.CRGB16Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, err := s.registry.get(index)
	if err != nil {
		return nil, err
	}
	return t.shadow.Clone(), nil
}

// next returns the display and tier to draw next.
func (s *Scheduler) next() (*target, Tier, bool) {
	for _, tier := range Tiers {
		if index, ok := s.queues[tier].front(); ok {
			t, err := s.registry.get(index)
			if err != nil {
				// Queues only hold registered displays.
				panic(err)
			}
			return t, tier, true
		}
	}
	return nil, 0, false
}

// Tick draws at most one line of one display.
//
// Link errors are returned without advancing, so the same line is drawn again by
// the next Tick. When the line took its link down, the link is closed and its
// OnDisconnected callback runs after the Scheduler lock is released.
func (s *Scheduler) Tick() error {
	link, err := s.tick()
	if link != nil {
		link.teardown()
	}
	return err
}

// tick draws a line under the Scheduler lock and returns the link it used.
func (s *Scheduler) tick() (*Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, tier, ok := s.next()
	if !ok {
		return nil, nil
	}
	if t.link == nil {
		s.advance(t, tier)
		return nil, nil
	}
	if err := s.drawLine(t, tier); err != nil {
		return t.link, err
	}
	s.advance(t, tier)
	return t.link, nil
}

// advance moves the cursor of tier past the drawn row.
func (s *Scheduler) advance(t *target, tier Tier) {
	_, rowSpan := tier.Span()
	t.cursor[tier]++
	if t.cursor[tier]*rowSpan >= t.config.Height {
		s.queues[tier].remove(t.config.Index)
		t.complete[tier] = true
	}
	if t.cursor[tier] >= tier.Rows(t.config.Height) {
		t.cursor[tier] = 0
	}
}

func (s *Scheduler) drawLine(t *target, tier Tier) error {
	var (
		row              = t.cursor[tier]
		colSpan, rowSpan = tier.Span()
		indexed          = tier.Indexed() && t.palette != nil
		sendPalette      = indexed && t.paletteDirty && row == 0
		frames           []protocol.Frame
	)
	if row == 0 {
		s.logger.Printf("display %d: drawing %s", t.config.Index, tier)
	}

	if sendPalette {
		frames = append(frames, protocol.EncodePalette(t.palette.Keys(), t.config.Order)...)
	}
	if row == 0 {
		frames = append(frames, protocol.EncodeResetDraw())
	}
	span, err := protocol.EncodeSpan(colSpan, rowSpan)
	if err != nil {
		return err
	}
	frames = append(frames, span)

	var (
		colors = averageLine(t.scaled, row, colSpan, rowSpan)
		keys   = make([]uint16, len(colors))
	)
	if indexed {
		indices := make([]byte, len(colors))
		for i, c := range colors {
			indices[i] = t.palette.ColorIndex(c)
			keys[i] = t.palette.Color(indices[i]).V
		}
		frames = append(frames, protocol.EncodeIndexedLine(indices)...)
	} else {
		for i, c := range colors {
			keys[i] = pixel.RGBTo16(c, pixel.FullMask)
		}
		frames = append(frames, protocol.EncodeLine(keys, t.config.Order)...)
	}

	for _, f := range frames {
		if err := t.link.send(f); err != nil {
			return err
		}
	}
	if sendPalette {
		t.paletteDirty = false
	}

	y := row * rowSpan
	for i, key := range keys {
		x := i * colSpan
		t.shadow.FillRect(image.Rect(x, y, x+colSpan, y+rowSpan), pixel.CRGB16{V: key})
	}
	return nil
}

// Flush ticks every interval until no lines are pending or ctx is done. An
// interval of zero ticks back to back. Link errors are returned.
func (s *Scheduler) Flush(ctx context.Context, interval time.Duration) error {
	var tick <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for s.Pending() > 0 {
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.Tick(); err != nil {
			return err
		}
	}
	return nil
}

// Run ticks every interval until ctx is done. Link errors are logged and the line
// is retried; any other error stops Run.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultTickInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var lastErr error
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		err := s.Tick()
		switch {
		case err == nil:
			lastErr = nil
		case IsLinkError(err):
			if lastErr == nil || lastErr.Error() != err.Error() {
				s.logger.Printf("tick: %v", err)
			}
			lastErr = err
		default:
			return err
		}
	}
}

// IsLinkError reports if err is a recoverable link error: the link is down or
// was never connected.
func IsLinkError(err error) bool {
	return errors.Is(err, ErrNotConnected) || errors.Is(err, ErrLinkDown)
}
