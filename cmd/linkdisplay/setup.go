package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log"
	"os"
	"sort"
	"time"

	"github.com/urfave/cli/v2"
	"periph.io/x/host/v3"

	display "github.com/BeatGlow/linkdisplay"
	"github.com/BeatGlow/linkdisplay/config"
	"github.com/BeatGlow/linkdisplay/conntest"
	"github.com/BeatGlow/linkdisplay/draw"
	"github.com/BeatGlow/linkdisplay/protocol"
)

// session is a connected scheduler with all configured displays attached.
type session struct {
	config    *config.Config
	logger    *log.Logger
	scheduler *display.Scheduler
	link      *display.Link
	displays  map[int]*display.DisplayConfig
	recorder  *conntest.Recorder
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path := c.String("config"); path != "" {
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	} else if cfg, err = config.Parse(nil); err != nil {
		return nil, err
	}

	if port := c.String("port"); port != "" {
		cfg.Port = port
	}
	if baud := c.Int("baud"); baud != 0 {
		cfg.Baud = baud
	}
	return cfg, nil
}

func setup(c *cli.Context) (*session, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}

	logger := newLogger(c)
	scaler, err := draw.ParseScaler(c.String("scaler"))
	if err != nil {
		return nil, err
	}

	s := &session{
		config: cfg,
		logger: logger,
		scheduler: display.NewScheduler(&display.SchedulerConfig{
			Scaler: scaler,
			Logger: logger,
		}),
		displays: make(map[int]*display.DisplayConfig),
	}

	var conn display.Conn
	if c.Bool("dry-run") {
		s.recorder = conntest.NewRecorder("dry-run")
		conn = s.recorder
	} else {
		if _, err = host.Init(); err != nil {
			return nil, err
		}
		serialConfig, err := cfg.SerialConfig()
		if err != nil {
			return nil, err
		}
		serialConfig.Logger = logger
		if conn, err = display.NewSerial(serialConfig); err != nil {
			return nil, err
		}
	}

	linkConfig := cfg.LinkConfig()
	linkConfig.Logger = logger
	linkConfig.OnLine = func(line string) {
		logger.Printf("module: %s", line)
	}
	s.link = display.NewLink(conn, linkConfig)

	displays, err := cfg.DisplayConfigs()
	if err != nil {
		return nil, err
	}
	for _, d := range displays {
		if err = s.scheduler.AddDisplay(d); err != nil {
			return nil, err
		}
		if err = s.scheduler.Attach(d.Index, s.link); err != nil {
			return nil, err
		}
		s.displays[d.Index] = d
	}

	if err = s.link.Connect(); err != nil {
		return nil, err
	}
	logger.Printf("using %s", s.link)
	return s, nil
}

// flush draws everything that was submitted, one line per tick interval.
func (s *session) flush(ctx context.Context) error {
	if err := s.scheduler.Flush(ctx, s.config.TickInterval); err != nil {
		return err
	}
	if s.recorder != nil {
		s.report()
	}
	return nil
}

// report prints the frames recorded in a dry run.
func (s *session) report() {
	messages, err := s.recorder.Messages()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	var (
		counts = make(map[protocol.Command]int)
		bytes  int
	)
	for _, w := range s.recorder.Writes() {
		bytes += len(w)
	}
	for _, m := range messages {
		counts[m.Command]++
	}

	commands := make([]string, 0, len(counts))
	for command := range counts {
		commands = append(commands, string(command))
	}
	sort.Strings(commands)
	for _, command := range commands {
		fmt.Printf("%-14s %6d frames\n", protocol.Command(command), counts[protocol.Command(command)])
	}
	fmt.Printf("%d frames, %d bytes\n", len(messages), bytes)
}

// show submits images round robin to the displays, moving on every interval,
// while the scheduler runs until ctx is done.
func (s *session) show(ctx context.Context, images []image.Image, indexes []int, every time.Duration) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- s.scheduler.Run(ctx, s.config.TickInterval) }()

	var ticker *time.Ticker
	if len(images) > len(indexes) && every > 0 {
		ticker = time.NewTicker(every)
		defer ticker.Stop()
	}

	var next int
	submit := func() error {
		for _, index := range indexes {
			if err := s.scheduler.Submit(index, images[next%len(images)]); err != nil {
				return err
			}
			next++
		}
		return nil
	}
	if err := submit(); err != nil {
		return err
	}

	for {
		var tick <-chan time.Time
		if ticker != nil {
			tick = ticker.C
		}
		select {
		case err := <-done:
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case <-tick:
			if err := submit(); err != nil {
				return err
			}
		}
	}
}

func (s *session) close() {
	if err := s.link.Disconnect(); err != nil {
		s.logger.Printf("disconnect: %v", err)
	}
}
