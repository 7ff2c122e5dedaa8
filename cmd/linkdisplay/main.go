package main

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v2"
	_ "golang.org/x/image/bmp"

	display "github.com/BeatGlow/linkdisplay"
	"github.com/BeatGlow/linkdisplay/conn"
	"github.com/BeatGlow/linkdisplay/draw"
	"github.com/BeatGlow/linkdisplay/pixel"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:  "version",
		Usage: "print the version",
	}
}

func main() {
	app := cli.NewApp()

	app.Name = "linkdisplay"
	app.Usage = "Push images to serial display modules"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			EnvVars: []string{"LINKDISPLAY_CONFIG"},
			Usage:   "path to YAML configuration",
		},
		&cli.StringFlag{
			Name:    "port",
			Aliases: []string{"p"},
			EnvVars: []string{"LINKDISPLAY_PORT"},
			Usage:   "serial port, overrides the configuration",
		},
		&cli.IntFlag{
			Name:  "baud",
			Usage: "serial baud rate, overrides the configuration",
		},
		&cli.StringFlag{
			Name:  "scaler",
			Value: "catmull",
			Usage: "image scaler (nearest, approx, bilinear, catmull)",
		},
		&cli.BoolFlag{
			Name:  "dry-run",
			Usage: "record frames instead of opening the serial port",
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}

	app.Commands = []*cli.Command{
		{
			Name:      "push",
			Usage:     "Draw image files on displays",
			ArgsUsage: "FILE...",
			Flags: []cli.Flag{
				&cli.IntSliceFlag{
					Name:    "display",
					Aliases: []string{"d"},
					Usage:   "display index per file (default: configured displays in order)",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				s, err := setup(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer s.close()

				indexes := c.IntSlice("display")
				if len(indexes) == 0 {
					indexes = s.scheduler.Displays()
				}
				if c.NArg() > len(indexes) {
					return cli.Exit(fmt.Sprintf("%d files for %d displays", c.NArg(), len(indexes)), 1)
				}

				for i, name := range c.Args().Slice() {
					img, err := loadImage(name)
					if err != nil {
						return cli.Exit(err, 1)
					}
					if err = s.scheduler.Submit(indexes[i], img); err != nil {
						return cli.Exit(err, 1)
					}
					s.logger.Printf("%s: %s on display %d", name, img.Bounds().Size(), indexes[i])
				}

				if err = s.flush(c.Context); err != nil {
					return cli.Exit(err, 1)
				}
				return nil
			},
		},
		{
			Name:      "show",
			Usage:     "Keep drawing image files on displays until interrupted",
			ArgsUsage: "FILE...",
			Flags: []cli.Flag{
				&cli.DurationFlag{
					Name:  "every",
					Value: 10 * time.Second,
					Usage: "time before moving on to the next files, when there are more files than displays",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				s, err := setup(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer s.close()

				images := make([]image.Image, 0, c.NArg())
				for _, name := range c.Args().Slice() {
					img, err := loadImage(name)
					if err != nil {
						return cli.Exit(err, 1)
					}
					images = append(images, img)
				}

				if err = s.show(c.Context, images, s.scheduler.Displays(), c.Duration("every")); err != nil {
					return cli.Exit(err, 1)
				}
				return nil
			},
		},
		{
			Name:  "test",
			Usage: "Draw a test card on every display and report the time taken",
			Flags: []cli.Flag{
				&cli.BoolFlag{
					Name:  "gradient",
					Usage: "draw a gray gradient instead of the test card",
				},
			},
			Action: func(c *cli.Context) error {
				s, err := setup(c)
				if err != nil {
					return cli.Exit(err, 1)
				}
				defer s.close()

				for _, index := range s.scheduler.Displays() {
					config := s.displays[index]
					var img image.Image
					if c.Bool("gradient") {
						img = draw.Gradient(config.Width, config.Height, 1)
					} else if img, err = draw.TestCard(config.Width, config.Height); err != nil {
						return cli.Exit(err, 1)
					}
					if err = s.scheduler.Submit(index, img); err != nil {
						return cli.Exit(err, 1)
					}
				}

				start := time.Now()
				if err = s.flush(c.Context); err != nil {
					return cli.Exit(err, 1)
				}
				fmt.Printf("drew %d displays in %s\n", len(s.displays), time.Since(start).Round(time.Millisecond))
				return nil
			},
		},
		{
			Name:      "palette",
			Usage:     "Show the palette an image reduces to",
			ArgsUsage: "FILE",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "size",
					Value: pixel.MaxPaletteSize,
					Usage: "maximum number of colors",
				},
				&cli.StringFlag{
					Name:  "quantizer",
					Value: display.MaskQuantizer.String(),
					Usage: "palette quantizer (mask, median-cut)",
				},
				&cli.IntFlag{
					Name:  "width",
					Value: display.DefaultDisplayConfig.Width,
					Usage: "display width",
				},
				&cli.IntFlag{
					Name:  "height",
					Value: display.DefaultDisplayConfig.Height,
					Usage: "display height",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() < 1 {
					cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
				}

				q, err := display.ParseQuantizer(c.String("quantizer"))
				if err != nil {
					return cli.Exit(err, 1)
				}
				scaler, err := draw.ParseScaler(c.String("scaler"))
				if err != nil {
					return cli.Exit(err, 1)
				}
				img, err := loadImage(c.Args().First())
				if err != nil {
					return cli.Exit(err, 1)
				}

				start := time.Now()
				p, err := q.Palette(draw.Fit(img, c.Int("width"), c.Int("height"), scaler), c.Int("size"))
				if err != nil {
					return cli.Exit(err, 1)
				}
				fmt.Printf("%s in %s\n", p, time.Since(start).Round(time.Microsecond))
				for i, key := range p.Keys() {
					rgb := pixel.CRGB16{V: key}.RGB()
					fmt.Printf("%3d: %#04x #%02x%02x%02x\n", i, key, rgb.R, rgb.G, rgb.B)
				}
				return nil
			},
		},
		{
			Name:  "ports",
			Usage: "List serial ports",
			Action: func(c *cli.Context) error {
				ports, err := conn.Ports()
				if err != nil {
					return cli.Exit(err, 1)
				}
				for _, port := range ports {
					fmt.Println(port)
				}
				return nil
			},
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := app.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func newLogger(c *cli.Context) *log.Logger {
	logger := log.New(io.Discard, "", 0)
	if c.Bool("verbose") {
		logger.SetOutput(os.Stderr)
		logger.SetFlags(log.LstdFlags | log.Lmicroseconds)
	}
	return logger
}

func loadImage(name string) (image.Image, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return img, nil
}
