package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/wbrown/mosaic"
	"github.com/wbrown/mosaic/capture/webcam"
	"github.com/wbrown/mosaic/display"
	"github.com/wbrown/mosaic/driver"
	"github.com/wbrown/mosaic/imageutil"
)

func main() {
	configFile := flag.String("config", "",
		"Path to a TOML config file")
	device := flag.String("device", "0",
		"Camera index, video file or stream URL")
	camWidth := flag.Int("camwidth", 0,
		"Requested camera width in pixels, 0 for the device default")
	camHeight := flag.Int("camheight", 0,
		"Requested camera height in pixels, 0 for the device default")
	inputFile := flag.String("input", "",
		"Convert a still image once instead of running the camera")
	outputFile := flag.String("output", "",
		"Path to save the output (.png renders a preview image)")
	blockSize := flag.Int("block", mosaic.DefaultBlockSize,
		"Block edge length in pixels")
	columns := flag.Int("cols", 0,
		"Fit the output to this many terminal columns, 0 to use -block")
	emojiMode := flag.Bool("emoji", false,
		"Start in emoji mode")
	paletteName := flag.String("palette", "moons",
		"Emoji palette: moons, squares, or faces")
	color := flag.Bool("color", false,
		"Emit 24-bit ANSI colors")
	fps := flag.Int("fps", 30,
		"Target frames per second")
	maxFrames := flag.Int("frames", 0,
		"Stop after this many frames, 0 to run until interrupted")
	workers := flag.Int("workers", 0,
		"Block rows converted in parallel, 0 for one per CPU")
	saturation := flag.Float64("saturation", 1.0,
		"Saturation scale applied to block colors")
	mirror := flag.Bool("mirror", true,
		"Flip camera frames horizontally")
	fontPath := flag.String("font", "",
		"TTF font for PNG output (default: built-in 7x13 bitmap font)")
	fontSize := flag.Float64("fontsize", 16,
		"Font size in points for PNG output")
	flag.Parse()

	cfg := driver.DefaultConfig()
	if *configFile != "" {
		var err error
		cfg, err = driver.LoadConfig(*configFile)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
	}

	// Flags given on the command line win over the config file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "block":
			cfg.BlockSize = *blockSize
		case "cols":
			cfg.Columns = *columns
		case "emoji":
			cfg.EmojiMode = *emojiMode
		case "palette":
			cfg.Palette = *paletteName
		case "color":
			cfg.Color = *color
		case "fps":
			cfg.FPS = *fps
		case "frames":
			cfg.MaxFrames = *maxFrames
		case "workers":
			cfg.Workers = *workers
		case "saturation":
			cfg.Saturation = *saturation
		case "mirror":
			cfg.Mirror = *mirror
		}
	})
	if errs := cfg.Validate(); len(errs) > 0 {
		fmt.Printf("Invalid settings: %s\n", strings.Join(errs, "; "))
		flag.PrintDefaults()
		os.Exit(1)
	}

	if *inputFile != "" {
		err := convertStill(*inputFile, *outputFile, cfg, *fontPath, *fontSize)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := runCamera(*device, *camWidth, *camHeight, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// convertStill converts one image file and writes the result to stdout,
// a text file or a PNG preview.
func convertStill(inputFile, outputFile string, cfg driver.Config, fontPath string, fontSize float64) error {
	begin := time.Now()
	img, err := imageutil.LoadImage(inputFile)
	if err != nil {
		return err
	}
	if cfg.ScaleWidth > 0 && img.Width() > cfg.ScaleWidth {
		img = imageutil.ResizeToWidth(img, cfg.ScaleWidth, imageutil.InterpolationArea)
	}

	conv := mosaic.NewConverter(cfg.ConverterOptions()...)
	block := cfg.BlockSize
	if cfg.Columns > 0 {
		block = conv.BlockSizeForColumns(img.Width(), cfg.Columns, cfg.EmojiMode)
	}
	grid, err := conv.ConvertImage(img.RGBA, block, cfg.EmojiMode)
	if err != nil {
		return fmt.Errorf("converting %s: %w", inputFile, err)
	}
	elapsed := time.Since(begin)

	text := grid.String()
	if cfg.Color {
		text = grid.ANSI()
	}

	switch {
	case outputFile == "":
		fmt.Println(text)
	case strings.HasSuffix(strings.ToLower(outputFile), ".png"):
		opts := mosaic.RenderOptions{ColorGlyphs: cfg.Color}
		if fontPath != "" {
			face, err := mosaic.LoadFontFace(fontPath, fontSize)
			if err != nil {
				return err
			}
			opts.Face = face
		}
		if err := mosaic.SaveGridPNG(grid, outputFile, opts); err != nil {
			return fmt.Errorf("writing PNG: %w", err)
		}
		fmt.Printf("PNG output written to %s\n", outputFile)
	default:
		if err := os.WriteFile(outputFile, []byte(text+"\n"), 0644); err != nil {
			return fmt.Errorf("writing to file: %w", err)
		}
		fmt.Printf("Output written to %s\n", outputFile)
	}

	fmt.Fprintf(os.Stderr, "Grid: %dx%d glyphs, block size %d, palette %s\n",
		grid.Cols, grid.Rows, block, grid.Palette.Kind)
	fmt.Fprintf(os.Stderr, "Computation time: %v\n", elapsed)
	return nil
}

// runCamera streams the camera to the terminal until interrupted.
func runCamera(device string, width, height int, cfg driver.Config) error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))

	cam, err := webcam.Open(device)
	if err != nil {
		return err
	}
	defer cam.Close()
	if width > 0 && height > 0 {
		cam.SetSize(width, height)
	}

	term := display.Stdout()
	defer term.Close()

	d, err := driver.New(cam, term, cfg, driver.WithLogger(logger))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go watchKeys(ctx, d, logger)

	err = d.Run(ctx)
	stats := d.Stats()
	fmt.Fprintf(os.Stderr, "\nFrames: %d shown, %d skipped, last conversion %v\n",
		stats.Frames, stats.Skipped, stats.LastConvert)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// watchKeys toggles emoji mode each time a line starting with "e" is read
// from stdin.
func watchKeys(ctx context.Context, d *driver.Driver, logger *slog.Logger) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(scanner.Text())), "e") {
			logger.Info("mode toggled", "emoji", d.ToggleMode())
		}
	}
}
