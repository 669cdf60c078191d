package driver

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/wbrown/mosaic"
)

// Config holds the driver settings. It can be loaded from a TOML file and
// overridden by command line flags.
type Config struct {
	// FPS is the target refresh rate.
	FPS int `toml:"fps"`
	// BlockSize is the edge length in pixels of the block behind each
	// glyph. Ignored when Columns is set.
	BlockSize int `toml:"block_size"`
	// Columns, when positive, picks the block size so the grid fits in
	// this many terminal columns.
	Columns int `toml:"columns"`
	// EmojiMode selects the emoji palette instead of the ASCII ramp.
	EmojiMode bool `toml:"emoji_mode"`
	// Palette names the emoji palette: moons, squares or faces.
	Palette string `toml:"palette"`
	// Ramp overrides the ASCII ramp, darkest-looking glyph first.
	Ramp string `toml:"ramp"`
	// Color emits 24-bit ANSI colors with each glyph.
	Color bool `toml:"color"`
	// MaxFrames stops the driver after this many frames. Zero runs until
	// the source ends or the context is cancelled.
	MaxFrames int `toml:"max_frames"`
	// Workers summarizes block rows in parallel when greater than one.
	// Zero uses one worker per CPU.
	Workers int `toml:"workers"`
	// Saturation scales the saturation of every block color.
	Saturation float64 `toml:"saturation"`
	// Mirror flips frames horizontally.
	Mirror bool `toml:"mirror"`
	// ScaleWidth, when positive, downscales wider frames to this many
	// pixels before conversion.
	ScaleWidth int `toml:"scale_width"`
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		FPS:        30,
		BlockSize:  mosaic.DefaultBlockSize,
		Palette:    "moons",
		Ramp:       mosaic.DefaultASCIIRamp,
		Saturation: 1,
		Mirror:     true,
	}
}

// Validate checks if the config values are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (c *Config) Validate() []string {
	var errors []string

	if c.FPS < 1 || c.FPS > 120 {
		errors = append(errors, "fps must be between 1 and 120")
	}
	if c.BlockSize < 1 {
		errors = append(errors, "block_size must be positive")
	}
	if c.Columns < 0 {
		errors = append(errors, "columns must not be negative")
	}
	if _, err := mosaic.ParsePaletteKind(c.Palette); err != nil {
		errors = append(errors, "palette must be ascii, moons, squares, or faces")
	}
	if c.Ramp == "" {
		errors = append(errors, "ramp must not be empty")
	}
	if c.MaxFrames < 0 {
		errors = append(errors, "max_frames must not be negative")
	}
	if c.Workers < 0 {
		errors = append(errors, "workers must not be negative")
	}
	if c.Saturation < 0 || c.Saturation > 10 {
		errors = append(errors, "saturation must be between 0 and 10")
	}
	if c.ScaleWidth < 0 {
		errors = append(errors, "scale_width must not be negative")
	}

	return errors
}

// LoadConfig reads a TOML file on top of DefaultConfig and validates the
// result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("load config %s: unknown keys %s",
			path, strings.Join(keys, ", "))
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return cfg, fmt.Errorf("validation failed: %v", errs)
	}
	return cfg, nil
}

// ConverterOptions returns the mosaic options described by the config.
func (c *Config) ConverterOptions() []mosaic.Option {
	kind, err := mosaic.ParsePaletteKind(c.Palette)
	if err != nil {
		kind = mosaic.EmojiBuckets
	}
	return []mosaic.Option{
		mosaic.WithASCIIRamp(c.Ramp),
		mosaic.WithEmojiPalette(kind),
		mosaic.WithWorkers(c.WorkerCount()),
		mosaic.WithSaturation(c.Saturation),
	}
}

// WorkerCount returns the number of conversion workers, resolving zero to
// one per CPU.
func (c *Config) WorkerCount() int {
	if c.Workers <= 0 {
		return runtime.GOMAXPROCS(0)
	}
	return c.Workers
}
