// Package config loads threadline settings from flags, environment and an
// optional YAML file through viper.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/atikulmunna/threadline/internal/render"
)

// Config is the resolved configuration for one run.
type Config struct {
	Input         string   `mapstructure:"input" yaml:"input"`
	Output        string   `mapstructure:"output" yaml:"output"`
	Canvas        Canvas   `mapstructure:"canvas" yaml:"canvas"`
	Palette       []string `mapstructure:"palette" yaml:"palette"`
	RegionPalette []string `mapstructure:"region_palette" yaml:"region_palette"`
	WrapMidnight  bool     `mapstructure:"wrap_midnight" yaml:"wrap_midnight"`
	Watch         Watch    `mapstructure:"watch" yaml:"watch"`
	Serve         Serve    `mapstructure:"serve" yaml:"serve"`
}

// Canvas holds drawing geometry.
type Canvas struct {
	Width       float64 `mapstructure:"width" yaml:"width"`
	LaneHeight  float64 `mapstructure:"lane_height" yaml:"lane_height"`
	LanePadding float64 `mapstructure:"lane_padding" yaml:"lane_padding"`
}

// Watch configures re-rendering on file change.
type Watch struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// MarshalYAML writes the debounce as a duration string ("250ms").
func (w Watch) MarshalYAML() (any, error) {
	return map[string]string{"debounce": w.Debounce.String()}, nil
}

// Serve configures the dashboard.
type Serve struct {
	Port string `mapstructure:"port" yaml:"port"`
}

// Default returns the built-in configuration.
func Default() Config {
	opts := render.DefaultOptions()
	return Config{
		Input:  "log.txt",
		Output: "timeline.svg",
		Canvas: Canvas{
			Width:       opts.Width,
			LaneHeight:  opts.LaneHeight,
			LanePadding: opts.LanePadding,
		},
		Palette:       append([]string(nil), render.DefaultPalette...),
		RegionPalette: append([]string(nil), render.DefaultRegionPalette...),
		Watch:         Watch{Debounce: 250 * time.Millisecond},
		Serve:         Serve{Port: "7430"},
	}
}

// SetDefaults registers Default() on v so that every key is known to viper,
// including for environment lookups.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("input", d.Input)
	v.SetDefault("output", d.Output)
	v.SetDefault("canvas.width", d.Canvas.Width)
	v.SetDefault("canvas.lane_height", d.Canvas.LaneHeight)
	v.SetDefault("canvas.lane_padding", d.Canvas.LanePadding)
	v.SetDefault("palette", d.Palette)
	v.SetDefault("region_palette", d.RegionPalette)
	v.SetDefault("wrap_midnight", d.WrapMidnight)
	v.SetDefault("watch.debounce", d.Watch.Debounce)
	v.SetDefault("serve.port", d.Serve.Port)

	v.SetEnvPrefix("threadline")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects geometry that cannot produce a drawing.
func (c Config) Validate() error {
	if c.Canvas.Width <= 0 {
		return fmt.Errorf("canvas.width must be positive, got %v", c.Canvas.Width)
	}
	if c.Canvas.LaneHeight <= 0 {
		return fmt.Errorf("canvas.lane_height must be positive, got %v", c.Canvas.LaneHeight)
	}
	if c.Canvas.LanePadding < 0 {
		return fmt.Errorf("canvas.lane_padding must not be negative, got %v", c.Canvas.LanePadding)
	}
	if len(c.Palette) == 0 {
		return errors.New("palette must list at least one colour")
	}
	for i, col := range c.Palette {
		if strings.TrimSpace(col) == "" {
			return fmt.Errorf("palette entry %d is empty", i)
		}
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative, got %s", c.Watch.Debounce)
	}
	return nil
}

// RenderOptions maps the configuration onto renderer options.
func (c Config) RenderOptions() render.Options {
	opts := render.DefaultOptions()
	opts.Width = c.Canvas.Width
	opts.LaneHeight = c.Canvas.LaneHeight
	opts.LanePadding = c.Canvas.LanePadding
	opts.Palette = c.Palette
	if len(c.RegionPalette) > 0 {
		opts.RegionPalette = c.RegionPalette
	}
	return opts
}

// WriteDefault writes Default() as YAML to path. It refuses to overwrite an
// existing file.
func WriteDefault(path string) error {
	raw, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("encode default config: %w", err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.Write(raw); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
