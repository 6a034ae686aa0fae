package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/viper"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	v := viper.New()
	SetDefaults(v)

	cfg, err := Load(v)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".threadline.yaml")
	content := `
input: run.log
canvas:
  width: 2000
  lane_height: 30
palette: ["#000000", "#ffffff"]
wrap_midnight: true
watch:
  debounce: 1s
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(v)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Input != "run.log" {
		t.Errorf("expected input run.log, got %q", cfg.Input)
	}
	if cfg.Output != "timeline.svg" {
		t.Errorf("expected default output, got %q", cfg.Output)
	}
	if cfg.Canvas.Width != 2000 || cfg.Canvas.LaneHeight != 30 || cfg.Canvas.LanePadding != 20 {
		t.Errorf("unexpected canvas %+v", cfg.Canvas)
	}
	if !cfg.WrapMidnight {
		t.Error("expected wrap_midnight true")
	}
	if cfg.Watch.Debounce != time.Second {
		t.Errorf("expected 1s debounce, got %s", cfg.Watch.Debounce)
	}

	opts := cfg.RenderOptions()
	if opts.Width != 2000 || len(opts.Palette) != 2 {
		t.Errorf("unexpected render options %+v", opts)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("THREADLINE_SERVE_PORT", "9999")

	v := viper.New()
	SetDefaults(v)
	cfg, err := Load(v)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Serve.Port != "9999" {
		t.Errorf("expected port from env, got %q", cfg.Serve.Port)
	}
}

func TestValidateRejectsBadGeometry(t *testing.T) {
	cfg := Default()
	cfg.Canvas.Width = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero width")
	}

	cfg = Default()
	cfg.Palette = nil
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for empty palette")
	}
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "threadline.yaml")
	if err := WriteDefault(path); err != nil {
		t.Fatal(err)
	}

	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(v)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Watch.Debounce != 250*time.Millisecond {
		t.Errorf("expected 250ms debounce after reload, got %s", cfg.Watch.Debounce)
	}

	if err := WriteDefault(path); !errors.Is(err, os.ErrExist) {
		t.Errorf("expected ErrExist on second write, got %v", err)
	}
}
