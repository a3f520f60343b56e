package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"quarktrail/vmath"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return p
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}

func TestLoadLayers(t *testing.T) {
	yml := writeFile(t, "trail.yaml", "capacity: 64\nhz: 30\ncolor: \"#ff8000\"\nlog_file: trail.log\n")
	env := writeFile(t, ".env", "TRAIL_HZ=90\nTRAIL_ORBIT_SPEED=2.5\nTRAIL_WIDTH=200\n")
	t.Setenv("TRAIL_WIDTH", "160")

	cfg, err := Load(yml, env, filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Capacity != 64 {
		t.Fatalf("Capacity = %d, want 64 from yaml", cfg.Capacity)
	}
	if cfg.Hz != 90 || cfg.OrbitSpeed != 2.5 {
		t.Fatalf("Hz %d OrbitSpeed %v, want .env values", cfg.Hz, cfg.OrbitSpeed)
	}
	if cfg.Width != 160 {
		t.Fatalf("Width = %d, want process env over .env", cfg.Width)
	}
	if cfg.Height != Default().Height || cfg.LogFile != "trail.log" {
		t.Fatalf("Height %d LogFile %q", cfg.Height, cfg.LogFile)
	}
	want := vmath.V3(1, float32(0x80)/255, 0)
	if got := cfg.TrailColor(); got != want {
		t.Fatalf("TrailColor() = %v, want %v", got, want)
	}
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing yaml", func(t *testing.T) {
		if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("err = %v", err)
		}
	})
	t.Run("bad yaml", func(t *testing.T) {
		if _, err := Load(writeFile(t, "bad.yaml", "capacity: [1")); err == nil {
			t.Fatalf("expected parse error")
		}
	})
	t.Run("bad env int", func(t *testing.T) {
		t.Setenv("TRAIL_CAPACITY", "many")
		if _, err := Load(""); err == nil {
			t.Fatalf("expected error for TRAIL_CAPACITY")
		}
	})
	t.Run("capacity too small", func(t *testing.T) {
		t.Setenv("TRAIL_CAPACITY", "1")
		if _, err := Load(""); !errors.Is(err, ErrInvalid) {
			t.Fatalf("err = %v, want ErrInvalid", err)
		}
	})
}

func TestValidate(t *testing.T) {
	for name, mut := range map[string]func(*Config){
		"capacity":       func(c *Config) { c.Capacity = 1 },
		"push interval":  func(c *Config) { c.PushIntervalMS = 0 },
		"radius":         func(c *Config) { c.OrbitRadius = 0 },
		"width":          func(c *Config) { c.Width = 0 },
		"scale":          func(c *Config) { c.Scale = -1 },
		"hz":             func(c *Config) { c.Hz = 0 },
		"eye separation": func(c *Config) { c.EyeSeparation = -0.1 },
		"color":          func(c *Config) { c.Color = "white" },
	} {
		c := Default()
		mut(&c)
		if err := c.Validate(); !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: Validate() = %v, want ErrInvalid", name, err)
		}
	}
}

func TestParseColor(t *testing.T) {
	got, err := ParseColor("00ff00")
	if err != nil || got != vmath.V3(0, 1, 0) {
		t.Fatalf("ParseColor(00ff00) = %v, %v", got, err)
	}
	for _, bad := range []string{"", "#fff", "#gg0000", "#1234567"} {
		if _, err := ParseColor(bad); err == nil {
			t.Fatalf("ParseColor(%q) accepted", bad)
		}
	}
}
