// Package config holds the trail demo settings: defaults, an optional YAML
// file, then .env files and TRAIL_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"quarktrail/vmath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TRAIL_"

type Config struct {
	Capacity       int     `yaml:"capacity"`
	PushIntervalMS int     `yaml:"push_interval_ms"`
	OrbitSpeed     float32 `yaml:"orbit_speed"` // radians per second
	OrbitRadius    float32 `yaml:"orbit_radius"`
	Color          string  `yaml:"color"` // #rrggbb
	EyeSeparation  float32 `yaml:"eye_separation"`

	Width  int `yaml:"width"`
	Height int `yaml:"height"`
	Scale  int `yaml:"scale"`
	Hz     int `yaml:"hz"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`
}

func Default() Config {
	return Config{
		Capacity:       120,
		PushIntervalMS: 16,
		OrbitSpeed:     1.2,
		OrbitRadius:    1,
		Color:          "#ffffff",
		Width:          320,
		Height:         240,
		Scale:          2,
		Hz:             60,
		LogLevel:       "info",
	}
}

// Load returns the defaults overlaid with the YAML file at path (skipped when
// path is empty), then with TRAIL_* variables from envFiles and the process
// environment. The process environment wins over .env files. Missing .env
// files are ignored.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("%s: %w", path, err)
		}
	}

	env := map[string]string{}
	for _, f := range envFiles {
		m, err := godotenv.Read(f)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return cfg, fmt.Errorf("%s: %w", f, err)
		}
		for k, v := range m {
			env[k] = v
		}
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(k, EnvPrefix) {
			env[k] = v
		}
	}
	if err := cfg.applyEnv(env); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(env map[string]string) error {
	ints := map[string]*int{
		"CAPACITY":         &c.Capacity,
		"PUSH_INTERVAL_MS": &c.PushIntervalMS,
		"WIDTH":            &c.Width,
		"HEIGHT":           &c.Height,
		"SCALE":            &c.Scale,
		"HZ":               &c.Hz,
	}
	floats := map[string]*float32{
		"ORBIT_SPEED":    &c.OrbitSpeed,
		"ORBIT_RADIUS":   &c.OrbitRadius,
		"EYE_SEPARATION": &c.EyeSeparation,
	}
	strs := map[string]*string{
		"COLOR":     &c.Color,
		"LOG_LEVEL": &c.LogLevel,
		"LOG_FILE":  &c.LogFile,
	}
	for name, dst := range ints {
		v, ok := env[EnvPrefix+name]
		if !ok || v == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = n
	}
	for name, dst := range floats {
		v, ok := env[EnvPrefix+name]
		if !ok || v == "" {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 32)
		if err != nil {
			return fmt.Errorf("%s%s: %w", EnvPrefix, name, err)
		}
		*dst = float32(f)
	}
	for name, dst := range strs {
		if v, ok := env[EnvPrefix+name]; ok && v != "" {
			*dst = v
		}
	}
	return nil
}

// Validate reports the first setting the demo cannot run with.
func (c Config) Validate() error {
	switch {
	case c.Capacity < 2:
		return fmt.Errorf("%w: capacity %d, need at least 2", ErrInvalid, c.Capacity)
	case c.PushIntervalMS <= 0:
		return fmt.Errorf("%w: push_interval_ms %d", ErrInvalid, c.PushIntervalMS)
	case c.OrbitRadius <= 0:
		return fmt.Errorf("%w: orbit_radius %v", ErrInvalid, c.OrbitRadius)
	case c.Width <= 0 || c.Height <= 0:
		return fmt.Errorf("%w: size %dx%d", ErrInvalid, c.Width, c.Height)
	case c.Scale <= 0:
		return fmt.Errorf("%w: scale %d", ErrInvalid, c.Scale)
	case c.Hz <= 0:
		return fmt.Errorf("%w: hz %d", ErrInvalid, c.Hz)
	case c.EyeSeparation < 0:
		return fmt.Errorf("%w: eye_separation %v", ErrInvalid, c.EyeSeparation)
	}
	if _, err := ParseColor(c.Color); err != nil {
		return err
	}
	return nil
}

// TrailColor returns Color as a [0,1] RGB triple.
func (c Config) TrailColor() vmath.Vec3 {
	v, err := ParseColor(c.Color)
	if err != nil {
		return vmath.V3(1, 1, 1)
	}
	return v
}

// ParseColor parses "#rrggbb" or "rrggbb".
func ParseColor(s string) (vmath.Vec3, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 {
		return vmath.Vec3{}, fmt.Errorf("%w: color %q", ErrInvalid, s)
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return vmath.Vec3{}, fmt.Errorf("%w: color %q", ErrInvalid, s)
	}
	return vmath.V3(
		float32(n>>16&0xFF)/255,
		float32(n>>8&0xFF)/255,
		float32(n&0xFF)/255,
	), nil
}
