package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"quarktrail/app"
	"quarktrail/hal"
	"quarktrail/internal/buildinfo"
	"quarktrail/internal/config"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

func main() {
	var (
		headless   = flag.Bool("headless", false, "Run without a window.")
		term       = flag.Bool("term", false, "Render into the terminal instead of a window.")
		ticks      = flag.Uint64("ticks", 0, "Stop after N steps in headless mode (0 = run forever).")
		fast       = flag.Bool("fast", false, "Headless: step as fast as possible instead of at -hz.")
		configPath = flag.String("config", "", "YAML config file.")
		envFile    = flag.String("env", ".env", "Dotenv file with TRAIL_* overrides (missing is fine).")
		version    = flag.Bool("version", false, "Print the build and exit.")

		hz       = flag.Int("hz", 0, "Steps per second.")
		capacity = flag.Int("capacity", 0, "Trail points.")
		colorHex = flag.String("color", "", "Trail color as #rrggbb.")
		stereo   = flag.Float64("stereo", 0, "Eye separation; > 0 renders two side-by-side passes.")
		logLevel = flag.String("log-level", "", "debug|info|warn|error.")
		logFile  = flag.String("log-file", "", "Also write JSON logs to this file, rotated.")
	)
	flag.Parse()

	if *version {
		fmt.Println(buildinfo.Long())
		return
	}

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		fatal(err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "hz":
			cfg.Hz = *hz
		case "capacity":
			cfg.Capacity = *capacity
		case "color":
			cfg.Color = *colorHex
		case "stereo":
			cfg.EyeSeparation = float32(*stereo)
		case "log-level":
			cfg.LogLevel = *logLevel
		case "log-file":
			cfg.LogFile = *logFile
		}
	})
	if err := cfg.Validate(); err != nil {
		fatal(err)
	}

	logger, err := hal.NewLogger(hal.LogConfig{
		Level:   cfg.LogLevel,
		Console: !*term,
		File:    cfg.LogFile,
	})
	if err != nil {
		fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	opts := hal.Options{
		Width:  cfg.Width,
		Height: cfg.Height,
		Scale:  cfg.Scale,
		Hz:     cfg.Hz,
		Title:  "quarktrail (" + buildinfo.Short() + ")",
		Log:    logger,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case *headless:
		err = hal.RunHeadless(ctx, opts, app.New(cfg), hal.HeadlessConfig{Ticks: *ticks, Fast: *fast})
	case *term:
		err = hal.RunTerminal(ctx, opts, app.New(cfg))
	default:
		err = hal.RunWindow(opts, app.New(cfg))
	}
	if errors.Is(err, context.Canceled) {
		return
	}
	if err != nil {
		logger.Error("run failed", zap.Error(err))
		_ = logger.Sync()
		stop()
		fatal(err)
	}
}

func fatal(err error) {
	_, _ = color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, "quarktrail:", err)
	os.Exit(1)
}
