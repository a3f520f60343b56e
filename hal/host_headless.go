package hal

import (
	"context"
	"time"
)

// HeadlessConfig controls the no-window host runner.
type HeadlessConfig struct {
	// Ticks stops the runner after this many steps. Zero runs until ctx ends.
	Ticks uint64
	// Fast skips the wall-clock ticker. Host time still advances by one frame
	// per step, so the run is deterministic.
	Fast bool
}

// RunHeadless runs the application without opening a window.
func RunHeadless(ctx context.Context, opts Options, newApp NewAppFunc, cfg HeadlessConfig) error {
	opts = opts.withDefaults()
	h := newHost(opts)
	step := newApp(h)
	frame := time.Second / time.Duration(opts.Hz)

	var tc <-chan time.Time
	if !cfg.Fast {
		t := time.NewTicker(frame)
		defer t.Stop()
		tc = t.C
	}

	for tick := uint64(0); cfg.Ticks == 0 || tick < cfg.Ticks; tick++ {
		if tc != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tc:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}
		h.t.advance(frame)
		if step == nil {
			continue
		}
		if err := step(); err != nil {
			return stopped(err)
		}
	}
	return nil
}
