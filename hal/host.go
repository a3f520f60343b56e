package hal

import (
	"time"

	"go.uber.org/zap"
)

// Options configures the host HAL shared by all runners.
type Options struct {
	Width  int
	Height int
	Scale  int // window pixels per framebuffer pixel
	Title  string
	Hz     int

	// Log receives WriteLine output. Nil discards it.
	Log *zap.Logger
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 320
	}
	if o.Height <= 0 {
		o.Height = 240
	}
	if o.Scale <= 0 {
		o.Scale = 2
	}
	if o.Hz <= 0 {
		o.Hz = 60
	}
	if o.Title == "" {
		o.Title = "quarktrail"
	}
	if o.Log == nil {
		o.Log = zap.NewNop()
	}
	return o
}

type hostHAL struct {
	logger *hostLogger
	fb     *hostFramebuffer
	kbd    *hostKeyboard
	t      *hostTime
}

// New returns a host HAL implementation.
func New(opts Options) HAL {
	return newHost(opts.withDefaults())
}

func newHost(opts Options) *hostHAL {
	return &hostHAL{
		logger: &hostLogger{z: opts.Log},
		fb:     newHostFramebuffer(opts.Width, opts.Height),
		kbd:    newHostKeyboard(),
		t:      newHostTime(time.Now),
	}
}

func (h *hostHAL) Logger() Logger   { return h.logger }
func (h *hostHAL) Display() Display { return hostDisplay{fb: h.fb} }
func (h *hostHAL) Input() Input     { return hostInput{kbd: h.kbd} }
func (h *hostHAL) Time() Time       { return h.t }

type hostDisplay struct {
	fb *hostFramebuffer
}

func (d hostDisplay) Framebuffer() Framebuffer { return d.fb }

type hostInput struct {
	kbd *hostKeyboard
}

func (in hostInput) Keyboard() Keyboard { return in.kbd }
