package hal

import "time"

const tickDur = time.Millisecond

// hostTime turns elapsed time into millisecond ticks. The channel carries the
// latest tick number and drops values when full, so readers should use the
// value they receive rather than count receives.
type hostTime struct {
	ch    chan uint64
	seq   uint64
	clock func() time.Time

	last time.Time
	acc  time.Duration
}

func newHostTime(clock func() time.Time) *hostTime {
	return &hostTime{ch: make(chan uint64, 1024), clock: clock}
}

func (t *hostTime) Ticks() <-chan uint64 { return t.ch }

// step advances by the wall time since the previous step.
func (t *hostTime) step() {
	now := t.clock()
	if t.last.IsZero() {
		t.last = now
		t.emit(1)
		return
	}
	d := now.Sub(t.last)
	t.last = now
	t.advance(d)
}

// advance adds d to the clock and emits the ticks it completes.
func (t *hostTime) advance(d time.Duration) {
	if d <= 0 {
		return
	}
	t.acc += d
	n := uint64(t.acc / tickDur)
	if n == 0 {
		return
	}
	t.acc %= tickDur
	t.emit(n)
}

func (t *hostTime) emit(n uint64) {
	t.seq += n
	select {
	case t.ch <- t.seq:
	default:
	}
}
