// Package clock implements fixed-point simulation time and the
// per-arena ClockGrid that drives capture and playback.
package clock

import "fmt"

// TimeStamp is a fixed-point, non-negative count of milliseconds within
// a single cycle, in [0, CyclePeriod). Using an integer millisecond
// count (rather than float64 seconds) is what makes cross-platform
// equality bit-exact: spec §3 forbids floating-point equality for
// temporal comparisons, and integer arithmetic has no platform-specific
// rounding to forbid in the first place.
type TimeStamp int64

// Millis returns the raw millisecond count.
func (t TimeStamp) Millis() int64 { return int64(t) }

// Seconds returns the timestamp as floating-point seconds, for display
// and for interoperating with downstream collaborators that expect it.
// Never used for equality or ordering inside this core.
func (t TimeStamp) Seconds() float64 { return float64(t) / 1000.0 }

// FromSeconds quantizes a float64 seconds value to the nearest
// millisecond. Used only at configuration-load boundaries (e.g.
// translating COUNTDOWN_DURATION from config into a TimeStamp-like
// duration), never inside the deterministic hot path.
func FromSeconds(s float64) TimeStamp {
	return TimeStamp(int64(s*1000.0 + 0.5))
}

// Before reports whether t occurs strictly before u, both taken as
// absolute (non-wrapped) offsets. Callers that need wrap-aware ordering
// use Window, not this.
func (t TimeStamp) Before(u TimeStamp) bool { return t < u }

// Add returns t+d without wrapping. Callers that need modulo-period
// arithmetic use ClockGrid.Tick, which wraps explicitly.
func (t TimeStamp) Add(d TimeStamp) TimeStamp { return t + d }

// Sub returns t-d without wrapping or clamping to zero.
func (t TimeStamp) Sub(d TimeStamp) TimeStamp { return t - d }

func (t TimeStamp) String() string {
	return fmt.Sprintf("%dms", int64(t))
}

// Window is the half-open range (Prev, Curr] a single clock tick
// produced, reported by ClockGrid.Tick. When Wrapped is true the range
// is the union (Prev, Period) ∪ [0, Curr] — see spec §4.1.
type Window struct {
	Prev    TimeStamp
	Curr    TimeStamp
	Wrapped bool
}

// Contains reports whether timestamp ts falls inside the window,
// correctly handling the wrap case.
func (w Window) Contains(ts TimeStamp, period TimeStamp) bool {
	if !w.Wrapped {
		return ts > w.Prev && ts <= w.Curr
	}
	return ts > w.Prev && ts < period || ts >= 0 && ts <= w.Curr
}
