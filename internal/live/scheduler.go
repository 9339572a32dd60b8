package live

import "time"

// Scheduler runs fn once at the next display refresh. The returned func
// cancels fn if it has not started yet.
type Scheduler interface {
	Schedule(fn func()) (cancel func())
}

// TickerScheduler approximates a display refresh with a fixed delay.
type TickerScheduler struct {
	Interval time.Duration
}

func (s TickerScheduler) Schedule(fn func()) func() {
	t := time.AfterFunc(s.Interval, fn)
	return func() { t.Stop() }
}
