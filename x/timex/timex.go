package timex

import "time"

// NowMs returns Unix milliseconds as int64.
func NowMs() int64 { return time.Now().UnixMilli() }

var boot = time.Now()

// Millis returns milliseconds since process start from the monotonic clock.
// Use it for interval arithmetic; it never jumps with wall-clock changes.
func Millis() int64 { return time.Since(boot).Milliseconds() }

// Ms converts a millisecond count from config into a Duration.
func Ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

func ResetTimer(t *time.Timer, d time.Duration) {
	if d < 0 {
		d = 0
	}
	if !t.Stop() {
		DrainTimer(t)
	}
	t.Reset(d)
}

func DrainTimer(t *time.Timer) {
	select {
	case <-t.C:
	default:
	}
}
