package game

import (
	"fmt"
	"time"
)

// FormatElapsed renders d as "HH:MM:SS", each field zero-padded to two digits
// (hours grow past two digits when needed). withMillis appends ":mmm".
// Negative durations format as zero.
func FormatElapsed(d time.Duration, withMillis bool) string {
	ms := d.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	h := ms / int64(time.Hour/time.Millisecond)
	ms %= int64(time.Hour / time.Millisecond)
	m := ms / int64(time.Minute/time.Millisecond)
	ms %= int64(time.Minute / time.Millisecond)
	s := ms / int64(time.Second/time.Millisecond)
	ms %= int64(time.Second / time.Millisecond)
	if withMillis {
		return fmt.Sprintf("%02d:%02d:%02d:%03d", h, m, s, ms)
	}
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
