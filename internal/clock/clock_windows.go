//go:build windows

package clock

import "time"

func newInstant() Instant {
	return Instant{wall: time.Now()}
}
