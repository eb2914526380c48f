//go:build unix || darwin || linux || freebsd || openbsd || netbsd

package clock

import (
	"time"

	"golang.org/x/sys/unix"
)

func newInstant() Instant {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return Instant{wall: time.Now()}
	}
	return Instant{wall: time.Now(), mono: ts.Nano()}
}
