package clock

import "testing"

func TestSinceIsNonNegative(t *testing.T) {
	start := Monotonic()
	for i := 0; i < 1000; i++ {
	}
	if d := Since(start); d < 0 {
		t.Fatalf("Since returned negative duration: %v", d)
	}
}
