package mathutils

import (
	"math"
	"testing"
	"time"
)

func closeTo(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

func TestWatch(t *testing.T) {
	watch := Watch{}

	watch.Start()
	time.Sleep(20 * time.Millisecond)
	dur := watch.Elapsed()
	if !closeTo(dur.Seconds(), 0.02, 0.05) {
		t.Error("seconds mismatch", dur.Seconds())
	}
	watch.Pause()
	time.Sleep(20 * time.Millisecond)
	dur2 := watch.Elapsed()
	if !closeTo(dur2.Seconds(), 0.02, 0.05) {
		t.Error("paused seconds mismatch", dur2.Seconds())
	}

	watch.UnPause()
	time.Sleep(20 * time.Millisecond)
	dur3 := watch.Elapsed()
	if !closeTo(dur3.Seconds(), 0.04, 0.05) {
		t.Error("unpaused seconds mismatch", dur3.Seconds())
	}

	dur4 := watch.AbsoluteElapsed()
	if !closeTo(dur4.Seconds(), 0.06, 0.05) {
		t.Error("absolute seconds mismatch", dur4.Seconds())
	}
}
