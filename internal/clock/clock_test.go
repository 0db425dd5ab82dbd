package clock

import (
	"testing"
	"time"
)

func TestFixed_AlwaysReturnsSameInstant(t *testing.T) {
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := Fixed{At: at}

	if got := c.Now(); !got.Equal(at) {
		t.Errorf("Now() = %v, want %v", got, at)
	}
	if got := c.Now(); !got.Equal(at) {
		t.Errorf("second Now() = %v, want %v", got, at)
	}
}

func TestReal_AdvancesWithWallClock(t *testing.T) {
	var c Real
	first := c.Now()
	time.Sleep(time.Millisecond)
	second := c.Now()

	if !second.After(first) {
		t.Errorf("second Now() %v did not advance past first %v", second, first)
	}
}
