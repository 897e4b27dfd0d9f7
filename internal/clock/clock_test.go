package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSteppedClockAdvances(t *testing.T) {
	start := time.Unix(0, 0)
	c := NewStepped(start, time.Second)

	require.Equal(t, start, c.Now())
	require.Equal(t, start.Add(time.Second), c.Now())
	require.Equal(t, start.Add(2*time.Second), c.Now())
}

func TestClampNonNegative(t *testing.T) {
	require.Equal(t, time.Duration(0), ClampNonNegative(-5*time.Millisecond))
	require.Equal(t, 5*time.Millisecond, ClampNonNegative(5*time.Millisecond))
}

func TestUpdateEWMASeedsOnFirstSample(t *testing.T) {
	got := UpdateEWMA(0, 100*time.Microsecond, false)
	require.Equal(t, 100*time.Microsecond, got)
}

func TestUpdateEWMAFoldsSubsequentSamples(t *testing.T) {
	got := UpdateEWMA(100*time.Microsecond, 200*time.Microsecond, true)
	require.Equal(t, 110*time.Microsecond, got)
}

func TestScopeReportsElapsed(t *testing.T) {
	c := NewStepped(time.Unix(0, 0), 10*time.Millisecond)
	var reported time.Duration
	scope := NewScope(c, func(d time.Duration) { reported = d })
	scope.Stop()
	require.Equal(t, 10*time.Millisecond, reported)
}

func TestScopeStopIsIdempotent(t *testing.T) {
	c := NewStepped(time.Unix(0, 0), 10*time.Millisecond)
	calls := 0
	scope := NewScope(c, func(time.Duration) { calls++ })
	scope.Stop()
	scope.Stop()
	require.Equal(t, 1, calls)
}
