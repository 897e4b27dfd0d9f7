package clock

import "time"

// EWMAAlpha is the smoothing coefficient used everywhere a latency EWMA is
// maintained: 0.1 weight on the new sample, 0.9 on the running average.
const EWMAAlpha = 0.1

// UpdateEWMA folds sample into the running average using the fixed
// 0.1/0.9 coefficients. Pass hasSample=false for the very first update so
// the average seeds from the sample itself rather than 0.9*0 + 0.1*sample.
func UpdateEWMA(avg time.Duration, sample time.Duration, hasSample bool) time.Duration {
	if !hasSample {
		return sample
	}
	return time.Duration(float64(avg)*(1-EWMAAlpha) + float64(sample)*EWMAAlpha)
}

// Scope measures elapsed time from its creation to when Stop is called,
// recording the sample through report. It is meant to be deferred:
//
//	scope := clock.NewScope(clk, stage.recordLatency)
//	defer scope.Stop()
type Scope struct {
	clk    Clock
	start  time.Time
	report func(time.Duration)
	done   bool
}

// NewScope starts a scoped latency measurement.
func NewScope(clk Clock, report func(time.Duration)) *Scope {
	if clk == nil {
		clk = SystemClock{}
	}
	return &Scope{clk: clk, start: clk.Now(), report: report}
}

// Stop records the elapsed duration since NewScope. It is idempotent;
// only the first call reports a sample.
func (s *Scope) Stop() time.Duration {
	if s.done {
		return 0
	}
	s.done = true
	elapsed := ClampNonNegative(s.clk.Now().Sub(s.start))
	if s.report != nil {
		s.report(elapsed)
	}
	return elapsed
}
