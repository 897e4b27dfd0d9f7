package strategy

// Regime is a coarse volatility classification used to scale leverage.
// It is a deliberate threshold-based stand-in, not a hidden-Markov-model
// inference: the interface (state enum, leverage mapping) is kept stable
// so a real two-state HMM could replace the classifier behind it later.
type Regime int

const (
	RegimeUnknown Regime = iota
	RegimeLowVolatility
	RegimeHighVolatility
)

// Factor returns the leverage multiplier associated with a regime.
func (r Regime) Factor() float64 {
	switch r {
	case RegimeLowVolatility:
		return 1.5
	case RegimeHighVolatility:
		return 0.5
	default:
		return 1.0
	}
}

// RegimeClassifier tracks volatility regime across DC signals for one
// symbol. It is not safe for concurrent use; the strategy stage serializes
// calls to it.
type RegimeClassifier struct {
	current Regime
}

// Classify folds one DC signal's statistics into the classifier and
// returns the resulting regime. v = |tmv_ext| / (duration_ns / 1e9); v <
// 0.1 selects LowVolatility, v > 0.5 selects HighVolatility, otherwise the
// prior regime is retained.
func (c *RegimeClassifier) Classify(tmvExt float64, durationNs int64) Regime {
	if durationNs <= 0 {
		return c.current
	}
	v := absFloat(tmvExt) / (float64(durationNs) / 1e9)
	switch {
	case v < 0.1:
		c.current = RegimeLowVolatility
	case v > 0.5:
		c.current = RegimeHighVolatility
	}
	return c.current
}

// Current returns the classifier's current regime without observing a
// new signal.
func (c *RegimeClassifier) Current() Regime {
	return c.current
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
