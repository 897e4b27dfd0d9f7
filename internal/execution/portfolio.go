// Package execution implements the trading-decision core's simulated and
// live execution machinery: portfolio/performance bookkeeping, the
// simulated fill engine, the live-adapter handoff, and decimal-precision
// audit formatting. None of it is wired to the transport; the pipeline
// stage in internal/pipeline/execution owns that.
package execution

// Portfolio is the execution stage's capital and position state.
// PeakCapital is monotone non-decreasing; CurrentCapital is not required
// to stay below it except through the drawdown computation that reads it.
type Portfolio struct {
	InitialCapital  float64
	CurrentCapital  float64
	CurrentPosition float64
	PeakCapital     float64
}
