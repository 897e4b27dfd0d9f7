// Package telemetry provides per-component structured logging and trace-id
// generation shared by every pipeline stage.
package telemetry

import "github.com/yanun0323/logs"

// Component names the per-component log channel a Logger writes to,
// matching the channels named in the external interface contract:
// MarketData, Strategy, Execution, Performance.
type Component string

const (
	ComponentMarketData  Component = "MarketData"
	ComponentStrategy    Component = "Strategy"
	ComponentExecution   Component = "Execution"
	ComponentPerformance Component = "Performance"
)

// Logger tags every line it emits with a component name so operators can
// filter one stage's output from the rest.
type Logger struct {
	component Component
}

// NewLogger returns a Logger for the given component.
func NewLogger(component Component) Logger {
	return Logger{component: component}
}

// Infof logs an informational line.
func (l Logger) Infof(format string, args ...any) {
	logs.Infof("["+string(l.component)+"] "+format, args...)
}

// Warnf logs a recoverable-condition line.
func (l Logger) Warnf(format string, args ...any) {
	logs.Warnf("["+string(l.component)+"] "+format, args...)
}

// Errorf logs a failure line.
func (l Logger) Errorf(format string, args ...any) {
	logs.Errorf("["+string(l.component)+"] "+format, args...)
}
