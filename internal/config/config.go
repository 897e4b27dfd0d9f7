// Package config loads the pipeline's read-only configuration once at
// startup. Configuration is never read as ambient global state: it is
// loaded here and passed by construction into each stage.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/yanun0323/dc-trading-pipeline/pkg/xerrors"
)

// EndpointConfig identifies one stage's outbound transport endpoint.
type EndpointConfig struct {
	Channel   string `json:"channel" toml:"channel"`
	StreamID  int32  `json:"streamId" toml:"streamId"`
	Directory string `json:"directory" toml:"directory"`
	TimeoutMs int64  `json:"timeoutMs" toml:"timeoutMs"`
}

// Timeout returns the configured connect timeout, defaulting to 5s.
func (e EndpointConfig) Timeout() time.Duration {
	if e.TimeoutMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(e.TimeoutMs) * time.Millisecond
}

// TransportConfig names the outbound endpoint for each of the three stages.
type TransportConfig struct {
	MarketData EndpointConfig `json:"market_data" toml:"market_data"`
	Strategy   EndpointConfig `json:"strategy" toml:"strategy"`
	Execution  EndpointConfig `json:"execution" toml:"execution"`
}

// DCStrategyConfig controls the DC detector.
type DCStrategyConfig struct {
	Theta                float64 `json:"theta" toml:"theta"`
	EnableTMVCalculation bool    `json:"enable_tmv_calculation" toml:"enable_tmv_calculation"`
	EnableTimeAdjustment bool    `json:"enable_time_adjustment" toml:"enable_time_adjustment"`
}

// StrategySettingsConfig controls the strategy stage.
type StrategySettingsConfig struct {
	Name             string  `json:"name" toml:"name"`
	EnableHMM        bool    `json:"enable_hmm" toml:"enable_hmm"`
	HMMStates        int     `json:"hmm_states" toml:"hmm_states"`
	HMMMaxIterations int     `json:"hmm_max_iterations" toml:"hmm_max_iterations"`
	LeverageFactor   float64 `json:"leverage_factor" toml:"leverage_factor"`
}

// PerformanceConfig controls latency/metrics tracking in the execution stage.
type PerformanceConfig struct {
	EnableLatencyTracking    bool   `json:"enable_latency_tracking" toml:"enable_latency_tracking"`
	EnablePerformanceMetrics bool   `json:"enable_performance_metrics" toml:"enable_performance_metrics"`
	OutputFile               string `json:"output_file" toml:"output_file"`
}

// FileConfig mirrors the JSON configuration document layout.
type FileConfig struct {
	Transport        TransportConfig        `json:"transport" toml:"transport"`
	DCStrategy       DCStrategyConfig       `json:"dc_strategy" toml:"dc_strategy"`
	StrategySettings StrategySettingsConfig `json:"strategy_settings" toml:"strategy_settings"`
	Performance      PerformanceConfig      `json:"performance" toml:"performance"`
}

// defaultTheta is the DC threshold used when the config omits one.
const defaultTheta = 0.004

// Default returns the documented default configuration.
func Default() FileConfig {
	return FileConfig{
		DCStrategy: DCStrategyConfig{
			Theta:                defaultTheta,
			EnableTMVCalculation: true,
			EnableTimeAdjustment: true,
		},
		StrategySettings: StrategySettingsConfig{
			Name:           "directional-change",
			LeverageFactor: 1.0,
		},
		Performance: PerformanceConfig{
			EnableLatencyTracking:    true,
			EnablePerformanceMetrics: true,
		},
	}
}

// Load reads a JSON config file, falling back to documented defaults and
// returning ConfigError on malformed or missing input. On failure the
// returned value is always Default(), never a partially decoded document.
func Load(path string) (FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("%w: %v", xerrors.ErrConfigMissing, err)
	}
	cfg := Default()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("%w: %v", xerrors.ErrConfigMalformed, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), err
	}
	return cfg, nil
}

// Validate rejects configuration values the core cannot act on.
func (c FileConfig) Validate() error {
	if c.DCStrategy.Theta <= 0 {
		return fmt.Errorf("%w: dc_strategy.theta must be > 0", xerrors.ErrConfigInvalid)
	}
	if c.StrategySettings.LeverageFactor < 0 {
		return fmt.Errorf("%w: strategy_settings.leverage_factor must be >= 0", xerrors.ErrConfigInvalid)
	}
	return nil
}
