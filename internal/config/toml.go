package config

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/yanun0323/dc-trading-pipeline/pkg/xerrors"
)

// LoadTOML reads a TOML configuration document into the same FileConfig
// shape the JSON loader produces. It exists as an alternate config source
// for operators who prefer TOML; JSON via Load remains the documented
// default.
func LoadTOML(path string) (FileConfig, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("%w: %v", xerrors.ErrConfigMalformed, err)
	}
	if err := cfg.Validate(); err != nil {
		return FileConfig{}, err
	}
	return cfg, nil
}
