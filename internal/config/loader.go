package config

import (
	"github.com/spf13/viper"

	"github.com/kiti15237/American-Gut/internal/types"
)

// Loader loads configuration from YAML files.
type Loader struct {
	validator *Validator
}

// NewLoader creates a Loader using the given validator.
func NewLoader(validator *Validator) *Loader {
	return &Loader{validator: validator}
}

// Load reads, unmarshals, and validates the configuration at path.
// Values absent from the file keep their defaults.
func (l *Loader) Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to read config file", err)
	}

	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED, "failed to unmarshal config", err)
	}

	if err := l.validator.Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}
