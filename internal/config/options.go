package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Options is the host-supplied engine configuration.
type Options struct {
	Optimization string        `yaml:"optimization"`
	Unchecked    bool          `yaml:"unchecked"`
	Limits       LimitsOptions `yaml:"limits"`
}

// LimitsOptions configures the safety governor ceilings. Zero means
// unlimited.
type LimitsOptions struct {
	MaxCallDepth  int    `yaml:"max_call_depth"`
	MaxOperations uint64 `yaml:"max_operations"`
	MaxStringSize int    `yaml:"max_string_size"`
	MaxArraySize  int    `yaml:"max_array_size"`
	MaxMapSize    int    `yaml:"max_map_size"`
	MaxExprDepth  int    `yaml:"max_expr_depth"`
}

// DefaultOptions returns the configuration an engine starts with.
func DefaultOptions() *Options {
	return &Options{
		Optimization: OptimizationSimple,
		Limits: LimitsOptions{
			MaxCallDepth:  DefaultMaxCallDepth,
			MaxOperations: DefaultMaxOperations,
			MaxStringSize: DefaultMaxStringSize,
			MaxArraySize:  DefaultMaxArraySize,
			MaxMapSize:    DefaultMaxMapSize,
			MaxExprDepth:  DefaultMaxExprDepth,
		},
	}
}

// Load parses YAML configuration. Missing fields keep their defaults.
func Load(data []byte) (*Options, error) {
	opts := DefaultOptions()
	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("parse options: %w", err)
	}
	switch opts.Optimization {
	case OptimizationNone, OptimizationSimple, OptimizationFull:
	default:
		return nil, fmt.Errorf("unknown optimization level %q", opts.Optimization)
	}
	return opts, nil
}

// LoadFile reads and parses a YAML configuration file.
func LoadFile(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Load(data)
}
