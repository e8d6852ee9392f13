package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	if opts.Optimization != OptimizationSimple {
		t.Errorf("default level must be %q, got %q", OptimizationSimple, opts.Optimization)
	}
	if opts.Limits.MaxCallDepth != DefaultMaxCallDepth {
		t.Errorf("expected call depth %d, got %d", DefaultMaxCallDepth, opts.Limits.MaxCallDepth)
	}
	if opts.Unchecked {
		t.Error("checked mode must be the default")
	}
}

func TestLoad(t *testing.T) {
	data := []byte(`
optimization: full
unchecked: true
limits:
  max_call_depth: 5
  max_operations: 1000
  max_string_size: 4096
  max_array_size: 256
  max_map_size: 128
  max_expr_depth: 32
`)
	opts, err := Load(data)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Optimization != OptimizationFull {
		t.Errorf("expected full, got %q", opts.Optimization)
	}
	if !opts.Unchecked {
		t.Error("unchecked flag not applied")
	}
	if opts.Limits.MaxCallDepth != 5 || opts.Limits.MaxOperations != 1000 {
		t.Errorf("limits not applied: %+v", opts.Limits)
	}
	if opts.Limits.MaxStringSize != 4096 || opts.Limits.MaxArraySize != 256 ||
		opts.Limits.MaxMapSize != 128 || opts.Limits.MaxExprDepth != 32 {
		t.Errorf("limits not applied: %+v", opts.Limits)
	}
}

func TestLoadKeepsDefaultsForMissingFields(t *testing.T) {
	opts, err := Load([]byte("limits:\n  max_operations: 10\n"))
	if err != nil {
		t.Fatal(err)
	}
	if opts.Optimization != OptimizationSimple {
		t.Errorf("missing level must keep the default, got %q", opts.Optimization)
	}
	if opts.Limits.MaxCallDepth != DefaultMaxCallDepth {
		t.Errorf("missing ceilings must keep defaults, got %d", opts.Limits.MaxCallDepth)
	}
	if opts.Limits.MaxOperations != 10 {
		t.Errorf("expected 10 operations, got %d", opts.Limits.MaxOperations)
	}
}

func TestLoadRejectsBadInput(t *testing.T) {
	if _, err := Load([]byte("optimization: aggressive\n")); err == nil {
		t.Error("unknown level names must be rejected")
	}
	if _, err := Load([]byte("limits: [not, a, map]\n")); err == nil {
		t.Error("malformed yaml must be rejected")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quoll.yaml")
	if err := os.WriteFile(path, []byte("optimization: none\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	opts, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if opts.Optimization != OptimizationNone {
		t.Errorf("expected none, got %q", opts.Optimization)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing files must surface an error")
	}
}
