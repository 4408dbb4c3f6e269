package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Normalization.IMin != 1 || cfg.Normalization.IMax != 99 {
		t.Errorf("Expected percentile bounds 1/99, got %g/%g", cfg.Normalization.IMin, cfg.Normalization.IMax)
	}
	if cfg.Normalization.ISMin != 1 || cfg.Normalization.ISMax != 100 {
		t.Errorf("Expected standard range 1/100, got %g/%g", cfg.Normalization.ISMin, cfg.Normalization.ISMax)
	}
	if cfg.Normalization.LPercentile != 10 || cfg.Normalization.UPercentile != 90 || cfg.Normalization.Step != 10 {
		t.Errorf("Expected decile band 10..90 step 10, got %g..%g step %g",
			cfg.Normalization.LPercentile, cfg.Normalization.UPercentile, cfg.Normalization.Step)
	}
	if cfg.Normalization.InterpType != "linear" {
		t.Errorf("Expected linear interpolation, got %q", cfg.Normalization.InterpType)
	}
	if cfg.Normalization.Extrapolation != "linear" {
		t.Errorf("Expected linear extrapolation, got %q", cfg.Normalization.Extrapolation)
	}
	if cfg.Normalization.MaskBackground {
		t.Error("Expected background masking off by default")
	}
	if cfg.Processing.NumCores != runtime.NumCPU() {
		t.Errorf("Expected %d cores, got %d", runtime.NumCPU(), cfg.Processing.NumCores)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("Expected defaults for a missing file, got error: %v", err)
	}
	if cfg.Normalization.IMax != 99 {
		t.Errorf("Expected default config, got iMax=%g", cfg.Normalization.IMax)
	}
}

func TestConfigSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.Normalization.IMin = 2
	cfg.Normalization.Step = 5
	cfg.Normalization.InterpType = "spline"
	cfg.Normalization.MaskBackground = true
	cfg.Processing.NumCores = 3
	cfg.Processing.Verbose = false

	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Normalization.IMin != 2 || loaded.Normalization.Step != 5 {
		t.Errorf("Landmark parameters not preserved: iMin=%g step=%g", loaded.Normalization.IMin, loaded.Normalization.Step)
	}
	if loaded.Normalization.InterpType != "spline" {
		t.Errorf("Expected spline interpolation, got %q", loaded.Normalization.InterpType)
	}
	if !loaded.Normalization.MaskBackground {
		t.Error("Expected background masking enabled")
	}
	if loaded.Processing.NumCores != 3 || loaded.Processing.Verbose {
		t.Errorf("Processing parameters not preserved: cores=%d verbose=%v", loaded.Processing.NumCores, loaded.Processing.Verbose)
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("{{{{"), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Error("Expected an error for invalid YAML")
	}
}
