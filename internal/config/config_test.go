package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Width != 64 || cfg.Height != 64 {
		t.Errorf("expected 64x64 default lattice, got %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Temperature != 2.269 {
		t.Errorf("expected default temperature 2.269, got %f", cfg.Temperature)
	}
	if cfg.Init != "random" {
		t.Errorf("expected random init, got %s", cfg.Init)
	}
	if err := cfg.Parameters().Validate(); err != nil {
		t.Errorf("default parameters invalid: %v", err)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	data := []byte("width: 32\ntemperature: 1.8\nfield: 0.25\nseed: 99\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	if cfg.Width != 32 {
		t.Errorf("expected width 32, got %d", cfg.Width)
	}
	if cfg.Height != 64 {
		t.Errorf("unset height should keep default 64, got %d", cfg.Height)
	}
	if cfg.Temperature != 1.8 || cfg.Field != 0.25 || cfg.Seed != 99 {
		t.Error("yaml values not applied")
	}
}

func TestLoadRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	os.WriteFile(path, []byte("width: [not a number"), 0644)

	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.yaml")

	cfg := DefaultConfig()
	cfg.Temperature = 3.5
	cfg.Workers = 4
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Temperature != 3.5 || loaded.Workers != 4 {
		t.Error("round trip lost values")
	}
}

func TestParametersDefaultBoltzmann(t *testing.T) {
	cfg := &Config{Coupling: 1, Temperature: 2.0}
	if got := cfg.Parameters().Boltzmann; got != 1.0 {
		t.Errorf("expected reduced-units boltzmann 1, got %f", got)
	}
}

func TestPresets(t *testing.T) {
	for _, name := range ListPresets() {
		cfg := GetPreset(name)
		if cfg == nil {
			t.Fatalf("preset %s listed but missing", name)
		}
		if err := cfg.Parameters().Validate(); err != nil {
			t.Errorf("preset %s has invalid parameters: %v", name, err)
		}
		if cfg.StoreBackend == "" {
			t.Errorf("preset %s lost store defaults", name)
		}
	}

	if GetPreset("no-such-preset") != nil {
		t.Error("unknown preset should return nil")
	}
}
