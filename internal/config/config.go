package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"isinglab/internal/physics"
	"isinglab/internal/sim"
)

const (
	DefaultWidth        = 64
	DefaultHeight       = 64
	DefaultCoupling     = 1.0
	DefaultTemperature  = 2.269
	DefaultEquilSweeps  = 1000
	DefaultSampleSweeps = 5000
	DefaultInterval     = 10
	DefaultStoreBackend = "files"
	DefaultStorePath    = ".isinglab"
)

type Config struct {
	Width       int     `yaml:"width"`
	Height      int     `yaml:"height"`
	Coupling    float64 `yaml:"coupling"`
	Field       float64 `yaml:"field"`
	Temperature float64 `yaml:"temperature"`
	Boltzmann   float64 `yaml:"boltzmann"`
	Seed        int64   `yaml:"seed"`
	Init        string  `yaml:"init"`
	Workers     int     `yaml:"workers"`

	EquilibrationSweeps int `yaml:"equilibration_sweeps"`
	SamplingSweeps      int `yaml:"sampling_sweeps"`
	SampleInterval      int `yaml:"sample_interval"`

	StoreBackend string `yaml:"store_backend"`
	StorePath    string `yaml:"store_path"`
}

func DefaultConfig() *Config {
	return &Config{
		Width:               DefaultWidth,
		Height:              DefaultHeight,
		Coupling:            DefaultCoupling,
		Temperature:         DefaultTemperature,
		Boltzmann:           physics.DefaultBoltzmann,
		Init:                string(sim.InitRandom),
		EquilibrationSweeps: DefaultEquilSweeps,
		SamplingSweeps:      DefaultSampleSweeps,
		SampleInterval:      DefaultInterval,
		StoreBackend:        DefaultStoreBackend,
		StorePath:           DefaultStorePath,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Parameters assembles the model parameters, defaulting the Boltzmann
// constant to reduced units when unset.
func (c *Config) Parameters() physics.Parameters {
	kb := c.Boltzmann
	if kb == 0 {
		kb = physics.DefaultBoltzmann
	}
	return physics.Parameters{
		Coupling:    c.Coupling,
		Field:       c.Field,
		Temperature: c.Temperature,
		Boltzmann:   kb,
	}
}

// SimConfig assembles the controller configuration.
func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Width:   c.Width,
		Height:  c.Height,
		Params:  c.Parameters(),
		Seed:    c.Seed,
		Init:    sim.InitMode(c.Init),
		Workers: c.Workers,
	}
}
