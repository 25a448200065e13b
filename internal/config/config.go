// Package config loads and validates the yaml evaluation config.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Suites     []Suite    `yaml:"suites"`
	Sandbox    Sandbox    `yaml:"sandbox"`
	Evaluation Evaluation `yaml:"evaluation"`
	Results    Results    `yaml:"results"`
	Logging    Logging    `yaml:"logging"`
}

// Suite names one jobs file evaluated as a unit. Jobs points at a JSONL
// file of pre-assembled programs; TimeoutSeconds, when set, applies to
// jobs that do not carry their own timeout.
type Suite struct {
	Name           string  `yaml:"name"`
	Jobs           string  `yaml:"jobs"`
	TimeoutSeconds float64 `yaml:"timeout_seconds"`
}

type Sandbox struct {
	Type          string  `yaml:"type"`
	Interpreter   string  `yaml:"interpreter"`
	Image         string  `yaml:"image"`
	ScratchDir    string  `yaml:"scratch_dir"`
	MemoryLimitMB int     `yaml:"memory_limit_mb"`
	CPULimit      float64 `yaml:"cpu_limit"`
}

type Evaluation struct {
	NumWorkers     int     `yaml:"num_workers"`
	NumSamples     int     `yaml:"num_samples"`
	PassAtK        []int   `yaml:"pass_at_k"`
	TimeoutSeconds float64 `yaml:"timeout_seconds"`
}

type Results struct {
	Dir string `yaml:"dir"`
}

type Logging struct {
	Mode  string `yaml:"mode"`
	Level string `yaml:"level"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

func validate(cfg *Config) error {
	if len(cfg.Suites) == 0 {
		return fmt.Errorf("no suites defined")
	}
	for i, s := range cfg.Suites {
		if s.Name == "" {
			return fmt.Errorf("suite %d: name is required", i)
		}
		if s.Jobs == "" {
			return fmt.Errorf("suite %q: jobs file is required", s.Name)
		}
		if s.TimeoutSeconds < 0 {
			return fmt.Errorf("suite %q: timeout_seconds must not be negative", s.Name)
		}
	}

	sb := &cfg.Sandbox
	if sb.Type == "" {
		sb.Type = "local"
	}
	if sb.Type != "local" && sb.Type != "docker" {
		return fmt.Errorf("sandbox type must be local or docker, got %q", sb.Type)
	}
	if sb.Interpreter == "" {
		sb.Interpreter = "python3"
	}
	if sb.Type == "docker" && sb.Image == "" {
		sb.Image = "python:3.11-slim"
	}
	if sb.MemoryLimitMB < 0 {
		return fmt.Errorf("memory_limit_mb must not be negative")
	}

	ev := &cfg.Evaluation
	if ev.NumWorkers == 0 {
		ev.NumWorkers = 1
	}
	if ev.NumWorkers < 1 {
		return fmt.Errorf("num_workers must be at least 1")
	}
	if ev.NumSamples == 0 {
		ev.NumSamples = 1
	}
	if ev.NumSamples < 1 {
		return fmt.Errorf("num_samples must be at least 1")
	}
	if len(ev.PassAtK) == 0 {
		ev.PassAtK = []int{1}
	}
	for _, k := range ev.PassAtK {
		if k < 1 || k > ev.NumSamples {
			return fmt.Errorf("pass_at_k value %d out of range for %d samples", k, ev.NumSamples)
		}
	}
	if ev.TimeoutSeconds == 0 {
		ev.TimeoutSeconds = 3.0
	}
	if ev.TimeoutSeconds <= 0 {
		return fmt.Errorf("timeout_seconds must be positive")
	}

	if cfg.Results.Dir == "" {
		cfg.Results.Dir = "./results"
	}
	if cfg.Logging.Mode == "" {
		cfg.Logging.Mode = "production"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	return nil
}
