package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucible-bench/crucible/internal/config"
)

func TestLoadMinimal(t *testing.T) {
	cfg, err := config.Load("../../testdata/minimal.yaml")
	require.NoError(t, err)

	require.Len(t, cfg.Suites, 1)
	assert.Equal(t, "smoke", cfg.Suites[0].Name)

	// Everything unspecified falls back to defaults.
	assert.Equal(t, "local", cfg.Sandbox.Type)
	assert.Equal(t, "python3", cfg.Sandbox.Interpreter)
	assert.Equal(t, 1, cfg.Evaluation.NumWorkers)
	assert.Equal(t, 1, cfg.Evaluation.NumSamples)
	assert.Equal(t, []int{1}, cfg.Evaluation.PassAtK)
	assert.Equal(t, 3.0, cfg.Evaluation.TimeoutSeconds)
	assert.Equal(t, "./results", cfg.Results.Dir)
	assert.Equal(t, "production", cfg.Logging.Mode)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFull(t *testing.T) {
	cfg, err := config.Load("../../testdata/full.yaml")
	require.NoError(t, err)

	require.Len(t, cfg.Suites, 2)
	assert.Equal(t, 5.0, cfg.Suites[0].TimeoutSeconds)
	assert.Equal(t, "docker", cfg.Sandbox.Type)
	assert.Equal(t, "python:3.11-slim", cfg.Sandbox.Image)
	assert.Equal(t, 512, cfg.Sandbox.MemoryLimitMB)
	assert.Equal(t, 1.0, cfg.Sandbox.CPULimit)
	assert.Equal(t, 8, cfg.Evaluation.NumWorkers)
	assert.Equal(t, []int{1, 5, 10}, cfg.Evaluation.PassAtK)
	assert.Equal(t, "development", cfg.Logging.Mode)
}

func TestLoadMissing(t *testing.T) {
	_, err := config.Load("nonexistent.yaml")
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	_, err := config.Load("../../testdata/invalid.yaml")
	assert.Error(t, err)
}

func TestLoadKExceedsSamples(t *testing.T) {
	_, err := config.Load("../../testdata/bad_k.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pass_at_k")
}

func TestLoadUnknownSandboxType(t *testing.T) {
	_, err := config.Load("../../testdata/bad_sandbox.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "firecracker")
}
