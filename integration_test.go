//go:build integration

package main

import (
	"context"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/crucible-bench/crucible/internal/report"
	"github.com/crucible-bench/crucible/internal/result"
	"github.com/crucible-bench/crucible/internal/runner"
	"github.com/crucible-bench/crucible/internal/sandbox"
	"github.com/crucible-bench/crucible/internal/score"
)

// End-to-end: jobs file -> local executor -> pool -> verdict file ->
// summary. Exercises the same path as `crucible run` minus the CLI.
func TestLocalEvaluationIntegration(t *testing.T) {
	if _, err := exec.LookPath("python3"); err != nil {
		t.Skip("python3 not installed")
	}

	jobs, err := result.ReadJobs("testdata/jobs.jsonl")
	if err != nil {
		t.Fatalf("ReadJobs: %v", err)
	}
	if len(jobs) != 4 {
		t.Fatalf("fixture drifted: %d jobs", len(jobs))
	}

	runDir, err := result.CreateRunDir(t.TempDir())
	if err != nil {
		t.Fatalf("CreateRunDir: %v", err)
	}

	exe := sandbox.NewLocalExecutor(nil, "python3", t.TempDir(), sandbox.NewGuard(0))
	writer, err := result.NewWriter(
		filepath.Join(result.SuiteDir(runDir, "demo"), result.VerdictsFilename))
	if err != nil {
		t.Fatalf("NewWriter: %v", err)
	}
	for v := range runner.Stream(context.Background(), nil, exe, jobs, 2) {
		if err := writer.Append(v); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	verdicts, err := result.ReadVerdicts(
		filepath.Join(result.SuiteDir(runDir, "demo"), result.VerdictsFilename))
	if err != nil {
		t.Fatalf("ReadVerdicts: %v", err)
	}
	if len(verdicts) != 4 {
		t.Fatalf("expected 4 verdicts, got %d", len(verdicts))
	}

	// demo/0 passes once out of two, demo/1 passes both.
	_, samples, correct := score.PassCounts(verdicts)
	estimates, err := score.Estimate(samples, correct, 1)
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	mean := score.Mean(estimates)
	if mean < 0.74 || mean > 0.76 {
		t.Errorf("pass@1 = %v, want 0.75", mean)
	}

	var buf strings.Builder
	if err := report.Generate(runDir, "table", []int{1, 2}, &buf); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if !strings.Contains(buf.String(), "demo") {
		t.Errorf("summary missing suite:\n%s", buf.String())
	}
}
