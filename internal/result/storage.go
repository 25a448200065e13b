// Package result owns on-disk persistence: timestamped run directories,
// newline-delimited JSON verdict files, and job file loading. The
// verdict writer is the only mutable state shared across pool workers
// and supports concurrent appends.
package result

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/crucible-bench/crucible/internal/sandbox"
)

// VerdictsFilename is the per-suite verdict file inside a run directory.
const VerdictsFilename = "verdicts.jsonl"

// CreateRunDir makes a fresh timestamped run directory under
// baseDir/runs and points baseDir/latest at it.
func CreateRunDir(baseDir string) (string, error) {
	runsDir := filepath.Join(baseDir, "runs")
	stamp := time.Now().UTC().Format("2006-01-02T15-04-05")
	runDir := filepath.Join(runsDir, stamp)
	runDir, err := filepath.Abs(runDir)
	if err != nil {
		return "", fmt.Errorf("resolving run dir: %w", err)
	}
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", fmt.Errorf("creating run dir: %w", err)
	}
	latest := filepath.Join(baseDir, "latest")
	os.Remove(latest)
	if err := os.Symlink(runDir, latest); err != nil {
		return "", fmt.Errorf("creating latest symlink: %w", err)
	}
	return runDir, nil
}

// SuiteDir is where one suite's artifacts live inside a run.
func SuiteDir(runDir, suite string) string {
	return filepath.Join(runDir, "suites", suite)
}

// Writer appends verdicts to a JSONL file. Safe for concurrent use by
// pool workers; each verdict is written as one line under the lock, so
// records are never interleaved, lost, or duplicated.
type Writer struct {
	mu sync.Mutex
	f  *os.File
}

// NewWriter opens (creating parents as needed) the verdict file for
// appending.
func NewWriter(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating verdict dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening verdict file: %w", err)
	}
	return &Writer{f: f}, nil
}

// Append writes one verdict record.
func (w *Writer) Append(v sandbox.Verdict) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshaling verdict: %w", err)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("appending verdict: %w", err)
	}
	return nil
}

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

// ReadVerdicts scans a verdict JSONL file back into memory, skipping
// blank lines. A malformed line is an error: a corrupt verdict must not
// silently drop a sample from scoring.
func ReadVerdicts(path string) ([]sandbox.Verdict, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening verdicts: %w", err)
	}
	defer f.Close()

	var verdicts []sandbox.Verdict
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var v sandbox.Verdict
		if err := json.Unmarshal([]byte(text), &v); err != nil {
			return nil, fmt.Errorf("parsing %s line %d: %w", path, line, err)
		}
		verdicts = append(verdicts, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return verdicts, nil
}

// ReadJobs loads a suite's jobs JSONL file. Programs arrive fully
// assembled by the benchmark side; nothing is validated beyond JSON
// shape here.
func ReadJobs(path string) ([]sandbox.Job, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening jobs: %w", err)
	}
	defer f.Close()

	var jobs []sandbox.Job
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var j sandbox.Job
		if err := json.Unmarshal([]byte(text), &j); err != nil {
			return nil, fmt.Errorf("parsing %s line %d: %w", path, line, err)
		}
		jobs = append(jobs, j)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return jobs, nil
}
