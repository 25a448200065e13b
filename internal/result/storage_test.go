package result_test

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/crucible-bench/crucible/internal/result"
	"github.com/crucible-bench/crucible/internal/sandbox"
)

func TestCreateRunDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need elevation on windows")
	}
	base := t.TempDir()
	runDir, err := result.CreateRunDir(base)
	if err != nil {
		t.Fatalf("CreateRunDir failed: %v", err)
	}
	if info, err := os.Stat(runDir); err != nil || !info.IsDir() {
		t.Fatalf("run dir not created: %v", err)
	}

	latest, err := os.Readlink(filepath.Join(base, "latest"))
	if err != nil {
		t.Fatalf("latest symlink missing: %v", err)
	}
	if latest != runDir {
		t.Errorf("latest points at %s, want %s", latest, runDir)
	}
}

func TestWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "suites", "demo", result.VerdictsFilename)
	w, err := result.NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	want := []sandbox.Verdict{
		{TaskID: "a", CompletionID: 0, Outcome: sandbox.OutcomePassed, Solution: "pass\n", DurationS: 0.01},
		{TaskID: "a", CompletionID: 1, Outcome: sandbox.OutcomeFailed, Detail: "AssertionError"},
		{TaskID: "b", CompletionID: 0, Outcome: sandbox.OutcomeTimedOut, Detail: "timed out"},
	}
	for _, v := range want {
		if err := w.Append(v); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	got, err := result.ReadVerdicts(path)
	if err != nil {
		t.Fatalf("ReadVerdicts failed: %v", err)
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d verdicts, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("verdict %d: got %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestWriterConcurrentAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), result.VerdictsFilename)
	w, err := result.NewWriter(path)
	if err != nil {
		t.Fatalf("NewWriter failed: %v", err)
	}

	const n = 200
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v := sandbox.Verdict{
				TaskID:   fmt.Sprintf("task-%d", i),
				Outcome:  sandbox.OutcomePassed,
				Solution: "a solution long enough to tear if writes interleave",
			}
			if err := w.Append(v); err != nil {
				t.Errorf("Append: %v", err)
			}
		}(i)
	}
	wg.Wait()
	if err := w.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	verdicts, err := result.ReadVerdicts(path)
	if err != nil {
		t.Fatalf("ReadVerdicts failed: %v", err)
	}
	if len(verdicts) != n {
		t.Fatalf("expected %d records, got %d", n, len(verdicts))
	}
	seen := map[string]bool{}
	for _, v := range verdicts {
		if seen[v.TaskID] {
			t.Errorf("duplicate record for %s", v.TaskID)
		}
		seen[v.TaskID] = true
	}
}

func TestReadVerdictsSkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), result.VerdictsFilename)
	data := `{"task_id":"a","completion_id":0,"outcome":"passed"}

{"task_id":"b","completion_id":0,"outcome":"failed"}
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	verdicts, err := result.ReadVerdicts(path)
	if err != nil {
		t.Fatalf("ReadVerdicts failed: %v", err)
	}
	if len(verdicts) != 2 {
		t.Errorf("expected 2 verdicts, got %d", len(verdicts))
	}
}

func TestReadVerdictsMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), result.VerdictsFilename)
	data := `{"task_id":"a","completion_id":0,"outcome":"passed"}
{not json}
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := result.ReadVerdicts(path); err == nil {
		t.Error("expected error for malformed line")
	}
}

func TestReadJobs(t *testing.T) {
	jobs, err := result.ReadJobs("../../testdata/jobs.jsonl")
	if err != nil {
		t.Fatalf("ReadJobs failed: %v", err)
	}
	if len(jobs) != 4 {
		t.Fatalf("expected 4 jobs, got %d", len(jobs))
	}
	if jobs[0].TaskID != "demo/0" || jobs[0].CompletionID != 0 {
		t.Errorf("first job: %+v", jobs[0])
	}
	if jobs[0].Timeout != 3.0 {
		t.Errorf("timeout: got %v, want 3.0", jobs[0].Timeout)
	}
	if jobs[2].Program == "" {
		t.Error("program not loaded")
	}
}

func TestReadJobsMissingFile(t *testing.T) {
	if _, err := result.ReadJobs("nonexistent.jsonl"); err == nil {
		t.Error("expected error for missing file")
	}
}
