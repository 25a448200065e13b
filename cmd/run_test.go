package cmd

import (
	"testing"

	"github.com/crucible-bench/crucible/internal/config"
	"github.com/crucible-bench/crucible/internal/sandbox"
)

func TestFilterSuites(t *testing.T) {
	suites := []config.Suite{
		{Name: "humaneval"},
		{Name: "mbpp"},
	}

	if got := filterSuites(suites, ""); len(got) != 2 {
		t.Errorf("empty filter: got %d suites, want all", len(got))
	}
	got := filterSuites(suites, "mbpp")
	if len(got) != 1 || got[0].Name != "mbpp" {
		t.Errorf("filter mbpp: got %+v", got)
	}
	if got := filterSuites(suites, "nope"); len(got) != 0 {
		t.Errorf("unknown filter: got %d suites, want 0", len(got))
	}
}

func TestApplyTimeouts(t *testing.T) {
	jobs := []sandbox.Job{
		{TaskID: "own", Timeout: 7},
		{TaskID: "suite"},
		{TaskID: "global"},
	}

	applyTimeouts(jobs, 5, 3)
	if jobs[0].Timeout != 7 {
		t.Errorf("job timeout overwritten: %v", jobs[0].Timeout)
	}
	if jobs[1].Timeout != 5 || jobs[2].Timeout != 5 {
		t.Errorf("suite timeout not applied: %v, %v", jobs[1].Timeout, jobs[2].Timeout)
	}

	jobs = []sandbox.Job{{TaskID: "global"}}
	applyTimeouts(jobs, 0, 3)
	if jobs[0].Timeout != 3 {
		t.Errorf("global timeout not applied: %v", jobs[0].Timeout)
	}
}
