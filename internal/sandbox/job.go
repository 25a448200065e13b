// Package sandbox executes untrusted model-generated programs in isolation
// and reports a structured verdict per execution. Two executors are
// provided: LocalExecutor runs each program as a separate interpreter
// process in its own process group, DockerExecutor runs it in a
// network-less container. Both honor the same contract: one Job in, one
// Verdict out, never an error or a panic.
package sandbox

import "context"

// Outcome classifies a single execution.
type Outcome string

const (
	// OutcomePassed means the program ran to completion with exit 0.
	OutcomePassed Outcome = "passed"
	// OutcomeFailed means the program raised or an assertion failed.
	OutcomeFailed Outcome = "failed"
	// OutcomeTimedOut means the wall-clock deadline expired.
	OutcomeTimedOut Outcome = "timed_out"
	// OutcomeError means the harness itself failed; the candidate was
	// never judged. Scored 0 like failed, but surfaced distinctly.
	OutcomeError Outcome = "error"
)

// Job is one unit of work: a pre-assembled program (candidate solution
// plus its test harness, concatenated by the caller) and a deadline.
// Program is untrusted and may not even parse.
type Job struct {
	TaskID       string  `json:"task_id"`
	CompletionID int     `json:"completion_id"`
	Program      string  `json:"program"`
	Timeout      float64 `json:"timeout_seconds"`
}

// Verdict is the outcome record of executing one Job. TaskID and
// CompletionID are copied from the Job unmodified; they are the
// correlation key for downstream grouping.
type Verdict struct {
	TaskID       string  `json:"task_id"`
	CompletionID int     `json:"completion_id"`
	Outcome      Outcome `json:"outcome"`
	Detail       string  `json:"detail"`
	Solution     string  `json:"solution"`
	DurationS    float64 `json:"duration_s"`
}

// Passed reports whether the verdict counts toward pass@k.
func (v *Verdict) Passed() bool {
	return v.Outcome == OutcomePassed
}

// Executor runs exactly one Job and produces exactly one Verdict. Run
// must not return an error or let a panic escape; every failure mode
// inside the execution is folded into the Verdict.
type Executor interface {
	Run(ctx context.Context, job Job) Verdict
}

func errorVerdict(job Job, detail string) Verdict {
	return Verdict{
		TaskID:       job.TaskID,
		CompletionID: job.CompletionID,
		Outcome:      OutcomeError,
		Detail:       detail,
		Solution:     job.Program,
	}
}
