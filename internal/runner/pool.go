// Package runner fans independent jobs across a bounded worker pool and
// streams verdicts back in completion order, never submission order.
package runner

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/crucible-bench/crucible/internal/sandbox"
)

// Clamp bounds the worker count to the available work and hardware:
// min(numWorkers, NumCPU, numJobs), floor 1. A pool is never built larger
// than there is work or parallelism to feed it.
func Clamp(numWorkers, numJobs int) int {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if n := runtime.NumCPU(); numWorkers > n {
		numWorkers = n
	}
	if numJobs > 0 && numWorkers > numJobs {
		numWorkers = numJobs
	}
	return numWorkers
}

// Stream dispatches jobs to exec with at most Clamp(numWorkers,
// len(jobs)) in flight and returns a channel delivering exactly one
// verdict per job as each finishes. A slow or hung job delays only its
// own worker; its deadline is enforced inside the executor. The channel
// closes after the last verdict.
func Stream(ctx context.Context, logger *zap.Logger, exec sandbox.Executor, jobs []sandbox.Job, numWorkers int) <-chan sandbox.Verdict {
	if logger == nil {
		logger = zap.NewNop()
	}
	workers := Clamp(numWorkers, len(jobs))
	logger.Debug("starting pool", zap.Int("workers", workers), zap.Int("jobs", len(jobs)))

	out := make(chan sandbox.Verdict)
	sem := make(chan struct{}, workers)
	var wg sync.WaitGroup

	go func() {
		for _, job := range jobs {
			wg.Add(1)
			sem <- struct{}{}
			go func(j sandbox.Job) {
				defer wg.Done()
				defer func() { <-sem }()
				out <- runOne(ctx, exec, j)
			}(job)
		}
		wg.Wait()
		close(out)
	}()
	return out
}

// Run collects the full verdict set from Stream. len(result) always
// equals len(jobs).
func Run(ctx context.Context, logger *zap.Logger, exec sandbox.Executor, jobs []sandbox.Job, numWorkers int) []sandbox.Verdict {
	verdicts := make([]sandbox.Verdict, 0, len(jobs))
	for v := range Stream(ctx, logger, exec, jobs, numWorkers) {
		verdicts = append(verdicts, v)
	}
	return verdicts
}

// runOne isolates a worker crash: a panic out of the executor becomes an
// error verdict for the job instead of aborting the batch or silently
// dropping the result.
func runOne(ctx context.Context, exec sandbox.Executor, job sandbox.Job) (v sandbox.Verdict) {
	defer func() {
		if r := recover(); r != nil {
			v = sandbox.Verdict{
				TaskID:       job.TaskID,
				CompletionID: job.CompletionID,
				Outcome:      sandbox.OutcomeError,
				Detail:       fmt.Sprintf("worker panic: %v", r),
				Solution:     job.Program,
			}
		}
	}()
	return exec.Run(ctx, job)
}
