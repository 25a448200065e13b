package sandbox

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// LocalExecutor runs each job as a separate interpreter process in a
// fresh scratch directory. The process gets its own process group so a
// timed-out job is killed as a unit, including any threads or grandchild
// processes it managed to spawn before the guard took effect.
type LocalExecutor struct {
	logger      *zap.Logger
	interpreter string
	scratchRoot string
	guard       *Guard
}

// NewLocalExecutor returns a LocalExecutor. interpreter is the command
// used to run programs (e.g. "python3"); scratchRoot is the parent for
// per-job scratch directories, "" meaning the OS temp dir.
func NewLocalExecutor(logger *zap.Logger, interpreter, scratchRoot string, guard *Guard) *LocalExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalExecutor{
		logger:      logger,
		interpreter: interpreter,
		scratchRoot: scratchRoot,
		guard:       guard,
	}
}

// stderrTailBytes bounds how much untrusted stderr is retained for the
// verdict detail. Stdout is discarded outright.
const stderrTailBytes = 4096

// Run executes one job to completion or deadline. It never returns an
// error: harness faults become OutcomeError verdicts, program faults
// become OutcomeFailed, and a deadline expiry becomes OutcomeTimedOut.
func (e *LocalExecutor) Run(ctx context.Context, job Job) (verdict Verdict) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			verdict = errorVerdict(job, fmt.Sprintf("executor panic: %v", r))
		}
		verdict.DurationS = time.Since(start).Seconds()
	}()

	if job.Timeout <= 0 {
		return errorVerdict(job, fmt.Sprintf("invalid timeout %v", job.Timeout))
	}

	dir, err := os.MkdirTemp(e.scratchRoot, "crucible-job-")
	if err != nil {
		return errorVerdict(job, fmt.Sprintf("creating scratch dir: %v", err))
	}
	defer os.RemoveAll(dir)

	// Guard prelude first, then the untrusted program. The guard patches
	// only this child's interpreter state, so concurrent jobs cannot
	// interfere with each other.
	program := e.guard.Prelude() + "\n" + job.Program
	if err := os.WriteFile(filepath.Join(dir, "main.py"), []byte(program), 0o644); err != nil {
		return errorVerdict(job, fmt.Sprintf("writing program: %v", err))
	}

	cmd := exec.Command(e.interpreter, "main.py")
	cmd.Dir = dir
	// Stdin stays nil: the child reads the null device and sees
	// immediate EOF instead of blocking on input it will never get.
	cmd.Stdout = io.Discard
	stderr := newTailBuffer(stderrTailBytes)
	cmd.Stderr = stderr
	setProcGroup(cmd)

	if err := cmd.Start(); err != nil {
		return errorVerdict(job, fmt.Sprintf("starting %s: %v", e.interpreter, err))
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(time.Duration(job.Timeout * float64(time.Second)))
	defer timer.Stop()

	var waitErr error
	timedOut := false
	select {
	case waitErr = <-done:
	case <-timer.C:
		timedOut = true
		killGroup(cmd)
		<-done
	case <-ctx.Done():
		killGroup(cmd)
		<-done
		return errorVerdict(job, "cancelled: "+ctx.Err().Error())
	}

	verdict = Verdict{
		TaskID:       job.TaskID,
		CompletionID: job.CompletionID,
		Solution:     job.Program,
	}
	switch {
	case timedOut:
		verdict.Outcome = OutcomeTimedOut
		verdict.Detail = "timed out"
	case waitErr == nil:
		verdict.Outcome = OutcomePassed
	default:
		verdict.Outcome = OutcomeFailed
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = waitErr.Error()
		}
		verdict.Detail = detail
	}

	e.logger.Debug("job finished",
		zap.String("task_id", job.TaskID),
		zap.Int("completion_id", job.CompletionID),
		zap.String("outcome", string(verdict.Outcome)))
	return verdict
}

// tailBuffer retains the last max bytes written to it. The end of a
// Python traceback carries the exception message, which is what the
// verdict detail needs.
type tailBuffer struct {
	max int
	buf []byte
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if len(t.buf) > t.max {
		t.buf = t.buf[len(t.buf)-t.max:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}
