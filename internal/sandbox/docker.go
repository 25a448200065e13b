package sandbox

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/moby/moby/api/types/container"
	"github.com/moby/moby/api/types/mount"
	"github.com/moby/moby/client"
	"go.uber.org/zap"
)

// DockerExecutor runs each job in a disposable container with no network
// and optional memory/CPU limits. The container is the isolation
// boundary, which is strictly stronger than the process-group baseline;
// the guard prelude is still injected for uniform in-interpreter
// behavior (disabled exit/quit, discarded stdin semantics).
type DockerExecutor struct {
	logger      *zap.Logger
	image       string
	interpreter string
	scratchRoot string
	guard       *Guard
	memoryLimit int64
	cpuLimit    float64
}

// DockerOpts configures a DockerExecutor.
type DockerOpts struct {
	Image       string
	Interpreter string
	ScratchRoot string
	Guard       *Guard
	MemoryLimit int64 // bytes, 0 = unlimited
	CPULimit    float64
}

// NewDockerExecutor returns a DockerExecutor. The Docker client itself is
// created per run so that a daemon restart between jobs does not poison
// the executor.
func NewDockerExecutor(logger *zap.Logger, opts DockerOpts) *DockerExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DockerExecutor{
		logger:      logger,
		image:       opts.Image,
		interpreter: opts.Interpreter,
		scratchRoot: opts.ScratchRoot,
		guard:       opts.Guard,
		memoryLimit: opts.MemoryLimit,
		cpuLimit:    opts.CPULimit,
	}
}

// Run executes one job in a fresh container. Same contract as
// LocalExecutor.Run: one verdict, no errors, no panics.
func (e *DockerExecutor) Run(ctx context.Context, job Job) (verdict Verdict) {
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

	program := e.guard.Prelude() + "\n" + job.Program
	if err := os.WriteFile(filepath.Join(dir, "main.py"), []byte(program), 0o644); err != nil {
		return errorVerdict(job, fmt.Sprintf("writing program: %v", err))
	}

	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return errorVerdict(job, fmt.Sprintf("creating docker client: %v", err))
	}
	defer cli.Close()

	initTrue := true
	hostCfg := &container.HostConfig{
		Mounts: []mount.Mount{
			{
				Type:   mount.TypeBind,
				Source: dir,
				Target: "/workspace",
			},
		},
		Init:        &initTrue,
		NetworkMode: "none",
	}
	if e.cpuLimit > 0 {
		hostCfg.NanoCPUs = int64(e.cpuLimit * 1e9)
	}
	if e.memoryLimit > 0 {
		hostCfg.Memory = e.memoryLimit
	}

	containerCfg := &container.Config{
		Image:      e.image,
		Cmd:        []string{e.interpreter, "main.py"},
		WorkingDir: "/workspace",
		Labels:     map[string]string{"crucible": "true"},
	}

	createResp, err := cli.ContainerCreate(ctx, client.ContainerCreateOptions{
		Config:     containerCfg,
		HostConfig: hostCfg,
	})
	if err != nil {
		return errorVerdict(job, fmt.Sprintf("creating container: %v", err))
	}
	containerID := createResp.ID
	defer func() {
		cli.ContainerRemove(context.Background(), containerID, client.ContainerRemoveOptions{Force: true})
	}()

	if _, err := cli.ContainerStart(ctx, containerID, client.ContainerStartOptions{}); err != nil {
		return errorVerdict(job, fmt.Sprintf("starting container: %v", err))
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, time.Duration(job.Timeout*float64(time.Second)))
	defer cancel()

	waitResult := cli.ContainerWait(timeoutCtx, containerID, client.ContainerWaitOptions{
		Condition: container.WaitConditionNotRunning,
	})

	verdict = Verdict{
		TaskID:       job.TaskID,
		CompletionID: job.CompletionID,
		Solution:     job.Program,
	}
	for {
		select {
		case err := <-waitResult.Error:
			if err != nil {
				cli.ContainerKill(context.Background(), containerID, client.ContainerKillOptions{Signal: "SIGKILL"})
				verdict.Outcome = OutcomeTimedOut
				verdict.Detail = "timed out"
				return verdict
			}
			// nil error means no error on this channel; wait for result
		case status := <-waitResult.Result:
			if status.StatusCode == 0 {
				verdict.Outcome = OutcomePassed
				return verdict
			}
			verdict.Outcome = OutcomeFailed
			verdict.Detail = stderrTail(cli, containerID)
			if verdict.Detail == "" {
				verdict.Detail = fmt.Sprintf("exit status %d", status.StatusCode)
			}
			return verdict
		}
	}
}

func stderrTail(cli *client.Client, containerID string) string {
	logReader, err := cli.ContainerLogs(context.Background(), containerID, client.ContainerLogsOptions{
		ShowStderr: true,
		Tail:       "20",
	})
	if err != nil || logReader == nil {
		return ""
	}
	defer logReader.Close()
	data, _ := io.ReadAll(logReader)
	return strings.TrimSpace(string(data))
}
