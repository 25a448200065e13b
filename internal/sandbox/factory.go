package sandbox

import (
	"fmt"

	"go.uber.org/zap"
)

// Config selects and parameterizes an executor.
type Config struct {
	Type          string // "local" or "docker"
	Interpreter   string
	Image         string
	ScratchDir    string
	MemoryLimitMB int
	CPULimit      float64
}

// New builds the executor named by cfg.Type. Unknown types are rejected
// here rather than discovered at job time.
func New(logger *zap.Logger, cfg Config) (Executor, error) {
	guard := NewGuard(cfg.MemoryLimitMB)
	switch cfg.Type {
	case "local":
		return NewLocalExecutor(logger, cfg.Interpreter, cfg.ScratchDir, guard), nil
	case "docker":
		return NewDockerExecutor(logger, DockerOpts{
			Image:       cfg.Image,
			Interpreter: cfg.Interpreter,
			ScratchRoot: cfg.ScratchDir,
			Guard:       guard,
			MemoryLimit: int64(cfg.MemoryLimitMB) * 1024 * 1024,
			CPULimit:    cfg.CPULimit,
		}), nil
	default:
		return nil, fmt.Errorf("unknown sandbox type %q", cfg.Type)
	}
}
