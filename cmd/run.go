package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/crucible-bench/crucible/internal/config"
	"github.com/crucible-bench/crucible/internal/logger"
	"github.com/crucible-bench/crucible/internal/report"
	"github.com/crucible-bench/crucible/internal/result"
	"github.com/crucible-bench/crucible/internal/runner"
	"github.com/crucible-bench/crucible/internal/sandbox"
)

var (
	flagSuite   string
	flagWorkers int
	flagFormat  string
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute an evaluation run",
		RunE:  runEvaluation,
	}
	cmd.Flags().StringVar(&flagSuite, "suite", "", "filter to a single suite")
	cmd.Flags().IntVar(&flagWorkers, "workers", 0, "override worker count")
	cmd.Flags().StringVar(&flagFormat, "format", "table", "summary format (table, markdown, json)")
	return cmd
}

func runEvaluation(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	if flagWorkers > 0 {
		cfg.Evaluation.NumWorkers = flagWorkers
	}

	log, err := logger.New(cfg.Logging.Mode, cfg.Logging.Level)
	if err != nil {
		return err
	}
	defer log.Sync()

	suites := filterSuites(cfg.Suites, flagSuite)
	if len(suites) == 0 {
		return fmt.Errorf("no suite matches %q", flagSuite)
	}

	runDir, err := result.CreateRunDir(cfg.Results.Dir)
	if err != nil {
		return err
	}
	fmt.Printf("Run directory: %s\n", runDir)

	exec, err := sandbox.New(log, sandbox.Config{
		Type:          cfg.Sandbox.Type,
		Interpreter:   cfg.Sandbox.Interpreter,
		Image:         cfg.Sandbox.Image,
		ScratchDir:    cfg.Sandbox.ScratchDir,
		MemoryLimitMB: cfg.Sandbox.MemoryLimitMB,
		CPULimit:      cfg.Sandbox.CPULimit,
	})
	if err != nil {
		return err
	}

	caps := sandbox.NewGuard(cfg.Sandbox.MemoryLimitMB).Capabilities()
	if !caps.ResourceLimits {
		log.Warn("guard gap: resource limits unsupported on this platform")
	}
	if !caps.GroupKill {
		log.Warn("guard gap: process-group kill unsupported, timed-out jobs may leak threads")
	}

	ctx := context.Background()

	for _, suite := range suites {
		jobs, err := result.ReadJobs(suite.Jobs)
		if err != nil {
			return fmt.Errorf("suite %s: %w", suite.Name, err)
		}
		applyTimeouts(jobs, suite.TimeoutSeconds, cfg.Evaluation.TimeoutSeconds)

		fmt.Printf("Running %s (%d jobs, %d workers)...\n",
			suite.Name, len(jobs), runner.Clamp(cfg.Evaluation.NumWorkers, len(jobs)))

		writer, err := result.NewWriter(
			filepath.Join(result.SuiteDir(runDir, suite.Name), result.VerdictsFilename))
		if err != nil {
			return fmt.Errorf("suite %s: %w", suite.Name, err)
		}

		// Verdicts hit disk in arrival order, so a crashed run keeps
		// everything already judged.
		for v := range runner.Stream(ctx, log, exec, jobs, cfg.Evaluation.NumWorkers) {
			if v.Outcome == sandbox.OutcomeError {
				log.Warn("harness error",
					zap.String("task_id", v.TaskID),
					zap.Int("completion_id", v.CompletionID),
					zap.String("detail", v.Detail))
			}
			if err := writer.Append(v); err != nil {
				writer.Close()
				return fmt.Errorf("suite %s: %w", suite.Name, err)
			}
		}
		if err := writer.Close(); err != nil {
			return fmt.Errorf("suite %s: %w", suite.Name, err)
		}
	}

	fmt.Println("\n--- Results ---")
	return report.Generate(runDir, flagFormat, cfg.Evaluation.PassAtK, os.Stdout)
}

func filterSuites(suites []config.Suite, name string) []config.Suite {
	if name == "" {
		return suites
	}
	var filtered []config.Suite
	for _, s := range suites {
		if s.Name == name {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// applyTimeouts fills in missing per-job deadlines: a job's own timeout
// wins, then the suite default, then the global default.
func applyTimeouts(jobs []sandbox.Job, suiteTimeout, globalTimeout float64) {
	for i := range jobs {
		if jobs[i].Timeout > 0 {
			continue
		}
		if suiteTimeout > 0 {
			jobs[i].Timeout = suiteTimeout
		} else {
			jobs[i].Timeout = globalTimeout
		}
	}
}
