package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crucible-bench/crucible/internal/config"
	"github.com/crucible-bench/crucible/internal/result"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the config and its job files",
		Long:  "Load the config, then read every suite's jobs file and verify each job parses and carries a usable timeout.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}

			bad := 0
			for _, suite := range cfg.Suites {
				jobs, err := result.ReadJobs(suite.Jobs)
				if err != nil {
					fmt.Printf("  %s: %v\n", suite.Name, err)
					bad++
					continue
				}
				missing := 0
				for _, j := range jobs {
					if j.Timeout < 0 {
						missing++
					}
				}
				if missing > 0 {
					fmt.Printf("  %s: %d jobs, %d with negative timeouts\n", suite.Name, len(jobs), missing)
					bad++
					continue
				}
				fmt.Printf("  %s: %d jobs ok\n", suite.Name, len(jobs))
			}
			if bad > 0 {
				return fmt.Errorf("%d suite(s) failed validation", bad)
			}
			return nil
		},
	}
}
