package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crucible-bench/crucible/internal/config"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List configured suites",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Sandbox: %s", cfg.Sandbox.Type)
			if cfg.Sandbox.Type == "docker" {
				fmt.Printf(" (image: %s)", cfg.Sandbox.Image)
			} else {
				fmt.Printf(" (interpreter: %s)", cfg.Sandbox.Interpreter)
			}
			fmt.Println()
			fmt.Println("\nSuites:")
			for _, s := range cfg.Suites {
				fmt.Printf("  - %s (%s)\n", s.Name, s.Jobs)
			}
			return nil
		},
	}
}
