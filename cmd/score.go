package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crucible-bench/crucible/internal/result"
	"github.com/crucible-bench/crucible/internal/score"
)

var (
	flagK int
	flagN int
)

func newScoreCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "score [verdicts.jsonl]",
		Short: "Compute pass@k from a stored verdict file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			verdicts, err := result.ReadVerdicts(args[0])
			if err != nil {
				return err
			}
			if len(verdicts) == 0 {
				return fmt.Errorf("no verdicts in %s", args[0])
			}

			taskIDs, samples, correct := score.PassCounts(verdicts)

			var estimates []float64
			if flagN > 0 {
				estimates, err = score.EstimateUniform(flagN, correct, flagK)
			} else {
				estimates, err = score.Estimate(samples, correct, flagK)
			}
			if err != nil {
				return err
			}

			fmt.Printf("pass@%d: %.4f (%d tasks, %d samples)\n",
				flagK, score.Mean(estimates), len(taskIDs), len(verdicts))
			return nil
		},
	}
	cmd.Flags().IntVar(&flagK, "k", 1, "k for pass@k")
	cmd.Flags().IntVar(&flagN, "n", 0, "samples per task (0 = use observed counts)")
	return cmd
}
