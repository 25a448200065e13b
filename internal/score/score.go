// Package score computes the unbiased pass@k estimate over grouped
// per-task outcomes: the probability that at least one of k samples
// drawn without replacement from the n generated per task passes.
package score

import (
	"fmt"

	"github.com/crucible-bench/crucible/internal/sandbox"
)

// PassAtK estimates 1 - C(n-c, k)/C(n, k) for one task with n samples of
// which c passed. Computed via the product form
// 1 - prod_{i=n-c+1..n} (1 - k/i), which stays finite where binomial
// coefficients overflow. When fewer than k samples failed, any draw of k
// must include a pass, so the estimate is exactly 1.
func PassAtK(n, c, k int) float64 {
	if n-c < k {
		return 1.0
	}
	failAll := 1.0
	for i := n - c + 1; i <= n; i++ {
		failAll *= 1.0 - float64(k)/float64(i)
	}
	return 1.0 - failAll
}

// Estimate returns per-task pass@k for parallel slices of sample counts
// and pass counts. Slices must be the same length, every pass count must
// fit its sample count, and k must satisfy 1 <= k <= n for every task.
func Estimate(samples, correct []int, k int) ([]float64, error) {
	if len(samples) != len(correct) {
		return nil, fmt.Errorf("samples and correct length mismatch: %d vs %d", len(samples), len(correct))
	}
	out := make([]float64, len(correct))
	for i := range correct {
		n, c := samples[i], correct[i]
		if c < 0 || c > n {
			return nil, fmt.Errorf("task %d: pass count %d out of range for %d samples", i, c, n)
		}
		if k < 1 || k > n {
			return nil, fmt.Errorf("task %d: k=%d out of range for %d samples", i, k, n)
		}
		out[i] = PassAtK(n, c, k)
	}
	return out, nil
}

// EstimateUniform is Estimate with the same sample count n for every task.
func EstimateUniform(n int, correct []int, k int) ([]float64, error) {
	samples := make([]int, len(correct))
	for i := range samples {
		samples[i] = n
	}
	return Estimate(samples, correct, k)
}

// Mean averages per-task estimates into the benchmark score. Zero tasks
// score zero.
func Mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// PassCounts groups verdicts by task in first-appearance order and
// returns, per task, how many samples were judged and how many passed.
// Arrival order within a task does not matter; only the counts do.
func PassCounts(verdicts []sandbox.Verdict) (taskIDs []string, samples, correct []int) {
	index := make(map[string]int)
	for _, v := range verdicts {
		i, ok := index[v.TaskID]
		if !ok {
			i = len(taskIDs)
			index[v.TaskID] = i
			taskIDs = append(taskIDs, v.TaskID)
			samples = append(samples, 0)
			correct = append(correct, 0)
		}
		samples[i]++
		if v.Passed() {
			correct[i]++
		}
	}
	return taskIDs, samples, correct
}
