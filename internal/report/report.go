// Package report aggregates stored verdicts into per-suite summaries
// with pass@k scores and renders them as a table, markdown, or JSON.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/crucible-bench/crucible/internal/result"
	"github.com/crucible-bench/crucible/internal/sandbox"
	"github.com/crucible-bench/crucible/internal/score"
)

// SuiteSummary is the aggregate for one suite within a run.
type SuiteSummary struct {
	Suite    string             `json:"suite"`
	Jobs     int                `json:"jobs"`
	Tasks    int                `json:"tasks"`
	Passed   int                `json:"passed"`
	Failed   int                `json:"failed"`
	TimedOut int                `json:"timed_out"`
	Errors   int                `json:"errors"`
	PassAtK  map[string]float64 `json:"pass_at_k"`
}

// Generate walks runDir for verdict files and writes a summary per
// suite. ks selects which pass@k columns to compute; a k larger than
// some task's sample count is rendered as "-" for that suite rather than
// producing a biased number.
func Generate(runDir, format string, ks []int, w io.Writer) error {
	summaries, err := collect(runDir, ks)
	if err != nil {
		return err
	}

	switch format {
	case "markdown":
		return writeMarkdown(summaries, ks, w)
	case "json":
		return writeJSON(summaries, w)
	default:
		return writeTable(summaries, ks, w)
	}
}

func collect(runDir string, ks []int) ([]SuiteSummary, error) {
	var summaries []SuiteSummary
	err := filepath.Walk(runDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Name() != result.VerdictsFilename {
			return nil
		}
		verdicts, err := result.ReadVerdicts(path)
		if err != nil {
			return err
		}
		summaries = append(summaries, Summarize(filepath.Base(filepath.Dir(path)), verdicts, ks))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking run dir: %w", err)
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Suite < summaries[j].Suite
	})
	return summaries, nil
}

// Summarize folds one suite's verdicts into a summary.
func Summarize(suite string, verdicts []sandbox.Verdict, ks []int) SuiteSummary {
	s := SuiteSummary{
		Suite:   suite,
		Jobs:    len(verdicts),
		PassAtK: map[string]float64{},
	}
	for _, v := range verdicts {
		switch v.Outcome {
		case sandbox.OutcomePassed:
			s.Passed++
		case sandbox.OutcomeFailed:
			s.Failed++
		case sandbox.OutcomeTimedOut:
			s.TimedOut++
		default:
			s.Errors++
		}
	}

	_, samples, correct := score.PassCounts(verdicts)
	s.Tasks = len(samples)
	for _, k := range ks {
		estimates, err := score.Estimate(samples, correct, k)
		if err != nil {
			continue
		}
		s.PassAtK[passKey(k)] = score.Mean(estimates)
	}
	return s
}

func passKey(k int) string {
	return fmt.Sprintf("pass@%d", k)
}

func passCell(s SuiteSummary, k int) string {
	v, ok := s.PassAtK[passKey(k)]
	if !ok {
		return "-"
	}
	return fmt.Sprintf("%.4f", v)
}

func writeTable(summaries []SuiteSummary, ks []int, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	header := "SUITE\tJOBS\tTASKS\tPASSED\tFAILED\tTIMEOUT\tERROR"
	for _, k := range ks {
		header += "\t" + strings.ToUpper(passKey(k))
	}
	fmt.Fprintln(tw, header)
	fmt.Fprintln(tw, strings.Repeat("-", 80))
	for _, s := range summaries {
		row := fmt.Sprintf("%s\t%d\t%d\t%d\t%d\t%d\t%d",
			s.Suite, s.Jobs, s.Tasks, s.Passed, s.Failed, s.TimedOut, s.Errors)
		for _, k := range ks {
			row += "\t" + passCell(s, k)
		}
		fmt.Fprintln(tw, row)
	}
	return tw.Flush()
}

func writeMarkdown(summaries []SuiteSummary, ks []int, w io.Writer) error {
	header := "| Suite | Jobs | Tasks | Passed | Failed | Timeout | Error |"
	rule := "|---|---|---|---|---|---|---|"
	for _, k := range ks {
		header += fmt.Sprintf(" %s |", passKey(k))
		rule += "---|"
	}
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, rule)
	for _, s := range summaries {
		row := fmt.Sprintf("| %s | %d | %d | %d | %d | %d | %d |",
			s.Suite, s.Jobs, s.Tasks, s.Passed, s.Failed, s.TimedOut, s.Errors)
		for _, k := range ks {
			row += fmt.Sprintf(" %s |", passCell(s, k))
		}
		fmt.Fprintln(w, row)
	}
	return nil
}

func writeJSON(summaries []SuiteSummary, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(summaries)
}
