package cmd

import (
	"encoding/csv"
	"fmt"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var analyzeOpts struct {
	input string
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Summarize a benchmark results CSV per mode and heuristic",
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeOpts.input, "input", "", "path of the results CSV produced by bench")
	_ = analyzeCmd.MarkFlagRequired("input")
}

type aggregate struct {
	runs      int
	solved    int
	elapsed   float64
	conflicts int
}

func runAnalyze(_ *cobra.Command, _ []string) error {
	f, err := os.Open(analyzeOpts.input)
	if err != nil {
		return errors.Wrapf(err, "could not open %q", analyzeOpts.input)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return errors.Wrapf(err, "could not read %q", analyzeOpts.input)
	}
	if len(rows) < 1 {
		return errors.Errorf("%q holds no rows", analyzeOpts.input)
	}
	col := map[string]int{}
	for i, name := range rows[0] {
		col[name] = i
	}
	for _, name := range []string{"mode", "heuristic", "status", "elapsed_seconds", "conflicts"} {
		if _, ok := col[name]; !ok {
			return errors.Errorf("%q lacks column %q", analyzeOpts.input, name)
		}
	}
	groups := map[string]*aggregate{}
	for _, row := range rows[1:] {
		key := row[col["mode"]] + "/" + row[col["heuristic"]]
		agg := groups[key]
		if agg == nil {
			agg = &aggregate{}
			groups[key] = agg
		}
		agg.runs++
		if st := row[col["status"]]; st == "SAT" || st == "UNSAT" {
			agg.solved++
		}
		if v, err := strconv.ParseFloat(row[col["elapsed_seconds"]], 64); err == nil {
			agg.elapsed += v
		}
		if v, err := strconv.Atoi(row[col["conflicts"]]); err == nil {
			agg.conflicts += v
		}
	}
	keys := make([]string, 0, len(groups))
	for key := range groups {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "config\truns\tsolved\tmean time (s)\tmean conflicts")
	for _, key := range keys {
		agg := groups[key]
		fmt.Fprintf(w, "%s\t%d\t%d\t%.4f\t%.1f\n",
			key, agg.runs, agg.solved,
			agg.elapsed/float64(agg.runs),
			float64(agg.conflicts)/float64(agg.runs))
	}
	return w.Flush()
}
