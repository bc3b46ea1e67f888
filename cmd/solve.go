package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kux109/RL-SAT/solver"
)

var solveOpts struct {
	cnf       string
	mode      string
	heuristic string
	epoch     int
	restart   int
	alpha     float64
	seed      int64
	timeout   float64
	epochLog  string
	statsOut  string
	luby      bool
	reduce    bool
	verbose   bool
}

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve a DIMACS CNF instance",
	Long: `Solve a DIMACS CNF instance, either with the bandit-driven solver (mode rl)
or with a fixed branching heuristic (mode baseline). Exits with 10 on SAT,
20 on UNSAT and 0 on timeout or error.`,
	RunE: runSolve,
}

func init() {
	f := solveCmd.Flags()
	f.StringVar(&solveOpts.cnf, "cnf", "", "path to the DIMACS CNF file")
	f.StringVar(&solveOpts.mode, "mode", "rl", "solving mode: rl or baseline")
	f.StringVar(&solveOpts.heuristic, "heuristic", "vsids", "baseline branching heuristic: vsids, jw, dlis or random")
	f.IntVar(&solveOpts.epoch, "epoch", 50, "conflicts per epoch")
	f.IntVar(&solveOpts.restart, "restart", 200, "conflicts between restarts (0 disables restarts)")
	f.Float64Var(&solveOpts.alpha, "alpha", 0.3, "LinUCB exploration constant")
	f.Int64Var(&solveOpts.seed, "seed", 0, "seed of the random heuristic's generator")
	f.Float64Var(&solveOpts.timeout, "timeout", 0, "wall-clock budget in seconds (0 disables)")
	f.StringVar(&solveOpts.epochLog, "log", "", "path of the per-epoch CSV log")
	f.StringVar(&solveOpts.statsOut, "stats-out", "", "path of a JSON file receiving the run statistics")
	f.BoolVar(&solveOpts.luby, "luby", false, "scale the restart interval by the Luby sequence")
	f.BoolVar(&solveOpts.reduce, "reduce", false, "periodically delete low-quality learned clauses")
	f.BoolVar(&solveOpts.verbose, "verbose", false, "log search progress")
	_ = solveCmd.MarkFlagRequired("cnf")
}

type runReport struct {
	Status string               `json:"status"`
	Stats  solver.Stats         `json:"stats"`
	Epochs []solver.EpochRecord `json:"epochs,omitempty"`
}

func buildConfig(logger *logrus.Logger) (solver.Config, error) {
	cfg := solver.DefaultConfig()
	switch solveOpts.mode {
	case "rl":
		cfg.Mode = solver.ModeRL
	case "baseline":
		cfg.Mode = solver.ModeBaseline
	default:
		return cfg, errors.Errorf("unknown mode %q (want rl or baseline)", solveOpts.mode)
	}
	known := false
	for _, name := range solver.ArmNames {
		if name == solveOpts.heuristic {
			known = true
		}
	}
	if !known {
		return cfg, errors.Errorf("unknown heuristic %q (want vsids, jw, dlis or random)", solveOpts.heuristic)
	}
	cfg.Heuristic = solveOpts.heuristic
	cfg.EpochSize = solveOpts.epoch
	cfg.RestartInterval = solveOpts.restart
	cfg.Alpha = solveOpts.alpha
	cfg.Seed = solveOpts.seed
	cfg.LubyRestarts = solveOpts.luby
	cfg.ReduceLearned = solveOpts.reduce
	cfg.Logger = logger
	return cfg, nil
}

func runSolve(_ *cobra.Command, _ []string) error {
	logger := logrus.New()
	if solveOpts.verbose {
		logger.SetLevel(logrus.DebugLevel)
	}
	cfg, err := buildConfig(logger)
	if err != nil {
		return err
	}
	f, err := os.Open(solveOpts.cnf)
	if err != nil {
		return errors.Wrapf(err, "could not open %q", solveOpts.cnf)
	}
	pb, err := solver.ParseCNF(f)
	_ = f.Close()
	if err != nil {
		return errors.Wrapf(err, "could not parse %q", solveOpts.cnf)
	}
	if solveOpts.epochLog != "" {
		logFile, err := os.Create(solveOpts.epochLog)
		if err != nil {
			return errors.Wrapf(err, "could not create epoch log %q", solveOpts.epochLog)
		}
		defer logFile.Close()
		cfg.EpochCSV = logFile
	}
	s := solver.New(pb, cfg)
	status, finished := solveWithBudget(s, solveOpts.timeout)
	if !finished {
		fmt.Fprintf(os.Stderr, "timeout after %gs on %s\n", solveOpts.timeout, solveOpts.cnf)
		os.Exit(0)
	}
	logger.WithFields(logrus.Fields{
		"instance":     solveOpts.cnf,
		"mode":         solveOpts.mode,
		"status":       status.String(),
		"conflicts":    s.Stats.NbConflicts,
		"decisions":    s.Stats.NbDecisions,
		"propagations": s.Stats.NbPropagations,
		"restarts":     s.Stats.NbRestarts,
		"elapsed":      s.Stats.ElapsedSeconds,
	}).Info("solved")
	if solveOpts.statsOut != "" {
		if err := writeReport(status, s); err != nil {
			return err
		}
	}
	s.OutputModel()
	if status == solver.Sat {
		os.Exit(exitSat)
	}
	os.Exit(exitUnsat)
	return nil
}

func writeReport(status solver.Status, s *solver.Solver) error {
	report := runReport{
		Status: status.String(),
		Stats:  s.Stats,
		Epochs: s.EpochRecords(),
	}
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return errors.Wrap(err, "could not marshal run report")
	}
	if err := os.WriteFile(solveOpts.statsOut, data, 0o644); err != nil {
		return errors.Wrapf(err, "could not write %q", solveOpts.statsOut)
	}
	return nil
}

// solveWithBudget runs the solve on its own goroutine and gives up after the
// given wall-clock budget. The core has no cancellation points, so on timeout
// the result is simply abandoned; the process is expected to exit right after.
func solveWithBudget(s *solver.Solver, seconds float64) (solver.Status, bool) {
	done := make(chan solver.Status, 1)
	go func() { done <- s.Solve() }()
	if seconds <= 0 {
		return <-done, true
	}
	select {
	case st := <-done:
		return st, true
	case <-time.After(time.Duration(seconds * float64(time.Second))):
		return solver.Indet, false
	}
}
