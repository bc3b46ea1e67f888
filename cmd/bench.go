package cmd

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kux109/RL-SAT/solver"
)

var benchOpts struct {
	manifest string
	output   string
}

// benchManifest is the YAML description of a batch experiment.
type benchManifest struct {
	Instances      []string `yaml:"instances"`
	Modes          []string `yaml:"modes"`
	Heuristics     []string `yaml:"heuristics"`
	Epoch          int      `yaml:"epoch"`
	Restart        int      `yaml:"restart"`
	TimeoutSeconds float64  `yaml:"timeout_seconds"`
	Output         string   `yaml:"output"`
}

var benchCmd = &cobra.Command{
	Use:   "bench",
	Short: "Run a batch of instances described by a YAML manifest",
	Long: `Run every instance of a YAML manifest under each requested mode, each solve
in its own process killed at the timeout, and collect the results in a CSV
file.`,
	RunE: runBench,
}

func init() {
	f := benchCmd.Flags()
	f.StringVar(&benchOpts.manifest, "config", "", "path of the YAML experiment manifest")
	f.StringVar(&benchOpts.output, "output", "", "path of the results CSV (overrides the manifest)")
	_ = benchCmd.MarkFlagRequired("config")
}

func loadManifest(path string) (*benchManifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not read manifest %q", path)
	}
	m := &benchManifest{
		Modes:          []string{"rl"},
		Heuristics:     []string{"vsids"},
		Epoch:          50,
		Restart:        200,
		TimeoutSeconds: 30,
		Output:         "results.csv",
	}
	if err := yaml.Unmarshal(data, m); err != nil {
		return nil, errors.Wrapf(err, "could not parse manifest %q", path)
	}
	if len(m.Instances) == 0 {
		return nil, errors.Errorf("manifest %q lists no instances", path)
	}
	return m, nil
}

var benchCSVHeader = []string{
	"run_id", "instance", "mode", "heuristic", "status",
	"elapsed_seconds", "conflicts", "decisions", "propagations", "restarts",
}

func runBench(_ *cobra.Command, _ []string) error {
	logger := logrus.New()
	m, err := loadManifest(benchOpts.manifest)
	if err != nil {
		return err
	}
	if benchOpts.output != "" {
		m.Output = benchOpts.output
	}
	out, err := os.Create(m.Output)
	if err != nil {
		return errors.Wrapf(err, "could not create results file %q", m.Output)
	}
	defer out.Close()
	w := csv.NewWriter(out)
	defer w.Flush()
	if err := w.Write(benchCSVHeader); err != nil {
		return errors.Wrap(err, "could not write results header")
	}
	exe, err := os.Executable()
	if err != nil {
		return errors.Wrap(err, "could not locate own binary")
	}
	for _, instance := range m.Instances {
		for _, mode := range m.Modes {
			heuristics := []string{"-"}
			if mode == "baseline" {
				heuristics = m.Heuristics
			}
			for _, heuristic := range heuristics {
				row := runOne(logger, exe, m, instance, mode, heuristic)
				if err := w.Write(row); err != nil {
					return errors.Wrap(err, "could not write result row")
				}
				w.Flush()
			}
		}
	}
	logger.WithField("output", m.Output).Info("benchmark finished")
	return nil
}

// runOne executes a single solve in a child process, enforcing the timeout by
// killing the process, and turns the outcome into a results row.
func runOne(logger *logrus.Logger, exe string, m *benchManifest, instance, mode, heuristic string) []string {
	runID := uuid.New().String()
	statsPath := filepath.Join(os.TempDir(), "rlsat-"+runID+".json")
	defer os.Remove(statsPath)
	args := []string{
		"solve",
		"--cnf", instance,
		"--mode", mode,
		"--epoch", strconv.Itoa(m.Epoch),
		"--restart", strconv.Itoa(m.Restart),
		"--stats-out", statsPath,
	}
	if mode == "baseline" {
		args = append(args, "--heuristic", heuristic)
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(m.TimeoutSeconds*float64(time.Second)))
	defer cancel()
	start := time.Now()
	cmd := exec.CommandContext(ctx, exe, args...)
	err := cmd.Run()
	elapsed := time.Since(start).Seconds()
	status := "ERROR"
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		status = "TIMEOUT"
	case err == nil: // solve exits non-zero on an answer, zero means error
		status = "ERROR"
	default:
		if ee, ok := err.(*exec.ExitError); ok {
			switch ee.ExitCode() {
			case exitSat:
				status = "SAT"
			case exitUnsat:
				status = "UNSAT"
			}
		}
	}
	var stats solver.Stats
	if data, err := os.ReadFile(statsPath); err == nil {
		var report runReport
		if err := json.Unmarshal(data, &report); err == nil {
			stats = report.Stats
			elapsed = stats.ElapsedSeconds
		}
	}
	logger.WithFields(logrus.Fields{
		"run_id":    runID,
		"instance":  instance,
		"mode":      mode,
		"heuristic": heuristic,
		"status":    status,
		"elapsed":   elapsed,
	}).Info("instance done")
	return []string{
		runID, instance, mode, heuristic, status,
		fmt.Sprintf("%.4f", elapsed),
		strconv.Itoa(stats.NbConflicts),
		strconv.Itoa(stats.NbDecisions),
		strconv.Itoa(stats.NbPropagations),
		strconv.Itoa(stats.NbRestarts),
	}
}
