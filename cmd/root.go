// Package cmd implements the rlsat command line interface.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Exit codes of the solve command. Anything that is neither SAT nor UNSAT
// (timeout, parse error, ...) exits with 0 and a message on stderr.
const (
	exitSat   = 10
	exitUnsat = 20
)

var rootCmd = &cobra.Command{
	Use:           "rlsat",
	Short:         "A CDCL SAT solver whose branching heuristic is driven by a contextual bandit",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(solveCmd, benchCmd, analyzeCmd)
}

// Execute runs the CLI. Errors are reported on stderr with a zero exit code,
// so that only SAT/UNSAT answers use a non-zero code.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(0)
	}
}
