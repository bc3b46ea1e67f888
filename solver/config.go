package solver

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Mode selects how branching heuristics are driven during the search.
type Mode int

const (
	// ModeRL lets a contextual bandit pick the branching heuristic at each epoch.
	ModeRL Mode = iota
	// ModeBaseline keeps a single, fixed branching heuristic for the whole run.
	ModeBaseline
)

func (m Mode) String() string {
	if m == ModeBaseline {
		return "baseline"
	}
	return "rl"
}

// A Controller chooses a heuristic arm from a context vector and learns from
// the reward observed for a past choice.
type Controller interface {
	Select(x []float64) int
	Update(arm int, x []float64, reward float64)
}

// RewardWeights are the coefficients of the per-epoch reward. Propagations
// gained count positively, conflicts and a rising LBD count negatively.
type RewardWeights struct {
	Prop     float64
	Conflict float64
	Lbd      float64
}

// Config holds the knobs of a solving run.
type Config struct {
	Mode            Mode
	Heuristic       string // Branching heuristic for baseline mode (vsids, jw, dlis or random)
	EpochSize       int    // Conflicts per epoch; <= 0 disables epoch boundaries
	RestartInterval int    // Conflicts between restarts; <= 0 disables restarts
	Alpha           float64
	Seed            int64
	Weights         RewardWeights
	LubyRestarts    bool // Scale the restart interval by the Luby sequence
	ReduceLearned   bool // Periodically remove low-quality learned clauses
	Controller      Controller // Optional shared controller; a fresh LinUCB is created when nil in RL mode
	EpochCSV        io.Writer  // Optional per-epoch CSV log
	Logger          *logrus.Logger
}

// DefaultConfig returns the default solving configuration: RL mode, epochs of
// 50 conflicts, restarts every 200 conflicts.
func DefaultConfig() Config {
	return Config{
		Mode:            ModeRL,
		Heuristic:       "vsids",
		EpochSize:       50,
		RestartInterval: 200,
		Alpha:           0.3,
		Weights:         RewardWeights{Prop: 1e-3, Conflict: 1e-3, Lbd: 1e-2},
	}
}

func (cfg Config) withDefaults() Config {
	def := DefaultConfig()
	if cfg.Alpha == 0 {
		cfg.Alpha = def.Alpha
	}
	if cfg.Weights == (RewardWeights{}) {
		cfg.Weights = def.Weights
	}
	if cfg.Heuristic == "" {
		cfg.Heuristic = def.Heuristic
	}
	return cfg
}
