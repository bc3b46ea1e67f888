package solver

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// A test associates a CNF, given as a slice of clauses, with an expected status.
type test struct {
	name     string
	cnf      [][]int
	expected Status
}

// every3Clauses lists all 8 sign combinations of a 3-clause over vars 1..3,
// which is unsatisfiable.
func every3Clauses() [][]int {
	var cnf [][]int
	for mask := 0; mask < 8; mask++ {
		clause := make([]int, 3)
		for i := 0; i < 3; i++ {
			clause[i] = i + 1
			if mask&(1<<i) != 0 {
				clause[i] = -clause[i]
			}
		}
		cnf = append(cnf, clause)
	}
	return cnf
}

// pigeonhole encodes "nb+1 pigeons in nb holes", which is unsatisfiable.
// Variable (p-1)*nb + h means pigeon p sits in hole h.
func pigeonhole(nb int) [][]int {
	var cnf [][]int
	for p := 0; p < nb+1; p++ {
		clause := make([]int, nb)
		for h := 0; h < nb; h++ {
			clause[h] = p*nb + h + 1
		}
		cnf = append(cnf, clause)
	}
	for h := 0; h < nb; h++ {
		for p1 := 0; p1 < nb+1; p1++ {
			for p2 := p1 + 1; p2 < nb+1; p2++ {
				cnf = append(cnf, []int{-(p1*nb + h + 1), -(p2*nb + h + 1)})
			}
		}
	}
	return cnf
}

var tests = []test{
	{"single unit", [][]int{{1}}, Sat},
	{"contradicting units", [][]int{{1}, {-1}}, Unsat},
	{"two clauses", [][]int{{1, -2}, {-1, 2, 3}}, Sat},
	{"all sign combinations", every3Clauses(), Unsat},
	{"pigeonhole 3 in 2", pigeonhole(2), Unsat},
	{"pigeonhole 5 in 4", pigeonhole(4), Unsat},
	{"implication chains", [][]int{{1}, {-2, 3}, {-2, 4}, {-5, 3}, {-5, 6}, {-7, 3}, {-7, 8}, {-9, 10}, {-9, 4}, {-1, 10}, {-1, 6}, {3, 10}, {-3, -10}, {4, 6, 8}}, Sat},
	{"forced unsat", [][]int{{1, 2, 3}, {-1}, {-2}, {-3}}, Unsat},
}

// verifyModel checks that the model binds every variable and satisfies every clause.
func verifyModel(t *testing.T, cnf [][]int, model []bool) {
	t.Helper()
	for _, clause := range cnf {
		sat := false
		for _, lit := range clause {
			v := lit
			if v < 0 {
				v = -v
			}
			require.LessOrEqual(t, v, len(model), "model misses variable %d", v)
			if model[v-1] == (lit > 0) {
				sat = true
				break
			}
		}
		assert.True(t, sat, "clause %v not satisfied by model %v", clause, model)
	}
}

func runMode(t *testing.T, test test, mode Mode, heuristic string) *Solver {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Mode = mode
	cfg.Heuristic = heuristic
	s := New(ParseSlice(test.cnf), cfg)
	status := s.Solve()
	require.Equal(t, test.expected, status, "wrong status for %q in mode %v", test.name, mode)
	if status == Sat {
		verifyModel(t, test.cnf, s.Model())
	}
	return s
}

func TestSolverRL(t *testing.T) {
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			runMode(t, test, ModeRL, "")
		})
	}
}

func TestSolverBaseline(t *testing.T) {
	for _, test := range tests {
		for _, heuristic := range ArmNames {
			t.Run(test.name+"/"+heuristic, func(t *testing.T) {
				runMode(t, test, ModeBaseline, heuristic)
			})
		}
	}
}

func TestScenarioSingleUnit(t *testing.T) {
	s := runMode(t, test{"", [][]int{{1}}, Sat}, ModeRL, "")
	assert.Equal(t, 0, s.Stats.NbConflicts)
	assert.LessOrEqual(t, s.Stats.NbDecisions, 1)
	assert.True(t, s.Model()[0])
}

func TestScenarioContradictingUnits(t *testing.T) {
	s := runMode(t, test{"", [][]int{{1}, {-1}}, Unsat}, ModeRL, "")
	assert.LessOrEqual(t, s.Stats.NbConflicts, 1)
	assert.Equal(t, 0, s.Stats.NbDecisions)
}

func TestScenarioPropagationOnly(t *testing.T) {
	s := runMode(t, test{"", [][]int{{1, -2}, {-1, 2, 3}}, Sat}, ModeRL, "")
	assert.Equal(t, 0, s.Stats.NbConflicts)
}

func TestScenarioAllCombinations(t *testing.T) {
	s := runMode(t, test{"", every3Clauses(), Unsat}, ModeRL, "")
	assert.GreaterOrEqual(t, s.Stats.NbConflicts, 1)
}

func TestTrivialUnsat(t *testing.T) {
	pb := ParseSlice([][]int{{1, 2}, {}})
	require.Equal(t, Unsat, pb.Status)
	s := New(pb, DefaultConfig())
	for i := 0; i < 3; i++ { // Subsequent calls must answer without any work
		assert.Equal(t, Unsat, s.Solve())
		assert.Equal(t, 0, s.Stats.NbConflicts)
		assert.Equal(t, 0, s.Stats.NbDecisions)
	}
}

func solveStats(t *testing.T, cnf [][]int, cfg Config) (Stats, []string) {
	t.Helper()
	s := New(ParseSlice(cnf), cfg)
	s.Solve()
	arms := make([]string, len(s.records))
	for i, rec := range s.records {
		arms[i] = rec.Arm
	}
	stats := s.Stats
	stats.ElapsedSeconds = 0
	return stats, arms
}

func TestDeterminism(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EpochSize = 5
	cfg.RestartInterval = 20
	cfg.Seed = 42
	for _, test := range tests {
		stats1, arms1 := solveStats(t, test.cnf, cfg)
		stats2, arms2 := solveStats(t, test.cnf, cfg)
		assert.Equal(t, stats1, stats2, "stats differ between runs for %q", test.name)
		assert.Equal(t, arms1, arms2, "arm sequences differ between runs for %q", test.name)
	}
}

func TestCountersMonotonic(t *testing.T) {
	s := New(ParseSlice(pigeonhole(3)), DefaultConfig())
	s.Solve()
	recs := s.EpochRecords()
	require.NotEmpty(t, recs)
	for _, rec := range recs {
		assert.GreaterOrEqual(t, rec.Conflicts, 0)
		assert.GreaterOrEqual(t, rec.Decisions, 0)
		assert.GreaterOrEqual(t, rec.Propagations, 0)
	}
}

func TestReduceLearned(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReduceLearned = true
	s := New(ParseSlice(pigeonhole(5)), cfg)
	assert.Equal(t, Unsat, s.Solve())
}

func TestLubyRestarts(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LubyRestarts = true
	cfg.RestartInterval = 10
	s := New(ParseSlice(pigeonhole(4)), cfg)
	assert.Equal(t, Unsat, s.Solve())
}

func TestLuby(t *testing.T) {
	expected := []uint{1, 1, 2, 1, 1, 2, 4, 1, 1, 2, 1, 1, 2, 4, 8}
	for i, exp := range expected {
		assert.Equal(t, exp, luby(uint(i+1)), "luby(%d)", i+1)
	}
}
