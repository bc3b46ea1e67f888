package solver

import (
	"bytes"
	"encoding/csv"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kux109/RL-SAT/bandit"
)

// pinned is a Controller that always picks the same arm and learns nothing.
type pinned struct {
	arm int
}

func (p pinned) Select([]float64) int           { return p.arm }
func (p pinned) Update(int, []float64, float64) {}

func TestEpochAccounting(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EpochSize = 10
	s := New(ParseSlice(pigeonhole(3)), cfg)
	require.Equal(t, Unsat, s.Solve())
	recs := s.EpochRecords()
	require.NotEmpty(t, recs)
	totalConflicts := 0
	for i, rec := range recs {
		assert.Equal(t, i, rec.Index)
		if i < len(recs)-1 { // Every epoch but the terminal one holds exactly EpochSize conflicts
			assert.Equal(t, cfg.EpochSize, rec.Conflicts, "epoch %d", i)
		}
		assert.Len(t, rec.Context, ContextDim)
		totalConflicts += rec.Conflicts
	}
	assert.Equal(t, s.Stats.NbConflicts, totalConflicts)
}

func TestEpochRewardBounds(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EpochSize = 5
	s := New(ParseSlice(pigeonhole(3)), cfg)
	s.Solve()
	for _, rec := range s.EpochRecords() {
		assert.GreaterOrEqual(t, rec.Reward, -10.0)
		assert.LessOrEqual(t, rec.Reward, 10.0)
	}
}

func TestContextVectorFinite(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EpochSize = 5
	s := New(ParseSlice(pigeonhole(3)), cfg)
	s.Solve()
	for _, rec := range s.EpochRecords() {
		for i, f := range rec.Context {
			assert.False(t, math.IsNaN(f) || math.IsInf(f, 0), "feature %d is not finite in epoch %d", i, rec.Index)
		}
		assert.Equal(t, 1.0, rec.Context[ContextDim-1], "bias feature")
	}
}

// TestBaselineRoundTrip checks that baseline mode with a fixed heuristic
// behaves exactly like RL mode pinned to the matching arm.
func TestBaselineRoundTrip(t *testing.T) {
	instances := [][][]int{pigeonhole(3), every3Clauses(), {{1, -2}, {-1, 2, 3}}}
	for arm, name := range ArmNames {
		for i, cnf := range instances {
			base := DefaultConfig()
			base.Mode = ModeBaseline
			base.Heuristic = name
			base.Seed = 7
			baseStats, _ := solveStats(t, cnf, base)

			rl := DefaultConfig()
			rl.Mode = ModeRL
			rl.Controller = pinned{arm: arm}
			rl.Seed = 7
			rlStats, _ := solveStats(t, cnf, rl)

			assert.Equal(t, baseStats, rlStats, "heuristic %s, instance %d", name, i)
		}
	}
}

// TestSharedControllerLearns runs three tiny instances against a shared
// controller with one-conflict epochs and checks that feedback accumulated.
func TestSharedControllerLearns(t *testing.T) {
	ctrl := bandit.NewLinUCB(len(ArmNames), ContextDim, 0.3)
	cfg := DefaultConfig()
	cfg.EpochSize = 1
	cfg.Controller = ctrl
	for _, cnf := range [][][]int{{{1}}, {{1}, {-1}}, {{1, -2}, {-1, 2, 3}}} {
		New(ParseSlice(cnf), cfg).Solve()
	}
	norm := 0.0
	for arm := 0; arm < ctrl.NbArms(); arm++ {
		norm += ctrl.BNorm(arm)
	}
	assert.Greater(t, norm, 0.0, "no arm received any feedback")
}

func TestEpochCSVLog(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.EpochSize = 10
	cfg.EpochCSV = &buf
	s := New(ParseSlice(pigeonhole(3)), cfg)
	s.Solve()
	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, epochCSVHeader(), rows[0])
	assert.Len(t, rows, len(s.EpochRecords())+1)
	for _, row := range rows {
		assert.Len(t, row, 7+ContextDim)
	}
}
