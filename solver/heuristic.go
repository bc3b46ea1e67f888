package solver

import "math"

// A Heuristic picks the literal to branch on when propagation reaches a
// fixpoint. Implementations read solver state but must not touch the trail or
// the watch lists; onLearnt and onRestart are notification hooks called
// between search iterations.
type Heuristic interface {
	Name() string
	decide(s *Solver) Lit // The literal to branch on, or -1 if every var is bound
	onLearnt(s *Solver, c *Clause)
	onRestart(s *Solver)
}

// ArmNames lists the selectable heuristics, in arm order.
var ArmNames = []string{"vsids", "jw", "dlis", "random"}

func newHeuristics(pb *Problem) []Heuristic {
	return []Heuristic{
		&activityHeuristic{},
		newJW(pb),
		&dlisHeuristic{},
		&randomHeuristic{},
	}
}

// armIndex maps a heuristic name to its arm index, defaulting to vsids.
func armIndex(name string) int {
	for i, n := range ArmNames {
		if n == name {
			return i
		}
	}
	return 0
}

// litWithPhase turns a chosen variable into a decision literal: the saved
// phase wins if the variable was ever bound, else the heuristic's natural sign.
func litWithPhase(s *Solver, v Var, natPositive bool) Lit {
	if s.phaseSet[v] {
		return v.SignedLit(!s.polarity[v])
	}
	return v.SignedLit(!natPositive)
}

type noHooks struct{}

func (noHooks) onLearnt(*Solver, *Clause) {}
func (noHooks) onRestart(*Solver)         {}

// activityHeuristic branches on the unbound variable with the highest VSIDS
// activity, the lowest index winning ties. Extraction goes through the
// solver's activity-ordered heap.
type activityHeuristic struct {
	noHooks
}

func (*activityHeuristic) Name() string { return "vsids" }

func (*activityHeuristic) decide(s *Solver) Lit {
	for !s.varQueue.empty() {
		if v := Var(s.varQueue.removeMin()); s.model[v] == 0 {
			return v.SignedLit(!s.polarity[v])
		}
	}
	return -1
}

// jwHeuristic implements the Jeroslow-Wang rule: each literal weighs
// sum(2^-|c|) over the clauses containing it, learned clauses included.
type jwHeuristic struct {
	posW, negW []float64
}

func newJW(pb *Problem) *jwHeuristic {
	jw := &jwHeuristic{
		posW: make([]float64, pb.NbVars),
		negW: make([]float64, pb.NbVars),
	}
	for _, unit := range pb.Units {
		jw.addClause([]Lit{unit})
	}
	for _, c := range pb.Clauses {
		jw.addClause(c.lits)
	}
	return jw
}

func (jw *jwHeuristic) addClause(lits []Lit) {
	w := math.Pow(2, -float64(len(lits)))
	for _, lit := range lits {
		if lit.IsPositive() {
			jw.posW[lit.Var()] += w
		} else {
			jw.negW[lit.Var()] += w
		}
	}
}

func (*jwHeuristic) Name() string { return "jw" }

func (jw *jwHeuristic) decide(s *Solver) Lit {
	best := Var(-1)
	bestScore := -1.0
	bestPositive := true
	for v := Var(0); int(v) < s.nbVars; v++ {
		if s.model[v] != 0 {
			continue
		}
		score, positive := jw.posW[v], true
		if jw.negW[v] > jw.posW[v] {
			score, positive = jw.negW[v], false
		}
		if score > bestScore {
			best, bestScore, bestPositive = v, score, positive
		}
	}
	if best == -1 {
		return -1
	}
	return litWithPhase(s, best, bestPositive)
}

func (jw *jwHeuristic) onLearnt(_ *Solver, c *Clause) {
	jw.addClause(c.lits)
}

func (*jwHeuristic) onRestart(*Solver) {}

// dlisHeuristic branches on the literal occurring most often in currently
// unsatisfied clauses. Counts are recomputed on every decision; ties go to the
// lowest variable index, positive sign first.
type dlisHeuristic struct {
	noHooks
}

func (*dlisHeuristic) Name() string { return "dlis" }

func (*dlisHeuristic) decide(s *Solver) Lit {
	pos := make([]int, s.nbVars)
	neg := make([]int, s.nbVars)
	for _, c := range s.wl.clauses {
		if s.clauseSatisfied(c) {
			continue
		}
		for _, lit := range c.lits {
			if lit.IsPositive() {
				pos[lit.Var()]++
			} else {
				neg[lit.Var()]++
			}
		}
	}
	best := Var(-1)
	bestCount := -1
	bestPositive := true
	for v := Var(0); int(v) < s.nbVars; v++ {
		if s.model[v] != 0 {
			continue
		}
		count, positive := pos[v], true
		if neg[v] > pos[v] {
			count, positive = neg[v], false
		}
		if count > bestCount {
			best, bestCount, bestPositive = v, count, positive
		}
	}
	if best == -1 {
		return -1
	}
	return litWithPhase(s, best, bestPositive)
}

// randomHeuristic branches on the first unbound variable, keeping its saved
// phase when it has one and drawing the sign from the solver's seeded
// generator otherwise.
type randomHeuristic struct {
	noHooks
}

func (*randomHeuristic) Name() string { return "random" }

func (*randomHeuristic) decide(s *Solver) Lit {
	for v := Var(0); int(v) < s.nbVars; v++ {
		if s.model[v] != 0 {
			continue
		}
		if s.phaseSet[v] {
			return v.SignedLit(!s.polarity[v])
		}
		return v.SignedLit(s.rng.Intn(2) == 1)
	}
	return -1
}
