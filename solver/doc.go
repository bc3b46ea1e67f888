/*
Package solver implements a CDCL SAT solver whose branching heuristic is
selected online by a contextual bandit.

The solver takes a Problem, i.e a set of propositional clauses over a number
of variables, and decides whether it is satisfiable. The search is the usual
conflict-driven loop: unit propagation over two watched literals per clause,
first-UIP conflict analysis producing a learned clause, non-chronological
backtracking, VSIDS activity bumping and periodic restarts.

A problem can be described either by parsing a DIMACS stream:

	pb, err := solver.ParseCNF(f)

or programmatically, from a slice of slices of literals:

	pb := solver.ParseSlice([][]int{{1, 2}, {-1, 2, 3}})

The solver is then created and run:

	s := solver.New(pb, solver.DefaultConfig())
	status := s.Solve()

If the status is Sat, s.Model() returns a binding for all variables that
makes every clause true.

Four branching heuristics are available: activity-based (vsids),
Jeroslow-Wang (jw), dynamic largest individual sum (dlis) and random. In
baseline mode one of them is used for the whole run. In RL mode a LinUCB
contextual bandit observes, every EpochSize conflicts, a feature vector
summarizing the solver state, picks the heuristic for the next epoch and is
rewarded according to how the search went: propagations gained count
positively, conflicts and a rising average LBD count negatively. The
per-epoch telemetry is available through EpochRecords and can be streamed to
a CSV writer.
*/
package solver
