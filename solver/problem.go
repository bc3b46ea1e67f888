package solver

import (
	"fmt"
	"strings"
)

// A Problem is a list of clauses & a nb of vars.
type Problem struct {
	NbVars  int       // Total nb of vars
	Clauses []*Clause // List of clauses of length >= 2
	Units   []Lit     // Unit literals found in the problem, asserted at the root level
	Status  Status    // Trivially Unsat if an empty clause was met, Indet otherwise
}

// CNF returns a DIMACS CNF representation of the problem.
func (pb *Problem) CNF() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "p cnf %d %d\n", pb.NbVars, len(pb.Clauses)+len(pb.Units))
	for _, unit := range pb.Units {
		fmt.Fprintf(&sb, "%d 0\n", unit.Int())
	}
	for _, clause := range pb.Clauses {
		fmt.Fprintf(&sb, "%s\n", clause.CNF())
	}
	return sb.String()
}

// ParseSlice parses a slice of slices of lits and returns the equivalent problem.
// Duplicate literals inside a clause are removed; an empty clause makes the
// problem trivially unsat.
func ParseSlice(cnf [][]int) *Problem {
	var pb Problem
	for _, line := range cnf {
		lits := make([]Lit, 0, len(line))
		for _, val := range line {
			if val == 0 {
				panic("null literal in clause")
			}
			lit := IntToLit(val)
			if v := int(lit.Var()); v >= pb.NbVars {
				pb.NbVars = v + 1
			}
			if !containsLit(lits, lit) {
				lits = append(lits, lit)
			}
		}
		switch len(lits) {
		case 0:
			pb.Status = Unsat
			return &pb
		case 1:
			pb.Units = append(pb.Units, lits[0])
		default:
			pb.Clauses = append(pb.Clauses, NewClause(lits))
		}
	}
	return &pb
}

func containsLit(lits []Lit, l Lit) bool {
	for _, l2 := range lits {
		if l2 == l {
			return true
		}
	}
	return false
}
