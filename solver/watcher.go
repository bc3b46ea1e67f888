package solver

import "sort"

const (
	initNbMaxClauses  = 2000 // Maximum # of learned clauses, at first.
	incrNbMaxClauses  = 300  // By how much # of learned clauses is incremented at each reduction.
	incrPostponeNbMax = 1000 // By how much # of learned is increased when lots of good clauses are currently learned.
)

type watcher struct {
	other  Lit // The other lit from a binary clause
	clause *Clause
}

// A watcherList stores clauses and their watchers.
// Clauses of length 2 get dedicated watcher entries holding the other literal;
// longer clauses are watched through their literals at positions 0 and 1.
// Both lists are indexed by the literal whose assignment falsifies the watch,
// i.e. a clause watching l appears in the list at index l.Negation().
type watcherList struct {
	nbOriginal int         // Original # of clauses
	nbLearned  int         // # of learned clauses
	nbMax      int         // Max # of learned clauses at current moment
	idxReduce  int         // # of calls to reduce + 1
	wlistBin   [][]watcher // For each literal, a list of binary clauses where its negation appears
	wlist      [][]*Clause // For each literal, a list of longer clauses where its negation is watched
	clauses    []*Clause   // All the clauses
}

// initWatcherList makes a new watcherList for the solver.
func (s *Solver) initWatcherList(clauses []*Clause) {
	s.wl = watcherList{
		nbOriginal: len(clauses),
		nbMax:      initNbMaxClauses,
		idxReduce:  1,
		wlistBin:   make([][]watcher, s.nbVars*2),
		wlist:      make([][]*Clause, s.nbVars*2),
		clauses:    append(make([]*Clause, 0, len(clauses)*2), clauses...),
	}
	for _, c := range clauses {
		s.watchClause(c)
	}
}

// bumpNbMax increases the max nb of learned clauses kept before a reduction.
func (s *Solver) bumpNbMax() {
	s.wl.nbMax += incrNbMaxClauses
}

// postponeNbMax increases the max nb of learned clauses kept, when too many
// good clauses would otherwise be thrown away.
func (s *Solver) postponeNbMax() {
	s.wl.nbMax += incrPostponeNbMax
}

// Utilities for sorting learned clauses according to their LBD and activities.
func (wl *watcherList) Len() int { return wl.nbLearned }

func (wl *watcherList) Less(i, j int) bool {
	idxI := i + wl.nbOriginal
	idxJ := j + wl.nbOriginal
	lbdI := wl.clauses[idxI].lbd()
	lbdJ := wl.clauses[idxJ].lbd()
	// Sort by lbd, break ties by activity
	return lbdI > lbdJ || (lbdI == lbdJ && wl.clauses[idxI].activity < wl.clauses[idxJ].activity)
}

func (wl *watcherList) Swap(i, j int) {
	idxI := i + wl.nbOriginal
	idxJ := j + wl.nbOriginal
	wl.clauses[idxI], wl.clauses[idxJ] = wl.clauses[idxJ], wl.clauses[idxI]
}

// watchClause installs watches for c on its literals at positions 0 and 1.
func (s *Solver) watchClause(c *Clause) {
	if c.Len() == 2 {
		first := c.First()
		second := c.Second()
		neg0 := first.Negation()
		neg1 := second.Negation()
		s.wl.wlistBin[neg0] = append(s.wl.wlistBin[neg0], watcher{clause: c, other: second})
		s.wl.wlistBin[neg1] = append(s.wl.wlistBin[neg1], watcher{clause: c, other: first})
	} else {
		neg0 := c.First().Negation()
		neg1 := c.Second().Negation()
		s.wl.wlist[neg0] = append(s.wl.wlist[neg0], c)
		s.wl.wlist[neg1] = append(s.wl.wlist[neg1], c)
	}
}

// unwatchClause removes the watches of the given non-binary clause.
func (s *Solver) unwatchClause(c *Clause) {
	for i := 0; i < 2; i++ {
		neg := c.Get(i).Negation()
		j := 0
		length := len(s.wl.wlist[neg])
		// We're looking for the index of the clause.
		// This will panic if c is not in wlist[neg], but this shouldn't happen.
		for s.wl.wlist[neg][j] != c {
			j++
		}
		s.wl.wlist[neg][j] = s.wl.wlist[neg][length-1]
		s.wl.wlist[neg] = s.wl.wlist[neg][:length-1]
	}
}

// reduceLearned removes about half of the learned clauses, keeping those
// with a low LBD, high activity, or currently locked as a reason.
func (s *Solver) reduceLearned() {
	sort.Sort(&s.wl)
	length := s.wl.nbLearned / 2
	if length == 0 {
		return
	}
	if s.wl.clauses[s.wl.nbOriginal+length].lbd() <= 3 { // Lots of good clauses, postpone reduction
		s.postponeNbMax()
	}
	nbRemoved := 0
	for i := 0; i < length; i++ {
		idx := i + s.wl.nbOriginal
		c := s.wl.clauses[idx]
		if c.Len() <= 2 || c.lbd() <= 2 || c.isLocked() {
			continue
		}
		nbRemoved++
		s.Stats.NbDeleted++
		s.wl.clauses[idx] = s.wl.clauses[len(s.wl.clauses)-nbRemoved]
		s.unwatchClause(c)
	}
	s.wl.clauses = s.wl.clauses[:len(s.wl.clauses)-nbRemoved]
	s.wl.nbLearned -= nbRemoved
}

// If l is negative, -lvl is returned. Else, lvl is returned.
func lvlToSignedLvl(l Lit, lvl decLevel) decLevel {
	if l.IsPositive() {
		return lvl
	}
	return -lvl
}

// litValue returns whether the literal is made true (Sat) or false (Unsat) by
// the current bindings, or Indet if its variable is unbound.
func (s *Solver) litValue(l Lit) Status {
	assign := s.model[l.Var()]
	if assign == 0 {
		return Indet
	}
	if assign > 0 == l.IsPositive() {
		return Sat
	}
	return Unsat
}

// assign binds the given literal at the given level and pushes it both on the
// trail and, implicitly, on the propagation queue. The variable must be unbound.
func (s *Solver) assign(l Lit, lvl decLevel, from *Clause) {
	v := l.Var()
	if s.model[v] != 0 {
		panic("assigning an already bound variable")
	}
	s.model[v] = lvlToSignedLvl(l, lvl)
	s.reason[v] = from
	if from != nil {
		from.lock()
		s.Stats.NbPropagations++
	} else {
		s.Stats.NbDecisions++
	}
	s.polarity[v] = l.IsPositive()
	s.phaseSet[v] = true
	s.trail = append(s.trail, l)
}

// enqueue tries to bind the given literal. It is a no-op if the literal is
// already true, and reports false if it is already false.
func (s *Solver) enqueue(l Lit, lvl decLevel, from *Clause) bool {
	if assign := s.model[l.Var()]; assign != 0 {
		return (assign > 0) == l.IsPositive()
	}
	s.assign(l, lvl, from)
	return true
}

// propagate drains the propagation queue. It returns a falsified clause if a
// conflict arose, or nil once a fixpoint was reached. The queue is cleared
// before returning a conflict.
func (s *Solver) propagate() *Clause {
	for s.qhead < len(s.trail) {
		lit := s.trail[s.qhead]
		s.qhead++
		falsified := lit.Negation()
		for _, w := range s.wl.wlistBin[lit] {
			v2 := w.other.Var()
			if assign := s.model[v2]; assign == 0 {
				s.assign(w.other, s.curLevel, w.clause)
			} else if (assign > 0) != w.other.IsPositive() {
				s.qhead = len(s.trail)
				return w.clause
			}
		}
		ws := s.wl.wlist[lit]
		i := 0
		for i < len(ws) {
			c := ws[i]
			// Keep the falsified watch at position 1.
			if c.First() == falsified {
				c.swap(0, 1)
			}
			first := c.First()
			if s.litValue(first) == Sat {
				i++
				continue
			}
			// Look for a replacement watch among the remaining literals.
			moved := false
			for k := 2; k < c.Len(); k++ {
				if s.litValue(c.Get(k)) != Unsat {
					c.swap(1, k)
					ws[i] = ws[len(ws)-1]
					ws = ws[:len(ws)-1]
					s.wl.wlist[lit] = ws
					neg := c.Second().Negation()
					s.wl.wlist[neg] = append(s.wl.wlist[neg], c)
					moved = true
					break
				}
			}
			if moved {
				continue
			}
			if s.model[first.Var()] == 0 { // The clause became unit
				s.assign(first, s.curLevel, c)
				i++
			} else { // All lits are false: conflict
				s.qhead = len(s.trail)
				return c
			}
		}
	}
	return nil
}

// addLearned appends a learned clause to the clause store, installs its
// watches and notifies interested heuristics.
func (s *Solver) addLearned(c *Clause) {
	s.wl.nbLearned++
	s.wl.clauses = append(s.wl.clauses, c)
	if c.Len() >= 2 {
		s.watchClause(c)
	}
	s.clauseBumpActivity(c)
	s.Stats.NbLearned++
	if c.Len() == 1 {
		s.Stats.NbUnitLearned++
	} else if c.Len() == 2 {
		s.Stats.NbBinaryLearned++
	}
	for _, h := range s.heuristics {
		h.onLearnt(s, c)
	}
}
