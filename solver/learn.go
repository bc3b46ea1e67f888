package solver

// computeLbd computes and sets c's LBD (Literal Block Distance), i.e the
// number of distinct decision levels appearing in the clause. It expects the
// lits to be sorted by decreasing decision level.
func (c *Clause) computeLbd(model Model) {
	c.setLbd(1)
	curLvl := abs(model[c.Get(0).Var()])
	for i := 0; i < c.Len(); i++ {
		lit := c.Get(i)
		if lvl := abs(model[lit.Var()]); lvl != curLvl {
			curLvl = lvl
			c.incLbd()
		}
	}
}

// addConflLits is a helper function for analyze.
// It deals with lits from the conflicting clause.
func (s *Solver) addConflLits(confl *Clause, lvl decLevel, met, metLvl []bool, lits *[]Lit) int {
	nbLvl := 0
	for i := 0; i < confl.Len(); i++ {
		l := confl.Get(i)
		v := l.Var()
		if s.litValue(l) != Unsat || met[v] {
			continue
		}
		met[v] = true
		s.varBumpActivity(v)
		if abs(s.model[v]) == lvl {
			metLvl[v] = true
			nbLvl++
		} else if abs(s.model[v]) != 1 {
			*lits = append(*lits, l)
		}
	}
	return nbLvl
}

// analyze performs first-UIP conflict analysis starting from the given
// falsified clause. It returns the learned clause, whose first literal is the
// asserting literal, together with the level to backjump to. For a unit
// learned clause the backjump level is the root level.
func (s *Solver) analyze(confl *Clause, lvl decLevel) (learned *Clause, btLevel decLevel) {
	s.clauseBumpActivity(confl)
	lits := s.learnBuf[:1]          // Not 0: make room for the asserting literal
	buf := make([]bool, s.nbVars*2) // Buffer for met and metLvl; reduces allocs
	met := buf[:s.nbVars]           // All vars already met during the resolution
	metLvl := buf[s.nbVars:]        // Vars from the conflict level still to resolve
	nbLvl := s.addConflLits(confl, lvl, met, metLvl, &lits)
	ptr := len(s.trail) - 1 // Pointer in the trail
	for nbLvl > 1 {         // Stop once a single lit from the conflict level remains: the UIP.
		for !metLvl[s.trail[ptr].Var()] {
			if abs(s.model[s.trail[ptr].Var()]) == lvl { // Deduced afterwards, not a cause of the conflict
				met[s.trail[ptr].Var()] = true
			}
			ptr--
		}
		v := s.trail[ptr].Var()
		ptr--
		nbLvl--
		if reason := s.reason[v]; reason != nil {
			s.clauseBumpActivity(reason)
			for i := 0; i < reason.Len(); i++ {
				lit := reason.Get(i)
				if v2 := lit.Var(); !met[v2] {
					if s.litValue(lit) != Unsat {
						continue
					}
					met[v2] = true
					s.varBumpActivity(v2)
					if abs(s.model[v2]) == lvl {
						metLvl[v2] = true
						nbLvl++
					} else if abs(s.model[v2]) != 1 {
						lits = append(lits, lit)
					}
				}
			}
		}
	}
	for _, l := range s.trail { // The earliest met lit from the conflict level is the UIP
		if metLvl[l.Var()] {
			lits[0] = l.Negation()
			break
		}
	}
	s.varDecayActivity()
	s.clauseDecayActivity()
	sortLiterals(lits, s.model)
	sz := s.minimizeLearned(met, lits)
	learnedLits := make([]Lit, sz)
	copy(learnedLits, lits[:sz])
	learned = NewLearnedClause(learnedLits)
	if sz == 1 {
		learned.setLbd(1)
		btLevel = 1
	} else {
		learned.computeLbd(s.model)
		btLevel = abs(s.model[learned.Second().Var()])
	}
	s.lbdStats.add(learned.lbd())
	s.epoch.lbdSum += learned.lbd()
	s.epoch.lbdCount++
	return learned, btLevel
}

// minimizeLearned reduces (if possible) the length of the learned clause and
// returns the size of the new list of lits.
func (s *Solver) minimizeLearned(met []bool, learned []Lit) int {
	sz := 1
	for i := 1; i < len(learned); i++ {
		if reason := s.reason[learned[i].Var()]; reason == nil {
			learned[sz] = learned[i]
			sz++
		} else {
			for k := 0; k < reason.Len(); k++ {
				lit := reason.Get(k)
				if !met[lit.Var()] && abs(s.model[lit.Var()]) > 1 {
					learned[sz] = learned[i]
					sz++
					break
				}
			}
		}
	}
	return sz
}
