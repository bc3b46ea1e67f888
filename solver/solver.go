package solver

import (
	"encoding/csv"
	"fmt"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kux109/RL-SAT/bandit"
)

const (
	varDecay      = 0.95  // The activity increment is divided by this after each conflict.
	clauseDecay   = 0.999 // By how much clause bumping decays over time.
	progressEvery = 500   // Conflicts between two progress log lines.
)

// Stats are statistics about the resolution of the problem.
type Stats struct {
	NbConflicts     int     `json:"conflicts"`
	NbDecisions     int     `json:"decisions"`
	NbPropagations  int     `json:"propagations"`
	NbRestarts      int     `json:"restarts"`
	NbLearned       int     `json:"learned"`
	NbUnitLearned   int     `json:"unit_learned"`
	NbBinaryLearned int     `json:"binary_learned"`
	NbDeleted       int     `json:"deleted"`
	ElapsedSeconds  float64 `json:"elapsed_seconds"`
}

// A Solver solves a given problem. It is the main data structure.
// A Solver is single-owner: it must not be shared between goroutines.
type Solver struct {
	nbVars    int
	status    Status
	cfg       Config
	wl        watcherList
	trail     []Lit // Current assignment stack
	qhead     int   // Propagation queue head: trail entries before it have been scanned
	model     Model // 0 means unbound, other value is a binding with its level
	lastModel Model // Placeholder for the last model found
	reason    []*Clause
	activity  []float64 // How often each var is involved in conflicts
	polarity  []bool    // Last value each var was bound to
	phaseSet  []bool    // Whether each var was ever bound
	varQueue  queue
	varInc    float64 // On each var bump, how big the increment should be
	clauseInc float32
	curLevel  decLevel
	lbdStats  lbdStats
	rng       *rand.Rand

	units       []Lit     // Unit facts from the problem, asserted at the root level
	unitClauses []*Clause // Their clauses, used as reasons

	heuristics []Heuristic
	curArm     int
	controller Controller
	epoch      epochState
	records    []EpochRecord
	learnBuf   []Lit
	csv        *csv.Writer
	log        *logrus.Logger

	lastRestart int // Conflict count when the last restart happened

	Stats Stats // Statistics about the solving process.
}

// New makes a solver for the given problem, configured by cfg.
func New(pb *Problem, cfg Config) *Solver {
	cfg = cfg.withDefaults()
	if pb.Status == Unsat {
		return &Solver{status: Unsat, cfg: cfg}
	}
	nbVars := pb.NbVars
	s := &Solver{
		nbVars:     nbVars,
		status:     Indet,
		cfg:        cfg,
		trail:      make([]Lit, 0, nbVars),
		model:      make(Model, nbVars),
		reason:     make([]*Clause, nbVars),
		activity:   make([]float64, nbVars),
		polarity:   make([]bool, nbVars),
		phaseSet:   make([]bool, nbVars),
		varInc:     1.0,
		clauseInc:  1.0,
		curLevel:   1,
		rng:        rand.New(rand.NewSource(cfg.Seed)),
		units:      pb.Units,
		heuristics: newHeuristics(pb),
		learnBuf:   make([]Lit, nbVars+1),
		log:        cfg.Logger,
	}
	s.unitClauses = make([]*Clause, len(pb.Units))
	for i, unit := range pb.Units {
		s.unitClauses[i] = NewClause([]Lit{unit})
	}
	s.initWatcherList(pb.Clauses)
	s.varQueue = newQueue(s.activity)
	s.curArm = armIndex(cfg.Heuristic)
	if cfg.Mode == ModeRL {
		s.controller = cfg.Controller
		if s.controller == nil {
			s.controller = bandit.NewLinUCB(len(s.heuristics), ContextDim, cfg.Alpha)
		}
	}
	if cfg.EpochCSV != nil {
		s.csv = csv.NewWriter(cfg.EpochCSV)
		_ = s.csv.Write(epochCSVHeader())
		s.csv.Flush()
	}
	return s
}

func (s *Solver) varDecayActivity() {
	s.varInc *= 1 / varDecay
}

func (s *Solver) varBumpActivity(v Var) {
	s.activity[v] += s.varInc
	if s.activity[v] > 1e100 { // Rescaling is needed to avoid overflowing
		for i := range s.activity {
			s.activity[i] *= 1e-100
		}
		s.varInc *= 1e-100
	}
	if s.varQueue.contains(int(v)) {
		s.varQueue.decrease(int(v))
	}
}

// Decays each clause's activity.
func (s *Solver) clauseDecayActivity() {
	s.clauseInc *= 1 / clauseDecay
}

// Bumps the given clause's activity.
func (s *Solver) clauseBumpActivity(c *Clause) {
	if c.Learned() {
		c.activity += s.clauseInc
		if c.activity > 1e30 { // Rescale to avoid overflow
			for _, c2 := range s.wl.clauses[s.wl.nbOriginal:] {
				c2.activity *= 1e-30
			}
			s.clauseInc *= 1e-30
		}
	}
}

// backtrack unbinds every variable bound at a level strictly greater than lvl,
// saving its phase, and clears the propagation queue.
func (s *Solver) backtrack(lvl decLevel) {
	i := 0
	for i < len(s.trail) && abs(s.model[s.trail[i].Var()]) <= lvl {
		i++
	}
	for j := len(s.trail) - 1; j >= i; j-- {
		lit := s.trail[j]
		v := lit.Var()
		s.model[v] = 0
		if s.reason[v] != nil {
			s.reason[v].unlock()
			s.reason[v] = nil
		}
		s.polarity[v] = lit.IsPositive()
		if !s.varQueue.contains(int(v)) {
			s.varQueue.insert(int(v))
		}
	}
	s.trail = s.trail[:i]
	s.qhead = len(s.trail)
	s.curLevel = lvl
}

func (s *Solver) rebuildOrderHeap() {
	ints := make([]int, 0, s.nbVars)
	for v := 0; v < s.nbVars; v++ {
		if s.model[v] == 0 {
			ints = append(ints, v)
		}
	}
	s.varQueue.build(ints)
}

// restartThreshold returns the number of conflicts after which the next
// restart fires.
func (s *Solver) restartThreshold() int {
	if !s.cfg.LubyRestarts {
		return s.cfg.RestartInterval
	}
	return int(luby(uint(s.Stats.NbRestarts+1))) * s.cfg.RestartInterval
}

// Solve solves the problem associated with the solver and returns Sat or
// Unsat. Statistics are available in s.Stats afterwards; in RL mode the
// per-epoch records are available through EpochRecords.
func (s *Solver) Solve() Status {
	if s.status == Unsat { // Trivially unsat problems require no work
		return Unsat
	}
	start := time.Now()
	defer func() {
		s.Stats.ElapsedSeconds = time.Since(start).Seconds()
	}()
	s.status = Indet
	s.startEpoch()
	for i, unit := range s.units {
		if !s.enqueue(unit, 1, s.unitClauses[i]) { // Contradicting root facts
			return s.terminate(Unsat)
		}
	}
	for {
		if conflict := s.propagate(); conflict != nil {
			s.Stats.NbConflicts++
			s.logProgress()
			if s.curLevel == 1 { // Conflict on root facts alone
				return s.terminate(Unsat)
			}
			learnt, btLevel := s.analyze(conflict, s.curLevel)
			s.addLearned(learnt)
			s.backtrack(btLevel)
			s.assign(learnt.First(), btLevel, learnt)
			if s.cfg.ReduceLearned && s.Stats.NbConflicts >= s.wl.idxReduce*s.wl.nbMax {
				s.wl.idxReduce = s.Stats.NbConflicts/s.wl.nbMax + 1
				s.reduceLearned()
				s.bumpNbMax()
			}
			if t := s.restartThreshold(); t > 0 && s.Stats.NbConflicts-s.lastRestart >= t {
				s.restart()
			}
			if s.cfg.EpochSize > 0 && s.Stats.NbConflicts-s.epoch.startConflicts >= s.cfg.EpochSize {
				s.endEpoch()
				s.startEpoch()
			}
		} else {
			lit := s.heuristics[s.curArm].decide(s)
			if lit == -1 { // Every variable is bound without a conflict
				s.lastModel = make(Model, len(s.model))
				copy(s.lastModel, s.model)
				return s.terminate(Sat)
			}
			s.curLevel++
			s.assign(lit, s.curLevel, nil)
		}
	}
}

// terminate closes the running epoch with a final controller update and sets
// the solver status.
func (s *Solver) terminate(st Status) Status {
	s.endEpoch()
	s.status = st
	if s.log != nil {
		s.log.WithFields(logrus.Fields{
			"status":    st.String(),
			"conflicts": s.Stats.NbConflicts,
			"decisions": s.Stats.NbDecisions,
			"restarts":  s.Stats.NbRestarts,
		}).Info("search finished")
	}
	return st
}

// restart backjumps to the root level, keeping all learned clauses. The epoch
// conflict count is unaffected.
func (s *Solver) restart() {
	s.backtrack(1)
	s.Stats.NbRestarts++
	s.lastRestart = s.Stats.NbConflicts
	s.rebuildOrderHeap()
	for _, h := range s.heuristics {
		h.onRestart(s)
	}
}

func (s *Solver) logProgress() {
	if s.log == nil || s.Stats.NbConflicts%progressEvery != 0 {
		return
	}
	s.log.WithFields(logrus.Fields{
		"conflicts":    s.Stats.NbConflicts,
		"decisions":    s.Stats.NbDecisions,
		"propagations": s.Stats.NbPropagations,
		"restarts":     s.Stats.NbRestarts,
		"learned":      s.Stats.NbLearned,
		"level":        int(s.curLevel) - 1,
		"arm":          s.heuristics[s.curArm].Name(),
	}).Debug("search progress")
}

// EpochRecords returns the per-epoch records gathered during the solve.
func (s *Solver) EpochRecords() []EpochRecord {
	return s.records
}

// CurrentArm returns the name of the branching heuristic currently active.
func (s *Solver) CurrentArm() string {
	return s.heuristics[s.curArm].Name()
}

// Model returns a slice that associates, to each variable, its binding.
// If s's status is not Sat, the method will panic.
func (s *Solver) Model() []bool {
	if s.lastModel == nil {
		panic("cannot call Model() from a non-Sat solver")
	}
	res := make([]bool, s.nbVars)
	for i, lvl := range s.lastModel {
		res[i] = lvl > 0
	}
	return res
}

// OutputModel outputs the result and, if relevant, the model on stdout.
func (s *Solver) OutputModel() {
	switch s.status {
	case Sat:
		fmt.Printf("s SATISFIABLE\nv ")
		for i, val := range s.lastModel {
			if val < 0 {
				fmt.Printf("%d ", -i-1)
			} else {
				fmt.Printf("%d ", i+1)
			}
		}
		fmt.Printf("\n")
	case Unsat:
		fmt.Printf("s UNSATISFIABLE\n")
	default:
		fmt.Printf("s INDETERMINATE\n")
	}
}
