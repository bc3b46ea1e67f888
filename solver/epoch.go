package solver

import (
	"fmt"
	"strconv"
)

// ContextDim is the number of features presented to the bandit controller.
const ContextDim = 11

// An EpochRecord describes one closed epoch: the context under which the arm
// was selected, the arm itself, and the telemetry and reward observed while it
// was active.
type EpochRecord struct {
	Index        int
	Arm          string
	Context      []float64
	Reward       float64
	Conflicts    int
	Decisions    int
	Propagations int
	AvgLbd       float64
}

// epochState tracks the counters snapshot taken when the current epoch
// started and the LBDs of the clauses learned since.
type epochState struct {
	active            bool
	index             int
	lastCtx           []float64
	startConflicts    int
	startDecisions    int
	startPropagations int
	startLearned      int
	lbdSum            int
	lbdCount          int
	prevAvgLbd        float64
}

// contextVector builds the feature vector summarizing the current solver
// state. Every feature is a finite, bounded, deterministic function of the
// state; the order is fixed.
func (s *Solver) contextVector() []float64 {
	nbVars := s.nbVars
	if nbVars == 0 {
		nbVars = 1
	}
	maxAct, sumAct := 0.0, 0.0
	for _, a := range s.activity {
		sumAct += a
		if a > maxAct {
			maxAct = a
		}
	}
	actRatio := 1.0
	if meanAct := sumAct / float64(nbVars); meanAct > 0 {
		actRatio = maxAct / meanAct
	}
	nbSat := 0
	for _, c := range s.wl.clauses {
		if s.clauseSatisfied(c) {
			nbSat++
		}
	}
	nbClauses := len(s.wl.clauses)
	if nbClauses == 0 {
		nbClauses = 1
	}
	epochSize := s.cfg.EpochSize
	if epochSize <= 0 {
		epochSize = 1
	}
	decisions := s.Stats.NbDecisions
	if decisions == 0 {
		decisions = 1
	}
	return []float64{
		s.lbdStats.avg(),
		float64(s.Stats.NbConflicts) / float64(decisions),
		float64(s.Stats.NbPropagations) / float64(decisions),
		float64(len(s.trail)) / float64(nbVars),
		actRatio,
		float64(s.Stats.NbLearned) / float64(1+s.Stats.NbLearned),
		float64(s.Stats.NbLearned-s.epoch.startLearned) / float64(epochSize),
		float64(s.Stats.NbRestarts) / float64(1+s.Stats.NbConflicts),
		float64(nbSat) / float64(nbClauses),
		float64(s.curLevel-1) / float64(nbVars),
		1.0,
	}
}

// clauseSatisfied reports whether at least one literal of c is currently true.
func (s *Solver) clauseSatisfied(c *Clause) bool {
	for _, lit := range c.lits {
		if s.litValue(lit) == Sat {
			return true
		}
	}
	return false
}

// startEpoch snapshots the counters, computes a fresh context and installs
// the arm chosen by the controller (or keeps the pinned arm in baseline mode).
func (s *Solver) startEpoch() {
	ctx := s.contextVector() // Computed before the snapshot so that the
	// learning-rate feature describes the epoch that just closed.
	s.epoch.startConflicts = s.Stats.NbConflicts
	s.epoch.startDecisions = s.Stats.NbDecisions
	s.epoch.startPropagations = s.Stats.NbPropagations
	s.epoch.startLearned = s.Stats.NbLearned
	s.epoch.lbdSum = 0
	s.epoch.lbdCount = 0
	if s.controller != nil {
		s.curArm = s.controller.Select(ctx)
	}
	s.epoch.lastCtx = ctx
	s.epoch.active = true
}

// endEpoch closes the running epoch: it computes the reward for the arm that
// was active, feeds it back to the controller and records the epoch.
func (s *Solver) endEpoch() {
	if !s.epoch.active {
		return
	}
	dConf := s.Stats.NbConflicts - s.epoch.startConflicts
	dDec := s.Stats.NbDecisions - s.epoch.startDecisions
	dProp := s.Stats.NbPropagations - s.epoch.startPropagations
	avgLbd := 0.0
	if s.epoch.lbdCount > 0 {
		avgLbd = float64(s.epoch.lbdSum) / float64(s.epoch.lbdCount)
	}
	reward := s.epochReward(dConf, dProp, avgLbd)
	if s.controller != nil {
		s.controller.Update(s.curArm, s.epoch.lastCtx, reward)
	}
	rec := EpochRecord{
		Index:        s.epoch.index,
		Arm:          s.heuristics[s.curArm].Name(),
		Context:      s.epoch.lastCtx,
		Reward:       reward,
		Conflicts:    dConf,
		Decisions:    dDec,
		Propagations: dProp,
		AvgLbd:       avgLbd,
	}
	s.records = append(s.records, rec)
	s.logEpochCSV(rec)
	s.epoch.prevAvgLbd = avgLbd
	s.epoch.index++
	s.epoch.active = false
}

// epochReward combines the epoch deltas into a scalar: propagation gained is
// good, conflicts and a rising LBD are bad. The result is clamped to [-10, 10].
func (s *Solver) epochReward(dConf, dProp int, avgLbd float64) float64 {
	epochSize := float64(s.cfg.EpochSize)
	if epochSize <= 0 {
		epochSize = 1
	}
	w := s.cfg.Weights
	r := w.Prop*float64(dProp)/epochSize -
		w.Conflict*float64(dConf)/epochSize -
		w.Lbd*(avgLbd-s.epoch.prevAvgLbd)
	if r > 10 {
		r = 10
	} else if r < -10 {
		r = -10
	}
	return r
}

// epochCSVHeader is the fixed header of the per-epoch CSV log.
func epochCSVHeader() []string {
	header := []string{
		"epoch_index", "arm", "reward",
		"conflicts_in_epoch", "propagations_in_epoch", "decisions_in_epoch",
		"avg_lbd_in_epoch",
	}
	for i := 0; i < ContextDim; i++ {
		header = append(header, fmt.Sprintf("c%d", i))
	}
	return header
}

func (s *Solver) logEpochCSV(rec EpochRecord) {
	if s.csv == nil {
		return
	}
	row := []string{
		strconv.Itoa(rec.Index),
		rec.Arm,
		strconv.FormatFloat(rec.Reward, 'g', -1, 64),
		strconv.Itoa(rec.Conflicts),
		strconv.Itoa(rec.Propagations),
		strconv.Itoa(rec.Decisions),
		strconv.FormatFloat(rec.AvgLbd, 'g', -1, 64),
	}
	for _, f := range rec.Context {
		row = append(row, strconv.FormatFloat(f, 'g', -1, 64))
	}
	_ = s.csv.Write(row)
	s.csv.Flush()
}
