// Package bandit implements the LinUCB contextual bandit used to pick the
// branching heuristic of the solver at epoch boundaries.
package bandit

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// LinUCB is a ridge-regression contextual bandit. Each arm carries a design
// matrix A (kept as its inverse) and a reward vector b; the score of an arm
// for a context x is theta.x + alpha*sqrt(x'Ainv x) with theta = Ainv b.
type LinUCB struct {
	alpha float64
	dim   int
	arms  []*armState
}

type armState struct {
	aInv *mat.Dense    // Inverse of the design matrix, maintained via Sherman-Morrison
	b    *mat.VecDense // Accumulated reward-weighted contexts
}

func newArmState(dim int) *armState {
	aInv := mat.NewDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		aInv.Set(i, i, 1)
	}
	return &armState{
		aInv: aInv,
		b:    mat.NewVecDense(dim, nil),
	}
}

// NewLinUCB returns a LinUCB over nbArms arms and contexts of length dim,
// with exploration constant alpha. Each A starts as the identity, each b at
// zero.
func NewLinUCB(nbArms, dim int, alpha float64) *LinUCB {
	arms := make([]*armState, nbArms)
	for i := range arms {
		arms[i] = newArmState(dim)
	}
	return &LinUCB{
		alpha: alpha,
		dim:   dim,
		arms:  arms,
	}
}

// NbArms returns the number of arms.
func (l *LinUCB) NbArms() int { return len(l.arms) }

// Dim returns the expected context length.
func (l *LinUCB) Dim() int { return l.dim }

// Select returns the arm with the highest upper-confidence score for the
// given context. Ties go to the lowest arm index.
func (l *LinUCB) Select(x []float64) int {
	xv := mat.NewVecDense(l.dim, x)
	best := 0
	bestScore := math.Inf(-1)
	for i, arm := range l.arms {
		theta := mat.NewVecDense(l.dim, nil)
		theta.MulVec(arm.aInv, arm.b)
		exploit := mat.Dot(theta, xv)
		u := mat.NewVecDense(l.dim, nil)
		u.MulVec(arm.aInv, xv)
		quad := mat.Dot(xv, u)
		if quad < 0 { // Guard against numerical noise
			quad = 0
		}
		if score := exploit + l.alpha*math.Sqrt(quad); score > bestScore {
			best = i
			bestScore = score
		}
	}
	return best
}

// Update performs the rank-1 Sherman-Morrison update of the chosen arm:
// A <- A + x x', which on the inverse reads
// Ainv <- Ainv - (Ainv x x' Ainv) / (1 + x' Ainv x), then b <- b + r x.
// Updates with a non-finite reward or context are rejected.
func (l *LinUCB) Update(arm int, x []float64, reward float64) {
	if math.IsNaN(reward) || math.IsInf(reward, 0) {
		return
	}
	for _, f := range x {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return
		}
	}
	st := l.arms[arm]
	xv := mat.NewVecDense(l.dim, x)
	u := mat.NewVecDense(l.dim, nil)
	u.MulVec(st.aInv, xv)
	denom := 1 + mat.Dot(xv, u)
	if denom < 1e-12 { // Cannot happen while Ainv stays positive-definite
		denom = 1e-12
	}
	var outer mat.Dense
	outer.Outer(1/denom, u, u)
	st.aInv.Sub(st.aInv, &outer)
	st.b.AddScaledVec(st.b, reward, xv)
}

// BNorm returns the Euclidean norm of the given arm's b vector. It is mainly
// useful to check whether an arm received any feedback yet.
func (l *LinUCB) BNorm(arm int) float64 {
	b := l.arms[arm].b
	return math.Sqrt(mat.Dot(b, b))
}
