package bandit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func unitContext(dim, i int) []float64 {
	x := make([]float64, dim)
	x[i] = 1
	return x
}

func TestSelectTiesGoToLowestArm(t *testing.T) {
	l := NewLinUCB(4, 3, 0.3)
	// With identity matrices and zero b, every arm scores alpha*|x|.
	assert.Equal(t, 0, l.Select([]float64{1, 0.5, 0.25}))
}

func TestSelectFollowsReward(t *testing.T) {
	l := NewLinUCB(3, 4, 0.3)
	x := unitContext(4, 1)
	for i := 0; i < 5; i++ {
		l.Update(2, x, 1)
	}
	assert.Equal(t, 2, l.Select(x), "the rewarded arm should win on its context")
}

func TestUpdateShermanMorrison(t *testing.T) {
	dim := 3
	l := NewLinUCB(1, dim, 0.3)
	x := []float64{0.5, -1, 2}
	l.Update(0, x, 0.7)
	// After the update, aInv must be the inverse of I + x x'.
	xv := mat.NewVecDense(dim, x)
	a := mat.NewDense(dim, dim, nil)
	for i := 0; i < dim; i++ {
		a.Set(i, i, 1)
	}
	var outer mat.Dense
	outer.Outer(1, xv, xv)
	a.Add(a, &outer)
	var product mat.Dense
	product.Mul(l.arms[0].aInv, a)
	for i := 0; i < dim; i++ {
		for j := 0; j < dim; j++ {
			expected := 0.0
			if i == j {
				expected = 1
			}
			assert.InDelta(t, expected, product.At(i, j), 1e-9, "at (%d,%d)", i, j)
		}
	}
	// b accumulated reward * x.
	for i := 0; i < dim; i++ {
		assert.InDelta(t, 0.7*x[i], l.arms[0].b.AtVec(i), 1e-12)
	}
}

func TestUpdateRejectsNonFinite(t *testing.T) {
	l := NewLinUCB(2, 2, 0.3)
	l.Update(0, []float64{1, 0}, math.NaN())
	l.Update(0, []float64{math.Inf(1), 0}, 1)
	assert.Equal(t, 0.0, l.BNorm(0))
}

func TestBNorm(t *testing.T) {
	l := NewLinUCB(2, 2, 0.3)
	require.Equal(t, 0.0, l.BNorm(0))
	l.Update(0, []float64{3, 4}, 1)
	assert.InDelta(t, 5.0, l.BNorm(0), 1e-9)
}

func TestDims(t *testing.T) {
	l := NewLinUCB(4, 11, 0.3)
	assert.Equal(t, 4, l.NbArms())
	assert.Equal(t, 11, l.Dim())
}
