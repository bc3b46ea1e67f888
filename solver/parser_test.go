package solver

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCNF(t *testing.T) {
	input := `c a small example
c with two comment lines
p cnf 3 3
1 -2 0
-1 2
3 0
2 0
`
	pb, err := ParseCNF(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, 3, pb.NbVars)
	require.Len(t, pb.Clauses, 2, "clauses may span several lines")
	assert.Equal(t, "1 -2 0", pb.Clauses[0].CNF())
	assert.Equal(t, "-1 2 3 0", pb.Clauses[1].CNF())
	require.Len(t, pb.Units, 1)
	assert.Equal(t, IntToLit(2), pb.Units[0])
}

func TestParseCNFEmptyClause(t *testing.T) {
	pb, err := ParseCNF(strings.NewReader("p cnf 2 2\n1 2 0\n0\n"))
	require.NoError(t, err)
	assert.Equal(t, Unsat, pb.Status)
}

func TestParseCNFDuplicateLits(t *testing.T) {
	pb, err := ParseCNF(strings.NewReader("p cnf 2 1\n1 1 2 0\n"))
	require.NoError(t, err)
	require.Len(t, pb.Clauses, 1)
	assert.Equal(t, 2, pb.Clauses[0].Len())
}

func TestParseCNFErrors(t *testing.T) {
	for name, input := range map[string]string{
		"bad header":        "p cnf x 2\n1 2 0\n",
		"short header":      "p cnf\n",
		"literal too large": "p cnf 2 1\n1 5 0\n",
		"unfinished clause": "p cnf 2 1\n1 2\n",
		"non-integer token": "p cnf 2 1\n1 a 0\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCNF(strings.NewReader(input))
			assert.Error(t, err)
		})
	}
}

func TestParseSlice(t *testing.T) {
	pb := ParseSlice([][]int{{1, -2, 3}, {2}, {-3, 1}})
	assert.Equal(t, 3, pb.NbVars)
	assert.Len(t, pb.Clauses, 2)
	assert.Equal(t, []Lit{IntToLit(2)}, pb.Units)
	assert.Equal(t, Indet, pb.Status)
}

func TestParseSliceEmptyClause(t *testing.T) {
	pb := ParseSlice([][]int{{1, 2}, {}})
	assert.Equal(t, Unsat, pb.Status)
}

func TestParseSliceDuplicateToUnit(t *testing.T) {
	pb := ParseSlice([][]int{{1, 1}})
	assert.Empty(t, pb.Clauses)
	assert.Equal(t, []Lit{IntToLit(1)}, pb.Units)
}

func TestLitEncoding(t *testing.T) {
	for _, i := range []int{1, -1, 3, -3, 42, -42} {
		lit := IntToLit(i)
		assert.Equal(t, int32(i), lit.Int())
		assert.Equal(t, int32(-i), lit.Negation().Int())
		assert.Equal(t, i > 0, lit.IsPositive())
	}
	assert.Equal(t, IntToLit(3).Var(), IntToLit(-3).Var())
}

func TestLbdWindow(t *testing.T) {
	var stats lbdStats
	assert.Equal(t, 0.0, stats.avg())
	stats.add(2)
	stats.add(4)
	assert.InDelta(t, 3.0, stats.avg(), 1e-9)
	for i := 0; i < nbMaxRecent; i++ { // Push the first values out of the window
		stats.add(10)
	}
	assert.InDelta(t, 10.0, stats.avg(), 1e-9)
}
