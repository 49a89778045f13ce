package merge

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectNeighbor_SmallestAdjacentPopulation(t *testing.T) {
	units := []*Unit{
		testUnit("mid", "Mid", "SP", 1000, [2]int{1, 0}),
		testUnit("west", "West", "SP", 7000, [2]int{0, 0}),
		testUnit("east", "East", "SP", 2000, [2]int{2, 0}),
	}
	p, err := NewPartition(units, gridOps{})
	require.NoError(t, err)
	g, err := BuildGraph(context.Background(), units, gridOps{}, 0)
	require.NoError(t, err)

	n, err := SelectNeighbor(p.Region("mid"), p, g, gridOps{})
	require.NoError(t, err)
	assert.Equal(t, "east", n.ID, "smallest-population neighbor wins")
}

func TestSelectNeighbor_TieBreaksBySmallestID(t *testing.T) {
	units := []*Unit{
		testUnit("m", "Mid", "SP", 1000, [2]int{1, 0}),
		testUnit("a", "West", "SP", 2000, [2]int{0, 0}),
		testUnit("z", "East", "SP", 2000, [2]int{2, 0}),
	}
	p, err := NewPartition(units, gridOps{})
	require.NoError(t, err)
	g, err := BuildGraph(context.Background(), units, gridOps{}, 0)
	require.NoError(t, err)

	n, err := SelectNeighbor(p.Region("m"), p, g, gridOps{})
	require.NoError(t, err)
	assert.Equal(t, "a", n.ID)
}

func TestSelectNeighbor_IslandFallsBackToNearestCentroid(t *testing.T) {
	units := []*Unit{
		testUnit("island", "Ilha", "SP", 1000, [2]int{0, 0}),
		testUnit("near", "Perto", "SP", 50000, [2]int{5, 0}),
		testUnit("far", "Longe", "SP", 100, [2]int{20, 0}),
	}
	p, err := NewPartition(units, gridOps{})
	require.NoError(t, err)
	g, err := BuildGraph(context.Background(), units, gridOps{}, 0)
	require.NoError(t, err)
	require.Empty(t, g.Neighbors("island"))

	// Nearest centroid wins even though "far" has the smaller population.
	n, err := SelectNeighbor(p.Region("island"), p, g, gridOps{})
	require.NoError(t, err)
	assert.Equal(t, "near", n.ID)
}

func TestSelectNeighbor_IslandDistanceTieBreaksBySmallestID(t *testing.T) {
	units := []*Unit{
		testUnit("m", "Ilha", "SP", 1000, [2]int{0, 0}),
		testUnit("b", "Leste", "SP", 10, [2]int{4, 0}),
		testUnit("c", "Oeste", "SP", 10, [2]int{-4, 0}),
	}
	p, err := NewPartition(units, gridOps{})
	require.NoError(t, err)
	g := NewGraph()
	for _, u := range units {
		require.NoError(t, g.Add(u.ID))
	}

	n, err := SelectNeighbor(p.Region("m"), p, g, gridOps{})
	require.NoError(t, err)
	assert.Equal(t, "b", n.ID)
}

func TestSelectNeighbor_SoleRegion(t *testing.T) {
	units := []*Unit{testUnit("only", "Only", "SP", 1000, [2]int{0, 0})}
	p, err := NewPartition(units, gridOps{})
	require.NoError(t, err)
	g := NewGraph()
	require.NoError(t, g.Add("only"))

	_, err = SelectNeighbor(p.Region("only"), p, g, gridOps{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, ErrNoCandidate))
}
