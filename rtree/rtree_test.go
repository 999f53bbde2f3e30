package rtree

import (
	"math/rand"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boundAt(minX, minY, maxX, maxY float64) orb.Bound {
	return orb.Bound{Min: orb.Point{minX, minY}, Max: orb.Point{maxX, maxY}}
}

func TestBuildEmpty(t *testing.T) {
	tree := Build(nil)
	assert.Equal(t, 0, tree.Len())
	assert.Nil(t, tree.Query(orb.Point{0, 0}))
}

func TestQuerySingle(t *testing.T) {
	tree := Build([]orb.Bound{boundAt(0, 0, 1, 1)})
	require.Equal(t, 1, tree.Len())

	assert.Equal(t, []int{0}, tree.Query(orb.Point{0.5, 0.5}))
	assert.Equal(t, []int{0}, tree.Query(orb.Point{0, 0}), "bound edges are inclusive")
	assert.Empty(t, tree.Query(orb.Point{2, 2}))
}

func TestQueryReturnsIndexHandles(t *testing.T) {
	bounds := []orb.Bound{
		boundAt(0, 0, 1, 1),
		boundAt(10, 10, 11, 11),
		boundAt(0.5, 0.5, 1.5, 1.5),
	}
	tree := Build(bounds)

	got := tree.Query(orb.Point{0.75, 0.75})
	assert.ElementsMatch(t, []int{0, 2}, got)

	got = tree.Query(orb.Point{10.5, 10.5})
	assert.Equal(t, []int{1}, got)
}

// The tree must never produce a false negative: every box containing the
// point has to be in the candidate set, whatever the packing did.
func TestQueryMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	const n = 2000
	bounds := make([]orb.Bound, n)
	for i := range bounds {
		x := rng.Float64() * 100
		y := rng.Float64() * 100
		w := rng.Float64() * 5
		h := rng.Float64() * 5
		bounds[i] = boundAt(x, y, x+w, y+h)
	}
	tree := Build(bounds)
	require.Equal(t, n, tree.Len())

	for trial := 0; trial < 200; trial++ {
		pt := orb.Point{rng.Float64() * 110, rng.Float64() * 110}

		var want []int
		for i, b := range bounds {
			if b.Contains(pt) {
				want = append(want, i)
			}
		}
		assert.ElementsMatch(t, want, tree.Query(pt), "point %v", pt)
	}
}

func TestQueryDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	bounds := make([]orb.Bound, 500)
	for i := range bounds {
		x := rng.Float64() * 10
		y := rng.Float64() * 10
		bounds[i] = boundAt(x, y, x+3, y+3)
	}
	tree := Build(bounds)

	pt := orb.Point{5, 5}
	first := tree.Query(pt)
	require.NotEmpty(t, first)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, tree.Query(pt))
	}

	// A fresh build over the same input packs identically.
	rebuilt := Build(bounds)
	assert.Equal(t, first, rebuilt.Query(pt))
}

func TestBuildDoesNotRetainInput(t *testing.T) {
	bounds := []orb.Bound{boundAt(0, 0, 1, 1), boundAt(2, 2, 3, 3)}
	tree := Build(bounds)

	// Mutating the caller's slice after Build must not affect queries.
	bounds[0] = boundAt(50, 50, 60, 60)
	assert.Equal(t, []int{0}, tree.Query(orb.Point{0.5, 0.5}))
	assert.Empty(t, tree.Query(orb.Point{55, 55}))
}
