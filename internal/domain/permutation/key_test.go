package permutation

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRNG(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, 0))
}

func TestNew_IsBijection(t *testing.T) {
	rng := newRNG(1)
	for _, n := range []int{1, 2, 3, 26, 42} {
		for trial := 0; trial < 50; trial++ {
			k := New(n, rng)
			require.Equal(t, n, k.Len())
			assert.True(t, k.Valid(), "n=%d trial=%d images=%v", n, trial, k.img)
		}
	}
}

func TestNew_SeededIsDeterministic(t *testing.T) {
	a := New(42, newRNG(7))
	b := New(42, newRNG(7))
	assert.Equal(t, a.Images(), b.Images())
}

func TestNew_CoversAllPermutations(t *testing.T) {
	// 3! = 6 permutations; a few hundred draws should hit all of them.
	rng := newRNG(3)
	seen := map[[3]int]int{}
	for i := 0; i < 600; i++ {
		k := New(3, rng)
		seen[[3]int{k.img[0], k.img[1], k.img[2]}]++
	}
	assert.Len(t, seen, 6)
	for perm, c := range seen {
		assert.Greater(t, c, 50, "permutation %v drawn too rarely", perm)
	}
}

func TestPropose_PreservesBijectionAndReverts(t *testing.T) {
	rng := newRNG(11)
	k := New(10, rng)
	for i := 0; i < 1000; i++ {
		before := k.Images()
		s := k.Propose(rng)
		require.True(t, k.Valid())

		if s.NoOp() {
			assert.Equal(t, before, k.Images())
		} else {
			assert.Equal(t, before[s.I], k.Image(s.J))
			assert.Equal(t, before[s.J], k.Image(s.I))
		}

		k.Revert(s)
		assert.Equal(t, before, k.Images())
		k.Propose(rng)
	}
}

func TestPropose_NoOpRate(t *testing.T) {
	// Draws are with replacement: about 1/N of proposals are no-ops.
	rng := newRNG(5)
	k := New(4, rng)
	noops := 0
	const trials = 20000
	for i := 0; i < trials; i++ {
		if k.Propose(rng).NoOp() {
			noops++
		}
	}
	assert.InDelta(t, 0.25, float64(noops)/trials, 0.02)
}

func TestFromImages(t *testing.T) {
	k, err := FromImages([]int{2, 0, 1})
	require.NoError(t, err)
	assert.Equal(t, 2, k.Image(0))

	for _, bad := range [][]int{{0, 0, 1}, {0, 1, 3}, {-1, 0, 1}} {
		_, err := FromImages(bad)
		assert.ErrorIs(t, err, ErrNotBijection, "images %v", bad)
	}
}

func TestApplyAndInverse(t *testing.T) {
	k, err := FromImages([]int{2, 0, 1})
	require.NoError(t, err)

	src := []int{0, 1, 2, 2, 0}
	dec := k.Decode(src)
	assert.Equal(t, []int{2, 0, 1, 1, 2}, dec)
	assert.Equal(t, src, k.Inverse().Decode(dec))
	assert.Equal(t, Identity(3).Images(), k.Inverse().Decode(k.Decode([]int{0, 1, 2})))
}

func TestClone_IsIndependent(t *testing.T) {
	k := Identity(4)
	c := k.Clone()
	c.Revert(Swap{I: 0, J: 1})
	require.Equal(t, []int{1, 0, 2, 3}, c.Images())
	assert.Equal(t, []int{0, 1, 2, 3}, k.Images())
}
