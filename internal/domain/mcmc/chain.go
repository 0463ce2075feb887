package mcmc

import (
	"math"
	"math/rand/v2"

	"github.com/corey/decipher/internal/domain/permutation"
)

// layout indexes the ciphertext by symbol. Built once per Decode and
// shared read-only by every restart.
type layout struct {
	cipher []int
	// positions[r] lists the indices where cipher rank r occurs.
	positions [][]int
	// touch[r] lists the pair indices i (pair i, i+1) with an endpoint of rank r.
	touch [][]int
}

func newLayout(cipher []int, n int) *layout {
	l := &layout{
		cipher:    cipher,
		positions: make([][]int, n),
		touch:     make([][]int, n),
	}
	for i, r := range cipher {
		l.positions[r] = append(l.positions[r], i)
	}
	for i := 0; i+1 < len(cipher); i++ {
		a, b := cipher[i], cipher[i+1]
		l.touch[a] = append(l.touch[a], i)
		if b != a {
			l.touch[b] = append(l.touch[b], i)
		}
	}
	return l
}

// chain is the state of one restart.
type chain struct {
	d     *Decoder
	lay   *layout
	rng   *rand.Rand
	key   permutation.Key
	plain []int

	// scratch for deduplicating affected pair indices
	stamp    []int
	epoch    int
	affected []int
}

func (d *Decoder) restart(lay *layout, attempt int) (outcome, error) {
	rng := rand.New(rand.NewPCG(d.cfg.Seed, uint64(attempt)))
	key := permutation.New(d.alpha.Len(), rng)
	c := &chain{
		d:     d,
		lay:   lay,
		rng:   rng,
		key:   key,
		plain: key.Decode(lay.cipher),
	}
	if n := len(lay.cipher) - 1; n > 0 {
		c.stamp = make([]int, n)
	}

	st := RestartStats{Attempt: attempt}
	for step := 0; step < d.cfg.Steps; step++ {
		accepted, noop, err := c.step()
		if err != nil {
			return outcome{}, err
		}
		st.Proposals++
		if accepted {
			st.Accepted++
		}
		if noop {
			st.NoOps++
		}
	}
	st.LogLikelihood = d.ev.RankLogLikelihood(c.plain)
	return outcome{plain: c.plain, key: c.key, stats: st}, nil
}

// step proposes one swap and accepts or reverts it.
// It returns whether the swap was kept and whether it was a no-op.
func (c *chain) step() (bool, bool, error) {
	swap := c.key.Propose(c.rng)

	if c.d.cfg.FullRescore {
		tentative := c.key.Decode(c.lay.cipher)
		lr, err := c.d.ev.RankLogRatio(tentative, c.plain)
		if err != nil {
			return false, false, err
		}
		if accept(lr, c.rng) {
			c.plain = tentative
			return true, swap.NoOp(), nil
		}
		c.key.Revert(swap)
		return false, swap.NoOp(), nil
	}

	lr := c.rescore(swap)
	if accept(lr, c.rng) {
		return true, swap.NoOp(), nil
	}
	c.key.Revert(swap)
	c.rewrite(swap)
	return false, swap.NoOp(), nil
}

// accept draws u from [0,1) and keeps the proposal unless ratio < u.
// u == 0 gives log(u) = -Inf, which always accepts.
func accept(logRatio float64, rng *rand.Rand) bool {
	u := rng.Float64()
	return !(logRatio < math.Log(u))
}

// rescore updates c.plain for a swap already applied to c.key and returns
// log Ratio(new, old) computed over the affected bigrams only.
func (c *chain) rescore(swap permutation.Swap) float64 {
	if swap.NoOp() {
		return 0
	}
	m := c.d.ev.Model()

	c.collect(swap)
	old := 0.0
	for _, i := range c.affected {
		old += m.RankLogProb(c.plain[i], c.plain[i+1])
	}
	c.rewrite(swap)
	next := 0.0
	for _, i := range c.affected {
		next += m.RankLogProb(c.plain[i], c.plain[i+1])
	}
	return next - old
}

// rewrite refreshes the decoded symbols at positions of the swapped ranks.
func (c *chain) rewrite(swap permutation.Swap) {
	for _, p := range c.lay.positions[swap.I] {
		c.plain[p] = c.key.Image(swap.I)
	}
	for _, p := range c.lay.positions[swap.J] {
		c.plain[p] = c.key.Image(swap.J)
	}
}

// collect gathers the union of pair indices touching either swapped rank.
func (c *chain) collect(swap permutation.Swap) {
	c.epoch++
	c.affected = c.affected[:0]
	for _, r := range [2]int{swap.I, swap.J} {
		for _, i := range c.lay.touch[r] {
			if c.stamp[i] != c.epoch {
				c.stamp[i] = c.epoch
				c.affected = append(c.affected, i)
			}
		}
	}
}
