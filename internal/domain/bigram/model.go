// Package bigram learns a smoothed joint distribution over adjacent symbol
// pairs from training text.
//
// Counting covers every adjacent pair in the text, including pairs that
// touch runes outside the alphabet. Every alphabet×alphabet pair then gets
// one pseudo-count (Laplace smoothing), and all counts are divided by
// (training pairs + N²). The result sums to 1 over observed and smoothed
// pairs. It is a joint table, not a conditional one.
package bigram

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/corey/decipher/internal/domain/alphabet"
)

// ErrMissingProbability is returned when a pair was never observed and lies
// outside alphabet×alphabet. Callers working inside the alphabet never see it.
var ErrMissingProbability = errors.New("bigram has no probability")

// Pseudocount added to every alphabet×alphabet pair before normalizing.
const Pseudocount = 1

// Pair is one table entry, used for reporting.
type Pair struct {
	First  rune
	Second rune
	Prob   float64
}

// Model is the learned bigram table. Immutable after Train; safe for
// concurrent reads.
type Model struct {
	alpha *alphabet.Alphabet
	n     int

	// probs[i*n+j] is P(symbol i, symbol j) for alphabet ranks i, j.
	probs    []float64
	logProbs []float64

	// Observed pairs with at least one rune outside the alphabet.
	outside map[[2]rune]float64

	trainingPairs int
	total         float64
}

// Train builds the table from text over alphabet a. Deterministic.
func Train(text []rune, a *alphabet.Alphabet) *Model {
	n := a.Len()
	counts := make([]float64, n*n)
	outside := make(map[[2]rune]float64)

	pairs := 0
	for i := 0; i+1 < len(text); i++ {
		pairs++
		x, okx := a.Rank(text[i])
		y, oky := a.Rank(text[i+1])
		if okx && oky {
			counts[x*n+y]++
			continue
		}
		outside[[2]rune{text[i], text[i+1]}]++
	}

	total := float64(pairs + Pseudocount*n*n)
	m := &Model{
		alpha:         a,
		n:             n,
		probs:         counts,
		logProbs:      make([]float64, n*n),
		outside:       outside,
		trainingPairs: pairs,
		total:         total,
	}
	for k := range m.probs {
		m.probs[k] = (m.probs[k] + Pseudocount) / total
		m.logProbs[k] = math.Log(m.probs[k])
	}
	for k, c := range m.outside {
		m.outside[k] = c / total
	}
	return m
}

// Alphabet returns the alphabet the model was trained over.
func (m *Model) Alphabet() *alphabet.Alphabet { return m.alpha }

// TrainingPairs returns the number of adjacent pairs counted in the text.
func (m *Model) TrainingPairs() int { return m.trainingPairs }

// Pairs returns the number of entries in the table.
func (m *Model) Pairs() int { return len(m.probs) + len(m.outside) }

// Prob looks up P(x, y).
func (m *Model) Prob(x, y rune) (float64, error) {
	i, okx := m.alpha.Rank(x)
	j, oky := m.alpha.Rank(y)
	if okx && oky {
		return m.probs[i*m.n+j], nil
	}
	if p, ok := m.outside[[2]rune{x, y}]; ok {
		return p, nil
	}
	return 0, fmt.Errorf("%w: %q%q", ErrMissingProbability, x, y)
}

// RankProb returns P for a pair of alphabet ranks. Always > 0.
func (m *Model) RankProb(i, j int) float64 { return m.probs[i*m.n+j] }

// RankLogProb returns log P for a pair of alphabet ranks.
func (m *Model) RankLogProb(i, j int) float64 { return m.logProbs[i*m.n+j] }

// Sum adds every probability in the table. 1 up to rounding.
func (m *Model) Sum() float64 {
	s := 0.0
	for _, p := range m.probs {
		s += p
	}
	for _, p := range m.outside {
		s += p
	}
	return s
}

// Top returns the k most probable alphabet pairs, highest first.
// Ties keep rank order.
func (m *Model) Top(k int) []Pair {
	out := make([]Pair, 0, len(m.probs))
	for idx, p := range m.probs {
		out = append(out, Pair{
			First:  m.alpha.Symbol(idx / m.n),
			Second: m.alpha.Symbol(idx % m.n),
			Prob:   p,
		})
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Prob > out[b].Prob })
	if k >= 0 && k < len(out) {
		out = out[:k]
	}
	return out
}
