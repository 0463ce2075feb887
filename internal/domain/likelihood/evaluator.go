// Package likelihood compares candidate decodings under a bigram model.
//
// Ratio(a, b) is the product over adjacent positions of P(a-pair)/P(b-pair).
// It is accumulated as a sum of log differences and exponentiated once, so
// LogRatio never underflows; Ratio itself saturates to 0 or +Inf on long
// inputs with very different likelihoods.
package likelihood

import (
	"errors"
	"fmt"
	"math"

	"github.com/corey/decipher/internal/domain/bigram"
)

// ErrLengthMismatch is returned when the two sequences differ in length.
var ErrLengthMismatch = errors.New("sequence lengths differ")

// Evaluator scores sequences against a trained bigram model.
// Safe for concurrent use.
type Evaluator struct {
	model *bigram.Model
}

// New returns an evaluator over m.
func New(m *bigram.Model) *Evaluator {
	return &Evaluator{model: m}
}

// Model returns the underlying bigram model.
func (e *Evaluator) Model() *bigram.Model { return e.model }

// Ratio returns the relative likelihood of a over b.
func (e *Evaluator) Ratio(a, b []rune) (float64, error) {
	lr, err := e.LogRatio(a, b)
	if err != nil {
		return 0, err
	}
	return math.Exp(lr), nil
}

// LogRatio returns log(Ratio(a, b)).
func (e *Evaluator) LogRatio(a, b []rune) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(a), len(b))
	}
	sum := 0.0
	for i := 0; i+1 < len(a); i++ {
		pa, err := e.model.Prob(a[i], a[i+1])
		if err != nil {
			return 0, fmt.Errorf("position %d: %w", i, err)
		}
		pb, err := e.model.Prob(b[i], b[i+1])
		if err != nil {
			return 0, fmt.Errorf("position %d: %w", i, err)
		}
		sum += math.Log(pa) - math.Log(pb)
	}
	return sum, nil
}

// LogLikelihood returns the sum of log P over every adjacent pair of seq.
func (e *Evaluator) LogLikelihood(seq []rune) (float64, error) {
	sum := 0.0
	for i := 0; i+1 < len(seq); i++ {
		p, err := e.model.Prob(seq[i], seq[i+1])
		if err != nil {
			return 0, fmt.Errorf("position %d: %w", i, err)
		}
		sum += math.Log(p)
	}
	return sum, nil
}

// RankLogRatio is LogRatio over alphabet ranks. Every alphabet pair has an
// entry, so the only failure is a length mismatch.
func (e *Evaluator) RankLogRatio(a, b []int) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(a), len(b))
	}
	sum := 0.0
	for i := 0; i+1 < len(a); i++ {
		sum += e.model.RankLogProb(a[i], a[i+1]) - e.model.RankLogProb(b[i], b[i+1])
	}
	return sum, nil
}

// RankLogLikelihood is LogLikelihood over alphabet ranks.
func (e *Evaluator) RankLogLikelihood(seq []int) float64 {
	sum := 0.0
	for i := 0; i+1 < len(seq); i++ {
		sum += e.model.RankLogProb(seq[i], seq[i+1])
	}
	return sum
}
