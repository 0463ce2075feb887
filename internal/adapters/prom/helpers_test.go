package prom

import (
	"strings"

	"github.com/corey/decipher/internal/domain/alphabet"
	"github.com/corey/decipher/internal/domain/bigram"
	"github.com/corey/decipher/internal/domain/likelihood"
)

func newBinaryEvaluator() *likelihood.Evaluator {
	return likelihood.New(bigram.Train([]rune(strings.Repeat("ab", 100)), alphabet.MustNew("ab")))
}
