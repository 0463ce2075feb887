// Package cipher is a toy substitution-cipher oracle used to produce test
// ciphertexts with a known key.
package cipher

import (
	"math/rand/v2"

	"github.com/corey/decipher/internal/domain/alphabet"
	"github.com/corey/decipher/internal/domain/permutation"
)

// Encrypt substitutes every alphabet rune of message through a random key.
// The returned key maps plain ranks to cipher ranks. Runes outside the
// alphabet pass through unchanged.
func Encrypt(message []rune, a *alphabet.Alphabet, rng *rand.Rand) ([]rune, permutation.Key) {
	key := permutation.New(a.Len(), rng)
	return Apply(message, a, key), key
}

// Apply substitutes message through key.
func Apply(message []rune, a *alphabet.Alphabet, key permutation.Key) []rune {
	out := make([]rune, len(message))
	for i, r := range message {
		k, ok := a.Rank(r)
		if !ok {
			out[i] = r
			continue
		}
		out[i] = a.Symbol(key.Image(k))
	}
	return out
}

// DecodingKey returns the key that reverses an encryption key.
func DecodingKey(enc permutation.Key) permutation.Key {
	return enc.Inverse()
}
