// Package alphabet defines the ordered symbol set every key permutes.
// Symbols are runes; each one has a rank in 0..N-1 and all hot paths
// (bigram table, keys, candidates) work on ranks instead of runes.
package alphabet

import (
	"errors"
	"fmt"
)

// English is the default alphabet: lowercase letters, digits, a little
// punctuation and the space character.
const English = "abcdefghijklmnopqrstuvwxyz0123456789.,-!? "

var (
	// ErrEmpty is returned when an alphabet has no symbols.
	ErrEmpty = errors.New("alphabet is empty")
	// ErrDuplicateSymbol is returned when a symbol appears more than once.
	ErrDuplicateSymbol = errors.New("duplicate symbol in alphabet")
)

// Alphabet is an ordered, duplicate-free set of symbols.
// Immutable after construction; safe for concurrent use.
type Alphabet struct {
	symbols []rune
	rank    map[rune]int
}

// New builds an alphabet from the runes of s, in order.
func New(s string) (*Alphabet, error) {
	return FromRunes([]rune(s))
}

// FromRunes builds an alphabet from an explicit symbol list.
func FromRunes(symbols []rune) (*Alphabet, error) {
	if len(symbols) == 0 {
		return nil, ErrEmpty
	}
	a := &Alphabet{
		symbols: make([]rune, len(symbols)),
		rank:    make(map[rune]int, len(symbols)),
	}
	for i, r := range symbols {
		if _, dup := a.rank[r]; dup {
			return nil, fmt.Errorf("%w: %q at position %d", ErrDuplicateSymbol, r, i)
		}
		a.rank[r] = i
		a.symbols[i] = r
	}
	return a, nil
}

// MustNew is New for package-level literals and tests. Panics on error.
func MustNew(s string) *Alphabet {
	a, err := New(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Len returns N, the number of symbols.
func (a *Alphabet) Len() int { return len(a.symbols) }

// Rank returns the position of r, or false if r is not in the alphabet.
func (a *Alphabet) Rank(r rune) (int, bool) {
	i, ok := a.rank[r]
	return i, ok
}

// Symbol returns the rune at rank i.
func (a *Alphabet) Symbol(i int) rune { return a.symbols[i] }

// Contains reports whether r belongs to the alphabet.
func (a *Alphabet) Contains(r rune) bool {
	_, ok := a.rank[r]
	return ok
}

// Symbols returns a copy of the ordered symbol list.
func (a *Alphabet) Symbols() []rune {
	out := make([]rune, len(a.symbols))
	copy(out, a.symbols)
	return out
}

// String returns the symbols as a string, in order.
func (a *Alphabet) String() string { return string(a.symbols) }

// Encode maps every rune of text to its rank. The second return value is
// the index of the first rune outside the alphabet, or -1.
func (a *Alphabet) Encode(text []rune) ([]int, int) {
	ranks := make([]int, len(text))
	for i, r := range text {
		k, ok := a.rank[r]
		if !ok {
			return nil, i
		}
		ranks[i] = k
	}
	return ranks, -1
}

// Decode maps ranks back to runes.
func (a *Alphabet) Decode(ranks []int) []rune {
	out := make([]rune, len(ranks))
	for i, k := range ranks {
		out[i] = a.symbols[k]
	}
	return out
}
