// Package ahocorasick finds cribs, words known or guessed to occur in a
// plaintext, in decoded text. It wraps the petar-dambovaliev/aho-corasick
// library, so one pass over the text finds every crib at once.
package ahocorasick

import (
	aho "github.com/petar-dambovaliev/aho-corasick"
)

// Hit is one crib occurrence. Offsets are in runes, End exclusive.
type Hit struct {
	Crib  string
	Start int
	End   int
}

// CribScanner matches a fixed crib set.
type CribScanner struct {
	automaton aho.AhoCorasick
	cribs     []string
}

// NewCribScanner compiles the automaton. Empty and repeated cribs are dropped.
func NewCribScanner(cribs []string) *CribScanner {
	seen := make(map[string]bool, len(cribs))
	p := make([]string, 0, len(cribs))
	for _, c := range cribs {
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		p = append(p, c)
	}
	s := &CribScanner{cribs: p}
	if len(p) > 0 {
		builder := aho.NewAhoCorasickBuilder(aho.Opts{
			DFA: true,
		})
		s.automaton = builder.Build(p)
	}
	return s
}

// Len returns the number of distinct cribs.
func (s *CribScanner) Len() int { return len(s.cribs) }

// Cribs returns the distinct cribs in input order.
func (s *CribScanner) Cribs() []string {
	return append([]string(nil), s.cribs...)
}

// Scan returns every occurrence, overlapping ones included, ordered by end offset.
func (s *CribScanner) Scan(text string) []Hit {
	if len(s.cribs) == 0 || text == "" {
		return nil
	}
	// Byte offset -> rune offset at rune boundaries, plus len(text).
	// Matches of valid UTF-8 cribs start and end on boundaries.
	runeAt := make([]int, len(text)+1)
	r := 0
	for i := range text {
		runeAt[i] = r
		r++
	}
	runeAt[len(text)] = r

	iter := s.automaton.IterOverlappingByte([]byte(text))
	var hits []Hit
	for next := iter.Next(); next != nil; next = iter.Next() {
		m := *next
		hits = append(hits, Hit{
			Crib:  s.cribs[m.Pattern()],
			Start: runeAt[m.Start()],
			End:   runeAt[m.End()],
		})
	}
	return hits
}

// Found returns the cribs present in text, in input order.
func (s *CribScanner) Found(text string) []string {
	present := make(map[string]bool, len(s.cribs))
	for _, h := range s.Scan(text) {
		present[h.Crib] = true
	}
	var found []string
	for _, c := range s.cribs {
		if present[c] {
			found = append(found, c)
		}
	}
	return found
}
