package ahocorasick

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// =============================================================================
// Crib scanner: multi-word search in decoded text
// Expectation: every crib occurrence is found in one pass, overlaps included
// =============================================================================

func TestCribScanner_SingleCrib(t *testing.T) {
	s := NewCribScanner([]string{"the"})
	hits := s.Scan("the cat ate the hat")
	assert.Equal(t, []Hit{
		{Crib: "the", Start: 0, End: 3},
		{Crib: "the", Start: 12, End: 15},
	}, hits)
}

func TestCribScanner_MultipleCribs(t *testing.T) {
	s := NewCribScanner([]string{"hat", "cat", "dog"})
	assert.Equal(t, []string{"hat", "cat"}, s.Found("the cat ate the hat"))
}

func TestCribScanner_Overlapping(t *testing.T) {
	s := NewCribScanner([]string{"the", "there", "here"})
	found := s.Found("over there")
	assert.ElementsMatch(t, []string{"the", "there", "here"}, found)
}

func TestCribScanner_NoMatch(t *testing.T) {
	s := NewCribScanner([]string{"zebra"})
	assert.Empty(t, s.Scan("the cat"))
	assert.Empty(t, s.Found("the cat"))
}

func TestCribScanner_DropsEmptyAndDuplicates(t *testing.T) {
	s := NewCribScanner([]string{"", "cat", "cat"})
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, []string{"cat"}, s.Cribs())
}

func TestCribScanner_Empty(t *testing.T) {
	s := NewCribScanner(nil)
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.Scan("anything"))
	assert.Nil(t, s.Found("anything"))
}

func TestCribScanner_RuneOffsets(t *testing.T) {
	s := NewCribScanner([]string{"straße"})
	hits := s.Scan("die straße")
	assert.Equal(t, []Hit{{Crib: "straße", Start: 4, End: 10}}, hits)
}

func TestCribScanner_CaseSensitive(t *testing.T) {
	// Callers normalize case before matching.
	s := NewCribScanner([]string{"the"})
	assert.Empty(t, s.Found("THE"))
}
