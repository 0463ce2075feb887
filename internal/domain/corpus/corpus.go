// Package corpus loads and normalizes training and message text.
package corpus

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/corey/decipher/internal/domain/alphabet"
)

// spaceRE collapses every whitespace run to a single space.
var spaceRE = regexp.MustCompile(`[\n\r\t\s]+`)

// Normalize lowercases s and collapses whitespace runs to one space.
func Normalize(s string) string {
	return CollapseSpaces(strings.ToLower(s))
}

// CollapseSpaces replaces whitespace runs with one space without changing case.
func CollapseSpaces(s string) string {
	return spaceRE.ReplaceAllString(s, " ")
}

// Read normalizes everything from r.
func Read(r io.Reader) ([]rune, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read corpus: %w", err)
	}
	return []rune(Normalize(string(data))), nil
}

// Load reads and normalizes the file at path.
func Load(path string) ([]rune, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open corpus: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Filter keeps only runes in a.
func Filter(text []rune, a *alphabet.Alphabet) []rune {
	out := make([]rune, 0, len(text))
	for _, r := range text {
		if a.Contains(r) {
			out = append(out, r)
		}
	}
	return out
}

// Prepare turns free text into a message over a: lowercase, drop runes
// outside the alphabet, then collapse whitespace.
func Prepare(text string, a *alphabet.Alphabet) []rune {
	kept := Filter([]rune(strings.ToLower(text)), a)
	return []rune(CollapseSpaces(string(kept)))
}
