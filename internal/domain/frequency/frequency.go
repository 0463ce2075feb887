// Package frequency is the baseline decoder: it aligns message n-gram
// frequencies with reference n-gram frequencies by rank.
//
// Decrypt keeps an ad hoc merge rule for n > 1: when the next mapped
// n-gram is more frequent in the reference than the previous one, the last
// emitted symbol is dropped before appending. Its output is not length
// preserving for n > 1.
package frequency

import "sort"

// Entry is one n-gram and its relative frequency.
type Entry struct {
	Gram string
	Freq float64
}

// Table holds n-gram frequencies in first-occurrence order.
type Table struct {
	n       int
	entries []Entry
	index   map[string]int
}

// Calculate counts every length-n window of text and normalizes to 1.
func Calculate(text []rune, n int) *Table {
	t := &Table{n: n, index: make(map[string]int)}
	if n < 1 {
		return t
	}
	total := 0.0
	for i := 0; i+n <= len(text); i++ {
		g := string(text[i : i+n])
		total++
		if k, ok := t.index[g]; ok {
			t.entries[k].Freq++
			continue
		}
		t.index[g] = len(t.entries)
		t.entries = append(t.entries, Entry{Gram: g, Freq: 1})
	}
	for k := range t.entries {
		t.entries[k].Freq /= total
	}
	return t
}

// N returns the n-gram length.
func (t *Table) N() int { return t.n }

// Len returns the number of distinct n-grams.
func (t *Table) Len() int { return len(t.entries) }

// Freq returns the frequency of gram, or 0 if unseen.
func (t *Table) Freq(gram string) (float64, bool) {
	k, ok := t.index[gram]
	if !ok {
		return 0, false
	}
	return t.entries[k].Freq, true
}

// Sorted returns the entries by descending frequency; ties keep
// first-occurrence order.
func (t *Table) Sorted() []Entry {
	out := append([]Entry(nil), t.entries...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Freq > out[j].Freq })
	return out
}

// Decrypt decodes message by frequency rank alignment against ref.
func Decrypt(message []rune, ref *Table, n int) []rune {
	refSorted := ref.Sorted()
	msgSorted := Calculate(message, n).Sorted()

	translation := make(map[string]string, len(msgSorted))
	for i := 0; i < len(refSorted) && i < len(msgSorted); i++ {
		translation[msgSorted[i].Gram] = refSorted[i].Gram
	}

	var out []rune
	prev := 0.0 // 0 means no previous mapped n-gram
	for i := 0; i < len(message)+n-1; i++ {
		start, end := min(i, len(message)), min(i+n, len(message))
		decoded, ok := translation[string(message[start:end])]
		if !ok {
			prev = 0
			continue
		}
		freq, _ := ref.Freq(decoded)
		letters := []rune(decoded)
		if prev != 0 && len(letters) > 1 && freq > prev && len(out) > 0 {
			out = out[:len(out)-1]
		}
		out = append(out, letters...)
		prev = freq
	}
	return out
}
