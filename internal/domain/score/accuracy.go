// Package score measures how close a decode is to the known plaintext.
package score

// Accuracy is the fraction of positions where got matches want, over
// len(want). Only the common prefix is compared, so a short got counts its
// missing tail as wrong. Returns 0 for an empty want.
func Accuracy(want, got []rune) float64 {
	if len(want) == 0 {
		return 0
	}
	correct := 0
	for i := 0; i < len(want) && i < len(got); i++ {
		if want[i] == got[i] {
			correct++
		}
	}
	return float64(correct) / float64(len(want))
}

// AccuracyString is Accuracy over the runes of two strings.
func AccuracyString(want, got string) float64 {
	return Accuracy([]rune(want), []rune(got))
}
