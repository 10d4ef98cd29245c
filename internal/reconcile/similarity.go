package reconcile

import "strings"

// Similarity is the fraction of rune positions, up to the longer string's
// length, at which a and b hold the same rune (case-insensitive). It is a
// positional comparison, not an edit distance: an insertion near the start
// shifts every later rune and scores low. Two empty strings score 1.
func Similarity(a, b string) float64 {
	ra := []rune(strings.ToLower(a))
	rb := []rune(strings.ToLower(b))
	longer, shorter := len(ra), len(rb)
	if shorter > longer {
		longer, shorter = shorter, longer
	}
	if longer == 0 {
		return 1
	}
	same := 0
	for i := 0; i < shorter; i++ {
		if ra[i] == rb[i] {
			same++
		}
	}
	return float64(same) / float64(longer)
}
