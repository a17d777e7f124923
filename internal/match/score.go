// Package match implements the guarded similarity matcher. Scores are
// normalized to 0-100 and every fuzzy acceptance passes through the safety
// guard, which exists to stop matches between materially different
// substances, dosages, or unit families.
package match

// levenshtein returns the edit distance between a and b using a two-row
// matrix.
func levenshtein(a, b string) int {
	if a == b {
		return 0
	}
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := 0; j <= len(b); j++ {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

// Ratio returns a 0-100 similarity score for the full strings.
func Ratio(a, b string) int {
	if a == "" && b == "" {
		return 100
	}
	longest := max(len(a), len(b))
	if longest == 0 {
		return 100
	}
	dist := levenshtein(a, b)
	return (longest - dist) * 100 / longest
}

// PartialRatio returns the best Ratio between the shorter string and every
// equal-length window of the longer string. A short query fully contained in
// a long candidate scores 100.
func PartialRatio(a, b string) int {
	shorter, longer := a, b
	if len(shorter) > len(longer) {
		shorter, longer = longer, shorter
	}
	if len(shorter) == 0 {
		if len(longer) == 0 {
			return 100
		}
		return 0
	}
	best := 0
	for i := 0; i+len(shorter) <= len(longer); i++ {
		if score := Ratio(shorter, longer[i:i+len(shorter)]); score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}
