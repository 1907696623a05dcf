package similarity

// Score returns a similarity in [0,1] between two strings, defined as
// (maxLen - levenshtein(a,b)) / maxLen over their rune lengths. Two empty
// strings score 1.0. Comparison is case-insensitive.
func Score(a, b string) float64 {
	ra := []rune(foldCaser.String(a))
	rb := []rune(foldCaser.String(b))

	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1.0
	}
	return float64(longest-levenshtein(ra, rb)) / float64(longest)
}

// levenshtein computes the unit-cost edit distance (insert/delete/substitute)
// using the rolling single-row optimization.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	// Keep the row sized by the shorter string.
	if len(b) > len(a) {
		a, b = b, a
	}

	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		prev := row[0] // row[i-1][j-1]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			current := row[j]
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			insert := row[j-1] + 1
			remove := row[j] + 1
			substitute := prev + cost
			best := insert
			if remove < best {
				best = remove
			}
			if substitute < best {
				best = substitute
			}
			row[j] = best
			prev = current
		}
	}
	return row[len(b)]
}
