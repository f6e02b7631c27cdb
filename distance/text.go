package distance

import "math/bits"

var (
	// Hamming counts differing bits. Slices of different length count every
	// bit of the excess bytes as differing.
	Hamming = New(NameHamming, hamming)

	// Levenshtein is the unit-cost edit distance over runes.
	Levenshtein = New(NameLevenshtein, levenshtein)
)

func hamming(a, b []byte) float64 {
	if len(a) > len(b) {
		a, b = b, a
	}
	n := 0
	for i := range a {
		n += bits.OnesCount8(a[i] ^ b[i])
	}
	n += 8 * (len(b) - len(a))
	return float64(n)
}

func levenshtein(a, b string) float64 {
	if a == b {
		return 0
	}
	ra, rb := []rune(a), []rune(b)
	if len(ra) < len(rb) {
		ra, rb = rb, ra
	}
	if len(rb) == 0 {
		return float64(len(ra))
	}

	// Two rows over the shorter string.
	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return float64(prev[len(rb)])
}
