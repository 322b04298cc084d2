package reconcile

// SimilarText returns the similarity of a and b as a percentage in [0, 100].
//
// The matched count is the length of the first longest common substring plus,
// recursively, the matches to its left and to its right. The percentage is
// matched*2*100 / (len(a)+len(b)). Comparison is bytewise.
func SimilarText(a, b string) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 0
	}
	return float64(similarChars(a, b)*2) * 100 / float64(total)
}

// similarChars counts matched bytes between a and b.
func similarChars(a, b string) int {
	pos1, pos2, n, count := longestCommon(a, b)
	if n == 0 {
		return 0
	}
	sum := n
	// The left side is only revisited when the scan improved more than once.
	if pos1 > 0 && pos2 > 0 && count > 1 {
		sum += similarChars(a[:pos1], b[:pos2])
	}
	if pos1+n < len(a) && pos2+n < len(b) {
		sum += similarChars(a[pos1+n:], b[pos2+n:])
	}
	return sum
}

// longestCommon finds the first longest common substring of a and b. count is
// the number of times the running maximum improved during the scan.
func longestCommon(a, b string) (pos1, pos2, n, count int) {
	for i := 0; i < len(a); i++ {
		for j := 0; j < len(b); j++ {
			l := 0
			for i+l < len(a) && j+l < len(b) && a[i+l] == b[j+l] {
				l++
			}
			if l > n {
				n = l
				count++
				pos1, pos2 = i, j
			}
		}
	}
	return pos1, pos2, n, count
}
