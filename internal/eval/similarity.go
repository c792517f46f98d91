package eval

// Ratio measures how alike two strings are on a 0..1 scale using the
// classic Ratcliff-Obershelp approach: recursively find the longest common
// block, then count matches on each side of it. The result is
// 2*M/T where M is the number of matched characters and T the combined
// length. Two empty strings are identical by definition.
//
// On long inputs the popular-rune heuristic applies: when b has 200+ runes,
// runes filling more than 1% of b stop anchoring matches, though an anchored
// match still extends through them.
func Ratio(a, b string) float64 {
	ar, br := []rune(a), []rune(b)
	total := len(ar) + len(br)
	if total == 0 {
		return 1.0
	}

	// Index of each rune's positions in b, consulted by longestMatch.
	b2j := make(map[rune][]int, len(br))
	for j, r := range br {
		b2j[r] = append(b2j[r], j)
	}
	if len(br) >= 200 {
		ntest := len(br)/100 + 1
		for r, idxs := range b2j {
			if len(idxs) > ntest {
				delete(b2j, r)
			}
		}
	}

	matches := countMatches(ar, br, b2j, 0, len(ar), 0, len(br))
	return 2.0 * float64(matches) / float64(total)
}

// countMatches sums the sizes of all matching blocks between a[alo:ahi] and
// b[blo:bhi].
func countMatches(a, b []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) int {
	i, j, k := longestMatch(a, b, b2j, alo, ahi, blo, bhi)
	if k == 0 {
		return 0
	}
	return k +
		countMatches(a, b, b2j, alo, i, blo, j) +
		countMatches(a, b, b2j, i+k, ahi, j+k, bhi)
}

// longestMatch finds the longest block a[i:i+k] == b[j:j+k] with
// alo <= i < i+k <= ahi and blo <= j < j+k <= bhi. Ties go to the earliest
// block in a, then the earliest in b.
func longestMatch(a, b []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) (besti, bestj, bestk int) {
	besti, bestj = alo, blo
	// j2len[j] is the length of the match ending at a[i-1], b[j].
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestk {
				besti, bestj, bestk = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}

	// Runes dropped from b2j are invisible to the walk above but still
	// belong to a match that reaches them; extend the best block across
	// equal runes on both ends.
	for besti > alo && bestj > blo && a[besti-1] == b[bestj-1] {
		besti, bestj, bestk = besti-1, bestj-1, bestk+1
	}
	for besti+bestk < ahi && bestj+bestk < bhi && a[besti+bestk] == b[bestj+bestk] {
		bestk++
	}
	return besti, bestj, bestk
}
