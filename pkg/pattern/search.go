/*
Author: KleaSCM
Email: KleaSCM@gmail.com
File: search.go
Description: Hamming-distance bounded sliding window search.
*/

package pattern

import "github.com/kleascm/bitlens/pkg/bits"

// Find returns every offset where needle differs from the haystack window in at
// most maxGarbles positions, in increasing offset order. An empty needle, an empty
// haystack or a needle longer than the haystack yields no matches.
func Find(haystack, needle *bits.Buffer, maxGarbles int) []Match {
	n, m := haystack.Len(), needle.Len()
	if m == 0 || n == 0 || m > n {
		return nil
	}

	var matches []Match
	prev := -1
	for pos := 0; pos+m <= n; pos++ {
		mismatches := 0
		for j := 0; j < m; j++ {
			if haystack.Bit(pos+j) != needle.Bit(j) {
				mismatches++
				if mismatches > maxGarbles {
					break
				}
			}
		}
		if mismatches > maxGarbles {
			continue
		}

		match := Match{
			Position:   pos,
			Bits:       haystack.Slice(pos, pos+m),
			Mismatches: mismatches,
		}
		if prev >= 0 {
			match.Delta = pos - prev
		}
		matches = append(matches, match)
		prev = pos
	}
	return matches
}
