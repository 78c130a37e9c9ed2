// ABOUTME: Partial-ratio fuzzy matching shared by the section splitter and role tagger
// ABOUTME: Scores the best-aligned contiguous substring of the longer string
package fuzzy

import (
	"math"
	"strings"
)

const (
	// SectionBoundaryThreshold is the minimum partial-ratio score (exclusive)
	// for a line to count as an opening-ceremony phrase or Q&A cue.
	SectionBoundaryThreshold = 85

	// RoleMatchThreshold is the minimum partial-ratio score (inclusive) for
	// a speaker name to match a management participant.
	RoleMatchThreshold = 80
)

// PartialRatio scores two strings on a 0-100 scale by comparing the
// shorter string against the best-matching contiguous substring of the
// longer one. A contained substring scores 100. Comparison is
// case-insensitive.
func PartialRatio(a, b string) int {
	s := []rune(strings.ToLower(a))
	l := []rune(strings.ToLower(b))
	if len(s) > len(l) {
		s, l = l, s
	}
	if len(s) == 0 {
		return 0
	}

	m := len(s)
	best := 0.0
	for i := 0; i < len(l); i++ {
		// Substrings longer than 2m cannot score above 2/3 and never
		// improve on shorter alignments at our thresholds.
		maxLen := len(l) - i
		if maxLen > 2*m {
			maxLen = 2 * m
		}
		best = math.Max(best, bestAlignmentFrom(s, l[i:i+maxLen]))
		if best == 1.0 {
			break
		}
	}
	return int(math.Round(best * 100))
}

// bestAlignmentFrom grows a window over l one rune at a time, tracking
// the similarity ratio 2*LCS/(len(s)+window) at every window length.
func bestAlignmentFrom(s, l []rune) float64 {
	m := len(s)
	row := make([]int, m+1)
	prev := make([]int, m+1)
	best := 0.0

	for k, c := range l {
		prev, row = row, prev
		row[0] = 0
		for j := 1; j <= m; j++ {
			if s[j-1] == c {
				row[j] = prev[j-1] + 1
			} else if prev[j] >= row[j-1] {
				row[j] = prev[j]
			} else {
				row[j] = row[j-1]
			}
		}
		ratio := 2 * float64(row[m]) / float64(m+k+1)
		if ratio > best {
			best = ratio
		}
	}
	return best
}

// MatchesAny reports whether s scores strictly above threshold against
// any of the given phrases.
func MatchesAny(s string, phrases []string, threshold int) bool {
	for _, phrase := range phrases {
		if PartialRatio(s, phrase) > threshold {
			return true
		}
	}
	return false
}
