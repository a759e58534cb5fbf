package fuzzy

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Match is a name that matched a filter pattern.
type Match struct {
	Str            string
	Index          int
	Score          int
	MatchedIndexes []int
}

// Filter ranks names by how well pattern matches them as a subsequence.
// Matching is case-insensitive; first rune, separator and adjacency bonuses
// decide the order. An empty pattern keeps every name in its original order.
// limit <= 0 means no limit.
func Filter(pattern string, names []string, limit int) []Match {
	pattern = strings.TrimSpace(pattern)
	if pattern == "" {
		out := make([]Match, 0, len(names))
		for i, name := range names {
			if limit > 0 && len(out) >= limit {
				break
			}
			out = append(out, Match{Str: name, Index: i})
		}
		return out
	}

	found := fuzzy.Find(pattern, names)
	if limit > 0 && len(found) > limit {
		found = found[:limit]
	}

	out := make([]Match, len(found))
	for i, m := range found {
		out[i] = Match{
			Str:            m.Str,
			Index:          m.Index,
			Score:          m.Score,
			MatchedIndexes: m.MatchedIndexes,
		}
	}
	return out
}
