// Package search runs free-text queries against an index.
//
// A query is split into whitespace separated terms, each term is matched
// fuzzily, and the union of the matches is returned in a stable order.
package search

import (
	"cmp"
	"slices"

	"github.com/bastiangx/topicserve/internal/utils"
	"github.com/bastiangx/topicserve/pkg/index"
)

// Terms fuzzy-matches every term of query and returns the distinct records
// found, sorted. The order of terms in the query does not affect the result.
func Terms(idx index.Searcher, query string, threshold float64) []index.TopicRecord {
	terms := utils.Tokenize(query)
	if len(terms) == 0 {
		return []index.TopicRecord{}
	}

	seen := utils.NewSeenFilter[index.TopicRecord]()
	var out []index.TopicRecord
	for _, term := range terms {
		for _, rec := range idx.SearchFuzzy(term, threshold) {
			if seen.ShouldInclude(*rec) {
				out = append(out, *rec)
			}
		}
	}
	sortRecords(out)
	if out == nil {
		out = []index.TopicRecord{}
	}
	return out
}

// Prefix returns the distinct records whose key starts with query, sorted.
func Prefix(idx index.Searcher, query string) []index.TopicRecord {
	out := []index.TopicRecord{}
	if query == "" {
		return out
	}
	seen := utils.NewSeenFilter[index.TopicRecord]()
	for _, rec := range idx.SearchPrefix(query) {
		if seen.ShouldInclude(*rec) {
			out = append(out, *rec)
		}
	}
	sortRecords(out)
	return out
}

func sortRecords(recs []index.TopicRecord) {
	slices.SortFunc(recs, func(a, b index.TopicRecord) int {
		return cmp.Or(
			cmp.Compare(a.Topic, b.Topic),
			cmp.Compare(a.ParentTopic, b.ParentTopic),
			cmp.Compare(a.Language, b.Language),
			cmp.Compare(a.Color, b.Color),
		)
	})
}
