// Package index is the core of topicserve: a character trie over topic and
// subtopic names, with memoized prefix lookups, Jaro-Winkler fuzzy lookups and
// a JSON snapshot codec for persisting a built index.
package index

// Searcher is the read side of an index as used by the server and CLI.
type Searcher interface {
	// SearchPrefix returns every record whose key starts with prefix.
	SearchPrefix(prefix string) []*TopicRecord

	// SearchFuzzy returns prefix matches followed by records of keys
	// scoring at least threshold against term.
	SearchFuzzy(term string, threshold float64) []*TopicRecord

	// AllTopics lists every stored key, first rune capitalized.
	AllTopics() []string

	// Stats returns counters about the tree and its cache.
	Stats() map[string]int
}
