// Package suggest completes and filters topic names on top of a patricia trie.
package suggest

import "github.com/bastiangx/topicserve/pkg/fuzzy"

// ICompleter defines the interface for topic name completion engines
type ICompleter interface {
	// Complete returns suggestions for a given prefix with a limit
	Complete(prefix string, limit int) []Suggestion

	// AddTopic adds a topic name with its record count
	AddTopic(name string, count int)

	// Filter ranks all topic names against a fuzzy pattern
	Filter(pattern string, limit int) []fuzzy.Match

	// Stats returns statistics about the loaded names
	Stats() map[string]int
}

var _ ICompleter = (*Completer)(nil)
