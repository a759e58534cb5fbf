package suggest

import (
	"cmp"
	"slices"
	"strings"
	"sync"

	"github.com/bastiangx/topicserve/internal/utils"
	"github.com/bastiangx/topicserve/pkg/fuzzy"
	"github.com/bastiangx/topicserve/pkg/index"
	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Suggestion is one completed topic name.
type Suggestion struct {
	// Word is the lowercase key with the prefix's capitalization applied.
	Word string
	// Name is the topic as written in the dataset.
	Name string
	// Count is the number of records stored under the key.
	Count int
}

// entry is the patricia item stored per key.
type entry struct {
	name  string
	count int
}

// Completer completes topic names from a prefix.
type Completer struct {
	trie     *patricia.Trie
	names    []string
	total    int
	maxCount int
	mu       sync.RWMutex
}

// NewCompleter returns an empty completer.
func NewCompleter() *Completer {
	return &Completer{trie: patricia.NewTrie()}
}

// FromIndex builds a completer over every key in idx.
func FromIndex(idx *index.Index) *Completer {
	c := NewCompleter()
	for _, topic := range idx.AllTopics() {
		node := idx.FindNode(topic)
		if node == nil {
			continue
		}
		recs := node.Records()
		if len(recs) == 0 {
			continue
		}
		c.AddTopic(recs[0].Topic, len(recs))
	}
	log.Debugf("Completer built with %d topics", c.total)
	return c
}

// AddTopic registers name with a record count. Adding the same name again
// replaces its count.
func (c *Completer) AddTopic(name string, count int) {
	key := strings.ToLower(name)
	if key == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.trie.Get(patricia.Prefix(key)) == nil {
		c.total++
		c.names = append(c.names, name)
	}
	c.trie.Set(patricia.Prefix(key), entry{name: name, count: count})
	if count > c.maxCount {
		c.maxCount = count
	}
}

// Complete returns the topics whose key starts with prefix, most records first.
// The exact key is included. limit <= 0 means no limit.
func (c *Completer) Complete(prefix string, limit int) []Suggestion {
	lowerPrefix := strings.ToLower(prefix)
	capitalPositions := utils.CapitalPositions(prefix)

	c.mu.RLock()
	var suggestions []Suggestion
	err := c.trie.VisitSubtree(patricia.Prefix(lowerPrefix), func(p patricia.Prefix, item patricia.Item) error {
		e, ok := item.(entry)
		if !ok {
			log.Errorf("Unknown item type: %T for topic %s", item, p)
			return nil
		}
		suggestions = append(suggestions, Suggestion{
			Word:  utils.ApplyCapitalization(string(p), capitalPositions),
			Name:  e.name,
			Count: e.count,
		})
		return nil
	})
	c.mu.RUnlock()
	if err != nil {
		log.Errorf("Error visiting trie subtree: %v", err)
		return nil
	}

	slices.SortFunc(suggestions, func(a, b Suggestion) int {
		return cmp.Or(cmp.Compare(b.Count, a.Count), cmp.Compare(a.Word, b.Word))
	})

	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

// Filter ranks every topic name against pattern as a fuzzy subsequence.
func (c *Completer) Filter(pattern string, limit int) []fuzzy.Match {
	c.mu.RLock()
	names := slices.Clone(c.names)
	c.mu.RUnlock()
	return fuzzy.Filter(pattern, names, limit)
}

// Stats returns counters about the loaded names.
func (c *Completer) Stats() map[string]int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return map[string]int{
		"totalTopics": c.total,
		"maxCount":    c.maxCount,
	}
}
