package index

import (
	"slices"
	"strings"
	"sync"

	"github.com/bastiangx/topicserve/internal/utils"
	"github.com/bastiangx/topicserve/pkg/fuzzy"
	"github.com/charmbracelet/log"
)

// DefaultFuzzyThreshold is the minimum similarity for a fuzzy hit.
const DefaultFuzzyThreshold = 0.8

// Node is one trie node. Its path from the root spells a lowercase key prefix.
type Node struct {
	children map[rune]*Node
	end      bool
	records  []*TopicRecord
}

func newNode() *Node {
	return &Node{children: make(map[rune]*Node)}
}

// IsEnd reports whether an inserted key terminates at this node.
func (n *Node) IsEnd() bool {
	return n.end
}

// Records returns a copy of the records attached to this node.
func (n *Node) Records() []*TopicRecord {
	return slices.Clone(n.records)
}

// sortedRunes returns the child edges in ascending order.
func (n *Node) sortedRunes() []rune {
	runes := make([]rune, 0, len(n.children))
	for r := range n.children {
		runes = append(runes, r)
	}
	slices.Sort(runes)
	return runes
}

// Index is a trie of lowercase keys to topic records.
// It is safe for concurrent use. Every insert purges the prefix cache.
type Index struct {
	root    *Node
	cache   *prefixCache
	keys    int
	records int
	mu      sync.RWMutex
}

// Option configures an Index.
type Option func(*options)

type options struct {
	cacheSize int
}

// WithCacheSize bounds the number of memoized prefix queries.
func WithCacheSize(n int) Option {
	return func(o *options) {
		o.cacheSize = n
	}
}

// New creates an empty index.
func New(opts ...Option) *Index {
	o := options{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&o)
	}
	return &Index{
		root:  newNode(),
		cache: newPrefixCache(o.cacheSize),
	}
}

// Insert stores rec under key. Keys are case-insensitive.
// Records failing validation are logged and rejected with ErrInvalidRecord;
// the tree is not modified in that case.
func (idx *Index) Insert(key string, rec *TopicRecord) error {
	if err := rec.Validate(); err != nil {
		log.Warnf("Rejected insert for key '%s': %v", key, err)
		return err
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	current := idx.root
	for _, r := range strings.ToLower(key) {
		child, ok := current.children[r]
		if !ok {
			child = newNode()
			current.children[r] = child
		}
		current = child
	}

	if !current.end {
		current.end = true
		idx.keys++
	}
	current.records = append(current.records, rec)
	idx.records++

	idx.cache.purge()
	return nil
}

// SearchPrefix returns all records whose key starts with prefix, ignoring case.
// The result is never nil. Order follows the trie traversal and carries no meaning.
func (idx *Index) SearchPrefix(prefix string) []*TopicRecord {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return recordsOf(idx.prefixHits(strings.ToLower(prefix)))
}

// prefixHits returns the memoized hits for a lowercase prefix.
// Callers hold at least the read lock.
func (idx *Index) prefixHits(lowerPrefix string) []hit {
	if hits, ok := idx.cache.get(lowerPrefix); ok {
		return hits
	}

	node := idx.walk(lowerPrefix)
	var hits []hit
	if node != nil {
		hits = collect(node, lowerPrefix)
	}
	idx.cache.add(lowerPrefix, hits)
	return hits
}

// SearchFuzzy returns the prefix matches of term followed by the records of
// every other key whose similarity to term is at least threshold.
// Fuzzy hits follow AllTopics order; each record appears once.
func (idx *Index) SearchFuzzy(term string, threshold float64) []*TopicRecord {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	lowerTerm := strings.ToLower(term)
	results := make([]*TopicRecord, 0)
	seen := make(map[*TopicRecord]struct{})
	matched := make(map[string]struct{})

	add := func(hits []hit) {
		for _, h := range hits {
			matched[h.key] = struct{}{}
			if _, ok := seen[h.record]; ok {
				continue
			}
			seen[h.record] = struct{}{}
			results = append(results, h.record)
		}
	}

	add(idx.prefixHits(lowerTerm))

	for _, key := range idx.keyPaths() {
		if _, ok := matched[key]; ok {
			continue
		}
		if fuzzy.Similarity(lowerTerm, key) < threshold {
			continue
		}

		hits := idx.prefixHits(key)
		if len(hits) > 0 {
			add(hits)
			continue
		}
		// key is not a stored terminal: take the node's own records
		if node := idx.findNode(key); node != nil {
			fallback := make([]hit, len(node.records))
			for i, rec := range node.records {
				fallback[i] = hit{key: key, record: rec}
			}
			add(fallback)
		}
	}

	log.Debugf("Fuzzy search '%s' (th=%.2f): %d results", term, threshold, len(results))
	return results
}

// FindNode returns the terminal node for key, or nil when key was never inserted.
func (idx *Index) FindNode(key string) *Node {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.findNode(strings.ToLower(key))
}

func (idx *Index) findNode(lowerKey string) *Node {
	node := idx.walk(lowerKey)
	if node == nil || !node.end {
		return nil
	}
	return node
}

// AllTopics returns every inserted key with its first rune upper-cased,
// in pre-order with children visited in rune order.
func (idx *Index) AllTopics() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	keys := idx.keyPaths()
	topics := make([]string, len(keys))
	for i, k := range keys {
		topics[i] = utils.Capitalize(k)
	}
	return topics
}

// Len returns the number of stored records.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.records
}

// Keys returns the number of distinct inserted keys.
func (idx *Index) Keys() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.keys
}

// Stats returns counters about the tree and its cache.
func (idx *Index) Stats() map[string]int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return map[string]int{
		"keys":        idx.keys,
		"records":     idx.records,
		"cached":      idx.cache.len(),
		"cacheHits":   int(idx.cache.hits.Load()),
		"cacheMisses": int(idx.cache.misses.Load()),
	}
}

// ClearCache drops every memoized prefix query.
func (idx *Index) ClearCache() {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.cache.purge()
}

// walk follows lowerPrefix from the root. It returns nil on a missing edge.
func (idx *Index) walk(lowerPrefix string) *Node {
	current := idx.root
	for _, r := range lowerPrefix {
		child, ok := current.children[r]
		if !ok {
			return nil
		}
		current = child
	}
	return current
}

// keyPaths lists the lowercase key of every terminal node in traversal order.
func (idx *Index) keyPaths() []string {
	hits := collectTerminals(idx.root, "")
	keys := make([]string, len(hits))
	for i, h := range hits {
		keys[i] = h.key
	}
	return keys
}

type frame struct {
	node  *Node
	depth int
	edge  rune
	root  bool
}

// visit walks the subtree below start in pre-order, children in rune order.
// fn receives the full key path of each node; the slice is reused, so callers
// copy it if they keep it. An explicit stack keeps very long keys off the call stack.
func visit(start *Node, prefix string, fn func(n *Node, path []rune)) {
	path := []rune(prefix)
	stack := []frame{{node: start, depth: len(path), root: true}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		path = path[:f.depth]
		if !f.root {
			path = append(path, f.edge)
		}
		fn(f.node, path)

		runes := f.node.sortedRunes()
		for i := len(runes) - 1; i >= 0; i-- {
			stack = append(stack, frame{node: f.node.children[runes[i]], depth: len(path), edge: runes[i]})
		}
	}
}

// collect gathers every record at or below start.
func collect(start *Node, prefix string) []hit {
	var hits []hit
	visit(start, prefix, func(n *Node, path []rune) {
		if !n.end {
			return
		}
		key := string(path)
		for _, rec := range n.records {
			hits = append(hits, hit{key: key, record: rec})
		}
	})
	return hits
}

// collectTerminals gathers one hit per terminal node, without records.
func collectTerminals(start *Node, prefix string) []hit {
	var hits []hit
	visit(start, prefix, func(n *Node, path []rune) {
		if n.end {
			hits = append(hits, hit{key: string(path)})
		}
	})
	return hits
}

func recordsOf(hits []hit) []*TopicRecord {
	out := make([]*TopicRecord, len(hits))
	for i, h := range hits {
		out[i] = h.record
	}
	return out
}
