package index

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/bytedance/sonic"
)

// SnapshotVersion is written into every snapshot. Deserialize refuses any other
// version, so a change to TopicRecord only needs a bump here to invalidate
// stored snapshots.
const SnapshotVersion = 1

// ErrCorruptSnapshot is returned by Deserialize for malformed input.
var ErrCorruptSnapshot = errors.New("corrupt index snapshot")

type snapshot struct {
	Version int           `json:"version"`
	Root    *nodeSnapshot `json:"root"`
}

type nodeSnapshot struct {
	End      bool                     `json:"end,omitempty"`
	Records  []TopicRecord            `json:"records,omitempty"`
	Children map[string]*nodeSnapshot `json:"children,omitempty"`
}

// Serialize encodes the tree of idx as JSON text. The prefix cache is not included.
// Output is deterministic for a given tree.
func Serialize(idx *Index) (string, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	snap := snapshot{Version: SnapshotVersion, Root: encodeNode(idx.root)}
	data, err := sonic.ConfigStd.Marshal(&snap)
	if err != nil {
		return "", fmt.Errorf("failed to encode index snapshot: %w", err)
	}
	return string(data), nil
}

func encodeNode(n *Node) *nodeSnapshot {
	ns := &nodeSnapshot{End: n.end}
	if len(n.records) > 0 {
		ns.Records = make([]TopicRecord, len(n.records))
		for i, rec := range n.records {
			ns.Records[i] = *rec
		}
	}
	if len(n.children) > 0 {
		ns.Children = make(map[string]*nodeSnapshot, len(n.children))
		for r, child := range n.children {
			ns.Children[string(r)] = encodeNode(child)
		}
	}
	return ns
}

// Deserialize rebuilds an index from Serialize output. The returned index has
// a cold cache. Any structural problem fails the whole decode with
// ErrCorruptSnapshot; no partial tree is ever returned.
func Deserialize(text string, opts ...Option) (*Index, error) {
	var snap snapshot
	if err := sonic.ConfigStd.UnmarshalFromString(text, &snap); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptSnapshot, err)
	}
	if snap.Version != SnapshotVersion {
		return nil, fmt.Errorf("%w: unsupported version %d (want %d)", ErrCorruptSnapshot, snap.Version, SnapshotVersion)
	}
	if snap.Root == nil {
		return nil, fmt.Errorf("%w: missing root", ErrCorruptSnapshot)
	}

	idx := New(opts...)
	root, err := decodeNode(snap.Root, "", idx)
	if err != nil {
		return nil, err
	}
	idx.root = root
	return idx, nil
}

func decodeNode(ns *nodeSnapshot, path string, idx *Index) (*Node, error) {
	if ns == nil {
		return nil, fmt.Errorf("%w: null node at %q", ErrCorruptSnapshot, path)
	}
	if ns.End && len(ns.Records) == 0 {
		return nil, fmt.Errorf("%w: terminal node %q has no records", ErrCorruptSnapshot, path)
	}
	if !ns.End && len(ns.Records) > 0 {
		return nil, fmt.Errorf("%w: records on non-terminal node %q", ErrCorruptSnapshot, path)
	}

	n := newNode()
	n.end = ns.End
	if ns.End {
		idx.keys++
	}
	for i := range ns.Records {
		rec := ns.Records[i]
		if err := rec.Validate(); err != nil {
			return nil, fmt.Errorf("%w: node %q: %v", ErrCorruptSnapshot, path, err)
		}
		n.records = append(n.records, &rec)
		idx.records++
	}

	for edge, child := range ns.Children {
		r, size := utf8.DecodeRuneInString(edge)
		// U+FFFD itself is a valid edge; Insert stores it for invalid UTF-8 keys
		if (r == utf8.RuneError && size <= 1) || size != len(edge) {
			return nil, fmt.Errorf("%w: edge %q under %q is not a single rune", ErrCorruptSnapshot, edge, path)
		}
		if strings.ToLower(edge) != edge {
			return nil, fmt.Errorf("%w: edge %q under %q is not lowercase", ErrCorruptSnapshot, edge, path)
		}
		decoded, err := decodeNode(child, path+edge, idx)
		if err != nil {
			return nil, err
		}
		n.children[r] = decoded
	}
	return n, nil
}
