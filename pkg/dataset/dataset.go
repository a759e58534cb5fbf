/*
Package dataset loads the hierarchical topic resource and turns it into index entries.

The resource is a JSON object keyed by language. Each language carries a
display color and its topics; each topic maps subtopic names to content:

	{
	  "python": {
	    "color": "#3572A5",
	    "Arrays": {"Sorting": "...", "Searching": "..."},
	    "Recursion": {"Backtracking": "..."}
	  }
	}

Every topic and every subtopic becomes one index entry. Subtopic records carry
the name of their topic in ParentTopic. Content is never interpreted.
*/
package dataset

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/bastiangx/topicserve/pkg/index"
	"github.com/bytedance/sonic"
	"github.com/charmbracelet/log"
)

// colorKey is the reserved language key holding the display color.
const colorKey = "color"

// ErrInvalidDataset is returned when the resource does not have the expected shape.
var ErrInvalidDataset = errors.New("invalid dataset")

// Dataset is the parsed resource with names sorted for deterministic builds.
type Dataset struct {
	Languages []Language
}

// Language groups the topics of one language.
type Language struct {
	Name   string
	Color  string
	Topics []Topic
}

// Topic is a top-level topic and the names of its subtopics.
type Topic struct {
	Name      string
	Subtopics []string
}

// Entry is one key/record pair to insert into the index.
type Entry struct {
	Key    string
	Record *index.TopicRecord
}

// Load reads and parses the resource at path.
func Load(path string) (*Dataset, error) {
	if err := ValidateFile(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset %s: %w", path, err)
	}
	ds, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	log.Debugf("Loaded dataset %s: %d languages", path, len(ds.Languages))
	return ds, nil
}

// Parse decodes the resource. A language without a color is kept; its
// entries are rejected later by Validate.
func Parse(data []byte) (*Dataset, error) {
	var raw map[string]map[string]any
	if err := sonic.ConfigStd.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDataset, err)
	}

	ds := &Dataset{}
	for _, langName := range sortedKeys(raw) {
		langData := raw[langName]
		if langData == nil {
			return nil, fmt.Errorf("%w: language %q is not an object", ErrInvalidDataset, langName)
		}

		lang := Language{Name: langName}
		if c, ok := langData[colorKey]; ok {
			color, isString := c.(string)
			if !isString {
				return nil, fmt.Errorf("%w: color of %q is not a string", ErrInvalidDataset, langName)
			}
			lang.Color = color
		} else {
			log.Warnf("Language '%s' has no color, its topics will be rejected", langName)
		}

		for _, topicName := range sortedKeys(langData) {
			if topicName == colorKey {
				continue
			}
			subtopics, ok := langData[topicName].(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: topic %q of %q is not an object", ErrInvalidDataset, topicName, langName)
			}
			lang.Topics = append(lang.Topics, Topic{Name: topicName, Subtopics: sortedKeys(subtopics)})
		}
		ds.Languages = append(ds.Languages, lang)
	}
	return ds, nil
}

// Entries walks language -> topic -> subtopic and returns one entry per
// topic and per subtopic.
func (ds *Dataset) Entries() []Entry {
	var entries []Entry
	for _, lang := range ds.Languages {
		for _, topic := range lang.Topics {
			entries = append(entries, Entry{
				Key:    topic.Name,
				Record: &index.TopicRecord{Topic: topic.Name, Language: lang.Name, Color: lang.Color},
			})
			for _, sub := range topic.Subtopics {
				entries = append(entries, Entry{
					Key: sub,
					Record: &index.TopicRecord{
						Topic:       sub,
						Language:    lang.Name,
						Color:       lang.Color,
						ParentTopic: topic.Name,
					},
				})
			}
		}
	}
	return entries
}

// TopicNames returns every topic and subtopic name in walk order, repeats included.
func (ds *Dataset) TopicNames() []string {
	entries := ds.Entries()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Key
	}
	return names
}

// Validate is the ingestion boundary check applied before insertion.
func Validate(rec *index.TopicRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	if rec.Language == "" {
		return fmt.Errorf("%w: topic %q has no language", index.ErrInvalidRecord, rec.Topic)
	}
	return nil
}

// BuildStats counts what happened during Build.
type BuildStats struct {
	Inserted int
	Rejected int
}

// Build inserts every entry of ds into a new index. Invalid entries are
// logged and counted, never fatal.
func Build(ds *Dataset, opts ...index.Option) (*index.Index, BuildStats) {
	idx := index.New(opts...)
	var stats BuildStats

	for _, e := range ds.Entries() {
		if err := Validate(e.Record); err != nil {
			log.Warnf("Skipping '%s': %v", e.Key, err)
			stats.Rejected++
			continue
		}
		if err := idx.Insert(e.Key, e.Record); err != nil {
			stats.Rejected++
			continue
		}
		stats.Inserted++
	}

	log.Debugf("Built index: %d inserted, %d rejected", stats.Inserted, stats.Rejected)
	return idx, stats
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
