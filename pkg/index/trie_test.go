package index

import (
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

type entry struct {
	key string
	rec *TopicRecord
}

// fixture mirrors a small contents.json: two topics with two subtopics each
func fixture() []entry {
	rec := func(topic, parent string) *TopicRecord {
		return &TopicRecord{Topic: topic, Language: "python", Color: "#fff", ParentTopic: parent}
	}
	return []entry{
		{"Arrays", rec("Arrays", "")},
		{"Sorting", rec("Sorting", "Arrays")},
		{"Searching", rec("Searching", "Arrays")},
		{"Recursion", rec("Recursion", "")},
		{"Backtracking", rec("Backtracking", "Recursion")},
		{"Memoization", rec("Memoization", "Recursion")},
	}
}

func build(t testing.TB, entries []entry) *Index {
	t.Helper()
	idx := New()
	for _, e := range entries {
		require.NoError(t, idx.Insert(e.key, e.rec))
	}
	return idx
}

func TestEndToEnd(t *testing.T) {
	idx := New()
	arrays := &TopicRecord{Topic: "Arrays", Language: "python", Color: "#fff"}
	recursion := &TopicRecord{Topic: "Recursion", Language: "python", Color: "#fff", ParentTopic: "Algorithms"}
	require.NoError(t, idx.Insert("Arrays", arrays))
	require.NoError(t, idx.Insert("Recursion", recursion))

	got := idx.SearchPrefix("Arr")
	require.Len(t, got, 1)
	assert.Same(t, arrays, got[0])

	assert.Contains(t, idx.SearchFuzzy("Reccursion", 0.8), recursion)
}

func TestSearchPrefixCorrectness(t *testing.T) {
	entries := fixture()
	idx := build(t, entries)

	for _, e := range entries {
		runes := []rune(e.key)
		for i := 0; i <= len(runes); i++ {
			for _, p := range []string{string(runes[:i]), strings.ToUpper(string(runes[:i]))} {
				got := idx.SearchPrefix(p)
				assert.Contains(t, got, e.rec, "prefix %q should find %q", p, e.key)
				for _, rec := range got {
					assert.True(t, strings.HasPrefix(strings.ToLower(rec.Topic), strings.ToLower(p)),
						"prefix %q returned unrelated %q", p, rec.Topic)
				}
			}
		}
	}
}

func TestSearchPrefixEdgeCases(t *testing.T) {
	entries := fixture()
	idx := build(t, entries)

	t.Run("Empty prefix returns everything", func(t *testing.T) {
		assert.Len(t, idx.SearchPrefix(""), len(entries))
	})

	t.Run("Miss returns empty non-nil", func(t *testing.T) {
		got := idx.SearchPrefix("zzz_no_such_key")
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("Shared prefix", func(t *testing.T) {
		got := idx.SearchPrefix("s")
		var topics []string
		for _, rec := range got {
			topics = append(topics, rec.Topic)
		}
		assert.ElementsMatch(t, []string{"Sorting", "Searching"}, topics)
	})

	t.Run("Empty index", func(t *testing.T) {
		empty := New()
		assert.Empty(t, empty.SearchPrefix(""))
		assert.Empty(t, empty.SearchFuzzy("anything", DefaultFuzzyThreshold))
		assert.Empty(t, empty.AllTopics())
	})
}

func TestCacheTransparency(t *testing.T) {
	idx := build(t, fixture())

	first := idx.SearchPrefix("re")
	second := idx.SearchPrefix("RE")
	assert.Equal(t, first, second)
	assert.Equal(t, 1, idx.Stats()["cacheHits"])

	// callers may modify what they get back
	first[0] = nil
	assert.NotNil(t, idx.SearchPrefix("re")[0])
}

func TestInsertPurgesCache(t *testing.T) {
	idx := build(t, fixture())
	require.Len(t, idx.SearchPrefix("re"), 1)
	require.Positive(t, idx.Stats()["cached"])

	regex := &TopicRecord{Topic: "Regex", Language: "python", Color: "#fff"}
	require.NoError(t, idx.Insert("Regex", regex))

	assert.Equal(t, 0, idx.Stats()["cached"])
	assert.Len(t, idx.SearchPrefix("re"), 2)
	assert.Contains(t, idx.SearchPrefix("re"), regex)

	idx.ClearCache()
	assert.Equal(t, 0, idx.Stats()["cached"])
	assert.Len(t, idx.SearchPrefix("re"), 2)
}

func TestInsertDuplicateAppends(t *testing.T) {
	idx := New()
	rec := &TopicRecord{Topic: "Arrays", Language: "go", Color: "#00add8"}
	require.NoError(t, idx.Insert("arrays", rec))
	require.NoError(t, idx.Insert("ARRAYS", rec))

	got := idx.SearchPrefix("arrays")
	assert.Len(t, got, 2)
	assert.Equal(t, 1, idx.Keys())
	assert.Equal(t, 2, idx.Len())
	assert.Len(t, idx.FindNode("Arrays").Records(), 2)
}

func TestInsertRejectsInvalidRecords(t *testing.T) {
	testCases := []struct {
		rec         *TopicRecord
		description string
	}{
		{nil, "Nil record"},
		{&TopicRecord{Topic: "Arrays", Language: "go"}, "Missing color"},
		{&TopicRecord{Language: "go", Color: "#fff"}, "Missing topic"},
	}

	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			idx := New()
			err := idx.Insert("arrays", tc.rec)
			assert.ErrorIs(t, err, ErrInvalidRecord)
			assert.Nil(t, idx.FindNode("arrays"))
			assert.Empty(t, idx.SearchPrefix("a"))
			assert.Equal(t, 0, idx.Keys())
		})
	}
}

func TestSearchFuzzy(t *testing.T) {
	entries := fixture()
	idx := build(t, entries)
	recursion := entries[3].rec

	t.Run("Typo finds topic", func(t *testing.T) {
		got := idx.SearchFuzzy("reccursion", DefaultFuzzyThreshold)
		assert.Equal(t, []*TopicRecord{recursion}, got)
	})

	t.Run("Superset of prefix", func(t *testing.T) {
		for _, term := range []string{"", "a", "s", "sort", "memo", "bactracking", "xyz"} {
			fuzzy := idx.SearchFuzzy(term, DefaultFuzzyThreshold)
			for _, rec := range idx.SearchPrefix(term) {
				assert.Contains(t, fuzzy, rec, "term %q", term)
			}
		}
	})

	t.Run("Prefix matches come first", func(t *testing.T) {
		got := idx.SearchFuzzy("sort", 0.5)
		require.NotEmpty(t, got)
		assert.Equal(t, "Sorting", got[0].Topic)
	})

	t.Run("No duplicates", func(t *testing.T) {
		got := idx.SearchFuzzy("s", 0.0)
		seen := make(map[*TopicRecord]bool)
		for _, rec := range got {
			assert.False(t, seen[rec], "duplicate %q", rec.Topic)
			seen[rec] = true
		}
		assert.Len(t, got, len(entries))
	})

	t.Run("Threshold above one is prefix only", func(t *testing.T) {
		assert.Equal(t, idx.SearchPrefix("rec"), idx.SearchFuzzy("rec", 1.01))
	})
}

func TestAllTopics(t *testing.T) {
	idx := build(t, fixture())
	require.NoError(t, idx.Insert("map", &TopicRecord{Topic: "map", Language: "go", Color: "#00add8"}))
	require.NoError(t, idx.Insert("maps", &TopicRecord{Topic: "maps", Language: "go", Color: "#00add8"}))

	assert.Equal(t, []string{
		"Arrays", "Backtracking", "Map", "Maps", "Memoization", "Recursion", "Searching", "Sorting",
	}, idx.AllTopics())
}

func TestLongKey(t *testing.T) {
	idx := New()
	key := strings.Repeat("a", 100000)
	rec := &TopicRecord{Topic: "long", Language: "go", Color: "#fff"}
	require.NoError(t, idx.Insert(key, rec))

	assert.Equal(t, []*TopicRecord{rec}, idx.SearchPrefix("a"))
	assert.Len(t, idx.AllTopics(), 1)
}

func TestConcurrentAccess(t *testing.T) {
	idx := build(t, fixture())

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				if w == 0 && i%20 == 0 {
					_ = idx.Insert("extra", &TopicRecord{Topic: "extra", Language: "go", Color: "#fff"})
				}
				idx.SearchPrefix("re")
				idx.SearchFuzzy("sortng", DefaultFuzzyThreshold)
				idx.AllTopics()
			}
		}(w)
	}
	wg.Wait()

	assert.Len(t, idx.SearchPrefix("extra"), 10)
}

func BenchmarkSearchPrefix(b *testing.B) {
	idx := build(b, fixture())
	prefixes := []string{"a", "re", "sort", "memo", "zzz"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.SearchPrefix(prefixes[i%len(prefixes)])
	}
}

func BenchmarkSearchFuzzy(b *testing.B) {
	idx := build(b, fixture())
	terms := []string{"reccursion", "arays", "sortng", "memoisation"}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		idx.SearchFuzzy(terms[i%len(terms)], DefaultFuzzyThreshold)
	}
}
