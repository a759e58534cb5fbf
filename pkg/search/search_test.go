package search

import (
	"testing"

	"github.com/bastiangx/topicserve/pkg/index"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func fixture(t testing.TB) *index.Index {
	t.Helper()
	idx := index.New()
	add := func(topic, parent, lang string) {
		require.NoError(t, idx.Insert(topic, &index.TopicRecord{Topic: topic, Language: lang, Color: "#fff", ParentTopic: parent}))
	}
	add("Arrays", "", "python")
	add("Sorting", "Arrays", "python")
	add("Searching", "Arrays", "python")
	add("Recursion", "", "python")
	add("Backtracking", "Recursion", "python")
	add("Arrays", "", "go")
	add("Sorting", "Arrays", "go")
	return idx
}

func TestTerms(t *testing.T) {
	idx := fixture(t)

	got := Terms(idx, "arays sortng", index.DefaultFuzzyThreshold)
	assert.Equal(t, []index.TopicRecord{
		{Topic: "Arrays", Language: "go", Color: "#fff"},
		{Topic: "Arrays", Language: "python", Color: "#fff"},
		{Topic: "Sorting", Language: "go", Color: "#fff", ParentTopic: "Arrays"},
		{Topic: "Sorting", Language: "python", Color: "#fff", ParentTopic: "Arrays"},
	}, got)
}

func TestTermsOrderIndependent(t *testing.T) {
	idx := fixture(t)
	a := Terms(idx, "recursion  arrays", index.DefaultFuzzyThreshold)
	b := Terms(idx, "ARRAYS recursion arrays", index.DefaultFuzzyThreshold)
	require.NotEmpty(t, a)
	assert.Equal(t, a, b)
}

func TestTermsEmpty(t *testing.T) {
	idx := fixture(t)
	for _, q := range []string{"", "   ", "\t\n"} {
		got := Terms(idx, q, index.DefaultFuzzyThreshold)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
	got := Terms(idx, "zzzzzz", index.DefaultFuzzyThreshold)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestPrefix(t *testing.T) {
	idx := fixture(t)

	got := Prefix(idx, "S")
	assert.Equal(t, []index.TopicRecord{
		{Topic: "Searching", Language: "python", Color: "#fff", ParentTopic: "Arrays"},
		{Topic: "Sorting", Language: "go", Color: "#fff", ParentTopic: "Arrays"},
		{Topic: "Sorting", Language: "python", Color: "#fff", ParentTopic: "Arrays"},
	}, got)

	assert.Empty(t, Prefix(idx, ""))
	assert.Empty(t, Prefix(idx, "x"))
}
