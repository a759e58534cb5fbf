package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/bastiangx/topicserve/pkg/index"
	"github.com/bastiangx/topicserve/pkg/suggest"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func runCLI(t *testing.T, input string) string {
	t.Helper()
	idx := index.New()
	require.NoError(t, idx.Insert("Arrays", &index.TopicRecord{Topic: "Arrays", Language: "python", Color: "#3572A5"}))
	require.NoError(t, idx.Insert("Sorting", &index.TopicRecord{Topic: "Sorting", Language: "python", Color: "#3572A5", ParentTopic: "Arrays"}))
	require.NoError(t, idx.Insert("Recursion", &index.TopicRecord{Topic: "Recursion", Language: "go", Color: "#00ADD8"}))

	var out bytes.Buffer
	h := NewInputHandler(idx, suggest.FromIndex(idx), 10, index.DefaultFuzzyThreshold, false, &out)
	require.NoError(t, h.Start(strings.NewReader(input)))
	return out.String()
}

func TestFuzzyQuery(t *testing.T) {
	out := runCLI(t, "reccursion sortng\n")
	assert.Contains(t, out, "Found 2 topics for 'reccursion sortng'")
	assert.Contains(t, out, "Recursion")
	assert.Contains(t, out, "(python > Arrays)")
}

func TestCommands(t *testing.T) {
	out := runCLI(t, ":p ar\n:c S\n:t rcs\n")
	assert.Contains(t, out, "Found 1 topics for 'ar'")
	assert.Contains(t, out, "(python)")
	assert.Contains(t, out, "(1 records)")
	assert.Contains(t, out, "1. Sorting")
	assert.Contains(t, out, "ur", "unmatched runes of Recursion stay plain")
}

func TestQuitStopsLoop(t *testing.T) {
	out := runCLI(t, ":q\narrays\n")
	assert.NotContains(t, out, "Found")
}

func TestInvalidInputSkipped(t *testing.T) {
	out := runCLI(t, "12345\n\n   \narrays")
	assert.NotContains(t, out, "'12345'")
	assert.Contains(t, out, "Found 1 topics for 'arrays'", "last line without newline is still handled")
}

func TestHighlight(t *testing.T) {
	assert.Equal(t, "plain", highlight("plain", nil))
	got := highlight("abc", []int{1})
	assert.True(t, strings.HasPrefix(got, "a"))
	assert.True(t, strings.HasSuffix(got, "c"))
	assert.Contains(t, got, "b")
}
