package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Arrays", Capitalize("arrays"))
	assert.Equal(t, "Éclair", Capitalize("éclair"))
	assert.Equal(t, "C++", Capitalize("c++"))
	assert.Equal(t, "", Capitalize(""))
}

func TestApplyCapitalization(t *testing.T) {
	positions := CapitalPositions("ReC")
	assert.Equal(t, []bool{true, false, true}, positions)
	assert.Equal(t, "ReCursion", ApplyCapitalization("recursion", positions))
	assert.Equal(t, "Re", ApplyCapitalization("re", positions))
	assert.Equal(t, "abc", ApplyCapitalization("abc", nil))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"binary", "search"}, Tokenize("  Binary\tSEARCH binary "))
	assert.Empty(t, Tokenize("   "))
}

func TestIsValidInput(t *testing.T) {
	testCases := []struct {
		input       string
		expected    bool
		description string
	}{
		{"arrays", true, "Plain word"},
		{"binary search", true, "Two words"},
		{"c++", true, "Plus separators"},
		{"c#", true, "Hash separator"},
		{"", false, "Empty"},
		{"1234", false, "Only numbers"},
		{"arr@ys", false, "Special char"},
		{"aaaa", false, "Repetitive"},
		{"aa", true, "Short repetition is fine"},
	}
	for _, tc := range testCases {
		t.Run(tc.description, func(t *testing.T) {
			assert.Equal(t, tc.expected, IsValidInput(tc.input))
		})
	}
}

func TestSeenFilter(t *testing.T) {
	f := NewSeenFilter("skip")
	assert.False(t, f.ShouldInclude("skip"))
	assert.True(t, f.ShouldInclude("a"))
	assert.False(t, f.ShouldInclude("a"))
	assert.Equal(t, 2, f.Len())
}

func TestCreateRankList(t *testing.T) {
	assert.Equal(t, []uint16{1, 2, 3}, CreateRankList(3))
	assert.Empty(t, CreateRankList(0))
}

func TestExtractHelpers(t *testing.T) {
	data := map[string]any{"i": int64(3), "f": 0.75, "b": true, "s": "badger", "e": ""}

	i, ok := ExtractInt64(data, "i")
	assert.True(t, ok)
	assert.Equal(t, 3, i)

	f, ok := ExtractFloat(data, "f")
	assert.True(t, ok)
	assert.Equal(t, 0.75, f)

	f, ok = ExtractFloat(data, "i")
	assert.True(t, ok)
	assert.Equal(t, 3.0, f)

	_, ok = ExtractString(data, "e")
	assert.False(t, ok)

	s, ok := ExtractString(data, "s")
	assert.True(t, ok)
	assert.Equal(t, "badger", s)

	b, ok := ExtractBool(data, "b")
	assert.True(t, ok)
	assert.True(t, b)
}

func TestWriteFileAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "snapshot.json")
	require.NoError(t, WriteFileAtomic(path, []byte(`{"version":1}`)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `{"version":1}`, string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
