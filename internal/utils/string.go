package utils

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Capitalize upper-cases the first rune of s and leaves the rest untouched.
func Capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// CapitalPositions records which rune positions of s are upper case.
func CapitalPositions(s string) []bool {
	runes := []rune(s)
	positions := make([]bool, len(runes))
	for i, r := range runes {
		positions[i] = unicode.IsUpper(r)
	}
	return positions
}

// ApplyCapitalization upper-cases the runes of word at the given positions.
// Positions past the end of word are ignored.
func ApplyCapitalization(word string, positions []bool) string {
	if len(positions) == 0 {
		return word
	}

	runes := []rune(word)
	for i := 0; i < len(runes) && i < len(positions); i++ {
		if positions[i] {
			runes[i] = unicode.ToUpper(runes[i])
		}
	}
	return string(runes)
}

// Tokenize splits a query on whitespace, lowercases the tokens and drops
// repeats while keeping first-seen order.
func Tokenize(query string) []string {
	fields := strings.Fields(strings.ToLower(query))
	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	return tokens
}
