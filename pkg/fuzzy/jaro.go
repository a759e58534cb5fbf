// Package fuzzy scores approximate string matches for the topic search.
//
// Similarity implements Jaro-Winkler over runes and is what the index uses to
// decide fuzzy hits. Filter ranks a list of names against a subsequence pattern
// and backs the topic list filter of the server and CLI.
package fuzzy

const (
	// winklerScale is the weight given to each shared leading rune.
	winklerScale = 0.1
	// winklerPrefixCap limits how many leading runes earn the bonus.
	winklerPrefixCap = 4
)

// Similarity returns the Jaro-Winkler score of a and b in [0,1].
// Inputs are compared as given; callers lowercase them first.
func Similarity(a, b string) float64 {
	s1, s2 := []rune(a), []rune(b)
	jaro := jaroRunes(s1, s2)
	if jaro == 0 || jaro == 1 {
		return jaro
	}

	l := commonPrefix(s1, s2, winklerPrefixCap)
	return jaro + float64(l)*winklerScale*(1-jaro)
}

// Jaro returns the plain Jaro distance without the prefix bonus.
func Jaro(a, b string) float64 {
	return jaroRunes([]rune(a), []rune(b))
}

func jaroRunes(s1, s2 []rune) float64 {
	m, n := len(s1), len(s2)
	if m == 0 {
		if n == 0 {
			return 1.0
		}
		return 0.0
	}

	window := max(m, n)/2 - 1
	if window < 0 {
		window = 0
	}

	s1Matches := make([]bool, m)
	s2Matches := make([]bool, n)
	matches := 0

	for i := 0; i < m; i++ {
		lo := max(0, i-window)
		hi := min(n, i+window+1)
		for j := lo; j < hi; j++ {
			if s2Matches[j] || s1[i] != s2[j] {
				continue
			}
			s1Matches[i] = true
			s2Matches[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0.0
	}

	// matched runes of both strings walked in order; mismatched pairs are
	// half transpositions
	t := 0
	k := 0
	for i := 0; i < m; i++ {
		if !s1Matches[i] {
			continue
		}
		for !s2Matches[k] {
			k++
		}
		if s1[i] != s2[k] {
			t++
		}
		k++
	}

	mf := float64(matches)
	transpositions := float64(t) / 2
	return (mf/float64(m) + mf/float64(n) + (mf-transpositions)/mf) / 3
}

func commonPrefix(s1, s2 []rune, limit int) int {
	l := min(len(s1), len(s2), limit)
	for i := 0; i < l; i++ {
		if s1[i] != s2[i] {
			return i
		}
	}
	return l
}
