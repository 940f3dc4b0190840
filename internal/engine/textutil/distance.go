package textutil

import (
	"unicode"

	"github.com/rivo/uniseg"
)

// CharacterDistance returns the UTF-16 length of the first grapheme cluster
// of s, or of the last one when reverse is set.
func CharacterDistance(s string, reverse bool) int {
	if s == "" {
		return 0
	}
	if !reverse {
		cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(s, -1)
		return Len(cluster)
	}
	var last string
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		last = g.Str()
	}
	return Len(last)
}

// WordDistance returns the UTF-16 distance from the start of s (or its end
// when reverse is set) to the far edge of the next word. Leading whitespace
// and punctuation are consumed together with the word.
func WordDistance(s string, reverse bool) int {
	segments := wordSegments(s)
	if reverse {
		for i, j := 0, len(segments)-1; i < j; i, j = i+1, j-1 {
			segments[i], segments[j] = segments[j], segments[i]
		}
	}

	dist := 0
	for _, seg := range segments {
		dist += Len(seg)
		if isWord(seg) {
			break
		}
	}
	return dist
}

// wordSegments splits s on Unicode word boundaries.
func wordSegments(s string) []string {
	var out []string
	state := -1
	for len(s) > 0 {
		var word string
		word, s, state = uniseg.FirstWordInString(s, state)
		out = append(out, word)
	}
	return out
}

// isWord reports whether a word segment contains a letter or digit.
func isWord(seg string) bool {
	for _, r := range seg {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
