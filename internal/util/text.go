// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package util

import (
	"strings"
	"unicode"
)

// TruncateRunes shortens s to at most maxRunes runes, replacing the tail
// with "..." when it had to cut.
func TruncateRunes(s string, maxRunes int) string {
	if maxRunes <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	if maxRunes <= 3 {
		return string(runes[:maxRunes])
	}
	return string(runes[:maxRunes-3]) + "..."
}

// FirstSentence returns the text up to and including the first sentence
// terminator followed by whitespace or end of text. If there is none, s is
// returned trimmed.
func FirstSentence(s string) string {
	s = strings.TrimSpace(s)
	runes := []rune(s)
	for i, r := range runes {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		if i == len(runes)-1 || unicode.IsSpace(runes[i+1]) {
			return string(runes[:i+1])
		}
	}
	return s
}

// HalfWords returns the first half (rounded up) of the words of s.
func HalfWords(s string) string {
	words := strings.Fields(s)
	if len(words) <= 1 {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:(len(words)+1)/2], " ")
}
