// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"strings"

	"golang.org/x/text/cases"
)

// creatorPhrases are matched as case-insensitive substrings of the trimmed
// input. Questions matching any of them are answered locally.
var creatorPhrases = []string{
	"who made you",
	"who created you",
	"who built you",
	"who developed you",
	"who designed you",
	"who programmed you",
	"who trained you",
	"who invented you",
	"who wrote you",
	"who owns you",
	"who is your creator",
	"who's your creator",
	"whos your creator",
	"who is your developer",
	"who is your maker",
	"who is your owner",
	"who are your creators",
	"your creator",
}

// CreatorAnswer is the canned reply to creator questions.
const CreatorAnswer = "I was created by **Pratham**, a developer who built me as a personal AI " +
	"assistant. I'm here to help you with questions, ideas and everyday tasks. " +
	"What would you like to talk about?"

var foldedPhrases = foldAll(creatorPhrases)

func foldAll(in []string) []string {
	out := make([]string, len(in))
	for i, p := range in {
		out[i] = fold(p)
	}
	return out
}

// fold case-folds s and normalizes apostrophes and runs of whitespace.
// A Caser keeps state, so each call gets its own.
func fold(s string) string {
	s = strings.NewReplacer("’", "'", "‘", "'").Replace(s)
	return strings.Join(strings.Fields(cases.Fold().String(s)), " ")
}

// IsCreatorQuestion reports whether text asks who made the assistant.
func IsCreatorQuestion(text string) bool {
	folded := fold(text)
	if folded == "" {
		return false
	}
	for _, p := range foldedPhrases {
		if strings.Contains(folded, p) {
			return true
		}
	}
	return false
}
