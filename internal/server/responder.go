// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"fmt"
	"strings"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/model"
	"github.com/Pratham-Prog861/pratham-ai-tui/internal/util"
)

// Responder produces AI replies and rewrites them.
type Responder interface {
	Reply(prompt string) string
	Rewrite(kind model.ActionKind, content string) string
}

// CannedResponder answers from a fixed set of replies. It is deterministic
// so tests and demos behave the same every run.
type CannedResponder struct{}

type cannedReply struct {
	keywords []string
	reply    string
}

var cannedReplies = []cannedReply{
	{
		keywords: []string{"joke"},
		reply:    "Why do programmers prefer dark mode? Because light attracts bugs.",
	},
	{
		keywords: []string{"poem"},
		reply: "The cursor blinks, the terminal waits,\n" +
			"a question typed at midnight's gates.\n" +
			"A quiet hum, a thoughtful pause,\n" +
			"then words arrive without a cause.",
	},
	{
		keywords: []string{"weather"},
		reply:    "I can't check live weather from here. A local forecast service or a quick look outside will tell you more than I can.",
	},
	{
		keywords: []string{"how does ai work", "artificial intelligence", "machine learning"},
		reply: "Most modern AI systems are trained on large amounts of data. During training a model adjusts millions of numeric weights so that its predictions match the examples it sees. " +
			"Once trained, it uses those weights to recognize patterns in new input and produce an answer.",
	},
	{
		keywords: []string{"hello", "hi there"},
		reply:    "Hello! How can I help you today?",
	},
}

// Reply returns the canned reply whose keyword appears in prompt, or an echo.
func (CannedResponder) Reply(prompt string) string {
	lower := strings.ToLower(prompt)
	for _, c := range cannedReplies {
		for _, kw := range c.keywords {
			if strings.Contains(lower, kw) {
				return c.reply
			}
		}
	}
	return fmt.Sprintf("You asked: %q. I'm running in development mode, so this is a placeholder answer. Try asking for a joke or a poem.",
		util.TruncateRunes(strings.TrimSpace(prompt), 80))
}

// Rewrite shortens or expands content.
func (CannedResponder) Rewrite(kind model.ActionKind, content string) string {
	switch kind {
	case model.ActionShorten:
		return shorten(content)
	case model.ActionExpand:
		return expand(content)
	default:
		return content
	}
}

// shorten keeps the first sentence, or the first half of the words when the
// text is a single sentence.
func shorten(content string) string {
	first := util.FirstSentence(content)
	if first != strings.TrimSpace(content) {
		return first
	}
	return util.HalfWords(content)
}

func expand(content string) string {
	return strings.TrimSpace(content) + "\n\n" +
		"To put it in more detail: the points above are the core idea. " +
		"In practice it helps to look at a concrete example, consider the edge cases, " +
		"and check how the answer applies to your own situation."
}
