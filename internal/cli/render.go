// Copyright (c) 2025 Pratham
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"

	"github.com/Pratham-Prog861/pratham-ai-tui/internal/logging"
)

// DefaultHighlightStyle is the chroma style for code fences.
const DefaultHighlightStyle = "monokai"

// =============================================================================
// RENDERER
// =============================================================================

// Renderer formats AI replies for line-mode output. With markdown enabled
// replies go through glamour; otherwise the text is printed as is with
// fenced code blocks highlighted.
type Renderer struct {
	markdown  *glamour.TermRenderer
	formatter string
	style     string
}

// RenderOptions configures a Renderer.
type RenderOptions struct {
	Markdown bool
	// Width is the wrap width for markdown. Zero means GetTerminalWidth.
	Width int
	// Formatter is the chroma formatter; "" picks one from the color profile.
	Formatter string
	// Style is the chroma style; "" means DefaultHighlightStyle.
	Style string
}

// NewRenderer creates a renderer. A markdown renderer that fails to build
// falls back to plain output.
func NewRenderer(opts RenderOptions) *Renderer {
	r := &Renderer{formatter: opts.Formatter, style: opts.Style}
	if r.formatter == "" {
		r.formatter = HighlightFormatter()
	}
	if r.style == "" {
		r.style = DefaultHighlightStyle
	}

	if opts.Markdown {
		width := opts.Width
		if width <= 0 {
			width = GetTerminalWidth()
		}
		md, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			logging.Warnf("markdown renderer unavailable: %v", err)
		} else {
			r.markdown = md
		}
	}
	return r
}

// Render formats content.
func (r *Renderer) Render(content string) string {
	if r == nil {
		return content
	}
	if r.markdown != nil {
		out, err := r.markdown.Render(content)
		if err == nil {
			return strings.TrimRight(out, "\n")
		}
		logging.Debugf("markdown render failed, printing plain: %v", err)
	}
	return HighlightCodeFences(content, r.formatter, r.style)
}

// =============================================================================
// CODE FENCES
// =============================================================================

// HighlightCodeFences highlights the body of every ``` fenced block in text.
// The fence lines themselves and everything outside fences are unchanged. An
// unterminated fence runs to the end of the text.
func HighlightCodeFences(text, formatter, style string) string {
	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))

	inFence := false
	lang := ""
	var body []string

	flush := func() {
		if len(body) > 0 {
			out = append(out, highlight(strings.Join(body, "\n"), lang, formatter, style))
		}
		body = body[:0]
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "```") {
			if inFence {
				body = append(body, line)
			} else {
				out = append(out, line)
			}
			continue
		}

		if inFence {
			flush()
			inFence = false
		} else {
			inFence = true
			lang = strings.TrimSpace(strings.TrimPrefix(trimmed, "```"))
		}
		out = append(out, line)
	}
	if inFence {
		flush()
	}

	return strings.Join(out, "\n")
}

// highlight returns code highlighted for lang. Unknown languages are
// guessed from the content; any failure returns code unchanged.
func highlight(code, lang, formatter, style string) string {
	var b strings.Builder
	if err := quick.Highlight(&b, code+"\n", lang, formatter, style); err != nil {
		logging.Debugf("highlight %q failed: %v", lang, err)
		return code
	}
	out := b.String()
	// Terminal formatters may reset colors after the final newline.
	if strings.HasSuffix(out, "\n\x1b[0m") {
		out = strings.TrimSuffix(out, "\n\x1b[0m") + "\x1b[0m"
	}
	return strings.TrimSuffix(out, "\n")
}
