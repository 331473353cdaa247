// Package filter provides pre-transformation cleanup of captured command
// output: terminal escape stripping and HTML text extraction. Filters run
// on stdout before it reaches a transformer, so prompts aren't polluted by
// formatting artifacts.
package filter

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Filter rewrites a captured output string. Implementations are pure and
// total: any input produces output.
type Filter interface {
	Name() string
	Apply(text string) string
}

// PassThrough returns its input unchanged.
type PassThrough struct{}

func (PassThrough) Name() string            { return "passthrough" }
func (PassThrough) Apply(text string) string { return text }

// ansiPattern matches CSI sequences (colors, cursor movement) and the
// simpler two-byte ESC sequences.
var ansiPattern = regexp.MustCompile(`\x1b(?:\[[0-9;?]*[a-zA-Z]|[@-Z\\-_])`)

// StripANSI removes terminal escape sequences.
type StripANSI struct{}

func (StripANSI) Name() string { return "strip-ansi" }

func (StripANSI) Apply(text string) string {
	return ansiPattern.ReplaceAllString(text, "")
}

// HTMLText extracts readable text from HTML output (curl of a web page,
// for instance). Non-HTML input comes back effectively unchanged apart
// from whitespace normalization, since the tokenizer treats plain text as
// text nodes.
type HTMLText struct{}

func (HTMLText) Name() string { return "html-text" }

func (HTMLText) Apply(text string) string {
	doc, err := html.Parse(strings.NewReader(text))
	if err != nil {
		return text
	}

	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch {
		case n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style"):
			return
		case n.Type == html.TextNode:
			trimmed := strings.TrimSpace(n.Data)
			if trimmed != "" {
				if sb.Len() > 0 {
					sb.WriteByte('\n')
				}
				sb.WriteString(trimmed)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return sb.String()
}

// Chain applies filters in order.
type Chain []Filter

func (c Chain) Name() string {
	names := make([]string, len(c))
	for i, f := range c {
		names[i] = f.Name()
	}
	return strings.Join(names, "+")
}

func (c Chain) Apply(text string) string {
	for _, f := range c {
		text = f.Apply(text)
	}
	return text
}
