package render

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	gmtext "github.com/yuin/goldmark/text"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.Table))

// MarkdownTitle returns the text of the first level-1 heading of src.
func MarkdownTitle(src []byte) string {
	doc := markdown.Parser().Parse(gmtext.NewReader(src))
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if h, ok := n.(*ast.Heading); ok && h.Level == 1 {
			var sb strings.Builder
			for c := h.FirstChild(); c != nil; c = c.NextSibling() {
				if t, ok := c.(*ast.Text); ok {
					sb.Write(t.Segment.Value(src))
				}
			}
			return sb.String()
		}
	}
	return ""
}

// MarkdownHTML converts a Markdown report into a standalone HTML document
// titled after its first heading.
func MarkdownHTML(src []byte) ([]byte, error) {
	var frag bytes.Buffer
	if err := markdown.Convert(src, &frag); err != nil {
		return nil, fmt.Errorf("render markdown: %w", err)
	}

	body := element(atom.Body, "")
	nodes, err := html.ParseFragment(&frag, body)
	if err != nil {
		return nil, fmt.Errorf("parse rendered markdown: %w", err)
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}

	title := MarkdownTitle(src)
	if title == "" {
		title = "Report"
	}
	return document(title, "table { border-collapse: collapse; } td, th { border: 1px solid #ccc; padding: .2em .6em; }", body)
}
