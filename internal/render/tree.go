// Package render turns trees and reports into HTML.
package render

import (
	"bytes"
	"slices"
	"strconv"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/spinebank/internal/treebank"
)

const treeStyle = `
ul.tree, ul.tree ul { list-style: none; margin: 0 0 0 1.2em; padding: 0; }
ul.tree li { border-left: 1px solid #bbb; padding-left: .6em; }
.label { font-weight: bold; }
.head > .label { color: #b03a2e; }
.word { font-style: italic; margin-left: .4em; }
.pos sub { color: #888; }
`

func element(a atom.Atom, class string, children ...*html.Node) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	if class != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: "class", Val: class})
	}
	for _, c := range children {
		n.AppendChild(c)
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// TreeNode builds a nested list for t. Head children are marked with the
// "head" class; leaves show their tag, word and position.
func TreeNode(t *treebank.Tree) *html.Node {
	list := element(atom.Ul, "tree")
	if t.Root != nil {
		list.AppendChild(treeItem(t.Root, t.Words))
	}
	return list
}

func treeItem(n *treebank.Node, words []string) *html.Node {
	class := ""
	if n.Head {
		class = "head"
	}
	if n.IsTerminal() {
		li := element(atom.Li, joinClass(class, "pos"),
			element(atom.Span, "label", text(n.Label)),
		)
		if n.Index < len(words) {
			li.AppendChild(element(atom.Span, "word", text(words[n.Index])))
		}
		li.AppendChild(element(atom.Sub, "", text(strconv.Itoa(n.Index))))
		return li
	}

	li := element(atom.Li, class, element(atom.Span, "label", text(n.Label)))
	children := slices.Clone(n.Children)
	slices.SortStableFunc(children, func(a, b *treebank.Node) int { return a.MinIndex() - b.MinIndex() })
	if len(children) > 0 {
		ul := element(atom.Ul, "")
		for _, c := range children {
			ul.AppendChild(treeItem(c, words))
		}
		li.AppendChild(ul)
	}
	return li
}

func joinClass(a, b string) string {
	if a == "" {
		return b
	}
	return a + " " + b
}

// TreeHTML renders the nested list of t.
func TreeHTML(t *treebank.Tree) ([]byte, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, TreeNode(t)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Page renders a standalone HTML document with one section per tree.
func Page(title string, trees []*treebank.Tree) ([]byte, error) {
	body := element(atom.Body, "", element(atom.H1, "", text(title)))
	for _, t := range trees {
		section := element(atom.Section, "tree",
			element(atom.H2, "", text(sentenceTitle(t))),
			TreeNode(t),
		)
		body.AppendChild(section)
	}
	return document(title, treeStyle, body)
}

func sentenceTitle(t *treebank.Tree) string {
	var buf bytes.Buffer
	if t.Key != "" {
		buf.WriteString("#" + t.Key + " ")
	}
	for i, w := range t.Words {
		if i > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(w)
	}
	return buf.String()
}

func document(title, style string, body *html.Node) ([]byte, error) {
	head := element(atom.Head, "",
		element(atom.Title, "", text(title)),
	)
	meta := element(atom.Meta, "")
	meta.Attr = []html.Attribute{{Key: "charset", Val: "utf-8"}}
	head.InsertBefore(meta, head.FirstChild)
	if style != "" {
		head.AppendChild(element(atom.Style, "", text(style)))
	}

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(element(atom.Html, "", head, body))

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
