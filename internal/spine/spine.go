// Package spine converts between constituency trees and per-word spines.
//
// A spine records, for one word, the chain of constituents the word heads
// (its template) and the single link attaching the top of that chain into
// the chain of another word. Extract decomposes a head-annotated tree into
// spines; Reconstruct reassembles spines into a tree, re-nesting recursive
// adjunctions that extraction merged into a single template level.
package spine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dgallion1/spinebank/internal/treebank"
)

// AttachmentType distinguishes ordinary sister attachment from recursive
// adjunction to a same-label level.
type AttachmentType byte

const (
	Sister    AttachmentType = 's'
	Recursive AttachmentType = 'r'
)

func (t AttachmentType) String() string { return string(t) }

// ParseAttachmentType accepts "s" and "r".
func ParseAttachmentType(s string) (AttachmentType, bool) {
	switch s {
	case "s":
		return Sister, true
	case "r":
		return Recursive, true
	}
	return 0, false
}

// TemplateSeparator joins the labels of a template.
const TemplateSeparator = "+"

// Spine is the record of one word.
type Spine struct {
	ID          int    // 1-based word position
	Word        string
	POS         string
	Template    string // POS label followed by the merged chain labels, joined by '+'
	Head        int    // ID of the word this spine attaches to, 0 for the root
	AttPosition int    // Level in the head's chain, first constituent above the POS is 0
	AttType     AttachmentType
}

// Labels returns the template split on '+'.
func (s Spine) Labels() []string {
	return strings.Split(s.Template, TemplateSeparator)
}

// String formats s as one tab-separated line.
func (s Spine) String() string {
	return fmt.Sprintf("%d\t%s\t%s\t%s\t%d\t%d\t%s", s.ID, s.Word, s.POS, s.Template, s.Head, s.AttPosition, s.AttType)
}

// Sentence holds the spines of one sentence.
type Sentence []Spine

// Sorted returns a copy of s ordered by ascending ID.
func (s Sentence) Sorted() Sentence {
	out := slices.Clone(s)
	slices.SortFunc(out, func(a, b Spine) int { return a.ID - b.ID })
	return out
}

// Words returns the tokens of s in ID order.
func (s Sentence) Words() []string {
	sorted := s.Sorted()
	words := make([]string, len(sorted))
	for i, sp := range sorted {
		words[i] = sp.Word
	}
	return words
}

// HeadOracle decides whether a node is the head child of its parent.
type HeadOracle interface {
	IsHead(n *treebank.Node) bool
}

// MarkedHeads reads the head facts already stored in Node.Head, e.g. by
// headrules.Apply or from HD edges of an export treebank.
type MarkedHeads struct{}

func (MarkedHeads) IsHead(n *treebank.Node) bool { return n.Head }

// HeadFunc adapts a function to HeadOracle.
type HeadFunc func(n *treebank.Node) bool

func (f HeadFunc) IsHead(n *treebank.Node) bool { return f(n) }
