package treebank

import (
	"slices"
	"strings"
)

// RootLabel is the label given to the virtual root when a reader has to add one.
const RootLabel = "ROOT"

// Node is a constituent or a terminal of a constituency tree.
type Node struct {
	Label    string  // Constituent label, or POS tag for terminals
	Children []*Node // Empty for terminals
	Index    int     // 0-based word position for terminals, -1 otherwise
	Parent   *Node
	Head     bool   // Node is the head child of its parent
	Func     string // Edge label (export format), "--" or empty if none
}

// Tree is one sentence: a virtual root over the constituents plus the tokens.
type Tree struct {
	Key   string
	Root  *Node
	Words []string
}

// NewLeaf returns a terminal labeled pos at word position index.
func NewLeaf(pos string, index int) *Node {
	return &Node{Label: pos, Index: index}
}

// NewNode returns an internal node and sets the parent link of each child.
func NewNode(label string, children ...*Node) *Node {
	n := &Node{Label: label, Index: -1}
	for _, c := range children {
		n.Add(c)
	}
	return n
}

// Add appends c to n's children.
func (n *Node) Add(c *Node) {
	c.Parent = n
	n.Children = append(n.Children, c)
}

// IsTerminal reports whether n holds a word position.
func (n *Node) IsTerminal() bool {
	return len(n.Children) == 0 && n.Index >= 0
}

// LeftSibling returns the child of n.Parent immediately before n, or nil.
func (n *Node) LeftSibling() *Node {
	i := n.position()
	if i <= 0 {
		return nil
	}
	return n.Parent.Children[i-1]
}

// RightSibling returns the child of n.Parent immediately after n, or nil.
func (n *Node) RightSibling() *Node {
	i := n.position()
	if i < 0 || i+1 >= len(n.Parent.Children) {
		return nil
	}
	return n.Parent.Children[i+1]
}

func (n *Node) position() int {
	if n.Parent == nil {
		return -1
	}
	return slices.Index(n.Parent.Children, n)
}

// MinIndex returns the smallest word position dominated by n, or -1.
func (n *Node) MinIndex() int {
	min := -1
	n.Walk(func(d *Node) {
		if d.IsTerminal() && (min < 0 || d.Index < min) {
			min = d.Index
		}
	})
	return min
}

// Walk visits n and its descendants in preorder using an explicit stack.
func (n *Node) Walk(fn func(*Node)) {
	stack := []*Node{n}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		fn(cur)
		for i := len(cur.Children) - 1; i >= 0; i-- {
			stack = append(stack, cur.Children[i])
		}
	}
}

// Leaves returns the terminals of t in ascending word position.
func (t *Tree) Leaves() []*Node {
	var leaves []*Node
	t.Root.Walk(func(n *Node) {
		if n.IsTerminal() {
			leaves = append(leaves, n)
		}
	})
	slices.SortFunc(leaves, func(a, b *Node) int { return a.Index - b.Index })
	return leaves
}

// Sort orders every child list by leftmost word position.
func (t *Tree) Sort() {
	t.Root.Walk(func(n *Node) {
		if len(n.Children) < 2 {
			return
		}
		slices.SortStableFunc(n.Children, func(a, b *Node) int {
			return a.MinIndex() - b.MinIndex()
		})
	})
}

// Discontinuous reports whether some constituent dominates a non-contiguous
// span of word positions.
func (t *Tree) Discontinuous() bool {
	disc := false
	t.Root.Walk(func(n *Node) {
		if disc || n.IsTerminal() {
			return
		}
		var idx []int
		n.Walk(func(d *Node) {
			if d.IsTerminal() {
				idx = append(idx, d.Index)
			}
		})
		slices.Sort(idx)
		for i := 1; i < len(idx); i++ {
			if idx[i] != idx[i-1]+1 {
				disc = true
				return
			}
		}
	})
	return disc
}

// IsRootLabel reports whether label names a virtual root.
func IsRootLabel(label string) bool {
	switch label {
	case "", "ROOT", "VROOT", "TOP":
		return true
	}
	return false
}

// BaseLabel strips function tags and coindexation from a label:
// "NP-SBJ-1" and "NP=2" become "NP". Labels starting with '-' such as
// "-NONE-" and "-LRB-" are returned unchanged.
func BaseLabel(label string) string {
	if strings.HasPrefix(label, "-") {
		return label
	}
	if i := strings.IndexAny(label, "-="); i > 0 {
		return label[:i]
	}
	return label
}

// wrapRoot makes top the child of a new virtual root unless it already is one.
func wrapRoot(top *Node) *Node {
	if IsRootLabel(top.Label) && !top.IsTerminal() {
		if top.Label == "" {
			top.Label = RootLabel
		}
		return top
	}
	return NewNode(RootLabel, top)
}
