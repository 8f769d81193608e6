// Package headrules reads head-percolation tables and decides, for every
// constituent, which child is its lexical head.
//
// A rule file has one rule per line:
//
//	LABEL DIRECTION CAT1 CAT2 ...
//
// Lines starting with '%' or '#' are comments. Several lines may share a
// label; they are tried in file order. Directions:
//
//	LEFT-TO-RIGHT  for each category in priority order, scan children left to right
//	RIGHT-TO-LEFT  for each category in priority order, scan children right to left
//	LEFT, LEFTDIS  scan children left to right, take the first in the category set
//	RIGHT, RIGHTDIS  scan children right to left, take the first in the category set
//
// When no rule matches, the first child is the head, or the last child if
// the first rule for the label scans from the right.
package headrules

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/dgallion1/spinebank/internal/treebank"
)

// Direction is the scan order of a rule.
type Direction int

const (
	LeftToRight Direction = iota
	RightToLeft
	Left
	Right
)

var directions = map[string]Direction{
	"LEFT-TO-RIGHT": LeftToRight,
	"RIGHT-TO-LEFT": RightToLeft,
	"LEFT":          Left,
	"LEFTDIS":       Left,
	"RIGHT":         Right,
	"RIGHTDIS":      Right,
}

func (d Direction) fromRight() bool { return d == RightToLeft || d == Right }

// Rule is one line of a head table.
type Rule struct {
	Direction Direction
	Heads     []string
}

// Table maps base constituent labels to their rules. It is read-only after
// Parse and safe for concurrent use.
type Table struct {
	rules map[string][]Rule
}

// Load reads a rule file from path.
func Load(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	t, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse reads rules from r. Labels are case-insensitive.
func Parse(r io.Reader) (*Table, error) {
	t := &Table{rules: make(map[string][]Rule)}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '%' || line[0] == '#' {
			continue
		}
		f := strings.Fields(strings.ToUpper(line))
		if len(f) < 2 {
			return nil, fmt.Errorf("line %d: expected LABEL DIRECTION [CATEGORIES...], got %q", lineNo, line)
		}
		dir, ok := directions[f[1]]
		if !ok {
			return nil, fmt.Errorf("line %d: unknown direction %q", lineNo, f[1])
		}
		t.rules[f[0]] = append(t.rules[f[0]], Rule{Direction: dir, Heads: f[2:]})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return t, nil
}

// Len returns the number of labels with at least one rule.
func (t *Table) Len() int { return len(t.rules) }

// Rules returns the rules for label.
func (t *Table) Rules(label string) []Rule {
	return t.rules[strings.ToUpper(treebank.BaseLabel(label))]
}

// FindHead returns the head child of n, or nil for terminals.
func (t *Table) FindHead(n *treebank.Node) *treebank.Node {
	children := n.Children
	switch len(children) {
	case 0:
		return nil
	case 1:
		return children[0]
	}

	labels := make([]string, len(children))
	for i, c := range children {
		labels[i] = strings.ToUpper(treebank.BaseLabel(c.Label))
	}

	rules := t.Rules(n.Label)
	for _, rule := range rules {
		if i := rule.match(labels); i >= 0 {
			return children[i]
		}
	}
	if len(rules) > 0 && rules[0].Direction.fromRight() {
		return children[len(children)-1]
	}
	return children[0]
}

func (r Rule) match(labels []string) int {
	order := make([]int, len(labels))
	for i := range order {
		order[i] = i
	}
	if r.Direction.fromRight() {
		slices.Reverse(order)
	}

	switch r.Direction {
	case LeftToRight, RightToLeft:
		for _, head := range r.Heads {
			for _, i := range order {
				if labels[i] == head {
					return i
				}
			}
		}
	default:
		for _, i := range order {
			if slices.Contains(r.Heads, labels[i]) {
				return i
			}
		}
	}
	return -1
}

// IsHead reports whether n is the head child of its parent. The virtual
// root has no parent and is never a head.
func (t *Table) IsHead(n *treebank.Node) bool {
	if n.Parent == nil {
		return false
	}
	return t.FindHead(n.Parent) == n
}

// Apply sets Node.Head on every node of tree according to t.
func Apply(tree *treebank.Tree, t *Table) {
	tree.Root.Walk(func(n *treebank.Node) {
		n.Head = false
	})
	tree.Root.Walk(func(n *treebank.Node) {
		if n == tree.Root {
			return
		}
		if h := t.FindHead(n); h != nil {
			h.Head = true
		}
	})
}
