package spine

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dgallion1/spinebank/internal/treebank"
)

// Option configures Extract.
type Option func(*extractConfig)

type extractConfig struct {
	keepRepeats bool
}

// KeepRepeats gives every chain constituent its own template level, even
// when it repeats the label below it. No recursive attachments are
// produced in this mode and reconstruction is exact.
func KeepRepeats() Option {
	return func(c *extractConfig) { c.keepRepeats = true }
}

// link is what the walker knows about a constituent on some head chain.
type link struct {
	projection int  // ID of the word heading the constituent
	level      int  // template level, first constituent above the POS is 0
	adjoinable bool // same label as the link below: recursive adjunction site
}

type chain struct {
	leaf   *treebank.Node
	top    *treebank.Node
	labels []string
}

// walkChains follows, for each terminal in word order, the ancestors the
// terminal heads. A chain stops below the virtual root.
func walkChains(tree *treebank.Tree, oracle HeadOracle, cfg extractConfig) ([]chain, map[*treebank.Node]link, error) {
	leaves := tree.Leaves()
	links := make(map[*treebank.Node]link)
	chains := make([]chain, 0, len(leaves))

	for i, leaf := range leaves {
		if leaf.Index != i {
			return nil, nil, fmt.Errorf("spine: tree %s: word positions are not contiguous at %d", tree.Key, i)
		}
		c := chain{leaf: leaf, top: leaf, labels: []string{leaf.Label}}
		level, prev := 0, leaf.Label
		for cur := leaf; cur.Parent != nil && cur.Parent != tree.Root && oracle.IsHead(cur); {
			cur = cur.Parent
			l := link{projection: leaf.Index + 1}
			if cur.Label != prev || cfg.keepRepeats {
				level++
				c.labels = append(c.labels, cur.Label)
			} else {
				l.adjoinable = true
			}
			l.level = level - 1
			if _, seen := links[cur]; seen {
				return nil, nil, &HeadError{Label: cur.Label, Heads: headCount(cur, oracle)}
			}
			links[cur] = l
			prev = cur.Label
			c.top = cur
		}
		chains = append(chains, c)
	}
	return chains, links, nil
}

func headCount(n *treebank.Node, oracle HeadOracle) int {
	count := 0
	for _, c := range n.Children {
		if oracle.IsHead(c) {
			count++
		}
	}
	return count
}

// headless follows head children down from n to the constituent that
// breaks the chain.
func headless(n *treebank.Node, oracle HeadOracle) error {
	for !n.IsTerminal() {
		var heads []*treebank.Node
		for _, c := range n.Children {
			if oracle.IsHead(c) {
				heads = append(heads, c)
			}
		}
		if len(heads) != 1 {
			return &HeadError{Label: n.Label, Heads: len(heads)}
		}
		n = heads[0]
	}
	return &HeadError{Label: n.Parent.Label, Heads: 1}
}

// Extract decomposes tree into one spine per word, sorted by ID. The oracle
// supplies the head facts; the tree root is treated as the virtual root
// that head-0 spines attach to.
func Extract(tree *treebank.Tree, oracle HeadOracle, opts ...Option) (Sentence, error) {
	var cfg extractConfig
	for _, o := range opts {
		o(&cfg)
	}

	chains, links, err := walkChains(tree, oracle, cfg)
	if err != nil {
		return nil, err
	}

	out := make(Sentence, 0, len(chains))
	for _, c := range chains {
		sp := Spine{
			ID:       c.leaf.Index + 1,
			POS:      c.leaf.Label,
			Template: strings.Join(c.labels, TemplateSeparator),
			AttType:  Sister,
		}
		if c.leaf.Index >= len(tree.Words) || tree.Words[c.leaf.Index] == "" {
			return nil, fmt.Errorf("spine: tree %s: no word at position %d", tree.Key, c.leaf.Index)
		}
		sp.Word = tree.Words[c.leaf.Index]

		if p := c.top.Parent; p != nil && p != tree.Root {
			target, ok := links[p]
			if !ok {
				return nil, headless(p, oracle)
			}
			sp.Head = target.projection
			sp.AttPosition = target.level
			if target.adjoinable && !cfg.keepRepeats && besideHead(c.top, oracle) {
				sp.AttType = Recursive
			}
		}
		out = append(out, sp)
	}

	slices.SortFunc(out, func(a, b Spine) int { return a.ID - b.ID })
	return out, nil
}

// besideHead reports whether an adjacent sibling of n is a head child.
func besideHead(n *treebank.Node, oracle HeadOracle) bool {
	if l := n.LeftSibling(); l != nil && oracle.IsHead(l) {
		return true
	}
	if r := n.RightSibling(); r != nil && oracle.IsHead(r) {
		return true
	}
	return false
}
