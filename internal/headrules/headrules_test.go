package headrules

import (
	"strings"
	"testing"

	"github.com/dgallion1/spinebank/internal/treebank"
)

const testRules = `% toy table
S  right-to-left VP S
VP left-to-right VBD VBZ VP
NP right NN NNS NP
PP left IN TO
ADJP RIGHT-TO-LEFT JJ
`

func mustParse(t *testing.T, src string) *Table {
	t.Helper()
	table, err := Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse rules: %v", err)
	}
	return table
}

func mustTree(t *testing.T, src string) *treebank.Tree {
	t.Helper()
	trees, err := treebank.BracketFormat{}.Read(strings.NewReader(src))
	if err != nil {
		t.Fatalf("parse tree: %v", err)
	}
	return trees[0]
}

func TestParse_RulesPerLabel(t *testing.T) {
	table := mustParse(t, testRules)
	if table.Len() != 5 {
		t.Fatalf("expected 5 labels, got %d", table.Len())
	}
	rules := table.Rules("NP-SBJ")
	if len(rules) != 1 {
		t.Fatalf("expected 1 rule for NP, got %d", len(rules))
	}
	if rules[0].Direction != Right {
		t.Errorf("expected direction Right, got %v", rules[0].Direction)
	}
	if strings.Join(rules[0].Heads, " ") != "NN NNS NP" {
		t.Errorf("unexpected heads %v", rules[0].Heads)
	}
}

func TestParse_Errors(t *testing.T) {
	for _, src := range []string{"S\n", "S SIDEWAYS VP\n"} {
		if _, err := Parse(strings.NewReader(src)); err == nil {
			t.Errorf("expected error for %q", src)
		}
	}
}

func TestFindHead_Directions(t *testing.T) {
	table := mustParse(t, testRules)
	cases := []struct {
		tree string
		want string
	}{
		// Category priority beats position for LEFT-TO-RIGHT.
		{"(VP (VBZ is) (VBD was))", "VBD"},
		// RIGHT scans children first: rightmost member of the set wins.
		{"(NP (NNS dogs) (NN cat))", "NN"},
		{"(PP (TO to) (IN in))", "TO"},
		// Function tags are stripped before matching.
		{"(S (NP-SBJ (NN it)) (VP-PRD (VBZ is)))", "VP-PRD"},
		// No match: RIGHT-TO-LEFT first rule falls back to the last child.
		{"(ADJP (RB very) (RB much))", "RB"},
		// No rules at all: first child.
		{"(FRAG (NN a) (DT b))", "NN"},
	}
	for _, tc := range cases {
		tree := mustTree(t, tc.tree)
		top := tree.Root.Children[0]
		h := table.FindHead(top)
		if h == nil {
			t.Errorf("%s: expected head, got nil", tc.tree)
			continue
		}
		if h.Label != tc.want {
			t.Errorf("%s: expected head %q, got %q", tc.tree, tc.want, h.Label)
		}
	}
}

func TestFindHead_FallbackPosition(t *testing.T) {
	table := mustParse(t, testRules)
	tree := mustTree(t, "(ADJP (RB very) (RB much))")
	h := table.FindHead(tree.Root.Children[0])
	if h.Index != 1 {
		t.Errorf("expected the last child as fallback head, got index %d", h.Index)
	}
}

func TestApply_MarksExactlyOneHeadPerConstituent(t *testing.T) {
	table := mustParse(t, testRules)
	tree := mustTree(t, "(S (NP (DT The) (NN cat)) (VP (VBD sat) (PP (IN on) (NP (DT the) (NN mat)))))")
	Apply(tree, table)

	tree.Root.Walk(func(n *treebank.Node) {
		if n == tree.Root || n.IsTerminal() {
			return
		}
		heads := 0
		for _, c := range n.Children {
			if c.Head {
				heads++
				if !table.IsHead(c) {
					t.Errorf("%s: Apply and IsHead disagree on %s", n.Label, c.Label)
				}
			}
		}
		if heads != 1 {
			t.Errorf("%s: expected 1 head child, got %d", n.Label, heads)
		}
	})
	if tree.Root.Children[0].Head {
		t.Error("expected the child of the virtual root to stay unmarked")
	}
	if table.IsHead(tree.Root) {
		t.Error("expected the root never to be a head")
	}
}
