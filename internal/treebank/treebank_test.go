package treebank

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestBracketFormat_ReadWrapsRoot(t *testing.T) {
	trees, err := BracketFormat{}.Read(strings.NewReader("(S (NP (DT The) (NN cat)) (VP (VBD sat)))"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trees) != 1 {
		t.Fatalf("expected 1 tree, got %d", len(trees))
	}
	tree := trees[0]
	if tree.Root.Label != RootLabel {
		t.Errorf("expected root label %q, got %q", RootLabel, tree.Root.Label)
	}
	if diff := cmp.Diff([]string{"The", "cat", "sat"}, tree.Words); diff != "" {
		t.Errorf("words mismatch (-want +got):\n%s", diff)
	}

	var labels []string
	for i, leaf := range tree.Leaves() {
		if leaf.Index != i {
			t.Errorf("leaf %d: expected index %d, got %d", i, i, leaf.Index)
		}
		labels = append(labels, leaf.Label)
	}
	if diff := cmp.Diff([]string{"DT", "NN", "VBD"}, labels); diff != "" {
		t.Errorf("leaf labels mismatch (-want +got):\n%s", diff)
	}

	want := "(ROOT (S (NP (DT The) (NN cat)) (VP (VBD sat))))"
	if got := Bracket(tree); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestBracketFormat_PTBEmptyLabel(t *testing.T) {
	input := "( (S (NP (PRP It)) (VP (VBZ is))) )\n\n( (FRAG (NN x)) )\n"
	trees, err := BracketFormat{}.Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trees) != 2 {
		t.Fatalf("expected 2 trees, got %d", len(trees))
	}
	for i, tree := range trees {
		if tree.Root.Label != RootLabel {
			t.Errorf("tree %d: expected root %q, got %q", i, RootLabel, tree.Root.Label)
		}
	}
	if trees[1].Key != "2" {
		t.Errorf("expected key %q, got %q", "2", trees[1].Key)
	}
	if trees[1].Words[0] != "x" {
		t.Errorf("expected first word of second tree to be x, got %q", trees[1].Words[0])
	}
}

func TestBracketFormat_Discontinuous(t *testing.T) {
	input := "(ROOT (S (NN 1=b) (VP (RB 2=c) (VB 0=a))))"
	trees, err := BracketFormat{}.Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tree := trees[0]
	if !tree.Discontinuous() {
		t.Error("expected discontinuous tree")
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, tree.Words); diff != "" {
		t.Errorf("words mismatch (-want +got):\n%s", diff)
	}
	want := "(ROOT (S (VP (VB 0=a) (RB 2=c)) (NN 1=b)))"
	if got := Bracket(tree); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestBracketFormat_Errors(t *testing.T) {
	cases := map[string]string{
		"unterminated": "(S (NN a)",
		"unbalanced":   "(S (NN a)))",
		"empty":        "(S (NP))",
		"stray token":  "a (S (NN a))",
		"mixed":        "(S a (NN b))",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := (BracketFormat{}).Read(strings.NewReader(input)); err == nil {
				t.Errorf("expected error for %q", input)
			}
		})
	}
}

func TestExportFormat_ReadFormat3(t *testing.T) {
	input := strings.Join([]string{
		"#BOS 7",
		"Das\tART\t--\tNK\t500",
		"Haus\tNN\t--\tHD\t500",
		"steht\tVVFIN\t--\tHD\t501",
		"#500\tNP\t--\tSB\t501",
		"#501\tS\t--\t--\t0",
		"#EOS 7",
		"",
	}, "\n")
	trees, err := ExportFormat{}.Read(strings.NewReader(input))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trees) != 1 {
		t.Fatalf("expected 1 tree, got %d", len(trees))
	}
	tree := trees[0]
	if tree.Key != "7" {
		t.Errorf("expected key 7, got %q", tree.Key)
	}
	want := "(ROOT (S (NP (ART Das) (NN Haus)) (VVFIN steht)))"
	if got := Bracket(tree); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	leaves := tree.Leaves()
	if leaves[0].Head || !leaves[1].Head || !leaves[2].Head {
		t.Errorf("unexpected head facts: %v %v %v", leaves[0].Head, leaves[1].Head, leaves[2].Head)
	}
}

func TestExportFormat_RoundTrip(t *testing.T) {
	trees, err := BracketFormat{}.Read(strings.NewReader("(S (NP (DT The) (NN cat)) (VP (VBD sat)))"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tree := trees[0]
	tree.Key = "1"
	leaves := tree.Leaves()
	leaves[1].Head = true
	leaves[2].Head = true
	leaves[2].Parent.Head = true

	var buf bytes.Buffer
	if err := (ExportFormat{}).Write(&buf, tree); err != nil {
		t.Fatalf("write: %v", err)
	}
	if !strings.HasPrefix(buf.String(), ExportHeader) {
		t.Errorf("expected output to start with the export header, got %q", buf.String())
	}
	if !strings.Contains(buf.String(), "#502\t--\tS\t--\t--\t0") {
		t.Errorf("expected S as node #502 under the root, got:\n%s", buf.String())
	}

	back, err := ExportFormat{}.Read(&buf)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(back) != 1 {
		t.Fatalf("expected 1 tree, got %d", len(back))
	}
	if got, want := Bracket(back[0]), Bracket(tree); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
	var heads []string
	back[0].Root.Walk(func(n *Node) {
		if n.Head {
			heads = append(heads, n.Label)
		}
	})
	if diff := cmp.Diff([]string{"NN", "VP", "VBD"}, heads); diff != "" {
		t.Errorf("head facts mismatch (-want +got):\n%s", diff)
	}
}

func TestExportFormat_Errors(t *testing.T) {
	cases := map[string]string{
		"unknown parent": "#BOS 1\na\tNN\t--\t--\t509\n#EOS 1\n",
		"no EOS":         "#BOS 1\na\tNN\t--\t--\t0\n",
		"short line":     "#BOS 1\na\tNN\n#EOS 1\n",
		"cycle":          "#BOS 1\na\tNN\t--\t--\t500\n#500\tNP\t--\t--\t501\n#501\tNP\t--\t--\t500\n#EOS 1\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := (ExportFormat{}).Read(strings.NewReader(input)); err == nil {
				t.Errorf("expected error for %s", name)
			}
		})
	}
}

func TestForFile(t *testing.T) {
	cases := map[string]string{
		"wsj_0001.mrg":  "bracket",
		"train.export":  "export",
		"tiger.NEGRA":   "export",
		"x.discbracket": "bracket",
	}
	for file, want := range cases {
		f, err := ForFile(file)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", file, err)
			continue
		}
		if f.Name() != want {
			t.Errorf("%s: expected %q, got %q", file, want, f.Name())
		}
	}
	if _, err := ForFile("notes.txt"); err == nil {
		t.Error("expected error for unsupported extension")
	}
	if IsSupportedExtension("notes.txt") {
		t.Error("expected .txt to be unsupported")
	}
}

func TestBaseLabel(t *testing.T) {
	cases := map[string]string{
		"NP-SBJ-1": "NP",
		"NP=2":     "NP",
		"VP":       "VP",
		"-NONE-":   "-NONE-",
		"-LRB-":    "-LRB-",
	}
	for in, want := range cases {
		if got := BaseLabel(in); got != want {
			t.Errorf("BaseLabel(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestNode_Siblings(t *testing.T) {
	a, b, c := NewLeaf("A", 0), NewLeaf("B", 1), NewLeaf("C", 2)
	NewNode("X", a, b, c)
	if b.LeftSibling() != a || b.RightSibling() != c {
		t.Error("expected a and c as siblings of b")
	}
	if a.LeftSibling() != nil || c.RightSibling() != nil {
		t.Error("expected no sibling beyond the edges")
	}
}
