package treebank

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// ExportHeader is written before every sentence by ExportFormat.Write.
const ExportHeader = "%% word\tlemma\ttag\tmorph\tedge\tparent\tsecedge"

const firstNonTerminal = 500

// ExportFormat reads and writes the Negra export format. Format 3 lines are
// "word tag morph edge parent", format 4 adds a lemma column after the word;
// a "#FORMAT 4" line or a "%%" header naming a lemma column switches to 4.
// An edge label containing HD marks the head child.
type ExportFormat struct{}

func (ExportFormat) Name() string { return "export" }

type exportLine struct {
	id     int // word position, or nonterminal number
	label  string
	word   string
	edge   string
	parent int
	line   int
}

func (ExportFormat) Read(r io.Reader) ([]*Tree, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var (
		trees   []*Tree
		format  = 3
		inSent  bool
		key     string
		terms   []exportLine
		nonTerm []exportLine
		lineNo  int
	)
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "%%"):
			if strings.Contains(strings.ToLower(line), "lemma") {
				format = 4
			}
			continue
		case strings.HasPrefix(line, "#FORMAT"):
			if f := strings.Fields(line); len(f) > 1 && f[1] == "4" {
				format = 4
			}
			continue
		case strings.HasPrefix(line, "#BOS"):
			f := strings.Fields(line)
			if len(f) < 2 {
				return nil, fmt.Errorf("export: line %d: #BOS without sentence key", lineNo)
			}
			inSent, key, terms, nonTerm = true, f[1], nil, nil
			continue
		case strings.HasPrefix(line, "#EOS"):
			if !inSent {
				return nil, fmt.Errorf("export: line %d: #EOS without #BOS", lineNo)
			}
			t, err := buildExportTree(key, terms, nonTerm)
			if err != nil {
				return nil, err
			}
			trees = append(trees, t)
			inSent = false
			continue
		case !inSent:
			// Origin tables and other preamble lines.
			continue
		}

		f := strings.Fields(line)
		col := 1
		if format == 4 {
			col = 2
		}
		if len(f) < col+4 {
			return nil, fmt.Errorf("export: line %d: expected at least %d fields, got %d", lineNo, col+4, len(f))
		}
		parent, err := strconv.Atoi(f[col+3])
		if err != nil {
			return nil, fmt.Errorf("export: line %d: parent %q: %w", lineNo, f[col+3], err)
		}
		el := exportLine{label: f[col], edge: f[col+2], parent: parent, line: lineNo}
		if len(f[0]) > 1 && f[0][0] == '#' {
			if el.id, err = strconv.Atoi(f[0][1:]); err != nil {
				return nil, fmt.Errorf("export: line %d: nonterminal id %q: %w", lineNo, f[0], err)
			}
			nonTerm = append(nonTerm, el)
			continue
		}
		el.id, el.word = len(terms), f[0]
		terms = append(terms, el)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if inSent {
		return nil, fmt.Errorf("export: sentence %s not terminated by #EOS", key)
	}
	return trees, nil
}

func buildExportTree(key string, terms, nonTerm []exportLine) (*Tree, error) {
	root := &Node{Label: RootLabel, Index: -1}
	byID := map[int]*Node{0: root}
	for _, el := range nonTerm {
		if _, dup := byID[el.id]; dup {
			return nil, fmt.Errorf("export: sentence %s line %d: duplicate node #%d", key, el.line, el.id)
		}
		byID[el.id] = &Node{Label: el.label, Index: -1, Func: el.edge, Head: isHeadEdge(el.edge)}
	}
	link := func(n *Node, el exportLine) error {
		p, ok := byID[el.parent]
		if !ok {
			return fmt.Errorf("export: sentence %s line %d: unknown parent #%d", key, el.line, el.parent)
		}
		p.Add(n)
		return nil
	}

	t := &Tree{Key: key, Root: root}
	for _, el := range terms {
		t.Words = append(t.Words, el.word)
		leaf := &Node{Label: el.label, Index: el.id, Func: el.edge, Head: isHeadEdge(el.edge)}
		if err := link(leaf, el); err != nil {
			return nil, err
		}
	}
	for _, el := range nonTerm {
		if err := link(byID[el.id], el); err != nil {
			return nil, err
		}
	}
	for id, n := range byID {
		if id != 0 && len(n.Children) == 0 {
			return nil, fmt.Errorf("export: sentence %s: node #%d dominates no words", key, id)
		}
	}
	if cyclic(root, len(byID)+len(terms)) {
		return nil, fmt.Errorf("export: sentence %s: parent links form a cycle", key)
	}
	t.Sort()
	return t, nil
}

// cyclic reports whether fewer than total nodes are reachable from root,
// which for a parent-linked structure means some nodes only reach each other.
func cyclic(root *Node, total int) bool {
	seen := 0
	root.Walk(func(*Node) { seen++ })
	return seen != total
}

func isHeadEdge(edge string) bool {
	return slices.Contains(strings.Split(strings.ToUpper(edge), "-"), "HD")
}

// Write emits t in export format 4 preceded by ExportHeader.
func (ExportFormat) Write(w io.Writer, t *Tree) error {
	ids := make(map[*Node]int)
	var order []*Node
	next := firstNonTerminal
	// Post-order numbering keeps every child below its parent's number.
	var number func(n *Node)
	number = func(n *Node) {
		for _, c := range n.Children {
			number(c)
		}
		if n != t.Root && !n.IsTerminal() {
			ids[n] = next
			order = append(order, n)
			next++
		}
	}
	number(t.Root)

	parentID := func(n *Node) int {
		if n.Parent == nil || n.Parent == t.Root {
			return 0
		}
		return ids[n.Parent]
	}

	bw := bufio.NewWriter(w)
	key := t.Key
	if key == "" {
		key = "0"
	}
	fmt.Fprintln(bw, ExportHeader)
	fmt.Fprintf(bw, "#BOS %s\n", key)
	for _, leaf := range t.Leaves() {
		word := "--"
		if leaf.Index < len(t.Words) {
			word = t.Words[leaf.Index]
		}
		fmt.Fprintf(bw, "%s\t--\t%s\t--\t%s\t%d\n", word, leaf.Label, edgeLabel(leaf), parentID(leaf))
	}
	for _, n := range order {
		fmt.Fprintf(bw, "#%d\t--\t%s\t--\t%s\t%d\n", ids[n], n.Label, edgeLabel(n), parentID(n))
	}
	fmt.Fprintf(bw, "#EOS %s\n", key)
	return bw.Flush()
}

// edgeLabel writes the head fact as HD; other function labels pass through.
func edgeLabel(n *Node) string {
	switch {
	case n.Head:
		return "HD"
	case n.Func == "" || isHeadEdge(n.Func):
		return "--"
	}
	return n.Func
}
