package treebank

import (
	"bufio"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

// BracketFormat reads and writes Penn-style labeled bracketings, one tree
// per top-level bracket. Leaves are either "(POS word)", numbered in order of
// appearance, or disc-bracket "(POS 3=word)" carrying an explicit position.
type BracketFormat struct{}

func (BracketFormat) Name() string { return "bracket" }

func (BracketFormat) Read(r io.Reader) ([]*Tree, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	toks := tokenize(string(src))

	var (
		trees []*Tree
		stack []*Node
		words map[int]string
		next  int
	)
	for i := 0; i < len(toks); i++ {
		switch tok := toks[i]; tok {
		case "(":
			label := ""
			if i+1 < len(toks) && toks[i+1] != "(" && toks[i+1] != ")" {
				label = toks[i+1]
				i++
			}
			if len(stack) == 0 {
				words = make(map[int]string)
				next = 0
			}
			stack = append(stack, &Node{Label: label, Index: -1})
		case ")":
			if len(stack) == 0 {
				return nil, fmt.Errorf("bracket: unbalanced ')' after %d trees", len(trees))
			}
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if len(n.Children) == 0 && n.Index < 0 {
				return nil, fmt.Errorf("bracket: empty constituent %q in tree %d", n.Label, len(trees)+1)
			}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				if parent.Index >= 0 {
					return nil, fmt.Errorf("bracket: constituent %q mixes words and constituents", parent.Label)
				}
				parent.Add(n)
				continue
			}
			t, err := newBracketTree(n, words, len(trees)+1)
			if err != nil {
				return nil, err
			}
			trees = append(trees, t)
		default:
			if len(stack) == 0 {
				return nil, fmt.Errorf("bracket: token %q outside of a tree", tok)
			}
			n := stack[len(stack)-1]
			if n.Index >= 0 || len(n.Children) > 0 {
				return nil, fmt.Errorf("bracket: constituent %q mixes words and constituents", n.Label)
			}
			idx, word := next, tok
			if eq := strings.IndexByte(tok, '='); eq > 0 {
				if v, err := strconv.Atoi(tok[:eq]); err == nil {
					idx, word = v, tok[eq+1:]
				}
			}
			if _, dup := words[idx]; dup {
				return nil, fmt.Errorf("bracket: word position %d used twice in tree %d", idx, len(trees)+1)
			}
			words[idx] = word
			n.Index = idx
			next++
		}
	}
	if len(stack) > 0 {
		return nil, fmt.Errorf("bracket: unterminated tree %d", len(trees)+1)
	}
	return trees, nil
}

func newBracketTree(top *Node, words map[int]string, n int) (*Tree, error) {
	t := &Tree{Key: strconv.Itoa(n), Root: wrapRoot(top), Words: make([]string, len(words))}
	for idx, w := range words {
		if idx < 0 || idx >= len(words) {
			return nil, fmt.Errorf("bracket: word position %d out of range in tree %d", idx, n)
		}
		t.Words[idx] = w
	}
	return t, nil
}

func tokenize(s string) []string {
	var toks []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			toks = append(toks, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch r {
		case '(', ')':
			flush()
			toks = append(toks, string(r))
		case ' ', '\t', '\n', '\r':
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	flush()
	return toks
}

// Write emits t on one line. Children are written in word order; when the
// tree is discontinuous leaves carry their position as "i=word".
func (BracketFormat) Write(w io.Writer, t *Tree) error {
	bw := bufio.NewWriter(w)
	writeBracket(bw, t.Root, t.Words, t.Discontinuous())
	bw.WriteByte('\n')
	return bw.Flush()
}

// Bracket returns the single-line bracketing of t.
func Bracket(t *Tree) string {
	var sb strings.Builder
	writeBracket(&sb, t.Root, t.Words, t.Discontinuous())
	return sb.String()
}

type byteStringWriter interface {
	io.Writer
	io.StringWriter
	io.ByteWriter
}

func writeBracket(w byteStringWriter, n *Node, words []string, disc bool) {
	w.WriteByte('(')
	w.WriteString(n.Label)
	if n.IsTerminal() {
		w.WriteByte(' ')
		if disc {
			fmt.Fprintf(w, "%d=", n.Index)
		}
		if n.Index < len(words) {
			w.WriteString(words[n.Index])
		}
		w.WriteByte(')')
		return
	}
	children := slices.Clone(n.Children)
	slices.SortStableFunc(children, func(a, b *Node) int { return a.MinIndex() - b.MinIndex() })
	for _, c := range children {
		w.WriteByte(' ')
		writeBracket(w, c, words, disc)
	}
	w.WriteByte(')')
}
