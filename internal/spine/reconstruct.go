package spine

import (
	"fmt"

	"github.com/dgallion1/spinebank/internal/treebank"
)

// handle addresses a node in a graph arena. Handles stay valid while the
// resolver replaces and re-parents nodes.
type handle int

type arc struct {
	child handle
	typ   AttachmentType
}

type workNode struct {
	label      string
	projection int
	bottom     bool // carries the word itself
	children   []arc
}

type graph struct {
	nodes []workNode
}

func (g *graph) add(label string, projection int) handle {
	g.nodes = append(g.nodes, workNode{label: label, projection: projection})
	return handle(len(g.nodes) - 1)
}

func (g *graph) attach(parent, child handle, typ AttachmentType) {
	g.nodes[parent].children = append(g.nodes[parent].children, arc{child: child, typ: typ})
}

func (g *graph) projection(h handle) int { return g.nodes[h].projection }

type address struct {
	id    int
	level int
}

// Reconstruct rebuilds the tree described by s. Each leaf keeps its word
// position, so constituents may be discontinuous and child order need not
// follow word order. Head facts are set on every node that continues its
// parent's projection.
func Reconstruct(s Sentence) (*treebank.Tree, error) {
	sorted := s.Sorted()
	if err := validate(sorted); err != nil {
		return nil, err
	}

	g := &graph{}
	addrs := make(map[address]handle)
	tops := make([]handle, len(sorted))
	var open []handle

	// Vertical chains, bottom-up. The POS node sits at level -1.
	for i, sp := range sorted {
		var prev handle = -1
		for level, label := range sp.Labels() {
			if level == 0 {
				label = sp.POS
			}
			h := g.add(label, sp.ID)
			if prev < 0 {
				g.nodes[h].bottom = true
			} else {
				g.attach(h, prev, Sister)
			}
			addrs[address{id: sp.ID, level: level - 1}] = h
			open = append(open, h)
			prev = h
		}
		tops[i] = prev
	}

	root := g.add(treebank.RootLabel, 0)
	for i, sp := range sorted {
		if sp.Head == 0 {
			g.attach(root, tops[i], Sister)
			continue
		}
		target, ok := addrs[address{id: sp.Head, level: sp.AttPosition}]
		if !ok {
			return nil, &DanglingAttachmentError{ID: sp.ID, Head: sp.Head, AttPosition: sp.AttPosition}
		}
		g.attach(target, tops[i], sp.AttType)
	}

	resolve(g, open)

	tree := &treebank.Tree{Root: g.emit(root), Words: sorted.Words()}
	return tree, nil
}

// validate checks ids, head references and cycles before any node is built.
func validate(sorted Sentence) error {
	if len(sorted) == 0 {
		return ErrEmptySentence
	}
	for i, sp := range sorted {
		if sp.ID != i+1 {
			return fmt.Errorf("%w: found id %d at position %d", ErrInvalidIDs, sp.ID, i+1)
		}
	}
	n := len(sorted)
	for _, sp := range sorted {
		if sp.Head < 0 || sp.Head > n {
			return &DanglingAttachmentError{ID: sp.ID, Head: sp.Head, AttPosition: sp.AttPosition}
		}
	}

	const (
		unvisited = iota
		onPath
		done
	)
	state := make([]int, n+1)
	for start := 1; start <= n; start++ {
		var path []int
		cur := start
		for cur != 0 && state[cur] == unvisited {
			state[cur] = onPath
			path = append(path, cur)
			cur = sorted[cur-1].Head
		}
		if cur != 0 && state[cur] == onPath {
			for i, id := range path {
				if id == cur {
					return &CyclicAttachmentError{IDs: append([]int(nil), path[i:]...)}
				}
			}
		}
		for _, id := range path {
			state[id] = done
		}
	}
	return nil
}

// resolve re-nests nodes that received recursive adjunctions. Each pass over
// a node keeps the outermost recursive adjunct of each side on the node and
// moves everything closer into a new copy of the node below it, which is
// then resolved again. The closest adjunct ends up innermost.
func resolve(g *graph, open []handle) {
	for len(open) > 0 {
		h := open[len(open)-1]
		open = open[:len(open)-1]

		n := g.nodes[h]
		var vertical []arc
		var left, right []arc
		for _, a := range n.children {
			switch p := g.projection(a.child); {
			case p == n.projection:
				vertical = append(vertical, a)
			case p < n.projection:
				left = append(left, a)
			default:
				right = append(right, a)
			}
		}
		if !hasRecursive(left) && !hasRecursive(right) {
			continue
		}

		inner := g.add(n.label, n.projection)
		g.nodes[inner].bottom = n.bottom
		g.nodes[h].bottom = false
		g.nodes[inner].children = vertical

		left = g.peel(inner, left, func(a, b int) bool { return a < b })
		right = g.peel(inner, right, func(a, b int) bool { return a > b })

		children := []arc{{child: inner, typ: Sister}}
		children = append(children, right...)
		children = append(children, left...)
		g.nodes[h].children = children

		open = append(open, inner)
	}
}

func hasRecursive(arcs []arc) bool {
	for _, a := range arcs {
		if a.typ == Recursive {
			return true
		}
	}
	return false
}

// peel splits one side of a node. farther reports whether projection a lies
// farther from the node than b. The outermost recursive adjunct stays, as a
// sister, together with anything farther out; everything between it and the
// node moves to inner. A side without recursive adjuncts moves entirely.
func (g *graph) peel(inner handle, side []arc, farther func(a, b int) bool) []arc {
	pick := -1
	for i, a := range side {
		if a.typ != Recursive {
			continue
		}
		if pick < 0 || farther(g.projection(a.child), g.projection(side[pick].child)) {
			pick = i
		}
	}
	if pick < 0 {
		g.nodes[inner].children = append(g.nodes[inner].children, side...)
		return nil
	}

	outer := side[pick]
	stay := []arc{{child: outer.child, typ: Sister}}
	for i, a := range side {
		if i == pick {
			continue
		}
		if farther(g.projection(a.child), g.projection(outer.child)) {
			stay = append(stay, a)
		} else {
			g.nodes[inner].children = append(g.nodes[inner].children, a)
		}
	}
	return stay
}

// emit lowers the graph below h into treebank nodes.
func (g *graph) emit(h handle) *treebank.Node {
	n := g.nodes[h]
	if n.bottom && len(n.children) == 0 {
		return treebank.NewLeaf(n.label, n.projection-1)
	}
	out := treebank.NewNode(n.label)
	if n.bottom {
		// Something attached to the POS level itself: keep the word as
		// the head child.
		leaf := treebank.NewLeaf(n.label, n.projection-1)
		leaf.Head = true
		out.Add(leaf)
	}
	for _, a := range n.children {
		c := g.emit(a.child)
		c.Head = n.projection != 0 && g.projection(a.child) == n.projection
		out.Add(c)
	}
	return out
}
