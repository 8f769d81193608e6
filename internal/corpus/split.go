package corpus

import (
	"fmt"

	"github.com/dgallion1/spinebank/internal/config"
	"github.com/dgallion1/spinebank/internal/treebank"
)

// Bounds returns the half-open tree range covered by sections first..last:
// begin counts the trees of every section before first, end those of every
// section up to and including last.
func Bounds(sizes []SectionSize, first, last int) (begin, end int) {
	for _, s := range sizes {
		if s.Section < first {
			begin += s.Trees
		}
		if s.Section <= last {
			end += s.Trees
		}
	}
	return begin, end
}

// Part is one partition slice of a corpus.
type Part struct {
	Name       string
	Begin, End int
	Trees      []*treebank.Tree
}

// Split cuts trees into the parts of p. Trees are assumed to be in section
// order, as counted by sizes.
func Split(trees []*treebank.Tree, sizes []SectionSize, p config.Partition) ([]Part, error) {
	total := 0
	for _, s := range sizes {
		total += s.Trees
	}
	if total != len(trees) {
		return nil, fmt.Errorf("%w: section sizes sum to %d trees, corpus has %d", ErrMisaligned, total, len(trees))
	}

	out := make([]Part, 0, len(p.Parts))
	for _, part := range p.Parts {
		if part.Last < part.First {
			return nil, fmt.Errorf("corpus: part %s: last section %d before first %d", part.Name, part.Last, part.First)
		}
		begin, end := Bounds(sizes, part.First, part.Last)
		out = append(out, Part{Name: part.Name, Begin: begin, End: end, Trees: trees[begin:end]})
	}
	return out, nil
}
