package corpus

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Column indexes of the tag fields in a CoNLL-style token line.
const (
	ColumnCPOS = 3
	ColumnPOS  = 4
)

// ErrMisaligned is returned when gold and predicted files disagree on the
// number of sentences or tokens.
var ErrMisaligned = errors.New("corpus: gold and predicted files are misaligned")

// Accuracy counts matching tags.
type Accuracy struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

func (a Accuracy) Ratio() float64 { return ratio(a.Correct, a.Total) }

func (a Accuracy) String() string {
	return fmt.Sprintf("Correct pos: %.2f (%d / %d)", 100*a.Ratio(), a.Correct, a.Total)
}

// POSAccuracy compares column of every token line of gold and pred. Both
// inputs are blank-line delimited sentence blocks of whitespace separated
// columns.
func POSAccuracy(gold, pred io.Reader, column int) (Accuracy, error) {
	g, err := readColumns(gold)
	if err != nil {
		return Accuracy{}, fmt.Errorf("corpus: read gold: %w", err)
	}
	p, err := readColumns(pred)
	if err != nil {
		return Accuracy{}, fmt.Errorf("corpus: read predicted: %w", err)
	}
	if len(g) != len(p) {
		return Accuracy{}, fmt.Errorf("%w: %d gold sentences, %d predicted", ErrMisaligned, len(g), len(p))
	}

	var acc Accuracy
	for i := range g {
		if len(g[i]) != len(p[i]) {
			return Accuracy{}, fmt.Errorf("%w: sentence %d has %d gold tokens, %d predicted", ErrMisaligned, i+1, len(g[i]), len(p[i]))
		}
		for j := range g[i] {
			gt, pt := g[i][j], p[i][j]
			if column >= len(gt) || column >= len(pt) {
				return Accuracy{}, fmt.Errorf("corpus: sentence %d token %d has no column %d", i+1, j+1, column)
			}
			acc.Total++
			if gt[column] == pt[column] {
				acc.Correct++
			}
		}
	}
	return acc, nil
}

func readColumns(r io.Reader) ([][][]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var out [][][]string
	var cur [][]string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			if len(cur) > 0 {
				out = append(out, cur)
				cur = nil
			}
			continue
		}
		cur = append(cur, strings.Fields(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(cur) > 0 {
		out = append(out, cur)
	}
	return out, nil
}
