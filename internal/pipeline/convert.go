package pipeline

import (
	"context"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dgallion1/spinebank/internal/spine"
	"github.com/dgallion1/spinebank/internal/treebank"
)

const (
	OpExtract     = "extract"
	OpReconstruct = "reconstruct"
)

// ExtractResult is the outcome of extracting one tree.
type ExtractResult struct {
	Index    int
	Key      string
	Sentence spine.Sentence
	Err      error
}

// ReconstructResult is the outcome of reconstructing one sentence.
type ReconstructResult struct {
	Index int
	Tree  *treebank.Tree
	Err   error
}

// ExtractAll extracts every tree with at most workers goroutines. Results
// come back in input order; a failing tree only fails its own result. The
// returned error is non-nil only when ctx is cancelled.
func ExtractAll(ctx context.Context, trees []*treebank.Tree, oracle spine.HeadOracle, workers int, opts ...spine.Option) ([]ExtractResult, error) {
	results := make([]ExtractResult, len(trees))
	err := fanOut(ctx, len(trees), workers, func(i int) {
		start := time.Now()
		s, err := spine.Extract(trees[i], oracle, opts...)
		observe(OpExtract, start, err)
		results[i] = ExtractResult{Index: i, Key: trees[i].Key, Sentence: s, Err: err}
	})
	return results, err
}

// ReconstructAll is the reconstruction counterpart of ExtractAll. Tree keys
// are the 1-based sentence numbers.
func ReconstructAll(ctx context.Context, sentences []spine.Sentence, workers int) ([]ReconstructResult, error) {
	results := make([]ReconstructResult, len(sentences))
	err := fanOut(ctx, len(sentences), workers, func(i int) {
		start := time.Now()
		t, err := spine.Reconstruct(sentences[i])
		observe(OpReconstruct, start, err)
		if t != nil {
			t.Key = sentenceKey(i)
		}
		results[i] = ReconstructResult{Index: i, Tree: t, Err: err}
	})
	return results, err
}

func fanOut(ctx context.Context, n, workers int, fn func(i int)) error {
	if workers <= 0 {
		workers = 1
	}
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range n {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func observe(op string, start time.Time, err error) {
	sentenceDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	sentencesTotal.WithLabelValues(op, outcome(err)).Inc()
}

func sentenceKey(i int) string { return strconv.Itoa(i + 1) }
