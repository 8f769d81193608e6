package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/dgallion1/spinebank/internal/spine"
	"github.com/dgallion1/spinebank/internal/treebank"
)

// Worker processes a single conversion job.
type Worker struct {
	oracle      spine.HeadOracle
	log         *slog.Logger
	concurrency int
	opts        []spine.Option
}

func NewWorker(oracle spine.HeadOracle, log *slog.Logger, concurrency int, opts ...spine.Option) *Worker {
	return &Worker{
		oracle:      oracle,
		log:         log,
		concurrency: concurrency,
		opts:        opts,
	}
}

// Process runs the conversion for a job.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "kind", job.Kind, "filename", job.Filename)

	var (
		out    bytes.Buffer
		failed int
		err    error
	)
	switch job.Kind {
	case KindExtract:
		failed, err = w.extract(ctx, job, &out)
	case KindReconstruct:
		failed, err = w.reconstruct(ctx, job, &out)
	default:
		err = fmt.Errorf("unknown job kind %q", job.Kind)
	}
	if err != nil {
		log.Error("conversion failed", "error", err)
		job.AddError(err.Error())
		w.finish(job, StatusFailed, job.Snapshot().Phase)
		return
	}

	snap := job.Snapshot()
	log.Info("conversion complete", "sentences", snap.Progress.TotalSentences, "failed", failed)
	job.SetResult(out.Bytes())
	switch {
	case failed == 0:
		w.finish(job, StatusCompleted, "done")
	case failed < snap.Progress.TotalSentences:
		w.finish(job, StatusPartial, "done")
	default:
		w.finish(job, StatusFailed, "converting")
	}
}

func (w *Worker) finish(job *Job, status JobStatus, phase string) {
	job.SetStatus(status, phase)
	jobsTotal.WithLabelValues(string(job.Kind), string(status)).Inc()
}

func (w *Worker) extract(ctx context.Context, job *Job, out *bytes.Buffer) (int, error) {
	job.SetStatus(StatusParsing, "parsing")
	f, err := treebank.Resolve(job.Format, job.Filename)
	if err != nil {
		return 0, err
	}
	trees, err := f.Read(bytes.NewReader(job.FileData()))
	if err != nil {
		return 0, fmt.Errorf("parse: %w", err)
	}
	job.SetTotalSentences(len(trees))

	job.SetStatus(StatusConverting, "extracting")
	results, err := ExtractAll(ctx, trees, w.oracle, w.concurrency, w.opts...)
	if err != nil {
		return 0, err
	}

	job.SetStatus(StatusWriting, "writing")
	sw := spine.NewWriter(out)
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			job.AddError(fmt.Sprintf("sentence %s: %s", r.Key, r.Err))
			continue
		}
		if err := sw.Write(r.Sentence); err != nil {
			return failed, err
		}
	}
	job.AddSentences(len(results)-failed, failed)
	return failed, sw.Flush()
}

func (w *Worker) reconstruct(ctx context.Context, job *Job, out *bytes.Buffer) (int, error) {
	job.SetStatus(StatusParsing, "parsing")
	format := job.Format
	if format == "" {
		format = "export"
	}
	f, err := treebank.ForName(format)
	if err != nil {
		return 0, err
	}
	sentences, err := spine.ReadAll(bytes.NewReader(job.FileData()))
	if err != nil {
		return 0, fmt.Errorf("parse: %w", err)
	}
	job.SetTotalSentences(len(sentences))

	job.SetStatus(StatusConverting, "reconstructing")
	results, err := ReconstructAll(ctx, sentences, w.concurrency)
	if err != nil {
		return 0, err
	}

	job.SetStatus(StatusWriting, "writing")
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			job.AddError(fmt.Sprintf("sentence %d: %s", r.Index+1, r.Err))
			continue
		}
		if err := f.Write(out, r.Tree); err != nil {
			return failed, err
		}
	}
	job.AddSentences(len(results)-failed, failed)
	return failed, nil
}
