package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/spinebank/internal/config"
	"github.com/dgallion1/spinebank/internal/spine"
)

// Orchestrator manages the asynchronous conversion pipeline.
type Orchestrator struct {
	jobs   *JobStore
	queue  chan *Job
	oracle spine.HeadOracle
	opts   []spine.Option
	log    *slog.Logger
	cfg    config.Config

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. Call Start to launch the workers.
func NewOrchestrator(cfg config.Config, oracle spine.HeadOracle, log *slog.Logger) *Orchestrator {
	o := &Orchestrator{
		jobs:   NewJobStore(cfg.JobTTL),
		queue:  make(chan *Job, cfg.MaxQueueSize),
		oracle: oracle,
		log:    log,
		cfg:    cfg,
	}
	if cfg.KeepRepeats {
		o.opts = append(o.opts, spine.KeepRepeats())
	}
	return o
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.oracle, o.log, o.cfg.SentenceConcurrency, o.opts...)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					queueDepth.Set(float64(len(o.queue)))
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.jobs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		queueDepth.Set(float64(len(o.queue)))
		return nil
	default:
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// JobCount returns the number of jobs still held by the store.
func (o *Orchestrator) JobCount() int {
	return o.jobs.Len()
}

// Oracle returns the head oracle shared by the workers, for synchronous
// conversions in the API handlers.
func (o *Orchestrator) Oracle() spine.HeadOracle {
	return o.oracle
}

// Options returns the extraction options the workers use.
func (o *Orchestrator) Options() []spine.Option {
	return o.opts
}

// SentenceConcurrency returns the per-request sentence fan-out.
func (o *Orchestrator) SentenceConcurrency() int {
	return o.cfg.SentenceConcurrency
}
