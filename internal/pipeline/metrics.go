package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// sentencesTotal counts converted sentences by operation and outcome.
	sentencesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spinebank_sentences_total",
		Help: "Sentences converted, by operation and outcome",
	}, []string{"operation", "outcome"})

	sentenceDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "spinebank_sentence_duration_seconds",
		Help:    "Per-sentence conversion time in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10), // 10us to ~2.6s
	}, []string{"operation"})

	jobsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "spinebank_jobs_total",
		Help: "Conversion jobs finished, by kind and final status",
	}, []string{"kind", "status"})

	queueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "spinebank_queue_depth",
		Help: "Jobs waiting for a worker",
	})
)

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
