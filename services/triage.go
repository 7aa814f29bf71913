package services

import (
	"context"
	"sync"

	"civic311-be/classifier"
	"civic311-be/metrics"
	"civic311-be/models"

	"go.uber.org/zap"
)

type Classifier interface {
	Classify(description string) classifier.Suggestion
}

type TriageJob struct {
	RequestID   int64
	ActorID     int64
	Description string
}

// TriageDispatcher classifies new requests off the request path and records
// the suggestion as an audit event. Jobs that do not fit in the queue are
// dropped.
type TriageDispatcher struct {
	jobs       chan TriageJob
	classifier Classifier
	audit      *AuditLog
	logger     *zap.Logger
}

func NewTriageDispatcher(c Classifier, audit *AuditLog, queueSize int, logger *zap.Logger) *TriageDispatcher {
	return &TriageDispatcher{
		jobs:       make(chan TriageJob, queueSize),
		classifier: c,
		audit:      audit,
		logger:     logger.Named("triage"),
	}
}

// Suggest classifies synchronously, for the triage endpoint.
func (d *TriageDispatcher) Suggest(description string) classifier.Suggestion {
	return d.classifier.Classify(description)
}

func (d *TriageDispatcher) Enqueue(job TriageJob) bool {
	select {
	case d.jobs <- job:
		metrics.TriageQueueDepth.Inc()
		return true
	default:
		metrics.TriageDropped.Inc()
		return false
	}
}

// Run starts workers and blocks until ctx is done and they have exited.
func (d *TriageDispatcher) Run(ctx context.Context, workers int) {
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case job := <-d.jobs:
					metrics.TriageQueueDepth.Dec()
					d.process(ctx, job)
				}
			}
		}()
	}
	wg.Wait()
}

func (d *TriageDispatcher) process(ctx context.Context, job TriageJob) {
	s := d.classifier.Classify(job.Description)
	_, err := d.audit.Log(ctx, job.ActorID, models.ActionTriageSuggestion, models.EntityServiceRequest, job.RequestID, map[string]any{
		"category":  string(s.Category),
		"sentiment": string(s.Sentiment),
		"priority":  string(s.Priority),
	})
	if err != nil {
		d.logger.Warn("failed to record triage suggestion", zap.Int64("request_id", job.RequestID), zap.Error(err))
	}
}
