// Package worker consumes activity events and writes them to the activity
// log.
package worker

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"ledger/internal/amqp"
	applog "ledger/internal/log"
)

// Recorder persists one activity event. Redelivered events must be
// ignored without error.
type Recorder interface {
	Record(ctx context.Context, event *amqp.ActivityEvent) error
}

// Consumer delivers activity events to a handler until ctx is done.
type Consumer interface {
	ConsumeActivity(ctx context.Context, handler func(context.Context, *amqp.ActivityEvent) error) error
}

// ActivityWorker handles activity events delivered over AMQP.
type ActivityWorker struct {
	recorder Recorder
	logger   *applog.Logger

	processed atomic.Int64
	failed    atomic.Int64
	lastEvent atomic.Int64 // unix millis
}

func NewActivityWorker(recorder Recorder, logger *applog.Logger) *ActivityWorker {
	return &ActivityWorker{
		recorder: recorder,
		logger:   logger.WithComponent(applog.ComponentWorker),
	}
}

// HandleActivity processes a single activity event. A returned error makes
// the consumer requeue the delivery.
func (w *ActivityWorker) HandleActivity(ctx context.Context, event *amqp.ActivityEvent) error {
	w.logger.DebugContext(ctx, "Processing activity event",
		"event_id", event.EventID,
		applog.FieldEventKind, string(event.Kind))

	if err := w.recorder.Record(ctx, event); err != nil {
		w.failed.Add(1)
		w.logger.ErrorContext(ctx, "Failed to record activity event",
			"event_id", event.EventID,
			applog.FieldEventKind, string(event.Kind),
			applog.FieldError, err.Error())
		return fmt.Errorf("record activity %s: %w", event.EventID, err)
	}

	w.processed.Add(1)
	w.lastEvent.Store(time.Now().UnixMilli())
	return nil
}

// Run consumes events until ctx is cancelled.
func (w *ActivityWorker) Run(ctx context.Context, consumer Consumer) error {
	w.logger.Info("Starting activity consumption")
	return consumer.ConsumeActivity(ctx, w.HandleActivity)
}

// Stats is a snapshot of the worker counters.
type Stats struct {
	Processed int64
	Failed    int64
	LastEvent time.Time
}

func (w *ActivityWorker) Stats() Stats {
	s := Stats{Processed: w.processed.Load(), Failed: w.failed.Load()}
	if ms := w.lastEvent.Load(); ms > 0 {
		s.LastEvent = time.UnixMilli(ms)
	}
	return s
}

// ReportStatus logs the worker counters every interval until ctx is done.
func (w *ActivityWorker) ReportStatus(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			s := w.Stats()
			args := []any{"processed", s.Processed, "failed", s.Failed}
			if !s.LastEvent.IsZero() {
				args = append(args, "last_event", s.LastEvent.Format(time.RFC3339))
			}
			w.logger.InfoContext(ctx, "Activity worker status", args...)
		}
	}
}
