package worker

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"ledger/internal/amqp"
	"ledger/internal/core"
	applog "ledger/internal/log"
)

type fakeRecorder struct {
	seen map[string]bool
	err  error
}

func (f *fakeRecorder) Record(_ context.Context, event *amqp.ActivityEvent) error {
	if f.err != nil {
		return f.err
	}
	f.seen[event.EventID] = true
	return nil
}

type fakeConsumer struct {
	events []*amqp.ActivityEvent
}

func (f *fakeConsumer) ConsumeActivity(ctx context.Context, handler func(context.Context, *amqp.ActivityEvent) error) error {
	for _, e := range f.events {
		if err := handler(ctx, e); err != nil {
			return err
		}
	}
	return nil
}

func testLogger() *applog.Logger {
	return applog.New(applog.Config{Output: io.Discard})
}

func TestActivityWorker_HandleActivity(t *testing.T) {
	rec := &fakeRecorder{seen: map[string]bool{}}
	w := NewActivityWorker(rec, testLogger())

	event := amqp.NewActivityEvent(core.ActivityTransactionCreated, 1, 2)
	if err := w.HandleActivity(context.Background(), event); err != nil {
		t.Fatalf("HandleActivity() error = %v", err)
	}
	if !rec.seen[event.EventID] {
		t.Error("event was not recorded")
	}

	stats := w.Stats()
	if stats.Processed != 1 || stats.Failed != 0 {
		t.Errorf("Stats() = %+v, want 1 processed, 0 failed", stats)
	}
	if stats.LastEvent.IsZero() {
		t.Error("LastEvent should be set after a processed event")
	}
}

func TestActivityWorker_HandleActivityError(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("database is locked")}
	w := NewActivityWorker(rec, testLogger())

	err := w.HandleActivity(context.Background(), amqp.NewActivityEvent(core.ActivityImportCompleted, 1, 1))
	if err == nil {
		t.Fatal("expected error so the delivery is requeued")
	}
	if !errors.Is(err, rec.err) {
		t.Errorf("error %v does not wrap recorder error", err)
	}
	if got := w.Stats().Failed; got != 1 {
		t.Errorf("Failed = %d, want 1", got)
	}
}

func TestActivityWorker_Run(t *testing.T) {
	rec := &fakeRecorder{seen: map[string]bool{}}
	w := NewActivityWorker(rec, testLogger())
	consumer := &fakeConsumer{events: []*amqp.ActivityEvent{
		amqp.NewActivityEvent(core.ActivityTransactionCreated, 1, 1),
		amqp.NewActivityEvent(core.ActivityTransactionDeleted, 1, 1),
	}}

	if err := w.Run(context.Background(), consumer); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(rec.seen) != 2 {
		t.Errorf("recorded %d events, want 2", len(rec.seen))
	}
}

func TestActivityWorker_ReportStatusStops(t *testing.T) {
	w := NewActivityWorker(&fakeRecorder{seen: map[string]bool{}}, testLogger())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- w.ReportStatus(ctx, 10*time.Millisecond) }()

	time.Sleep(25 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("ReportStatus() error = %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("ReportStatus did not stop after cancel")
	}
}
