package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"anggaran/internal/amqp"
	"anggaran/internal/services"
)

type fakeSyncer struct {
	mu     sync.Mutex
	calls  int
	report *services.Report
	err    error
}

func (f *fakeSyncer) SyncAll(_ context.Context) (*services.Report, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.report, nil
}

func (f *fakeSyncer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type capturingPublisher struct {
	mu   sync.Mutex
	msgs []*amqp.SyncCompletedMessage
	err  error
}

func (p *capturingPublisher) PublishSyncCompleted(_ context.Context, msg *amqp.SyncCompletedMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, msg)
	return nil
}

func sampleReport() *services.Report {
	return &services.Report{
		BatchID:  "batch-1",
		Created:  2,
		Updated:  1,
		Skipped:  3,
		Failed:   0,
		Duration: 120 * time.Millisecond,
	}
}

func TestRunBatchPublishesCompletion(t *testing.T) {
	syncer := &fakeSyncer{report: sampleReport()}
	publisher := &capturingPublisher{}
	w := New(syncer, publisher, Config{})

	report, err := w.RunBatch(context.Background(), "test")
	if err != nil {
		t.Fatalf("RunBatch() error = %v", err)
	}
	if report.BatchID != "batch-1" {
		t.Errorf("RunBatch() batch id = %q, want batch-1", report.BatchID)
	}

	if len(publisher.msgs) != 1 {
		t.Fatalf("published %d completion events, want 1", len(publisher.msgs))
	}
	msg := publisher.msgs[0]
	if msg.BatchID != "batch-1" || msg.Created != 2 || msg.Updated != 1 || msg.Skipped != 3 {
		t.Errorf("completion event = %+v, does not match report", msg)
	}

	if got := w.GetMetrics(); got.BatchesRun != 1 || got.BatchesFailed != 0 {
		t.Errorf("GetMetrics() = %+v, want 1 run and 0 failed", got)
	}
}

func TestRunBatchSyncerError(t *testing.T) {
	syncer := &fakeSyncer{err: errors.New("source unreachable")}
	publisher := &capturingPublisher{}
	w := New(syncer, publisher, Config{})

	if _, err := w.RunBatch(context.Background(), "test"); err == nil {
		t.Fatal("RunBatch() error = nil, want sync failure")
	}
	if len(publisher.msgs) != 0 {
		t.Errorf("published %d events after a failed batch, want 0", len(publisher.msgs))
	}
	if got := w.GetMetrics(); got.BatchesFailed != 1 {
		t.Errorf("GetMetrics() failed = %d, want 1", got.BatchesFailed)
	}
}

func TestRunBatchPublisherErrorIsNotFatal(t *testing.T) {
	syncer := &fakeSyncer{report: sampleReport()}
	publisher := &capturingPublisher{err: errors.New("broker down")}
	w := New(syncer, publisher, Config{})

	if _, err := w.RunBatch(context.Background(), "test"); err != nil {
		t.Fatalf("RunBatch() error = %v, want nil when only the event publish fails", err)
	}
}

func TestRunBatchWithoutPublisher(t *testing.T) {
	w := New(&fakeSyncer{report: sampleReport()}, nil, Config{})

	if _, err := w.RunBatch(context.Background(), "test"); err != nil {
		t.Fatalf("RunBatch() error = %v", err)
	}
}

func TestHandleSyncRequest(t *testing.T) {
	syncer := &fakeSyncer{report: sampleReport()}
	w := New(syncer, nil, Config{})

	msg := amqp.NewSyncRequestMessage("api")
	if err := w.HandleSyncRequest(context.Background(), msg); err != nil {
		t.Fatalf("HandleSyncRequest() error = %v", err)
	}
	if syncer.callCount() != 1 {
		t.Errorf("syncer ran %d times, want 1", syncer.callCount())
	}
}

func TestStartRunsStartupBatch(t *testing.T) {
	syncer := &fakeSyncer{report: sampleReport()}
	w := New(syncer, nil, Config{OnStart: true})

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	if syncer.callCount() != 1 {
		t.Errorf("startup ran %d batches, want 1", syncer.callCount())
	}
}

func TestStartRejectsInvalidSchedule(t *testing.T) {
	w := New(&fakeSyncer{report: sampleReport()}, nil, Config{Cron: "every full moon"})

	if err := w.Start(context.Background()); err == nil {
		t.Fatal("Start() accepted a malformed schedule")
	}
}

func TestStopWithoutSchedule(t *testing.T) {
	w := New(&fakeSyncer{report: sampleReport()}, nil, Config{})

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	w.Stop()
}
