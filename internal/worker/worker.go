// Package worker runs sync batches on a cron schedule and on demand from
// the request queue.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"anggaran/internal/amqp"
	"anggaran/internal/services"
)

// Syncer runs one full sync batch against the configured source.
type Syncer interface {
	SyncAll(ctx context.Context) (*services.Report, error)
}

// Publisher emits completion events after each batch. Optional.
type Publisher interface {
	PublishSyncCompleted(ctx context.Context, msg *amqp.SyncCompletedMessage) error
}

// Config controls when batches run.
type Config struct {
	Cron     string         // standard 5-field schedule, empty disables the timer
	OnStart  bool           // run one batch as soon as Start is called
	Location *time.Location // nil means time.Local
}

// Worker owns the schedule and serializes batches: the cron timer and the
// queue consumer share one sync service, and overlapping full syncs would
// just repeat each other's work.
type Worker struct {
	syncer    Syncer
	publisher Publisher
	config    Config

	cron *cron.Cron
	mu   sync.Mutex

	batchesRun    int64
	batchesFailed int64
}

func New(syncer Syncer, publisher Publisher, config Config) *Worker {
	return &Worker{
		syncer:    syncer,
		publisher: publisher,
		config:    config,
	}
}

// Start runs the startup batch if configured and arms the cron timer.
// It does not block; Stop tears the timer down.
func (w *Worker) Start(ctx context.Context) error {
	if w.config.OnStart {
		if _, err := w.RunBatch(ctx, "startup"); err != nil {
			slog.ErrorContext(ctx, "Startup sync failed", "error", err)
		}
	}

	if w.config.Cron == "" {
		slog.InfoContext(ctx, "No sync schedule configured, running on demand only")
		return nil
	}

	location := w.config.Location
	if location == nil {
		location = time.Local
	}

	c := cron.New(cron.WithLocation(location))
	_, err := c.AddFunc(w.config.Cron, func() {
		if _, err := w.RunBatch(context.Background(), "schedule"); err != nil {
			slog.Error("Scheduled sync failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sync schedule %q: %w", w.config.Cron, err)
	}

	c.Start()
	w.cron = c
	slog.InfoContext(ctx, "Sync schedule armed", "cron", w.config.Cron, "location", location.String())
	return nil
}

// Stop disarms the cron timer and waits for a running scheduled batch.
func (w *Worker) Stop() {
	if w.cron != nil {
		<-w.cron.Stop().Done()
	}
}

// HandleSyncRequest processes one message from the request queue.
func (w *Worker) HandleSyncRequest(ctx context.Context, msg *amqp.SyncRequestMessage) error {
	slog.InfoContext(ctx, "Processing sync request",
		"requested_by", msg.RequestedBy,
		"requested_at", msg.Timestamp.Format(time.RFC3339))

	_, err := w.RunBatch(ctx, "queue")
	return err
}

// RunBatch executes one full sync and publishes the completion event.
// Batches are serialized; a second caller blocks until the first is done.
func (w *Worker) RunBatch(ctx context.Context, trigger string) (*services.Report, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	slog.InfoContext(ctx, "Sync batch started", "trigger", trigger)

	report, err := w.syncer.SyncAll(ctx)
	if err != nil {
		atomic.AddInt64(&w.batchesFailed, 1)
		return nil, fmt.Errorf("sync batch: %w", err)
	}
	atomic.AddInt64(&w.batchesRun, 1)

	slog.InfoContext(ctx, "Sync batch finished",
		"batch_id", report.BatchID,
		"trigger", trigger,
		"created", report.Created,
		"updated", report.Updated,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"duration", report.Duration.Round(time.Millisecond).String())

	if w.publisher != nil {
		msg := amqp.NewSyncCompletedMessage(report.BatchID,
			report.Created, report.Updated, report.Skipped, report.Failed, report.Duration)
		if err := w.publisher.PublishSyncCompleted(ctx, msg); err != nil {
			// The batch itself succeeded, so a lost event is not fatal.
			slog.WarnContext(ctx, "Failed to publish sync completion",
				"batch_id", report.BatchID, "error", err)
		}
	}

	return report, nil
}

// Metrics reports batch counters for the worker's own logging.
type Metrics struct {
	BatchesRun    int64
	BatchesFailed int64
}

func (w *Worker) GetMetrics() Metrics {
	return Metrics{
		BatchesRun:    atomic.LoadInt64(&w.batchesRun),
		BatchesFailed: atomic.LoadInt64(&w.batchesFailed),
	}
}
