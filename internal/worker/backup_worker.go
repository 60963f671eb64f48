// Package worker drains the backup queue: it consumes backup events
// from AMQP, mirrors the referenced transactions to the secondary
// store and keeps the per-row backup status current. A periodic sweep
// re-mirrors rows whose events were lost while the worker was down.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/uestliguci/LifestyleCalculator/internal/amqp"
	"github.com/uestliguci/LifestyleCalculator/internal/core"
)

// Mirror is the secondary copy the worker writes to.
type Mirror interface {
	Upsert(ctx context.Context, t core.Transaction) error
	Delete(ctx context.Context, id string) error
}

// Queue combines record access with backup bookkeeping. The sqlite
// backend satisfies it directly.
type Queue interface {
	Get(ctx context.Context, id string) (core.Transaction, error)
	PendingBackup(ctx context.Context, limit int) ([]core.Transaction, error)
	MarkBackedUp(ctx context.Context, id string) error
	MarkBackupError(ctx context.Context, id string) error
}

type BackupWorker struct {
	queue     Queue
	mirror    Mirror
	batchSize int
}

func NewBackupWorker(queue Queue, mirror Mirror, batchSize int) *BackupWorker {
	return &BackupWorker{
		queue:     queue,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleMessage processes one backup event from AMQP. Returning an
// error requeues the message.
func (w *BackupWorker) HandleMessage(ctx context.Context, msg *amqp.BackupMessage) error {
	slog.InfoContext(ctx, "Processing backup message", "id", msg.ID, "op", msg.Op)

	switch msg.Op {
	case amqp.OpDelete:
		if err := w.mirror.Delete(ctx, msg.ID); err != nil {
			return fmt.Errorf("delete from mirror: %w", err)
		}
		return nil
	case amqp.OpUpsert:
		return w.mirrorRecord(ctx, msg.ID)
	default:
		// Unknown ops are dropped, requeueing would loop forever.
		slog.WarnContext(ctx, "Unknown backup op, dropping message", "id", msg.ID, "op", msg.Op)
		return nil
	}
}

// mirrorRecord reads the row and writes it to the mirror, recording the
// outcome in the backup status column.
func (w *BackupWorker) mirrorRecord(ctx context.Context, id string) error {
	t, err := w.queue.Get(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// Deleted between the event and now; nothing to mirror.
			slog.InfoContext(ctx, "Transaction gone before backup, skipping", "id", id)
			return nil
		}
		return fmt.Errorf("get transaction: %w", err)
	}

	if err := w.mirror.Upsert(ctx, t); err != nil {
		if markErr := w.queue.MarkBackupError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark backup error", "id", id, "error", markErr)
		}
		return fmt.Errorf("mirror transaction: %w", err)
	}

	if err := w.queue.MarkBackedUp(ctx, id); err != nil {
		// The mirror write landed; only the bookkeeping failed.
		slog.ErrorContext(ctx, "Failed to mark as backed up", "id", id, "error", err)
	}

	slog.InfoContext(ctx, "Transaction backed up", "id", id, "amount_cents", t.Amount.Cents)
	return nil
}

// ProcessPending mirrors up to batchSize rows still marked pending.
// It backs the AMQP path up against lost messages.
func (w *BackupWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.queue.PendingBackup(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending backups: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending backups", "count", len(pending))
	for _, t := range pending {
		if err := w.mirrorRecord(ctx, t.ID); err != nil {
			slog.ErrorContext(ctx, "Failed to back up pending transaction", "id", t.ID, "error", err)
		}
	}
	return nil
}

// StartupCheck drains a larger backlog accumulated while the worker was
// down.
func (w *BackupWorker) StartupCheck(ctx context.Context) error {
	pending, err := w.queue.PendingBackup(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending backups for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending backups found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending backups on startup, processing...", "count", len(pending))
	synced, failed := 0, 0
	for _, t := range pending {
		if err := w.mirrorRecord(ctx, t.ID); err != nil {
			slog.ErrorContext(ctx, "Startup backup failed", "id", t.ID, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup backup check completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)
	return nil
}

// RunSweep re-checks for pending rows on each tick until ctx ends.
func (w *BackupWorker) RunSweep(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.ProcessPending(ctx); err != nil {
				slog.ErrorContext(ctx, "Backup sweep failed", "error", err)
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
