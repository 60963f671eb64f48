package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/uestliguci/LifestyleCalculator/internal/amqp"
	"github.com/uestliguci/LifestyleCalculator/internal/core"
)

type fakeQueue struct {
	records  map[string]core.Transaction
	pending  []string
	backedUp []string
	failed   []string
}

func newFakeQueue(txs ...core.Transaction) *fakeQueue {
	q := &fakeQueue{records: make(map[string]core.Transaction)}
	for _, t := range txs {
		q.records[t.ID] = t
		q.pending = append(q.pending, t.ID)
	}
	return q
}

func (q *fakeQueue) Get(_ context.Context, id string) (core.Transaction, error) {
	t, ok := q.records[id]
	if !ok {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, nil
}

func (q *fakeQueue) PendingBackup(_ context.Context, limit int) ([]core.Transaction, error) {
	var out []core.Transaction
	for _, id := range q.pending {
		if len(out) == limit {
			break
		}
		out = append(out, q.records[id])
	}
	return out, nil
}

func (q *fakeQueue) MarkBackedUp(_ context.Context, id string) error {
	q.backedUp = append(q.backedUp, id)
	for i, p := range q.pending {
		if p == id {
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			break
		}
	}
	return nil
}

func (q *fakeQueue) MarkBackupError(_ context.Context, id string) error {
	q.failed = append(q.failed, id)
	return nil
}

type fakeMirror struct {
	upserts []string
	deletes []string
	fail    bool
}

func (m *fakeMirror) Upsert(_ context.Context, t core.Transaction) error {
	if m.fail {
		return errors.New("sheets unavailable")
	}
	m.upserts = append(m.upserts, t.ID)
	return nil
}

func (m *fakeMirror) Delete(_ context.Context, id string) error {
	if m.fail {
		return errors.New("sheets unavailable")
	}
	m.deletes = append(m.deletes, id)
	return nil
}

func tx(id string) core.Transaction {
	return core.Transaction{
		ID:        id,
		Type:      core.Expense,
		Amount:    core.Money{Cents: 500},
		Category:  "Food",
		Date:      "2024-01-05T10:00:00.000Z",
		Timestamp: "2024-01-05T10:00:00.000Z",
		UserID:    "u1",
	}
}

func TestHandleUpsertMessage(t *testing.T) {
	q := newFakeQueue(tx("t1"))
	m := &fakeMirror{}
	w := NewBackupWorker(q, m, 10)

	msg := amqp.NewBackupMessage("t1", amqp.OpUpsert)
	if err := w.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(m.upserts) != 1 || m.upserts[0] != "t1" {
		t.Fatalf("mirror upserts = %v", m.upserts)
	}
	if len(q.backedUp) != 1 || q.backedUp[0] != "t1" {
		t.Fatalf("backup status not updated: %v", q.backedUp)
	}
}

func TestHandleDeleteMessage(t *testing.T) {
	q := newFakeQueue()
	m := &fakeMirror{}
	w := NewBackupWorker(q, m, 10)

	msg := amqp.NewBackupMessage("t9", amqp.OpDelete)
	if err := w.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if len(m.deletes) != 1 || m.deletes[0] != "t9" {
		t.Fatalf("mirror deletes = %v", m.deletes)
	}
}

func TestHandleMessageRecordGone(t *testing.T) {
	q := newFakeQueue()
	m := &fakeMirror{}
	w := NewBackupWorker(q, m, 10)

	// The record was deleted between publish and consume; the message
	// must be acked, not requeued.
	msg := amqp.NewBackupMessage("missing", amqp.OpUpsert)
	if err := w.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("expected nil for vanished record, got %v", err)
	}
	if len(m.upserts) != 0 {
		t.Fatalf("nothing should have been mirrored: %v", m.upserts)
	}
}

func TestHandleMessageMirrorFailure(t *testing.T) {
	q := newFakeQueue(tx("t1"))
	m := &fakeMirror{fail: true}
	w := NewBackupWorker(q, m, 10)

	msg := amqp.NewBackupMessage("t1", amqp.OpUpsert)
	if err := w.HandleMessage(context.Background(), msg); err == nil {
		t.Fatal("expected error so the message is requeued")
	}
	if len(q.failed) != 1 || q.failed[0] != "t1" {
		t.Fatalf("backup error not recorded: %v", q.failed)
	}
	if len(q.backedUp) != 0 {
		t.Fatalf("failed mirror marked as backed up: %v", q.backedUp)
	}
}

func TestHandleMessageUnknownOp(t *testing.T) {
	w := NewBackupWorker(newFakeQueue(), &fakeMirror{}, 10)
	msg := amqp.NewBackupMessage("t1", "compact")
	if err := w.HandleMessage(context.Background(), msg); err != nil {
		t.Fatalf("unknown op must be dropped without requeue: %v", err)
	}
}

func TestProcessPendingRespectsBatchSize(t *testing.T) {
	q := newFakeQueue(tx("t1"), tx("t2"), tx("t3"))
	m := &fakeMirror{}
	w := NewBackupWorker(q, m, 2)

	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if len(m.upserts) != 2 {
		t.Fatalf("expected batch of 2, mirrored %d", len(m.upserts))
	}

	// The next sweep picks up the remainder.
	if err := w.ProcessPending(context.Background()); err != nil {
		t.Fatalf("ProcessPending: %v", err)
	}
	if len(m.upserts) != 3 {
		t.Fatalf("expected all 3 mirrored, got %d", len(m.upserts))
	}
}

func TestStartupCheckDrainsBacklog(t *testing.T) {
	q := newFakeQueue(tx("t1"), tx("t2"))
	m := &fakeMirror{}
	w := NewBackupWorker(q, m, 10)

	if err := w.StartupCheck(context.Background()); err != nil {
		t.Fatalf("StartupCheck: %v", err)
	}
	if len(q.pending) != 0 {
		t.Fatalf("backlog not drained: %v", q.pending)
	}
}
