package services

import (
	"context"
	"errors"
	"testing"

	"github.com/uestliguci/LifestyleCalculator/internal/core"
	"github.com/uestliguci/LifestyleCalculator/internal/storage"
	"github.com/uestliguci/LifestyleCalculator/internal/storage/memory"
)

type recordingPublisher struct {
	published []string
	fail      bool
}

func (p *recordingPublisher) PublishBackup(_ context.Context, id, op string) error {
	if p.fail {
		return errors.New("broker down")
	}
	p.published = append(p.published, op+":"+id)
	return nil
}

func newService() (*TransactionService, *recordingPublisher) {
	pub := &recordingPublisher{}
	return NewTransactionService(memory.New(), pub), pub
}

func draft() core.Transaction {
	return core.Transaction{
		Type:     core.Expense,
		Amount:   core.Money{Cents: 1250},
		Category: "Food",
		Date:     "2024-01-05T10:00:00.000Z",
	}
}

func TestCreateBackfillsAndLists(t *testing.T) {
	svc, pub := newService()
	ctx := context.Background()

	created, err := svc.Create(ctx, "u1", draft())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || !core.ValidInstant(created.Timestamp) {
		t.Fatalf("id/timestamp not backfilled: %+v", created)
	}
	if created.UserID != "u1" {
		t.Fatalf("user not stamped: %+v", created)
	}

	txs, err := svc.List(ctx, "u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected one transaction, got %d", len(txs))
	}
	got := txs[0]
	want := draft()
	if got.Type != want.Type || got.Amount != want.Amount || got.Category != want.Category || got.Date != want.Date {
		t.Fatalf("stored record differs from input:\n got %+v\nwant %+v", got, want)
	}
	if len(pub.published) != 1 || pub.published[0] != "upsert:"+created.ID {
		t.Fatalf("backup not published: %v", pub.published)
	}
}

func TestCreateRejectsInvalid(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	bad := draft()
	bad.Amount = core.Money{Cents: -100}
	_, err := svc.Create(ctx, "u1", bad)
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if _, ok := verr.Fields["amount"]; !ok {
		t.Fatalf("expected amount error key, got %v", verr.Fields)
	}

	txs, _ := svc.List(ctx, "u1")
	if len(txs) != 0 {
		t.Fatalf("invalid create mutated store: %+v", txs)
	}
}

func TestCreateSurvivesBackupFailure(t *testing.T) {
	pub := &recordingPublisher{fail: true}
	svc := NewTransactionService(memory.New(), pub)
	ctx := context.Background()

	if _, err := svc.Create(ctx, "u1", draft()); err != nil {
		t.Fatalf("backup failure must not fail the write: %v", err)
	}
	txs, _ := svc.List(ctx, "u1")
	if len(txs) != 1 {
		t.Fatalf("transaction not stored: %+v", txs)
	}
}

func TestUpdateMergesAndSetsLastModified(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	created, _ := svc.Create(ctx, "u1", draft())

	newAmount := core.Money{Cents: 9900}
	updated, err := svc.Update(ctx, "u1", created.ID, TransactionPatch{Amount: &newAmount})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Amount.Cents != 9900 {
		t.Fatalf("amount not updated: %+v", updated)
	}
	// Unspecified fields retained from the prior record.
	if updated.Category != created.Category || updated.Date != created.Date || updated.Timestamp != created.Timestamp {
		t.Fatalf("merge lost fields:\n got %+v\nwas %+v", updated, created)
	}
	if !core.ValidInstant(updated.LastModified) {
		t.Fatalf("lastModified not set: %+v", updated)
	}
}

func TestUpdateValidatesMergedResult(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	created, _ := svc.Create(ctx, "u1", draft())

	badType := core.TransactionType("transfer")
	_, err := svc.Update(ctx, "u1", created.ID, TransactionPatch{Type: &badType})
	var verr *core.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}

	// The stored record is untouched.
	txs, _ := svc.List(ctx, "u1")
	if txs[0].Type != core.Expense {
		t.Fatalf("failed update mutated record: %+v", txs[0])
	}
}

func TestUpdateMissingLeavesStoreUntouched(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	svc.Create(ctx, "u1", draft())

	cat := "Travel"
	_, err := svc.Update(ctx, "u1", "no-such-id", TransactionPatch{Category: &cat})
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	txs, _ := svc.List(ctx, "u1")
	if len(txs) != 1 || txs[0].Category != "Food" {
		t.Fatalf("collection mutated: %+v", txs)
	}
}

func TestOwnershipPolicy(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	created, _ := svc.Create(ctx, "u1", draft())

	cat := "Travel"
	if _, err := svc.Update(ctx, "u2", created.ID, TransactionPatch{Category: &cat}); !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := svc.Delete(ctx, "u2", created.ID); !errors.Is(err, core.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	// The owner can still delete it.
	if err := svc.Delete(ctx, "u1", created.ID); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
}

func TestDeletePublishesDeleteOp(t *testing.T) {
	svc, pub := newService()
	ctx := context.Background()
	created, _ := svc.Create(ctx, "u1", draft())
	if err := svc.Delete(ctx, "u1", created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	last := pub.published[len(pub.published)-1]
	if last != "delete:"+created.ID {
		t.Fatalf("expected delete event, got %v", pub.published)
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	svc.Create(ctx, "u1", draft())
	income := draft()
	income.Type = core.Income
	income.Category = "Salary"
	svc.Create(ctx, "u1", income)

	doc, err := svc.Export(ctx, "u1")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if len(doc.Transactions) != 2 || doc.Settings == nil || !core.ValidInstant(doc.ExportDate) {
		t.Fatalf("unexpected document: %+v", doc)
	}

	// Import into a fresh service and compare collections.
	fresh, _ := newService()
	if err := fresh.Import(ctx, "u1", doc); err != nil {
		t.Fatalf("import: %v", err)
	}
	before, _ := svc.List(ctx, "u1")
	after, _ := fresh.List(ctx, "u1")
	if len(before) != len(after) {
		t.Fatalf("round trip lost records: %d vs %d", len(before), len(after))
	}
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("record %d differs:\n got %+v\nwant %+v", i, after[i], before[i])
		}
	}
}

func TestImportReplacesWholesale(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	svc.Create(ctx, "u1", draft())

	replacement := draft()
	replacement.ID = "imported-1"
	replacement.Timestamp = "2024-01-01T00:00:00.000Z"
	replacement.UserID = "u1"
	err := svc.Import(ctx, "u1", storage.Document{Transactions: []core.Transaction{replacement}})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	txs, _ := svc.List(ctx, "u1")
	if len(txs) != 1 || txs[0].ID != "imported-1" {
		t.Fatalf("collection not replaced: %+v", txs)
	}
}

// brokenReplaceStore refuses wholesale replacement, leaving the prior
// state in place.
type brokenReplaceStore struct {
	*memory.Store
}

func (s *brokenReplaceStore) ReplaceAll(context.Context, string, []core.Transaction, *core.Settings) error {
	return errors.New("disk full")
}

func TestImportAppliesSettingsWithCollection(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	record := draft()
	record.ID = "imported-1"
	record.Timestamp = "2024-01-01T00:00:00.000Z"
	st := core.DefaultSettings()
	st.Theme = "dark"
	doc := storage.Document{Transactions: []core.Transaction{record}, Settings: &st}
	if err := svc.Import(ctx, "u1", doc); err != nil {
		t.Fatalf("import: %v", err)
	}
	got, err := svc.Settings(ctx, "u1")
	if err != nil {
		t.Fatalf("settings: %v", err)
	}
	if got.Theme != "dark" {
		t.Fatalf("imported settings not applied: %+v", got)
	}

	// A store failure surfaces as an import error without touching
	// settings: both travel in the same ReplaceAll call.
	broken := NewTransactionService(&brokenReplaceStore{Store: memory.New()}, &recordingPublisher{})
	light := core.DefaultSettings()
	doc.Settings = &light
	var ierr *core.ImportError
	if err := broken.Import(ctx, "u1", doc); !errors.As(err, &ierr) {
		t.Fatalf("expected *ImportError, got %v", err)
	}
	got, _ = broken.Settings(ctx, "u1")
	if got.Theme != "light" {
		t.Fatalf("failed import mutated settings: %+v", got)
	}
}

func TestImportRejectsBadShapeWithoutMutating(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	svc.Create(ctx, "u1", draft())

	var ierr *core.ImportError
	err := svc.Import(ctx, "u1", storage.Document{Transactions: nil})
	if !errors.As(err, &ierr) {
		t.Fatalf("expected *ImportError for nil transactions, got %v", err)
	}

	invalid := draft() // no id/timestamp: fails the full contract on import
	err = svc.Import(ctx, "u1", storage.Document{Transactions: []core.Transaction{invalid}})
	if !errors.As(err, &ierr) {
		t.Fatalf("expected *ImportError for invalid record, got %v", err)
	}

	txs, _ := svc.List(ctx, "u1")
	if len(txs) != 1 {
		t.Fatalf("failed import mutated state: %+v", txs)
	}
}

func TestSettingsMergeUpdate(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	theme := "dark"
	updated, err := svc.UpdateSettings(ctx, "u1", core.SettingsPatch{Theme: &theme})
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if updated.Theme != "dark" {
		t.Fatalf("theme not updated: %+v", updated)
	}
	// Untouched fields keep their defaults.
	if updated.Currency != "ALL" || !updated.Notifications {
		t.Fatalf("merge lost defaults: %+v", updated)
	}
}
