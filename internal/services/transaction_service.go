// Package services orchestrates the write path: validation, ownership,
// merge semantics and best-effort backup publication sit here, keeping
// the storage backends to plain CRUD.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/uestliguci/LifestyleCalculator/internal/amqp"
	"github.com/uestliguci/LifestyleCalculator/internal/core"
	"github.com/uestliguci/LifestyleCalculator/internal/storage"
)

// BackupPublisher emits backup events for the worker. Implementations
// must be safe for concurrent use; a nil publisher disables backups.
type BackupPublisher interface {
	PublishBackup(ctx context.Context, id, op string) error
}

// TransactionService gates every mutation through the validator and
// enforces the ownership policy before anything reaches the store.
type TransactionService struct {
	store  storage.Store
	backup BackupPublisher
}

func NewTransactionService(store storage.Store, backup BackupPublisher) *TransactionService {
	return &TransactionService{store: store, backup: backup}
}

// TransactionPatch is a partial transaction update. Nil fields keep the
// prior record's value (shallow-merge semantics).
type TransactionPatch struct {
	Type        *core.TransactionType `json:"type,omitempty"`
	Amount      *core.Money           `json:"amount,omitempty"`
	Category    *string               `json:"category,omitempty"`
	Description *string               `json:"description,omitempty"`
	Date        *string               `json:"date,omitempty"`
}

// List returns the caller's transactions in insertion order. An empty
// userID lists every record.
func (s *TransactionService) List(ctx context.Context, userID string) ([]core.Transaction, error) {
	txs, err := s.store.List(ctx, storage.Filter{UserID: userID})
	if err != nil {
		return nil, &core.PersistenceError{Op: "list", Err: err}
	}
	return txs, nil
}

// Create validates and stores a new transaction for userID. ID and
// Timestamp are backfilled when absent, so clients may omit them; the
// complete record must still pass the full validation contract.
func (s *TransactionService) Create(ctx context.Context, userID string, t core.Transaction) (core.Transaction, error) {
	t.UserID = userID
	if t.ID == "" {
		t.ID = core.NewID()
	}
	if t.Timestamp == "" {
		t.Timestamp = core.Now()
	}
	t.LastModified = ""

	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.Add(ctx, t); err != nil {
		if errors.Is(err, storage.ErrDuplicateID) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, &core.PersistenceError{Op: "add", Err: err}
	}

	s.publishBackup(ctx, t.ID, amqp.OpUpsert)
	return t, nil
}

// Update merges patch onto the existing record, validates the result and
// replaces it, setting LastModified. The record must belong to userID.
func (s *TransactionService) Update(ctx context.Context, userID, id string, patch TransactionPatch) (core.Transaction, error) {
	existing, err := s.fetchOwned(ctx, userID, id)
	if err != nil {
		return core.Transaction{}, err
	}

	merged := existing
	if patch.Type != nil {
		merged.Type = *patch.Type
	}
	if patch.Amount != nil {
		merged.Amount = *patch.Amount
	}
	if patch.Category != nil {
		merged.Category = *patch.Category
	}
	if patch.Description != nil {
		merged.Description = *patch.Description
	}
	if patch.Date != nil {
		merged.Date = *patch.Date
	}
	merged.LastModified = core.Now()

	if err := merged.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.Update(ctx, merged); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, &core.PersistenceError{Op: "update", Err: err}
	}

	s.publishBackup(ctx, merged.ID, amqp.OpUpsert)
	return merged, nil
}

// Delete removes the record after the ownership check.
func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.fetchOwned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.Remove(ctx, id); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return err
		}
		return &core.PersistenceError{Op: "remove", Err: err}
	}

	s.publishBackup(ctx, id, amqp.OpDelete)
	return nil
}

// Export assembles the full document for the user: transactions,
// settings and the export date.
func (s *TransactionService) Export(ctx context.Context, userID string) (storage.Document, error) {
	txs, err := s.List(ctx, userID)
	if err != nil {
		return storage.Document{}, err
	}
	settings, err := s.Settings(ctx, userID)
	if err != nil {
		return storage.Document{}, err
	}
	if txs == nil {
		txs = []core.Transaction{}
	}
	return storage.Document{
		Transactions: txs,
		Settings:     &settings,
		ExportDate:   core.Now(),
	}, nil
}

// Import wholesale-replaces the user's collection with the document's
// transactions, and the settings when present. Either the whole import
// succeeds or nothing changes. Record ownership is coerced to userID.
func (s *TransactionService) Import(ctx context.Context, userID string, doc storage.Document) error {
	if doc.Transactions == nil {
		return &core.ImportError{Reason: "transactions field must be an array"}
	}

	seen := make(map[string]bool, len(doc.Transactions))
	txs := make([]core.Transaction, 0, len(doc.Transactions))
	for i, t := range doc.Transactions {
		t.UserID = userID
		if err := t.Validate(); err != nil {
			return &core.ImportError{Reason: fmt.Sprintf("transaction %d is invalid", i), Err: err}
		}
		if seen[t.ID] {
			return &core.ImportError{Reason: fmt.Sprintf("duplicate transaction id %q", t.ID)}
		}
		seen[t.ID] = true
		txs = append(txs, t)
	}

	if err := s.store.ReplaceAll(ctx, userID, txs, doc.Settings); err != nil {
		return &core.ImportError{Reason: "replace collection", Err: err}
	}

	slog.InfoContext(ctx, "Import applied", "user_id", userID, "count", len(txs))
	return nil
}

// Settings returns the user's settings, with defaults on first access.
func (s *TransactionService) Settings(ctx context.Context, userID string) (core.Settings, error) {
	st, err := s.store.GetSettings(ctx, userID)
	if err != nil {
		return core.Settings{}, &core.PersistenceError{Op: "get settings", Err: err}
	}
	return st, nil
}

// UpdateSettings applies a shallow-merge patch and stores the result.
func (s *TransactionService) UpdateSettings(ctx context.Context, userID string, patch core.SettingsPatch) (core.Settings, error) {
	current, err := s.Settings(ctx, userID)
	if err != nil {
		return core.Settings{}, err
	}
	merged := current.Merge(patch)
	if err := s.store.PutSettings(ctx, userID, merged); err != nil {
		return core.Settings{}, &core.PersistenceError{Op: "put settings", Err: err}
	}
	return merged, nil
}

func (s *TransactionService) fetchOwned(ctx context.Context, userID, id string) (core.Transaction, error) {
	existing, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Transaction{}, err
		}
		return core.Transaction{}, &core.PersistenceError{Op: "get", Err: err}
	}
	if existing.UserID != userID {
		return core.Transaction{}, core.ErrUnauthorized
	}
	return existing, nil
}

// publishBackup is deliberately best-effort: a failed backup event is
// logged and never surfaced, so the primary write always wins.
func (s *TransactionService) publishBackup(ctx context.Context, id, op string) {
	if s.backup == nil {
		return
	}
	if err := s.backup.PublishBackup(ctx, id, op); err != nil {
		slog.ErrorContext(ctx, "Failed to publish backup message",
			"id", id, "op", op, "error", err)
	}
}
