// Package storage defines the persistence contract shared by all
// backends. One polymorphic Store interface replaces the near-duplicate
// per-backend storage classes of earlier iterations.
package storage

import (
	"context"
	"errors"

	"github.com/uestliguci/LifestyleCalculator/internal/core"
)

var (
	// ErrDuplicateID is returned by Add when the id is already present.
	ErrDuplicateID = errors.New("transaction id already exists")

	ErrUserExists   = errors.New("username already registered")
	ErrUserNotFound = errors.New("user not found")
)

// Filter narrows List results. The zero value matches everything.
type Filter struct {
	UserID string
}

// User is a stored account record. Passwords never appear in plain text.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	CreatedAt    string
}

// Store is the transaction persistence contract. Implementations keep
// records individually (no whole-collection rewrite on point writes) and
// preserve insertion order in List. Update replaces the full record; merge
// semantics live in the service layer. Update and Remove return
// core.ErrNotFound when the id is absent.
type Store interface {
	List(ctx context.Context, f Filter) ([]core.Transaction, error)
	Get(ctx context.Context, id string) (core.Transaction, error)
	Add(ctx context.Context, t core.Transaction) error
	Update(ctx context.Context, t core.Transaction) error
	Remove(ctx context.Context, id string) error

	// ReplaceAll atomically swaps the user's whole collection for txs,
	// and the settings record too when settings is non-nil. Either
	// everything lands or nothing does.
	ReplaceAll(ctx context.Context, userID string, txs []core.Transaction, settings *core.Settings) error

	// GetSettings returns the user's settings, creating defaults on
	// first access. PutSettings stores the complete record.
	GetSettings(ctx context.Context, userID string) (core.Settings, error)
	PutSettings(ctx context.Context, userID string, s core.Settings) error

	Close() error
}

// UserStore is the account persistence contract used by auth.
type UserStore interface {
	CreateUser(ctx context.Context, u *User) error
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	GetUserByID(ctx context.Context, id string) (*User, error)
}

// BackupQueue exposes the backup bookkeeping the worker drains. Only
// durable backends implement it; the memory backend has nothing worth
// backing up.
type BackupQueue interface {
	PendingBackup(ctx context.Context, limit int) ([]core.Transaction, error)
	MarkBackedUp(ctx context.Context, id string) error
	MarkBackupError(ctx context.Context, id string) error
}

// Document is the persisted export/import shape. Export always fills
// settings; imports may omit it, keeping the current record.
type Document struct {
	Transactions []core.Transaction `json:"transactions"`
	Settings     *core.Settings     `json:"settings,omitempty"`
	ExportDate   string             `json:"exportDate"`
}
