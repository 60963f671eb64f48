// Package sqlite provides the durable Store backed by modernc.org/sqlite
// (pure Go, no CGO). Every transaction is one row; insertion order is
// rowid order, so List never depends on a rewritten blob.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/uestliguci/LifestyleCalculator/internal/core"
	"github.com/uestliguci/LifestyleCalculator/internal/storage"
)

var (
	_ storage.Store       = (*Store)(nil)
	_ storage.UserStore   = (*Store)(nil)
	_ storage.BackupQueue = (*Store)(nil)
)

type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at dbPath and applies migrations.
func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	if err := runMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

const txColumns = "id, user_id, type, amount_cents, category, description, date, timestamp, last_modified"

func scanTransaction(row interface{ Scan(...any) error }) (core.Transaction, error) {
	var t core.Transaction
	var typ string
	var lastModified sql.NullString
	err := row.Scan(&t.ID, &t.UserID, &typ, &t.Amount.Cents, &t.Category, &t.Description, &t.Date, &t.Timestamp, &lastModified)
	if err != nil {
		return core.Transaction{}, err
	}
	t.Type = core.TransactionType(typ)
	if lastModified.Valid {
		t.LastModified = lastModified.String
	}
	return t, nil
}

func (s *Store) List(ctx context.Context, f storage.Filter) ([]core.Transaction, error) {
	query := "SELECT " + txColumns + " FROM transactions"
	var args []any
	if f.UserID != "" {
		query += " WHERE user_id = ?"
		args = append(args, f.UserID)
	}
	query += " ORDER BY rowid"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id string) (core.Transaction, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+txColumns+" FROM transactions WHERE id = ?", id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return t, nil
}

func (s *Store) Add(ctx context.Context, t core.Transaction) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO transactions (id, user_id, type, amount_cents, category, description, date, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		t.ID, t.UserID, string(t.Type), t.Amount.Cents, t.Category, t.Description, t.Date, t.Timestamp)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return storage.ErrDuplicateID
		}
		return fmt.Errorf("insert transaction: %w", err)
	}
	slog.DebugContext(ctx, "Transaction saved",
		"id", t.ID,
		"type", t.Type,
		"amount_cents", t.Amount.Cents,
		"category", t.Category)
	return nil
}

func (s *Store) Update(ctx context.Context, t core.Transaction) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE transactions SET type = ?, amount_cents = ?, category = ?, description = ?, date = ?, timestamp = ?, last_modified = ?, backup_status = 'pending' WHERE id = ?",
		string(t.Type), t.Amount.Cents, t.Category, t.Description, t.Date, t.Timestamp, nullable(t.LastModified), t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM transactions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// ReplaceAll swaps the user's collection, and the settings record when
// settings is non-nil, inside one database transaction, so a failed
// import leaves prior state untouched.
func (s *Store) ReplaceAll(ctx context.Context, userID string, txs []core.Transaction, settings *core.Settings) error {
	dbtx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import transaction: %w", err)
	}
	defer dbtx.Rollback()

	if _, err := dbtx.ExecContext(ctx, "DELETE FROM transactions WHERE user_id = ?", userID); err != nil {
		return fmt.Errorf("clear collection: %w", err)
	}
	for _, t := range txs {
		_, err := dbtx.ExecContext(ctx,
			"INSERT INTO transactions (id, user_id, type, amount_cents, category, description, date, timestamp, last_modified) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
			t.ID, t.UserID, string(t.Type), t.Amount.Cents, t.Category, t.Description, t.Date, t.Timestamp, nullable(t.LastModified))
		if err != nil {
			return fmt.Errorf("insert imported transaction %s: %w", t.ID, err)
		}
	}
	if settings != nil {
		if err := upsertSettings(ctx, dbtx, userID, *settings); err != nil {
			return err
		}
	}
	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}

	slog.InfoContext(ctx, "Collection replaced", "user_id", userID, "count", len(txs))
	return nil
}

func (s *Store) GetSettings(ctx context.Context, userID string) (core.Settings, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT monthly_budget_cents, theme, currency, notifications, category_budgets FROM settings WHERE user_id = ?", userID)

	var st core.Settings
	var notifications int64
	var budgetsJSON string
	err := row.Scan(&st.MonthlyBudget.Cents, &st.Theme, &st.Currency, &notifications, &budgetsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		st = core.DefaultSettings()
		if err := s.PutSettings(ctx, userID, st); err != nil {
			return core.Settings{}, err
		}
		return st, nil
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}
	st.Notifications = notifications != 0
	if budgetsJSON != "" && budgetsJSON != "{}" {
		if err := json.Unmarshal([]byte(budgetsJSON), &st.CategoryBudgets); err != nil {
			return core.Settings{}, fmt.Errorf("decode category budgets: %w", err)
		}
	}
	return st, nil
}

func (s *Store) PutSettings(ctx context.Context, userID string, st core.Settings) error {
	return upsertSettings(ctx, s.db, userID, st)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsertSettings(ctx context.Context, db execer, userID string, st core.Settings) error {
	budgets := "{}"
	if len(st.CategoryBudgets) > 0 {
		b, err := json.Marshal(st.CategoryBudgets)
		if err != nil {
			return fmt.Errorf("encode category budgets: %w", err)
		}
		budgets = string(b)
	}
	notifications := 0
	if st.Notifications {
		notifications = 1
	}
	_, err := db.ExecContext(ctx,
		`INSERT INTO settings (user_id, monthly_budget_cents, theme, currency, notifications, category_budgets)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id) DO UPDATE SET
		   monthly_budget_cents = excluded.monthly_budget_cents,
		   theme = excluded.theme,
		   currency = excluded.currency,
		   notifications = excluded.notifications,
		   category_budgets = excluded.category_budgets`,
		userID, st.MonthlyBudget.Cents, st.Theme, st.Currency, notifications, budgets)
	if err != nil {
		return fmt.Errorf("put settings: %w", err)
	}
	return nil
}

func (s *Store) CreateUser(ctx context.Context, u *storage.User) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users (id, username, password_hash, created_at) VALUES (?, ?, ?, ?)",
		u.ID, u.Username, u.PasswordHash, u.CreatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return storage.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*storage.User, error) {
	return s.getUser(ctx, "username = ?", username)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*storage.User, error) {
	return s.getUser(ctx, "id = ?", id)
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*storage.User, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT id, username, password_hash, created_at FROM users WHERE "+where, arg)
	var u storage.User
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// PendingBackup returns transactions not yet mirrored to the backup
// store, oldest first.
func (s *Store) PendingBackup(ctx context.Context, limit int) ([]core.Transaction, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+txColumns+" FROM transactions WHERE backup_status = 'pending' ORDER BY rowid LIMIT ?", int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list pending backups: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pending backup: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) MarkBackedUp(ctx context.Context, id string) error {
	if err := s.setBackupStatus(ctx, id, "done"); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Transaction marked backed up", "id", id)
	return nil
}

func (s *Store) MarkBackupError(ctx context.Context, id string) error {
	if err := s.setBackupStatus(ctx, id, "error"); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Transaction marked with backup error", "id", id)
	return nil
}

func (s *Store) setBackupStatus(ctx context.Context, id, status string) error {
	_, err := s.db.ExecContext(ctx, "UPDATE transactions SET backup_status = ? WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("set backup status: %w", err)
	}
	return nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
