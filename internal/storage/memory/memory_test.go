package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/uestliguci/LifestyleCalculator/internal/core"
	"github.com/uestliguci/LifestyleCalculator/internal/storage"
)

func sample(id, userID string, cents int64) core.Transaction {
	return core.Transaction{
		ID:        id,
		Type:      core.Expense,
		Amount:    core.Money{Cents: cents},
		Category:  "Food",
		Date:      "2024-01-05T10:00:00.000Z",
		Timestamp: "2024-01-05T10:00:00.000Z",
		UserID:    userID,
	}
}

func TestAddListInsertionOrder(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.Add(ctx, sample(id, "u1", 100)); err != nil {
			t.Fatalf("add %s: %v", id, err)
		}
	}
	got, err := s.List(ctx, storage.Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 || got[0].ID != "a" || got[1].ID != "b" || got[2].ID != "c" {
		t.Fatalf("unexpected order: %+v", got)
	}
}

func TestAddDuplicateID(t *testing.T) {
	s := New()
	ctx := context.Background()
	if err := s.Add(ctx, sample("a", "u1", 100)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Add(ctx, sample("a", "u1", 200)); !errors.Is(err, storage.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
}

func TestListFiltersByUser(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.Add(ctx, sample("a", "u1", 100))
	s.Add(ctx, sample("b", "u2", 100))
	got, _ := s.List(ctx, storage.Filter{UserID: "u2"})
	if len(got) != 1 || got[0].ID != "b" {
		t.Fatalf("unexpected filtered list: %+v", got)
	}
}

func TestUpdateMissing(t *testing.T) {
	s := New()
	if err := s.Update(context.Background(), sample("nope", "u1", 100)); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRemoveReindexes(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c"} {
		s.Add(ctx, sample(id, "u1", 100))
	}
	if err := s.Remove(ctx, "b"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.Get(ctx, "b"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected removed id to be gone, got %v", err)
	}
	got, _ := s.Get(ctx, "c")
	if got.ID != "c" {
		t.Fatalf("index broken after remove: %+v", got)
	}
	if err := s.Remove(ctx, "b"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double remove, got %v", err)
	}
}

func TestReplaceAllScopedToUser(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.Add(ctx, sample("mine", "u1", 100))
	s.Add(ctx, sample("theirs", "u2", 100))

	if err := s.ReplaceAll(ctx, "u1", []core.Transaction{sample("new", "u1", 500)}, nil); err != nil {
		t.Fatalf("replace: %v", err)
	}

	mine, _ := s.List(ctx, storage.Filter{UserID: "u1"})
	if len(mine) != 1 || mine[0].ID != "new" {
		t.Fatalf("u1 collection not replaced: %+v", mine)
	}
	theirs, _ := s.List(ctx, storage.Filter{UserID: "u2"})
	if len(theirs) != 1 || theirs[0].ID != "theirs" {
		t.Fatalf("u2 collection disturbed: %+v", theirs)
	}
}

func TestReplaceAllAppliesSettings(t *testing.T) {
	s := New()
	ctx := context.Background()
	s.Add(ctx, sample("old", "u1", 100))

	st := core.DefaultSettings()
	st.Theme = "dark"
	if err := s.ReplaceAll(ctx, "u1", []core.Transaction{sample("new", "u1", 500)}, &st); err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, _ := s.GetSettings(ctx, "u1")
	if got.Theme != "dark" {
		t.Fatalf("settings not applied with collection: %+v", got)
	}

	// A nil settings pointer keeps the stored record.
	if err := s.ReplaceAll(ctx, "u1", nil, nil); err != nil {
		t.Fatalf("replace: %v", err)
	}
	got, _ = s.GetSettings(ctx, "u1")
	if got.Theme != "dark" {
		t.Fatalf("nil settings overwrote record: %+v", got)
	}
}

func TestSettingsDefaultsThenMergeSave(t *testing.T) {
	s := New()
	ctx := context.Background()
	st, err := s.GetSettings(ctx, "u1")
	if err != nil {
		t.Fatalf("get settings: %v", err)
	}
	if st.Theme != "light" || !st.Notifications {
		t.Fatalf("unexpected defaults: %+v", st)
	}

	st.MonthlyBudget = core.Money{Cents: 5000000}
	if err := s.PutSettings(ctx, "u1", st); err != nil {
		t.Fatalf("put settings: %v", err)
	}
	st2, _ := s.GetSettings(ctx, "u1")
	if st2.MonthlyBudget.Cents != 5000000 {
		t.Fatalf("settings not persisted: %+v", st2)
	}
}

func TestUserStore(t *testing.T) {
	s := New()
	ctx := context.Background()
	u := &storage.User{ID: "id1", Username: "user1", PasswordHash: "x", CreatedAt: core.Now()}
	if err := s.CreateUser(ctx, u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := s.CreateUser(ctx, u); !errors.Is(err, storage.ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
	got, err := s.GetUserByUsername(ctx, "user1")
	if err != nil || got.ID != "id1" {
		t.Fatalf("get by username: %+v %v", got, err)
	}
	got, err = s.GetUserByID(ctx, "id1")
	if err != nil || got.Username != "user1" {
		t.Fatalf("get by id: %+v %v", got, err)
	}
	if _, err := s.GetUserByUsername(ctx, "ghost"); !errors.Is(err, storage.ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}
