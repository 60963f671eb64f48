package core

import "strings"

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

type (
	// TransactionType is the sign convention for aggregations: income adds,
	// expense subtracts.
	TransactionType string

	// Transaction is the sole domain entity: one income or expense record.
	// Date is the user-facing transaction time, Timestamp the creation time;
	// both are strict ISO instants (see Instant). LastModified is set on
	// update only and empty otherwise.
	Transaction struct {
		ID           string          `json:"id"`
		Type         TransactionType `json:"type"`
		Amount       Money           `json:"amount"`
		Category     string          `json:"category"`
		Description  string          `json:"description"`
		Date         string          `json:"date"`
		Timestamp    string          `json:"timestamp"`
		UserID       string          `json:"userId"`
		LastModified string          `json:"lastModified,omitempty"`
	}

	// Settings is the single per-user preferences record, created with
	// defaults on first access and updated by shallow merge.
	Settings struct {
		MonthlyBudget   Money            `json:"monthlyBudget"`
		Theme           string           `json:"theme"`
		Currency        string           `json:"currency"`
		Notifications   bool             `json:"notifications"`
		CategoryBudgets map[string]Money `json:"categoryBudgets,omitempty"`
	}
)

// IsValid reports whether the type is one of the two known values.
// Matching is case-sensitive.
func (t TransactionType) IsValid() bool {
	return t == Income || t == Expense
}

// DefaultSettings returns the settings a user gets before saving any.
func DefaultSettings() Settings {
	return Settings{
		MonthlyBudget: Money{},
		Theme:         "light",
		Currency:      "ALL",
		Notifications: true,
	}
}

// Merge applies non-zero fields of patch onto s and returns the result.
// Shallow-merge semantics: unspecified fields retain their prior value,
// CategoryBudgets is replaced as a whole when present.
func (s Settings) Merge(patch SettingsPatch) Settings {
	out := s
	if patch.MonthlyBudget != nil {
		out.MonthlyBudget = *patch.MonthlyBudget
	}
	if patch.Theme != nil {
		out.Theme = strings.TrimSpace(*patch.Theme)
	}
	if patch.Currency != nil {
		out.Currency = strings.TrimSpace(*patch.Currency)
	}
	if patch.Notifications != nil {
		out.Notifications = *patch.Notifications
	}
	if patch.CategoryBudgets != nil {
		out.CategoryBudgets = patch.CategoryBudgets
	}
	return out
}

// SettingsPatch is a partial settings update; nil fields are left untouched.
type SettingsPatch struct {
	MonthlyBudget   *Money           `json:"monthlyBudget,omitempty"`
	Theme           *string          `json:"theme,omitempty"`
	Currency        *string          `json:"currency,omitempty"`
	Notifications   *bool            `json:"notifications,omitempty"`
	CategoryBudgets map[string]Money `json:"categoryBudgets,omitempty"`
}
