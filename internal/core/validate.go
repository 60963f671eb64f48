package core

import "strings"

// RequiredFields is the canonical required-field contract for every
// write. Missing or zero-valued fields produce one error entry each,
// keyed by field name.
var RequiredFields = []string{"type", "amount", "category", "date", "userId", "id", "timestamp"}

const (
	msgAmountPositive = "Amount must be a positive number"
	msgInvalidType    = "Invalid transaction type"
	msgEmptyCategory  = "Category must be a non-empty string"
	msgBadInstant     = "Invalid date format. Must be in ISO format (YYYY-MM-DDTHH:mm:ss.sssZ)"
)

// Validate gates a transaction before it reaches the store. It performs
// no mutation and has no side effects; on failure it returns a
// *ValidationError carrying a field -> message map, otherwise nil.
func (t Transaction) Validate() error {
	errs := map[string]string{}

	present := map[string]bool{
		"type":      t.Type != "",
		"amount":    t.Amount.Cents != 0,
		"category":  t.Category != "",
		"date":      t.Date != "",
		"userId":    t.UserID != "",
		"id":        t.ID != "",
		"timestamp": t.Timestamp != "",
	}
	for _, f := range RequiredFields {
		if !present[f] {
			errs[f] = f + " is required"
		}
	}

	if present["amount"] && t.Amount.Cents <= 0 {
		errs["amount"] = msgAmountPositive
	}
	if present["type"] && !t.Type.IsValid() {
		errs["type"] = msgInvalidType
	}
	if present["category"] && strings.TrimSpace(t.Category) == "" {
		errs["category"] = msgEmptyCategory
	}
	if present["date"] && !ValidInstant(t.Date) {
		errs["date"] = msgBadInstant
	}
	if present["timestamp"] && !ValidInstant(t.Timestamp) {
		errs["timestamp"] = "Invalid timestamp format. Must be in ISO format (YYYY-MM-DDTHH:mm:ss.sssZ)"
	}
	if present["userId"] && strings.TrimSpace(t.UserID) == "" {
		errs["userId"] = "User ID must be a non-empty string"
	}
	if present["id"] && strings.TrimSpace(t.ID) == "" {
		errs["id"] = "ID must be a non-empty string"
	}

	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
