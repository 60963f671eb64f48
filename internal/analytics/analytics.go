// Package analytics derives totals, category breakdowns, period
// groupings and trend statistics from a transaction list. Every function
// is pure and recomputes from scratch; nothing here mutates the store.
package analytics

import (
	"time"

	"github.com/uestliguci/LifestyleCalculator/internal/core"
)

// Granularity selects the calendar bucket for ByPeriod.
type Granularity string

const (
	Day   Granularity = "day"
	Week  Granularity = "week"
	Month Granularity = "month"
	Year  Granularity = "year"
)

// IsValid reports whether g is a known granularity.
func (g Granularity) IsValid() bool {
	switch g {
	case Day, Week, Month, Year:
		return true
	}
	return false
}

// Summary holds the aggregate figures for a transaction set.
type Summary struct {
	Income      core.Money `json:"income"`
	Expenses    core.Money `json:"expenses"`
	NetBalance  core.Money `json:"netBalance"`
	SavingsRate float64    `json:"savingsRate"`
}

// CategoryTotal is one row of a category breakdown. Rows keep the
// insertion order of each category's first occurrence; any descending
// re-sort is a presentation concern.
type CategoryTotal struct {
	Category string     `json:"category"`
	Total    core.Money `json:"total"`
}

// PeriodGroup is one calendar bucket with its transactions, in input order.
type PeriodGroup struct {
	Key          string             `json:"key"`
	Transactions []core.Transaction `json:"transactions"`
}

// Totals sums amounts split by transaction type.
func Totals(txs []core.Transaction) Summary {
	var income, expenses int64
	for _, t := range txs {
		if t.Type == core.Income {
			income += t.Amount.Cents
		} else {
			expenses += t.Amount.Cents
		}
	}
	return Summary{
		Income:      core.Money{Cents: income},
		Expenses:    core.Money{Cents: expenses},
		NetBalance:  core.Money{Cents: income - expenses},
		SavingsRate: SavingsRate(core.Money{Cents: income}, core.Money{Cents: expenses}),
	}
}

// ByCategory aggregates amounts per category for the given type.
func ByCategory(txs []core.Transaction, typ core.TransactionType) []CategoryTotal {
	index := map[string]int{}
	var out []CategoryTotal
	for _, t := range txs {
		if t.Type != typ {
			continue
		}
		i, ok := index[t.Category]
		if !ok {
			i = len(out)
			index[t.Category] = i
			out = append(out, CategoryTotal{Category: t.Category})
		}
		out[i].Total.Cents += t.Amount.Cents
	}
	return out
}

// ByPeriod groups transactions into calendar buckets. Period keys are
// "2006-01-02" for day and week (week key is the Sunday the week starts
// on, not ISO numbering), "2006-01" for month and "2006" for year.
// Transactions with unparseable dates are skipped.
func ByPeriod(txs []core.Transaction, g Granularity) []PeriodGroup {
	index := map[string]int{}
	var out []PeriodGroup
	for _, t := range txs {
		d, err := core.ParseInstant(t.Date)
		if err != nil {
			continue
		}
		key := periodKey(d, g)
		i, ok := index[key]
		if !ok {
			i = len(out)
			index[key] = i
			out = append(out, PeriodGroup{Key: key})
		}
		out[i].Transactions = append(out[i].Transactions, t)
	}
	return out
}

func periodKey(d time.Time, g Granularity) string {
	switch g {
	case Week:
		// Locale day index 0 is Sunday; back up to the week start.
		start := d.AddDate(0, 0, -int(d.Weekday()))
		return start.Format("2006-01-02")
	case Month:
		return d.Format("2006-01")
	case Year:
		return d.Format("2006")
	default:
		return d.Format("2006-01-02")
	}
}

// SavingsRate returns the percentage of income retained after expenses.
// Defined as 0 when income is 0 to avoid division by zero.
func SavingsRate(income, expenses core.Money) float64 {
	if income.Cents <= 0 {
		return 0
	}
	return float64(income.Cents-expenses.Cents) / float64(income.Cents) * 100
}

// Trend returns the percentage change from previous to current.
// By convention: +100 when previous is 0 and current is positive,
// 0 when both are zero.
func Trend(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / previous * 100
}
