package core

import (
	"sort"
	"time"
)

// RecentLimit caps the dashboard's recent-transactions list.
const RecentLimit = 10

// Summary is the dashboard's balance breakdown.
type Summary struct {
	PaidIncome     Amount
	PaidExpense    Amount
	PendingIncome  Amount
	PendingExpense Amount
}

// Summarize partitions transactions by status and kind.
func Summarize(txs []Transaction) Summary {
	var s Summary
	for _, t := range txs {
		switch {
		case t.Kind == Income && t.Status == Paid:
			s.PaidIncome = s.PaidIncome.Add(t.Amount)
		case t.Kind == Income:
			s.PendingIncome = s.PendingIncome.Add(t.Amount)
		case t.Kind == Expense && t.Status == Paid:
			s.PaidExpense = s.PaidExpense.Add(t.Amount)
		case t.Kind == Expense:
			s.PendingExpense = s.PendingExpense.Add(t.Amount)
		}
	}
	return s
}

// Settled is paid income minus paid expense.
func (s Summary) Settled() Amount {
	return s.PaidIncome.Sub(s.PaidExpense)
}

// Provisional adds what is still pending on both sides to the settled balance.
func (s Summary) Provisional() Amount {
	return s.Settled().Add(s.PendingIncome).Sub(s.PendingExpense)
}

// Recent returns up to limit transactions, newest created first. The input
// is not modified.
func Recent(txs []Transaction, limit int) []Transaction {
	out := append([]Transaction(nil), txs...)
	sort.SliceStable(out, func(i, j int) bool {
		return createdAt(out[i]).After(createdAt(out[j]))
	})
	if limit >= 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ByDueDate returns a copy of txs ordered by due date, oldest first. Ties
// keep their input order.
func ByDueDate(txs []Transaction) []Transaction {
	out := append([]Transaction(nil), txs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DueDate < out[j].DueDate })
	return out
}

func createdAt(t Transaction) time.Time {
	ts, err := ParseTimestamp(t.CreatedAt, time.UTC)
	if err != nil {
		return time.Time{}
	}
	return ts
}

// IsOverdue holds when t is unpaid and its due date falls before the start
// of today in loc. Paid transactions are never overdue.
func IsOverdue(t Transaction, now time.Time, loc *time.Location) bool {
	if t.Status == Paid {
		return false
	}
	due, err := ParseISODate(t.DueDate, loc)
	if err != nil {
		return false
	}
	return due.Before(StartOfDay(now, loc))
}

// PaidExpensesInMonth sums paid expenses whose paid date falls in the
// calendar month of now in loc.
func PaidExpensesInMonth(txs []Transaction, now time.Time, loc *time.Location) Amount {
	y, m, _ := now.In(orLocal(loc)).Date()
	total := Amount{}
	for _, t := range txs {
		if t.Kind != Expense || t.Status != Paid {
			continue
		}
		paid, err := ParseISODate(t.PaidDate, loc)
		if err != nil {
			continue
		}
		if py, pm, _ := paid.Date(); py == y && pm == m {
			total = total.Add(t.Amount)
		}
	}
	return total
}

// CategoryIndex joins transactions to categories by id.
type CategoryIndex map[int64]Category

func IndexCategories(cats []Category) CategoryIndex {
	idx := make(CategoryIndex, len(cats))
	for _, c := range cats {
		idx[c.ID] = c
	}
	return idx
}

// Lookup returns the category for id; ok is false for dangling references.
func (idx CategoryIndex) Lookup(id int64) (Category, bool) {
	c, ok := idx[id]
	return c, ok
}

// Name returns the category name or the placeholder.
func (idx CategoryIndex) Name(id int64) string {
	if c, ok := idx[id]; ok {
		return c.Name
	}
	return Placeholder
}

// OfKind filters categories by kind, keeping their order.
func OfKind(cats []Category, k Kind) []Category {
	out := make([]Category, 0, len(cats))
	for _, c := range cats {
		if c.Kind == k {
			out = append(out, c)
		}
	}
	return out
}
