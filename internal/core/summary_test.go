package core

import (
	"fmt"
	"testing"
	"time"
)

func tx(kind Kind, status Status, amount int64) Transaction {
	return Transaction{Kind: kind, Status: status, Amount: AmountOf(amount), DueDate: "2024-01-05"}
}

func TestSummarize(t *testing.T) {
	txs := []Transaction{
		tx(Income, Paid, 5000),
		tx(Income, Pending, 1000),
		tx(Expense, Paid, 1200),
		tx(Expense, Pending, 300),
		tx(Expense, Paid, 500),
	}
	s := Summarize(txs)

	if !s.PaidIncome.Equal(AmountOf(5000)) || !s.PaidExpense.Equal(AmountOf(1700)) {
		t.Fatalf("paid totals: %s / %s", s.PaidIncome, s.PaidExpense)
	}
	if !s.Settled().Equal(AmountOf(3300)) {
		t.Fatalf("settled = %s", s.Settled())
	}
	// settled + pending income - pending expense
	if !s.Provisional().Equal(AmountOf(4000)) {
		t.Fatalf("provisional = %s", s.Provisional())
	}
}

func TestSummarizeDashboardExample(t *testing.T) {
	cats := []Category{{ID: 1, Name: "Salário", Kind: Income, Color: "#22c55e"}}
	txs := []Transaction{{
		Description: "Salário", Amount: AmountOf(5000), Kind: Income, Status: Paid,
		CategoryID: 1, DueDate: "2024-01-05", PaidDate: "2024-01-05",
	}}
	s := Summarize(txs)
	if got := FormatCurrency(s.Settled()); got != "R$ 5.000,00" {
		t.Fatalf("got %q", got)
	}
	if IndexCategories(cats).Name(1) != "Salário" {
		t.Fatal("category join failed")
	}
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	if !s.Settled().IsZero() || !s.Provisional().IsZero() {
		t.Fatal("expected zero balances")
	}
}

func TestRecent(t *testing.T) {
	var txs []Transaction
	for i := 1; i <= 12; i++ {
		txs = append(txs, Transaction{ID: int64(i), CreatedAt: fmt.Sprintf("2024-01-%02dT10:00:00Z", i)})
	}
	got := Recent(txs, RecentLimit)
	if len(got) != 10 {
		t.Fatalf("len = %d", len(got))
	}
	if got[0].ID != 12 || got[9].ID != 3 {
		t.Fatalf("order: first %d last %d", got[0].ID, got[9].ID)
	}
	if txs[0].ID != 1 {
		t.Fatal("input was reordered")
	}
}

func TestIsOverdue(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	now := time.Date(2024, 3, 10, 0, 5, 0, 0, loc)

	cases := []struct {
		name string
		t    Transaction
		want bool
	}{
		{"pending past due", Transaction{Status: Pending, DueDate: "2024-03-09"}, true},
		{"pending due today", Transaction{Status: Pending, DueDate: "2024-03-10"}, false},
		{"pending future", Transaction{Status: Pending, DueDate: "2024-03-11"}, false},
		{"paid past due", Transaction{Status: Paid, DueDate: "2024-01-01", PaidDate: "2024-01-02"}, false},
		{"bad due date", Transaction{Status: Pending, DueDate: "??"}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := IsOverdue(tc.t, now, loc); got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}
}

func TestPaidExpensesInMonth(t *testing.T) {
	now := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	txs := []Transaction{
		{Kind: Expense, Status: Paid, Amount: AmountOf(100), PaidDate: "2024-03-01"},
		{Kind: Expense, Status: Paid, Amount: AmountOf(50), PaidDate: "2024-02-28"},
		{Kind: Expense, Status: Pending, Amount: AmountOf(70)},
		{Kind: Income, Status: Paid, Amount: AmountOf(999), PaidDate: "2024-03-05"},
		{Kind: Expense, Status: Paid, Amount: AmountOf(25), PaidDate: "2024-03-31"},
	}
	if got := PaidExpensesInMonth(txs, now, time.UTC); !got.Equal(AmountOf(125)) {
		t.Fatalf("got %s", got)
	}
}

func TestCategoryIndexMissing(t *testing.T) {
	idx := IndexCategories([]Category{{ID: 1, Name: "Casa"}})
	if idx.Name(2) != Placeholder {
		t.Fatalf("got %q", idx.Name(2))
	}
	if _, ok := idx.Lookup(2); ok {
		t.Fatal("dangling id resolved")
	}
}

func TestOfKind(t *testing.T) {
	cats := []Category{{ID: 1, Kind: Income}, {ID: 2, Kind: Expense}, {ID: 3, Kind: Income}}
	got := OfKind(cats, Income)
	if len(got) != 2 || got[0].ID != 1 || got[1].ID != 3 {
		t.Fatalf("got %+v", got)
	}
}
