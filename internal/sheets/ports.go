// Package sheets exports a user's transactions to a spreadsheet.
package sheets

import (
	"context"
	"time"

	"vbudget/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionExporter replaces the export sheet with rows and returns
	// how many data rows were written.
	TransactionExporter interface {
		Export(ctx context.Context, sheet string, rows [][]any) (int, error)
	}
)

// Header is the first row of every export.
var Header = []any{"Vencimento", "Descrição", "Categoria", "Tipo", "Status", "Valor", "Pagamento"}

// Rows renders txs as spreadsheet rows, header first, ordered by due date.
// Amounts are signed numbers so the sheet can sum them; dates use the
// dd/mm/yyyy display form and an unpaid transaction leaves its payment
// column empty.
func Rows(txs []core.Transaction, cats []core.Category, loc *time.Location) [][]any {
	idx := core.IndexCategories(cats)
	sorted := core.ByDueDate(txs)

	rows := make([][]any, 0, len(sorted)+1)
	rows = append(rows, Header)
	for _, t := range sorted {
		amount := t.Amount
		if t.Kind == core.Expense {
			amount = amount.Neg()
		}
		paid := ""
		if t.PaidDate != "" {
			paid = core.FormatDate(t.PaidDate, loc)
		}
		rows = append(rows, []any{
			core.FormatDate(t.DueDate, loc),
			t.Description,
			idx.Name(t.CategoryID),
			t.Kind.Label(),
			t.Status.Label(),
			amount.Float64(),
			paid,
		})
	}
	return rows
}
