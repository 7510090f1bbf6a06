package sheets

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vbudget/internal/core"
)

func TestRows(t *testing.T) {
	brt := time.FixedZone("BRT", -3*60*60)
	cats := []core.Category{{ID: 1, Name: "Salário", Kind: core.Income}}
	txs := []core.Transaction{
		{Description: "Mercado", Amount: core.AmountFromFloat(152.3), Kind: core.Expense, Status: core.Pending, CategoryID: 9, DueDate: "2024-03-09"},
		{Description: "Salário", Amount: core.AmountOf(5000), Kind: core.Income, Status: core.Paid, CategoryID: 1, DueDate: "2024-03-05", PaidDate: "2024-03-05"},
	}

	rows := Rows(txs, cats, brt)
	require.Len(t, rows, 3)
	assert.Equal(t, Header, rows[0])
	assert.Equal(t, []any{"05/03/2024", "Salário", "Salário", "Receita", "Baixado", 5000.0, "05/03/2024"}, rows[1])
	assert.Equal(t, []any{"09/03/2024", "Mercado", core.Placeholder, "Despesa", "Pendente", -152.3, ""}, rows[2])
	assert.Equal(t, "Mercado", txs[0].Description, "input order is untouched")
}

func TestRowsEmpty(t *testing.T) {
	rows := Rows(nil, nil, time.UTC)
	assert.Equal(t, [][]any{Header}, rows)
}
