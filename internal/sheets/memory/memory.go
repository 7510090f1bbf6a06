package memory

import (
	"context"
	"errors"
	"strings"
	"sync"

	ports "vbudget/internal/sheets"
)

// Exporter keeps the last export of every sheet in memory. It stands in for
// Google Sheets when no spreadsheet is configured.
type Exporter struct {
	mu     sync.Mutex
	sheets map[string][][]any
}

var _ ports.TransactionExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{sheets: map[string][][]any{}}
}

func (e *Exporter) Export(_ context.Context, sheet string, rows [][]any) (int, error) {
	sheet = strings.TrimSpace(sheet)
	if sheet == "" {
		return 0, errors.New("missing sheet name")
	}
	cp := make([][]any, len(rows))
	for i, r := range rows {
		cp[i] = append([]any(nil), r...)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.sheets[sheet] = cp
	if len(cp) == 0 {
		return 0, nil
	}
	return len(cp) - 1, nil
}

// Sheet returns the rows last exported to sheet.
func (e *Exporter) Sheet(name string) ([][]any, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rows, ok := e.sheets[name]
	return rows, ok
}
