package memory

import (
	"context"
	"testing"
)

func TestExporterKeepsLastExport(t *testing.T) {
	e := New()
	rows := [][]any{{"Vencimento"}, {"05/03/2024"}, {"09/03/2024"}}

	n, err := e.Export(context.Background(), "Lançamentos", rows)
	if err != nil || n != 2 {
		t.Fatalf("Export() = %d, %v", n, err)
	}

	rows[1][0] = "changed"
	got, ok := e.Sheet("Lançamentos")
	if !ok || len(got) != 3 {
		t.Fatalf("Sheet() = %v, %v", got, ok)
	}
	if got[1][0] != "05/03/2024" {
		t.Errorf("export should be a copy, got %v", got[1][0])
	}

	n, err = e.Export(context.Background(), "Lançamentos", [][]any{{"Vencimento"}})
	if err != nil || n != 0 {
		t.Fatalf("Export() header only = %d, %v", n, err)
	}
}

func TestExporterRejectsBlankSheet(t *testing.T) {
	if _, err := New().Export(context.Background(), "  ", nil); err == nil {
		t.Fatal("expected error for blank sheet name")
	}
}
