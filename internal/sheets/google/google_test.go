package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

type fakeSheets struct {
	mu      sync.Mutex
	cleared []string
	written *gsheet.ValueRange
	path    string
	fail    bool
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	if f.fail {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"error":{"code":403,"message":"The caller does not have permission"}}`))
		return
	}
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":clear"):
		f.cleared = append(f.cleared, r.URL.Path)
		w.Write([]byte(`{}`))
	case r.Method == http.MethodPut:
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.written = &vr
		f.path = r.URL.Path
		json.NewEncoder(w).Encode(gsheet.UpdateValuesResponse{UpdatedRows: int64(len(vr.Values))})
	default:
		http.NotFound(w, r)
	}
}

func newTestClient(t *testing.T, f *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	c, err := New(context.Background(), Options{SpreadsheetID: "sheet-1"},
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return c
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{})
	if err == nil || err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	if _, err := loadCredentials(Options{}); err == nil || !strings.Contains(err.Error(), "missing service account credentials") {
		t.Errorf("expected missing credentials error, got %v", err)
	}

	_, err := loadCredentials(Options{CredentialsFile: filepath.Join(t.TempDir(), "nope.json")})
	if err == nil || !strings.Contains(err.Error(), "read service account file") {
		t.Errorf("expected read error, got %v", err)
	}

	b, err := loadCredentials(Options{CredentialsJSON: `{"type":"service_account"}`, CredentialsFile: "/ignored"})
	if err != nil || string(b) != `{"type":"service_account"}` {
		t.Errorf("inline JSON should win, got %q, %v", b, err)
	}
}

func TestExport_ClearsThenWrites(t *testing.T) {
	f := &fakeSheets{}
	c := newTestClient(t, f)

	rows := [][]any{
		{"Vencimento", "Descrição", "Valor"},
		{"05/03/2024", "Salário", 5000.0},
		{"09/03/2024", "Mercado", -152.3},
	}
	n, err := c.Export(context.Background(), "Lançamentos", rows)
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if n != 2 {
		t.Errorf("Export() = %d rows, want 2", n)
	}
	if len(f.cleared) != 1 || !strings.Contains(f.cleared[0], "'Lançamentos'") {
		t.Errorf("cleared = %v", f.cleared)
	}
	if !strings.Contains(f.path, "'Lançamentos'!A1") {
		t.Errorf("write path = %q", f.path)
	}
	if f.written == nil || len(f.written.Values) != 3 {
		t.Fatalf("written = %+v", f.written)
	}
	if got := f.written.Values[2][1]; got != "Mercado" {
		t.Errorf("row 2 description = %v", got)
	}
}

func TestExport_EmptyRowsOnlyClears(t *testing.T) {
	f := &fakeSheets{}
	c := newTestClient(t, f)

	n, err := c.Export(context.Background(), "Lançamentos", nil)
	if err != nil || n != 0 {
		t.Fatalf("Export() = %d, %v", n, err)
	}
	if f.written != nil {
		t.Error("nothing should be written")
	}
}

func TestExport_APIError(t *testing.T) {
	c := newTestClient(t, &fakeSheets{fail: true})
	_, err := c.Export(context.Background(), "Lançamentos", [][]any{{"x"}})
	if err == nil || !strings.Contains(err.Error(), "clear sheet Lançamentos") {
		t.Fatalf("expected clear error, got %v", err)
	}
}

func TestExport_Uninitialized(t *testing.T) {
	c := &Client{spreadsheetID: "test"}
	if _, err := c.Export(context.Background(), "Lançamentos", nil); err == nil {
		t.Fatal("expected error with nil service")
	}
}

func TestQuoteSheet(t *testing.T) {
	tests := map[string]string{
		"Lançamentos":   "'Lançamentos'",
		" 2024 Gastos ": "'2024 Gastos'",
		"João's":        "'João''s'",
	}
	for in, want := range tests {
		if got := quoteSheet(in); got != want {
			t.Errorf("quoteSheet(%q) = %q, want %q", in, got, want)
		}
	}
}
