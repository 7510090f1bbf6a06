package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"vbudget/internal/core"
	"vbudget/internal/forms"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"  Mercado  ", "Mercado"},
		{"Luz\x00\x07", "Luz"},
		{"linha\tcom\ttab", "linha\tcom\ttab"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := sanitizeInput(tt.input); got != tt.want {
			t.Errorf("sanitizeInput(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestParseTransactionForm(t *testing.T) {
	f := ParseTransactionForm(url.Values{
		"id":          {"7"},
		"description": {" Aluguel "},
		"amount":      {"1.500,00"},
		"kind":        {"expense"},
		"status":      {"pending"},
		"category_id": {"3"},
		"due_date":    {"2024-03-05"},
	})
	want := forms.TransactionForm{
		ID: 7, Description: "Aluguel", Amount: "1.500,00", Kind: core.Expense,
		Status: core.Pending, CategoryID: "3", DueDate: "2024-03-05",
	}
	if f != want {
		t.Fatalf("ParseTransactionForm = %+v, want %+v", f, want)
	}
}

func TestDeriveTransactionForm(t *testing.T) {
	const today = "2024-03-10"
	base := url.Values{
		"description": {"Luz"},
		"kind":        {"expense"},
		"status":      {"pending"},
		"category_id": {"3"},
		"due_date":    {"2024-03-05"},
		"prev_kind":   {"expense"},
		"prev_status": {"pending"},
	}

	tests := []struct {
		name         string
		set          map[string]string
		wantCategory string
		wantPaid     string
	}{
		{name: "nothing changed", wantCategory: "3"},
		{name: "kind changed clears category", set: map[string]string{"kind": "income"}},
		{name: "status paid fills today", set: map[string]string{"status": "paid"}, wantCategory: "3", wantPaid: today},
		{name: "back to pending clears paid date", set: map[string]string{"prev_status": "paid", "paid_date": "2024-03-01"}, wantCategory: "3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := url.Values{}
			for k, v := range base {
				form[k] = v
			}
			for k, v := range tt.set {
				form.Set(k, v)
			}
			f := DeriveTransactionForm(form, today)
			if f.CategoryID != tt.wantCategory {
				t.Errorf("CategoryID = %q, want %q", f.CategoryID, tt.wantCategory)
			}
			if f.PaidDate != tt.wantPaid {
				t.Errorf("PaidDate = %q, want %q", f.PaidDate, tt.wantPaid)
			}
		})
	}
}

func TestParseRuleForm(t *testing.T) {
	f := ParseRuleForm(url.Values{
		"id":                {"2"},
		"alert_type":        {"low_balance"},
		"threshold":         {"500"},
		"channels":          {"email", "whatsapp"},
		"recipient_name":    {"João", "Maria"},
		"recipient_contact": {"joao@email.com"},
		"enabled":           {"on"},
		"pending_name":      {"Ana"},
	})
	if f.ID != 2 || f.AlertType != core.LowBalance || f.Threshold != "500" || !f.Enabled {
		t.Fatalf("unexpected form: %+v", f)
	}
	if len(f.Channels) != 2 || f.Channels[1] != core.ChannelWhatsApp {
		t.Errorf("Channels = %v", f.Channels)
	}
	if len(f.Recipients) != 2 || f.Recipients[0].Contact != "joao@email.com" || f.Recipients[1].Contact != "" {
		t.Errorf("Recipients = %+v", f.Recipients)
	}
	if f.PendingName != "Ana" {
		t.Errorf("PendingName = %q", f.PendingName)
	}
	if ParseRuleForm(url.Values{}).Enabled {
		t.Error("unchecked box must disable the rule")
	}
}

func TestEditRecipients(t *testing.T) {
	f := forms.RuleForm{
		Recipients:     []forms.RecipientRow{{Name: "João", Contact: "joao@email.com"}},
		PendingName:    "Ana",
		PendingContact: "ana@email.com",
	}

	added := EditRecipients(f, url.Values{"action": {"add"}})
	if len(added.Recipients) != 2 || added.PendingName != "" {
		t.Fatalf("add: %+v", added)
	}
	removed := EditRecipients(added, url.Values{"action": {"remove"}, "index": {"0"}})
	if len(removed.Recipients) != 1 || removed.Recipients[0].Name != "Ana" {
		t.Fatalf("remove: %+v", removed)
	}
	same := EditRecipients(added, url.Values{"action": {"remove"}, "index": {"x"}})
	if len(same.Recipients) != 2 {
		t.Fatalf("bad index must be ignored: %+v", same)
	}
}

func TestIDParam(t *testing.T) {
	tests := []struct {
		raw    string
		want   int64
		wantOK bool
	}{
		{"12", 12, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodGet, "/transactions/"+tt.raw, nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", tt.raw)
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))

		got, ok := IDParam(r)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("IDParam(%q) = %d, %v; want %d, %v", tt.raw, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseFormOrFail(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("name=ana&password=x"))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if resp := ParseFormOrFail(r); resp != nil {
		t.Fatal("valid form rejected")
	}
	login := ParseLoginForm(r.Form, forms.ModeLogin)
	if login.Name != "ana" || login.Password != "x" || login.Registering() {
		t.Fatalf("login form = %+v", login)
	}

	bad := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader("%zz"))
	bad.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if resp := ParseFormOrFail(bad); resp == nil {
		t.Fatal("malformed body accepted")
	}
}
