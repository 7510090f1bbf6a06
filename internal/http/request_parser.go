// Request parsing: request data becomes the form types of internal/forms,
// so handlers never read raw form keys themselves.

package http

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"vbudget/internal/core"
	"vbudget/internal/forms"
)

// sanitizeInput removes control characters except tab, newline and
// carriage return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func field(form url.Values, key string) string {
	return sanitizeInput(form.Get(key))
}

func fields(form url.Values, key string) []string {
	raw := form[key]
	out := make([]string, len(raw))
	for i, v := range raw {
		out[i] = sanitizeInput(v)
	}
	return out
}

func checked(form url.Values, key string) bool {
	switch strings.ToLower(field(form, key)) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// ParseFormOrFail parses the request form and returns an error response on failure.
// Returns nil on success.
func ParseFormOrFail(r *http.Request) *HTMXResponseBuilder {
	if err := r.ParseForm(); err != nil {
		return BadRequestError("Formato de requisição inválido.")
	}
	return nil
}

// IDParam reads the {id} route parameter; ok is false when it is missing
// or not a positive integer.
func IDParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func parseID(s string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id < 0 {
		return 0
	}
	return id
}

// ParseTransactionForm reads the create/edit transaction dialog.
func ParseTransactionForm(form url.Values) forms.TransactionForm {
	return forms.TransactionForm{
		ID:          parseID(form.Get("id")),
		Description: field(form, "description"),
		Amount:      field(form, "amount"),
		Kind:        core.Kind(field(form, "kind")),
		Status:      core.Status(field(form, "status")),
		CategoryID:  field(form, "category_id"),
		DueDate:     field(form, "due_date"),
		PaidDate:    field(form, "paid_date"),
	}
}

// DeriveTransactionForm re-applies the field dependencies after the user
// changed the kind or status select. The previously rendered values travel
// in prev_kind and prev_status.
func DeriveTransactionForm(form url.Values, today string) forms.TransactionForm {
	f := ParseTransactionForm(form)
	kind, status := f.Kind, f.Status
	if prev := core.Kind(field(form, "prev_kind")); prev.Valid() {
		f.Kind = prev
	}
	if prev := core.Status(field(form, "prev_status")); prev.Valid() {
		f.Status = prev
	}
	if kind.Valid() {
		f = f.WithKind(kind)
	}
	if status.Valid() {
		f = f.WithStatus(status, today)
	}
	return f
}

func ParseSettleForm(id int64, form url.Values) forms.SettleForm {
	return forms.SettleForm{TransactionID: id, PaidDate: field(form, "paid_date")}
}

func ParseCategoryForm(form url.Values) forms.CategoryForm {
	return forms.CategoryForm{
		ID:    parseID(form.Get("id")),
		Name:  field(form, "name"),
		Kind:  core.Kind(field(form, "kind")),
		Color: field(form, "color"),
	}
}

// ParseRuleForm reads the rule dialog. Recipients arrive as parallel
// recipient_name / recipient_contact lists.
func ParseRuleForm(form url.Values) forms.RuleForm {
	f := forms.RuleForm{
		ID:             parseID(form.Get("id")),
		AlertType:      core.AlertType(field(form, "alert_type")),
		Threshold:      field(form, "threshold"),
		Enabled:        checked(form, "enabled"),
		PendingName:    field(form, "pending_name"),
		PendingContact: field(form, "pending_contact"),
	}
	for _, c := range fields(form, "channels") {
		f.Channels = append(f.Channels, core.Channel(c))
	}
	names, contacts := fields(form, "recipient_name"), fields(form, "recipient_contact")
	for i, name := range names {
		var contact string
		if i < len(contacts) {
			contact = contacts[i]
		}
		f.Recipients = append(f.Recipients, forms.RecipientRow{Name: name, Contact: contact})
	}
	return f
}

// EditRecipients applies an add or remove action from the recipients block.
func EditRecipients(f forms.RuleForm, form url.Values) forms.RuleForm {
	switch field(form, "action") {
	case "add":
		return f.AddPending()
	case "remove":
		i, err := strconv.Atoi(field(form, "index"))
		if err != nil {
			return f
		}
		return f.RemoveRecipient(i)
	}
	return f
}

func ParseLoginForm(form url.Values, mode string) forms.LoginForm {
	return forms.LoginForm{
		Mode:     mode,
		Name:     field(form, "name"),
		Password: form.Get("password"),
	}
}
