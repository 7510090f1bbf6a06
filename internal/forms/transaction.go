package forms

import (
	"strconv"
	"strings"
	"time"

	"vbudget/internal/core"
)

const MaxDescriptionLen = 100

// TransactionForm is the state of the create/edit transaction dialog.
// Values are kept as typed-in strings so a re-render shows exactly what the
// user entered.
type TransactionForm struct {
	ID          int64
	Description string
	Amount      string
	Kind        core.Kind
	Status      core.Status
	CategoryID  string
	DueDate     string
	PaidDate    string
}

// NewTransactionForm returns the blank defaults: a pending expense due today.
func NewTransactionForm(today string) TransactionForm {
	return TransactionForm{
		Kind:    core.Expense,
		Status:  core.Pending,
		DueDate: today,
	}
}

// EditTransactionForm seeds the form from an existing transaction.
func EditTransactionForm(t core.Transaction) TransactionForm {
	return TransactionForm{
		ID:          t.ID,
		Description: t.Description,
		Amount:      t.Amount.String(),
		Kind:        t.Kind,
		Status:      t.Status,
		CategoryID:  strconv.FormatInt(t.CategoryID, 10),
		DueDate:     t.DueDate,
		PaidDate:    t.PaidDate,
	}
}

func (f TransactionForm) Editing() bool { return f.ID != 0 }

// WithKind switches the kind. The selected category belongs to the old
// kind, so it is cleared.
func (f TransactionForm) WithKind(k core.Kind) TransactionForm {
	if f.Kind != k {
		f.CategoryID = ""
	}
	f.Kind = k
	return f
}

// WithStatus switches the status and fills the paid date: today when the
// transaction becomes paid, empty otherwise.
func (f TransactionForm) WithStatus(s core.Status, today string) TransactionForm {
	if s == core.Paid {
		if f.Status != core.Paid || f.PaidDate == "" {
			f.PaidDate = today
		}
	} else {
		f.PaidDate = ""
	}
	f.Status = s
	return f
}

// ShowPaidDate reports whether the paid-date field is rendered.
func (f TransactionForm) ShowPaidDate() bool { return f.Status == core.Paid }

// CategoryOptions narrows the category list to the selected kind.
func (f TransactionForm) CategoryOptions(all []core.Category) []core.Category {
	return core.OfKind(all, f.Kind)
}

// Validate checks the form and builds the API payload.
func (f TransactionForm) Validate(loc *time.Location) (core.TransactionPayload, FieldErrors) {
	errs := FieldErrors{}

	desc := strings.TrimSpace(f.Description)
	switch {
	case desc == "":
		errs.Add("description", "Descrição é obrigatória.")
	case runeLen(desc) > MaxDescriptionLen:
		errs.Add("description", "Descrição deve ter no máximo 100 caracteres.")
	}

	var amount core.Amount
	if strings.TrimSpace(f.Amount) == "" {
		errs.Add("amount", "Informe o valor.")
	} else if a, err := core.ParseAmount(f.Amount); err != nil || !a.IsPositive() {
		errs.Add("amount", "O valor deve ser maior que zero.")
	} else {
		amount = a
	}

	if !f.Kind.Valid() {
		errs.Add("kind", "Selecione o tipo.")
	}
	if !f.Status.Valid() {
		errs.Add("status", "Selecione o status.")
	}

	categoryID, err := strconv.ParseInt(strings.TrimSpace(f.CategoryID), 10, 64)
	if err != nil || categoryID <= 0 {
		errs.Add("category_id", "Selecione uma categoria.")
	}

	if strings.TrimSpace(f.DueDate) == "" {
		errs.Add("due_date", "Informe a data de vencimento.")
	} else if _, err := core.ParseISODate(f.DueDate, loc); err != nil {
		errs.Add("due_date", "Data inválida.")
	}

	paidDate := strings.TrimSpace(f.PaidDate)
	if paidDate != "" {
		if _, err := core.ParseISODate(paidDate, loc); err != nil {
			errs.Add("paid_date", "Data inválida.")
		}
	}

	if !errs.Valid() {
		return core.TransactionPayload{}, errs
	}
	return core.TransactionPayload{
		Description: desc,
		Amount:      amount,
		Kind:        f.Kind,
		Status:      f.Status,
		CategoryID:  categoryID,
		DueDate:     strings.TrimSpace(f.DueDate),
		PaidDate:    paidDate,
	}, nil
}

// SettleForm is the one-field "mark as paid" dialog.
type SettleForm struct {
	TransactionID int64
	PaidDate      string
}

// NewSettleForm defaults the payment date to today.
func NewSettleForm(id int64, today string) SettleForm {
	return SettleForm{TransactionID: id, PaidDate: today}
}

// CanSubmit mirrors the confirm button: disabled without a date.
func (f SettleForm) CanSubmit() bool { return strings.TrimSpace(f.PaidDate) != "" }

func (f SettleForm) Validate(loc *time.Location) (string, FieldErrors) {
	errs := FieldErrors{}
	d := strings.TrimSpace(f.PaidDate)
	if d == "" {
		errs.Add("paid_date", "Informe a data de pagamento.")
	} else if _, err := core.ParseISODate(d, loc); err != nil {
		errs.Add("paid_date", "Data inválida.")
	}
	if !errs.Valid() {
		return "", errs
	}
	return d, nil
}

// Settle applies a payment date to a transaction, keeping every other field.
func Settle(t core.Transaction, paidDate string) core.TransactionPayload {
	p := t.Payload()
	p.Status = core.Paid
	p.PaidDate = paidDate
	return p
}
