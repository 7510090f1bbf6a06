package core

import (
	"errors"
	"time"
)

const (
	Income  Kind = "income"
	Expense Kind = "expense"

	Pending Status = "pending"
	Paid    Status = "paid"

	LowBalance    AlertType = "low_balance"
	SpendingLimit AlertType = "spending_limit"

	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"

	ProviderOpenFinance Provider = "openfinance"
	ProviderWhatsApp    Provider = "whatsapp"
	ProviderSheets      Provider = "sheets"

	Connected    ConnectionStatus = "connected"
	Disconnected ConnectionStatus = "disconnected"
	Errored      ConnectionStatus = "error"
)

type (
	// Kind is shared by categories and transactions.
	Kind             string
	Status           string
	AlertType        string
	Channel          string
	Provider         string
	ConnectionStatus string

	User struct {
		ID   int64  `json:"id"`
		Name string `json:"name"`
	}

	Category struct {
		ID    int64  `json:"id"`
		Name  string `json:"name"`
		Kind  Kind   `json:"kind"`
		Color string `json:"color"`
	}

	CategoryPayload struct {
		Name  string `json:"name"`
		Kind  Kind   `json:"kind"`
		Color string `json:"color"`
	}

	Transaction struct {
		ID          int64  `json:"id"`
		Description string `json:"description"`
		Amount      Amount `json:"amount"`
		Kind        Kind   `json:"kind"`
		Status      Status `json:"status"`
		CategoryID  int64  `json:"category_id"`
		DueDate     string `json:"due_date"`
		PaidDate    string `json:"paid_date"` // "" while unpaid
		CreatedAt   string `json:"created_at"`
	}

	TransactionPayload struct {
		Description string `json:"description"`
		Amount      Amount `json:"amount"`
		Kind        Kind   `json:"kind"`
		Status      Status `json:"status"`
		CategoryID  int64  `json:"category_id"`
		DueDate     string `json:"due_date"`
		PaidDate    string `json:"paid_date"`
	}

	Recipient struct {
		ID      int64  `json:"id"`
		Name    string `json:"name"`
		Contact string `json:"contact"` // e-mail or phone
	}

	RecipientPayload struct {
		Name    string `json:"name"`
		Contact string `json:"contact"`
	}

	NotificationRule struct {
		ID         int64       `json:"id"`
		AlertType  AlertType   `json:"alert_type"`
		Threshold  Amount      `json:"threshold"`
		Channels   []Channel   `json:"channels"`
		Recipients []Recipient `json:"recipients"`
		Enabled    bool        `json:"enabled"`
	}

	NotificationRulePayload struct {
		AlertType  AlertType          `json:"alert_type"`
		Threshold  Amount             `json:"threshold"`
		Channels   []Channel          `json:"channels"`
		Recipients []RecipientPayload `json:"recipients"`
		Enabled    bool               `json:"enabled"`
	}

	// NotificationRulePatch is a partial update; nil fields are left untouched.
	NotificationRulePatch struct {
		AlertType  *AlertType         `json:"alert_type,omitempty"`
		Threshold  *Amount            `json:"threshold,omitempty"`
		Channels   []Channel          `json:"channels,omitempty"`
		Recipients []RecipientPayload `json:"recipients,omitempty"`
		Enabled    *bool              `json:"enabled,omitempty"`
	}

	Integration struct {
		ID               int64            `json:"id"`
		Provider         Provider         `json:"provider"`
		ConnectionStatus ConnectionStatus `json:"connection_status"`
		AccessToken      *string          `json:"access_token"`
		LastSync         *time.Time       `json:"last_sync"`
	}

	IntegrationPayload struct {
		Provider    Provider `json:"provider"`
		AccessToken *string  `json:"access_token,omitempty"`
	}

	// IntegrationPatch is a partial update of an integration.
	IntegrationPatch struct {
		ConnectionStatus *ConnectionStatus `json:"connection_status,omitempty"`
		AccessToken      *string           `json:"access_token,omitempty"`
		LastSync         *time.Time        `json:"last_sync,omitempty"`
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDate   = errors.New("invalid date")
	ErrNotFound      = errors.New("not found")
)

func (k Kind) Valid() bool { return k == Income || k == Expense }

func (s Status) Valid() bool { return s == Pending || s == Paid }

func (a AlertType) Valid() bool { return a == LowBalance || a == SpendingLimit }

func (c Channel) Valid() bool { return c == ChannelEmail || c == ChannelWhatsApp }

// Label returns the pt-BR display label.
func (k Kind) Label() string {
	switch k {
	case Income:
		return "Receita"
	case Expense:
		return "Despesa"
	}
	return string(k)
}

func (s Status) Label() string {
	switch s {
	case Paid:
		return "Baixado"
	case Pending:
		return "Pendente"
	}
	return string(s)
}

func (a AlertType) Label() string {
	switch a {
	case LowBalance:
		return "Saldo Abaixo do Esperado"
	case SpendingLimit:
		return "Limite de Gastos"
	}
	return string(a)
}

func (c Channel) Label() string {
	switch c {
	case ChannelEmail:
		return "E-mail"
	case ChannelWhatsApp:
		return "WhatsApp"
	}
	return string(c)
}

func (p Provider) Label() string {
	switch p {
	case ProviderOpenFinance:
		return "Open Finance"
	case ProviderWhatsApp:
		return "WhatsApp"
	case ProviderSheets:
		return "Google Sheets"
	}
	return string(p)
}

func (s ConnectionStatus) Label() string {
	switch s {
	case Connected:
		return "Conectado"
	case Disconnected:
		return "Desconectado"
	case Errored:
		return "Erro"
	}
	return string(s)
}

// HasChannel reports whether the rule notifies through c.
func (r NotificationRule) HasChannel(c Channel) bool {
	for _, ch := range r.Channels {
		if ch == c {
			return true
		}
	}
	return false
}

// Payload converts a rule back into its write shape.
func (r NotificationRule) Payload() NotificationRulePayload {
	recipients := make([]RecipientPayload, len(r.Recipients))
	for i, rc := range r.Recipients {
		recipients[i] = RecipientPayload{Name: rc.Name, Contact: rc.Contact}
	}
	return NotificationRulePayload{
		AlertType:  r.AlertType,
		Threshold:  r.Threshold,
		Channels:   append([]Channel(nil), r.Channels...),
		Recipients: recipients,
		Enabled:    r.Enabled,
	}
}

// Payload converts a transaction back into its write shape.
func (t Transaction) Payload() TransactionPayload {
	return TransactionPayload{
		Description: t.Description,
		Amount:      t.Amount,
		Kind:        t.Kind,
		Status:      t.Status,
		CategoryID:  t.CategoryID,
		DueDate:     t.DueDate,
		PaidDate:    t.PaidDate,
	}
}
