package views

import (
	"time"

	"vbudget/internal/core"
)

// Tone picks the color treatment of a value in the templates.
type Tone string

const (
	ToneNeutral  Tone = "neutral"
	TonePositive Tone = "positive"
	ToneNegative Tone = "negative"
	ToneWarning  Tone = "warning"
)

// Card is one dashboard summary tile.
type Card struct {
	Label string
	Icon  string
	Value string
	Hint  string
	Tone  Tone
}

// CategoryBadge is nil in a row whose category no longer exists.
type CategoryBadge struct {
	Name  string
	Color string
}

type TransactionRow struct {
	ID          int64
	Description string
	Kind        core.Kind
	KindLabel   string
	Amount      string
	Tone        Tone
	Category    *CategoryBadge
	Status      core.Status
	StatusLabel string
	Paid        bool
	DueDate     string
	PaidDate    string
	Overdue     bool
}

// NewTransactionRow formats t for a table. Amounts carry a sign that
// follows the kind, since the API always sends them positive.
func NewTransactionRow(t core.Transaction, idx core.CategoryIndex, now time.Time, loc *time.Location) TransactionRow {
	row := TransactionRow{
		ID:          t.ID,
		Description: t.Description,
		Kind:        t.Kind,
		KindLabel:   t.Kind.Label(),
		Status:      t.Status,
		StatusLabel: t.Status.Label(),
		Paid:        t.Status == core.Paid,
		DueDate:     core.FormatDate(t.DueDate, loc),
		PaidDate:    core.FormatDate(t.PaidDate, loc),
		Overdue:     core.IsOverdue(t, now, loc),
	}
	if t.Kind == core.Income {
		row.Amount, row.Tone = "+\u00a0"+core.FormatCurrency(t.Amount), TonePositive
	} else {
		row.Amount, row.Tone = "\u2212\u00a0"+core.FormatCurrency(t.Amount), ToneNegative
	}
	if c, ok := idx.Lookup(t.CategoryID); ok {
		row.Category = &CategoryBadge{Name: c.Name, Color: core.ColorOrDefault(c.Color)}
	}
	return row
}

func TransactionRows(txs []core.Transaction, cats []core.Category, now time.Time, loc *time.Location) []TransactionRow {
	idx := core.IndexCategories(cats)
	rows := make([]TransactionRow, len(txs))
	for i, t := range txs {
		rows[i] = NewTransactionRow(t, idx, now, loc)
	}
	return rows
}

// Dashboard is the home page: three balance cards and the latest entries.
type Dashboard struct {
	Cards  []Card
	Recent []TransactionRow
}

func NewDashboard(txs []core.Transaction, cats []core.Category, now time.Time, loc *time.Location) Dashboard {
	s := core.Summarize(txs)
	settled := s.Settled()
	settledTone := TonePositive
	if settled.IsNegative() {
		settledTone = ToneNegative
	}
	return Dashboard{
		Cards: []Card{
			{
				Label: "Saldo Liquidado",
				Icon:  "wallet",
				Value: core.FormatCurrency(settled),
				Hint:  "Provisão: " + core.FormatCurrency(s.Provisional()),
				Tone:  settledTone,
			},
			{
				Label: "Receitas",
				Icon:  "trending-up",
				Value: core.FormatCurrency(s.PaidIncome),
				Hint:  "Provisão: +" + core.FormatCurrency(s.PendingIncome),
				Tone:  TonePositive,
			},
			{
				Label: "Despesas",
				Icon:  "trending-down",
				Value: core.FormatCurrency(s.PaidExpense),
				Hint:  "Provisão: +" + core.FormatCurrency(s.PendingExpense),
				Tone:  ToneNegative,
			},
		},
		Recent: TransactionRows(core.Recent(txs, core.RecentLimit), cats, now, loc),
	}
}

type CategoryRow struct {
	ID        int64
	Name      string
	Kind      core.Kind
	KindLabel string
	Color     string
	ColorName string
}

func CategoryRows(cats []core.Category) []CategoryRow {
	rows := make([]CategoryRow, len(cats))
	for i, c := range cats {
		color := core.ColorOrDefault(c.Color)
		rows[i] = CategoryRow{
			ID:        c.ID,
			Name:      c.Name,
			Kind:      c.Kind,
			KindLabel: c.Kind.Label(),
			Color:     color,
			ColorName: core.ColorName(color),
		}
	}
	return rows
}

type ChannelBadge struct {
	Channel core.Channel
	Label   string
}

type RuleCard struct {
	ID          int64
	Title       string
	Threshold   string
	Enabled     bool
	StateLabel  string
	ToggleLabel string
	Channels    []ChannelBadge
	Recipients  []core.Recipient
}

func RuleCards(rules []core.NotificationRule) []RuleCard {
	cards := make([]RuleCard, len(rules))
	for i, r := range rules {
		card := RuleCard{
			ID:          r.ID,
			Title:       r.AlertType.Label(),
			Threshold:   core.FormatCurrency(r.Threshold),
			Enabled:     r.Enabled,
			StateLabel:  "Inativo",
			ToggleLabel: "Ativar",
			Recipients:  r.Recipients,
		}
		if r.Enabled {
			card.StateLabel, card.ToggleLabel = "Ativo", "Desativar"
		}
		for _, ch := range r.Channels {
			card.Channels = append(card.Channels, ChannelBadge{Channel: ch, Label: ch.Label()})
		}
		cards[i] = card
	}
	return cards
}

// NeverSynced is shown for integrations without a last sync.
const NeverSynced = "Nunca sincronizado"

var providerBlurb = map[core.Provider]string{
	core.ProviderOpenFinance: "Conecte suas contas bancárias via Open Finance para importar transações automaticamente.",
	core.ProviderWhatsApp:    "Receba notificações e alertas financeiros diretamente no seu WhatsApp.",
	core.ProviderSheets:      "Exporte seus lançamentos para uma planilha do Google Sheets.",
}

var providerIcon = map[core.Provider]string{
	core.ProviderOpenFinance: "landmark",
	core.ProviderWhatsApp:    "message-circle",
	core.ProviderSheets:      "sheet",
}

type IntegrationCard struct {
	ID          int64
	Provider    core.Provider
	Label       string
	Icon        string
	Description string
	StatusLabel string
	StatusTone  Tone
	LastSync    string
	Connected   bool
	// CanSync is true for connected providers that support a manual export.
	CanSync bool
}

func IntegrationCards(items []core.Integration, loc *time.Location) []IntegrationCard {
	cards := make([]IntegrationCard, len(items))
	for i, it := range items {
		c := IntegrationCard{
			ID:          it.ID,
			Provider:    it.Provider,
			Label:       it.Provider.Label(),
			Icon:        providerIcon[it.Provider],
			Description: providerBlurb[it.Provider],
			StatusLabel: it.ConnectionStatus.Label(),
			Connected:   it.ConnectionStatus == core.Connected,
			LastSync:    NeverSynced,
		}
		switch it.ConnectionStatus {
		case core.Connected:
			c.StatusTone = TonePositive
		case core.Errored:
			c.StatusTone = ToneNegative
		default:
			c.StatusTone = ToneNeutral
		}
		if it.LastSync != nil {
			c.LastSync = core.FormatDateTime(it.LastSync, loc)
		}
		c.CanSync = it.Provider == core.ProviderSheets && it.ConnectionStatus != core.Disconnected
		cards[i] = c
	}
	return cards
}
