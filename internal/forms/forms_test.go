package forms

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vbudget/internal/core"
)

const today = "2024-03-10"

func validTransaction() TransactionForm {
	return TransactionForm{
		Description: "Mercado",
		Amount:      "152,30",
		Kind:        core.Expense,
		Status:      core.Pending,
		CategoryID:  "4",
		DueDate:     "2024-03-15",
	}
}

func TestNewTransactionFormDefaults(t *testing.T) {
	f := NewTransactionForm(today)
	assert.Equal(t, core.Expense, f.Kind)
	assert.Equal(t, core.Pending, f.Status)
	assert.Equal(t, today, f.DueDate)
	assert.Empty(t, f.PaidDate)
	assert.False(t, f.Editing())
}

func TestEditTransactionFormSeedsFromEntity(t *testing.T) {
	f := EditTransactionForm(core.Transaction{
		ID: 9, Description: "Salário", Amount: core.AmountOf(5000), Kind: core.Income,
		Status: core.Paid, CategoryID: 1, DueDate: "2024-01-05", PaidDate: "2024-01-05",
	})
	assert.True(t, f.Editing())
	assert.Equal(t, "5000.00", f.Amount)
	assert.Equal(t, "1", f.CategoryID)
	assert.True(t, f.ShowPaidDate())
}

func TestWithKindClearsCategory(t *testing.T) {
	f := validTransaction().WithKind(core.Income)
	assert.Equal(t, core.Income, f.Kind)
	assert.Empty(t, f.CategoryID)

	same := validTransaction().WithKind(core.Expense)
	assert.Equal(t, "4", same.CategoryID, "re-selecting the same kind keeps the category")
}

func TestWithStatusFillsPaidDate(t *testing.T) {
	f := validTransaction().WithStatus(core.Paid, today)
	assert.Equal(t, today, f.PaidDate)

	f.PaidDate = "2024-03-01"
	f = f.WithStatus(core.Paid, today)
	assert.Equal(t, "2024-03-01", f.PaidDate, "an explicit paid date survives a re-render")

	f = f.WithStatus(core.Pending, today)
	assert.Empty(t, f.PaidDate)
	assert.False(t, f.ShowPaidDate())
}

func TestCategoryOptionsFilterByKind(t *testing.T) {
	all := []core.Category{
		{ID: 1, Name: "Salário", Kind: core.Income},
		{ID: 2, Name: "Mercado", Kind: core.Expense},
	}
	opts := validTransaction().CategoryOptions(all)
	require.Len(t, opts, 1)
	assert.Equal(t, int64(2), opts[0].ID)
}

func TestTransactionValidate(t *testing.T) {
	p, errs := validTransaction().Validate(time.UTC)
	require.Nil(t, errs)
	assert.Equal(t, "Mercado", p.Description)
	assert.True(t, p.Amount.Equal(core.AmountFromFloat(152.30)))
	assert.Equal(t, int64(4), p.CategoryID)
	assert.Equal(t, "", p.PaidDate)

	tests := []struct {
		name   string
		mutate func(*TransactionForm)
		field  string
		msg    string
	}{
		{"empty description", func(f *TransactionForm) { f.Description = "  " }, "description", "Descrição é obrigatória."},
		{"long description", func(f *TransactionForm) { f.Description = strings.Repeat("á", 101) }, "description", "Descrição deve ter no máximo 100 caracteres."},
		{"missing amount", func(f *TransactionForm) { f.Amount = "" }, "amount", "Informe o valor."},
		{"zero amount", func(f *TransactionForm) { f.Amount = "0" }, "amount", "O valor deve ser maior que zero."},
		{"negative amount", func(f *TransactionForm) { f.Amount = "-5" }, "amount", "O valor deve ser maior que zero."},
		{"garbage amount", func(f *TransactionForm) { f.Amount = "abc" }, "amount", "O valor deve ser maior que zero."},
		{"no category", func(f *TransactionForm) { f.CategoryID = "" }, "category_id", "Selecione uma categoria."},
		{"no due date", func(f *TransactionForm) { f.DueDate = "" }, "due_date", "Informe a data de vencimento."},
		{"bad paid date", func(f *TransactionForm) { f.PaidDate = "10/03/2024" }, "paid_date", "Data inválida."},
		{"bad kind", func(f *TransactionForm) { f.Kind = "transfer" }, "kind", "Selecione o tipo."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validTransaction()
			tt.mutate(&f)
			_, errs := f.Validate(time.UTC)
			require.False(t, errs.Valid())
			assert.Equal(t, tt.msg, errs.Get(tt.field))
		})
	}
}

func TestDescriptionAtLimitIsValid(t *testing.T) {
	f := validTransaction()
	f.Description = strings.Repeat("ç", MaxDescriptionLen)
	_, errs := f.Validate(time.UTC)
	assert.True(t, errs.Valid())
}

func TestSettleForm(t *testing.T) {
	f := NewSettleForm(3, today)
	assert.True(t, f.CanSubmit())
	d, errs := f.Validate(time.UTC)
	require.True(t, errs.Valid())
	assert.Equal(t, today, d)

	f.PaidDate = ""
	assert.False(t, f.CanSubmit())
	_, errs = f.Validate(time.UTC)
	assert.Equal(t, "Informe a data de pagamento.", errs.Get("paid_date"))
}

func TestSettleKeepsOtherFields(t *testing.T) {
	tx := core.Transaction{ID: 1, Description: "Luz", Amount: core.AmountOf(90), Kind: core.Expense, Status: core.Pending, CategoryID: 2, DueDate: "2024-03-01"}
	p := Settle(tx, today)
	assert.Equal(t, core.Paid, p.Status)
	assert.Equal(t, today, p.PaidDate)
	assert.Equal(t, "Luz", p.Description)
	assert.Equal(t, "2024-03-01", p.DueDate)
}

func TestCategoryValidate(t *testing.T) {
	p, errs := CategoryForm{Name: " Casa ", Kind: core.Expense, Color: "#3B82F6"}.Validate()
	require.True(t, errs.Valid())
	assert.Equal(t, "Casa", p.Name)
	assert.Equal(t, "#3b82f6", p.Color)

	_, errs = CategoryForm{Name: strings.Repeat("x", 41), Kind: core.Expense, Color: "#3b82f6"}.Validate()
	assert.Equal(t, "Máximo 40 caracteres.", errs.Get("name"))

	_, errs = CategoryForm{Name: "Casa", Kind: core.Expense}.Validate()
	assert.Equal(t, "Selecione a cor.", errs.Get("color"))

	_, errs = CategoryForm{Name: "Casa", Color: "#3b82f6"}.Validate()
	assert.Equal(t, "Selecione o tipo.", errs.Get("kind"))
}

func TestNewCategoryFormDefaults(t *testing.T) {
	f := NewCategoryForm()
	assert.Equal(t, "#22c55e", f.Color)
	assert.False(t, f.Editing())
}

func validRule() RuleForm {
	return RuleForm{
		AlertType:  core.LowBalance,
		Threshold:  "500",
		Channels:   []core.Channel{core.ChannelEmail, core.ChannelWhatsApp},
		Recipients: []RecipientRow{{Name: "João", Contact: "joao@email.com"}, {Name: "Maria", Contact: "+5511999999999"}},
		Enabled:    true,
	}
}

func TestRuleValidate(t *testing.T) {
	p, errs := validRule().Validate()
	require.True(t, errs.Valid(), "%v", errs)
	assert.True(t, p.Threshold.Equal(core.AmountOf(500)))
	assert.Len(t, p.Channels, 2)
	assert.Len(t, p.Recipients, 2)

	tests := []struct {
		name   string
		mutate func(*RuleForm)
		field  string
		msg    string
	}{
		{"no type", func(f *RuleForm) { f.AlertType = "" }, "alert_type", "Selecione o tipo de alerta."},
		{"no threshold", func(f *RuleForm) { f.Threshold = "" }, "threshold", "Informe o valor limite."},
		{"zero threshold", func(f *RuleForm) { f.Threshold = "0" }, "threshold", "O valor limite deve ser maior que zero."},
		{"no channel", func(f *RuleForm) { f.Channels = nil }, "channels", "Selecione pelo menos um canal de disparo."},
		{"unknown channel only", func(f *RuleForm) { f.Channels = []core.Channel{"sms"} }, "channels", "Selecione pelo menos um canal de disparo."},
		{"no recipient", func(f *RuleForm) { f.Recipients = nil }, "recipients", "Adicione pelo menos um destinatário."},
		{"bad email", func(f *RuleForm) { f.Recipients[0].Contact = "joao@@email" }, "recipients", "Contato inválido: joao@@email"},
		{"empty name", func(f *RuleForm) { f.Recipients[1].Name = "" }, "recipients", "Nome é obrigatório."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := validRule()
			f.Recipients = append([]RecipientRow(nil), f.Recipients...)
			tt.mutate(&f)
			_, errs := f.Validate()
			assert.Equal(t, tt.msg, errs.Get(tt.field))
		})
	}
}

func TestRuleChannelsDeduplicated(t *testing.T) {
	f := validRule()
	f.Channels = []core.Channel{core.ChannelEmail, core.ChannelEmail}
	p, errs := f.Validate()
	require.True(t, errs.Valid())
	assert.Equal(t, []core.Channel{core.ChannelEmail}, p.Channels)
}

func TestRuleRecipientEditing(t *testing.T) {
	f := NewRuleForm()
	assert.True(t, f.Enabled)

	f.PendingName = "Ana"
	f = f.AddPending()
	assert.Empty(t, f.Recipients, "contact is required")

	f.PendingContact = "ana@email.com"
	f = f.AddPending()
	require.Len(t, f.Recipients, 1)
	assert.Empty(t, f.PendingName)

	f = f.RemoveRecipient(5)
	assert.Len(t, f.Recipients, 1)
	f = f.RemoveRecipient(0)
	assert.Empty(t, f.Recipients)
}

func TestEditRuleFormRoundTrip(t *testing.T) {
	rule := core.NotificationRule{
		ID: 2, AlertType: core.SpendingLimit, Threshold: core.AmountOf(3000),
		Channels:   []core.Channel{core.ChannelEmail},
		Recipients: []core.Recipient{{ID: 1, Name: "João", Contact: "joao@email.com"}},
		Enabled:    true,
	}
	p, errs := EditRuleForm(rule).Validate()
	require.True(t, errs.Valid())
	assert.Equal(t, rule.Payload().Recipients, p.Recipients)
}

func TestValidContact(t *testing.T) {
	for _, ok := range []string{"joao@email.com", "+5511999999999", "(11) 99999-9999"} {
		assert.True(t, ValidContact(ok), ok)
	}
	for _, bad := range []string{"joao", "joao@", "123", "+55 11"} {
		assert.False(t, ValidContact(bad), bad)
	}
}

func TestLoginForm(t *testing.T) {
	f := LoginForm{Mode: ModeLogin, Name: "ana", Password: "x"}
	assert.True(t, f.Validate().Valid())
	assert.False(t, f.Registering())

	toggled := f.Toggled()
	assert.True(t, toggled.Registering())
	assert.Equal(t, "ana", toggled.Name)
	assert.Empty(t, toggled.Password)

	errs := LoginForm{}.Validate()
	assert.Equal(t, "Informe o usuário.", errs.Get("name"))
	assert.Equal(t, "Informe a senha.", errs.Get("password"))
}
