package forms

import (
	"regexp"
	"strings"

	"github.com/badoux/checkmail"

	"vbudget/internal/core"
)

var phone = regexp.MustCompile(`^\+?[0-9]{8,15}$`)

type RecipientRow struct {
	Name    string
	Contact string
}

// RuleForm is the state of the notification rule dialog. Pending holds the
// "add recipient" inputs that are not part of the rule yet.
type RuleForm struct {
	ID             int64
	AlertType      core.AlertType
	Threshold      string
	Channels       []core.Channel
	Recipients     []RecipientRow
	Enabled        bool
	PendingName    string
	PendingContact string
}

// NewRuleForm starts empty and enabled.
func NewRuleForm() RuleForm {
	return RuleForm{Enabled: true}
}

func EditRuleForm(r core.NotificationRule) RuleForm {
	rows := make([]RecipientRow, len(r.Recipients))
	for i, rc := range r.Recipients {
		rows[i] = RecipientRow{Name: rc.Name, Contact: rc.Contact}
	}
	return RuleForm{
		ID:         r.ID,
		AlertType:  r.AlertType,
		Threshold:  r.Threshold.String(),
		Channels:   append([]core.Channel(nil), r.Channels...),
		Recipients: rows,
		Enabled:    r.Enabled,
	}
}

func (f RuleForm) Editing() bool { return f.ID != 0 }

func (f RuleForm) HasChannel(c core.Channel) bool {
	for _, ch := range f.Channels {
		if ch == c {
			return true
		}
	}
	return false
}

// AddPending moves the pending inputs into the recipient list. Both inputs
// are required; otherwise the form is returned unchanged.
func (f RuleForm) AddPending() RuleForm {
	name, contact := strings.TrimSpace(f.PendingName), strings.TrimSpace(f.PendingContact)
	if name == "" || contact == "" {
		return f
	}
	f.Recipients = append(append([]RecipientRow(nil), f.Recipients...), RecipientRow{Name: name, Contact: contact})
	f.PendingName, f.PendingContact = "", ""
	return f
}

// RemoveRecipient drops row i; out-of-range indexes are ignored.
func (f RuleForm) RemoveRecipient(i int) RuleForm {
	if i < 0 || i >= len(f.Recipients) {
		return f
	}
	rows := make([]RecipientRow, 0, len(f.Recipients)-1)
	rows = append(rows, f.Recipients[:i]...)
	f.Recipients = append(rows, f.Recipients[i+1:]...)
	return f
}

// ValidContact accepts an e-mail address or a phone number.
func ValidContact(contact string) bool {
	contact = strings.TrimSpace(contact)
	if strings.Contains(contact, "@") {
		return checkmail.ValidateFormat(contact) == nil
	}
	digits := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(contact)
	return phone.MatchString(digits)
}

func (f RuleForm) Validate() (core.NotificationRulePayload, FieldErrors) {
	errs := FieldErrors{}

	if !f.AlertType.Valid() {
		errs.Add("alert_type", "Selecione o tipo de alerta.")
	}

	var threshold core.Amount
	if strings.TrimSpace(f.Threshold) == "" {
		errs.Add("threshold", "Informe o valor limite.")
	} else if a, err := core.ParseAmount(f.Threshold); err != nil || !a.IsPositive() {
		errs.Add("threshold", "O valor limite deve ser maior que zero.")
	} else {
		threshold = a
	}

	channels := make([]core.Channel, 0, len(f.Channels))
	for _, c := range f.Channels {
		if c.Valid() && !containsChannel(channels, c) {
			channels = append(channels, c)
		}
	}
	if len(channels) == 0 {
		errs.Add("channels", "Selecione pelo menos um canal de disparo.")
	}

	recipients := make([]core.RecipientPayload, 0, len(f.Recipients))
	for _, r := range f.Recipients {
		name, contact := strings.TrimSpace(r.Name), strings.TrimSpace(r.Contact)
		switch {
		case name == "":
			errs.Add("recipients", "Nome é obrigatório.")
		case contact == "":
			errs.Add("recipients", "Contato é obrigatório.")
		case !ValidContact(contact):
			errs.Add("recipients", "Contato inválido: "+contact)
		}
		recipients = append(recipients, core.RecipientPayload{Name: name, Contact: contact})
	}
	if len(recipients) == 0 {
		errs.Add("recipients", "Adicione pelo menos um destinatário.")
	}

	if !errs.Valid() {
		return core.NotificationRulePayload{}, errs
	}
	return core.NotificationRulePayload{
		AlertType:  f.AlertType,
		Threshold:  threshold,
		Channels:   channels,
		Recipients: recipients,
		Enabled:    f.Enabled,
	}, nil
}

func containsChannel(cs []core.Channel, c core.Channel) bool {
	for _, x := range cs {
		if x == c {
			return true
		}
	}
	return false
}
