package http

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"vbudget/internal/core"
	"vbudget/internal/forms"
	"vbudget/internal/log"
	"vbudget/internal/session"
	"vbudget/internal/ui/dialog"
	"vbudget/internal/views"
)

type ruleDialog struct {
	Form   forms.RuleForm
	Errors forms.FieldErrors
}

type rulesList struct {
	Cards []views.RuleCard
}

func (s *Server) rulesList(ctx context.Context, sess *session.Session, owner int64) rulesList {
	rules, err := s.loadRules(ctx, sess, owner)
	if err != nil {
		s.listFailed(ctx, "notification_rules", err)
	}
	return rulesList{Cards: views.RuleCards(rules)}
}

func (s *Server) handleNotificationsPage(w http.ResponseWriter, r *http.Request) {
	sess, user := s.current(r)
	s.renderPage(w, r, "notifications", "Notificações", &user, s.rulesList(r.Context(), sess, user.ID))
}

func (s *Server) handleNotificationsPartial(w http.ResponseWriter, r *http.Request) {
	sess, user := s.current(r)
	s.renderPartial(w, r, "rules_list", s.rulesList(r.Context(), sess, user.ID))
}

func (s *Server) handleNewRule(w http.ResponseWriter, r *http.Request) {
	s.renderPartial(w, r, "dialog_rule", ruleDialog{Form: forms.NewRuleForm()})
}

func (s *Server) handleEditRule(w http.ResponseWriter, r *http.Request) {
	id, ok := IDParam(r)
	if !ok {
		ToastError("Regra não encontrada.").Write(w)
		return
	}
	_, user := s.current(r)
	rule, err := s.deps.Rules.GetRule(r.Context(), user.ID, id)
	if err != nil {
		s.openFailed(w, r, "notification_rule", id, err, "Erro ao carregar regra.")
		return
	}
	s.renderPartial(w, r, "dialog_rule", ruleDialog{Form: forms.EditRuleForm(rule)})
}

// handleRuleRecipients adds or removes a recipient row without saving the
// rule; the whole recipients block is swapped.
func (s *Server) handleRuleRecipients(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	f := ParseRuleForm(r.Form)
	errs := forms.FieldErrors{}
	if r.Form.Get("action") == "add" && (strings.TrimSpace(f.PendingName) == "" || strings.TrimSpace(f.PendingContact) == "") {
		errs.Add("pending", "Informe nome e contato do destinatário.")
	}
	s.renderPartial(w, r, "rule_recipients", ruleDialog{Form: EditRecipients(f, r.Form), Errors: errs})
}

func (s *Server) handleCreateRule(w http.ResponseWriter, r *http.Request) {
	s.saveRule(w, r, 0)
}

func (s *Server) handleUpdateRule(w http.ResponseWriter, r *http.Request) {
	id, ok := IDParam(r)
	if !ok {
		ToastError("Regra não encontrada.").Write(w)
		return
	}
	s.saveRule(w, r, id)
}

// rulePatch sets every field of p, so an edit replaces the whole rule.
func rulePatch(p core.NotificationRulePayload) core.NotificationRulePatch {
	return core.NotificationRulePatch{
		AlertType:  &p.AlertType,
		Threshold:  &p.Threshold,
		Channels:   p.Channels,
		Recipients: p.Recipients,
		Enabled:    &p.Enabled,
	}
}

func (s *Server) saveRule(w http.ResponseWriter, r *http.Request, id int64) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	sess, user := s.current(r)

	f := ParseRuleForm(r.Form)
	f.ID = id
	payload, errs := f.Validate()
	if !errs.Valid() {
		s.renderPartial(w, r, "dialog_rule", ruleDialog{Form: f, Errors: errs})
		return
	}

	op, toast := log.OpCreate, "Regra criada com sucesso!"
	if f.Editing() {
		op, toast = log.OpUpdate, "Regra atualizada com sucesso!"
	}
	out, err := dialog.Submit(ctx, dialog.Opened(f), func(ctx context.Context, f forms.RuleForm) error {
		var (
			saved core.NotificationRule
			err   error
		)
		if f.Editing() {
			saved, err = s.deps.Rules.UpdateRule(ctx, user.ID, f.ID, rulePatch(payload))
		} else {
			saved, err = s.deps.Rules.CreateRule(ctx, user.ID, payload)
		}
		id = saved.ID
		return err
	}, dialog.Outcome{Toast: toast, Refresh: RefreshNotifications}, failure("Erro ao salvar regra."))
	if err == nil {
		s.rules.Invalidate(sess.Key())
	}
	s.finish(w, r, out, err, op, "notification_rule", id)
}

// handleToggleRule flips a rule's enabled flag from its card.
func (s *Server) handleToggleRule(w http.ResponseWriter, r *http.Request) {
	id, ok := IDParam(r)
	if !ok {
		ToastError("Regra não encontrada.").Write(w)
		return
	}
	ctx := r.Context()
	sess, user := s.current(r)

	var toast string
	out, err := dialog.Submit(ctx, dialog.Opened(id), func(ctx context.Context, id int64) error {
		rule, err := s.deps.Rules.GetRule(ctx, user.ID, id)
		if err != nil {
			return err
		}
		enabled := !rule.Enabled
		if _, err := s.deps.Rules.UpdateRule(ctx, user.ID, id, core.NotificationRulePatch{Enabled: &enabled}); err != nil {
			return err
		}
		toast = "Regra desativada!"
		if enabled {
			toast = "Regra ativada!"
		}
		return nil
	}, dialog.Outcome{Refresh: RefreshNotifications}, failure("Erro ao atualizar regra."))
	if err == nil {
		s.rules.Invalidate(sess.Key())
		out.Toast = toast
	}
	s.finish(w, r, out, err, log.OpToggle, "notification_rule", id)
}

func (s *Server) handleDeleteRuleDialog(w http.ResponseWriter, r *http.Request) {
	id, ok := IDParam(r)
	if !ok {
		ToastError("Regra não encontrada.").Write(w)
		return
	}
	s.renderConfirm(w, r, confirmDialog{
		Title:       "Confirmar Exclusão",
		Description: "Tem certeza que deseja excluir esta regra de notificação? Esta ação não pode ser desfeita.",
		Action:      fmt.Sprintf("/notifications/%d", id),
		Confirm:     "Excluir",
	})
}

func (s *Server) handleDeleteRule(w http.ResponseWriter, r *http.Request) {
	id, ok := IDParam(r)
	if !ok {
		ToastError("Regra não encontrada.").Write(w)
		return
	}
	ctx := r.Context()
	sess, user := s.current(r)
	out, err := dialog.Submit(ctx, dialog.Opened(id), func(ctx context.Context, id int64) error {
		return s.deps.Rules.DeleteRule(ctx, user.ID, id)
	}, dialog.Outcome{Toast: "Regra excluída!", Refresh: RefreshNotifications}, failure("Erro ao excluir regra."))
	if err == nil {
		s.rules.Invalidate(sess.Key())
	}
	s.finish(w, r, out, err, log.OpDelete, "notification_rule", id)
}
