package http

import (
	"context"
	"fmt"
	"net/http"

	"vbudget/internal/core"
	"vbudget/internal/forms"
	"vbudget/internal/log"
	"vbudget/internal/session"
	"vbudget/internal/ui/dialog"
	"vbudget/internal/views"
)

type transactionDialog struct {
	Form       forms.TransactionForm
	Errors     forms.FieldErrors
	Categories []core.Category
}

type settleDialog struct {
	Form   forms.SettleForm
	Errors forms.FieldErrors
}

type transactionsList struct {
	Rows []views.TransactionRow
}

func (s *Server) transactionsList(ctx context.Context, sess *session.Session) transactionsList {
	txs, err := s.loadTransactions(ctx, sess)
	if err != nil {
		s.listFailed(ctx, "transactions", err)
	}
	cats, err := s.loadCategories(ctx, sess)
	if err != nil {
		s.listFailed(ctx, "categories", err)
	}
	return transactionsList{Rows: views.TransactionRows(txs, cats, s.now(), s.loc)}
}

func (s *Server) handleTransactionsPage(w http.ResponseWriter, r *http.Request) {
	sess, user := s.current(r)
	s.renderPage(w, r, "transactions", "Lançamentos", &user, s.transactionsList(r.Context(), sess))
}

func (s *Server) handleTransactionsPartial(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.current(r)
	s.renderPartial(w, r, "transactions_table", s.transactionsList(r.Context(), sess))
}

// transactionDialogData pairs the form with the categories of its kind.
func (s *Server) transactionDialogData(ctx context.Context, sess *session.Session, f forms.TransactionForm, errs forms.FieldErrors) transactionDialog {
	cats, err := s.loadCategories(ctx, sess)
	if err != nil {
		s.listFailed(ctx, "categories", err)
	}
	return transactionDialog{Form: f, Errors: errs, Categories: f.CategoryOptions(cats)}
}

func (s *Server) handleNewTransaction(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.current(r)
	f := forms.NewTransactionForm(s.today())
	s.renderPartial(w, r, "dialog_transaction", s.transactionDialogData(r.Context(), sess, f, nil))
}

func (s *Server) handleEditTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := IDParam(r)
	if !ok {
		ToastError("Lançamento não encontrado.").Write(w)
		return
	}
	sess, _ := s.current(r)
	t, err := s.deps.Transactions.Get(r.Context(), id)
	if err != nil {
		s.openFailed(w, r, "transaction", id, err, "Erro ao carregar lançamento.")
		return
	}
	f := forms.EditTransactionForm(t)
	s.renderPartial(w, r, "dialog_transaction", s.transactionDialogData(r.Context(), sess, f, nil))
}

// handleTransactionFields re-renders the dependent fields after the kind or
// status select changed.
func (s *Server) handleTransactionFields(w http.ResponseWriter, r *http.Request) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	sess, _ := s.current(r)
	f := DeriveTransactionForm(r.Form, s.today())
	s.renderPartial(w, r, "transaction_fields", s.transactionDialogData(r.Context(), sess, f, nil))
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	s.saveTransaction(w, r, 0)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := IDParam(r)
	if !ok {
		ToastError("Lançamento não encontrado.").Write(w)
		return
	}
	s.saveTransaction(w, r, id)
}

// saveTransaction creates (id 0) or updates a transaction from the dialog.
func (s *Server) saveTransaction(w http.ResponseWriter, r *http.Request, id int64) {
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	sess, user := s.current(r)

	f := ParseTransactionForm(r.Form)
	f.ID = id
	payload, errs := f.Validate(s.loc)
	if !errs.Valid() {
		s.renderPartial(w, r, "dialog_transaction", s.transactionDialogData(ctx, sess, f, errs))
		return
	}

	op, toast := log.OpCreate, "Lançamento criado!"
	if f.Editing() {
		op, toast = log.OpUpdate, "Lançamento atualizado!"
	}
	out, err := dialog.Submit(ctx, dialog.Opened(f), func(ctx context.Context, f forms.TransactionForm) error {
		var (
			saved core.Transaction
			err   error
		)
		if f.Editing() {
			saved, err = s.deps.Transactions.Update(ctx, f.ID, payload)
		} else {
			saved, err = s.deps.Transactions.Create(ctx, payload)
		}
		id = saved.ID
		return err
	}, dialog.Outcome{Toast: toast, Refresh: RefreshTransactions}, failure("Erro ao salvar lançamento."))
	if err == nil {
		s.afterTransactionChange(ctx, sess, user)
	}
	s.finish(w, r, out, err, op, "transaction", id)
}

func (s *Server) handleSettleDialog(w http.ResponseWriter, r *http.Request) {
	id, ok := IDParam(r)
	if !ok {
		ToastError("Lançamento não encontrado.").Write(w)
		return
	}
	s.renderPartial(w, r, "dialog_settle", settleDialog{Form: forms.NewSettleForm(id, s.today())})
}

// handleSettleTransaction marks a transaction paid on the chosen date,
// keeping every other field as the API has it.
func (s *Server) handleSettleTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := IDParam(r)
	if !ok {
		ToastError("Lançamento não encontrado.").Write(w)
		return
	}
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}
	ctx := r.Context()
	sess, user := s.current(r)

	f := ParseSettleForm(id, r.Form)
	paidDate, errs := f.Validate(s.loc)
	if !errs.Valid() {
		s.renderPartial(w, r, "dialog_settle", settleDialog{Form: f, Errors: errs})
		return
	}

	out, err := dialog.Submit(ctx, dialog.Opened(f), func(ctx context.Context, f forms.SettleForm) error {
		t, err := s.deps.Transactions.Get(ctx, f.TransactionID)
		if err != nil {
			return fmt.Errorf("load transaction %d: %w", f.TransactionID, err)
		}
		_, err = s.deps.Transactions.Update(ctx, f.TransactionID, forms.Settle(t, paidDate))
		return err
	}, dialog.Outcome{Toast: "Lançamento baixado!", Refresh: RefreshTransactions}, failure("Erro ao baixar lançamento."))
	if err == nil {
		s.afterTransactionChange(ctx, sess, user)
	}
	s.finish(w, r, out, err, log.OpSettle, "transaction", id)
}

func (s *Server) handleDeleteTransactionDialog(w http.ResponseWriter, r *http.Request) {
	id, ok := IDParam(r)
	if !ok {
		ToastError("Lançamento não encontrado.").Write(w)
		return
	}
	s.renderConfirm(w, r, confirmDialog{
		Title:       "Confirmar Exclusão",
		Description: "Tem certeza que deseja excluir este lançamento? Esta ação não pode ser desfeita.",
		Action:      fmt.Sprintf("/transactions/%d", id),
		Confirm:     "Excluir",
	})
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, ok := IDParam(r)
	if !ok {
		ToastError("Lançamento não encontrado.").Write(w)
		return
	}
	ctx := r.Context()
	sess, user := s.current(r)
	out, err := dialog.Submit(ctx, dialog.Opened(id), s.deps.Transactions.Delete,
		dialog.Outcome{Toast: "Lançamento excluído!", Refresh: RefreshTransactions},
		failure("Erro ao excluir lançamento."))
	if err == nil {
		s.afterTransactionChange(ctx, sess, user)
	}
	s.finish(w, r, out, err, log.OpDelete, "transaction", id)
}

// afterTransactionChange drops the cached list and re-evaluates the user's
// notification rules against the fresh one. Alert problems never fail the
// mutation; they are logged.
func (s *Server) afterTransactionChange(ctx context.Context, sess *session.Session, user core.User) {
	s.transactions.Invalidate(sess.Key())
	if s.deps.Notifier == nil {
		return
	}
	txs, err := s.loadTransactions(ctx, sess)
	if err != nil {
		s.listFailed(ctx, "transactions", err)
		return
	}
	fired, err := s.deps.Notifier.Check(ctx, user, txs)
	s.appMetrics.alertsFired.Add(int64(len(fired)))
	if err != nil {
		log.FromContext(ctx).WarnContext(ctx, "Alert check failed",
			log.FieldUserID, user.ID,
			log.FieldError, err)
	}
}
