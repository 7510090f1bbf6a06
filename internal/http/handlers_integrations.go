package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"vbudget/internal/core"
	"vbudget/internal/log"
	"vbudget/internal/session"
	"vbudget/internal/sheets"
	"vbudget/internal/store"
	"vbudget/internal/ui/dialog"
	"vbudget/internal/views"
)

var (
	errNoExporter    = errors.New("spreadsheet export is not configured")
	errNotSyncable   = errors.New("integration does not support a manual sync")
	errNoIntegration = errors.New("integration not found")
)

type integrationsList struct {
	Cards []views.IntegrationCard
}

func (s *Server) integrationsList(ctx context.Context, sess *session.Session, owner int64) integrationsList {
	items, err := s.loadIntegrations(ctx, sess, owner)
	if err != nil {
		s.listFailed(ctx, "integrations", err)
	}
	return integrationsList{Cards: views.IntegrationCards(items, s.loc)}
}

func (s *Server) handleIntegrationsPage(w http.ResponseWriter, r *http.Request) {
	sess, user := s.current(r)
	s.renderPage(w, r, "integrations", "Integrações", &user, s.integrationsList(r.Context(), sess, user.ID))
}

func (s *Server) handleIntegrationsPartial(w http.ResponseWriter, r *http.Request) {
	sess, user := s.current(r)
	s.renderPartial(w, r, "integrations_list", s.integrationsList(r.Context(), sess, user.ID))
}

// findIntegration looks id up in the user's integrations.
func (s *Server) findIntegration(ctx context.Context, owner, id int64) (core.Integration, error) {
	items, err := s.deps.Integrations.ListIntegrations(ctx, owner)
	if err != nil {
		return core.Integration{}, err
	}
	for _, it := range items {
		if it.ID == id {
			return it, nil
		}
	}
	return core.Integration{}, fmt.Errorf("integration %d: %w", id, errNoIntegration)
}

// handleToggleIntegration connects a disconnected integration and
// disconnects a connected one.
func (s *Server) handleToggleIntegration(w http.ResponseWriter, r *http.Request) {
	id, ok := IDParam(r)
	if !ok {
		ToastError("Integração não encontrada.").Write(w)
		return
	}
	ctx := r.Context()
	sess, user := s.current(r)

	var toast string
	out, err := dialog.Submit(ctx, dialog.Opened(id), func(ctx context.Context, id int64) error {
		it, err := s.findIntegration(ctx, user.ID, id)
		if err != nil {
			return err
		}
		next := store.ToggledStatus(it.ConnectionStatus)
		if _, err := s.deps.Integrations.UpdateIntegration(ctx, user.ID, id, core.IntegrationPatch{ConnectionStatus: &next}); err != nil {
			return err
		}
		toast = it.Provider.Label() + " desconectado."
		if next == core.Connected {
			toast = it.Provider.Label() + " conectado!"
		}
		return nil
	}, dialog.Outcome{Refresh: RefreshIntegrations}, failure("Erro ao atualizar integração."))
	if err == nil {
		s.integrations.Invalidate(sess.Key())
		out.Toast = toast
	}
	s.finish(w, r, out, err, log.OpToggle, "integration", id)
}

// handleSyncIntegration exports the user's transactions to the spreadsheet.
// A failed export leaves the integration errored until the next success.
func (s *Server) handleSyncIntegration(w http.ResponseWriter, r *http.Request) {
	id, ok := IDParam(r)
	if !ok {
		ToastError("Integração não encontrada.").Write(w)
		return
	}
	ctx := r.Context()
	sess, user := s.current(r)

	var written int
	out, err := dialog.Submit(ctx, dialog.Opened(id), func(ctx context.Context, id int64) error {
		it, err := s.findIntegration(ctx, user.ID, id)
		if err != nil {
			return err
		}
		if it.Provider != core.ProviderSheets || it.ConnectionStatus == core.Disconnected {
			return errNotSyncable
		}
		if s.deps.Exporter == nil {
			return errNoExporter
		}
		written, err = s.exportTransactions(ctx, sess)
		if err != nil {
			s.markIntegration(ctx, user.ID, id, core.Errored, nil)
			return err
		}
		now := s.now()
		return s.markIntegration(ctx, user.ID, id, core.Connected, &now)
	}, dialog.Outcome{Refresh: RefreshIntegrations}, func(err error) string {
		switch {
		case errors.Is(err, errNotSyncable):
			return "Conecte a integração antes de sincronizar."
		case errors.Is(err, errNoExporter):
			return "Exportação para planilha não configurada."
		default:
			return "Erro ao sincronizar planilha."
		}
	})
	s.integrations.Invalidate(sess.Key())
	if err == nil {
		s.appMetrics.syncs.Add(1)
		out.Toast = fmt.Sprintf("%d lançamentos exportados!", written)
	}
	s.finish(w, r, out, err, log.OpSync, "integration", id)
}

// exportTransactions writes the fresh transaction list to the configured
// sheet, bypassing the cache.
func (s *Server) exportTransactions(ctx context.Context, sess *session.Session) (int, error) {
	s.transactions.Invalidate(sess.Key())
	txs, err := s.loadTransactions(ctx, sess)
	if err != nil {
		return 0, fmt.Errorf("load transactions: %w", err)
	}
	cats, err := s.loadCategories(ctx, sess)
	if err != nil {
		return 0, fmt.Errorf("load categories: %w", err)
	}
	n, err := s.deps.Exporter.Export(ctx, s.opts.SheetName, sheets.Rows(txs, cats, s.loc))
	if err != nil {
		return 0, fmt.Errorf("export to %q: %w", s.opts.SheetName, err)
	}
	s.logger.InfoContext(ctx, "Transactions exported",
		log.FieldOperation, log.OpExport,
		"rows", n,
		"sheet", s.opts.SheetName)
	return n, nil
}

func (s *Server) markIntegration(ctx context.Context, owner, id int64, status core.ConnectionStatus, synced *time.Time) error {
	_, err := s.deps.Integrations.UpdateIntegration(ctx, owner, id, core.IntegrationPatch{
		ConnectionStatus: &status,
		LastSync:         synced,
	})
	if err != nil {
		s.logger.WarnContext(ctx, "Updating integration status failed",
			log.FieldResource, "integration",
			log.FieldResourceID, id,
			log.FieldError, err)
	}
	return err
}
