package http

import (
	"context"
	"net/http"

	"golang.org/x/sync/errgroup"

	"vbudget/internal/core"
	"vbudget/internal/session"
	"vbudget/internal/views"
)

// dashboard fetches transactions and categories concurrently. Each list
// degrades to empty on its own; one failure does not cancel the other fetch.
func (s *Server) dashboard(ctx context.Context, sess *session.Session) views.Dashboard {
	var (
		txs           []core.Transaction
		cats          []core.Category
		txErr, catErr error
		g             errgroup.Group
	)
	g.Go(func() error {
		txs, txErr = s.loadTransactions(ctx, sess)
		return txErr
	})
	g.Go(func() error {
		cats, catErr = s.loadCategories(ctx, sess)
		return catErr
	})
	if err := g.Wait(); err != nil {
		if txErr != nil {
			s.listFailed(ctx, "transactions", txErr)
			txs = nil
		}
		if catErr != nil {
			s.listFailed(ctx, "categories", catErr)
			cats = nil
		}
	}
	return views.NewDashboard(txs, cats, s.now(), s.loc)
}

// handleDashboard renders the main dashboard page
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess, user := s.current(r)
	s.renderPage(w, r, "dashboard", "Dashboard", &user, s.dashboard(r.Context(), sess))
}

// handleDashboardPartial re-renders the cards and recent list after a
// transaction changed.
func (s *Server) handleDashboardPartial(w http.ResponseWriter, r *http.Request) {
	sess, _ := s.current(r)
	s.renderPartial(w, r, "dashboard_content", s.dashboard(r.Context(), sess))
}
