package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"time"

	"vbudget/internal/api"
	"vbudget/internal/log"
	"vbudget/internal/session"
	"vbudget/internal/ui/dialog"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	health := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	}

	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(health)
}

// handleReady runs the configured dependency checks.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]any{"templates": "ok"}

	for name, check := range s.deps.Checks {
		if err := check(ctx); err != nil {
			checks[name] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	entries := map[string]int{}
	for _, st := range s.deps.Caches.Stats() {
		entries[st.Name] = st.Size
	}
	checks["cache"] = map[string]any{"entries": entries, "status": "ok"}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()
	stats := s.deps.Caches.Stats()
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })

	w.WriteHeader(http.StatusOK)

	counter := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s counter\n%s %d\n\n", name, help, name, name, v)
	}
	gauge := func(name, help string, v int64) {
		fmt.Fprintf(w, "# HELP %s %s\n# TYPE %s gauge\n%s %d\n\n", name, help, name, name, v)
	}

	counter("http_requests_total", "Total number of HTTP requests", traceMetrics.TotalRequests)
	counter("http_server_errors_total", "HTTP responses with a 5xx status", traceMetrics.ServerErrors)
	gauge("http_response_time_avg_microseconds", "Average response time", traceMetrics.AverageResponseTime)
	counter("mutations_total", "Successful create, update, settle and delete operations", s.appMetrics.mutations.Load())
	counter("mutation_errors_total", "Mutations rejected by the API or a store", s.appMetrics.mutationErrors.Load())
	counter("alerts_fired_total", "Notification rules that fired after a transaction change", s.appMetrics.alertsFired.Load())
	counter("sheet_syncs_total", "Successful spreadsheet exports", s.appMetrics.syncs.Load())

	fmt.Fprintf(w, "# HELP cache_hits_total Total cache hits\n# TYPE cache_hits_total counter\n")
	for _, st := range stats {
		fmt.Fprintf(w, "cache_hits_total{resource=%q} %d\n", st.Name, st.Hits)
	}
	fmt.Fprintf(w, "\n# HELP cache_misses_total Total cache misses\n# TYPE cache_misses_total counter\n")
	for _, st := range stats {
		fmt.Fprintf(w, "cache_misses_total{resource=%q} %d\n", st.Name, st.Misses)
	}
	fmt.Fprintf(w, "\n# HELP cache_stale_total Fetches discarded because a mutation overtook them\n# TYPE cache_stale_total counter\n")
	for _, st := range stats {
		fmt.Fprintf(w, "cache_stale_total{resource=%q} %d\n", st.Name, st.Stale)
	}
	fmt.Fprintf(w, "\n# HELP cache_entries Current cache entries\n# TYPE cache_entries gauge\n")
	for _, st := range stats {
		fmt.Fprintf(w, "cache_entries{resource=%q} %d\n", st.Name, st.Size)
	}
	fmt.Fprintln(w)

	counter("rate_limit_hits_total", "Total rate limit hits", rateLimitMetrics.TotalHits)
	counter("suspicious_requests_total", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	counter("blocked_requests_total", "Suspicious requests rejected", securityMetrics.BlockedRequests)
	gauge("active_rate_limit_clients", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	fmt.Fprintf(w, "# HELP uptime_seconds Application uptime in seconds\n# TYPE uptime_seconds gauge\nuptime_seconds %.0f\n", time.Since(s.appMetrics.uptime).Seconds())
}

// failure maps a mutation error to the toast shown over the open dialog:
// the API's own message for a 400, fallback otherwise.
func failure(fallback string) func(error) string {
	return func(err error) string {
		if api.IsBadRequest(err) {
			return api.MessageOf(err, "Dados inválidos.")
		}
		return fallback
	}
}

// finish answers a dialog submission. On success the dialog closes, the
// affected list refreshes and a toast is shown; on failure the dialog is
// left as is under an error toast. An expired session sends the browser to
// the login page.
func (s *Server) finish(w http.ResponseWriter, r *http.Request, out dialog.Outcome, err error, op, resource string, id int64) {
	ctx := r.Context()
	if err != nil {
		s.appMetrics.mutationErrors.Add(1)
		if api.IsUnauthorized(err) {
			session.Redirect(w, r, session.LoginPath)
			return
		}
		log.FromContext(ctx).WarnContext(ctx, "Mutation failed",
			log.FieldOperation, op,
			log.FieldResource, resource,
			log.FieldResourceID, id,
			log.FieldAPIStatus, api.StatusOf(err),
			log.FieldError, err)
		ToastError(out.Toast).Write(w)
		return
	}
	s.appMetrics.mutations.Add(1)
	s.structured.LogMutation(ctx, op, resource, id)
	NewHTMXResponse().
		TriggerRefresh(out.Refresh).
		TriggerDialogClose().
		TriggerSuccessNotification(out.Toast).
		Write(w)
}

// openFailed answers a dialog that could not be opened because its entity
// could not be loaded.
func (s *Server) openFailed(w http.ResponseWriter, r *http.Request, resource string, id int64, err error, msg string) {
	if api.IsUnauthorized(err) {
		session.Redirect(w, r, session.LoginPath)
		return
	}
	ctx := r.Context()
	log.FromContext(ctx).WarnContext(ctx, "Loading dialog entity failed",
		log.FieldResource, resource,
		log.FieldResourceID, id,
		log.FieldOperation, log.OpRead,
		log.FieldError, err)
	ToastError(msg).Write(w)
}

// confirmDialog is the data of the shared delete confirmation.
type confirmDialog struct {
	Title       string
	Description string
	Action      string
	Confirm     string
}

func (s *Server) renderConfirm(w http.ResponseWriter, r *http.Request, c confirmDialog) {
	s.renderPartial(w, r, "dialog_confirm", c)
}
