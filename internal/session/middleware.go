package session

import (
	"context"
	"net/http"

	"vbudget/internal/api"
)

type contextKey struct{}

// LoginPath is where unauthenticated requests are sent.
const LoginPath = "/login"

// WithSession stores s on ctx, together with its API credentials.
func WithSession(ctx context.Context, s *Session) context.Context {
	ctx = api.WithCredentials(ctx, s.creds)
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session attached by Require, or nil.
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(contextKey{}).(*Session)
	return s
}

// Require attaches an authenticated session to the request or redirects
// to the login page.
func (m *Manager) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		creds := api.NewCredentials(r.Cookies())
		s, err := m.Init(r.Context(), creds)
		m.RelayCookies(w, creds)
		if err != nil {
			Redirect(w, r, LoginPath)
			return
		}
		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), s)))
	})
}

// Redirect sends the browser to path; HTMX requests get HX-Redirect so the
// whole page navigates instead of swapping a fragment.
func Redirect(w http.ResponseWriter, r *http.Request, path string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", path)
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}
