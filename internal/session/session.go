// Package session resolves the signed-in user for a request and carries it
// explicitly through the request context.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"vbudget/internal/api"
	"vbudget/internal/cache"
	"vbudget/internal/core"
	"vbudget/internal/log"
)

// ErrUnauthenticated means the request has no usable API session.
var ErrUnauthenticated = errors.New("unauthenticated")

const (
	Loading State = iota
	Authenticated
	Anonymous
)

// State of a session's user resolution.
type State int

// Authenticator is the slice of the auth service a session needs.
type Authenticator interface {
	Me(ctx context.Context) (core.User, error)
	Logout(ctx context.Context) error
}

// Manager creates sessions and owns the short-lived "me" cache.
type Manager struct {
	auth   Authenticator
	users  *cache.Resource[core.User]
	caches *cache.Manager
	logger *log.Logger
	secure bool
}

type Options struct {
	// UserTTL bounds how long a resolved user is reused before /me is asked again.
	UserTTL      time.Duration
	MaxSessions  int
	SecureCookie bool
}

func NewManager(auth Authenticator, caches *cache.Manager, logger *log.Logger, opts Options) *Manager {
	if opts.UserTTL <= 0 {
		opts.UserTTL = time.Minute
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 1000
	}
	if logger == nil {
		logger = log.Discard()
	}
	if caches == nil {
		caches = cache.NewManager(logger)
	}
	users := cache.NewResource[core.User]("me", opts.MaxSessions, opts.UserTTL)
	caches.Register(users)
	return &Manager{
		auth:   auth,
		users:  users,
		caches: caches,
		logger: logger.WithComponent(log.ComponentSession),
		secure: opts.SecureCookie,
	}
}

// Session is the auth state of one browser session.
type Session struct {
	m     *Manager
	creds *api.Credentials
	key   string
	state State
	user  core.User
}

// Init resolves the current user. Any failure leaves an anonymous session
// and returns ErrUnauthenticated.
func (m *Manager) Init(ctx context.Context, creds *api.Credentials) (*Session, error) {
	s := &Session{m: m, creds: creds, key: creds.Key(), state: Loading}
	if s.key == "" {
		s.state = Anonymous
		return s, ErrUnauthenticated
	}
	if err := s.resolve(api.WithCredentials(ctx, creds)); err != nil {
		return s, err
	}
	return s, nil
}

func (s *Session) resolve(ctx context.Context) error {
	user, err := s.m.users.Load(ctx, s.key, s.m.auth.Me)
	if err != nil {
		s.state = Anonymous
		s.user = core.User{}
		if !api.IsUnauthorized(err) {
			s.m.logger.WarnContext(ctx, "Resolving session user failed", log.FieldError, err.Error())
		}
		return fmt.Errorf("%w: %v", ErrUnauthenticated, err)
	}
	s.state = Authenticated
	s.user = user
	return nil
}

func (s *Session) State() State { return s.state }

func (s *Session) Loading() bool { return s.state == Loading }

func (s *Session) Authenticated() bool { return s.state == Authenticated }

// User returns the signed-in user; ok is false for anonymous sessions.
func (s *Session) User() (core.User, bool) {
	return s.user, s.state == Authenticated
}

// Key partitions per-session caches.
func (s *Session) Key() string { return s.key }

func (s *Session) Credentials() *api.Credentials { return s.creds }

// Refetch drops the cached user and asks the API again.
func (s *Session) Refetch(ctx context.Context) error {
	s.m.users.Invalidate(s.key)
	s.state = Loading
	return s.resolve(api.WithCredentials(ctx, s.creds))
}

// Logout ends the session on the API. Local state is torn down whatever
// the API answers; the error is returned for logging only.
func (s *Session) Logout(ctx context.Context) error {
	err := s.m.auth.Logout(api.WithCredentials(ctx, s.creds))
	s.m.caches.ForgetSession(s.key)
	s.state = Anonymous
	s.user = core.User{}
	if err != nil {
		s.m.logger.WarnContext(ctx, "API logout failed", log.FieldError, err.Error())
	}
	return err
}

// RelayCookies copies the cookies the API set during this request onto the
// browser response, scoped to this host.
func (m *Manager) RelayCookies(w http.ResponseWriter, creds *api.Credentials) {
	for _, ck := range creds.Received() {
		out := *ck
		out.Domain = ""
		out.Path = "/"
		out.HttpOnly = true
		out.Secure = m.secure
		if out.SameSite == http.SameSiteDefaultMode {
			out.SameSite = http.SameSiteLaxMode
		}
		http.SetCookie(w, &out)
	}
}
