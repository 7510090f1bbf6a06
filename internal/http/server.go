package http

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"vbudget/internal/alerts"
	"vbudget/internal/api"
	"vbudget/internal/cache"
	"vbudget/internal/core"
	"vbudget/internal/log"
	"vbudget/internal/middleware/ratelimit"
	"vbudget/internal/middleware/security"
	"vbudget/internal/middleware/trace"
	"vbudget/internal/session"
	"vbudget/internal/sheets"
	"vbudget/internal/store"
)

// Services the handlers call. The api package types satisfy them.
type (
	CategoryService interface {
		List(ctx context.Context) ([]core.Category, error)
		Get(ctx context.Context, id int64) (core.Category, error)
		Create(ctx context.Context, p core.CategoryPayload) (core.Category, error)
		Update(ctx context.Context, id int64, p core.CategoryPayload) (core.Category, error)
		Delete(ctx context.Context, id int64) error
	}

	TransactionService interface {
		List(ctx context.Context) ([]core.Transaction, error)
		Get(ctx context.Context, id int64) (core.Transaction, error)
		Create(ctx context.Context, p core.TransactionPayload) (core.Transaction, error)
		Update(ctx context.Context, id int64, p core.TransactionPayload) (core.Transaction, error)
		Delete(ctx context.Context, id int64) error
	}

	AuthService interface {
		Login(ctx context.Context, p api.LoginPayload) (core.User, error)
		Register(ctx context.Context, p api.RegisterPayload) (core.User, error)
	}
)

// Deps are the collaborators of the server. Notifier, Exporter and the
// readiness checks are optional.
type Deps struct {
	Categories   CategoryService
	Transactions TransactionService
	Auth         AuthService
	Rules        store.RuleStore
	Integrations store.IntegrationStore
	Sessions     *session.Manager
	Caches       *cache.Manager
	Notifier     *alerts.Notifier
	Exporter     sheets.TransactionExporter
	Templates    fs.FS
	Static       fs.FS
	Logger       *log.Logger
	// Checks are run by /readyz, keyed by the name reported.
	Checks map[string]func(context.Context) error
}

// Options tune the server.
type Options struct {
	Addr           string
	Location       *time.Location
	CacheTTL       time.Duration
	MaxSessions    int
	RateLimit      int
	RequestTimeout time.Duration
	SheetName      string
}

type appMetrics struct {
	mutations      atomic.Int64
	mutationErrors atomic.Int64
	alertsFired    atomic.Int64
	syncs          atomic.Int64
	uptime         time.Time
}

type Server struct {
	http.Server
	deps       Deps
	opts       Options
	render     *Renderer
	logger     *log.Logger
	structured *log.StructuredLogger
	loc        *time.Location
	now        func() time.Time

	categories   *cache.Resource[[]core.Category]
	transactions *cache.Resource[[]core.Transaction]
	rules        *cache.Resource[[]core.NotificationRule]
	integrations *cache.Resource[[]core.Integration]

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       appMetrics

	shutdownOnce sync.Once
}

// NewServer parses the templates, registers the per-session caches and
// builds the router.
func NewServer(deps Deps, opts Options) (*Server, error) {
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}
	if deps.Caches == nil {
		deps.Caches = cache.NewManager(deps.Logger)
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 30 * time.Second
	}
	if opts.MaxSessions <= 0 {
		opts.MaxSessions = 1000
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	if opts.SheetName == "" {
		opts.SheetName = "Lançamentos"
	}

	render, err := NewRenderer(deps.Templates)
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	logger := deps.Logger.WithComponent(log.ComponentHTTP)
	s := &Server{
		Server:           http.Server{Addr: opts.Addr, ReadHeaderTimeout: 10 * time.Second},
		deps:             deps,
		opts:             opts,
		render:           render,
		logger:           logger,
		structured:       log.NewStructuredLogger(logger),
		loc:              opts.Location,
		now:              time.Now,
		categories:       cache.NewResource[[]core.Category]("categories", opts.MaxSessions, opts.CacheTTL),
		transactions:     cache.NewResource[[]core.Transaction]("transactions", opts.MaxSessions, opts.CacheTTL),
		rules:            cache.NewResource[[]core.NotificationRule]("rules", opts.MaxSessions, opts.CacheTTL),
		integrations:     cache.NewResource[[]core.Integration]("integrations", opts.MaxSessions, opts.CacheTTL),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimit}),
		securityDetector: security.NewDetector(),
	}
	s.appMetrics.uptime = time.Now()
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, deps.Logger)
	deps.Caches.Register(s.categories, s.transactions, s.rules, s.integrations)

	s.Handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.traceMiddleware.Middleware)
	r.Use(s.securityDetector.Middleware(s.deps.Logger))
	r.Use(security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware)

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", s.handleMetrics)
	if s.deps.Static != nil {
		r.With(security.StaticAssetMiddleware(3600)).
			Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(s.deps.Static))))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(s.opts.RequestTimeout))
		r.Use(s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, ratelimit.Mutating, s.onRateLimit))

		r.Get("/login", s.handleLoginPage)
		r.Post("/login", s.handleLogin)
		r.Post("/register", s.handleRegister)
		r.Post("/login/toggle", s.handleLoginToggle)

		r.Group(func(r chi.Router) {
			r.Use(s.deps.Sessions.Require)

			r.Post("/logout", s.handleLogout)

			r.Get("/", s.handleDashboard)
			r.Get("/ui/dashboard", s.handleDashboardPartial)

			r.Get("/transactions", s.handleTransactionsPage)
			r.Get("/ui/transactions", s.handleTransactionsPartial)
			r.Get("/transactions/new", s.handleNewTransaction)
			r.Post("/transactions/form", s.handleTransactionFields)
			r.Post("/transactions", s.handleCreateTransaction)
			r.Get("/transactions/{id}/edit", s.handleEditTransaction)
			r.Put("/transactions/{id}", s.handleUpdateTransaction)
			r.Get("/transactions/{id}/settle", s.handleSettleDialog)
			r.Post("/transactions/{id}/settle", s.handleSettleTransaction)
			r.Get("/transactions/{id}/delete", s.handleDeleteTransactionDialog)
			r.Delete("/transactions/{id}", s.handleDeleteTransaction)

			r.Get("/settings", s.handleSettingsPage)
			r.Get("/ui/categories", s.handleCategoriesPartial)
			r.Get("/categories/new", s.handleNewCategory)
			r.Post("/categories", s.handleCreateCategory)
			r.Get("/categories/{id}/edit", s.handleEditCategory)
			r.Put("/categories/{id}", s.handleUpdateCategory)
			r.Get("/categories/{id}/delete", s.handleDeleteCategoryDialog)
			r.Delete("/categories/{id}", s.handleDeleteCategory)

			r.Get("/notifications", s.handleNotificationsPage)
			r.Get("/ui/notifications", s.handleNotificationsPartial)
			r.Get("/notifications/new", s.handleNewRule)
			r.Post("/notifications/form/recipients", s.handleRuleRecipients)
			r.Post("/notifications", s.handleCreateRule)
			r.Get("/notifications/{id}/edit", s.handleEditRule)
			r.Put("/notifications/{id}", s.handleUpdateRule)
			r.Post("/notifications/{id}/toggle", s.handleToggleRule)
			r.Get("/notifications/{id}/delete", s.handleDeleteRuleDialog)
			r.Delete("/notifications/{id}", s.handleDeleteRule)

			r.Get("/integrations", s.handleIntegrationsPage)
			r.Get("/ui/integrations", s.handleIntegrationsPartial)
			r.Post("/integrations/{id}/toggle", s.handleToggleIntegration)
			r.Post("/integrations/{id}/sync", s.handleSyncIntegration)
		})
	})
	return r
}

func (s *Server) onRateLimit(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	if isHTMX(r) {
		NewHTMXResponse().
			Status(http.StatusTooManyRequests).
			TriggerErrorNotification("Muitas requisições. Aguarde um minuto e tente novamente.").
			Write(w)
		return
	}
	http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
}

// Shutdown stops the background goroutines and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// current returns the request's session and its user. Require guarantees
// both on every protected route.
func (s *Server) current(r *http.Request) (*session.Session, core.User) {
	sess := session.FromContext(r.Context())
	if sess == nil {
		return nil, core.User{}
	}
	user, _ := sess.User()
	return sess, user
}

func (s *Server) today() string {
	return core.Today(s.now(), s.loc)
}

func (s *Server) loadCategories(ctx context.Context, sess *session.Session) ([]core.Category, error) {
	return s.categories.Load(ctx, sess.Key(), s.deps.Categories.List)
}

func (s *Server) loadTransactions(ctx context.Context, sess *session.Session) ([]core.Transaction, error) {
	return s.transactions.Load(ctx, sess.Key(), s.deps.Transactions.List)
}

func (s *Server) loadRules(ctx context.Context, sess *session.Session, owner int64) ([]core.NotificationRule, error) {
	return s.rules.Load(ctx, sess.Key(), func(ctx context.Context) ([]core.NotificationRule, error) {
		return s.deps.Rules.ListRules(ctx, owner)
	})
}

func (s *Server) loadIntegrations(ctx context.Context, sess *session.Session, owner int64) ([]core.Integration, error) {
	return s.integrations.Load(ctx, sess.Key(), func(ctx context.Context) ([]core.Integration, error) {
		return s.deps.Integrations.ListIntegrations(ctx, owner)
	})
}

// listFailed logs a list fetch that degrades to an empty list.
func (s *Server) listFailed(ctx context.Context, resource string, err error) {
	log.FromContext(ctx).WarnContext(ctx, "List fetch failed, rendering empty list",
		log.FieldResource, resource,
		log.FieldOperation, log.OpList,
		log.FieldError, err)
}
