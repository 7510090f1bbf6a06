package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"vbudget/internal/alerts"
	"vbudget/internal/amqp"
	"vbudget/internal/api"
	"vbudget/internal/backend"
	"vbudget/internal/cache"
	"vbudget/internal/cli"
	"vbudget/internal/config"
	apphttp "vbudget/internal/http"
	"vbudget/internal/log"
	"vbudget/internal/session"
	"vbudget/internal/sheets"
	gsheet "vbudget/internal/sheets/google"
	sheetsmem "vbudget/internal/sheets/memory"
	"vbudget/web"
)

func serveCmd() *cobra.Command {
	var port, rulesBackend string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web server",
		Long: `Serve the VBudget pages and HTMX partials. Configuration comes from the
environment (and .env); flags override it.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := cli.LoadAndValidateConfig(func(c *config.Config) {
				if port != "" {
					c.Port = port
				}
				if rulesBackend != "" {
					c.RulesBackend = rulesBackend
				}
			})
			if err != nil {
				return err
			}
			logger := cli.SetupLogger(cfg, log.ComponentApp)
			return serve(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (default: PORT or 8081)")
	cmd.Flags().StringVar(&rulesBackend, "backend", "", "rules backend: memory, sqlite or api (default: RULES_BACKEND)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	client, err := api.New(cfg.APIBaseURL, &http.Client{Timeout: cfg.APITimeout}, logger)
	if err != nil {
		return fmt.Errorf("api client: %w", err)
	}

	caches := cache.NewManager(logger)
	caches.StartCleanup(time.Minute)
	defer caches.Stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	rules, err := backend.NewFactory(logger.Logger, client).CreateBackend(ctx, backendCfg)
	if err != nil {
		return fmt.Errorf("rules backend: %w", err)
	}
	if rules.Cleanup != nil {
		defer func() {
			if err := rules.Cleanup(); err != nil {
				logger.Warn("Closing rules backend failed", log.FieldError, err)
			}
		}()
	}

	checks := map[string]func(context.Context) error{"api": client.Ping}
	if rules.Ping != nil {
		checks["rules_backend"] = rules.Ping
	}

	var publisher alerts.Publisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			return fmt.Errorf("connect to AMQP: %w", err)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("Alert publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - fired alerts are only logged")
	}

	var exporter sheets.TransactionExporter
	if cfg.SheetsEnabled() {
		exporter, err = gsheet.New(ctx, gsheet.Options{
			SpreadsheetID:   cfg.GoogleSpreadsheetID,
			CredentialsJSON: cfg.GoogleServiceAccountJSON,
			CredentialsFile: cfg.GoogleServiceAccountFile,
		})
		if err != nil {
			return fmt.Errorf("google sheets: %w", err)
		}
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		exporter = sheetsmem.New()
		logger.Info("Google Sheets disabled - exports stay in memory")
	}

	static, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("static assets: %w", err)
	}

	srv, err := apphttp.NewServer(apphttp.Deps{
		Categories:   api.NewCategories(client),
		Transactions: api.NewTransactions(client),
		Auth:         api.NewAuth(client),
		Rules:        rules.Backend,
		Integrations: rules.Backend,
		Sessions: session.NewManager(api.NewAuth(client), caches, logger, session.Options{
			UserTTL:      cfg.UserTTL,
			MaxSessions:  cfg.MaxSessions,
			SecureCookie: cfg.SecureCookies,
		}),
		Caches:    caches,
		Notifier:  alerts.NewNotifier(rules.Backend, publisher, logger, loc),
		Exporter:  exporter,
		Templates: web.TemplatesFS,
		Static:    static,
		Logger:    logger,
		Checks:    checks,
	}, apphttp.Options{
		Addr:        ":" + cfg.Port,
		Location:    loc,
		CacheTTL:    cfg.CacheTTL,
		MaxSessions: cfg.MaxSessions,
		RateLimit:   cfg.RateLimit,
		SheetName:   cfg.GoogleSheetName,
	})
	if err != nil {
		return err
	}

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, cancel := cli.GracefulShutdown(ctx, logger)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting vbudget server",
			"port", cfg.Port,
			"backend", cfg.RulesBackend,
			"api", cfg.APIBaseURL)
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		serveErr <- err
		cancel()
	}()

	if err := cli.WaitForShutdown(ctx, logger, 30*time.Second, srv.Shutdown); err != nil {
		return err
	}
	if err := <-serveErr; err != nil {
		return fmt.Errorf("server on port %s: %w", cfg.Port, err)
	}
	logger.Info("Server stopped gracefully")
	return nil
}
