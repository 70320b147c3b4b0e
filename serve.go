package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-crm/pkg/audit"
	"github.com/ekaya-inc/ekaya-crm/pkg/auth"
	"github.com/ekaya-inc/ekaya-crm/pkg/database"
	"github.com/ekaya-inc/ekaya-crm/pkg/export"
	"github.com/ekaya-inc/ekaya-crm/pkg/handlers"
	"github.com/ekaya-inc/ekaya-crm/pkg/mcp"
	mcpauth "github.com/ekaya-inc/ekaya-crm/pkg/mcp/auth"
	"github.com/ekaya-inc/ekaya-crm/pkg/mcp/tools"
	"github.com/ekaya-inc/ekaya-crm/pkg/middleware"
)

const shutdownTimeout = 15 * time.Second

var skipMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and MCP endpoint",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Do not apply pending migrations on startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.Bool("mcp_enabled", cfg.MCP.Enabled),
		zap.String("timezone", cfg.Locale.Timezone),
		zap.String("version", cfg.Version))

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if !skipMigrations {
		if err := database.RunMigrations(stdlib.OpenDBFromPool(a.db.Pool), logger); err != nil {
			return err
		}
	}

	jwksClient, err := auth.NewJWKSClient(ctx, &auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize JWKS client: %w", err)
	}
	defer jwksClient.Close()

	authService := auth.NewAuthService(jwksClient, logger)
	sessions := auth.NewSessionStore(cfg.Auth.SessionSecret, auth.DeriveCookieSettings(cfg.BaseURL, cfg.CookieDomain))
	authMiddleware := auth.NewMiddleware(authService, sessions, cfg.Auth.EnableVerification, logger)
	scope := database.WithUserScope(a.db, logger)

	m := a.metrics
	auditor := audit.NewSecurityAuditor(logger)
	search := handlers.NewSearchGuard(auditor, logger)
	exporter := export.NewExporter(a.enterprises, a.contacts, a.opportunities, a.activities, logger)

	mux := http.NewServeMux()

	handlers.NewHealthHandler(cfg, a.db, logger).RegisterRoutes(mux)
	handlers.NewSessionHandler(sessions, a.users, logger).RegisterRoutes(mux, scope)
	handlers.NewUsersHandler(a.users, logger).RegisterRoutes(mux, authMiddleware, scope)
	handlers.NewEnterprisesHandler(a.enterprises, search, logger).RegisterRoutes(mux, authMiddleware, scope)
	handlers.NewContactsHandler(a.contacts, search, logger).RegisterRoutes(mux, authMiddleware, scope)
	handlers.NewOpportunitiesHandler(a.opportunities, search, logger).RegisterRoutes(mux, authMiddleware, scope)
	handlers.NewActivitiesHandler(a.activities, search, auditor, logger).RegisterRoutes(mux, authMiddleware, scope)
	handlers.NewDashboardHandler(a.dashboard, a.pipeline, logger).RegisterRoutes(mux, authMiddleware, scope)
	handlers.NewExportHandler(exporter, a.clock, logger).RegisterRoutes(mux, authMiddleware, scope)
	mux.Handle("GET /metrics", m.Handler())

	if cfg.MCP.Enabled {
		auditLogger := mcp.NewAuditLogger(m, logger)
		mcpServer := mcp.NewServer("ekaya-crm", cfg.Version, auditLogger, logger)
		tools.RegisterHealthTool(mcpServer.MCP(), cfg.Version, a.db)
		tools.RegisterCRMTools(mcpServer.MCP(), &tools.Deps{
			Scopes:        a.scopes,
			Dashboard:     a.dashboard,
			Pipeline:      a.pipeline,
			Opportunities: a.opportunities,
			Activities:    a.activities,
			Logger:        logger,
		})

		mcpAuth := mcpauth.NewMiddleware(authService, cfg.Auth.EnableVerification, auditLogger, logger)
		mcpHandler := middleware.MCPRequestLogger(logger)(mcpServer.NewStreamableHTTPServer())
		mux.Handle("/mcp", mcpAuth.RequireAuth(mcpHandler))
		logger.Info("MCP endpoint enabled", zap.String("url", cfg.BaseURL+"/mcp"))
	}

	var handler http.Handler = mux
	handler = middleware.RequestMetrics(m)(handler)
	handler = middleware.RequestLogger(logger)(handler)

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting ekaya-crm",
			zap.String("addr", srv.Addr),
			zap.Bool("tls", cfg.TLSCertPath != ""),
			zap.String("version", cfg.Version))
		if cfg.TLSCertPath != "" {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down cleanly: %w", err)
	}
	return nil
}
