// Package main is the entry point for the newsdesk server.
// It loads configuration, connects to services, sets up routing, and starts
// the HTTP server with graceful shutdown support.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"newsdesk/internal/config"
	"newsdesk/internal/database"
	"newsdesk/internal/handlers"
	"newsdesk/internal/middleware"
	"newsdesk/internal/rbac"
	"newsdesk/internal/router"
	"newsdesk/internal/session"
	"newsdesk/internal/store"
)

func main() {
	// A missing .env file is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(cfg))
	slog.Info("configuration loaded",
		"env", cfg.Env,
		"addr", cfg.Addr(),
		"locales", cfg.Locales,
	)

	// Connect to PostgreSQL.
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Run pending migrations.
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Seed roles, permissions and the first admin (no-op if present).
	if cfg.Seed || cfg.IsDev() {
		if err := database.Seed(db); err != nil {
			slog.Error("failed to seed database", "error", err)
			os.Exit(1)
		}
	}

	// Connect to Valkey (Redis-compatible session store).
	valkeyClient, err := session.Connect(cfg.ValkeyAddr, cfg.ValkeyPassword, 0)
	if err != nil {
		slog.Error("failed to connect to valkey", "error", err)
		os.Exit(1)
	}
	defer valkeyClient.Close()

	// In non-development environments, cookies are HTTPS-only.
	secureCookies := !cfg.IsDev()
	sessionStore := session.NewStore(valkeyClient, []byte(cfg.SessionSecret), secureCookies)

	locales := cfg.LocaleSet()

	// Initialize data stores.
	userStore := store.NewUserStore(db)
	roleStore := store.NewRoleStore(db)
	articleStore := store.NewArticleStore(db, locales)
	categoryStore := store.NewCategoryStore(db, locales)
	tagStore := store.NewTagStore(db, locales)

	// Permissions are always resolved from the stored role.
	engine := rbac.NewEngine(roleStore)

	loginGuard := middleware.NewLoginGuard(middleware.LoginGuardConfig{
		IPRate:      cfg.LoginRate,
		IPBurst:     cfg.LoginBurst,
		MaxFailures: cfg.LoginMaxFailures,
		Window:      cfg.LoginLockout,
		Lockout:     cfg.LoginLockout,
	})
	defer loginGuard.Stop()

	r := router.New(router.Deps{
		Sessions:     sessionStore,
		Engine:       engine,
		LoginGuard:   loginGuard,
		SecureCookie: secureCookies,
		Auth:         handlers.NewAuth(sessionStore, userStore, engine, loginGuard),
		Articles:     handlers.NewArticles(articleStore, engine),
		Taxonomy:     handlers.NewTaxonomy(categoryStore, tagStore),
		Roles:        handlers.NewRoles(roleStore, engine),
		Users:        handlers.NewUsers(userStore, roleStore, engine),
		Public:       handlers.NewPublic(articleStore, categoryStore, locales),
	})

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start the server in a goroutine so we can listen for shutdown signals.
	go func() {
		slog.Info("server starting", "addr", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown: wait for SIGINT or SIGTERM, then drain connections.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("shutdown signal received", "signal", sig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped gracefully")
}

// newLogger builds the process logger: text for humans, JSON for log
// shippers.
func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
