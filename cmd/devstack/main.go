package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/adscity/dashboard/internal/config"
	"github.com/adscity/dashboard/internal/devserver"
	"github.com/adscity/dashboard/internal/httputil"
	"github.com/adscity/dashboard/internal/obs"
)

func main() {
	// Load .env file if present (ignore error if not found)
	_ = godotenv.Load()

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Register metrics
	obs.Init()

	// In-memory backend state
	store := devserver.NewStore()
	tokens := devserver.NewTokens(devserver.TokenConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: "adscity-dashboard",
		TTL:      cfg.IDTokenTTL,
	})

	// Seed a dev account if configured
	if cfg.HasSeedAccount() {
		user, err := store.CreateUser(cfg.SeedEmail, cfg.SeedPassword, cfg.SeedRole)
		if err != nil {
			logger.Error("failed to seed account", "error", err)
			os.Exit(1)
		}
		store.AddPost(user.UID, "Appartement 2 pièces, centre-ville", "real-estate")
		store.AddPost(user.UID, "Lada Niva 2015", "vehicles")
		if _, err := store.AddNotification(user.UID, "Bienvenue sur AdsCity", "Votre compte est actif."); err != nil {
			logger.Warn("failed to seed notification", "error", err)
		}
		logger.Info("seeded dev account", "email", cfg.SeedEmail, "uid", user.UID, "role", user.Role)
	}

	cookieCfg := httputil.DefaultCookieConfig(cfg.CookieDomain)
	cookieCfg.Secure = cfg.CookieSecure
	cookieCfg.TTL = cfg.TokenTTL
	if !cfg.CookieSecure {
		// SameSite=None requires Secure; fall back for plain-http dev.
		cookieCfg.SameSite = http.SameSiteLaxMode
	}

	// Create router
	router := devserver.NewRouter(devserver.RouterConfig{
		Logger:                logger,
		Store:                 store,
		Tokens:                tokens,
		CookieCfg:             cookieCfg,
		RateLimitEnabled:      cfg.RateLimitEnabled,
		AuthRequestsPerMinute: cfg.AuthRequestsPerMinute,
		APIRequestsPerMinute:  cfg.APIRequestsPerMinute,
	})

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting dev stack", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}
