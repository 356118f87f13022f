package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"blogify/internal/api"
	"blogify/internal/auth"
	"blogify/internal/blog"
	"blogify/internal/config"
	"blogify/internal/db"
)

// sessionBackend is a refresh-token store that can also be swept.
type sessionBackend interface {
	auth.SessionStore
	db.ExpiredTokenPruner
}

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})))

	slog.Info("starting server", "name", cfg.Server.Name)

	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.Info("database opened", "path", cfg.Database.Path)

	var sessions sessionBackend
	switch cfg.Auth.SessionStore {
	case config.SessionStoreDatabase:
		sessions = db.NewRefreshTokenRepository(database)
	default:
		sessions = auth.NewMemorySessionStore()
	}
	slog.Info("session store configured", "store", cfg.Auth.SessionStore)

	cleanupService := db.NewCleanupService(sessions, cfg.Auth.SessionCleanupInterval)
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	go cleanupService.Start(cleanupCtx)

	users := db.NewUserRepository(database)
	tokens := auth.NewTokenService(auth.TokenConfig{
		AccessSecret:  cfg.Auth.AccessTokenSecret,
		AccessTTL:     cfg.Auth.AccessTokenTTL,
		RefreshSecret: cfg.Auth.RefreshTokenSecret,
		RefreshTTL:    cfg.Auth.RefreshTokenTTL,
	})
	authService := auth.NewService(users, sessions, tokens, auth.NewPasswordHasher(cfg.Auth.BcryptCost))
	blogService := blog.NewService(db.NewBlogRepository(database), blog.NewSanitizer())

	server := api.NewServer(cfg, api.Services{
		Auth:     authService,
		Blogs:    blogService,
		Users:    users,
		Database: database,
	})

	addr := cfg.Addr()
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down")

	cleanupCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("server stopped")
}
