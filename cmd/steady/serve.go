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

	"github.com/spf13/cobra"

	"github.com/dukerupert/steady/internal/auth"
	"github.com/dukerupert/steady/internal/config"
	"github.com/dukerupert/steady/internal/database"
	"github.com/dukerupert/steady/internal/email"
	"github.com/dukerupert/steady/internal/push"
	"github.com/dukerupert/steady/internal/server"
)

// sentRetention bounds how long reminder dedupe rows are kept.
const sentRetention = 7 * 24 * time.Hour

func newServeCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.ValidateServe(); err != nil {
				return err
			}
			return serve(cfg)
		},
	}
}

func serve(cfg *config.Config) error {
	logger := slog.Default()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	srv := server.New(db, server.Options{
		Tokens:   auth.NewTokens(cfg.JWTSecret, cfg.TokenTTL, cfg.SecureCookie),
		Location: loc,
		Push: push.Config{
			VAPIDPublicKey:  cfg.VAPIDPublicKey,
			VAPIDPrivateKey: cfg.VAPIDPrivateKey,
			Subject:         cfg.PushSubject,
		},
		ReminderInterval: cfg.ReminderInterval,
		Email:            email.NewClient(cfg.PostmarkToken, cfg.FromEmail, cfg.BaseURL),
		WSOrigins:        cfg.WSOrigins,
		TrustProxy:       cfg.TrustedProxy,
	}, logger)

	if !cfg.PushEnabled() {
		logger.Info("web push disabled, set STEADY_VAPID_PUBLIC_KEY and STEADY_VAPID_PRIVATE_KEY to enable")
	}

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	bgCtx, bgCancel := context.WithCancel(context.Background())
	defer bgCancel()

	if sched := srv.PushScheduler(); sched != nil {
		sched.Start(bgCtx)
		defer sched.Stop()
	}

	// Background cleanup goroutine
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup()
				if err := srv.PushStore().CleanupSent(bgCtx, time.Now().Add(-sentRetention)); err != nil {
					logger.Error("cleanup sent reminders", "error", err)
				}
			case <-bgCtx.Done():
				return
			}
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("steady starting", "addr", httpServer.Addr, "timezone", loc.String())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	}

	logger.Info("shutting down")
	bgCancel()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
