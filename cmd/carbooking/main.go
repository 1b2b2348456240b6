package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carbooking/internal/app/services/auth"
	"carbooking/internal/infra/config"
	ginserver "carbooking/internal/infra/http/gin"
	"carbooking/internal/infra/obs"
	"carbooking/internal/infra/security"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-token" {
		if err := hashToken(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := config.LoadDotEnv(os.Getenv("ENV_FILE")); err != nil {
		fmt.Fprintln(os.Stderr, "load .env:", err)
		os.Exit(1)
	}
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}
	logger := obs.NewLogger(cfg.Env, cfg.LogLevel)

	app, err := buildApplication(ctx, cfg, logger)
	if err != nil {
		logger.Error("application wiring failed", "error", err)
		os.Exit(1)
	}

	if err := app.loadFleetFixtures(ctx, cfg.FleetFixtures); err != nil {
		logger.Warn("fleet fixtures load failed", "error", err, "path", cfg.FleetFixtures)
	}

	app.startBackground(ctx)

	server := ginserver.NewServer(cfg, obs.Middleware{Logger: logger}, app.health, app.handlers)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("http shutdown failed", "error", err)
		}
	}()

	logger.Info("HTTP server starting", "addr", cfg.HTTPAddr, "storage", cfg.StorageMode)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("http server failed", "error", err)
		os.Exit(1)
	}
	app.wait()
	closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	app.close(closeCtx)
	logger.Info("HTTP server stopped")
}

// hashToken prints a fresh operator token and the OPERATOR_TOKEN_HASHES entry
// that accepts it.
func hashToken(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: carbooking hash-token <operator-id>")
	}
	svc := &auth.Service{Secrets: security.BcryptHasher{}}
	token, hash, err := svc.Issue(args[0], security.RandomTokenGenerator{})
	if err != nil {
		return err
	}
	fmt.Printf("token: %s\nOPERATOR_TOKEN_HASHES entry: %s:%s\n", token, args[0], hash)
	return nil
}
