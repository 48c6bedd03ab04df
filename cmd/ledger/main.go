package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"ledger/internal/auth"
	"ledger/internal/cli"
	"ledger/internal/config"
	apphttp "ledger/internal/http"
	"ledger/internal/log"
	"ledger/internal/services"
	"ledger/internal/sheets/xlsx"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
	cfg := cli.LoadAndValidateConfig(logger, (*config.Config).ValidateServer)
	os.Exit(run(logger, cfg))
}

// run serves until a shutdown signal or a listener failure and returns the
// process exit code. Deferred cleanups run before it returns.
func run(logger *log.Logger, cfg *config.Config) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store := cli.InitBackend(ctx, logger, cfg)
	defer func() {
		if store.Cleanup != nil {
			if err := store.Cleanup(); err != nil {
				logger.Error("Failed to close backend", log.FieldError, err)
			}
		}
	}()

	cipher := cli.InitCipher(logger, cfg)
	publisher, closePublisher := cli.InitPublisher(logger, cfg)
	defer closePublisher()

	verifier, err := auth.NewVerifier(cfg.JWTSecret)
	if err != nil {
		logger.Error("Failed to initialize token verifier", log.FieldError, err)
		return 1
	}

	srv := apphttp.NewServer(apphttp.Options{
		Addr:            ":" + cfg.Port,
		Ledger:          services.NewTransactionService(store.Backend, cipher, publisher, logger),
		Dashboard:       services.NewDashboardService(store.Backend, cipher, logger),
		Verifier:        verifier,
		Renderer:        xlsx.New(),
		Ready:           store.Backend.Ping,
		Logger:          logger,
		ClientURL:       cfg.ClientURL,
		RequestTimeout:  cfg.RequestTimeout,
		MaxRequestBytes: cfg.MaxRequestBytes,
		RateLimit:       cfg.RateLimitPerMin,
	})

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting ledger server", "port", cfg.Port, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
			serveErr <- err
			cancel()
		}
	}()

	cli.WaitForSignal(ctx, logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", log.FieldError, err)
	}

	select {
	case <-serveErr:
		return 1
	default:
		logger.Info("Server stopped gracefully")
		return 0
	}
}
