package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"bendahara/internal/amqp"
	"bendahara/internal/auth"
	"bendahara/internal/cli"
	apphttp "bendahara/internal/http"
	applog "bendahara/internal/log"
	"bendahara/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(applog.ComponentApp)

	logger.Info("Starting bendahara")

	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.OpenStorage(logger, cfg)
	defer repo.Close()

	// AMQP is optional: without a broker, writes succeed and ledger
	// mirroring simply waits for the sweep on the worker side.
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, ledger sync deferred to sweep", "error", err)
		} else {
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	authSvc := auth.NewService(repo, cfg.SessionTTL)
	txs := services.NewTransactionService(repo, amqpClient)
	defer txs.Close()

	srv := apphttp.NewServer(":"+cfg.Port, repo, authSvc, txs)

	ctx, stop := cli.NotifyContext()
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cli.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting HTTP server", "port", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	// Give the shutdown goroutine time to drain in-flight requests.
	<-ctx.Done()
	time.Sleep(100 * time.Millisecond)
	logger.Info("Server stopped gracefully")
}
