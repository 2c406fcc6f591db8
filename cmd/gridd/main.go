// Command gridd serves ledger state over REST and forwards signed batches to
// the configured ledger endpoint.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"gridd/internal/audit"
	"gridd/internal/platform/config"
	"gridd/internal/platform/database"
	"gridd/internal/platform/logger"
	"gridd/internal/platform/metrics"
	platformredis "gridd/internal/platform/redis"
	"gridd/internal/rest"
	"gridd/internal/submitter"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	db, err := database.Open(cfg.DatabaseURL, cfg.DBWorkers)
	if err != nil {
		log.Error("unable to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		log.Error("unable to run migrations", "error", err)
		os.Exit(1)
	}

	var batchSubmitter submitter.BatchSubmitter
	if cfg.Endpoint.IsCircuitScoped() {
		batchSubmitter = submitter.NewCircuitSubmitter(cfg.Endpoint.URL, submitter.WithCircuitLogger(log))
	} else {
		batchSubmitter = submitter.NewLedgerSubmitter(cfg.Endpoint.URL, submitter.WithLogger(log))
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("unable to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	auditCtx, stopAudit := context.WithCancel(context.Background())
	defer stopAudit()
	auditInbox := make(chan audit.Event, 64)
	auditWorker := audit.NewWorker(audit.NewPostgresStore(db), auditInbox)
	go func() {
		if err := auditWorker.Run(auditCtx); err != nil && auditCtx.Err() == nil {
			log.Error("audit worker stopped", "error", err)
		}
	}()

	m := metrics.New(prometheus.DefaultRegisterer)

	handle, done, err := rest.Run(cfg.Bind, db, batchSubmitter, cfg.Endpoint,
		rest.WithLogger(log),
		rest.WithMetrics(m),
		rest.WithDBWorkers(cfg.DBWorkers),
		rest.WithDBQueueDepth(cfg.DBQueueDepth),
		rest.WithShutdownGrace(cfg.ShutdownGrace),
		rest.WithAuditInbox(auditInbox),
		rest.WithStatusCache(redisClient, 10*time.Second),
	)
	if err != nil {
		log.Error("unable to start rest api", "error", err)
		os.Exit(1)
	}

	log.Info("gridd started",
		"bind", handle.Addr(),
		"endpoint", cfg.Endpoint.URL,
		"mode", cfg.Endpoint.Mode.String(),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case <-quit:
		log.Info("shutdown signal received")
		if err := handle.Shutdown(); err != nil {
			log.Warn("shutdown did not drain cleanly", "error", err)
		}
		if err := <-done; err != nil {
			log.Error("rest api terminated with error", "error", err)
			os.Exit(1)
		}
	case err := <-done:
		if err != nil {
			log.Error("rest api failed", "error", err)
			os.Exit(1)
		}
	}
}
