// cmd/receiver/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"admission-intake/internal/common/aws"
	"admission-intake/internal/common/config"
	"admission-intake/internal/common/database"
	"admission-intake/internal/common/logger"
	"admission-intake/internal/common/observability"
	"admission-intake/internal/publish"
	"admission-intake/internal/receiver"
	"admission-intake/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func main() {
	configPath := flag.String("config", "", "path to a config file (default: configs/config.yaml)")
	flag.Parse()

	zapLog := logger.New("info", "console")

	cfg, err := loadConfig(*configPath)
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog = logger.New(cfg.Logging.Level, cfg.Logging.Format).With(
		zap.String("service", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
	)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting receiver...")

	obs := observability.New("admission-receiver", nil)
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Persistence ---
	st, closeStore, err := openStore(ctx, cfg, zapLog, log)
	if err != nil {
		zapLog.Fatal("store initialization failed", zap.Error(err))
	}
	defer closeStore()

	if err := st.Migrate(ctx); err != nil {
		zapLog.Fatal("store migration failed", zap.Error(err))
	}
	zapLog.Info("Store ready",
		zap.String("driver", cfg.Store.Driver),
		zap.String("sequence", cfg.Store.Sequence),
	)

	// --- Post-commit publishers ---
	publishers := buildPublishers(ctx, cfg, zapLog)

	// --- Receiver ---
	srv := receiver.NewServer(
		receiver.NewConfig(cfg.Server),
		st,
		log,
		receiver.WithPublishers(publishers...),
		receiver.WithObservability(obs),
	)
	if err := srv.Start(); err != nil {
		zapLog.Fatal("receiver failed to start", zap.Error(err), zap.String("address", cfg.Server.Address))
	}

	var ready atomic.Bool
	ready.Store(true)

	// --- Health & Metrics Server ---
	httpSrv := &http.Server{
		Addr:              cfg.Metrics.Address,
		Handler:           newHealthMux(&ready),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("address", cfg.Metrics.Address))
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining connections...")
	ready.Store(false)

	if err := srv.Stop(); err != nil {
		zapLog.Error("Error stopping receiver", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}

	zapLog.Info("Receiver stopped gracefully")
}

func openStore(ctx context.Context, cfg *config.Config, zapLog *zap.Logger, log logger.Logger) (*store.SQLStore, func(), error) {
	var (
		opts    []store.Option
		closers []func() error
	)
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				zapLog.Warn("close failed", zap.Error(err))
			}
		}
	}

	if cfg.Store.Sequence == config.SequenceRedis {
		rdb := database.NewRedis(cfg.Database.Redis)
		err := retryWithBackoff(func() error {
			return rdb.Ping(ctx)
		}, 10, 2*time.Second, zapLog, "Redis connection")
		if err != nil {
			rdb.Close()
			return nil, nil, err
		}
		closers = append(closers, rdb.Close)
		opts = append(opts, store.WithSequence(store.NewRedisSequence(rdb.Client, cfg.Store.SequenceKey)))
		zapLog.Info("Redis connected successfully")
	}

	switch cfg.Store.Driver {
	case config.DriverPostgres:
		var pg *database.PostgresClient
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			if pg != nil {
				pg.Close()
			}
			closeAll()
			return nil, nil, err
		}
		closers = append(closers, pg.Close)
		zapLog.Info("PostgreSQL connected successfully")
		return store.NewSQLStore(pg.DB, store.DialectPostgres, log, opts...), closeAll, nil

	default:
		db, err := store.OpenSQLite(cfg.Store.SQLitePath)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("open sqlite %s: %w", cfg.Store.SQLitePath, err)
		}
		closers = append(closers, db.Close)
		zapLog.Info("SQLite opened", zap.String("path", cfg.Store.SQLitePath))
		return store.NewSQLStore(db, store.DialectSQLite, log, opts...), closeAll, nil
	}
}

// buildPublishers wires the enabled publishers. One that cannot be reached at
// startup is skipped; the receiver still serves without it.
func buildPublishers(ctx context.Context, cfg *config.Config, zapLog *zap.Logger) []receiver.Publisher {
	var publishers []receiver.Publisher

	if es := cfg.Database.Elasticsearch; es.Enabled {
		var esClient *database.ElasticsearchClient
		err := retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(es)
			if err != nil {
				return err
			}
			pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return esClient.Ping(pingCtx)
		}, 5, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Error("search indexing disabled", zap.Error(err))
		} else {
			publishers = append(publishers, publish.NewSearchIndexer(esClient.Client, es.Index))
			zapLog.Info("Elasticsearch connected successfully", zap.String("index", es.Index))
		}
	}

	sns, ses := cfg.Notifications.SNS, cfg.Notifications.SES
	if sns.Enabled || ses.Enabled {
		sess, err := aws.NewSession(ctx, cfg.Notifications.AWS.Region)
		if err != nil {
			zapLog.Error("aws notifications disabled", zap.Error(err))
		} else {
			if sns.Enabled {
				publishers = append(publishers, publish.NewTopicNotifier(sess.SNS(), sns.TopicARN))
			}
			if ses.Enabled {
				publishers = append(publishers, publish.NewEmailNotifier(sess.SES(), ses.FromEmail, ses.ToEmail))
			}
		}
	}

	for _, p := range publishers {
		zapLog.Info("publisher enabled", zap.String("publisher", p.Name()))
	}
	return publishers
}
