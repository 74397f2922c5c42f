// Command autocompleted runs the autocomplete index as an HTTP service:
// loads configuration, restores a snapshot (if configured), serves the v1
// API, and snapshots on a timer and on shutdown.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	appconfig "autocompleted/internal/config"
	"autocompleted/internal/concurrency"
	"autocompleted/internal/events"
	"autocompleted/internal/httpapi"
	"autocompleted/internal/index"
	applogging "autocompleted/internal/logging"
	"autocompleted/internal/metrics"
	"autocompleted/internal/persistence"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := appconfig.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger, err := applogging.New(applogging.Config{
		Environment: applogging.Environment(cfg.Environment),
		Level:       cfg.Logging.Level,
	})
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer logger.Sync()

	recorder := metrics.NewRecorder(cfg.Metrics.Namespace)

	opts := []index.Option[string, string]{
		index.WithNameFunc[string, string](func(v string) string { return v }),
		index.WithCacheConfig[string, string](cfg.Cache.MaxPrefixLen, cfg.Cache.NumResults),
		index.WithRecorder[string, string](recorder),
	}

	if cfg.Events.Provider == "eventbridge" {
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Events.Region))
		if err != nil {
			logger.Fatal("failed to load AWS config for eventbridge", zap.Error(err))
		}
		publisher := events.NewPublisher(eventbridge.NewFromConfig(awsCfg), cfg.Events.EventBusName, logger)
		opts = append(opts, index.WithPublisher[string, string](publisher))
	}

	ix := index.New[string, string](opts...)

	watcher, err := appconfig.NewWatcher(cfg, "config", logger)
	if err != nil {
		logger.Fatal("failed to start config watcher", zap.Error(err))
	}
	watcher.OnChange(func(newCfg *appconfig.Config) {
		if err := ix.SetMaxCachePrefixLen(newCfg.Cache.MaxPrefixLen); err != nil {
			logger.Error("config reload: invalid cache max prefix len", zap.Error(err))
		}
		if err := ix.SetNumCacheResults(newCfg.Cache.NumResults); err != nil {
			logger.Error("config reload: invalid cache num results", zap.Error(err))
		}
	})
	defer watcher.Stop()

	warmupPool := concurrency.NewPool(ctx, cfg.Concurrency.MaxWorkers, cfg.Concurrency.QueueSize)
	defer warmupPool.Stop()

	snapshotter, err := newSnapshotter(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to build snapshotter", zap.Error(err))
	}
	if snapshotter != nil {
		if err := restoreConcurrently(ctx, snapshotter, ix, warmupPool); err != nil {
			logger.Error("failed to restore snapshot", zap.Error(err))
		} else {
			logger.Info("restored snapshot", zap.Int("entries", len(ix.Entries())))
		}
	}
	recorder.SetEntryCount(len(ix.Entries()))

	handler := httpapi.NewHandler(ix)
	router := httpapi.NewRouter(handler, cfg.CORS, logger, recorderRegistry(cfg, recorder))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	var stopSnapshotLoop chan struct{}
	if snapshotter != nil {
		stopSnapshotLoop = make(chan struct{})
		go snapshotLoop(ix, snapshotter, logger, stopSnapshotLoop)
	}

	go func() {
		logger.Info("starting server", zap.String("address", srv.Addr), zap.String("environment", string(cfg.Environment)))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutting down")
	if stopSnapshotLoop != nil {
		close(stopSnapshotLoop)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	if snapshotter != nil {
		if err := persistence.Snapshot(shutdownCtx, snapshotter, ix); err != nil {
			logger.Error("final snapshot failed", zap.Error(err))
		}
	}

	log.Println("server stopped")
}

// restoreConcurrently loads the snapshot and replays its entries into ix,
// fanning the AddScored calls out across pool instead of replaying them one
// at a time (persistence.Restore's default), so a large snapshot warms up
// in parallel on multi-core hosts.
func restoreConcurrently(ctx context.Context, s persistence.Snapshotter, ix *index.Index[string, string], pool *concurrency.Pool) error {
	entries, err := s.Load(ctx)
	if err != nil {
		return err
	}

	ids := make([]string, len(entries))
	byID := make(map[string]index.Entry[string, string], len(entries))
	for i, e := range entries {
		ids[i] = e.Key
		byID[e.Key] = e
	}

	collector := concurrency.RunBatch(ctx, pool, ids, func(ctx context.Context, id string) error {
		e := byID[id]
		ix.AddScored(e.Key, e.Value, e.Score)
		return nil
	})
	return collector.ToError()
}

func newSnapshotter(ctx context.Context, cfg *appconfig.Config) (persistence.Snapshotter, error) {
	switch cfg.Persistence.Provider {
	case "file":
		return persistence.NewFileSnapshotter(cfg.Persistence.SnapshotPath), nil
	case "dynamodb":
		awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Persistence.Region))
		if err != nil {
			return nil, err
		}
		return persistence.NewDynamoDBSnapshotter(awsdynamodb.NewFromConfig(awsCfg), cfg.Persistence.DynamoDBTable), nil
	default:
		return nil, nil
	}
}

func snapshotLoop(ix *index.Index[string, string], s persistence.Snapshotter, logger *zap.Logger, stop <-chan struct{}) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if err := persistence.Snapshot(context.Background(), s, ix); err != nil {
				logger.Error("periodic snapshot failed", zap.Error(err))
			}
		}
	}
}

func recorderRegistry(cfg *appconfig.Config, r *metrics.Recorder) *prometheus.Registry {
	if !cfg.Metrics.Enabled {
		return nil
	}
	return r.Registry()
}
