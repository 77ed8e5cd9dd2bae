// Command supplyline runs the risk-scoring and exposure-propagation engine.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/okian/supplyline/internal/adapters/http/api"
	"github.com/okian/supplyline/internal/adapters/mq/kafka"
	"github.com/okian/supplyline/internal/adapters/storage"
	"github.com/okian/supplyline/internal/app"
	"github.com/okian/supplyline/internal/config"
	"github.com/okian/supplyline/internal/domain/engine"
	"github.com/okian/supplyline/internal/domain/exposure"
	"github.com/okian/supplyline/internal/domain/model"
	"github.com/okian/supplyline/internal/domain/scoring"
	"github.com/okian/supplyline/pkg/logger"
	"github.com/okian/supplyline/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// The custom registry carries engine metrics; the default Go collectors
	// would duplicate under /metrics.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		return
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	catalog, repo, err := loadCatalog(ctx, cfg)
	if err != nil {
		log.Error(ctx, "failed to load catalog", logger.Error(err))
		return
	}

	var publishers []app.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		pub := kafka.NewAssessmentPublisher(cfg.KafkaBrokers, cfg.KafkaTopicAssessments)
		defer func() {
			if err := pub.Close(); err != nil {
				log.Warn(ctx, "failed to close kafka publisher", logger.Error(err))
			}
		}()
		publishers = append(publishers, pub)
	}
	if repo != nil {
		publishers = append(publishers, repo)
	}

	opts := []app.Option{
		app.WithLogger(log),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithShardCount(cfg.ShardCount),
		app.WithCatalog(catalog),
		app.WithPipeline(buildPipeline(cfg)),
	}
	if len(publishers) > 0 {
		opts = append(opts, app.WithPublisher(app.MultiPublisher(publishers...)))
	}

	svc := app.New(opts...)
	if err := svc.Start(ctx); err != nil {
		log.Error(ctx, "failed to start service", logger.Error(err))
		return
	}
	defer svc.Stop()

	if len(cfg.KafkaBrokers) > 0 {
		go consumeSignals(ctx, cfg, svc)
	}
	go startServiceMetricsUpdater(ctx, svc)

	apiServer := api.NewServer(svc, svc, cfg.MaxTopLimit, cfg.DefaultForecastHorizonWeeks)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Router(),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			os.Stderr.WriteString("HTTP server failed: " + err.Error() + "\n")
		}
	}()

	<-ctx.Done()
	log.Info(ctx, "shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
}

// loadCatalog reads the reference catalog from Postgres when configured,
// otherwise serves the built-in seed graph. The Repository is returned for
// assessment history and is nil in seed mode.
func loadCatalog(ctx context.Context, cfg *config.Config) (*storage.Catalog, *storage.Repository, error) {
	log := logger.Get()
	if cfg.DatabaseURL == "" {
		catalog := storage.SeedCatalog()
		metrics.UpdateCatalogEntities("facility", len(catalog.Facilities))
		metrics.UpdateCatalogEntities("region", len(catalog.Regions))
		metrics.UpdateCatalogEntities("commodity", len(catalog.Commodities))
		metrics.UpdateCatalogEntities("connection", len(catalog.Connections))
		log.Info(ctx, "no database configured; using seed catalog",
			logger.Int("facilities", len(catalog.Facilities)))
		return catalog, nil, nil
	}

	pool, err := storage.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := storage.RunMigrations(ctx, pool); err != nil {
		return nil, nil, err
	}
	repo := storage.NewRepository(pool)
	catalog, err := repo.LoadCatalog(ctx)
	if err != nil {
		return nil, nil, err
	}
	log.Info(ctx, "catalog loaded",
		logger.Int("facilities", len(catalog.Facilities)),
		logger.Int("connections", len(catalog.Connections)))
	return catalog, repo, nil
}

// buildPipeline applies the configured calibration on top of the default
// weight tables.
func buildPipeline(cfg *config.Config) *engine.Pipeline {
	w := scoring.DefaultWeights()
	for name, weight := range cfg.EventTypeWeights {
		w.EventType[model.EventType(name)] = weight
	}
	if cfg.DecayRatePerWeek > 0 {
		w.DecayRate = cfg.DecayRatePerWeek
	}
	if cfg.MinConfidence > 0 {
		w.MinConfidence = cfg.MinConfidence
	}
	if cfg.FallbackScore > 0 {
		w.FallbackScore = cfg.FallbackScore
	}

	return engine.New(
		engine.WithCalculator(scoring.NewCalculator(scoring.WithWeights(w))),
		engine.WithPropagator(exposure.NewPropagator(
			exposure.WithMaterialityThreshold(cfg.MaterialityThreshold),
		)),
	)
}

// consumeSignals reads classified signals from Kafka and feeds them through
// the same dedupe and queue path the HTTP ingest uses.
func consumeSignals(ctx context.Context, cfg *config.Config, svc *app.Service) {
	log := logger.Get().Named("kafka-consumer")
	reader := kafka.NewReader(cfg.KafkaBrokers, cfg.KafkaTopicSignals, cfg.ConsumerGroup)
	defer func() {
		if err := reader.Close(); err != nil {
			log.Warn(ctx, "failed to close kafka reader", logger.Error(err))
		}
	}()

	log.Info(ctx, "consuming signals",
		logger.Any("brokers", cfg.KafkaBrokers),
		logger.String("topic", cfg.KafkaTopicSignals),
		logger.String("group", cfg.ConsumerGroup))

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error(ctx, "failed to read signal", logger.Error(err))
			continue
		}

		event, err := kafka.ParseMessageJSON[model.Event](msg)
		if err != nil {
			metrics.RecordSignalRejected()
			log.Warn(ctx, "dropping malformed signal", logger.Error(err))
			continue
		}
		if event.ID == "" {
			metrics.RecordSignalRejected()
			continue
		}
		if svc.SeenAndRecord(ctx, event.ID) {
			continue
		}
		if !svc.Enqueue(ctx, event) {
			// Backpressure: release the id so a redelivery can retry.
			svc.Unrecord(ctx, event.ID)
			log.Warn(ctx, "queue full; dropping signal", logger.String("signal_id", event.ID))
		}
	}
}

// startServiceMetricsUpdater refreshes the queue and store gauges.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			stats := svc.GetStats()
			if n, ok := stats["queue_length"].(int); ok {
				metrics.UpdateQueueSize(n)
			}
			if n, ok := stats["assessments"].(int); ok {
				metrics.UpdateStoreRecords(n)
			}
		}
	}
}
