// Package app wires the scoring pipeline, queue, workers, and stores into
// the service consumed by the HTTP API.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/okian/supplyline/internal/adapters/mq/queue"
	"github.com/okian/supplyline/internal/adapters/mq/worker"
	"github.com/okian/supplyline/internal/adapters/repository"
	"github.com/okian/supplyline/internal/adapters/storage"
	"github.com/okian/supplyline/internal/domain/dedupe"
	"github.com/okian/supplyline/internal/domain/engine"
	"github.com/okian/supplyline/internal/domain/exposure"
	"github.com/okian/supplyline/internal/domain/model"
	"github.com/okian/supplyline/pkg/logger"
	"github.com/okian/supplyline/pkg/metrics"
)

// Publisher pushes finished assessments to downstream consumers (Kafka,
// history tables). Optional; a nil publisher is skipped.
type Publisher interface {
	PublishAssessment(ctx context.Context, e model.OEMExposure) error
}

// Service implements the API dependencies for the risk engine.
type Service struct {
	mu sync.RWMutex

	catalog   *storage.Catalog
	pipeline  *engine.Pipeline
	store     repository.Store
	deduper   dedupe.Deduper
	queue     queue.Queue
	pool      *worker.Pool
	publisher Publisher

	risksMu sync.RWMutex
	risks   map[string]model.Risk

	workerCount int
	queueSize   int
	dedupeSize  int
	shardCount  int

	started bool
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of scoring workers.
func WithWorkerCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workerCount = n
		}
	}
}

// WithQueueSize bounds the signal queue.
func WithQueueSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.queueSize = n
		}
	}
}

// WithDedupeSize bounds the idempotency cache.
func WithDedupeSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.dedupeSize = n
		}
	}
}

// WithShardCount configures the assessment store shards.
func WithShardCount(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.shardCount = n
		}
	}
}

// WithCatalog supplies the reference catalog snapshot.
func WithCatalog(c *storage.Catalog) Option {
	return func(s *Service) {
		if c != nil {
			s.catalog = c
		}
	}
}

// WithPipeline replaces the default engine pipeline.
func WithPipeline(p *engine.Pipeline) Option {
	return func(s *Service) {
		if p != nil {
			s.pipeline = p
		}
	}
}

// WithPublisher attaches a downstream assessment publisher.
func WithPublisher(p Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

// WithLogger sets a custom logger.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		pipeline:    engine.New(),
		catalog:     emptyCatalog(),
		risks:       make(map[string]model.Risk),
		workerCount: 8,
		queueSize:   100_000,
		dedupeSize:  500_000,
		shardCount:  8,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func emptyCatalog() *storage.Catalog {
	return &storage.Catalog{
		Facilities:  make(map[string]model.Facility),
		Regions:     make(map[string]model.Region),
		Commodities: make(map[string]model.Commodity),
	}
}

// Start initializes queue, dedupe, store and the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("app")
	}

	s.store = repository.NewShardStore(repository.WithShardCount(s.shardCount))
	s.deduper = dedupe.New(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))

	s.pool = worker.NewPool(s.workerCount, s.queue, &assessorAdapter{s: s}, &sinkAdapter{s: s})
	s.pool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "risk engine started",
		logger.Int("workers", s.workerCount),
		logger.Int("queue_size", s.queueSize),
		logger.Int("facilities", len(s.catalog.Facilities)),
		logger.Int("connections", len(s.catalog.Connections)),
	)
	return nil
}

// Stop gracefully shuts down the worker pool and queue.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	if s.pool != nil {
		_ = s.pool.Shutdown(ctx)
	}
	s.started = false
	s.logger.Info(ctx, "risk engine stopped")
}

// SeenAndRecord atomically checks and records a signal id.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordSignalDuplicate()
	}
	return seen
}

// Unrecord releases a signal id after a failed enqueue.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Enqueue submits a classified signal for asynchronous scoring. Returns
// false on backpressure.
func (s *Service) Enqueue(ctx context.Context, e model.Event) bool {
	ok := s.queue.Enqueue(ctx, e)
	if ok {
		metrics.RecordSignalIngested()
	}
	return ok
}

// TopExposures returns the n highest-exposure assessments.
func (s *Service) TopExposures(ctx context.Context, n int) ([]model.OEMExposure, error) {
	if s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store.TopN(ctx, n)
}

// OEMExposures returns every stored assessment for one OEM, ranked.
func (s *Service) OEMExposures(ctx context.Context, oemID string) ([]model.OEMExposure, error) {
	if s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store.ForOEM(ctx, oemID)
}

// Risk returns a risk from the registry.
func (s *Service) Risk(_ context.Context, id string) (model.Risk, error) {
	s.risksMu.RLock()
	defer s.risksMu.RUnlock()
	if r, ok := s.risks[id]; ok {
		return r, nil
	}
	return model.Risk{}, ErrRiskNotFound
}

// Forecast projects one registered risk over the requested horizon using
// its last computed exposure as the baseline.
func (s *Service) Forecast(ctx context.Context, riskID string, horizonWeeks int) (model.ForecastResult, error) {
	r, err := s.Risk(ctx, riskID)
	if err != nil {
		return model.ForecastResult{}, err
	}
	return s.pipeline.Forecast(r, r.ExposureScore, horizonWeeks, time.Now().UTC()), nil
}

// OEMCommodities computes the OEM's standing exposure per commodity from
// the catalog graph and the active risk registry.
func (s *Service) OEMCommodities(_ context.Context, oemID string) (model.OEMCommodityReport, error) {
	type agg struct {
		depSum       float64
		conns        int
		alternatives int
		tier2        int
		regions      map[string]struct{}
	}
	byCommodity := map[string]*agg{}

	for _, c := range s.catalog.Connections {
		if c.Tier != 1 || c.BuyerID != oemID {
			continue
		}
		a, ok := byCommodity[c.Commodity]
		if !ok {
			a = &agg{regions: map[string]struct{}{}}
			byCommodity[c.Commodity] = a
		}
		a.depSum += c.DependencyPct
		a.conns++
		if c.HasAlternative {
			a.alternatives++
		}
		if f, ok := s.catalog.Facilities[c.SupplierID]; ok && f.Region != "" {
			a.regions[f.Region] = struct{}{}
		}
		for _, up := range s.catalog.Connections {
			if up.Tier == 2 && up.BuyerID == c.SupplierID {
				a.tier2++
			}
		}
	}
	if len(byCommodity) == 0 {
		return model.OEMCommodityReport{}, ErrOEMNotFound
	}

	prop := s.pipeline.Propagator()
	report := model.OEMCommodityReport{OEMID: oemID}
	var activeRisks []model.Risk
	for code, a := range byCommodity {
		maxSev, active := s.activeRiskStats(code)
		regions := make([]string, 0, len(a.regions))
		for r := range a.regions {
			regions = append(regions, r)
		}
		report.Commodities = append(report.Commodities, prop.CommodityExposure(exposure.CommodityInput{
			Commodity:                code,
			DependencyPct:            a.depSum / float64(a.conns),
			SourceRegions:            regions,
			Tier2SupplierCount:       a.tier2,
			AlternativeSupplierCount: a.alternatives,
			MaxActiveRiskSeverity:    maxSev,
			ActiveRisks:              active,
		}))
	}
	s.risksMu.RLock()
	for _, r := range s.risks {
		if r.Status == model.RiskActive || r.Status == model.RiskEscalating {
			activeRisks = append(activeRisks, r)
		}
	}
	s.risksMu.RUnlock()

	report.Recommendations = s.pipeline.Recommender().ForOEM(report.Commodities, activeRisks)
	return report, nil
}

// activeRiskStats returns the max severity and count of active risks for
// one commodity.
func (s *Service) activeRiskStats(commodity string) (maxSeverity, count int) {
	s.risksMu.RLock()
	defer s.risksMu.RUnlock()
	for _, r := range s.risks {
		if r.Commodity != commodity {
			continue
		}
		if r.Status != model.RiskActive && r.Status != model.RiskEscalating {
			continue
		}
		count++
		if r.Severity > maxSeverity {
			maxSeverity = r.Severity
		}
	}
	return maxSeverity, count
}

// registerRisk stores or refreshes a risk in the registry.
func (s *Service) registerRisk(r model.Risk) {
	s.risksMu.Lock()
	s.risks[r.ID] = r
	s.risksMu.Unlock()
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":      s.started,
		"worker_count": s.workerCount,
		"queue_size":   s.queueSize,
	}
	if s.started {
		stats["queue_length"] = s.queue.Len(ctx)
		stats["assessments"] = s.store.Count(ctx)
		s.risksMu.RLock()
		stats["risks"] = len(s.risks)
		s.risksMu.RUnlock()
	}
	return stats
}

// Size returns the idempotency cache occupancy.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// assessorAdapter runs the full pipeline for one signal: lift it into a
// risk, resolve catalog records, score, and propagate.
type assessorAdapter struct {
	s *Service
}

func (a *assessorAdapter) Assess(ctx context.Context, e model.Event) ([]model.OEMExposure, error) {
	s := a.s
	now := time.Now().UTC()
	start := time.Now()
	defer func() {
		metrics.RecordScoringLatency(float64(time.Since(start).Milliseconds()))
	}()

	risk := s.pipeline.RiskFromEvent(e, now)

	facility, ok := s.catalog.Facilities[e.FacilityID]
	if !ok {
		// Unresolved facility: score against a bare record so the batch
		// still yields a number (availability over strictness).
		facility = model.Facility{ID: e.FacilityID, Region: e.Region, Commodity: e.Commodity}
	}
	region := s.catalog.Region(e.Region, e.Commodity)
	commodity := s.catalog.Commodity(e.Commodity)

	score, diags := s.pipeline.ScoreEvent(e, facility, region, commodity, now)
	risk.RiskScore = score
	metrics.RecordScoreComputed()
	if len(diags) > 0 {
		metrics.RecordScoreDegraded()
		s.logger.Debug(ctx, "score degraded",
			logger.String("signal_id", e.ID),
			logger.Float64("score", score),
			logger.Any("diagnostics", diags),
		)
	}

	assessments := s.pipeline.Assess(risk, facility, commodity, s.catalog.Connections, now)
	for _, asmt := range assessments {
		if asmt.ExposureScore > risk.ExposureScore {
			risk.ExposureScore = asmt.ExposureScore
		}
	}
	s.registerRisk(risk)
	return assessments, nil
}

// sinkAdapter stores assessments and fans them out to the publisher.
type sinkAdapter struct {
	s *Service
}

func (a *sinkAdapter) Upsert(ctx context.Context, e model.OEMExposure) (bool, error) {
	changed, err := a.s.store.Upsert(ctx, e)
	if err != nil {
		return false, err
	}
	if a.s.publisher != nil {
		if perr := a.s.publisher.PublishAssessment(ctx, e); perr != nil {
			metrics.RecordKafkaPublishError()
			a.s.logger.Warn(ctx, "publish assessment failed",
				logger.String("oem_id", e.OEMID),
				logger.Error(perr),
			)
		}
	}
	return changed, nil
}
