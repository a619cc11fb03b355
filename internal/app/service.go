// Package service runs the dashboard pipeline: load a snapshot, assemble the
// document and persist it, once or on a schedule.
package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/okian/playdash/internal/adapters/analytics"
	"github.com/okian/playdash/internal/adapters/sink"
	"github.com/okian/playdash/internal/adapters/source"
	"github.com/okian/playdash/internal/domain/dashboard"
	"github.com/okian/playdash/internal/domain/model"
	"github.com/okian/playdash/pkg/logger"
	"github.com/okian/playdash/pkg/metrics"
	"github.com/okian/playdash/pkg/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"golang.org/x/sync/errgroup"
)

const tracerName = "playdash/pipeline"

// RunResult summarises one pipeline run.
type RunResult struct {
	RunID            string
	GeneratedAt      time.Time
	Users            int
	AnalyticsPresent bool
	SinksWritten     int
	Duration         time.Duration
}

// Service owns the pipeline collaborators and the latest document.
type Service struct {
	mu sync.RWMutex

	source    source.Source
	analytics analytics.Provider
	assembler *dashboard.Assembler
	sinks     []sink.Sink
	interval  time.Duration
	tracer    trace.Tracer
	now       func() time.Time
	logger    logger.Logger

	// runMu serialises runs so a slow run and a scheduled tick never overlap.
	runMu sync.Mutex

	started bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	latest    []byte
	lastRun   RunResult
	lastError error
	runs      int
	failures  int
}

// New constructs a Service with configuration options.
func New(opts ...Option) *Service {
	s := &Service{
		assembler: dashboard.New(),
		tracer:    noop.NewTracerProvider().Tracer(tracerName),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("pipeline")
	}
	return s
}

// Run executes one full pipeline pass. The latest document is replaced as soon as it
// is assembled, even if a sink then fails.
func (s *Service) Run(ctx context.Context) (res RunResult, err error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	if s.source == nil {
		return RunResult{}, ErrNoSource
	}

	start := s.now()
	res = RunResult{RunID: uuid.NewString(), GeneratedAt: start}

	ctx, endRun := tracing.StartSpan(ctx, s.tracer, "pipeline.run", attribute.String("run.id", res.RunID))
	defer func() {
		endRun(err)
		res.Duration = s.now().Sub(start)
		s.finish(ctx, res, err)
	}()

	users, summary, err := s.load(ctx)
	if err != nil {
		return res, err
	}
	res.Users = len(users)
	res.AnalyticsPresent = summary != nil

	doc, encoded, err := s.assemble(ctx, users, summary)
	if err != nil {
		return res, err
	}
	s.mu.Lock()
	s.latest = encoded
	s.mu.Unlock()
	metrics.UpdateExcluded(doc.ExcludedDataStats.TotalCount, doc.ExcludedDataStats.ExcludedCount)

	res.SinksWritten, err = s.persist(ctx, encoded, sink.Meta{RunID: res.RunID, GeneratedAt: res.GeneratedAt})
	return res, err
}

// load fetches the snapshot and the analytics summary concurrently. A failing
// analytics provider degrades to no summary.
func (s *Service) load(ctx context.Context) (users model.RawUserMap, summary *model.AnalyticsSummary, err error) {
	ctx, end := tracing.StartSpan(ctx, s.tracer, "pipeline.load", attribute.String("source", s.source.Name()))
	defer func() { end(err) }()
	defer s.observeStage(metrics.StageLoad, s.now())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		u, err := s.source.Load(gctx)
		if err != nil {
			metrics.RecordErrorByComponent("source", s.source.Name())
			return fmt.Errorf("%w: %s: %w", ErrLoad, s.source.Name(), err)
		}
		users = u
		return nil
	})
	if s.analytics != nil {
		g.Go(func() error {
			sum, err := s.analytics.Load(gctx)
			if err != nil {
				metrics.RecordErrorByComponent("analytics", "load")
				s.logger.Warn(gctx, "analytics summary skipped", logger.Error(err))
				return nil
			}
			summary = sum
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	metrics.UpdateUsersLoaded(len(users))
	metrics.UpdateAnalyticsPresent(summary != nil)
	return users, summary, nil
}

func (s *Service) assemble(ctx context.Context, users model.RawUserMap, summary *model.AnalyticsSummary) (doc model.Document, encoded []byte, err error) {
	_, end := tracing.StartSpan(ctx, s.tracer, "pipeline.assemble", attribute.Int("users", len(users)))
	defer func() { end(err) }()
	defer s.observeStage(metrics.StageAssemble, s.now())

	doc = s.assembler.Build(users, summary)
	encoded, err = sink.Encode(doc)
	if err != nil {
		return model.Document{}, nil, fmt.Errorf("encode dashboard: %w", err)
	}
	return doc, encoded, nil
}

func (s *Service) persist(ctx context.Context, encoded []byte, meta sink.Meta) (written int, err error) {
	ctx, end := tracing.StartSpan(ctx, s.tracer, "pipeline.persist", attribute.Int("sinks", len(s.sinks)))
	defer func() { end(err) }()
	defer s.observeStage(metrics.StagePersist, s.now())

	err = sink.WriteAll(ctx, s.sinks, encoded, meta, func(name string, took time.Duration, werr error) {
		status := metrics.StatusSuccess
		if werr != nil {
			status = metrics.StatusFailure
			s.logger.Error(ctx, "sink write failed", logger.String("sink", name), logger.Error(werr))
		} else {
			written++
		}
		metrics.RecordSinkWrite(name, status)
		metrics.RecordSinkWriteDuration(name, float64(took.Milliseconds()))
	})
	if err != nil {
		return written, fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return written, nil
}

func (s *Service) observeStage(stage string, start time.Time) {
	metrics.RecordStageDuration(stage, float64(s.now().Sub(start).Milliseconds()))
}

// finish records the outcome of a run.
func (s *Service) finish(ctx context.Context, res RunResult, err error) {
	metrics.RecordRunDuration(float64(res.Duration.Milliseconds()))

	s.mu.Lock()
	s.runs++
	s.lastRun = res
	s.lastError = err
	if err != nil {
		s.failures++
	}
	s.mu.Unlock()

	if err != nil {
		metrics.RecordRun(metrics.StatusFailure)
		s.logger.Error(ctx, "pipeline run failed",
			logger.String("run_id", res.RunID),
			logger.Duration("took", res.Duration),
			logger.Error(err),
		)
		return
	}
	metrics.RecordRun(metrics.StatusSuccess)
	metrics.UpdateLastSuccess(res.GeneratedAt.Unix())
	s.logger.Info(ctx, "pipeline run finished",
		logger.String("run_id", res.RunID),
		logger.Int("users", res.Users),
		logger.Bool("analytics", res.AnalyticsPresent),
		logger.Int("sinks", res.SinksWritten),
		logger.Duration("took", res.Duration),
	)
}

// Start runs the pipeline once and, when an interval is configured, keeps running it
// in the background until Stop or ctx cancellation. The first run's error is
// returned; later failures are only logged.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	s.logger.Info(ctx, "starting pipeline service",
		logger.Duration("interval", s.interval),
		logger.Strings("sinks", s.sinkNames()),
	)
	_, err := s.Run(ctx)

	if s.interval <= 0 {
		close(s.doneCh)
		return err
	}
	go s.loop(ctx, s.stopCh, s.doneCh)
	return err
}

func (s *Service) loop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			_, _ = s.Run(ctx)
		}
	}
}

// Stop ends scheduled runs and waits for an in-flight run to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.started = false
	stop, done := s.stopCh, s.doneCh
	s.mu.Unlock()

	select {
	case <-stop:
	default:
		close(stop)
	}
	<-done
	s.logger.Info(context.Background(), "pipeline service stopped")
}

// Latest returns the most recently assembled document, encoded.
func (s *Service) Latest(_ context.Context) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return nil, ErrNoDocument
	}
	return s.latest, nil
}

func (s *Service) sinkNames() []string {
	names := make([]string, 0, len(s.sinks))
	for _, sk := range s.sinks {
		names = append(names, sk.Name())
	}
	return names
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":         s.started,
		"runs":            s.runs,
		"failures":        s.failures,
		"intervalSeconds": int(s.interval / time.Second),
		"sinks":           s.sinkNames(),
		"hasDocument":     s.latest != nil,
	}
	if s.source != nil {
		stats["source"] = s.source.Name()
	}
	if s.runs > 0 {
		stats["lastRunId"] = s.lastRun.RunID
		stats["lastRunAt"] = s.lastRun.GeneratedAt.UTC().Format(time.RFC3339)
		stats["lastRunMs"] = s.lastRun.Duration.Milliseconds()
		stats["users"] = s.lastRun.Users
	}
	if s.lastError != nil {
		stats["lastError"] = s.lastError.Error()
	}
	return stats
}
