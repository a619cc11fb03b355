package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/playdash/internal/adapters/analytics"
	"github.com/okian/playdash/internal/adapters/http/api"
	"github.com/okian/playdash/internal/adapters/sink"
	"github.com/okian/playdash/internal/adapters/source"
	app "github.com/okian/playdash/internal/app"
	"github.com/okian/playdash/internal/config"
	"github.com/okian/playdash/internal/domain/dashboard"
	"github.com/okian/playdash/pkg/logger"
	"github.com/okian/playdash/pkg/metrics"
	"github.com/okian/playdash/pkg/tracing"
)

// HTTP server and background timing constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
	serviceName               = "playdash"
)

func main() {
	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "playdash failed", logger.Error(err))
		os.Exit(1)
	}
}

// run wires the pipeline and either runs it once or keeps it scheduled until ctx
// is cancelled.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	tp, err := tracing.NewProvider(ctx, tracing.Config{
		ServiceName:  serviceName,
		Enabled:      cfg.TracingEnabled,
		Endpoint:     cfg.TracingEndpoint,
		Insecure:     cfg.TracingInsecure,
		SamplingRate: cfg.TracingSamplingRate,
	}, tracing.WithLogger(log.Named("tracing")))
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(sctx); err != nil {
			log.Warn(ctx, "tracer shutdown failed", logger.Error(err))
		}
	}()

	sinks, err := sink.Build(ctx, cfg, log.Named("sink"))
	if err != nil {
		return err
	}
	defer sinks.Close()

	svc := app.New(
		app.WithSource(newSource(cfg, log)),
		app.WithAnalytics(analytics.NewFile(cfg.AnalyticsPath, analytics.WithLogger(log.Named("analytics")))),
		app.WithAssembler(dashboard.New(
			dashboard.WithOperatingYear(cfg.OperatingYear),
			dashboard.WithRecentPlaysLimit(cfg.RecentPlaysLimit),
			dashboard.WithCostumeTopN(cfg.CostumeTopN),
		)),
		app.WithSinks(sinks.Sinks()...),
		app.WithInterval(time.Duration(cfg.RunIntervalS)*time.Second),
		app.WithTracer(tp.Tracer("playdash/pipeline")),
		app.WithLogger(log.Named("pipeline")),
	)

	oneShot := cfg.RunIntervalS == 0 && !cfg.Serve
	if oneShot {
		_, err := svc.Run(ctx)
		return err
	}

	// In long-running mode a failed first run is logged by the service and retried
	// on the next tick.
	_ = svc.Start(ctx)
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)

	if !cfg.Serve {
		<-ctx.Done()
		log.Info(ctx, "shutting down")
		return nil
	}
	return serve(ctx, cfg.Addr, svc, log)
}

func newSource(cfg *config.Config, log logger.Logger) source.Source {
	if cfg.SourceKind == config.SourceFirebase {
		return source.NewFirebase(cfg.FirebaseURL,
			source.WithAuth(cfg.FirebaseAuth),
			source.WithTimeout(time.Duration(cfg.FirebaseTimeoutMS)*time.Millisecond),
			source.WithFirebaseLogger(log.Named("source.firebase")),
		)
	}
	return source.NewFile(cfg.RawDataPath, source.WithFileLogger(log.Named("source.file")))
}

func newHTTPServer(addr string, svc api.Dependencies) *http.Server {
	mux := http.NewServeMux()
	api.NewServer(svc).Register(context.Background(), mux)
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func serve(ctx context.Context, addr string, svc api.Dependencies, log logger.Logger) error {
	srv := newHTTPServer(addr, svc)

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
		return err
	}
	log.Info(ctx, "server stopped")
	return nil
}

// startSystemMetricsUpdater updates system metrics until ctx is cancelled.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
