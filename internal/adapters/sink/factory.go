package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/okian/playdash/internal/config"
	"github.com/okian/playdash/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	pgMaxConns        = 4
	pgMaxConnLifetime = time.Hour
	pgMaxConnIdleTime = 30 * time.Minute
	redisPoolSize     = 4
)

// Set is the group of sinks a process writes to, plus the clients backing them.
type Set struct {
	sinks   []Sink
	closers []func()
}

// Sinks returns the sinks in configuration order.
func (s *Set) Sinks() []Sink {
	return s.sinks
}

// Close releases the backing clients.
func (s *Set) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
	s.closers = nil
}

// Build creates one sink per configured kind, connecting to the stores they need.
// On error, clients opened so far are closed.
func Build(ctx context.Context, cfg *config.Config, log logger.Logger) (*Set, error) {
	if log == nil {
		log = logger.Get().Named("sink")
	}
	set := &Set{}
	for _, kind := range cfg.SinkKinds() {
		s, err := set.build(ctx, kind, cfg, log)
		if err != nil {
			set.Close()
			return nil, err
		}
		set.sinks = append(set.sinks, s)
	}
	return set, nil
}

func (set *Set) build(ctx context.Context, kind string, cfg *config.Config, log logger.Logger) (Sink, error) {
	switch kind {
	case config.SinkFile:
		return NewFile(cfg.OutputPath), nil

	case config.SinkS3:
		if cfg.S3Bucket == "" {
			return nil, fmt.Errorf("%w: s3_bucket must not be empty", config.ErrInvalidConfig)
		}
		client := NewS3Client(S3Config{
			Bucket:          cfg.S3Bucket,
			Key:             cfg.S3Key,
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		})
		log.Info(ctx, "s3 sink ready", logger.String("bucket", cfg.S3Bucket), logger.String("key", cfg.S3Key))
		return NewS3(client, cfg.S3Bucket, cfg.S3Key), nil

	case config.SinkRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			PoolSize: redisPoolSize,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("connect to redis %s: %w", cfg.RedisAddr, err)
		}
		set.closers = append(set.closers, func() { _ = client.Close() })
		log.Info(ctx, "connected to redis", logger.String("addr", cfg.RedisAddr), logger.Int("db", cfg.RedisDB))
		return NewRedis(client, cfg.RedisKey), nil

	case config.SinkPostgres:
		pool, err := openPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		set.closers = append(set.closers, pool.Close)
		pg := NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		log.Info(ctx, "connected to postgres")
		return pg, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
}

func openPostgres(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: postgres_dsn must not be empty", config.ErrInvalidConfig)
	}
	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	poolConfig.MaxConns = pgMaxConns
	poolConfig.MaxConnLifetime = pgMaxConnLifetime
	poolConfig.MaxConnIdleTime = pgMaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return pool, nil
}

// WriteAll writes doc to every sink, even after a failure, and joins the errors.
// report is called once per sink with its outcome.
func WriteAll(ctx context.Context, sinks []Sink, doc []byte, meta Meta, report func(name string, took time.Duration, err error)) error {
	var errs []error
	for _, s := range sinks {
		start := time.Now()
		err := s.Write(ctx, doc, meta)
		if report != nil {
			report(s.Name(), time.Since(start), err)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
