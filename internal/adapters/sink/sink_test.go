package sink_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/okian/playdash/internal/adapters/sink"
	"github.com/okian/playdash/internal/config"
	"github.com/okian/playdash/internal/domain/model"
	"github.com/okian/playdash/pkg/logger"
	"github.com/redis/go-redis/v9"
	. "github.com/smartystreets/goconvey/convey"
)

var testMeta = sink.Meta{
	RunID:       "0b7c3a52-7f5e-4d8e-9a51-0a3c1c3d2e10",
	GeneratedAt: time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC),
}

type fakeS3 struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	f.body, _ = io.ReadAll(in.Body)
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

type fakeRedis struct {
	key   string
	value any
	ttl   time.Duration
	err   error
}

func (f *fakeRedis) Set(_ context.Context, key string, value any, ttl time.Duration) *redis.StatusCmd {
	f.key, f.value, f.ttl = key, value, ttl
	if f.err != nil {
		return redis.NewStatusResult("", f.err)
	}
	return redis.NewStatusResult("OK", nil)
}

type execCall struct {
	sql  string
	args []any
}

type fakeExecer struct {
	calls []execCall
	err   error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	if f.err != nil {
		return pgconn.CommandTag{}, f.err
	}
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

type stubSink struct {
	name   string
	err    error
	writes int
}

func (s *stubSink) Name() string { return s.name }

func (s *stubSink) Write(context.Context, []byte, sink.Meta) error {
	s.writes++
	return s.err
}

func TestEncode(t *testing.T) {
	Convey("Given a document with markup in a label", t, func() {
		doc := model.Document{CharacterDistribution: map[string]int{"<Rin & Len>": 1}}
		b, err := sink.Encode(doc)
		So(err, ShouldBeNil)

		Convey("Then it is indented and not HTML escaped", func() {
			So(string(b), ShouldContainSubstring, "\n  \"lastUpdated\"")
			So(string(b), ShouldContainSubstring, `"<Rin & Len>": 1`)
			So(json.Valid(b), ShouldBeTrue)
		})
	})
}

func TestFileSink(t *testing.T) {
	ctx := context.Background()

	Convey("Given a target in a directory that does not exist yet", t, func() {
		path := filepath.Join(t.TempDir(), "public", "data", "dashboard_data.json")
		s := sink.NewFile(path)

		Convey("When writing twice", func() {
			So(s.Write(ctx, []byte(`{"v":1}`), testMeta), ShouldBeNil)
			So(s.Write(ctx, []byte(`{"v":2}`), testMeta), ShouldBeNil)

			Convey("Then the last document is on disk and no temp files remain", func() {
				b, err := os.ReadFile(path)
				So(err, ShouldBeNil)
				So(string(b), ShouldEqual, `{"v":2}`)
				entries, err := os.ReadDir(filepath.Dir(path))
				So(err, ShouldBeNil)
				So(entries, ShouldHaveLength, 1)
				So(s.Name(), ShouldEqual, "file")
			})
		})
	})

	Convey("Given a target whose parent is a file", t, func() {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "blocker")
		So(os.WriteFile(blocker, nil, 0o600), ShouldBeNil)

		err := sink.NewFile(filepath.Join(blocker, "out.json")).Write(ctx, []byte(`{}`), testMeta)

		Convey("Then ErrWrite is returned", func() {
			So(errors.Is(err, sink.ErrWrite), ShouldBeTrue)
		})
	})
}

func TestS3Sink(t *testing.T) {
	ctx := context.Background()

	Convey("Given an S3 sink", t, func() {
		client := &fakeS3{}
		s := sink.NewS3(client, "dashboards", "prod/dashboard_data.json")

		Convey("When writing", func() {
			So(s.Write(ctx, []byte(`{"v":1}`), testMeta), ShouldBeNil)

			Convey("Then the object is put with JSON content type and run metadata", func() {
				So(*client.in.Bucket, ShouldEqual, "dashboards")
				So(*client.in.Key, ShouldEqual, "prod/dashboard_data.json")
				So(*client.in.ContentType, ShouldStartWith, "application/json")
				So(*client.in.ContentLength, ShouldEqual, 7)
				So(client.in.Metadata["run-id"], ShouldEqual, testMeta.RunID)
				So(client.in.Metadata["generated-at"], ShouldEqual, "2025-06-15T12:00:00Z")
				So(string(client.body), ShouldEqual, `{"v":1}`)
			})
		})

		Convey("When the upload fails", func() {
			client.err = errors.New("access denied")
			err := s.Write(ctx, []byte(`{}`), testMeta)

			Convey("Then ErrWrite wraps the cause", func() {
				So(errors.Is(err, sink.ErrWrite), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "access denied")
			})
		})
	})

	Convey("Given S3 settings for a compatible store", t, func() {
		client := sink.NewS3Client(sink.S3Config{
			Region:          "auto",
			Endpoint:        "http://localhost:9000",
			AccessKeyID:     "key",
			SecretAccessKey: "secret",
		})

		Convey("Then path-style addressing is used", func() {
			So(client.Options().UsePathStyle, ShouldBeTrue)
			So(*client.Options().BaseEndpoint, ShouldEqual, "http://localhost:9000")
		})
	})
}

func TestRedisSink(t *testing.T) {
	ctx := context.Background()

	Convey("Given a Redis sink with a TTL", t, func() {
		client := &fakeRedis{}
		s := sink.NewRedis(client, "playdash:dashboard", sink.WithTTL(time.Hour))

		Convey("When writing", func() {
			So(s.Write(ctx, []byte(`{"v":1}`), testMeta), ShouldBeNil)

			Convey("Then the key is set with the TTL", func() {
				So(client.key, ShouldEqual, "playdash:dashboard")
				So(client.value, ShouldResemble, []byte(`{"v":1}`))
				So(client.ttl, ShouldEqual, time.Hour)
			})
		})

		Convey("When Redis is down", func() {
			client.err = errors.New("connection refused")
			So(errors.Is(s.Write(ctx, []byte(`{}`), testMeta), sink.ErrWrite), ShouldBeTrue)
		})
	})
}

func TestPostgresSink(t *testing.T) {
	ctx := context.Background()

	Convey("Given a Postgres sink", t, func() {
		db := &fakeExecer{}
		s := sink.NewPostgres(db)

		Convey("When ensuring the schema and writing", func() {
			So(s.EnsureSchema(ctx), ShouldBeNil)
			So(s.Write(ctx, []byte(`{"v":1}`), testMeta), ShouldBeNil)

			Convey("Then the table is created and the snapshot upserted by run id", func() {
				So(db.calls, ShouldHaveLength, 2)
				So(db.calls[0].sql, ShouldContainSubstring, "CREATE TABLE IF NOT EXISTS dashboard_snapshots")
				So(db.calls[1].sql, ShouldContainSubstring, "ON CONFLICT (run_id)")
				So(db.calls[1].args, ShouldResemble, []any{testMeta.RunID, testMeta.GeneratedAt, `{"v":1}`})
			})
		})

		Convey("When the insert fails", func() {
			db.err = errors.New("relation does not exist")
			So(errors.Is(s.Write(ctx, []byte(`{}`), testMeta), sink.ErrWrite), ShouldBeTrue)
		})
	})
}

func TestWriteAll(t *testing.T) {
	ctx := context.Background()

	Convey("Given sinks where the first one fails", t, func() {
		failing := &stubSink{name: "s3", err: errors.New("boom")}
		ok := &stubSink{name: "file"}
		var reported []string

		err := sink.WriteAll(ctx, []sink.Sink{failing, ok}, []byte(`{}`), testMeta,
			func(name string, _ time.Duration, err error) {
				outcome := "ok"
				if err != nil {
					outcome = "err"
				}
				reported = append(reported, name+":"+outcome)
			})

		Convey("Then every sink is attempted and the failure is returned", func() {
			So(failing.writes, ShouldEqual, 1)
			So(ok.writes, ShouldEqual, 1)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "boom")
			So(reported, ShouldResemble, []string{"s3:err", "file:ok"})
		})
	})

	Convey("Given no sinks", t, func() {
		So(sink.WriteAll(ctx, nil, []byte(`{}`), testMeta, nil), ShouldBeNil)
	})
}

func TestBuild(t *testing.T) {
	ctx := context.Background()

	Convey("Given a config with only the file sink", t, func() {
		cfg := config.New()
		cfg.OutputPath = filepath.Join(t.TempDir(), "out.json")

		set, err := sink.Build(ctx, cfg, logger.Nop())
		So(err, ShouldBeNil)
		defer set.Close()

		Convey("Then one file sink is built", func() {
			So(set.Sinks(), ShouldHaveLength, 1)
			So(set.Sinks()[0].Name(), ShouldEqual, "file")
		})
	})

	Convey("Given an S3 sink without a bucket", t, func() {
		cfg := config.New()
		cfg.Sinks = "s3"

		_, err := sink.Build(ctx, cfg, logger.Nop())
		So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
	})

	Convey("Given a Postgres sink without a DSN", t, func() {
		cfg := config.New()
		cfg.Sinks = "postgres"

		_, err := sink.Build(ctx, cfg, logger.Nop())
		So(errors.Is(err, config.ErrInvalidConfig), ShouldBeTrue)
	})

	Convey("Given an unknown sink kind", t, func() {
		cfg := config.New()
		cfg.Sinks = "file,ftp"

		_, err := sink.Build(ctx, cfg, logger.Nop())
		So(errors.Is(err, sink.ErrUnknownKind), ShouldBeTrue)
	})
}
