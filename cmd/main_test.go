package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/playdash/internal/adapters/source"
	"github.com/okian/playdash/internal/config"
	"github.com/okian/playdash/internal/domain/model"
	"github.com/okian/playdash/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

const rawSnapshot = `{
  "u1": {
    "launchCount": 2,
    "timeStamp": {"2025-03-01-10-00-00-000": "launch"},
    "results": {"2025-03-01-10-05-00-000_a": {"character": "Rin", "clearType": "Clear", "score": 800}}
  }
}`

type stubDeps struct{ doc []byte }

func (s stubDeps) Latest(context.Context) ([]byte, error) { return s.doc, nil }
func (s stubDeps) GetStats() map[string]any              { return map[string]any{"runs": 1} }

func TestRunOneShot(t *testing.T) {
	convey.Convey("Given a file source and a file sink", t, func() {
		dir := t.TempDir()
		raw := filepath.Join(dir, "raw_data.json")
		out := filepath.Join(dir, "public", "dashboard_data.json")
		convey.So(os.WriteFile(raw, []byte(rawSnapshot), 0o600), convey.ShouldBeNil)

		cfg := config.New()
		cfg.RawDataPath = raw
		cfg.AnalyticsPath = filepath.Join(dir, "missing.json")
		cfg.OutputPath = out

		convey.Convey("When running once", func() {
			err := run(context.Background(), cfg, logger.Nop())

			convey.Convey("Then the dashboard document is written", func() {
				convey.So(err, convey.ShouldBeNil)
				b, err := os.ReadFile(out)
				convey.So(err, convey.ShouldBeNil)

				var doc model.Document
				convey.So(json.Unmarshal(b, &doc), convey.ShouldBeNil)
				convey.So(doc.KPI.TotalUsers, convey.ShouldEqual, 1)
				convey.So(doc.KPI.TotalLaunches, convey.ShouldEqual, 2)
				convey.So(doc.GA4, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the snapshot is missing", func() {
			cfg.RawDataPath = filepath.Join(dir, "nope.json")
			err := run(context.Background(), cfg, logger.Nop())

			convey.Convey("Then the run fails", func() {
				convey.So(err, convey.ShouldNotBeNil)
			})
		})
	})
}

func TestRunScheduled(t *testing.T) {
	convey.Convey("Given a scheduled pipeline without HTTP", t, func() {
		dir := t.TempDir()
		raw := filepath.Join(dir, "raw_data.json")
		convey.So(os.WriteFile(raw, []byte(rawSnapshot), 0o600), convey.ShouldBeNil)

		cfg := config.New()
		cfg.RawDataPath = raw
		cfg.AnalyticsPath = ""
		cfg.OutputPath = filepath.Join(dir, "out.json")
		cfg.RunIntervalS = 3600

		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		convey.Convey("Then it runs once immediately and returns on cancellation", func() {
			convey.So(run(ctx, cfg, logger.Nop()), convey.ShouldBeNil)
			_, err := os.Stat(cfg.OutputPath)
			convey.So(err, convey.ShouldBeNil)
		})
	})
}

func TestNewSource(t *testing.T) {
	convey.Convey("Given each source kind", t, func() {
		cfg := config.New()
		convey.So(newSource(cfg, logger.Nop()), convey.ShouldHaveSameTypeAs, &source.File{})

		cfg.SourceKind = config.SourceFirebase
		cfg.FirebaseURL = "https://example.firebaseio.com"
		convey.So(newSource(cfg, logger.Nop()), convey.ShouldHaveSameTypeAs, &source.Firebase{})
	})
}

func TestHTTPServer(t *testing.T) {
	convey.Convey("Given the HTTP server", t, func() {
		srv := newHTTPServer(":0", stubDeps{doc: []byte(`{}`)})

		convey.Convey("Then it has timeouts and the dashboard routes", func() {
			convey.So(srv.ReadTimeout, convey.ShouldEqual, readTimeout)
			convey.So(srv.ReadHeaderTimeout, convey.ShouldEqual, readHeaderTimeout)

			for _, path := range []string{"/dashboard.json", "/stats", "/healthz"} {
				rec := httptest.NewRecorder()
				srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
				convey.So(rec.Code, convey.ShouldEqual, http.StatusOK)
			}
		})
	})
}

func TestUpdateSystemMetrics(t *testing.T) {
	convey.Convey("Given the system metrics updater", t, func() {
		convey.So(updateSystemMetrics, convey.ShouldNotPanic)
	})
}
