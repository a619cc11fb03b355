package metrics

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMetricsManagerCreation(t *testing.T) {
	Convey("Given metrics manager creation", t, func() {
		Convey("When creating with a fresh registry and custom options", func() {
			registry := prometheus.NewRegistry()
			manager := NewManager(
				WithNamespace("test"),
				WithSubsystem("unit"),
				WithHistogramBuckets([]float64{1, 10, 100}),
				WithConstLabels(map[string]string{"env": "test"}),
				WithPrometheusRegistry(registry),
			)
			manager.runs.WithLabelValues(StatusSuccess).Inc()

			Convey("Then metrics are registered under the configured names", func() {
				So(manager, ShouldNotBeNil)
				n, err := testutil.GatherAndCount(registry, "test_unit_runs_total")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})

			Convey("Then constant labels are attached", func() {
				expected := `
# HELP test_unit_runs_total Pipeline runs by outcome
# TYPE test_unit_runs_total counter
test_unit_runs_total{env="test",status="success"} 1
`
				So(testutil.GatherAndCompare(registry, strings.NewReader(expected), "test_unit_runs_total"), ShouldBeNil)
			})
		})

		Convey("When registering twice on the same registry", func() {
			registry := prometheus.NewRegistry()
			_ = NewManager(WithPrometheusRegistry(registry))

			Convey("Then promauto panics on the duplicate", func() {
				So(func() { NewManager(WithPrometheusRegistry(registry)) }, ShouldPanic)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global manager", t, func() {
		Convey("When recording run outcomes", func() {
			before := testutil.ToFloat64(globalManager.runs.WithLabelValues(StatusFailure))
			RecordRun(StatusFailure)

			Convey("Then the counter moves by one", func() {
				So(testutil.ToFloat64(globalManager.runs.WithLabelValues(StatusFailure)), ShouldEqual, before+1)
			})
		})

		Convey("When updating gauges", func() {
			UpdateUsersLoaded(42)
			UpdateExcluded(10, 3)
			UpdateAnalyticsPresent(true)
			UpdateLastSuccess(1_750_000_000)

			Convey("Then the last value wins", func() {
				So(testutil.ToFloat64(globalManager.usersLoaded), ShouldEqual, 42.0)
				So(testutil.ToFloat64(globalManager.recordsTotal), ShouldEqual, 10.0)
				So(testutil.ToFloat64(globalManager.recordsExcluded), ShouldEqual, 3.0)
				So(testutil.ToFloat64(globalManager.analyticsPresent), ShouldEqual, 1.0)
				So(testutil.ToFloat64(globalManager.lastSuccess), ShouldEqual, 1_750_000_000.0)
			})
		})

		Convey("When recording sink writes", func() {
			before := testutil.ToFloat64(globalManager.sinkWrites.WithLabelValues("file", StatusSuccess))
			RecordSinkWrite("file", StatusSuccess)
			RecordSinkWriteDuration("file", 12)

			Convey("Then the labelled counter moves", func() {
				So(testutil.ToFloat64(globalManager.sinkWrites.WithLabelValues("file", StatusSuccess)), ShouldEqual, before+1)
			})
		})

		Convey("When recording histograms and system metrics", func() {
			Convey("Then nothing panics", func() {
				So(func() {
					RecordRunDuration(120)
					RecordStageDuration(StageLoad, 30)
					RecordStageDuration(StageAssemble, 60)
					RecordStageDuration(StagePersist, 30)
					RecordErrorByComponent("source", "decode")
					RecordHTTPRequest("/stats", "GET", "200")
					RecordHTTPRequestDuration("/stats", "GET", "200", 1.5)
					UpdateSystemMemoryUsage(1024)
					UpdateSystemGoroutineCount(8)
					RecordSystemGCPauseTime(0.2)
				}, ShouldNotPanic)
			})
		})

		Convey("When asking for the registry", func() {
			Convey("Then it is the custom one the manager registered on", func() {
				So(GetRegistry(), ShouldEqual, customRegistry)
				n, err := testutil.GatherAndCount(GetRegistry(), "playdash_pipeline_users_loaded")
				So(err, ShouldBeNil)
				So(n, ShouldEqual, 1)
			})
		})
	})
}
