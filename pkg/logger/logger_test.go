package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/okian/playdash/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestLogger(t *testing.T) {
	Convey("Given a JSON logger writing to a buffer", t, func() {
		var buf bytes.Buffer
		So(logger.Init(logger.WithWriter(&buf), logger.WithJSON()), ShouldBeNil)
		So(logger.SetLevelString("info"), ShouldBeNil)
		defer func() { So(logger.Sync(), ShouldBeNil) }()
		ctx := context.Background()

		Convey("When logging through a named logger", func() {
			logger.Named("pipeline").Info(ctx, "run finished",
				logger.String("run_id", "r1"),
				logger.Int("users", 3),
				logger.Strings("sinks", []string{"file", "s3"}),
				logger.Error(errors.New("boom")),
			)

			var rec map[string]any
			So(json.Unmarshal(buf.Bytes(), &rec), ShouldBeNil)

			Convey("Then fields, component and source are recorded", func() {
				So(rec["msg"], ShouldEqual, "run finished")
				So(rec["component"], ShouldEqual, "pipeline")
				So(rec["run_id"], ShouldEqual, "r1")
				So(rec["users"], ShouldEqual, 3.0)
				So(rec["sinks"], ShouldResemble, []any{"file", "s3"})
				So(rec["error"], ShouldEqual, "boom")
				So(rec["source"], ShouldContainSubstring, "logger_test.go:")
			})
		})

		Convey("When the level is raised", func() {
			So(logger.SetLevelString("error"), ShouldBeNil)
			defer func() { _ = logger.SetLevelString("info") }()
			logger.Get().Info(ctx, "hidden")

			Convey("Then lower records are dropped", func() {
				So(buf.Len(), ShouldEqual, 0)
			})
		})

		Convey("When an unknown level is set", func() {
			So(logger.SetLevelString("loud"), ShouldNotBeNil)
		})
	})

	Convey("Given a nop logger", t, func() {
		l := logger.Nop()
		So(func() { l.Named("x").Error(context.Background(), "ignored") }, ShouldNotPanic)
	})
}
