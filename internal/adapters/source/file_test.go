package source_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/playdash/internal/adapters/source"
	"github.com/okian/playdash/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "raw_data.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFileSource(t *testing.T) {
	ctx := context.Background()

	Convey("Given a snapshot dump on disk", t, func() {
		path := writeFile(t, `{"u1":{"launchCount":2,"results":{"2025-01-01-00-00-00-000_a":{"character":"Rin"}}},"u2":{}}`)
		src := source.NewFile(path, source.WithFileLogger(logger.Nop()))

		Convey("When loading", func() {
			users, err := src.Load(ctx)

			Convey("Then every user is decoded", func() {
				So(err, ShouldBeNil)
				So(users, ShouldHaveLength, 2)
				So(users["u1"].LaunchCount, ShouldEqual, 2)
				So(users["u1"].Results["2025-01-01-00-00-00-000_a"].Character, ShouldEqual, "Rin")
				So(src.Name(), ShouldEqual, "file")
			})
		})
	})

	Convey("Given a dump holding null", t, func() {
		src := source.NewFile(writeFile(t, "null"), source.WithFileLogger(logger.Nop()))
		users, err := src.Load(ctx)

		Convey("Then the snapshot is empty, not nil", func() {
			So(err, ShouldBeNil)
			So(users, ShouldNotBeNil)
			So(users, ShouldBeEmpty)
		})
	})

	Convey("Given a missing dump", t, func() {
		src := source.NewFile(filepath.Join(t.TempDir(), "nope.json"), source.WithFileLogger(logger.Nop()))
		_, err := src.Load(ctx)

		Convey("Then ErrNotFound is returned", func() {
			So(errors.Is(err, source.ErrNotFound), ShouldBeTrue)
		})
	})

	Convey("Given a truncated dump", t, func() {
		src := source.NewFile(writeFile(t, `{"u1": {`), source.WithFileLogger(logger.Nop()))
		_, err := src.Load(ctx)

		Convey("Then ErrDecode is returned", func() {
			So(errors.Is(err, source.ErrDecode), ShouldBeTrue)
		})
	})
}
