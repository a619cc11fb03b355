package aggregate_test

import (
	"encoding/json"
	"testing"

	"github.com/okian/playdash/internal/domain/aggregate"
	"github.com/okian/playdash/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPlatformCostumeCross(t *testing.T) {
	Convey("Given results with platform and costume", t, func() {
		users := model.RawUserMap{
			"a": {Results: map[string]model.ResultRecord{
				"1": {Platform: "PC", Costume: "Default"},
				"2": {Platform: "Switch", Costume: "Default"},
				"3": {Platform: "Switch", Costume: "Summer"},
				"4": {Platform: "Switch"},
			}},
			"b": {Results: map[string]model.ResultRecord{
				"1": {Platform: "Switch", Costume: "Summer"},
				"2": {Costume: "Summer"},
			}},
		}
		rows := aggregate.PlatformCostumeCross(users)

		Convey("Then rows are ordered by total and skip incomplete results", func() {
			So(rows, ShouldHaveLength, 2)
			So(rows[0].Platform, ShouldEqual, "Switch")
			So(rows[0].Total, ShouldEqual, 3)
			So(rows[0].Costumes, ShouldResemble, map[string]int{"Default": 1, "Summer": 2})
			So(rows[1].Platform, ShouldEqual, "PC")
			So(rows[1].Total, ShouldEqual, 1)
		})

		Convey("Then a row serializes flat", func() {
			b, err := json.Marshal(rows[0])
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `{"platform":"Switch","Default":1,"Summer":2,"total":3}`)
		})
	})
}

func TestPlatformCostumeCrossReservedNames(t *testing.T) {
	Convey("Given costumes named like the fixed columns", t, func() {
		users := model.RawUserMap{
			"a": {Results: map[string]model.ResultRecord{
				"1": {Platform: "PC", Costume: "Default"},
				"2": {Platform: "PC", Costume: "total"},
				"3": {Platform: "PC", Costume: "platform"},
				"4": {Platform: "Switch", Costume: "total"},
			}},
		}
		rows := aggregate.PlatformCostumeCross(users)

		Convey("Then they are not counted and each total matches its columns", func() {
			So(rows, ShouldHaveLength, 1)
			So(rows[0].Costumes, ShouldResemble, map[string]int{"Default": 1})
			So(rows[0].Total, ShouldEqual, 1)

			b, err := json.Marshal(rows[0])
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `{"platform":"PC","Default":1,"total":1}`)
		})
	})
}

func TestSongPlaysByDifficulty(t *testing.T) {
	Convey("Given repeated plays by the same users", t, func() {
		users := model.RawUserMap{
			"a": {Results: map[string]model.ResultRecord{
				"1": {GameType: "song1", Difficulty: "Easy"},
				"2": {GameType: "song1", Difficulty: "Easy"},
				"3": {GameType: "song1", Difficulty: "Hard"},
				"4": {GameType: "song2", Difficulty: "Expert"},
			}},
			"b": {Results: map[string]model.ResultRecord{
				"1": {GameType: "song1", Difficulty: "easy"},
				"2": {GameType: "song2", Difficulty: "Normal"},
				"3": {Difficulty: "Normal"},
			}},
		}

		Convey("Then distinct players are counted per recognised difficulty", func() {
			So(aggregate.SongPlaysByDifficulty(users), ShouldResemble, []model.SongPlays{
				{SongID: "song1", Easy: 2, Normal: 0, Hard: 1, Total: 3},
				{SongID: "song2", Easy: 0, Normal: 1, Hard: 0, Total: 1},
			})
		})
	})
}
