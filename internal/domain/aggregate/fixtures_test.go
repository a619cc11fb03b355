package aggregate_test

import (
	"time"

	"github.com/okian/playdash/internal/domain/model"
	"github.com/okian/playdash/internal/domain/timestamp"
)

// Today is 2025-06-15 for every test in this package.
func testFilter() *timestamp.Filter {
	return timestamp.NewFilter(2025, timestamp.WithClock(func() time.Time {
		return time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)
	}))
}

func play(character, difficulty, clearType string, score float64) model.ResultRecord {
	return model.ResultRecord{
		Character:  character,
		Difficulty: difficulty,
		ClearType:  clearType,
		ClearRank:  "A",
		Score:      model.NewNumber(score),
	}
}

func events(pairs ...string) map[string]string {
	m := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		m[pairs[i]] = pairs[i+1]
	}
	return m
}

// sampleUsers is a small snapshot with one user of each interesting shape.
func sampleUsers() model.RawUserMap {
	return model.RawUserMap{
		"alice": {
			LaunchCount: 3,
			TimeStamp: events(
				"2025-06-01-09-00-00-000", "launch",
				"2025-06-01-18-00-00-000", "launch",
				"2025-06-02-09-00-00-000", "launch",
			),
			Results: map[string]model.ResultRecord{
				"2025-06-01-09-10-00-000_a": play("Rin", "Easy", "Clear", 900),
				"2025-06-02-09-10-00-000_b": play("Rin", "Hard", "Failed", 300),
			},
			Option: map[string]model.OptionRecord{
				"2025-05-01-00-00-00-000": {SettingLanguage: "en"},
				"2025-06-01-00-00-00-000": {SettingLanguage: "ja"},
			},
		},
		"bob": {
			LaunchCount: 1,
			TimeStamp: events(
				"2025-06-01-10-00-00-000", "launch",
				"2568-06-01-10-00-00-000", "launch",
				"2025-07-01-10-00-00-000", "launch",
			),
			Results: map[string]model.ResultRecord{
				"2025-06-03-10-00-00-000_a": play("Len", "Normal", "FullCombo", 600),
			},
			Option: map[string]model.OptionRecord{
				"2025-06-01-00-00-00-000": {SettingLanguage: "ja"},
			},
		},
		"carol": {},
	}
}
