package aggregate

import (
	"sort"
	"strings"

	"github.com/okian/playdash/internal/domain/model"
)

// PlatformCostumeCross counts plays per (platform, costume) for results carrying both
// fields. Costumes named like a fixed column are skipped so a row's total is the sum
// of its costume columns. Rows are ordered by row total, largest first.
func PlatformCostumeCross(users model.RawUserMap) []model.CrossRow {
	table := make(map[string]map[string]int)
	for _, u := range users {
		for _, r := range u.Results {
			if r.Platform == "" || r.Costume == "" || model.IsCrossColumn(r.Costume) {
				continue
			}
			row, ok := table[r.Platform]
			if !ok {
				row = make(map[string]int)
				table[r.Platform] = row
			}
			row[r.Costume]++
		}
	}

	out := make([]model.CrossRow, 0, len(table))
	for platform, row := range table {
		total := 0
		for _, n := range row {
			total += n
		}
		out = append(out, model.CrossRow{Platform: platform, Costumes: row, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Platform < out[j].Platform
	})
	return out
}

// difficulty buckets recognised by the song table.
const (
	difficultyEasy   = "easy"
	difficultyNormal = "normal"
	difficultyHard   = "hard"
)

// SongPlaysByDifficulty counts, for every song, the distinct users that played it on
// each of the Easy, Normal and Hard difficulties. Other difficulties are left out of
// the row. Rows are ordered by total, largest first.
func SongPlaysByDifficulty(users model.RawUserMap) []model.SongPlays {
	songs := make(map[string]map[string]map[string]struct{})
	for userID, u := range users {
		for _, r := range u.Results {
			if r.GameType == "" {
				continue
			}
			byDifficulty, ok := songs[r.GameType]
			if !ok {
				byDifficulty = make(map[string]map[string]struct{})
				songs[r.GameType] = byDifficulty
			}
			bucket := strings.ToLower(r.Difficulty)
			switch bucket {
			case difficultyEasy, difficultyNormal, difficultyHard:
			default:
				continue
			}
			players, ok := byDifficulty[bucket]
			if !ok {
				players = make(map[string]struct{})
				byDifficulty[bucket] = players
			}
			players[userID] = struct{}{}
		}
	}

	out := make([]model.SongPlays, 0, len(songs))
	for song, byDifficulty := range songs {
		row := model.SongPlays{
			SongID: song,
			Easy:   len(byDifficulty[difficultyEasy]),
			Normal: len(byDifficulty[difficultyNormal]),
			Hard:   len(byDifficulty[difficultyHard]),
		}
		row.Total = row.Easy + row.Normal + row.Hard
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].SongID < out[j].SongID
	})
	return out
}
