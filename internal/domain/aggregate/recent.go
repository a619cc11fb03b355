package aggregate

import (
	"sort"

	"github.com/okian/playdash/internal/domain/model"
	"github.com/okian/playdash/internal/domain/timestamp"
)

// RecentPlays returns up to limit valid results, newest first. Results with equal
// timestamps keep user-then-result key order.
func RecentPlays(users model.RawUserMap, f *timestamp.Filter, limit int) []model.RecentPlay {
	plays := make([]model.RecentPlay, 0)
	forEachResult(users, func(_, resultID string, r model.ResultRecord) {
		if r.Malformed {
			return
		}
		s, ok := timestamp.ParseResultID(resultID)
		if !ok || !f.Valid(s) {
			return
		}
		plays = append(plays, project(s.Key, r))
	})

	sort.SliceStable(plays, func(i, j int) bool { return plays[i].Timestamp > plays[j].Timestamp })

	if limit < 0 {
		limit = 0
	}
	if len(plays) > limit {
		plays = plays[:limit]
	}
	return plays
}

func project(ts string, r model.ResultRecord) model.RecentPlay {
	p := model.RecentPlay{
		Timestamp:  ts,
		Character:  orDefault(r.Character, unknownLabel),
		Difficulty: orDefault(r.Difficulty, unknownLabel),
		ClearRank:  orDefault(r.ClearRank, noRankLabel),
		ClearType:  orDefault(r.ClearType, unknownLabel),
	}
	if r.Score.Set {
		p.Score = r.Score.Value
	}
	return p
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
