package aggregate

import (
	"sort"

	"github.com/okian/playdash/internal/domain/model"
)

// Field reads one categorical field of a result.
type Field func(model.ResultRecord) string

// Result fields counted by the category distributions.
var (
	CharacterField  Field = func(r model.ResultRecord) string { return r.Character }
	DifficultyField Field = func(r model.ResultRecord) string { return r.Difficulty }
	ClearRankField  Field = func(r model.ResultRecord) string { return r.ClearRank }
	PlatformField   Field = func(r model.ResultRecord) string { return r.Platform }
	CostumeField    Field = func(r model.ResultRecord) string { return r.Costume }
)

// CountField counts results per value of field, skipping results where it is empty.
func CountField(users model.RawUserMap, field Field) map[string]int {
	counts := make(map[string]int)
	for _, u := range users {
		for _, r := range u.Results {
			if v := field(r); v != "" {
				counts[v]++
			}
		}
	}
	return counts
}

// CharacterDistribution counts plays per character.
func CharacterDistribution(users model.RawUserMap) map[string]int {
	return CountField(users, CharacterField)
}

// DifficultyDistribution counts plays per difficulty.
func DifficultyDistribution(users model.RawUserMap) map[string]int {
	return CountField(users, DifficultyField)
}

// ClearRankDistribution counts plays per clear rank.
func ClearRankDistribution(users model.RawUserMap) map[string]int {
	return CountField(users, ClearRankField)
}

// LanguageDistribution gives each user one vote for the language in their latest
// settings snapshot.
func LanguageDistribution(users model.RawUserMap) map[string]int {
	counts := make(map[string]int)
	for _, u := range users {
		opt, ok := u.LatestOption()
		if !ok || opt.SettingLanguage == "" {
			continue
		}
		counts[opt.SettingLanguage]++
	}
	return counts
}

// PlatformDistribution counts plays and distinct players per platform, busiest first.
func PlatformDistribution(users model.RawUserMap) []model.PlatformShare {
	plays := make(map[string]int)
	players := make(map[string]map[string]struct{})
	for userID, u := range users {
		for _, r := range u.Results {
			if r.Platform == "" {
				continue
			}
			plays[r.Platform]++
			seen, ok := players[r.Platform]
			if !ok {
				seen = make(map[string]struct{})
				players[r.Platform] = seen
			}
			seen[userID] = struct{}{}
		}
	}

	out := make([]model.PlatformShare, 0, len(plays))
	for platform, n := range plays {
		out = append(out, model.PlatformShare{Platform: platform, Plays: n, Users: len(players[platform])})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Plays != out[j].Plays {
			return out[i].Plays > out[j].Plays
		}
		return out[i].Platform < out[j].Platform
	})
	return out
}

// CostumeDistribution counts plays per costume and keeps the topN most played.
func CostumeDistribution(users model.RawUserMap, topN int) []model.CostumeShare {
	counts := CountField(users, CostumeField)

	out := make([]model.CostumeShare, 0, len(counts))
	for costume, n := range counts {
		out = append(out, model.CostumeShare{Costume: costume, Plays: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Plays != out[j].Plays {
			return out[i].Plays > out[j].Plays
		}
		return out[i].Costume < out[j].Costume
	})
	if topN < 0 {
		topN = 0
	}
	if len(out) > topN {
		out = out[:topN]
	}
	return out
}
