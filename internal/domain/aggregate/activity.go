package aggregate

import (
	"sort"

	"github.com/okian/playdash/internal/domain/model"
	"github.com/okian/playdash/internal/domain/timestamp"
)

// DailyActiveUsers counts, per date, the distinct users with at least one valid launch
// event. The result is ordered by date ascending.
func DailyActiveUsers(users model.RawUserMap, f *timestamp.Filter) []model.DailyActiveUsers {
	days := make(map[string]map[string]struct{})
	for userID, u := range users {
		for key, eventType := range u.TimeStamp {
			if eventType != launchEvent {
				continue
			}
			s, ok := timestamp.Parse(key)
			if !ok || !f.Valid(s) {
				continue
			}
			seen, ok := days[s.Date]
			if !ok {
				seen = make(map[string]struct{})
				days[s.Date] = seen
			}
			seen[userID] = struct{}{}
		}
	}

	out := make([]model.DailyActiveUsers, 0, len(days))
	for date, seen := range days {
		out = append(out, model.DailyActiveUsers{Date: date, Users: len(seen)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
