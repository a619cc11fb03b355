package aggregate

import (
	"github.com/okian/playdash/internal/domain/model"
	"github.com/okian/playdash/internal/domain/timestamp"
)

// ExcludedDataStats runs the validity filter over every event key and result id and
// reports how many were rejected.
func ExcludedDataStats(users model.RawUserMap, f *timestamp.Filter) model.ExcludedDataStats {
	var stats model.ExcludedDataStats
	for _, u := range users {
		for key := range u.TimeStamp {
			stats.TotalCount++
			if !f.ValidKey(key) {
				stats.ExcludedCount++
			}
		}
		for id := range u.Results {
			stats.TotalCount++
			if !f.ValidResultID(id) {
				stats.ExcludedCount++
			}
		}
	}
	stats.ExcludedRate = percent(stats.ExcludedCount, stats.TotalCount)
	return stats
}
