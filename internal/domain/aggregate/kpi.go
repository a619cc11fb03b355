package aggregate

import "github.com/okian/playdash/internal/domain/model"

// KPI computes the headline totals. Play volume counts every entry in the results
// maps, dated or not; the average score skips results without a numeric score.
func KPI(users model.RawUserMap) model.KPI {
	kpi := model.KPI{TotalUsers: len(users)}

	var (
		scoreSum   float64
		scoreCount int
	)
	for _, u := range users {
		kpi.TotalLaunches += u.LaunchCount
		kpi.TotalPlays += len(u.Results)
		for _, r := range u.Results {
			if r.Score.Set {
				scoreSum += r.Score.Value
				scoreCount++
			}
		}
	}
	if scoreCount > 0 {
		kpi.AverageScore = round2(scoreSum / float64(scoreCount))
	}
	return kpi
}
