package aggregate

import (
	"sort"

	"github.com/okian/playdash/internal/domain/model"
)

// Histogram band labels, in order.
const (
	BandZero      = "0%"
	BandLow       = "1-19%"
	BandLowerMid  = "20-39%"
	BandMid       = "40-59%"
	BandUpperMid  = "60-79%"
	BandHigh      = "80-99%"
	BandComplete  = "100%"
	bandWidth     = 20
	maxPercentage = 100
)

var bandLabels = [...]string{BandZero, BandLow, BandLowerMid, BandMid, BandUpperMid, BandHigh, BandComplete}

// successClearTypes are the clear types that count as a successful play.
var successClearTypes = map[string]struct{}{
	"Clear":     {},
	"FullCombo": {},
	"Perfect":   {},
}

// Summary is a bucketed percentage sample.
type Summary struct {
	Histogram model.Histogram
	Mean      float64
	Median    float64
	N         int
}

// bandIndex maps a percentage in [0, 100] to its band. 0 and 100 have bands of their
// own; everything else falls into a half-open 20-point band.
func bandIndex(v float64) int {
	switch {
	case v <= 0:
		return 0
	case v >= maxPercentage:
		return len(bandLabels) - 1
	case v < bandWidth:
		return 1
	}
	return int(v/bandWidth) + 1
}

// Summarize buckets values (each in [0, 100]) into the seven bands and computes the
// mean and median. values is not modified.
func Summarize(values []float64) Summary {
	h := make(model.Histogram, len(bandLabels))
	for i, label := range bandLabels {
		h[i].Label = label
	}

	s := Summary{Histogram: h, N: len(values)}
	if len(values) == 0 {
		return s
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum float64
	for _, v := range sorted {
		h[bandIndex(v)].Count++
		sum += v
	}
	s.Mean = round2(sum / float64(len(sorted)))

	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		s.Median = round2((sorted[mid-1] + sorted[mid]) / 2)
	} else {
		s.Median = round2(sorted[mid])
	}
	return s
}

// PlayerClearRates returns each player's success rate: the share of their results
// whose clear type is a success. Players without well-formed results are left out.
func PlayerClearRates(users model.RawUserMap) []float64 {
	rates := make([]float64, 0, len(users))
	for _, userID := range users.UserIDs() {
		var total, success int
		for _, r := range users[userID].Results {
			if r.Malformed {
				continue
			}
			total++
			if _, ok := successClearTypes[r.ClearType]; ok {
				success++
			}
		}
		if total == 0 {
			continue
		}
		rates = append(rates, float64(success)/float64(total)*percentScale)
	}
	return rates
}

// PlayClearRates returns every result's own clear rate. Missing, non-numeric and
// out-of-range values are left out.
func PlayClearRates(users model.RawUserMap) []float64 {
	var rates []float64
	forEachResult(users, func(_, _ string, r model.ResultRecord) {
		if !r.ClearRate.Set {
			return
		}
		v := r.ClearRate.Value
		if v < 0 || v > maxPercentage {
			return
		}
		rates = append(rates, v)
	})
	return rates
}

// PlayerClearRateDistribution summarises per-player success rates.
func PlayerClearRateDistribution(users model.RawUserMap) model.PlayerClearRateDistribution {
	s := Summarize(PlayerClearRates(users))
	return model.PlayerClearRateDistribution{
		Distribution: s.Histogram,
		Stats: model.PlayerClearRateStats{
			Mean:         s.Mean,
			Median:       s.Median,
			TotalPlayers: s.N,
		},
	}
}

// PlayClearRateDistribution summarises per-play clear rates.
func PlayClearRateDistribution(users model.RawUserMap) model.PlayClearRateDistribution {
	s := Summarize(PlayClearRates(users))
	return model.PlayClearRateDistribution{
		Distribution: s.Histogram,
		Stats: model.PlayClearRateStats{
			Mean:       s.Mean,
			Median:     s.Median,
			TotalPlays: s.N,
		},
	}
}
