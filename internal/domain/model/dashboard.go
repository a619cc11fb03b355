package model

import (
	"bytes"
	"encoding/json"
	"sort"
)

// Document is the dashboard document. JSON field names are read by the dashboard
// renderer and must stay stable.
type Document struct {
	LastUpdated                 string                      `json:"lastUpdated"`
	KPI                         KPI                         `json:"kpi"`
	DailyActiveUsers            []DailyActiveUsers          `json:"dailyActiveUsers"`
	CharacterDistribution       map[string]int              `json:"characterDistribution"`
	DifficultyDistribution      map[string]int              `json:"difficultyDistribution"`
	ClearRankDistribution       map[string]int              `json:"clearRankDistribution"`
	LanguageDistribution        map[string]int              `json:"languageDistribution"`
	PlatformDistribution        []PlatformShare             `json:"platformDistribution"`
	CostumeDistribution         []CostumeShare              `json:"costumeDistribution"`
	PlatformCostumeCross        []CrossRow                  `json:"platformCostumeCross"`
	SongPlaysByDifficulty       []SongPlays                 `json:"songPlaysByDifficulty"`
	CutsceneSkipRate            CutsceneSkipRate            `json:"cutsceneSkipRate"`
	PlayerClearRateDistribution PlayerClearRateDistribution `json:"playerClearRateDistribution"`
	PlayClearRateDistribution   PlayClearRateDistribution   `json:"playClearRateDistribution"`
	ExcludedDataStats           ExcludedDataStats           `json:"excludedDataStats"`
	RecentPlays                 []RecentPlay                `json:"recentPlays"`
	GA4                         *AnalyticsBlock             `json:"ga4,omitempty"`
}

// KPI holds the headline totals.
type KPI struct {
	TotalUsers    int     `json:"totalUsers"`
	TotalLaunches int     `json:"totalLaunches"`
	TotalPlays    int     `json:"totalPlays"`
	AverageScore  float64 `json:"averageScore"`
}

// DailyActiveUsers is the number of distinct users that launched on a date.
type DailyActiveUsers struct {
	Date  string `json:"date"`
	Users int    `json:"users"`
}

// PlatformShare is play volume and distinct players on one platform.
type PlatformShare struct {
	Platform string `json:"platform"`
	Plays    int    `json:"plays"`
	Users    int    `json:"users"`
}

// CostumeShare is play volume for one costume.
type CostumeShare struct {
	Costume string `json:"costume"`
	Plays   int    `json:"plays"`
}

// CrossRow is one platform row of the platform x costume table. It serializes flat:
// {"platform": ..., "<costume>": n, ..., "total": n}.
type CrossRow struct {
	Platform string
	Costumes map[string]int
	Total    int
}

// Fixed columns of a CrossRow.
const (
	crossPlatformColumn = "platform"
	crossTotalColumn    = "total"
)

// IsCrossColumn reports whether name is one of the fixed CrossRow columns, so it
// cannot be used as a costume column.
func IsCrossColumn(name string) bool {
	return name == crossPlatformColumn || name == crossTotalColumn
}

// MarshalJSON writes the row with costume columns in name order. Costume names that
// collide with the fixed columns are dropped.
func (r CrossRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if err := writeMember(&buf, crossPlatformColumn, r.Platform); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(r.Costumes))
	for name := range r.Costumes {
		if IsCrossColumn(name) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		buf.WriteByte(',')
		if err := writeMember(&buf, name, r.Costumes[name]); err != nil {
			return nil, err
		}
	}

	buf.WriteByte(',')
	if err := writeMember(&buf, crossTotalColumn, r.Total); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// SongPlays counts distinct players per difficulty for one song.
type SongPlays struct {
	SongID string `json:"songId"`
	Easy   int    `json:"easy"`
	Normal int    `json:"normal"`
	Hard   int    `json:"hard"`
	Total  int    `json:"total"`
}

// CutsceneSkipRate summarises opening cutscene sessions.
type CutsceneSkipRate struct {
	TotalStart             int     `json:"totalStart"`
	TotalSkip              int     `json:"totalSkip"`
	SkipRate               float64 `json:"skipRate"`
	TotalSkipButtonPresses int     `json:"totalSkipButtonPresses"`
}

// Band is one bucket of a percentage histogram.
type Band struct {
	Label string
	Count int
}

// Histogram is an ordered set of bands. It serializes as a JSON object whose keys
// keep band order.
type Histogram []Band

// MarshalJSON writes the bands in order.
func (h Histogram) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, b := range h {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeMember(&buf, b.Label, b.Count); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Total returns the sum of all band counts.
func (h Histogram) Total() int {
	total := 0
	for _, b := range h {
		total += b.Count
	}
	return total
}

// Count returns the count for label, or 0.
func (h Histogram) Count(label string) int {
	for _, b := range h {
		if b.Label == label {
			return b.Count
		}
	}
	return 0
}

// PlayerClearRateDistribution is the histogram of per-player success rates.
type PlayerClearRateDistribution struct {
	Distribution Histogram            `json:"distribution"`
	Stats        PlayerClearRateStats `json:"stats"`
}

// PlayerClearRateStats summarises per-player success rates.
type PlayerClearRateStats struct {
	Mean         float64 `json:"mean"`
	Median       float64 `json:"median"`
	TotalPlayers int     `json:"totalPlayers"`
}

// PlayClearRateDistribution is the histogram of per-play clear rates.
type PlayClearRateDistribution struct {
	Distribution Histogram          `json:"distribution"`
	Stats        PlayClearRateStats `json:"stats"`
}

// PlayClearRateStats summarises per-play clear rates.
type PlayClearRateStats struct {
	Mean       float64 `json:"mean"`
	Median     float64 `json:"median"`
	TotalPlays int     `json:"totalPlays"`
}

// ExcludedDataStats reports how many dated records the validity filter rejected.
type ExcludedDataStats struct {
	TotalCount    int     `json:"totalCount"`
	ExcludedCount int     `json:"excludedCount"`
	ExcludedRate  float64 `json:"excludedRate"`
}

// RecentPlay is the display shape of a recent result.
type RecentPlay struct {
	Timestamp  string  `json:"timestamp"`
	Character  string  `json:"character"`
	Difficulty string  `json:"difficulty"`
	Score      float64 `json:"score"`
	ClearRank  string  `json:"clearRank"`
	ClearType  string  `json:"clearType"`
}

// AnalyticsSummary is the externally produced page-view summary. Sub-fields are kept
// as raw JSON and copied into the document verbatim.
type AnalyticsSummary struct {
	OverallMetrics        json.RawMessage   `json:"overallMetrics,omitempty"`
	DailyMetrics          []json.RawMessage `json:"dailyMetrics"`
	LanguageDistribution  json.RawMessage   `json:"languageDistribution,omitempty"`
	GuidelineMonthlyStats json.RawMessage   `json:"guidelineMonthlyStats,omitempty"`
}

// AnalyticsBlock is the analytics summary as it appears in the document.
type AnalyticsBlock struct {
	AnalyticsSummary
	DailyMetricsPeriod int `json:"dailyMetricsPeriod"`
}

func writeMember(buf *bytes.Buffer, key string, value any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	v, err := json.Marshal(value)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(v)
	return nil
}
