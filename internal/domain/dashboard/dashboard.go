// Package dashboard assembles the dashboard document from a user snapshot.
package dashboard

import (
	"encoding/json"
	"time"

	"github.com/okian/playdash/internal/domain/aggregate"
	"github.com/okian/playdash/internal/domain/model"
	"github.com/okian/playdash/internal/domain/timestamp"
	"golang.org/x/sync/errgroup"
)

// Defaults used when no option overrides them.
const (
	DefaultOperatingYear    = 2025
	DefaultRecentPlaysLimit = 500
	DefaultCostumeTopN      = 20
)

// Assembler runs every reducer over one snapshot and merges the results.
// It holds only configuration and is safe for concurrent use.
type Assembler struct {
	year        int
	recentLimit int
	costumeTopN int
	now         func() time.Time
}

// New creates an Assembler with configuration options.
func New(opts ...Option) *Assembler {
	a := &Assembler{
		year:        DefaultOperatingYear,
		recentLimit: DefaultRecentPlaysLimit,
		costumeTopN: DefaultCostumeTopN,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Build produces the dashboard document. The snapshot is only read. A nil summary
// leaves the analytics block out of the document.
func (a *Assembler) Build(users model.RawUserMap, summary *model.AnalyticsSummary) model.Document {
	now := a.now()
	f := timestamp.NewFilter(a.year, timestamp.WithClock(func() time.Time { return now }))

	doc := model.Document{
		LastUpdated: now.UTC().Format(time.RFC3339),
		GA4:         analyticsBlock(summary),
	}

	// Each reducer writes to its own field, so the goroutines share nothing.
	var g errgroup.Group
	run := func(fn func()) {
		g.Go(func() error {
			fn()
			return nil
		})
	}
	run(func() { doc.KPI = aggregate.KPI(users) })
	run(func() { doc.DailyActiveUsers = aggregate.DailyActiveUsers(users, f) })
	run(func() { doc.CharacterDistribution = aggregate.CharacterDistribution(users) })
	run(func() { doc.DifficultyDistribution = aggregate.DifficultyDistribution(users) })
	run(func() { doc.ClearRankDistribution = aggregate.ClearRankDistribution(users) })
	run(func() { doc.LanguageDistribution = aggregate.LanguageDistribution(users) })
	run(func() { doc.PlatformDistribution = aggregate.PlatformDistribution(users) })
	run(func() { doc.CostumeDistribution = aggregate.CostumeDistribution(users, a.costumeTopN) })
	run(func() { doc.PlatformCostumeCross = aggregate.PlatformCostumeCross(users) })
	run(func() { doc.SongPlaysByDifficulty = aggregate.SongPlaysByDifficulty(users) })
	run(func() { doc.CutsceneSkipRate = aggregate.CutsceneSkipRate(users, f) })
	run(func() { doc.PlayerClearRateDistribution = aggregate.PlayerClearRateDistribution(users) })
	run(func() { doc.PlayClearRateDistribution = aggregate.PlayClearRateDistribution(users) })
	run(func() { doc.ExcludedDataStats = aggregate.ExcludedDataStats(users, f) })
	run(func() { doc.RecentPlays = aggregate.RecentPlays(users, f, a.recentLimit) })
	_ = g.Wait()

	return doc
}

func analyticsBlock(summary *model.AnalyticsSummary) *model.AnalyticsBlock {
	if summary == nil {
		return nil
	}
	block := &model.AnalyticsBlock{
		AnalyticsSummary:   *summary,
		DailyMetricsPeriod: len(summary.DailyMetrics),
	}
	if block.DailyMetrics == nil {
		block.DailyMetrics = []json.RawMessage{}
	}
	return block
}
