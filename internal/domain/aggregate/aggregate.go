// Package aggregate holds the reducers that turn a raw user snapshot into dashboard
// statistics. Every reducer is a pure function of its inputs: none of them mutate the
// snapshot, and they can run in any order or concurrently.
//
// Users and records are visited in ascending key order so that results which depend on
// encounter order (stable sorts with ties) are reproducible between runs.
package aggregate

import (
	"github.com/okian/playdash/internal/domain/model"
	"github.com/shopspring/decimal"
)

const (
	percentScale = 100
	roundPlaces  = 2
	launchEvent  = "launch"
	unknownLabel = "Unknown"
	noRankLabel  = "-"
)

// resultVisitor is called once per result record.
type resultVisitor func(userID, resultID string, r model.ResultRecord)

// forEachResult visits every result of every user in key order.
func forEachResult(users model.RawUserMap, visit resultVisitor) {
	for _, userID := range users.UserIDs() {
		u := users[userID]
		for _, resultID := range u.ResultIDs() {
			visit(userID, resultID, u.Results[resultID])
		}
	}
}

// round2 rounds half away from zero to two decimal places.
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(roundPlaces).InexactFloat64()
}

// percent returns part/whole scaled to 0-100 and rounded, or 0 when whole is 0.
func percent(part, whole int) float64 {
	if whole <= 0 {
		return 0
	}
	return round2(float64(part) / float64(whole) * percentScale)
}
