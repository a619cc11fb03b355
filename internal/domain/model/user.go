// Package model contains the raw snapshot shapes read from the game backend and the
// dashboard document produced from them.
package model

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// RawUserMap maps an opaque user id to that user's record. It is loaded once per run
// and never mutated by the aggregation code.
type RawUserMap map[string]UserRecord

// UserIDs returns the user ids in ascending order.
func (m RawUserMap) UserIDs() []string {
	return sortedKeys(m)
}

// UserRecord is one user's node in the snapshot. Missing inner maps decode as empty.
type UserRecord struct {
	LaunchCount int
	// TimeStamp maps a timestamp key (YYYY-MM-DD-HH-MM-SS-mmm) to an event type.
	TimeStamp map[string]string
	// Results maps a result id (<timestamp key>_<suffix>) to a play result.
	Results map[string]ResultRecord
	// Option maps an option key to a settings snapshot.
	Option map[string]OptionRecord
}

// TimestampKeys returns the event keys in ascending order.
func (u UserRecord) TimestampKeys() []string {
	return sortedKeys(u.TimeStamp)
}

// ResultIDs returns the result ids in ascending order.
func (u UserRecord) ResultIDs() []string {
	return sortedKeys(u.Results)
}

// LatestOption returns the option snapshot with the greatest key.
func (u UserRecord) LatestOption() (OptionRecord, bool) {
	var (
		latest string
		found  bool
	)
	for key := range u.Option {
		if !found || key > latest {
			latest = key
			found = true
		}
	}
	if !found {
		return OptionRecord{}, false
	}
	return u.Option[latest], true
}

// UnmarshalJSON decodes a user node. Each section is decoded on its own so a broken
// section leaves the others intact; a node that is not an object yields an empty record.
func (u *UserRecord) UnmarshalJSON(b []byte) error {
	*u = UserRecord{}

	var raw struct {
		LaunchCount       Number                     `json:"launchCount"`
		LegacyLaunchCount Number                     `json:"launch_count"`
		TimeStamp         json.RawMessage            `json:"timeStamp"`
		Results           json.RawMessage            `json:"results"`
		Option            json.RawMessage            `json:"option"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil
	}

	launches := raw.LaunchCount
	if !launches.Set {
		launches = raw.LegacyLaunchCount
	}
	if n, ok := launches.Count(); ok {
		u.LaunchCount = n
	}

	var events map[string]json.RawMessage
	if json.Unmarshal(raw.TimeStamp, &events) == nil && len(events) > 0 {
		u.TimeStamp = make(map[string]string, len(events))
		for key, v := range events {
			u.TimeStamp[key] = text(v)
		}
	}

	var results map[string]json.RawMessage
	if json.Unmarshal(raw.Results, &results) == nil && len(results) > 0 {
		u.Results = make(map[string]ResultRecord, len(results))
		for id, v := range results {
			var r ResultRecord
			if err := json.Unmarshal(v, &r); err != nil {
				r = ResultRecord{Malformed: true}
			}
			u.Results[id] = r
		}
	}

	var options map[string]json.RawMessage
	if json.Unmarshal(raw.Option, &options) == nil && len(options) > 0 {
		u.Option = make(map[string]OptionRecord, len(options))
		for key, v := range options {
			var o OptionRecord
			if err := json.Unmarshal(v, &o); err != nil {
				o = OptionRecord{Malformed: true}
			}
			u.Option[key] = o
		}
	}
	return nil
}

// ResultRecord is one play attempt.
type ResultRecord struct {
	Character  string
	Difficulty string
	ClearRank  string
	ClearType  string
	// ClearRate is the play's own 0-100 rate; unset when absent or not numeric.
	ClearRate Number
	// Score is unset when absent or not coercible to a number.
	Score    Number
	GameType string
	Platform string
	Costume  string

	// Malformed marks an entry that was present in the results map but was not an
	// object. It still counts toward play volume.
	Malformed bool
}

// UnmarshalJSON decodes a result object, reading scalar fields leniently.
func (r *ResultRecord) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errNotObject
	}
	*r = ResultRecord{
		Character:  text(fields["character"]),
		Difficulty: text(fields["difficulty"]),
		ClearRank:  text(fields["clearRank"]),
		ClearType:  text(fields["clearType"]),
		GameType:   text(fields["gameType"]),
		Platform:   text(fields["platform"]),
		Costume:    text(fields["costume"]),
	}
	_ = r.ClearRate.UnmarshalJSON(fields["clearRate"])
	_ = r.Score.UnmarshalJSON(fields["score"])
	return nil
}

// OptionRecord is one settings snapshot.
type OptionRecord struct {
	SettingLanguage string
	Malformed       bool
}

// UnmarshalJSON decodes a settings object.
func (o *OptionRecord) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errNotObject
	}
	*o = OptionRecord{SettingLanguage: text(fields["settingLanguage"])}
	return nil
}

// Number is a JSON scalar coerced to float64. Numeric strings are accepted; anything
// else leaves Set false.
type Number struct {
	Value float64
	Set   bool
}

// NewNumber returns a set Number.
func NewNumber(v float64) Number {
	return Number{Value: v, Set: true}
}

// maxCount bounds counters read from the snapshot.
const maxCount = math.MaxInt32

// Count returns the number as a counter. Unset, negative, fractional and oversized
// values are rejected.
func (n Number) Count() (int, bool) {
	if !n.Set || n.Value < 0 || n.Value > maxCount || math.Trunc(n.Value) != n.Value {
		return 0, false
	}
	return int(n.Value), true
}

// UnmarshalJSON never fails: unreadable input leaves the number unset.
func (n *Number) UnmarshalJSON(b []byte) error {
	*n = Number{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		var s string
		if json.Unmarshal(b, &s) != nil {
			return nil
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil
		}
		v = parsed
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*n = NewNumber(v)
	return nil
}

// text reads a JSON string, or the literal text of a JSON number. Other values
// read as "".
func text(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var num json.Number
	if err := json.Unmarshal(raw, &num); err == nil {
		return num.String()
	}
	return ""
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
