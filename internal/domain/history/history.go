// Package history builds bounded time series of cumulative points.
package history

import (
	"sort"
	"time"

	"github.com/okian/ascent/internal/domain/model"
	"github.com/okian/ascent/pkg/metrics"
)

// Entry is one day's cumulative point total.
type Entry struct {
	Day    time.Time `json:"dayPerformed"` // UTC midnight
	Points int       `json:"points"`
}

// Series is an ordered (ascending) sequence of daily cumulative totals.
// A user with no qualifying events inside the window gets an empty
// series, not an error.
type Series struct {
	Entries []Entry `json:"pointsHistory"`
}

// Build buckets skill events by UTC day, computes the running cumulative
// total, and drops buckets older than now minus retentionDays. Events for
// skills outside the view are ignored; a non-empty subjectID restricts
// the series to that subject. The per-skill occurrence cap applies in
// event order, so over-cap completions never inflate the curve.
//
// Events that precede the window still seed the cumulative base: the
// series shows totals as they stood on each surviving day, only the old
// buckets themselves are discarded.
func Build(events []model.SkillEvent, view *model.CatalogView, subjectID string, retentionDays int, now time.Time) Series {
	metrics.RecordHistoryQuery()

	cutoff := day(now.UTC()).AddDate(0, 0, -retentionDays)

	perDay := map[time.Time]int{}
	occurrences := map[string]int{}

	for _, ev := range events {
		skill, ok := view.Skill(ev.SkillID)
		if !ok {
			continue
		}
		if subjectID != "" && skill.SubjectID != subjectID {
			continue
		}
		if occurrences[ev.SkillID] >= skill.MaxOccurrences {
			continue
		}
		occurrences[ev.SkillID]++
		perDay[day(ev.TS.UTC())] += ev.Points
	}

	days := make([]time.Time, 0, len(perDay))
	for d := range perDay {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	var series Series
	cumulative := 0
	for _, d := range days {
		cumulative += perDay[d]
		if d.Before(cutoff) {
			continue
		}
		series.Entries = append(series.Entries, Entry{Day: d, Points: cumulative})
	}
	return series
}

// day truncates a timestamp to UTC midnight.
func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
