package attendance

import (
	"math"
	"time"
)

// LateWeight is the credit a late day earns toward the attendance
// percentage. It is the single canonical value; every caller aggregates
// through Summarize, so the weight never varies by surface.
const LateWeight = 0.5

// Summary is the derived per-student aggregate. It is never persisted.
type Summary struct {
	PresentDays int `json:"present_days"`
	AbsentDays  int `json:"absent_days"`
	LateDays    int `json:"late_days"`
	TotalDays   int `json:"total_days"`
	Percentage  int `json:"percentage"`
}

// Summarize aggregates one student's records into counts and a rounded
// percentage. Duplicate records for the same day — possible against a store
// without the composite key — collapse to the most recently written one, so
// a racy double insert never inflates the counts. An empty input yields a
// zero summary, not a division error.
func Summarize(records []Record) Summary {
	latest := make(map[time.Time]Record, len(records))
	for _, rec := range records {
		day := DayOf(rec.Day)
		existing, ok := latest[day]
		if !ok || writtenAt(rec).After(writtenAt(existing)) {
			latest[day] = rec
		}
	}

	var sum Summary
	for _, rec := range latest {
		switch rec.Status {
		case StatusPresent:
			sum.PresentDays++
		case StatusAbsent:
			sum.AbsentDays++
		case StatusLate:
			sum.LateDays++
		}
	}
	sum.TotalDays = sum.PresentDays + sum.AbsentDays + sum.LateDays
	if sum.TotalDays == 0 {
		return sum
	}
	attended := float64(sum.PresentDays) + LateWeight*float64(sum.LateDays)
	sum.Percentage = int(math.Round(100 * attended / float64(sum.TotalDays)))
	return sum
}

func writtenAt(rec Record) time.Time {
	if rec.UpdatedAt != nil {
		return *rec.UpdatedAt
	}
	return rec.CreatedAt
}
