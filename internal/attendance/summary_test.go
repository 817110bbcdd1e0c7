package attendance

import (
	"testing"
	"time"
)

func rec(dayStr string, status Status) Record {
	return Record{
		StudentID: "s1",
		Day:       day(dayStr),
		Status:    status,
		CreatedAt: day(dayStr),
	}
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(nil)
	if sum.TotalDays != 0 || sum.Percentage != 0 {
		t.Fatalf("empty input must yield zero summary, got %+v", sum)
	}
}

func TestSummarizeCounts(t *testing.T) {
	sum := Summarize([]Record{
		rec("2024-03-01", StatusPresent),
		rec("2024-03-02", StatusPresent),
		rec("2024-03-03", StatusAbsent),
	})
	if sum.PresentDays != 2 || sum.AbsentDays != 1 || sum.LateDays != 0 || sum.TotalDays != 3 {
		t.Fatalf("unexpected counts: %+v", sum)
	}
	if sum.Percentage != 67 {
		t.Fatalf("want 67%%, got %d%%", sum.Percentage)
	}
}

func TestSummarizeMonotonic(t *testing.T) {
	records := []Record{
		rec("2024-03-01", StatusPresent),
		rec("2024-03-02", StatusPresent),
		rec("2024-03-03", StatusAbsent),
	}
	before := Summarize(records).Percentage

	records = append(records, rec("2024-03-04", StatusPresent))
	after := Summarize(records).Percentage

	if before != 67 || after != 75 {
		t.Fatalf("want 67 -> 75, got %d -> %d", before, after)
	}
}

func TestSummarizeLateWeight(t *testing.T) {
	sum := Summarize([]Record{
		rec("2024-03-01", StatusPresent),
		rec("2024-03-02", StatusLate),
	})
	// (1 + 0.5) / 2
	if sum.Percentage != 75 {
		t.Fatalf("want 75%%, got %d%%", sum.Percentage)
	}
}

func TestSummarizeCollapsesDuplicateDays(t *testing.T) {
	older := rec("2024-03-01", StatusAbsent)
	newer := rec("2024-03-01", StatusPresent)
	updated := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	newer.UpdatedAt = &updated

	sum := Summarize([]Record{older, newer})
	if sum.TotalDays != 1 {
		t.Fatalf("duplicates must collapse to one day, got %d", sum.TotalDays)
	}
	if sum.PresentDays != 1 || sum.AbsentDays != 0 {
		t.Fatalf("most recent write must win, got %+v", sum)
	}
	if sum.Percentage != 100 {
		t.Fatalf("want 100%%, got %d%%", sum.Percentage)
	}
}
