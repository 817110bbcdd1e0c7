package attendance

import (
	"context"
	"errors"
	"testing"
	"time"

	"classroll/internal/directory"
)

func newTestService(t *testing.T) (*Service, *directory.MemoryDirectory) {
	t.Helper()
	dir := directory.NewMemory()
	mustCreate(t, dir, directory.User{ID: "s1", Email: "s1@school.test", Name: "Student One", Role: directory.RoleStudent})
	mustCreate(t, dir, directory.User{ID: "s2", Email: "s2@school.test", Name: "Student Two", Role: directory.RoleStudent})
	mustCreate(t, dir, directory.User{ID: "t1", Email: "t1@school.test", Name: "Teacher One", Role: directory.RoleTeacher})
	return NewService(NewMemoryStore(), dir), dir
}

func mustCreate(t *testing.T, dir *directory.MemoryDirectory, u directory.User) {
	t.Helper()
	if _, err := dir.Create(context.Background(), u); err != nil {
		t.Fatalf("create user %s: %v", u.ID, err)
	}
}

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestMarkIdempotent(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	d := day("2024-03-04")

	if _, err := svc.Mark(ctx, "s1", d, StatusPresent, "t1"); err != nil {
		t.Fatalf("first mark: %v", err)
	}
	if _, err := svc.Mark(ctx, "s1", d, StatusPresent, "t1"); err != nil {
		t.Fatalf("second mark: %v", err)
	}

	records, err := svc.Range(ctx, "s1", d, d)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("want 1 record, got %d", len(records))
	}
	if records[0].Status != StatusPresent {
		t.Fatalf("want status present, got %s", records[0].Status)
	}
}

func TestMarkUpdatesInsteadOfDuplicating(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	d := day("2024-03-04")

	first, err := svc.Mark(ctx, "s1", d, StatusPresent, "t1")
	if err != nil {
		t.Fatalf("first mark: %v", err)
	}
	second, err := svc.Mark(ctx, "s1", d, StatusAbsent, "t1")
	if err != nil {
		t.Fatalf("second mark: %v", err)
	}

	if second.ID != first.ID {
		t.Fatalf("second mark created a new record: %s vs %s", second.ID, first.ID)
	}
	if second.UpdatedAt == nil {
		t.Fatal("updated record should carry updated_at")
	}
	if second.CreatedBy != "t1" {
		t.Fatalf("created_by changed to %s", second.CreatedBy)
	}

	records, err := svc.Range(ctx, "s1", d, d)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(records) != 1 || records[0].Status != StatusAbsent {
		t.Fatalf("want exactly one absent record, got %+v", records)
	}
}

func TestMarkRejectsFutureDate(t *testing.T) {
	svc, _ := newTestService(t)
	tomorrow := time.Now().UTC().AddDate(0, 0, 1)

	_, err := svc.Mark(context.Background(), "s1", tomorrow, StatusPresent, "t1")
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("want ValidationError, got %v", err)
	}

	records, rerr := svc.Range(context.Background(), "s1", tomorrow, tomorrow)
	if rerr != nil {
		t.Fatalf("range: %v", rerr)
	}
	if len(records) != 0 {
		t.Fatalf("rejected mark must not write, got %d records", len(records))
	}
}

func TestMarkRejectsInvalidInput(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	d := day("2024-03-04")

	cases := []struct {
		name      string
		studentID string
		day       time.Time
		status    Status
	}{
		{"empty student", "", d, StatusPresent},
		{"bad status", "s1", d, Status("vacation")},
		{"zero day", "s1", time.Time{}, StatusPresent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Mark(ctx, tc.studentID, tc.day, tc.status, "t1")
			var validationErr *ValidationError
			if !errors.As(err, &validationErr) {
				t.Fatalf("want ValidationError, got %v", err)
			}
		})
	}
}

func TestMarkUnknownStudent(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Mark(context.Background(), "ghost", day("2024-03-04"), StatusPresent, "t1")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMarkRejectsNonStudentTarget(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Mark(context.Background(), "t1", day("2024-03-04"), StatusPresent, "t1")
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
}

func TestRangeInclusiveBoundaries(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	for _, d := range []string{"2024-02-29", "2024-03-01", "2024-04-01"} {
		if _, err := svc.Mark(ctx, "s1", day(d), StatusPresent, "t1"); err != nil {
			t.Fatalf("mark %s: %v", d, err)
		}
	}
	// Last minute of March 31 still lands on the March 31 calendar day.
	lastMinute := time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)
	if _, err := svc.Mark(ctx, "s1", lastMinute, StatusLate, "t1"); err != nil {
		t.Fatalf("mark 23:59:59: %v", err)
	}

	records, err := svc.Range(ctx, "s1", day("2024-03-01"), day("2024-03-31"))
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("want 2 records in March, got %d", len(records))
	}
	if !records[0].Day.Equal(day("2024-03-01")) || !records[1].Day.Equal(day("2024-03-31")) {
		t.Fatalf("unexpected days: %v, %v", records[0].Day, records[1].Day)
	}
}

func TestRangeAllStudents(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	d := day("2024-03-04")

	if _, err := svc.Mark(ctx, "s1", d, StatusPresent, "t1"); err != nil {
		t.Fatalf("mark s1: %v", err)
	}
	if _, err := svc.Mark(ctx, "s2", d, StatusAbsent, "t1"); err != nil {
		t.Fatalf("mark s2: %v", err)
	}

	records, err := svc.Range(ctx, "", d, d)
	if err != nil {
		t.Fatalf("range: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("want both students' records, got %d", len(records))
	}
}

func TestRangeInvalidBounds(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.Range(context.Background(), "s1", day("2024-03-31"), day("2024-03-01"))
	var validationErr *ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("want ValidationError, got %v", err)
	}
}
