package attendance

import (
	"context"
	"errors"
	"time"

	"classroll/internal/directory"
)

// Service coordinates marking and reading attendance. Authorization happens
// before the service is reached; validation happens here, before any write.
type Service struct {
	store RecordStore
	dir   directory.Directory
	now   func() time.Time
}

// NewService creates a service over a record store and the user directory.
func NewService(store RecordStore, dir directory.Directory) *Service {
	return &Service{store: store, dir: dir, now: time.Now}
}

// Mark records a student's status for one calendar day. Repeated marks for
// the same (student, day) update the existing record, never duplicate it.
// Days after the current UTC day are rejected.
func (s *Service) Mark(ctx context.Context, studentID string, day time.Time, status Status, authorID string) (Record, error) {
	if studentID == "" {
		return Record{}, &ValidationError{Field: "student_id", Reason: "required"}
	}
	if !status.Valid() {
		return Record{}, &ValidationError{Field: "status", Reason: "must be present, absent or late"}
	}
	if day.IsZero() {
		return Record{}, &ValidationError{Field: "date", Reason: "required"}
	}
	day = DayOf(day)
	if day.After(DayOf(s.now())) {
		return Record{}, &ValidationError{Field: "date", Reason: "future dates not allowed"}
	}

	student, err := s.dir.UserByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, directory.ErrUserNotFound) {
			return Record{}, ErrNotFound
		}
		return Record{}, err
	}
	if student.Role != directory.RoleStudent {
		return Record{}, &ValidationError{Field: "student_id", Reason: "user is not a student"}
	}

	return s.store.Upsert(ctx, Record{
		StudentID: studentID,
		Day:       day,
		Status:    status,
		CreatedBy: authorID,
	})
}

// Range returns records between from and to, both inclusive UTC calendar
// days. An empty studentID returns all students' records in range.
func (s *Service) Range(ctx context.Context, studentID string, from, to time.Time) ([]Record, error) {
	if from.IsZero() || to.IsZero() {
		return nil, &ValidationError{Field: "range", Reason: "from and to required"}
	}
	from, to = DayOf(from), DayOf(to)
	if from.After(to) {
		return nil, &ValidationError{Field: "range", Reason: "from is after to"}
	}
	return s.store.Range(ctx, studentID, from, to)
}

// Summary fetches a student's records in range and aggregates them.
func (s *Service) Summary(ctx context.Context, studentID string, from, to time.Time) (Summary, error) {
	if studentID == "" {
		return Summary{}, &ValidationError{Field: "student_id", Reason: "required"}
	}
	records, err := s.Range(ctx, studentID, from, to)
	if err != nil {
		return Summary{}, err
	}
	return Summarize(records), nil
}
