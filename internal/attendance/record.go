// Package attendance implements the daily attendance record lifecycle:
// atomic create-or-update per (student, day), range queries, and summary
// aggregation.
package attendance

import (
	"errors"
	"fmt"
	"time"
)

// Status is a daily presence marker.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
)

// Valid reports whether s is a supported status.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate:
		return true
	default:
		return false
	}
}

// Record is one student's attendance for one calendar day. Day carries no
// time-of-day; it is always midnight UTC.
type Record struct {
	ID        string     `json:"id"`
	StudentID string     `json:"student_id"`
	Day       time.Time  `json:"day"`
	Status    Status     `json:"status"`
	CreatedBy string     `json:"created_by"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

// DayOf normalizes a timestamp to its UTC calendar day. All range bounds and
// record days pass through this, so a record at 23:59:59 belongs to the same
// day as one at midnight.
func DayOf(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ErrNotFound is returned when a referenced user or record does not exist.
var ErrNotFound = errors.New("attendance: not found")

// ValidationError rejects bad input before any write is attempted.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// StoreError wraps a persistence failure.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return fmt.Sprintf("store %s: %v", e.Op, e.Err) }
func (e *StoreError) Unwrap() error { return e.Err }
