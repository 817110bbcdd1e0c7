package attendance

import (
	"context"
	"time"
)

// RecordStore persists attendance records. Upsert must be atomic per
// (studentID, day): two concurrent calls for the same key yield exactly one
// record, the later status winning. Range is inclusive on both bounds, which
// are UTC calendar days.
type RecordStore interface {
	Upsert(ctx context.Context, rec Record) (Record, error)
	Range(ctx context.Context, studentID string, from, to time.Time) ([]Record, error)
}
