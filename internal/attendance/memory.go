package attendance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps records in a map keyed by (student, day). The mutex makes
// Upsert atomic per key, matching the Postgres composite-index guarantee.
// Used for dev mode and tests.
type MemoryStore struct {
	mu      sync.Mutex
	records map[memKey]Record
}

type memKey struct {
	studentID string
	day       time.Time
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[memKey]Record)}
}

// Upsert inserts or updates the record for (student, day) under the lock.
func (s *MemoryStore) Upsert(_ context.Context, rec Record) (Record, error) {
	rec.Day = DayOf(rec.Day)
	key := memKey{studentID: rec.StudentID, day: rec.Day}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[key]; ok {
		existing.Status = rec.Status
		now := time.Now().UTC()
		existing.UpdatedAt = &now
		s.records[key] = existing
		return existing, nil
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.UpdatedAt = nil
	s.records[key] = rec
	return rec, nil
}

// Range returns records between from and to inclusive, oldest first.
func (s *MemoryStore) Range(_ context.Context, studentID string, from, to time.Time) ([]Record, error) {
	from, to = DayOf(from), DayOf(to)

	s.mu.Lock()
	defer s.mu.Unlock()

	var res []Record
	for key, rec := range s.records {
		if studentID != "" && key.studentID != studentID {
			continue
		}
		if key.day.Before(from) || key.day.After(to) {
			continue
		}
		res = append(res, rec)
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].Day.Equal(res[j].Day) {
			return res[i].Day.Before(res[j].Day)
		}
		return res[i].StudentID < res[j].StudentID
	})
	return res, nil
}
