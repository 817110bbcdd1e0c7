package attendance

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// PostgresStore persists attendance records in Postgres. The table carries a
// UNIQUE (student_id, day) index, so the upsert below is the serialization
// point for concurrent marks on the same key.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a store over the given connection.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Upsert inserts a record or, when one exists for (student_id, day), updates
// its status and updated_at in the same statement. created_by and created_at
// always belong to the first writer.
func (s *PostgresStore) Upsert(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	rec.Day = DayOf(rec.Day)

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO attendance_records (id, student_id, day, status, created_by, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (student_id, day) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = NOW()
		RETURNING id, student_id, day, status, created_by, created_at, updated_at
	`, rec.ID, rec.StudentID, rec.Day, rec.Status, rec.CreatedBy, rec.CreatedAt)

	var out Record
	var updatedAt sql.NullTime
	if err := row.Scan(&out.ID, &out.StudentID, &out.Day, &out.Status, &out.CreatedBy, &out.CreatedAt, &updatedAt); err != nil {
		return Record{}, &StoreError{Op: "upsert", Err: err}
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		out.UpdatedAt = &t
	}
	out.Day = DayOf(out.Day)
	return out, nil
}

// Range returns records between from and to inclusive, oldest first.
// An empty studentID matches every student.
func (s *PostgresStore) Range(ctx context.Context, studentID string, from, to time.Time) ([]Record, error) {
	from, to = DayOf(from), DayOf(to)
	query := `
		SELECT id, student_id, day, status, created_by, created_at, updated_at
		FROM attendance_records
		WHERE day >= $1 AND day <= $2`
	args := []any{from, to}
	if studentID != "" {
		query += ` AND student_id = $3`
		args = append(args, studentID)
	}
	query += ` ORDER BY day, student_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, &StoreError{Op: "range", Err: err}
	}
	defer rows.Close()

	var res []Record
	for rows.Next() {
		var rec Record
		var updatedAt sql.NullTime
		if err := rows.Scan(&rec.ID, &rec.StudentID, &rec.Day, &rec.Status, &rec.CreatedBy, &rec.CreatedAt, &updatedAt); err != nil {
			return nil, &StoreError{Op: "range", Err: err}
		}
		if updatedAt.Valid {
			t := updatedAt.Time
			rec.UpdatedAt = &t
		}
		rec.Day = DayOf(rec.Day)
		res = append(res, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &StoreError{Op: "range", Err: err}
	}
	return res, nil
}
