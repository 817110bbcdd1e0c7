package directory

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
)

// PostgresDirectory stores users in Postgres.
type PostgresDirectory struct {
	db *sql.DB
}

// NewPostgres creates a directory backed by the given connection.
func NewPostgres(db *sql.DB) *PostgresDirectory {
	return &PostgresDirectory{db: db}
}

const userColumns = `id, email, name, role, enrollment_id, course, employee_id, department, password_hash`

func scanUser(row *sql.Row) (*User, error) {
	var u User
	var enrollmentID, course, employeeID, department sql.NullString
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &enrollmentID, &course, &employeeID, &department, &u.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u.EnrollmentID = enrollmentID.String
	u.Course = course.String
	u.EmployeeID = employeeID.String
	u.Department = department.String
	return &u, nil
}

// UserByID returns the user with the given id.
func (d *PostgresDirectory) UserByID(ctx context.Context, id string) (*User, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// UserByEmail returns the user with the given email.
func (d *PostgresDirectory) UserByEmail(ctx context.Context, email string) (*User, error) {
	row := d.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// RoleOf returns the authoritative role for a user.
func (d *PostgresDirectory) RoleOf(ctx context.Context, userID string) (Role, error) {
	var role Role
	err := d.db.QueryRowContext(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}
	return role, nil
}

// Create inserts a new user and returns it with its generated id.
func (d *PostgresDirectory) Create(ctx context.Context, u User) (*User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, role, enrollment_id, course, employee_id, department, password_hash)
		VALUES ($1,$2,$3,$4,NULLIF($5,''),NULLIF($6,''),NULLIF($7,''),NULLIF($8,''),$9)
	`, u.ID, u.Email, u.Name, u.Role, u.EnrollmentID, u.Course, u.EmployeeID, u.Department, u.PasswordHash)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
