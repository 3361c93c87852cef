package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
)

var (
	// ErrNotFound is returned when a requested entity does not exist or is
	// outside the caller's scope.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned when a field is missing or malformed.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConflict is returned when a write would violate a uniqueness rule.
	ErrConflict = errors.New("conflict")
)

// Error is a domain error carrying a human-readable title and detail for
// the API error body. It unwraps to one of ErrNotFound, ErrInvalidInput or
// ErrConflict so callers can branch with errors.Is.
type Error struct {
	Kind   error
	Title  string
	Detail string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Title, e.Detail)
}

func (e *Error) Unwrap() error { return e.Kind }

func invalid(title, detail string) *Error {
	return &Error{Kind: ErrInvalidInput, Title: title, Detail: detail}
}

func conflict(title, detail string) *Error {
	return &Error{Kind: ErrConflict, Title: title, Detail: detail}
}

func notFound(title, detail string) *Error {
	return &Error{Kind: ErrNotFound, Title: title, Detail: detail}
}

// isUniqueConstraintError checks whether err indicates a unique constraint violation.
// Works across SQLite, PostgreSQL, and MySQL.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505" // unique_violation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1062 // ER_DUP_ENTRY
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || // SQLite
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "duplicate entry")
}

// isForeignKeyError checks whether err indicates a foreign key violation.
func isForeignKeyError(err error) bool {
	if err == nil {
		return false
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503" // foreign_key_violation
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == 1452 // ER_NO_REFERENCED_ROW_2
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint") // SQLite
}

// violatedColumn reports whether a unique violation is on the index for
// column. Only the constraint or key name is inspected, never the duplicate
// value: PostgreSQL "users_email_key", MySQL "... for key 'users.email'",
// SQLite "UNIQUE constraint failed: users.email".
func violatedColumn(err error, column string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return strings.Contains(pqErr.Constraint, "_"+column+"_")
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		i := strings.LastIndex(myErr.Message, "for key ")
		if i < 0 {
			return false
		}
		key := strings.Trim(myErr.Message[i+len("for key "):], "'` ")
		return key == column || strings.HasSuffix(key, "."+column)
	}
	msg := err.Error()
	i := strings.Index(msg, "constraint failed:")
	if i < 0 {
		return false
	}
	for _, f := range strings.FieldsFunc(msg[i+len("constraint failed:"):], func(r rune) bool {
		return r == ',' || r == ' ' || r == '(' || r == ')'
	}) {
		if f == column || strings.HasSuffix(f, "."+column) {
			return true
		}
	}
	return false
}
