package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// User represents a row in the users table. PasswordHash never leaves the
// server; API responses expose Username and Email only.
type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

const userColumns = `id, username, email, password_hash, created_at, updated_at`

type UserStore struct {
	db *sqlx.DB
}

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

// q rebinds ? placeholders to the driver's native format.
func (s *UserStore) q(query string) string { return s.db.Rebind(query) }

func emailTaken(email string) *Error {
	return conflict("Email Already Exist",
		fmt.Sprintf("Email address %s already exists, please provide an unique email address.", email))
}

func usernameTaken(username string) *Error {
	return conflict("Username Already Exist",
		fmt.Sprintf("Username %s already exists, please provide an unique username.", username))
}

// Create inserts a user whose password has already been hashed. Email is
// checked before username. The pre-checks give friendly errors; the unique
// indexes on both columns close the race between concurrent registrations.
func (s *UserStore) Create(ctx context.Context, username, email, passwordHash string) (*User, error) {
	var u *User
	err := WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM users WHERE email = ?`), email); err != nil {
			return err
		}
		if n > 0 {
			return emailTaken(email)
		}
		if err := tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM users WHERE username = ?`), username); err != nil {
			return err
		}
		if n > 0 {
			return usernameTaken(username)
		}

		now := time.Now().UTC()
		id, err := insertID(ctx, tx, `
			INSERT INTO users (username, email, password_hash, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)`, username, email, passwordHash, now, now)
		if err != nil {
			if isUniqueConstraintError(err) {
				if violatedColumn(err, "email") {
					return emailTaken(email)
				}
				return usernameTaken(username)
			}
			return fmt.Errorf("insert user: %w", err)
		}

		var created User
		if err := tx.GetContext(ctx, &created, tx.Rebind(`SELECT `+userColumns+` FROM users WHERE id = ?`), id); err != nil {
			return err
		}
		u = &created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByEmail returns the user matching email, or ErrNotFound.
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, s.q(`SELECT `+userColumns+` FROM users WHERE email = ?`), email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByID returns the user with the given id, or ErrNotFound.
func (s *UserStore) GetByID(ctx context.Context, id int64) (*User, error) {
	var u User
	err := s.db.GetContext(ctx, &u, s.q(`SELECT `+userColumns+` FROM users WHERE id = ?`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Count returns the number of registered users.
func (s *UserStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM users`)
	return n, err
}
