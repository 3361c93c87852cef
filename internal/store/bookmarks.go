package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/shortmark/shortmark/internal/shortcode"
)

// Bookmark represents a row in the bookmarks table.
type Bookmark struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	URL       string    `db:"url"`
	ShortURL  string    `db:"short_url"`
	Visits    int64     `db:"visits"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// BookmarkStat is the reduced view returned by Stats.
type BookmarkStat struct {
	ID       int64  `db:"id"`
	URL      string `db:"url"`
	ShortURL string `db:"short_url"`
	Visits   int64  `db:"visits"`
}

// BookmarkPage is one page of a user's bookmarks.
type BookmarkPage struct {
	Items []*Bookmark
	Meta  PageMeta
}

const bookmarkColumns = `id, user_id, url, short_url, visits, body, created_at, updated_at`

// codeInsertAttempts bounds how often Create re-draws a code after losing
// an insert race on the short_url unique index.
const codeInsertAttempts = 3

// errCodeTaken marks a short_url unique violation so Create can retry.
var errCodeTaken = errors.New("short code taken concurrently")

// BookmarkStore owns bookmark persistence. Every method except Resolve,
// IncrementVisits and Count is scoped to an owner: a bookmark
// belonging to another user behaves exactly like a missing one.
type BookmarkStore struct {
	db    *sqlx.DB
	codes *shortcode.Generator
}

func NewBookmarkStore(db *sqlx.DB, codes *shortcode.Generator) *BookmarkStore {
	if codes == nil {
		codes = shortcode.New()
	}
	return &BookmarkStore{db: db, codes: codes}
}

// q rebinds ? placeholders to the driver's native format.
func (s *BookmarkStore) q(query string) string { return s.db.Rebind(query) }

func bookmarkNotFound(id int64) *Error {
	return notFound("Bookmark Not Found", fmt.Sprintf("Unable to find bookmark with id: %d.", id))
}

// ownerNotFound reports a bookmark owner that no longer exists, such as a
// user deleted while still holding a valid token.
func ownerNotFound(id int64) *Error {
	return notFound("User Not Found", fmt.Sprintf("Unable to find user with id: %d.", id))
}

func urlTaken() *Error {
	return conflict("URL Already Exists", "URL already exists, please provide another url.")
}

// Create validates url, rejects it if any user already bookmarked it, and
// inserts a new bookmark under a freshly generated short code.
func (s *BookmarkStore) Create(ctx context.Context, ownerID int64, url, body string) (*Bookmark, error) {
	if err := ValidateURL(url); err != nil {
		return nil, err
	}

	var (
		b   *Bookmark
		err error
	)
	for attempt := 0; attempt < codeInsertAttempts; attempt++ {
		b, err = s.create(ctx, ownerID, url, body)
		if !errors.Is(err, errCodeTaken) {
			return b, err
		}
	}
	return nil, conflict("Short Code Conflict", "Could not allocate a unique short code, please retry.")
}

// create runs one attempt in its own transaction. PostgreSQL aborts a
// transaction on the first constraint violation, so a retry needs a new one.
func (s *BookmarkStore) create(ctx context.Context, ownerID int64, url, body string) (*Bookmark, error) {
	var b *Bookmark
	err := WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM bookmarks WHERE url = ?`), url); err != nil {
			return err
		}
		if n > 0 {
			return urlTaken()
		}

		code, err := s.codes.Generate(ctx, func(ctx context.Context, code string) (bool, error) {
			return codeExists(ctx, tx, code)
		})
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		id, err := insertID(ctx, tx, `
			INSERT INTO bookmarks (user_id, url, short_url, visits, body, created_at, updated_at)
			VALUES (?, ?, ?, 0, ?, ?, ?)`, ownerID, url, code, body, now, now)
		if err != nil {
			if isUniqueConstraintError(err) {
				if violatedColumn(err, "short_url") {
					return errCodeTaken
				}
				return urlTaken()
			}
			if isForeignKeyError(err) {
				return ownerNotFound(ownerID)
			}
			return fmt.Errorf("insert bookmark: %w", err)
		}

		b, err = getScoped(ctx, tx, ownerID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// List returns one page of ownerID's bookmarks in insertion order.
func (s *BookmarkStore) List(ctx context.Context, ownerID int64, page, perPage int) (*BookmarkPage, error) {
	page, perPage = normalizePage(page, perPage)

	var total int
	if err := s.db.GetContext(ctx, &total, s.q(`SELECT COUNT(*) FROM bookmarks WHERE user_id = ?`), ownerID); err != nil {
		return nil, err
	}
	meta := NewPageMeta(page, perPage, total)

	items := make([]*Bookmark, 0, perPage)
	err := s.db.SelectContext(ctx, &items, s.q(`
		SELECT `+bookmarkColumns+` FROM bookmarks
		WHERE user_id = ?
		ORDER BY id ASC
		LIMIT ? OFFSET ?`), ownerID, meta.PerPage, meta.offset())
	if err != nil {
		return nil, err
	}
	return &BookmarkPage{Items: items, Meta: meta}, nil
}

// Get returns bookmark id if ownerID owns it.
func (s *BookmarkStore) Get(ctx context.Context, ownerID, id int64) (*Bookmark, error) {
	var b Bookmark
	err := s.db.GetContext(ctx, &b, s.q(`SELECT `+bookmarkColumns+` FROM bookmarks WHERE id = ? AND user_id = ?`), id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bookmarkNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Update replaces url and body. The short code and visit counter are never
// touched. Unlike Create, the new url is not pre-checked against other
// bookmarks; only the unique index can reject it, which surfaces as a conflict.
func (s *BookmarkStore) Update(ctx context.Context, ownerID, id int64, url, body string) (*Bookmark, error) {
	var b *Bookmark
	err := WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if _, err := getScoped(ctx, tx, ownerID, id); err != nil {
			return err
		}
		if err := ValidateURL(url); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, tx.Rebind(`
			UPDATE bookmarks SET url = ?, body = ?, updated_at = ?
			WHERE id = ? AND user_id = ?`), url, body, time.Now().UTC(), id, ownerID)
		if err != nil {
			if isUniqueConstraintError(err) {
				return urlTaken()
			}
			return fmt.Errorf("update bookmark: %w", err)
		}
		b, err = getScoped(ctx, tx, ownerID, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Delete permanently removes bookmark id and returns it as it was.
func (s *BookmarkStore) Delete(ctx context.Context, ownerID, id int64) (*Bookmark, error) {
	var b *Bookmark
	err := WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		var err error
		if b, err = getScoped(ctx, tx, ownerID, id); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, tx.Rebind(`DELETE FROM bookmarks WHERE id = ? AND user_id = ?`), id, ownerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

// Stats returns id, url, short code and visits for every bookmark of ownerID.
func (s *BookmarkStore) Stats(ctx context.Context, ownerID int64) ([]BookmarkStat, error) {
	stats := []BookmarkStat{}
	err := s.db.SelectContext(ctx, &stats, s.q(`
		SELECT id, url, short_url, visits FROM bookmarks
		WHERE user_id = ?
		ORDER BY id ASC`), ownerID)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// Resolve increments the visit counter of the bookmark with short code
// code and returns its url. It is not scoped to an owner.
func (s *BookmarkStore) Resolve(ctx context.Context, code string) (string, error) {
	var url string
	err := WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		if err := incrementVisits(ctx, tx, code); err != nil {
			return err
		}
		return tx.GetContext(ctx, &url, tx.Rebind(`SELECT url FROM bookmarks WHERE short_url = ?`), code)
	})
	if err != nil {
		return "", err
	}
	return url, nil
}

// IncrementVisits adds one visit to the bookmark with short code code.
func (s *BookmarkStore) IncrementVisits(ctx context.Context, code string) error {
	return WithTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return incrementVisits(ctx, tx, code)
	})
}

// Count returns the number of bookmarks across all users.
func (s *BookmarkStore) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM bookmarks`)
	return n, err
}

// incrementVisits is a single read-modify-write statement, so concurrent
// redirects of one code never lose an update.
func incrementVisits(ctx context.Context, tx *sqlx.Tx, code string) error {
	res, err := tx.ExecContext(ctx, tx.Rebind(`UPDATE bookmarks SET visits = visits + 1 WHERE short_url = ?`), code)
	if err != nil {
		return fmt.Errorf("increment visits: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound("Not Found", fmt.Sprintf("No bookmark with short url %q.", code))
	}
	return nil
}

// codeExists runs on the creating transaction so the check and the insert
// see the same snapshot.
func codeExists(ctx context.Context, tx *sqlx.Tx, code string) (bool, error) {
	var n int
	err := tx.GetContext(ctx, &n, tx.Rebind(`SELECT COUNT(*) FROM bookmarks WHERE short_url = ?`), code)
	return n > 0, err
}

func getScoped(ctx context.Context, tx *sqlx.Tx, ownerID, id int64) (*Bookmark, error) {
	var b Bookmark
	err := tx.GetContext(ctx, &b, tx.Rebind(`SELECT `+bookmarkColumns+` FROM bookmarks WHERE id = ? AND user_id = ?`), id, ownerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, bookmarkNotFound(id)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}
