package api

import (
	"time"

	"github.com/shortmark/shortmark/internal/store"
)

// Envelope wraps every successful response body.
type Envelope[T any] struct {
	Data T             `json:"data"`
	Meta *PageMetaJSON `json:"meta,omitempty"`
}

// --- Auth types ---

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserResponse is the public view of a user. The password hash never leaves the store.
type UserResponse struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

type LoginResponse struct {
	User struct {
		Access   string `json:"access"`
		Refresh  string `json:"refresh"`
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
}

type RefreshResponse struct {
	Access string `json:"access"`
}

// --- Bookmark types ---

// BookmarkRequest is the body for create and update. Missing fields are empty.
type BookmarkRequest struct {
	URL  string `json:"url"`
	Body string `json:"body"`
}

type BookmarkJSON struct {
	ID        int64     `json:"id"`
	URL       string    `json:"url"`
	ShortURL  string    `json:"short_url"`
	Visits    int64     `json:"visits"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type BookmarkResponse struct {
	Bookmark BookmarkJSON `json:"bookmark"`
}

type BookmarkListResponse struct {
	Bookmarks []BookmarkJSON `json:"bookmarks"`
}

type PageMetaJSON struct {
	Page     int  `json:"page"`
	PerPage  int  `json:"per_page"`
	Pages    int  `json:"pages"`
	Total    int  `json:"total"`
	PrevPage *int `json:"prev_page"`
	NextPage *int `json:"next_page"`
	HasNext  bool `json:"has_next"`
	HasPrev  bool `json:"has_prev"`
}

type StatJSON struct {
	ID       int64  `json:"id"`
	URL      string `json:"url"`
	ShortURL string `json:"short_url"`
	Visits   int64  `json:"visits"`
}

// --- Misc ---

type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

func toUserResponse(u *store.User) UserResponse {
	return UserResponse{Username: u.Username, Email: u.Email}
}

func toBookmarkJSON(b *store.Bookmark) BookmarkJSON {
	return BookmarkJSON{
		ID:        b.ID,
		URL:       b.URL,
		ShortURL:  b.ShortURL,
		Visits:    b.Visits,
		Body:      b.Body,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

func toPageMetaJSON(m store.PageMeta) *PageMetaJSON {
	return &PageMetaJSON{
		Page:     m.Page,
		PerPage:  m.PerPage,
		Pages:    m.Pages,
		Total:    m.Total,
		PrevPage: m.PrevPage,
		NextPage: m.NextPage,
		HasNext:  m.HasNext,
		HasPrev:  m.HasPrev,
	}
}
