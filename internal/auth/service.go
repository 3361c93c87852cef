// Package auth owns user identity: registration, credential checks, signed
// bearer tokens and the middleware that turns a token into a user id.
package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shortmark/shortmark/internal/store"
)

// ErrUnauthorized is returned for bad credentials and for invalid, expired
// or wrong-kind tokens. Callers never learn which one.
var ErrUnauthorized = errors.New("unauthorized")

// Credentials is the result of a successful login.
type Credentials struct {
	User    *store.User
	Access  string
	Refresh string
}

// Service implements the identity operations on top of the user store.
type Service struct {
	users  *store.UserStore
	hasher Hasher
	tokens *Tokens

	dummyOnce sync.Once
	dummyHash string
}

func NewService(users *store.UserStore, hasher Hasher, tokens *Tokens) *Service {
	return &Service{users: users, hasher: hasher, tokens: tokens}
}

// Register validates the input, hashes the password and creates the user.
// Validation order: password, username, email.
func (s *Service) Register(ctx context.Context, username, email, password string) (*store.User, error) {
	if err := store.ValidatePassword(password); err != nil {
		return nil, err
	}
	if err := store.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := store.ValidateEmail(email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	return s.users.Create(ctx, username, email, hash)
}

// Authenticate checks email and password and issues an access/refresh pair.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*Credentials, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		// Spend the same bcrypt time as a real mismatch.
		_ = s.hasher.Compare(s.dummy(), password)
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, err
	}
	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, ErrUnauthorized
	}

	access, err := s.tokens.Mint(u.ID, KindAccess)
	if err != nil {
		return nil, err
	}
	refresh, err := s.tokens.Mint(u.ID, KindRefresh)
	if err != nil {
		return nil, err
	}
	return &Credentials{User: u, Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	userID, err := s.tokens.Verify(refreshToken, KindRefresh)
	if err != nil {
		return "", err
	}
	return s.tokens.Mint(userID, KindAccess)
}

// WhoAmI returns the profile of an authenticated user.
func (s *Service) WhoAmI(ctx context.Context, userID int64) (*store.User, error) {
	u, err := s.users.GetByID(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUnauthorized
	}
	return u, err
}

// Verify lets the Service stand in wherever a Verifier is expected.
func (s *Service) Verify(token string, kind Kind) (int64, error) {
	return s.tokens.Verify(token, kind)
}

func (s *Service) dummy() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("shortmark-timing-equaliser")
	})
	return s.dummyHash
}
