package auth

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// Kind separates short-lived access tokens from refresh tokens. A token of
// one kind is never accepted where the other is expected.
type Kind string

const (
	KindAccess  Kind = "access"
	KindRefresh Kind = "refresh"
)

const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 30 * 24 * time.Hour
)

// Claims is the signed payload of a token.
type Claims struct {
	Subject   int64  `cbor:"1,keyasint"`
	Kind      Kind   `cbor:"2,keyasint"`
	ID        string `cbor:"3,keyasint"`
	IssuedAt  int64  `cbor:"4,keyasint"`
	ExpiresAt int64  `cbor:"5,keyasint"`
}

// Verifier resolves a bearer token to the user id it was issued for.
type Verifier interface {
	Verify(token string, kind Kind) (int64, error)
}

var (
	errMalformedToken   = fmt.Errorf("%w: malformed token", ErrUnauthorized)
	errInvalidSignature = fmt.Errorf("%w: invalid token signature", ErrUnauthorized)
	errTokenExpired     = fmt.Errorf("%w: token expired", ErrUnauthorized)
	errWrongKind        = fmt.Errorf("%w: wrong token kind", ErrUnauthorized)
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error
	// Core deterministic encoding: same claims, same bytes.
	if encMode, err = cbor.CoreDetEncOptions().EncMode(); err != nil {
		panic("auth: CBOR encoder initialization failed: " + err.Error())
	}
	if decMode, err = (cbor.DecOptions{}).DecMode(); err != nil {
		panic("auth: CBOR decoder initialization failed: " + err.Error())
	}
}

// Tokens mints and verifies tokens: base64url(CBOR claims || Ed25519 signature).
type Tokens struct {
	priv       ed25519.PrivateKey
	pub        ed25519.PublicKey
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// TokenOptions configures NewTokens. Zero TTLs take the defaults.
type TokenOptions struct {
	// Seed is an ed25519.SeedSize private key seed. When empty a random
	// key is generated and tokens do not survive a restart.
	Seed       []byte
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Now overrides the clock. Used by tests.
	Now func() time.Time
}

// ParseSeed decodes a hex-encoded 32-byte key seed. An empty string yields nil.
func ParseSeed(s string) ([]byte, error) {
	if s == "" {
		return nil, nil
	}
	seed, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode token seed: %w", err)
	}
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("token seed must be %d bytes, got %d", ed25519.SeedSize, len(seed))
	}
	return seed, nil
}

func NewTokens(opts TokenOptions) (*Tokens, error) {
	var priv ed25519.PrivateKey
	switch len(opts.Seed) {
	case 0:
		var err error
		if _, priv, err = ed25519.GenerateKey(rand.Reader); err != nil {
			return nil, fmt.Errorf("generate signing key: %w", err)
		}
	case ed25519.SeedSize:
		priv = ed25519.NewKeyFromSeed(opts.Seed)
	default:
		return nil, fmt.Errorf("token seed must be %d bytes, got %d", ed25519.SeedSize, len(opts.Seed))
	}

	t := &Tokens{
		priv:       priv,
		pub:        priv.Public().(ed25519.PublicKey),
		accessTTL:  opts.AccessTTL,
		refreshTTL: opts.RefreshTTL,
		now:        opts.Now,
	}
	if t.accessTTL <= 0 {
		t.accessTTL = DefaultAccessTTL
	}
	if t.refreshTTL <= 0 {
		t.refreshTTL = DefaultRefreshTTL
	}
	if t.now == nil {
		t.now = time.Now
	}
	return t, nil
}

// Mint issues a token of the given kind for userID.
func (t *Tokens) Mint(userID int64, kind Kind) (string, error) {
	ttl := t.accessTTL
	if kind == KindRefresh {
		ttl = t.refreshTTL
	}
	now := t.now()
	claims := Claims{
		Subject:   userID,
		Kind:      kind,
		ID:        uuid.NewString(),
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(ttl).Unix(),
	}
	payload, err := encMode.Marshal(&claims)
	if err != nil {
		return "", fmt.Errorf("encode token claims: %w", err)
	}

	raw := make([]byte, len(payload)+ed25519.SignatureSize)
	copy(raw, payload)
	copy(raw[len(payload):], ed25519.Sign(t.priv, payload))
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

// Verify checks signature, expiry and kind and returns the subject.
// Every failure wraps ErrUnauthorized.
func (t *Tokens) Verify(token string, kind Kind) (int64, error) {
	c, err := t.Parse(token)
	if err != nil {
		return 0, err
	}
	if c.Kind != kind {
		return 0, errWrongKind
	}
	return c.Subject, nil
}

// Parse checks signature and expiry and returns the claims of any kind.
func (t *Tokens) Parse(token string) (*Claims, error) {
	raw, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil || len(raw) <= ed25519.SignatureSize {
		return nil, errMalformedToken
	}
	split := len(raw) - ed25519.SignatureSize
	payload, sig := raw[:split], raw[split:]
	if !ed25519.Verify(t.pub, payload, sig) {
		return nil, errInvalidSignature
	}

	var c Claims
	if err := decMode.Unmarshal(payload, &c); err != nil {
		return nil, errors.Join(errMalformedToken, err)
	}
	if t.now().Unix() >= c.ExpiresAt {
		return nil, errTokenExpired
	}
	return &c, nil
}
