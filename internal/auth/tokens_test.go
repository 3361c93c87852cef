package auth_test

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortmark/shortmark/internal/auth"
)

var testSeed = bytes.Repeat([]byte{7}, 32)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTokens(t *testing.T, c *clock) *auth.Tokens {
	t.Helper()
	tok, err := auth.NewTokens(auth.TokenOptions{Seed: testSeed, Now: c.now})
	require.NoError(t, err)
	return tok
}

func TestTokens_MintVerify(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	tok := newTokens(t, c)

	access, err := tok.Mint(42, auth.KindAccess)
	require.NoError(t, err)

	id, err := tok.Verify(access, auth.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	claims, err := tok.Parse(access)
	require.NoError(t, err)
	assert.Equal(t, auth.KindAccess, claims.Kind)
	assert.Equal(t, c.t.Unix(), claims.IssuedAt)
	assert.Equal(t, c.t.Add(auth.DefaultAccessTTL).Unix(), claims.ExpiresAt)
	assert.NotEmpty(t, claims.ID)
}

func TestTokens_UniqueIDs(t *testing.T) {
	tok := newTokens(t, &clock{t: time.Unix(1_700_000_000, 0)})
	a, err := tok.Mint(1, auth.KindAccess)
	require.NoError(t, err)
	b, err := tok.Mint(1, auth.KindAccess)
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestTokens_Expiry(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	tok := newTokens(t, c)

	access, err := tok.Mint(1, auth.KindAccess)
	require.NoError(t, err)
	refresh, err := tok.Mint(1, auth.KindRefresh)
	require.NoError(t, err)

	c.t = c.t.Add(auth.DefaultAccessTTL)
	_, err = tok.Verify(access, auth.KindAccess)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)

	_, err = tok.Verify(refresh, auth.KindRefresh)
	assert.NoError(t, err)

	c.t = c.t.Add(auth.DefaultRefreshTTL)
	_, err = tok.Verify(refresh, auth.KindRefresh)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestTokens_WrongKind(t *testing.T) {
	tok := newTokens(t, &clock{t: time.Unix(1_700_000_000, 0)})
	refresh, err := tok.Mint(1, auth.KindRefresh)
	require.NoError(t, err)

	_, err = tok.Verify(refresh, auth.KindAccess)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestTokens_Tampered(t *testing.T) {
	tok := newTokens(t, &clock{t: time.Unix(1_700_000_000, 0)})
	access, err := tok.Mint(1, auth.KindAccess)
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(access)
	require.NoError(t, err)
	raw[2] ^= 0xff
	tampered := base64.RawURLEncoding.EncodeToString(raw)

	for _, bad := range []string{tampered, "", "not-base64!!", strings.Repeat("A", 40)} {
		_, err := tok.Verify(bad, auth.KindAccess)
		assert.ErrorIs(t, err, auth.ErrUnauthorized, bad)
	}
}

func TestTokens_OtherKeyRejected(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	mine := newTokens(t, c)
	theirs, err := auth.NewTokens(auth.TokenOptions{Now: c.now})
	require.NoError(t, err)

	token, err := theirs.Mint(1, auth.KindAccess)
	require.NoError(t, err)
	_, err = mine.Verify(token, auth.KindAccess)
	assert.ErrorIs(t, err, auth.ErrUnauthorized)
}

func TestTokens_SameSeedSameKey(t *testing.T) {
	c := &clock{t: time.Unix(1_700_000_000, 0)}
	a := newTokens(t, c)
	b := newTokens(t, c)

	token, err := a.Mint(9, auth.KindAccess)
	require.NoError(t, err)
	id, err := b.Verify(token, auth.KindAccess)
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)
}

func TestParseSeed(t *testing.T) {
	seed, err := auth.ParseSeed(strings.Repeat("ab", 32))
	require.NoError(t, err)
	assert.Len(t, seed, 32)

	seed, err = auth.ParseSeed("")
	require.NoError(t, err)
	assert.Nil(t, seed)

	_, err = auth.ParseSeed("zz")
	assert.Error(t, err)
	_, err = auth.ParseSeed("abcd")
	assert.Error(t, err)

	_, err = auth.NewTokens(auth.TokenOptions{Seed: []byte{1, 2, 3}})
	assert.Error(t, err)
}
