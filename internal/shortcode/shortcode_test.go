package shortcode_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortmark/shortmark/internal/shortcode"
)

func never(context.Context, string) (bool, error) { return false, nil }

func TestRandom_ShapeAndAlphabet(t *testing.T) {
	for i := 0; i < 1000; i++ {
		code := shortcode.Random()
		require.Len(t, code, shortcode.Length)
		for _, c := range code {
			require.True(t, strings.ContainsRune(shortcode.Alphabet, c), "unexpected symbol %q in %q", c, code)
		}
		require.True(t, shortcode.Valid(code))
	}
}

func TestValid(t *testing.T) {
	assert.True(t, shortcode.Valid("aZ9"))
	assert.False(t, shortcode.Valid("ab"))
	assert.False(t, shortcode.Valid("abcd"))
	assert.False(t, shortcode.Valid("a-b"))
	assert.False(t, shortcode.Valid("ä1"))
}

func TestGenerate_SkipsTakenCodes(t *testing.T) {
	draws := []string{"aaa", "bbb", "ccc"}
	i := 0
	g := &shortcode.Generator{Draw: func() string {
		c := draws[i]
		i++
		return c
	}}
	taken := map[string]bool{"aaa": true, "bbb": true}

	code, err := g.Generate(context.Background(), func(_ context.Context, c string) (bool, error) {
		return taken[c], nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ccc", code)
	assert.Equal(t, 3, i)
}

func TestGenerate_Exhausted(t *testing.T) {
	calls := 0
	g := &shortcode.Generator{Draw: func() string { return "zzz" }, MaxAttempts: 7}

	_, err := g.Generate(context.Background(), func(context.Context, string) (bool, error) {
		calls++
		return true, nil
	})
	assert.ErrorIs(t, err, shortcode.ErrCodeSpaceExhausted)
	assert.Equal(t, 7, calls)
}

func TestGenerate_ExistsError(t *testing.T) {
	boom := errors.New("boom")
	_, err := shortcode.New().Generate(context.Background(), func(context.Context, string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestGenerate_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := shortcode.New().Generate(ctx, never)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGenerate_Defaults(t *testing.T) {
	var g shortcode.Generator
	code, err := g.Generate(context.Background(), never)
	require.NoError(t, err)
	assert.True(t, shortcode.Valid(code))
}
