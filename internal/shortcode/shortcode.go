// Package shortcode generates the 3-character codes that identify bookmarks
// on the public redirect path.
package shortcode

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
)

const (
	// Alphabet is digits followed by lower and upper case ASCII letters.
	Alphabet = "0123456789abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

	// Length is the number of symbols in a code: 62^3 = 238,328 codes.
	Length = 3

	// DefaultMaxAttempts bounds the draw-and-check loop.
	DefaultMaxAttempts = 5000
)

// ErrCodeSpaceExhausted is returned when no free code was found within the
// attempt budget. It signals that the code space is (nearly) full.
var ErrCodeSpaceExhausted = errors.New("short code space exhausted")

// ExistsFunc reports whether code is already assigned to a bookmark.
type ExistsFunc func(ctx context.Context, code string) (bool, error)

// Generator draws random codes until one is free.
type Generator struct {
	// Draw returns a candidate code. Defaults to Random.
	Draw func() string
	// MaxAttempts defaults to DefaultMaxAttempts when <= 0.
	MaxAttempts int
}

// New returns a Generator using Random and DefaultMaxAttempts.
func New() *Generator {
	return &Generator{Draw: Random, MaxAttempts: DefaultMaxAttempts}
}

// Generate returns a code for which exists reports false. It stops early
// if ctx is cancelled or exists fails. The caller still has to insert the
// code under a unique index: another writer may claim it in between.
func (g *Generator) Generate(ctx context.Context, exists ExistsFunc) (string, error) {
	draw := g.Draw
	if draw == nil {
		draw = Random
	}
	max := g.MaxAttempts
	if max <= 0 {
		max = DefaultMaxAttempts
	}

	for attempt := 0; attempt < max; attempt++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		code := draw()
		taken, err := exists(ctx, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCodeSpaceExhausted
}

var alphabetSize = big.NewInt(int64(len(Alphabet)))

// Random returns a code of Length symbols drawn uniformly from Alphabet.
func Random() string {
	b := make([]byte, Length)
	for i := range b {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			// crypto/rand.Reader does not fail on supported platforms.
			panic("shortcode: reading random source: " + err.Error())
		}
		b[i] = Alphabet[n.Int64()]
	}
	return string(b)
}

// Valid reports whether code has the shape of a generated code.
func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z') {
			return false
		}
	}
	return true
}
