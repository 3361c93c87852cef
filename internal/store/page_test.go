package store_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortmark/shortmark/internal/store"
)

func TestNewPageMeta(t *testing.T) {
	m := store.NewPageMeta(2, 5, 12)
	assert.Equal(t, 2, m.Page)
	assert.Equal(t, 3, m.Pages)
	assert.True(t, m.HasPrev)
	assert.True(t, m.HasNext)
	require.NotNil(t, m.PrevPage)
	require.NotNil(t, m.NextPage)
	assert.Equal(t, 1, *m.PrevPage)
	assert.Equal(t, 3, *m.NextPage)
}

func TestNewPageMeta_Empty(t *testing.T) {
	m := store.NewPageMeta(1, 5, 0)
	assert.Equal(t, 0, m.Pages)
	assert.False(t, m.HasPrev)
	assert.False(t, m.HasNext)
	assert.Nil(t, m.PrevPage)
	assert.Nil(t, m.NextPage)
}

func TestNewPageMeta_PastEnd(t *testing.T) {
	m := store.NewPageMeta(9, 5, 12)
	assert.Equal(t, 9, m.Page)
	assert.False(t, m.HasNext)
	assert.True(t, m.HasPrev)
}

func TestNewPageMeta_Defaults(t *testing.T) {
	m := store.NewPageMeta(-1, 0, 3)
	assert.Equal(t, store.DefaultPage, m.Page)
	assert.Equal(t, store.DefaultPerPage, m.PerPage)

	m = store.NewPageMeta(1, 1000, 3)
	assert.Equal(t, store.MaxPerPage, m.PerPage)
}
