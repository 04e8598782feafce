package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
	}{
		{0, 0, 1, DefaultPageSize},
		{-3, 5, 1, 5},
		{2, 1000, 2, MaxPageSize},
		{4, 25, 4, 25},
		{math.MaxInt, 100, MaxPage, 100},
	}
	for _, tt := range tests {
		p, l := NormalizePage(tt.page, tt.limit)
		assert.Equal(t, tt.wantPage, p)
		assert.Equal(t, tt.wantLimit, l)
		assert.GreaterOrEqual(t, Offset(p, l), 0)
	}
}

func TestNewPage(t *testing.T) {
	p := NewPage([]int{1, 2, 3}, 23, 2, 10)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNextPage)
	assert.True(t, p.HasPrevPage)
	assert.Equal(t, 10, Offset(2, 10))

	last := NewPage([]int{21, 22, 23}, 23, 3, 10)
	assert.False(t, last.HasNextPage)

	empty := NewPage[int](nil, 0, 1, 10)
	assert.NotNil(t, empty.Docs, "docs must encode as [] not null")
	assert.Equal(t, 0, empty.TotalPages)
	assert.False(t, empty.HasNextPage)
	assert.False(t, empty.HasPrevPage)
}

func TestUserSanitized(t *testing.T) {
	u := &User{ID: "1", Username: "jane", PasswordHash: "h", RefreshToken: "r", AvatarKey: "k"}
	s := u.Sanitized()

	assert.Empty(t, s.PasswordHash)
	assert.Empty(t, s.RefreshToken)
	assert.Empty(t, s.AvatarKey)
	assert.Equal(t, "h", u.PasswordHash, "original must be untouched")
	assert.Nil(t, (*User)(nil).Sanitized())
}
