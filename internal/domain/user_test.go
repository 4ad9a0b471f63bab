package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUser_Identity(t *testing.T) {
	user := &User{
		Record:        Record{ID: "usr-1"},
		Username:      "mluukkai",
		FavoriteGenre: "refactoring",
		PasswordHash:  "$argon2id$...",
	}

	assert.Equal(t, Identity{ID: "usr-1", Username: "mluukkai"}, user.Identity())
}

func TestRecord_Timestamps(t *testing.T) {
	var r Record
	r.InitTimestamps()

	assert.False(t, r.CreatedAt.IsZero())
	assert.Equal(t, r.CreatedAt, r.UpdatedAt)

	r.Touch()
	assert.False(t, r.UpdatedAt.Before(r.CreatedAt))
}
