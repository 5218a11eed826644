package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAddRefreshTokenEvictsOldestAtBound(t *testing.T) {
	u := &User{}
	for i := 0; i < MaxRefreshTokens+2; i++ {
		u.AddRefreshToken(string(rune('a' + i)))
	}
	assert.Len(t, u.RefreshTokens, MaxRefreshTokens)
	assert.Equal(t, "c", u.RefreshTokens[0], "oldest evicted first")
	assert.True(t, u.HasRefreshToken("g"))
	assert.False(t, u.HasRefreshToken("a"))
}

func TestRemoveRefreshTokenIsIdempotent(t *testing.T) {
	u := &User{RefreshTokens: []string{"t1", "t2"}}
	u.RemoveRefreshToken("t1")
	u.RemoveRefreshToken("t1")
	assert.Equal(t, []string{"t2"}, u.RefreshTokens)
}

func TestChangedPasswordAfter(t *testing.T) {
	u := &User{}
	assert.False(t, u.ChangedPasswordAfter(time.Now()), "never changed")

	u.PasswordChangedAt = time.Now()
	assert.True(t, u.ChangedPasswordAfter(u.PasswordChangedAt.Add(-time.Second)))
	assert.False(t, u.ChangedPasswordAfter(u.PasswordChangedAt.Add(time.Second)))
}

func TestSnapshotRecordsPriorStateAndBumpsVersion(t *testing.T) {
	c := &Content{Title: "old", Body: "old body", Version: 1}
	at := time.Now()
	c.Snapshot("editor-1", at)

	assert.Equal(t, 2, c.Version)
	if assert.Len(t, c.PreviousVersions, 1) {
		v := c.PreviousVersions[0]
		assert.Equal(t, "old", v.Title)
		assert.Equal(t, "old body", v.Body)
		assert.Equal(t, "editor-1", v.UpdatedBy)
		assert.Equal(t, at, v.UpdatedAt)
	}
}
