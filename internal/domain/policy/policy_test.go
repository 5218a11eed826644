package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/SrFreiRe/oPortal/internal/domain/entity"
)

var (
	author   = &entity.User{ID: "a", Role: entity.RoleUser}
	friend   = &entity.User{ID: "f", Role: entity.RoleUser}
	outsider = &entity.User{ID: "o", Role: entity.RoleUser}
	editor   = &entity.User{ID: "e", Role: entity.RoleEditor}
	admin    = &entity.User{ID: "x", Role: entity.RoleAdmin}
)

func personalized() *entity.Content {
	return &entity.Content{ID: "c", AuthorID: "a", IsPersonalized: true, AssociatedUsers: []string{"f"}}
}

func public() *entity.Content {
	return &entity.Content{ID: "c", AuthorID: "a"}
}

func TestCanReadContent(t *testing.T) {
	cases := []struct {
		name    string
		actor   *entity.User
		content *entity.Content
		want    bool
	}{
		{"public to anyone", outsider, public(), true},
		{"personalized to author", author, personalized(), true},
		{"personalized to associated", friend, personalized(), true},
		{"personalized to admin", admin, personalized(), true},
		{"personalized denied to outsider", outsider, personalized(), false},
		{"personalized denied to editor", editor, personalized(), false},
		{"nil actor denied", nil, public(), false},
		{"nil content denied", admin, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanReadContent(tc.actor, tc.content))
		})
	}
}

func TestCanWriteContent(t *testing.T) {
	assert.True(t, CanWriteContent(author, public()))
	assert.True(t, CanWriteContent(editor, public()))
	assert.True(t, CanWriteContent(admin, public()))
	assert.False(t, CanWriteContent(outsider, public()))
	assert.False(t, CanWriteContent(friend, personalized()), "read access does not imply write")
}

func TestCanDeleteContentExcludesEditors(t *testing.T) {
	assert.True(t, CanDeleteContent(author, public()))
	assert.True(t, CanDeleteContent(admin, public()))
	assert.False(t, CanDeleteContent(editor, public()))
	assert.False(t, CanDeleteContent(outsider, public()))
}

func TestCanChangePersonalization(t *testing.T) {
	assert.True(t, CanChangePersonalization(admin))
	assert.False(t, CanChangePersonalization(author))
	assert.False(t, CanChangePersonalization(editor))
	assert.False(t, CanChangePersonalization(nil))
}

func TestCanManageUser(t *testing.T) {
	assert.True(t, CanManageUser(author, "a"))
	assert.True(t, CanManageUser(admin, "a"))
	assert.False(t, CanManageUser(author, "f"))
	assert.False(t, CanManageUser(author, ""))
}
