package application

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SrFreiRe/oPortal/internal/domain/entity"
)

func newTestContentService(users *memUserRepo) (*ContentService, *memContentRepo) {
	contents := newMemContentRepo()
	return NewContentService(contents, users, nil, "", nil), contents
}

func mkUser(t *testing.T, repo *memUserRepo, name string, role entity.Role) *entity.User {
	t.Helper()
	u := &entity.User{
		Username: name,
		Email:    name + "@example.com",
		Password: "irrelevant",
		Role:     role,
	}
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

func strp(s string) *string { return &s }
func boolp(b bool) *bool    { return &b }

func TestCreateValidatesAssociatedUsers(t *testing.T) {
	users := newMemUserRepo()
	svc, _ := newTestContentService(users)
	author := mkUser(t, users, "author", entity.RoleUser)
	friend := mkUser(t, users, "friend", entity.RoleUser)

	_, err := svc.Create(context.Background(), CreateContentInput{
		Title:           "note",
		Body:            "body",
		IsPersonalized:  true,
		AssociatedUsers: []string{friend.ID, "00000000-0000-0000-0000-000000000000"},
	}, author)
	assert.ErrorIs(t, err, ErrInvalidAssociatedUsers)

	c, err := svc.Create(context.Background(), CreateContentInput{
		Title:           "note",
		Body:            "body",
		IsPersonalized:  true,
		AssociatedUsers: []string{friend.ID},
	}, author)
	require.NoError(t, err)
	assert.Equal(t, author.ID, c.AuthorID)
	assert.Equal(t, entity.StatusDraft, c.Status)
	assert.Equal(t, 1, c.Version)
}

func TestUpdateVersionsOnlyOnTitleOrBodyChange(t *testing.T) {
	users := newMemUserRepo()
	svc, _ := newTestContentService(users)
	author := mkUser(t, users, "author", entity.RoleUser)

	c, err := svc.Create(context.Background(), CreateContentInput{Title: "v1 title", Body: "v1 body"}, author)
	require.NoError(t, err)

	// metadata-only update leaves the version log alone
	c, err = svc.Update(context.Background(), c.ID, UpdateContentInput{
		Metadata: map[string]any{"reviewed": true},
	}, author)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Version)
	assert.Empty(t, c.PreviousVersions)

	// resending the identical title is not a change
	c, err = svc.Update(context.Background(), c.ID, UpdateContentInput{Title: strp("v1 title")}, author)
	require.NoError(t, err)
	assert.Equal(t, 1, c.Version)

	c, err = svc.Update(context.Background(), c.ID, UpdateContentInput{Title: strp("v2 title")}, author)
	require.NoError(t, err)
	assert.Equal(t, 2, c.Version)
	require.Len(t, c.PreviousVersions, 1)
	assert.Equal(t, "v1 title", c.PreviousVersions[0].Title)
	assert.Equal(t, "v1 body", c.PreviousVersions[0].Body)
	assert.Equal(t, author.ID, c.PreviousVersions[0].UpdatedBy)

	// one snapshot per update even when both fields change
	c, err = svc.Update(context.Background(), c.ID, UpdateContentInput{
		Title: strp("v3 title"), Body: strp("v3 body"),
	}, author)
	require.NoError(t, err)
	assert.Equal(t, 3, c.Version)
	assert.Len(t, c.PreviousVersions, 2)
}

func TestPersonalizedContentVisibility(t *testing.T) {
	users := newMemUserRepo()
	svc, _ := newTestContentService(users)
	author := mkUser(t, users, "author", entity.RoleUser)
	friend := mkUser(t, users, "friend", entity.RoleUser)
	outsider := mkUser(t, users, "outsider", entity.RoleUser)
	admin := mkUser(t, users, "admin", entity.RoleAdmin)

	c, err := svc.Create(context.Background(), CreateContentInput{
		Title:           "private",
		Body:            "body",
		IsPersonalized:  true,
		AssociatedUsers: []string{friend.ID},
	}, author)
	require.NoError(t, err)

	for _, actor := range []*entity.User{author, friend, admin} {
		_, err := svc.GetByID(context.Background(), c.ID, actor)
		assert.NoError(t, err, actor.Username)
	}
	_, err = svc.GetByID(context.Background(), c.ID, outsider)
	assert.ErrorIs(t, err, ErrReadForbidden)

	pub, err := svc.Create(context.Background(), CreateContentInput{Title: "public", Body: "body"}, author)
	require.NoError(t, err)
	_, err = svc.GetByID(context.Background(), pub.ID, outsider)
	assert.NoError(t, err)
}

func TestQueryAppliesVisibilityExceptForAdmins(t *testing.T) {
	users := newMemUserRepo()
	svc, _ := newTestContentService(users)
	author := mkUser(t, users, "author", entity.RoleUser)
	friend := mkUser(t, users, "friend", entity.RoleUser)
	outsider := mkUser(t, users, "outsider", entity.RoleUser)
	admin := mkUser(t, users, "admin", entity.RoleAdmin)

	_, err := svc.Create(context.Background(), CreateContentInput{Title: "public", Body: "b"}, author)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreateContentInput{
		Title: "private", Body: "b", IsPersonalized: true, AssociatedUsers: []string{friend.ID},
	}, author)
	require.NoError(t, err)

	cases := []struct {
		actor *entity.User
		want  int
	}{
		{author, 2},
		{friend, 2},
		{outsider, 1},
		{admin, 2},
	}
	for _, tc := range cases {
		got, meta, err := svc.Query(context.Background(), ContentQuery{}, tc.actor)
		require.NoError(t, err, tc.actor.Username)
		assert.Len(t, got, tc.want, tc.actor.Username)
		assert.Equal(t, tc.want, meta.Total, tc.actor.Username)
	}
}

func TestQueryPagination(t *testing.T) {
	users := newMemUserRepo()
	svc, _ := newTestContentService(users)
	author := mkUser(t, users, "author", entity.RoleUser)

	for i := 0; i < 25; i++ {
		_, err := svc.Create(context.Background(), CreateContentInput{
			Title: fmt.Sprintf("doc %02d", i), Body: "b",
		}, author)
		require.NoError(t, err)
	}

	got, meta, err := svc.Query(context.Background(), ContentQuery{Page: 3, Limit: 10}, author)
	require.NoError(t, err)
	assert.Len(t, got, 5)
	assert.Equal(t, 25, meta.Total)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, 3, meta.Page)

	// newest first
	first, _, err := svc.Query(context.Background(), ContentQuery{Page: 1, Limit: 1}, author)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "doc 24", first[0].Title)
}

func TestUpdateAndDeletePermissions(t *testing.T) {
	users := newMemUserRepo()
	svc, _ := newTestContentService(users)
	author := mkUser(t, users, "author", entity.RoleUser)
	editor := mkUser(t, users, "editor", entity.RoleEditor)
	outsider := mkUser(t, users, "outsider", entity.RoleUser)
	admin := mkUser(t, users, "admin", entity.RoleAdmin)

	c, err := svc.Create(context.Background(), CreateContentInput{Title: "doc", Body: "b"}, author)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), c.ID, UpdateContentInput{Body: strp("new")}, outsider)
	assert.ErrorIs(t, err, ErrWriteForbidden)

	// editors may revise anyone's content but never remove it
	_, err = svc.Update(context.Background(), c.ID, UpdateContentInput{Body: strp("edited")}, editor)
	assert.NoError(t, err)
	err = svc.Delete(context.Background(), c.ID, editor)
	assert.ErrorIs(t, err, ErrDeleteForbidden)

	err = svc.Delete(context.Background(), c.ID, author)
	assert.NoError(t, err)
	err = svc.Delete(context.Background(), c.ID, author)
	assert.ErrorIs(t, err, ErrContentNotFound)

	c2, err := svc.Create(context.Background(), CreateContentInput{Title: "doc2", Body: "b"}, author)
	require.NoError(t, err)
	assert.NoError(t, svc.Delete(context.Background(), c2.ID, admin))
}

func TestPersonalizationChangesRequireAdmin(t *testing.T) {
	users := newMemUserRepo()
	svc, _ := newTestContentService(users)
	author := mkUser(t, users, "author", entity.RoleUser)
	admin := mkUser(t, users, "admin", entity.RoleAdmin)

	c, err := svc.Create(context.Background(), CreateContentInput{Title: "doc", Body: "b"}, author)
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), c.ID, UpdateContentInput{IsPersonalized: boolp(true)}, author)
	assert.ErrorIs(t, err, ErrPersonalizationForbidden)

	// resubmitting the current value is not a personalization change
	_, err = svc.Update(context.Background(), c.ID, UpdateContentInput{IsPersonalized: boolp(false)}, author)
	assert.NoError(t, err)

	updated, err := svc.Update(context.Background(), c.ID, UpdateContentInput{
		IsPersonalized: boolp(true), AssociatedUsers: []string{admin.ID},
	}, admin)
	require.NoError(t, err)
	assert.True(t, updated.IsPersonalized)
}

func TestQueryByAuthorAccess(t *testing.T) {
	users := newMemUserRepo()
	svc, _ := newTestContentService(users)
	author := mkUser(t, users, "author", entity.RoleUser)
	other := mkUser(t, users, "other", entity.RoleUser)
	admin := mkUser(t, users, "admin", entity.RoleAdmin)

	_, err := svc.Create(context.Background(), CreateContentInput{Title: "doc", Body: "b"}, author)
	require.NoError(t, err)

	// "me" resolves to the caller
	got, _, err := svc.QueryByAuthor(context.Background(), "me", ContentQuery{}, author)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, _, err = svc.QueryByAuthor(context.Background(), author.ID, ContentQuery{}, other)
	assert.ErrorIs(t, err, ErrContentForbidden)

	got, _, err = svc.QueryByAuthor(context.Background(), author.ID, ContentQuery{}, admin)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	_, _, err = svc.QueryByAuthor(context.Background(), "11111111-1111-1111-1111-111111111111", ContentQuery{}, admin)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestNormalizeSearchSize(t *testing.T) {
	assert.Equal(t, 10, normalizeSearchSize(0))
	assert.Equal(t, 10, normalizeSearchSize(-3))
	assert.Equal(t, 25, normalizeSearchSize(25))
	assert.Equal(t, 50, normalizeSearchSize(50))
	// oversized requests clamp to the cap rather than resetting to the default
	assert.Equal(t, 50, normalizeSearchSize(500))
}
