package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SrFreiRe/oPortal/config"
	"github.com/SrFreiRe/oPortal/internal/domain/entity"
	"github.com/SrFreiRe/oPortal/internal/domain/repository"
)

func newTestUserService(repo *memUserRepo) *UserService {
	return NewUserService(repo, nil, "", nil, &config.Config{}, nil)
}

func TestUpdatePreferencesMergesKeys(t *testing.T) {
	repo := newMemUserRepo()
	svc := newTestUserService(repo)
	u := mkUser(t, repo, "alice", entity.RoleUser)

	_, err := svc.UpdatePreferences(context.Background(), u.ID, map[string]any{
		"theme": "dark", "language": "en",
	})
	require.NoError(t, err)

	updated, err := svc.UpdatePreferences(context.Background(), u.ID, map[string]any{
		"theme": "light", "digest": true,
	})
	require.NoError(t, err)

	assert.Equal(t, "light", updated.Preferences["theme"])
	assert.Equal(t, "en", updated.Preferences["language"], "unmentioned keys survive")
	assert.Equal(t, true, updated.Preferences["digest"])
}

func TestUpdatePreferencesRejectsEmpty(t *testing.T) {
	repo := newMemUserRepo()
	svc := newTestUserService(repo)
	u := mkUser(t, repo, "alice", entity.RoleUser)

	_, err := svc.UpdatePreferences(context.Background(), u.ID, map[string]any{})
	assert.ErrorIs(t, err, ErrNoPreferences)
}

func TestUpdateProfileEnforcesUsernameUniqueness(t *testing.T) {
	repo := newMemUserRepo()
	svc := newTestUserService(repo)
	alice := mkUser(t, repo, "alice", entity.RoleUser)
	mkUser(t, repo, "bob", entity.RoleUser)

	_, err := svc.UpdateProfile(context.Background(), alice.ID, "bob")
	assert.ErrorIs(t, err, ErrDuplicateUsername)

	// renaming to your own current name is fine
	_, err = svc.UpdateProfile(context.Background(), alice.ID, "alice")
	assert.NoError(t, err)

	u, err := svc.UpdateProfile(context.Background(), alice.ID, "alice_2")
	require.NoError(t, err)
	assert.Equal(t, "alice_2", u.Username)
}

func TestDeactivateHidesAccountAndRevokesSessions(t *testing.T) {
	repo := newMemUserRepo()
	svc := newTestUserService(repo)
	u := mkUser(t, repo, "alice", entity.RoleUser)
	require.NoError(t, repo.UpdateRefreshTokens(context.Background(), u.ID, []string{"t1", "t2"}))

	require.NoError(t, svc.Deactivate(context.Background(), u.ID))

	_, err := svc.GetProfile(context.Background(), u.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	// the admin fetch still sees the row
	got, err := svc.GetUser(context.Background(), u.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)
	assert.Empty(t, got.RefreshTokens)

	// deactivating twice reports not found, the account is already gone
	err = svc.Deactivate(context.Background(), u.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestListFiltersAndPaginates(t *testing.T) {
	repo := newMemUserRepo()
	svc := newTestUserService(repo)
	for _, name := range []string{"alice", "bob", "carol"} {
		mkUser(t, repo, name, entity.RoleUser)
	}
	admin := mkUser(t, repo, "root", entity.RoleAdmin)
	inactive := mkUser(t, repo, "ghost", entity.RoleUser)
	require.NoError(t, svc.Deactivate(context.Background(), inactive.ID))

	users, meta, err := svc.List(context.Background(), repository.UserFilter{Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, 4, meta.Total, "inactive accounts excluded by default")
	assert.Equal(t, 2, meta.TotalPages)
	for _, u := range users {
		assert.Empty(t, u.Password)
	}

	users, meta, err = svc.List(context.Background(), repository.UserFilter{IncludeInactive: true, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, users, 5)
	assert.Equal(t, 5, meta.Total)

	users, _, err = svc.List(context.Background(), repository.UserFilter{Role: "admin", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, admin.ID, users[0].ID)
}
