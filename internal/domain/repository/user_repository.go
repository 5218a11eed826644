package repository

import (
	"context"
	"errors"

	"github.com/SrFreiRe/oPortal/internal/domain/entity"
)

// ErrNotFound is returned by repositories when a row does not exist or is
// filtered out by the active-only predicate.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique constraint (email, username) is hit.
var ErrDuplicate = errors.New("duplicate value")

// UserFilter narrows List results.
type UserFilter struct {
	Search          string // matches username or email, case-insensitive
	Role            string
	IncludeInactive bool
	Page            int
	Limit           int
}

// UserRepository defines the store operations for user documents.
// Deactivated accounts are excluded from every read unless the caller
// passes includeInactive explicitly; there is no implicit filter anywhere
// else, so administrative paths opt in deliberately.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string, includeInactive bool) (*entity.User, error)
	// GetByEmail returns the user with the password hash populated; callers
	// strip it before the entity leaves the workflow.
	GetByEmail(ctx context.Context, email string, includeInactive bool) (*entity.User, error)
	// FindByEmailOrUsername backs the combined duplicate check at
	// registration time with a single query.
	FindByEmailOrUsername(ctx context.Context, email, username string) (*entity.User, error)
	Update(ctx context.Context, u *entity.User) error
	// UpdateRefreshTokens persists only the outstanding token set, the one
	// field touched by rotation, reuse detection and logout.
	UpdateRefreshTokens(ctx context.Context, id string, tokens []string) error
	// CountActiveByIDs reports how many of the given ids belong to active
	// users; used for the associated-users count-match validation.
	CountActiveByIDs(ctx context.Context, ids []string) (int, error)
	List(ctx context.Context, f UserFilter) ([]*entity.User, int, error)
}
