package repository

import (
	"context"

	"github.com/SrFreiRe/oPortal/internal/domain/entity"
)

// ContentFilter narrows Query results. Visibility is an explicit input:
// when VisibleTo is non-empty the store layers the clause
// (is_personalized = false OR author = VisibleTo OR VisibleTo ∈ associated)
// on top of the other predicates. Admin callers leave it empty to bypass.
type ContentFilter struct {
	Status       string
	Tags         []string // set-membership OR
	Search       string   // full-text over title and body
	AuthorID     string   // restrict to a single author
	Personalized *bool
	VisibleTo    string
	Page         int
	Limit        int
}

// ContentRepository defines the store operations for content documents.
type ContentRepository interface {
	Create(ctx context.Context, c *entity.Content) error
	GetByID(ctx context.Context, id string) (*entity.Content, error)
	Update(ctx context.Context, c *entity.Content) error
	// Delete removes the row permanently; content has no soft delete.
	Delete(ctx context.Context, id string) error
	Query(ctx context.Context, f ContentFilter) ([]*entity.Content, int, error)
}
