// Package policy holds the pure access-control decision functions used by
// the content and user workflows. Every rule denies by default; callers
// surface a denial as 403, never as a silent filter.
package policy

import "github.com/SrFreiRe/oPortal/internal/domain/entity"

// CanReadContent allows reading non-personalized content to everyone and
// personalized content to the author, the allow-listed users and admins.
func CanReadContent(actor *entity.User, c *entity.Content) bool {
	if actor == nil || c == nil {
		return false
	}
	if !c.IsPersonalized {
		return true
	}
	if c.AuthorID == actor.ID {
		return true
	}
	if c.HasAssociatedUser(actor.ID) {
		return true
	}
	return actor.Role == entity.RoleAdmin
}

// CanWriteContent allows updates to the author, editors and admins.
// Changing personalization fields additionally requires
// CanChangePersonalization.
func CanWriteContent(actor *entity.User, c *entity.Content) bool {
	if actor == nil || c == nil {
		return false
	}
	if c.AuthorID == actor.ID {
		return true
	}
	return actor.Role == entity.RoleAdmin || actor.Role == entity.RoleEditor
}

// CanChangePersonalization gates changes to IsPersonalized and the
// associated-users allow-list.
func CanChangePersonalization(actor *entity.User) bool {
	return actor != nil && actor.Role == entity.RoleAdmin
}

// CanDeleteContent allows deletion to the author and admins only; editors
// are deliberately excluded.
func CanDeleteContent(actor *entity.User, c *entity.Content) bool {
	if actor == nil || c == nil {
		return false
	}
	return c.AuthorID == actor.ID || actor.Role == entity.RoleAdmin
}

// CanManageUser allows a user to manage their own account and admins to
// manage anyone.
func CanManageUser(actor *entity.User, targetID string) bool {
	if actor == nil || targetID == "" {
		return false
	}
	return actor.ID == targetID || actor.Role == entity.RoleAdmin
}
