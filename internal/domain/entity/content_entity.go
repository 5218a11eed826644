package entity

import "time"

// Content status values.
const (
	StatusDraft     = "draft"
	StatusPublished = "published"
	StatusArchived  = "archived"
)

// ValidStatus reports whether s is one of the known content statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusDraft, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// ContentVersion is one snapshot in the append-only version log. A snapshot
// is taken immediately before any update that changes title or body.
type ContentVersion struct {
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	UpdatedAt time.Time `json:"updatedAt"`
	UpdatedBy string    `json:"updatedBy"`
}

// Content is a versioned document owned by its author. When IsPersonalized
// is set, visibility is restricted to the author, the associated users and
// admins.
type Content struct {
	ID               string
	Title            string
	Body             string
	AuthorID         string
	AuthorUsername   string // populated on reads, never written back
	IsPersonalized   bool
	AssociatedUsers  []string
	Metadata         map[string]any
	Status           string
	Tags             []string
	Version          int
	PreviousVersions []ContentVersion
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Snapshot appends the current title/body to the version log and bumps the
// version counter. Call only when an update actually changes title or body.
func (c *Content) Snapshot(updatedBy string, at time.Time) {
	c.PreviousVersions = append(c.PreviousVersions, ContentVersion{
		Title:     c.Title,
		Body:      c.Body,
		UpdatedAt: at,
		UpdatedBy: updatedBy,
	})
	c.Version++
}

// HasAssociatedUser reports whether userID is on the allow-list.
func (c *Content) HasAssociatedUser(userID string) bool {
	for _, id := range c.AssociatedUsers {
		if id == userID {
			return true
		}
	}
	return false
}
