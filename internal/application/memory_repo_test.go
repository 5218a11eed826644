package application

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SrFreiRe/oPortal/internal/domain/entity"
	"github.com/SrFreiRe/oPortal/internal/domain/repository"
)

// In-memory repositories used by the workflow tests. They mirror the
// Postgres implementations' contracts: active-only reads unless asked
// otherwise, ErrNotFound/ErrDuplicate sentinels, newest-first ordering.

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*entity.User)}
}

func cloneUser(u *entity.User) *entity.User {
	cp := *u
	cp.RefreshTokens = append([]string(nil), u.RefreshTokens...)
	if u.Preferences != nil {
		cp.Preferences = make(map[string]any, len(u.Preferences))
		for k, v := range u.Preferences {
			cp.Preferences[k] = v
		}
	}
	return &cp
}

func (r *memUserRepo) Create(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ex := range r.users {
		if ex.Email == u.Email || ex.Username == u.Username {
			return repository.ErrDuplicate
		}
	}
	u.ID = uuid.NewString()
	u.Active = true
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string, includeInactive bool) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok || (!includeInactive && !u.Active) {
		return nil, repository.ErrNotFound
	}
	return cloneUser(u), nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string, includeInactive bool) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			if !includeInactive && !u.Active {
				return nil, repository.ErrNotFound
			}
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) FindByEmailOrUsername(_ context.Context, email, username string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if (email != "" && u.Email == email) || (username != "" && u.Username == username) {
			return cloneUser(u), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) Update(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	u.UpdatedAt = time.Now()
	r.users[u.ID] = cloneUser(u)
	return nil
}

func (r *memUserRepo) UpdateRefreshTokens(_ context.Context, id string, tokens []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.RefreshTokens = append([]string(nil), tokens...)
	u.UpdatedAt = time.Now()
	return nil
}

func (r *memUserRepo) CountActiveByIDs(_ context.Context, ids []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, id := range ids {
		if u, ok := r.users[id]; ok && u.Active {
			n++
		}
	}
	return n, nil
}

func (r *memUserRepo) List(_ context.Context, f repository.UserFilter) ([]*entity.User, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*entity.User
	for _, u := range r.users {
		if !f.IncludeInactive && !u.Active {
			continue
		}
		if f.Role != "" && string(u.Role) != f.Role {
			continue
		}
		if f.Search != "" {
			s := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(u.Username), s) && !strings.Contains(strings.ToLower(u.Email), s) {
				continue
			}
		}
		all = append(all, cloneUser(u))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	page, limit := f.Page, f.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	start := (page - 1) * limit
	if start >= total {
		return []*entity.User{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

type memContentRepo struct {
	mu       sync.Mutex
	contents map[string]*entity.Content
	seq      int
}

func newMemContentRepo() *memContentRepo {
	return &memContentRepo{contents: make(map[string]*entity.Content)}
}

func cloneContent(c *entity.Content) *entity.Content {
	cp := *c
	cp.AssociatedUsers = append([]string(nil), c.AssociatedUsers...)
	cp.Tags = append([]string(nil), c.Tags...)
	cp.PreviousVersions = append([]entity.ContentVersion(nil), c.PreviousVersions...)
	if c.Metadata != nil {
		cp.Metadata = make(map[string]any, len(c.Metadata))
		for k, v := range c.Metadata {
			cp.Metadata[k] = v
		}
	}
	return &cp
}

func (r *memContentRepo) Create(_ context.Context, c *entity.Content) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c.ID = uuid.NewString()
	c.Version = 1
	r.seq++
	// spread creation times so newest-first ordering is deterministic
	c.CreatedAt = time.Now().Add(time.Duration(r.seq) * time.Millisecond)
	c.UpdatedAt = c.CreatedAt
	r.contents[c.ID] = cloneContent(c)
	return nil
}

func (r *memContentRepo) GetByID(_ context.Context, id string) (*entity.Content, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.contents[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return cloneContent(c), nil
}

func (r *memContentRepo) Update(_ context.Context, c *entity.Content) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contents[c.ID]; !ok {
		return repository.ErrNotFound
	}
	c.UpdatedAt = time.Now()
	r.contents[c.ID] = cloneContent(c)
	return nil
}

func (r *memContentRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.contents[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.contents, id)
	return nil
}

func (r *memContentRepo) Query(_ context.Context, f repository.ContentFilter) ([]*entity.Content, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*entity.Content
	for _, c := range r.contents {
		if f.Status != "" && c.Status != f.Status {
			continue
		}
		if f.AuthorID != "" && c.AuthorID != f.AuthorID {
			continue
		}
		if f.Personalized != nil && c.IsPersonalized != *f.Personalized {
			continue
		}
		if len(f.Tags) > 0 && !overlaps(c.Tags, f.Tags) {
			continue
		}
		if f.Search != "" {
			s := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(c.Title), s) && !strings.Contains(strings.ToLower(c.Body), s) {
				continue
			}
		}
		if f.VisibleTo != "" && c.IsPersonalized && c.AuthorID != f.VisibleTo && !c.HasAssociatedUser(f.VisibleTo) {
			continue
		}
		all = append(all, cloneContent(c))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := len(all)
	page, limit := f.Page, f.Limit
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 10
	}
	start := (page - 1) * limit
	if start >= total {
		return []*entity.Content{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
