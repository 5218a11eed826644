package application

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/SrFreiRe/oPortal/internal/domain/entity"
	"github.com/SrFreiRe/oPortal/internal/domain/policy"
	"github.com/SrFreiRe/oPortal/internal/domain/repository"
	"github.com/SrFreiRe/oPortal/pkg/apperr"
)

var (
	ErrContentNotFound          = apperr.NotFound("content not found")
	ErrReadForbidden            = apperr.Forbidden("you do not have permission to access this content")
	ErrWriteForbidden           = apperr.Forbidden("you do not have permission to update this content")
	ErrDeleteForbidden          = apperr.Forbidden("you do not have permission to delete this content")
	ErrPersonalizationForbidden = apperr.Forbidden("you do not have permission to change content personalization")
	ErrContentForbidden         = apperr.Forbidden("you do not have permission to view this user's content")
	ErrInvalidAssociatedUsers   = apperr.Validation("one or more associated users do not exist")
)

// ContentService implements the versioned, policy-gated content store.
type ContentService struct {
	Contents repository.ContentRepository
	Users    repository.UserRepository
	ES       *elasticsearch.Client
	ESIndex  string
	Logger   *logrus.Logger
}

func NewContentService(contents repository.ContentRepository, users repository.UserRepository, es *elasticsearch.Client, esIndex string, logger *logrus.Logger) *ContentService {
	return &ContentService{Contents: contents, Users: users, ES: es, ESIndex: esIndex, Logger: logger}
}

type CreateContentInput struct {
	Title           string
	Body            string
	IsPersonalized  bool
	AssociatedUsers []string
	Status          string
	Tags            []string
	Metadata        map[string]any
}

func (s *ContentService) Create(ctx context.Context, in CreateContentInput, actor *entity.User) (*entity.Content, error) {
	associated := dedupe(in.AssociatedUsers)
	if in.IsPersonalized && len(associated) > 0 {
		if err := s.validateAssociatedUsers(ctx, associated); err != nil {
			return nil, err
		}
	}
	status := in.Status
	if status == "" {
		status = entity.StatusDraft
	}
	c := &entity.Content{
		Title:           in.Title,
		Body:            in.Body,
		AuthorID:        actor.ID,
		AuthorUsername:  actor.Username,
		IsPersonalized:  in.IsPersonalized,
		AssociatedUsers: associated,
		Metadata:        in.Metadata,
		Status:          status,
		Tags:            in.Tags,
	}
	if err := s.Contents.Create(ctx, c); err != nil {
		return nil, err
	}
	s.indexContent(ctx, c)
	return c, nil
}

func (s *ContentService) GetByID(ctx context.Context, id string, actor *entity.User) (*entity.Content, error) {
	c, err := s.Contents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, err
	}
	if !policy.CanReadContent(actor, c) {
		return nil, ErrReadForbidden
	}
	return c, nil
}

// UpdateContentInput uses pointers to distinguish "absent" from zero
// values; a metadata-only update must not touch the version log.
type UpdateContentInput struct {
	Title           *string
	Body            *string
	Status          *string
	Tags            []string
	Metadata        map[string]any
	IsPersonalized  *bool
	AssociatedUsers []string
}

func (s *ContentService) Update(ctx context.Context, id string, in UpdateContentInput, actor *entity.User) (*entity.Content, error) {
	c, err := s.Contents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrContentNotFound
		}
		return nil, err
	}
	if !policy.CanWriteContent(actor, c) {
		return nil, ErrWriteForbidden
	}

	personalizationChanged := (in.IsPersonalized != nil && *in.IsPersonalized != c.IsPersonalized) ||
		(in.AssociatedUsers != nil && !sameStringSet(in.AssociatedUsers, c.AssociatedUsers))
	if personalizationChanged && !policy.CanChangePersonalization(actor) {
		return nil, ErrPersonalizationForbidden
	}

	// Snapshot before the write, and only when title or body actually
	// change; the version counter moves exactly once per such update.
	titleChanged := in.Title != nil && *in.Title != c.Title
	bodyChanged := in.Body != nil && *in.Body != c.Body
	if titleChanged || bodyChanged {
		c.Snapshot(actor.ID, time.Now())
	}

	if in.Title != nil {
		c.Title = *in.Title
	}
	if in.Body != nil {
		c.Body = *in.Body
	}
	if in.Status != nil {
		c.Status = *in.Status
	}
	if in.Tags != nil {
		c.Tags = in.Tags
	}
	if in.Metadata != nil {
		c.Metadata = in.Metadata
	}
	if in.IsPersonalized != nil {
		c.IsPersonalized = *in.IsPersonalized
	}
	if in.AssociatedUsers != nil {
		c.AssociatedUsers = dedupe(in.AssociatedUsers)
	}

	if c.IsPersonalized && len(c.AssociatedUsers) > 0 && in.AssociatedUsers != nil {
		if err := s.validateAssociatedUsers(ctx, c.AssociatedUsers); err != nil {
			return nil, err
		}
	}

	if err := s.Contents.Update(ctx, c); err != nil {
		return nil, err
	}
	s.indexContent(ctx, c)
	return c, nil
}

func (s *ContentService) Delete(ctx context.Context, id string, actor *entity.User) error {
	c, err := s.Contents.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrContentNotFound
		}
		return err
	}
	if !policy.CanDeleteContent(actor, c) {
		return ErrDeleteForbidden
	}
	if err := s.Contents.Delete(ctx, id); err != nil {
		return err
	}
	s.removeFromIndex(ctx, id)
	return nil
}

type ContentQuery struct {
	Status       string
	Tags         []string
	Search       string
	Personalized *bool
	Page         int
	Limit        int
}

// Query lists content visible to the actor. Admins bypass the visibility
// clause, matching single-record access.
func (s *ContentService) Query(ctx context.Context, q ContentQuery, actor *entity.User) ([]*entity.Content, PageMeta, error) {
	f := repository.ContentFilter{
		Status:       q.Status,
		Tags:         q.Tags,
		Search:       q.Search,
		Personalized: q.Personalized,
		Page:         normalizePage(q.Page),
		Limit:        normalizeLimit(q.Limit),
	}
	if actor.Role != entity.RoleAdmin {
		f.VisibleTo = actor.ID
	}
	contents, total, err := s.Contents.Query(ctx, f)
	if err != nil {
		return nil, PageMeta{}, err
	}
	return contents, NewPageMeta(len(contents), total, f.Page, f.Limit), nil
}

// QueryByAuthor lists one user's content. "me" resolves to the actor;
// anyone else's content requires admin.
func (s *ContentService) QueryByAuthor(ctx context.Context, authorID string, q ContentQuery, actor *entity.User) ([]*entity.Content, PageMeta, error) {
	if authorID == "" || authorID == "me" {
		authorID = actor.ID
	}
	if authorID != actor.ID {
		if !policy.CanManageUser(actor, authorID) {
			return nil, PageMeta{}, ErrContentForbidden
		}
		if _, err := s.Users.GetByID(ctx, authorID, false); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, PageMeta{}, ErrUserNotFound
			}
			return nil, PageMeta{}, err
		}
	}
	f := repository.ContentFilter{
		Status:   q.Status,
		Tags:     q.Tags,
		Search:   q.Search,
		AuthorID: authorID,
		Page:     normalizePage(q.Page),
		Limit:    normalizeLimit(q.Limit),
	}
	contents, total, err := s.Contents.Query(ctx, f)
	if err != nil {
		return nil, PageMeta{}, err
	}
	return contents, NewPageMeta(len(contents), total, f.Page, f.Limit), nil
}

// validateAssociatedUsers is the count-match check: every referenced user
// must exist and be active.
func (s *ContentService) validateAssociatedUsers(ctx context.Context, ids []string) error {
	n, err := s.Users.CountActiveByIDs(ctx, ids)
	if err != nil {
		return err
	}
	if n != len(ids) {
		return ErrInvalidAssociatedUsers
	}
	return nil
}

func (s *ContentService) indexContent(ctx context.Context, c *entity.Content) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	doc := map[string]any{
		"id":              c.ID,
		"title":           c.Title,
		"body":            c.Body,
		"author_id":       c.AuthorID,
		"author":          c.AuthorUsername,
		"status":          c.Status,
		"tags":            c.Tags,
		"is_personalized": c.IsPersonalized,
		"created_at":      c.CreatedAt.Format(time.RFC3339Nano),
		"updated_at":      c.UpdatedAt.Format(time.RFC3339Nano),
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESIndex, DocumentID: c.ID, Body: strings.NewReader(string(b)), Refresh: "false"}
	ec, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(ec, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("content_id", c.ID).Warn("es index failed")
		}
		return
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("content_id", c.ID).Warn("es index response error")
	}
}

func (s *ContentService) removeFromIndex(ctx context.Context, id string) {
	if s.ES == nil || s.ESIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESIndex, DocumentID: id}
	ec, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(ec, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("content_id", id).Warn("es delete failed")
		}
		return
	}
	_ = res.Body.Close()
}

// Search performs a multi_match query on title and body via Elasticsearch.
func (s *ContentService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESIndex == "" {
		return []map[string]any{}, nil
	}
	size = normalizeSearchSize(size)
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"title^2", "body"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	ec, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(ec),
		s.ES.Search.WithIndex(s.ESIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func dedupe(in []string) []string {
	if len(in) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

func sameStringSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, v := range a {
		set[v] = struct{}{}
	}
	for _, v := range b {
		if _, ok := set[v]; !ok {
			return false
		}
	}
	return true
}

func normalizeSearchSize(size int) int {
	if size <= 0 {
		return 10
	}
	if size > 50 {
		return 50
	}
	return size
}

func normalizePage(p int) int {
	if p <= 0 {
		return 1
	}
	return p
}

func normalizeLimit(l int) int {
	if l <= 0 {
		return 10
	}
	if l > 100 {
		return 100
	}
	return l
}
