package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/SrFreiRe/oPortal/internal/application"
	"github.com/SrFreiRe/oPortal/internal/domain/entity"
	"github.com/SrFreiRe/oPortal/pkg/response"
	"github.com/SrFreiRe/oPortal/pkg/validation"
)

// ContentHandler exposes the versioned content store. Every route sits
// behind the auth middleware; authorization itself happens in the workflow
// layer against the loaded record.
type ContentHandler struct {
	Svc        *application.ContentService
	Logger     *logrus.Logger
	Production bool
}

func NewContentHandler(svc *application.ContentService, logger *logrus.Logger, production bool) *ContentHandler {
	return &ContentHandler{Svc: svc, Logger: logger, Production: production}
}

type createContentRequest struct {
	Title           string         `json:"title" binding:"required,min=1,max=100"`
	Body            string         `json:"body" binding:"required"`
	IsPersonalized  bool           `json:"isPersonalized"`
	AssociatedUsers []string       `json:"associatedUsers" binding:"omitempty,dive,uuid"`
	Status          string         `json:"status" binding:"omitempty,oneof=draft published archived"`
	Tags            []string       `json:"tags" binding:"omitempty,dive,min=1,max=50"`
	Metadata        map[string]any `json:"metadata"`
}

type updateContentRequest struct {
	Title           *string        `json:"title" binding:"omitempty,min=1,max=100"`
	Body            *string        `json:"body"`
	Status          *string        `json:"status" binding:"omitempty,oneof=draft published archived"`
	Tags            []string       `json:"tags" binding:"omitempty,dive,min=1,max=50"`
	Metadata        map[string]any `json:"metadata"`
	IsPersonalized  *bool          `json:"isPersonalized"`
	AssociatedUsers []string       `json:"associatedUsers" binding:"omitempty,dive,uuid"`
}

type contentListQuery struct {
	Status       string `form:"status" binding:"omitempty,oneof=draft published archived"`
	Tags         string `form:"tags"`
	Search       string `form:"search"`
	Personalized *bool  `form:"personalized"`
	// Pointers so an explicit page=0 or limit=0 still reaches min=1;
	// omitempty on a plain int would treat 0 as absent and let it through.
	Page  *int `form:"page" binding:"omitnil,min=1"`
	Limit *int `form:"limit" binding:"omitnil,min=1,max=100"`
}

func (h *ContentHandler) Create(c *gin.Context) {
	actor := currentUser(c)
	var req createContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	created, err := h.Svc.Create(c.Request.Context(), application.CreateContentInput{
		Title:           req.Title,
		Body:            req.Body,
		IsPersonalized:  req.IsPersonalized,
		AssociatedUsers: req.AssociatedUsers,
		Status:          req.Status,
		Tags:            req.Tags,
		Metadata:        req.Metadata,
	}, actor)
	if err != nil {
		response.FromError(c, err, h.Production, h.Logger)
		return
	}
	response.Success(c, http.StatusCreated, contentJSON(created), "content created", nil)
}

func (h *ContentHandler) GetByID(c *gin.Context) {
	actor := currentUser(c)
	content, err := h.Svc.GetByID(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		response.FromError(c, err, h.Production, h.Logger)
		return
	}
	response.Success(c, http.StatusOK, contentJSON(content), "content", nil)
}

func (h *ContentHandler) Update(c *gin.Context) {
	actor := currentUser(c)
	var req updateContentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	updated, err := h.Svc.Update(c.Request.Context(), c.Param("id"), application.UpdateContentInput{
		Title:           req.Title,
		Body:            req.Body,
		Status:          req.Status,
		Tags:            req.Tags,
		Metadata:        req.Metadata,
		IsPersonalized:  req.IsPersonalized,
		AssociatedUsers: req.AssociatedUsers,
	}, actor)
	if err != nil {
		response.FromError(c, err, h.Production, h.Logger)
		return
	}
	response.Success(c, http.StatusOK, contentJSON(updated), "content updated", nil)
}

func (h *ContentHandler) Delete(c *gin.Context) {
	actor := currentUser(c)
	if err := h.Svc.Delete(c.Request.Context(), c.Param("id"), actor); err != nil {
		response.FromError(c, err, h.Production, h.Logger)
		return
	}
	c.Status(http.StatusNoContent)
}

// List returns content visible to the caller, filtered and paginated.
func (h *ContentHandler) List(c *gin.Context) {
	actor := currentUser(c)
	var q contentListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	contents, meta, err := h.Svc.Query(c.Request.Context(), queryFrom(q), actor)
	if err != nil {
		response.FromError(c, err, h.Production, h.Logger)
		return
	}
	response.Success(c, http.StatusOK, contentListJSON(contents), "contents", meta)
}

// ListByUser returns one author's content. ":id" may be "me".
func (h *ContentHandler) ListByUser(c *gin.Context) {
	actor := currentUser(c)
	var q contentListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	contents, meta, err := h.Svc.QueryByAuthor(c.Request.Context(), c.Param("id"), queryFrom(q), actor)
	if err != nil {
		response.FromError(c, err, h.Production, h.Logger)
		return
	}
	response.Success(c, http.StatusOK, contentListJSON(contents), "contents", meta)
}

// Search is the full-text endpoint backed by Elasticsearch.
func (h *ContentHandler) Search(c *gin.Context) {
	q := strings.TrimSpace(c.Query("q"))
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "query parameter q is required", nil)
		return
	}
	size := 10
	if v, err := strconv.Atoi(c.Query("size")); err == nil && v > 0 {
		size = v
	}
	hits, err := h.Svc.Search(c.Request.Context(), q, size)
	if err != nil {
		response.FromError(c, err, h.Production, h.Logger)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", gin.H{"count": len(hits)})
}

func queryFrom(q contentListQuery) application.ContentQuery {
	return application.ContentQuery{
		Status:       q.Status,
		Tags:         splitTags(q.Tags),
		Search:       q.Search,
		Personalized: q.Personalized,
		Page:         intOrZero(q.Page),
		Limit:        intOrZero(q.Limit),
	}
}

func intOrZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func splitTags(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func contentJSON(ct *entity.Content) gin.H {
	return gin.H{
		"id":               ct.ID,
		"title":            ct.Title,
		"body":             ct.Body,
		"author":           gin.H{"id": ct.AuthorID, "username": ct.AuthorUsername},
		"isPersonalized":   ct.IsPersonalized,
		"associatedUsers":  ct.AssociatedUsers,
		"metadata":         ct.Metadata,
		"status":           ct.Status,
		"tags":             ct.Tags,
		"version":          ct.Version,
		"previousVersions": ct.PreviousVersions,
		"createdAt":        ct.CreatedAt,
		"updatedAt":        ct.UpdatedAt,
	}
}

func contentListJSON(contents []*entity.Content) []gin.H {
	out := make([]gin.H, 0, len(contents))
	for _, ct := range contents {
		out = append(out, contentJSON(ct))
	}
	return out
}
