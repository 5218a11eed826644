package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/SrFreiRe/oPortal/internal/application"
	"github.com/SrFreiRe/oPortal/internal/domain/repository"
	"github.com/SrFreiRe/oPortal/pkg/response"
	"github.com/SrFreiRe/oPortal/pkg/validation"
)

// UserHandler exposes the profile, preference and account endpoints, plus
// the admin user directory.
type UserHandler struct {
	Svc        *application.UserService
	Logger     *logrus.Logger
	Production bool
}

func NewUserHandler(svc *application.UserService, logger *logrus.Logger, production bool) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger, Production: production}
}

type updateProfileRequest struct {
	Username string `json:"username" binding:"required,min=3,max=20,uname"`
}

type updatePreferencesRequest struct {
	Preferences map[string]any `json:"preferences" binding:"required"`
}

type listUsersQuery struct {
	Search          string `form:"search"`
	Role            string `form:"role" binding:"omitempty,oneof=user editor admin"`
	IncludeInactive bool   `form:"includeInactive"`
	Page            *int   `form:"page" binding:"omitnil,min=1"`
	Limit           *int   `form:"limit" binding:"omitnil,min=1,max=100"`
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	u := currentUser(c)
	fresh, err := h.Svc.GetProfile(c.Request.Context(), u.ID)
	if err != nil {
		response.FromError(c, err, h.Production, h.Logger)
		return
	}
	response.Success(c, http.StatusOK, userJSON(fresh), "profile", nil)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	u := currentUser(c)
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	updated, err := h.Svc.UpdateProfile(c.Request.Context(), u.ID, req.Username)
	if err != nil {
		response.FromError(c, err, h.Production, h.Logger)
		return
	}
	response.Success(c, http.StatusOK, userJSON(updated), "profile updated", nil)
}

// UpdatePreferences merges the supplied keys into the stored preferences;
// keys not mentioned keep their values.
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	u := currentUser(c)
	var req updatePreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	updated, err := h.Svc.UpdatePreferences(c.Request.Context(), u.ID, req.Preferences)
	if err != nil {
		response.FromError(c, err, h.Production, h.Logger)
		return
	}
	response.Success(c, http.StatusOK, userJSON(updated), "preferences updated", nil)
}

func (h *UserHandler) UploadAvatar(c *gin.Context) {
	u := currentUser(c)
	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "avatar file is required", nil)
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "could not read avatar file", nil)
		return
	}
	defer func() { _ = f.Close() }()

	url, err := h.Svc.UploadAvatar(c.Request.Context(), u.ID, f, fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		response.FromError(c, err, h.Production, h.Logger)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"avatarUrl": url}, "avatar uploaded", nil)
}

// Deactivate soft-deletes the account and revokes every session.
func (h *UserHandler) Deactivate(c *gin.Context) {
	u := currentUser(c)
	if err := h.Svc.Deactivate(c.Request.Context(), u.ID); err != nil {
		response.FromError(c, err, h.Production, h.Logger)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetUser is admin-only and sees inactive accounts too.
func (h *UserHandler) GetUser(c *gin.Context) {
	u, err := h.Svc.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.FromError(c, err, h.Production, h.Logger)
		return
	}
	response.Success(c, http.StatusOK, userJSON(u), "user", nil)
}

// List is the admin user directory with search and role filtering.
func (h *UserHandler) List(c *gin.Context) {
	var q listUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid query", validation.ToDetails(err))
		return
	}
	users, meta, err := h.Svc.List(c.Request.Context(), repository.UserFilter{
		Search:          q.Search,
		Role:            q.Role,
		IncludeInactive: q.IncludeInactive,
		Page:            intOrZero(q.Page),
		Limit:           intOrZero(q.Limit),
	})
	if err != nil {
		response.FromError(c, err, h.Production, h.Logger)
		return
	}
	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, userJSON(u))
	}
	response.Success(c, http.StatusOK, out, "users", meta)
}
