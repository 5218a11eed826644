package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/SrFreiRe/oPortal/internal/application"
	"github.com/SrFreiRe/oPortal/internal/domain/entity"
	"github.com/SrFreiRe/oPortal/pkg/helpers"
	"github.com/SrFreiRe/oPortal/pkg/response"
	"github.com/SrFreiRe/oPortal/pkg/validation"
)

// AuthHandler exposes registration, login, token rotation and password
// management. Tokens travel both in the JSON body and as HTTP-only cookies.
type AuthHandler struct {
	Svc        *application.AuthService
	Logger     *logrus.Logger
	Cookies    *helpers.Manager
	Production bool
}

func NewAuthHandler(svc *application.AuthService, logger *logrus.Logger, cookieDomain string, cookieSecure, production bool) *AuthHandler {
	return &AuthHandler{
		Svc:        svc,
		Logger:     logger,
		Cookies:    helpers.NewCookie(cookieDomain, cookieSecure),
		Production: production,
	}
}

type registerRequest struct {
	Username string `json:"username" binding:"required,min=3,max=20,uname"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,pwd"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, pair, err := h.Svc.Register(c.Request.Context(), application.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		response.FromError(c, err, h.Production, h.Logger)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusCreated, gin.H{
		"user":        userJSON(u),
		"accessToken": pair.AccessToken,
	}, "registration successful", tokenMeta(pair))
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, pair, err := h.Svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.FromError(c, err, h.Production, h.Logger)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{
		"user":        userJSON(u),
		"accessToken": pair.AccessToken,
	}, "login successful", tokenMeta(pair))
}

// Refresh rotates the refresh token. The old token is consumed whether it
// arrives in the cookie or the JSON body; cookie wins when both are present.
func (h *AuthHandler) Refresh(c *gin.Context) {
	token := refreshTokenFrom(c)
	_, pair, err := h.Svc.Refresh(c.Request.Context(), token)
	if err != nil {
		h.Cookies.Clear(c)
		response.FromError(c, err, h.Production, h.Logger)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{
		"accessToken": pair.AccessToken,
	}, "token refreshed", tokenMeta(pair))
}

// Me returns the account behind the presented access token. The middleware
// already loaded a fresh row, so no extra query happens here.
func (h *AuthHandler) Me(c *gin.Context) {
	u := currentUser(c)
	cp := *u
	response.Success(c, http.StatusOK, userJSON(cp.Sanitize()), "current user", nil)
}

func (h *AuthHandler) Logout(c *gin.Context) {
	u := currentUser(c)
	token := refreshTokenFrom(c)
	if err := h.Svc.Logout(c.Request.Context(), u, token); err != nil {
		response.FromError(c, err, h.Production, h.Logger)
		return
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"loggedOut": true}, "logged out", nil)
}

// ChangePassword invalidates every outstanding session and hands back a
// fresh pair for the current one.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	u := currentUser(c)
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	_, pair, err := h.Svc.ChangePassword(c.Request.Context(), u.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		response.FromError(c, err, h.Production, h.Logger)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, gin.H{
		"accessToken": pair.AccessToken,
	}, "password changed", tokenMeta(pair))
}

func refreshTokenFrom(c *gin.Context) string {
	if v, err := c.Cookie(helpers.RefreshCookie); err == nil && v != "" {
		return v
	}
	var body struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := c.ShouldBindJSON(&body); err == nil {
		return body.RefreshToken
	}
	return ""
}

func tokenMeta(pair application.TokenPair) gin.H {
	return gin.H{
		"accessExpiresAt":  pair.AccessTokenExpiry,
		"refreshExpiresAt": pair.RefreshTokenExpiry,
	}
}

// currentUser returns the authenticated user placed in the context by the
// auth middleware. Routes behind the middleware always have it.
func currentUser(c *gin.Context) *entity.User {
	v, ok := c.Get("user")
	if !ok {
		return nil
	}
	u, _ := v.(*entity.User)
	return u
}

func userJSON(u *entity.User) gin.H {
	return gin.H{
		"id":          u.ID,
		"username":    u.Username,
		"email":       u.Email,
		"role":        u.Role,
		"active":      u.Active,
		"avatarUrl":   u.AvatarURL,
		"preferences": u.Preferences,
		"createdAt":   u.CreatedAt,
		"updatedAt":   u.UpdatedAt,
	}
}
