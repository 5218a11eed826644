package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SrFreiRe/oPortal/internal/container"
	"github.com/SrFreiRe/oPortal/internal/domain/repository"
	handlers "github.com/SrFreiRe/oPortal/internal/interface/http"
	"github.com/SrFreiRe/oPortal/internal/interface/middleware"
	"github.com/SrFreiRe/oPortal/pkg/helpers"
)

// AuthModule mounts the credential endpoints.
// Public: POST /api/auth/register, /api/auth/login, /api/auth/refresh
// Protected: GET /api/auth/me, POST /api/auth/logout, PATCH /api/auth/password
type AuthModule struct {
	Handler *handlers.AuthHandler
	Users   repository.UserRepository
	JWT     *helpers.JWTManager
}

func NewAuthModule(h *handlers.AuthHandler, users repository.UserRepository, jwt *helpers.JWTManager) *AuthModule {
	return &AuthModule{Handler: h, Users: users, JWT: jwt}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	allowPrivate := middleware.AllowPrivateIP()

	registerLimiter := middleware.RateLimit(rdb, 5, time.Minute, middleware.KeyByIPAndPath(), allowPrivate)
	loginLimiter := middleware.RateLimit(rdb, 10, time.Minute, middleware.KeyByIPAndPath(), allowPrivate)
	refreshLimiter := middleware.RateLimit(rdb, 60, time.Minute, middleware.KeyByIPAndPath(), allowPrivate)

	rg.POST("/auth/register", registerLimiter, m.Handler.Register)
	rg.POST("/auth/login", loginLimiter, m.Handler.Login)
	rg.POST("/auth/refresh", refreshLimiter, m.Handler.Refresh)

	auth := rg.Group("/")
	auth.Use(middleware.Auth(m.Users, m.JWT))
	auth.Use(middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), allowPrivate))
	{
		auth.GET("/auth/me", m.Handler.Me)
		auth.POST("/auth/logout", m.Handler.Logout)
		auth.PATCH("/auth/password", m.Handler.ChangePassword)
	}
}
