package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SrFreiRe/oPortal/internal/container"
	"github.com/SrFreiRe/oPortal/internal/domain/entity"
	"github.com/SrFreiRe/oPortal/internal/domain/repository"
	handlers "github.com/SrFreiRe/oPortal/internal/interface/http"
	"github.com/SrFreiRe/oPortal/internal/interface/middleware"
	"github.com/SrFreiRe/oPortal/pkg/helpers"
)

// UserModule mounts the profile and account endpoints plus the admin user
// directory. Everything here requires authentication.
type UserModule struct {
	Handler *handlers.UserHandler
	Users   repository.UserRepository
	JWT     *helpers.JWTManager
}

func NewUserModule(h *handlers.UserHandler, users repository.UserRepository, jwt *helpers.JWTManager) *UserModule {
	return &UserModule{Handler: h, Users: users, JWT: jwt}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	allowPrivate := middleware.AllowPrivateIP()

	auth := rg.Group("/users")
	auth.Use(middleware.Auth(m.Users, m.JWT))
	auth.Use(middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), allowPrivate))
	{
		auth.GET("/me", m.Handler.GetProfile)
		auth.PATCH("/me", m.Handler.UpdateProfile)
		auth.DELETE("/me", m.Handler.Deactivate)
		auth.PATCH("/me/preferences", m.Handler.UpdatePreferences)
		auth.POST("/me/avatar", m.Handler.UploadAvatar)

		adminOnly := middleware.RequireRole(entity.RoleAdmin)
		auth.GET("", adminOnly, m.Handler.List)
		auth.GET("/:id", adminOnly, m.Handler.GetUser)
	}
}
