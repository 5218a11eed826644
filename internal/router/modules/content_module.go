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

// ContentModule mounts the content store. Every route requires
// authentication; record-level permissions live in the workflow layer.
type ContentModule struct {
	Handler *handlers.ContentHandler
	Users   repository.UserRepository
	JWT     *helpers.JWTManager
}

func NewContentModule(h *handlers.ContentHandler, users repository.UserRepository, jwt *helpers.JWTManager) *ContentModule {
	return &ContentModule{Handler: h, Users: users, JWT: jwt}
}

func (m *ContentModule) Register(rg *gin.RouterGroup) {
	rdb := container.GetRedis()
	allowPrivate := middleware.AllowPrivateIP()

	auth := rg.Group("/content")
	auth.Use(middleware.Auth(m.Users, m.JWT))
	auth.Use(middleware.RateLimit(rdb, 120, time.Minute, middleware.KeyByUserID(), allowPrivate))
	{
		auth.POST("", m.Handler.Create)
		auth.GET("", m.Handler.List)
		auth.GET("/search", m.Handler.Search)
		auth.GET("/me", m.Handler.ListByUser)
		auth.GET("/user/:id", m.Handler.ListByUser)
		auth.GET("/:id", m.Handler.GetByID)
		auth.PATCH("/:id", m.Handler.Update)
		auth.DELETE("/:id", m.Handler.Delete)
	}
}
