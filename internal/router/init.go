package router

import (
	"github.com/SrFreiRe/oPortal/internal/application"
	"github.com/SrFreiRe/oPortal/internal/container"
	pginfra "github.com/SrFreiRe/oPortal/internal/infrastructure/postgres"
	handlers "github.com/SrFreiRe/oPortal/internal/interface/http"
	"github.com/SrFreiRe/oPortal/internal/router/modules"
)

// InitModules builds every feature module from the container singletons and
// registers it. Called once during startup, after the container is filled.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	production := cfg.IsProduction()

	userRepo := pginfra.NewUserRepository(container.GetPGPool())
	contentRepo := pginfra.NewContentRepository(container.GetPGPool())

	authSvc := application.NewAuthService(userRepo, container.GetJWT(), container.GetRabbitPub(), cfg, logger)
	userSvc := application.NewUserService(userRepo, container.GetGCS(), cfg.GCSBucket, container.GetRabbitPub(), cfg, logger)
	contentSvc := application.NewContentService(contentRepo, userRepo, container.GetES(), cfg.ESContentIndex, logger)

	authHandler := handlers.NewAuthHandler(authSvc, logger, cfg.CookieDomain, cfg.CookieSecure, production)
	userHandler := handlers.NewUserHandler(userSvc, logger, production)
	contentHandler := handlers.NewContentHandler(contentSvc, logger, production)

	r.Add(modules.NewAuthModule(authHandler, userRepo, container.GetJWT()))
	r.Add(modules.NewUserModule(userHandler, userRepo, container.GetJWT()))
	r.Add(modules.NewContentModule(contentHandler, userRepo, container.GetJWT()))
}
