package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/internal/middleware"
	"github.com/pageza/foodgram/backend/internal/service"
)

// Dependencies are the services the HTTP handlers call.
type Dependencies struct {
	DB      *gorm.DB
	Auth    *service.AuthService
	Users   *service.UserService
	Catalog *service.CatalogService
	Recipes *service.RecipeService
	// RecipeLimiter throttles recipe creation. Nil disables it.
	RecipeLimiter *middleware.RateLimiter
	Log           *slog.Logger
}

// RegisterRoutes mounts the health check on router and the REST surface
// under /api.
func RegisterRoutes(router *gin.Engine, deps Dependencies) {
	b := base{log: deps.Log, validate: NewValidator()}

	health := NewHealthHandler(deps.DB)
	router.GET("/health", health.Check)
	router.GET("/api/health", health.Check)

	v1 := router.Group("/api")
	NewUserHandler(b, deps.Auth, deps.Users).RegisterRoutes(v1)
	NewCatalogHandler(b, deps.Catalog).RegisterRoutes(v1)
	NewRecipeHandler(b, deps.Auth, deps.Recipes, deps.RecipeLimiter).RegisterRoutes(v1)
}
