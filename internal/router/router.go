package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pageza/foodgram/backend/internal/api"
	"github.com/pageza/foodgram/backend/internal/middleware"
)

// Options control the parts of the engine that sit outside the API.
type Options struct {
	CORSOrigins []string
	// MediaDir is served under MediaURL when images are stored locally.
	MediaDir string
	MediaURL string
}

// New builds the engine with recovery, request logging, CORS, /metrics, the
// media directory and every API route.
func New(deps api.Dependencies, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(
		middleware.Recovery(deps.Log),
		middleware.RequestLogger(deps.Log),
		middleware.CORS(opts.CORSOrigins),
	)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if opts.MediaDir != "" {
		mediaURL := opts.MediaURL
		if mediaURL == "" {
			mediaURL = "/media"
		}
		router.Static(mediaURL, opts.MediaDir)
	}

	api.RegisterRoutes(router, deps)
	return router
}
