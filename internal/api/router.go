package api

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/fingerprint-id/engine/internal/api/handlers"
	"github.com/fingerprint-id/engine/internal/auth"
)

// RouterConfig bundles everything needed to wire the HTTP surface.
type RouterConfig struct {
	APIKey string
	Deps   handlers.Deps
}

// NewRouter wires the identification service's full HTTP surface: health
// and readiness probes, Prometheus metrics, and the nine matching
// operations, each behind the shared API key middleware except the probes
// and the metrics endpoint.
func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(LoggingMiddleware())
	r.Use(cors.Default())

	health := handlers.NewHealthHandler(cfg.Deps)
	r.GET("/health", health.Health)
	r.GET("/readyz", health.Ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authorized := r.Group("/")
	authorized.Use(auth.APIKeyMiddleware(cfg.APIKey))

	authorized.GET("/params", health.Params)

	extract := handlers.NewExtractHandler(cfg.Deps)
	authorized.POST("/extract_template", extract.ExtractTemplate)

	verify := handlers.NewVerifyHandler(cfg.Deps)
	authorized.POST("/test_template", verify.TestTemplate)
	authorized.POST("/match_image", verify.MatchImage)
	authorized.POST("/match_templates", verify.MatchTemplates)

	identify := handlers.NewIdentifyHandler(cfg.Deps)
	authorized.POST("/identify_employee", identify.IdentifyEmployee)

	sync := handlers.NewSyncHandler(cfg.Deps)
	authorized.POST("/sync_employee/:id", sync.SyncEmployee)

	reload := handlers.NewReloadHandler(cfg.Deps)
	authorized.POST("/reload_index", reload.ReloadIndex)

	return r
}
