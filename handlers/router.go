package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// NewRouter registers every route on a fresh gin engine.
func NewRouter(h *Handler, log zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), AccessLog(log), Recovery(log))

	// Initial page state
	r.GET("/", h.Index)

	api := r.Group("/api")
	{
		api.GET("/articles", h.GetArticles)
		api.GET("/article/:article_id", h.GetArticle)
		api.GET("/subcategories", h.GetSubcategories)
		api.GET("/categories", h.GetCategories)
	}

	r.GET("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
