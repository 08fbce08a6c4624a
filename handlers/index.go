package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"news-hierarchy/hierarchy"
)

// Index returns the initial page state. It never fails: any error is
// logged and an empty state is served instead.
func (h *Handler) Index(c *gin.Context) {
	tf := h.svc.TimeFilter(c.Query("time_filter"))

	ov, err := h.svc.Overview(c.Request.Context(), tf, hidePaywall(c))
	if err != nil {
		h.log.Error().Err(err).
			Str("time_filter", tf.Token).
			Str("request_id", c.GetString(requestIDKey)).
			Msg("serving empty index")
		ov = nil
	}

	c.JSON(http.StatusOK, hierarchy.NewOverviewResponse(ov, tf, h.svc.Now()))
}

// Health reports whether the store is reachable.
func (h *Handler) Health(c *gin.Context) {
	if h.ping != nil {
		if err := h.ping(c.Request.Context()); err != nil {
			h.log.Warn().Err(err).Msg("health check failed")
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
