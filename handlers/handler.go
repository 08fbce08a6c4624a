package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"news-hierarchy/hierarchy"
)

// Handler serves the hierarchy over HTTP.
type Handler struct {
	svc  *hierarchy.Service
	ping func(ctx context.Context) error
	log  zerolog.Logger
}

// New creates a Handler. ping backs the health check and may be nil.
func New(svc *hierarchy.Service, ping func(ctx context.Context) error, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, ping: ping, log: log}
}

var errBadParameter = errors.New("bad parameter")

// filterParams reads category_id, subcategory_id, time_filter and
// hide_paywall from the query string.
func (h *Handler) filterParams(c *gin.Context) (hierarchy.Params, error) {
	var p hierarchy.Params
	var err error
	if p.CategoryID, err = hierarchy.ParseOptionalID(c.Query("category_id")); err != nil {
		return p, wrapParam("category_id", err)
	}
	if p.SubcategoryID, err = hierarchy.ParseOptionalID(c.Query("subcategory_id")); err != nil {
		return p, wrapParam("subcategory_id", err)
	}
	p.TimeFilter = h.svc.TimeFilter(c.Query("time_filter"))
	p.HidePaywall = hidePaywall(c)
	return p, nil
}

type paramError struct {
	name string
	err  error
}

func (e *paramError) Error() string { return "invalid " + e.name + ": " + e.err.Error() }
func (e *paramError) Unwrap() error { return errBadParameter }

func wrapParam(name string, err error) error {
	return &paramError{name: name, err: err}
}

// hidePaywall accepts a bare ?hide_paywall or a truthy value.
func hidePaywall(c *gin.Context) bool {
	v, ok := c.GetQuery("hide_paywall")
	if !ok {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// respondError maps engine errors onto status codes. Unexpected errors are
// logged in full and reported generically.
func (h *Handler) respondError(c *gin.Context, err error) {
	var perr *paramError
	switch {
	case errors.As(err, &perr):
		c.JSON(http.StatusBadRequest, gin.H{"error": perr.Error()})
	case errors.Is(err, hierarchy.ErrMissingFilterParameter):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category ID or subcategory ID is required"})
	case errors.Is(err, hierarchy.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found", "details": err.Error()})
	default:
		h.log.Error().Err(err).
			Str("path", c.Request.URL.Path).
			Str("query", c.Request.URL.RawQuery).
			Str("request_id", c.GetString(requestIDKey)).
			Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
