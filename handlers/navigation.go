package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"news-hierarchy/hierarchy"
)

// GetSubcategories lists a category's subcategories with article counts.
func (h *Handler) GetSubcategories(c *gin.Context) {
	id, err := hierarchy.ParseOptionalID(c.Query("category_id"))
	if err != nil {
		h.respondError(c, wrapParam("category_id", err))
		return
	}
	if !id.Valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Category ID is required"})
		return
	}

	list, err := h.svc.Subcategories(c.Request.Context(), id.ID, h.svc.TimeFilter(c.Query("time_filter")), hidePaywall(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, hierarchy.NewSubcategoryList(list))
}

// GetCategories lists every category with article counts.
func (h *Handler) GetCategories(c *gin.Context) {
	list, err := h.svc.Categories(c.Request.Context(), h.svc.TimeFilter(c.Query("time_filter")), hidePaywall(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, hierarchy.NewCategoryList(list))
}
