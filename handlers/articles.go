package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"news-hierarchy/hierarchy"
)

// GetArticles serves the ranked tree for a category and/or subcategory.
func (h *Handler) GetArticles(c *gin.Context) {
	p, err := h.filterParams(c)
	if err != nil {
		h.respondError(c, err)
		return
	}

	tree, err := h.svc.Tree(c.Request.Context(), p)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, hierarchy.NewResponse(tree))
}

// GetArticle serves the detail of one article.
func (h *Handler) GetArticle(c *gin.Context) {
	id, err := hierarchy.ParseOptionalID(c.Param("article_id"))
	if err != nil || !id.Valid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid article id"})
		return
	}

	article, err := h.svc.Article(c.Request.Context(), id.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, hierarchy.NewArticleDetail(article))
}
