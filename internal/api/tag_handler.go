package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/pocketish/internal/domain"
)

// defaultSuggestLimit caps tag suggestions when the caller passes none.
const defaultSuggestLimit = 12

// TagHandler handles user tag mutations and tag suggestions.
type TagHandler struct {
	links LinkStore
	tags  TagStore
}

// NewTagHandler creates a new tag handler.
func NewTagHandler(links LinkStore, tags TagStore) *TagHandler {
	return &TagHandler{links: links, tags: tags}
}

// addTagRequest is the body for POST /api/v1/links/:id/tags.
type addTagRequest struct {
	Name string `json:"name" binding:"required"`
}

// Add handles POST /api/v1/links/:id/tags and returns the link's
// current tag split.
func (h *TagHandler) Add(c *gin.Context) {
	user := currentUser(c)

	linkID, parseErr := parseLinkID(c)
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid link id"})
		return
	}

	var req addTagRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErr.Error()})
		return
	}

	// Ownership check before any write.
	if _, getErr := h.links.GetByID(c.Request.Context(), user.ID, linkID); getErr != nil {
		if errors.Is(getErr, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "link not found"})
			return
		}
		c.Error(getErr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load link"})
		return
	}

	if upsertErr := h.tags.Upsert(c.Request.Context(), linkID, req.Name, domain.OriginUser); upsertErr != nil {
		if errors.Is(upsertErr, domain.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": upsertErr.Error()})
			return
		}
		c.Error(upsertErr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to add tag"})
		return
	}

	h.respondWithSplit(c, linkID)
}

// Remove handles DELETE /api/v1/links/:id/tags/:name. Only user-origin
// tags are deletable.
func (h *TagHandler) Remove(c *gin.Context) {
	user := currentUser(c)

	linkID, parseErr := parseLinkID(c)
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid link id"})
		return
	}

	if _, getErr := h.links.GetByID(c.Request.Context(), user.ID, linkID); getErr != nil {
		if errors.Is(getErr, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "link not found"})
			return
		}
		c.Error(getErr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load link"})
		return
	}

	if deleteErr := h.tags.DeleteUserTag(c.Request.Context(), linkID, c.Param("name")); deleteErr != nil {
		if errors.Is(deleteErr, domain.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": deleteErr.Error()})
			return
		}
		c.Error(deleteErr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to remove tag"})
		return
	}

	h.respondWithSplit(c, linkID)
}

// Suggest handles GET /api/v1/tags with optional prefix and limit
// query parameters.
func (h *TagHandler) Suggest(c *gin.Context) {
	user := currentUser(c)

	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 {
		limit = defaultSuggestLimit
	}

	names, suggestErr := h.tags.Suggest(c.Request.Context(), user.ID, c.Query("prefix"), limit)
	if suggestErr != nil {
		c.Error(suggestErr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to suggest tags"})
		return
	}
	if names == nil {
		names = []string{}
	}

	c.JSON(http.StatusOK, gin.H{"tags": names})
}

func (h *TagHandler) respondWithSplit(c *gin.Context, linkID int64) {
	userTags, systemTags, splitErr := h.tags.Split(c.Request.Context(), linkID)
	if splitErr != nil {
		c.Error(splitErr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load tags"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_tags":   userTags,
		"system_tags": systemTags,
	})
}
