// Package api provides the HTTP surface for submitting, browsing, and
// curating links.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/pocketish/internal/database"
	"github.com/jonesrussell/pocketish/internal/domain"
)

// LinkStore defines the link operations the handlers need.
type LinkStore interface {
	Enqueue(ctx context.Context, userID int64, rawURL, title string) (int64, bool, error)
	GetByID(ctx context.Context, userID, linkID int64) (*domain.Link, error)
	SetArchived(ctx context.Context, userID, linkID int64, archived bool) error
	Search(ctx context.Context, userID int64, filter database.SearchFilter) ([]*domain.Link, error)
}

// TagStore defines the tag operations the handlers need.
type TagStore interface {
	Upsert(ctx context.Context, linkID int64, name string, origin domain.TagOrigin) error
	DeleteUserTag(ctx context.Context, linkID int64, name string) error
	Split(ctx context.Context, linkID int64) (userTags, systemTags []string, err error)
	Suggest(ctx context.Context, userID int64, prefix string, limit int) ([]string, error)
	ForLinks(ctx context.Context, linkIDs []int64) (map[int64][]domain.Tag, error)
}

// LinkHandler handles link submission, search, and archive requests.
type LinkHandler struct {
	links LinkStore
	tags  TagStore
}

// NewLinkHandler creates a new link handler.
func NewLinkHandler(links LinkStore, tags TagStore) *LinkHandler {
	return &LinkHandler{links: links, tags: tags}
}

// createLinkRequest is the body for POST /api/v1/links.
type createLinkRequest struct {
	URL   string `json:"url"   binding:"required"`
	Title string `json:"title"`
}

// linkResponse is a link plus its tags for display.
type linkResponse struct {
	*domain.Link
	Tags []tagResponse `json:"tags"`
}

type tagResponse struct {
	Name   string `json:"name"`
	Origin string `json:"origin"`
}

// Create handles POST /api/v1/links. Resubmitting a URL the owner
// already saved returns the existing link with 200 instead of 201.
func (h *LinkHandler) Create(c *gin.Context) {
	user := currentUser(c)

	var req createLinkRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": bindErr.Error()})
		return
	}

	id, created, enqueueErr := h.links.Enqueue(c.Request.Context(), user.ID, req.URL, req.Title)
	if enqueueErr != nil {
		if errors.Is(enqueueErr, domain.ErrValidation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": enqueueErr.Error()})
			return
		}
		c.Error(enqueueErr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save link"})
		return
	}

	link, getErr := h.links.GetByID(c.Request.Context(), user.ID, id)
	if getErr != nil {
		c.Error(getErr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load link"})
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	c.JSON(status, link)
}

// List handles GET /api/v1/links with optional q, tag, category,
// show_archived, and limit query parameters.
func (h *LinkHandler) List(c *gin.Context) {
	user := currentUser(c)

	limit, _ := strconv.Atoi(c.Query("limit"))
	filter := database.SearchFilter{
		Query:        c.Query("q"),
		Tag:          c.Query("tag"),
		Category:     c.Query("category"),
		ShowArchived: c.Query("show_archived") == "true",
		Limit:        limit,
	}

	links, searchErr := h.links.Search(c.Request.Context(), user.ID, filter)
	if searchErr != nil {
		c.Error(searchErr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "search failed"})
		return
	}

	ids := make([]int64, len(links))
	for i, link := range links {
		ids[i] = link.ID
	}
	tagsByLink, tagsErr := h.tags.ForLinks(c.Request.Context(), ids)
	if tagsErr != nil {
		c.Error(tagsErr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load tags"})
		return
	}

	results := make([]linkResponse, len(links))
	for i, link := range links {
		linkTags := tagsByLink[link.ID]
		tags := make([]tagResponse, len(linkTags))
		for j, tag := range linkTags {
			tags[j] = tagResponse{Name: tag.Name, Origin: string(tag.Origin)}
		}
		results[i] = linkResponse{Link: link, Tags: tags}
	}

	c.JSON(http.StatusOK, gin.H{
		"links": results,
		"count": len(results),
	})
}

// Archive handles POST /api/v1/links/:id/archive.
func (h *LinkHandler) Archive(c *gin.Context) {
	h.setArchived(c, true)
}

// Unarchive handles POST /api/v1/links/:id/unarchive.
func (h *LinkHandler) Unarchive(c *gin.Context) {
	h.setArchived(c, false)
}

func (h *LinkHandler) setArchived(c *gin.Context, archived bool) {
	user := currentUser(c)

	linkID, parseErr := parseLinkID(c)
	if parseErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid link id"})
		return
	}

	if archiveErr := h.links.SetArchived(c.Request.Context(), user.ID, linkID, archived); archiveErr != nil {
		if errors.Is(archiveErr, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "link not found"})
			return
		}
		c.Error(archiveErr)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update link"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"archived": archived})
}

// parseLinkID parses the :id path parameter.
func parseLinkID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
