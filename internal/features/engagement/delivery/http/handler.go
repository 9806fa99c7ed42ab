package http

import (
	"net/http"
	"strconv"

	"jetfeed-backend/internal/common/middleware"
	"jetfeed-backend/internal/common/response"
	"jetfeed-backend/internal/features/engagement/service"

	"github.com/gin-gonic/gin"
)

type EngagementHandler struct {
	service service.EngagementService
}

func NewEngagementHandler(service service.EngagementService) *EngagementHandler {
	return &EngagementHandler{
		service: service,
	}
}

func (h *EngagementHandler) RegisterRoutes(router *gin.RouterGroup) {
	posts := router.Group("/posts")
	{
		posts.POST("/:id/like", h.like)
		posts.DELETE("/:id/like", h.unlike)
		posts.POST("/:id/bookmark", h.bookmark)
		posts.DELETE("/:id/bookmark", h.unbookmark)
	}

	router.GET("/users/:id/likes", h.likedPosts)
	router.GET("/me/bookmarks", h.bookmarkedPosts)
}

// @Summary Like post
// @Description Idempotent: liking an already liked post is a no-op.
// @Tags engagement
// @Param id path string true "Post ID"
// @Success 204 "Liked"
// @Failure 404 {object} response.ErrorResponse "Post not found"
// @Router /posts/{id}/like [post]
func (h *EngagementHandler) like(c *gin.Context) {
	identity, ok := middleware.CallerIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if err := h.service.Like(c.Request.Context(), identity.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Unlike post
// @Tags engagement
// @Param id path string true "Post ID"
// @Success 204 "Unliked"
// @Router /posts/{id}/like [delete]
func (h *EngagementHandler) unlike(c *gin.Context) {
	identity, ok := middleware.CallerIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if err := h.service.Unlike(c.Request.Context(), identity.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Bookmark post
// @Tags engagement
// @Param id path string true "Post ID"
// @Success 204 "Bookmarked"
// @Failure 404 {object} response.ErrorResponse "Post not found"
// @Router /posts/{id}/bookmark [post]
func (h *EngagementHandler) bookmark(c *gin.Context) {
	identity, ok := middleware.CallerIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if err := h.service.Bookmark(c.Request.Context(), identity.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Remove bookmark
// @Tags engagement
// @Param id path string true "Post ID"
// @Success 204 "Removed"
// @Router /posts/{id}/bookmark [delete]
func (h *EngagementHandler) unbookmark(c *gin.Context) {
	identity, ok := middleware.CallerIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	if err := h.service.Unbookmark(c.Request.Context(), identity.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Liked posts
// @Tags engagement
// @Produce json
// @Param id path string true "User ID"
// @Param limit query int false "Max results"
// @Success 200 {array} models.Post "Liked posts, newest first"
// @Router /users/{id}/likes [get]
func (h *EngagementHandler) likedPosts(c *gin.Context) {
	posts, err := h.service.LikedPosts(c.Request.Context(), c.Param("id"), queryLimit(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// @Summary Bookmarked posts
// @Tags engagement
// @Produce json
// @Param limit query int false "Max results"
// @Success 200 {array} models.Post "Bookmarked posts, newest first"
// @Router /me/bookmarks [get]
func (h *EngagementHandler) bookmarkedPosts(c *gin.Context) {
	identity, ok := middleware.CallerIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	posts, err := h.service.BookmarkedPosts(c.Request.Context(), identity.UserID, queryLimit(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func queryLimit(c *gin.Context) int64 {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil {
		return 20
	}
	return limit
}
