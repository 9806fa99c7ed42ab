package http

import (
	"net/http"
	"strconv"

	"jetfeed-backend/internal/common/middleware"
	"jetfeed-backend/internal/common/response"
	"jetfeed-backend/internal/features/social/service"

	"github.com/gin-gonic/gin"
)

type SocialHandler struct {
	service service.SocialService
}

func NewSocialHandler(service service.SocialService) *SocialHandler {
	return &SocialHandler{
		service: service,
	}
}

func (h *SocialHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.POST("/:id/follow", h.toggleFollow)
		users.GET("/:id/follow", h.isFollowing)
		users.GET("/:id/followers", h.followers)
		users.GET("/:id/following", h.following)
	}
}

// @Summary Toggle follow
// @Description Follows the target when no edge exists, unfollows otherwise.
// @Tags social
// @Produce json
// @Param id path string true "Target user ID"
// @Success 200 {object} models.ToggleResult "New follow state"
// @Failure 404 {object} response.ErrorResponse "User not found"
// @Failure 409 {object} response.ErrorResponse "Cannot follow yourself"
// @Router /users/{id}/follow [post]
func (h *SocialHandler) toggleFollow(c *gin.Context) {
	identity, ok := middleware.CallerIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := h.service.ToggleFollow(c.Request.Context(), identity.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Check follow state
// @Tags social
// @Produce json
// @Param id path string true "Target user ID"
// @Success 200 {object} map[string]bool "Follow state"
// @Router /users/{id}/follow [get]
func (h *SocialHandler) isFollowing(c *gin.Context) {
	identity, ok := middleware.CallerIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	following, err := h.service.IsFollowing(c.Request.Context(), identity.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"following": following})
}

// @Summary List followers
// @Tags social
// @Produce json
// @Param id path string true "User ID"
// @Param limit query int false "Max results"
// @Success 200 {array} models.UserResponse "Followers, newest first"
// @Router /users/{id}/followers [get]
func (h *SocialHandler) followers(c *gin.Context) {
	users, err := h.service.ListFollowers(c.Request.Context(), c.Param("id"), queryLimit(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// @Summary List following
// @Tags social
// @Produce json
// @Param id path string true "User ID"
// @Param limit query int false "Max results"
// @Success 200 {array} models.UserResponse "Followed users, newest first"
// @Router /users/{id}/following [get]
func (h *SocialHandler) following(c *gin.Context) {
	users, err := h.service.ListFollowing(c.Request.Context(), c.Param("id"), queryLimit(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func queryLimit(c *gin.Context) int64 {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil {
		return 20
	}
	return limit
}
