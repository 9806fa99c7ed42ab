package http

import (
	"net/http"
	"strconv"
	"strings"

	"jetfeed-backend/internal/common/middleware"
	"jetfeed-backend/internal/common/response"
	"jetfeed-backend/internal/features/post/models"
	"jetfeed-backend/internal/features/post/service"

	"github.com/gin-gonic/gin"
)

const maxMediaFiles = 4

type PostHandler struct {
	service service.PostService
}

func NewPostHandler(service service.PostService) *PostHandler {
	return &PostHandler{
		service: service,
	}
}

func (h *PostHandler) RegisterRoutes(router *gin.RouterGroup) {
	posts := router.Group("/posts")
	{
		posts.POST("", h.create)
		posts.GET("", h.feed)
		posts.GET("/:id", h.getByID)
		posts.DELETE("/:id", h.delete)
		posts.POST("/:id/repost", h.toggleRepost)
		posts.GET("/:id/replies", h.replies)
	}

	router.GET("/trends", h.trends)

	users := router.Group("/users")
	{
		users.GET("/:id/posts", h.userPosts)
		users.GET("/:id/replies", h.userReplies)
		users.GET("/:id/media", h.userMedia)
	}
}

// @Summary Create post
// @Description Creates a post or reply. Multipart requests may attach up to four media files under the "media" field.
// @Tags posts
// @Accept json
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} models.Post "Created post"
// @Failure 400 {object} response.ErrorResponse "Validation error"
// @Failure 404 {object} response.ErrorResponse "Parent post not found"
// @Router /posts [post]
func (h *PostHandler) create(c *gin.Context) {
	identity, ok := middleware.CallerIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	req, err := h.bindCreateRequest(c)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	post, err := h.service.CreatePost(c.Request.Context(), identity.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func (h *PostHandler) bindCreateRequest(c *gin.Context) (*models.CreatePostRequest, error) {
	if !strings.HasPrefix(c.ContentType(), "multipart/") {
		var req models.CreatePostRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			return nil, err
		}
		return &req, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	req := &models.CreatePostRequest{
		Content:   formValue(form.Value, "content"),
		ReplyToID: formValue(form.Value, "replyToId"),
	}
	files := form.File["media"]
	if len(files) > maxMediaFiles {
		files = files[:maxMediaFiles]
	}
	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		// Closed by the multipart form teardown at end of request.
		req.Media = append(req.Media, models.MediaFile{
			FileName:    header.Filename,
			ContentType: header.Header.Get("Content-Type"),
			Data:        file,
		})
	}
	return req, nil
}

func formValue(values map[string][]string, key string) string {
	if v := values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// @Summary Get post
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} models.Post "Post"
// @Failure 404 {object} response.ErrorResponse "Post not found"
// @Router /posts/{id} [get]
func (h *PostHandler) getByID(c *gin.Context) {
	post, err := h.service.GetPost(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

// @Summary Delete post
// @Description Deletes the caller's post and unwinds its counters and indexes.
// @Tags posts
// @Param id path string true "Post ID"
// @Success 204 "Deleted"
// @Failure 403 {object} response.ErrorResponse "Not the author"
// @Failure 404 {object} response.ErrorResponse "Post not found"
// @Router /posts/{id} [delete]
func (h *PostHandler) delete(c *gin.Context) {
	identity, ok := middleware.CallerIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.service.DeletePost(c.Request.Context(), identity.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// @Summary Toggle repost
// @Description Reposts the target when the caller has no repost of it, removes the repost otherwise.
// @Tags posts
// @Produce json
// @Param id path string true "Original post ID"
// @Success 200 {object} map[string]bool "New repost state"
// @Failure 404 {object} response.ErrorResponse "Post not found"
// @Router /posts/{id}/repost [post]
func (h *PostHandler) toggleRepost(c *gin.Context) {
	identity, ok := middleware.CallerIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	reposted, err := h.service.ToggleRepost(c.Request.Context(), identity.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reposted": reposted})
}

// @Summary List replies
// @Tags posts
// @Produce json
// @Param id path string true "Post ID"
// @Param limit query int false "Max results"
// @Success 200 {array} models.Post "Replies, oldest first"
// @Router /posts/{id}/replies [get]
func (h *PostHandler) replies(c *gin.Context) {
	posts, err := h.service.Replies(c.Request.Context(), c.Param("id"), queryLimit(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// @Summary Global feed
// @Tags posts
// @Produce json
// @Param limit query int false "Max results"
// @Success 200 {array} models.Post "Recent posts, newest first"
// @Router /posts [get]
func (h *PostHandler) feed(c *gin.Context) {
	posts, err := h.service.Feed(c.Request.Context(), queryLimit(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

// @Summary Trending hashtags
// @Tags posts
// @Produce json
// @Param limit query int false "Max results"
// @Success 200 {array} models.Trend "Top hashtags by usage"
// @Router /trends [get]
func (h *PostHandler) trends(c *gin.Context) {
	trends, err := h.service.Trends(c.Request.Context(), queryLimit(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, trends)
}

func (h *PostHandler) userPosts(c *gin.Context) {
	posts, err := h.service.UserPosts(c.Request.Context(), c.Param("id"), queryLimit(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) userReplies(c *gin.Context) {
	posts, err := h.service.UserReplies(c.Request.Context(), c.Param("id"), queryLimit(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func (h *PostHandler) userMedia(c *gin.Context) {
	posts, err := h.service.UserMediaPosts(c.Request.Context(), c.Param("id"), queryLimit(c))
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
