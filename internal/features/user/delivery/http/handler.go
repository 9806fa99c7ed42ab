package http

import (
	"context"
	"io"
	"net/http"
	"strconv"

	"jetfeed-backend/internal/common/middleware"
	"jetfeed-backend/internal/common/response"
	"jetfeed-backend/internal/features/user/models"
	"jetfeed-backend/internal/features/user/service"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	// First sign-in resolves the identity to a profile; both verbs land on
	// the same get-or-create path.
	router.POST("/session", h.getMe)

	users := router.Group("/users")
	{
		users.GET("/me", h.getMe)
		users.PATCH("/me", h.updateMe)
		users.POST("/me/photo", h.updatePhoto)
		users.POST("/me/banner", h.updateBanner)
		users.GET("/search", h.search)
		users.GET("/:id", h.getByID)
		users.GET("/username/:username", h.getByUsername)
	}
}

// @Summary Get current user
// @Description Returns the caller's profile, creating it with a generated username on first sign-in.
// @Tags users
// @Produce json
// @Success 200 {object} models.UserResponse "User data"
// @Failure 401 {object} response.ErrorResponse "Unauthorized"
// @Router /users/me [get]
func (h *UserHandler) getMe(c *gin.Context) {
	identity, ok := middleware.CallerIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	user, err := h.service.EnsureProfile(c.Request.Context(), identity.UserID, identity.Email, identity.DisplayName)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary Update current user
// @Description Applies profile edits. Username changes are limited to once every 30 days.
// @Tags users
// @Accept json
// @Produce json
// @Param input body models.UpdateProfileRequest true "Profile fields to change"
// @Success 200 {object} models.UserResponse "Updated user data"
// @Failure 400 {object} response.ErrorResponse "Validation error"
// @Failure 409 {object} response.ErrorResponse "Username taken or cooldown active"
// @Router /users/me [patch]
func (h *UserHandler) updateMe(c *gin.Context) {
	identity, ok := middleware.CallerIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, warning, err := h.service.UpdateProfile(c.Request.Context(), identity.UserID, &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if warning != "" {
		c.JSON(http.StatusOK, gin.H{"user": user, "warning": warning})
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary Upload profile photo
// @Description Stores the image and sets it as the caller's photo. Multipart field "file".
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Success 200 {object} models.UserResponse "Updated user data"
// @Router /users/me/photo [post]
func (h *UserHandler) updatePhoto(c *gin.Context) {
	h.uploadProfileImage(c, h.service.UpdatePhoto)
}

// @Summary Upload profile banner
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Success 200 {object} models.UserResponse "Updated user data"
// @Router /users/me/banner [post]
func (h *UserHandler) updateBanner(c *gin.Context) {
	h.uploadProfileImage(c, h.service.UpdateBanner)
}

func (h *UserHandler) uploadProfileImage(c *gin.Context, update func(ctx context.Context, userID, fileName, contentType string, data io.Reader) (*models.UserResponse, string, error)) {
	identity, ok := middleware.CallerIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "A file upload is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer file.Close()

	user, warning, err := update(c.Request.Context(), identity.UserID, header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	if warning != "" {
		c.JSON(http.StatusOK, gin.H{"user": user, "warning": warning})
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary Search users
// @Description Case-sensitive username prefix search.
// @Tags users
// @Produce json
// @Param q query string true "Username prefix"
// @Param limit query int false "Max results"
// @Success 200 {array} models.UserResponse "Matching users"
// @Router /users/search [get]
func (h *UserHandler) search(c *gin.Context) {
	prefix := c.Query("q")
	if prefix == "" {
		c.JSON(http.StatusOK, []*models.UserResponse{})
		return
	}

	users, err := h.service.Search(c.Request.Context(), prefix, queryLimit(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// @Summary Get user by ID
// @Tags users
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} models.UserResponse "User data"
// @Failure 404 {object} response.ErrorResponse "User not found"
// @Router /users/{id} [get]
func (h *UserHandler) getByID(c *gin.Context) {
	user, err := h.service.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary Get user by username
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} models.UserResponse "User data"
// @Failure 404 {object} response.ErrorResponse "User not found"
// @Router /users/username/{username} [get]
func (h *UserHandler) getByUsername(c *gin.Context) {
	user, err := h.service.GetByUsername(c.Request.Context(), c.Param("username"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func queryLimit(c *gin.Context) int64 {
	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)
	if err != nil {
		return 20
	}
	return limit
}
