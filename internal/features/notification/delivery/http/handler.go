package http

import (
	"net/http"
	"strconv"

	"jetfeed-backend/internal/common/middleware"
	"jetfeed-backend/internal/common/response"
	"jetfeed-backend/internal/features/notification/service"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	service service.NotificationService
}

func NewNotificationHandler(service service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		service: service,
	}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	notifications := router.Group("/notifications")
	{
		notifications.GET("", h.list)
		notifications.POST("/:id/read", h.markRead)
	}
}

// @Summary List notifications
// @Description Returns the caller's newest notifications with sender profiles attached. Returned unread rows are marked read.
// @Tags notifications
// @Produce json
// @Param limit query int false "Max results"
// @Success 200 {array} models.NotificationResponse "Notifications, newest first"
// @Router /notifications [get]
func (h *NotificationHandler) list(c *gin.Context) {
	identity, ok := middleware.CallerIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	limit, err := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	if err != nil {
		limit = 50
	}

	notifications, err := h.service.List(c.Request.Context(), identity.UserID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// @Summary Mark notification read
// @Tags notifications
// @Param id path string true "Notification ID"
// @Success 204 "Marked read"
// @Failure 403 {object} response.ErrorResponse "Not the recipient"
// @Failure 404 {object} response.ErrorResponse "Notification not found"
// @Router /notifications/{id}/read [post]
func (h *NotificationHandler) markRead(c *gin.Context) {
	identity, ok := middleware.CallerIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.service.MarkRead(c.Request.Context(), identity.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
