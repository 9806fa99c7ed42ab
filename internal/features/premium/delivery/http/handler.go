package http

import (
	"encoding/json"
	"io"
	"net/http"

	"jetfeed-backend/internal/common/middleware"
	"jetfeed-backend/internal/common/response"
	"jetfeed-backend/internal/features/premium/models"
	"jetfeed-backend/internal/features/premium/service"

	"github.com/gin-gonic/gin"
)

const signatureHeader = "X-Payment-Signature"

type PremiumHandler struct {
	service service.PremiumService
}

func NewPremiumHandler(service service.PremiumService) *PremiumHandler {
	return &PremiumHandler{
		service: service,
	}
}

// RegisterRoutes mounts the authenticated subscription endpoint.
func (h *PremiumHandler) RegisterRoutes(router *gin.RouterGroup) {
	premium := router.Group("/premium")
	{
		premium.POST("/subscribe", h.subscribe)
	}
}

// RegisterWebhook mounts the gateway callback. It sits outside the identity
// middleware; the HMAC signature is its authentication.
func (h *PremiumHandler) RegisterWebhook(router *gin.RouterGroup) {
	router.POST("/payments/webhook", h.webhook)
}

// @Summary Start premium subscription
// @Description Pushes an STK charge to the caller's phone and records a pending payment intent.
// @Tags premium
// @Accept json
// @Produce json
// @Param input body models.InitiateRequest true "Phone number to charge"
// @Success 200 {object} models.InitiateResponse "Pending charge"
// @Failure 503 {object} response.ErrorResponse "Payment gateway unavailable"
// @Router /premium/subscribe [post]
func (h *PremiumHandler) subscribe(c *gin.Context) {
	identity, ok := middleware.CallerIdentity(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.InitiateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.InitiateSubscription(c.Request.Context(), identity.UserID, req.Phone)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// @Summary Payment gateway webhook
// @Description Settles a pending payment intent. The signature is an HMAC-SHA256 of the raw body.
// @Tags premium
// @Accept json
// @Param X-Payment-Signature header string true "Hex HMAC of the body"
// @Success 200 "Processed"
// @Failure 400 {object} response.ErrorResponse "Missing orderReference"
// @Failure 401 {object} response.ErrorResponse "Bad signature"
// @Failure 404 {object} response.ErrorResponse "Unknown or already settled intent"
// @Router /payments/webhook [post]
func (h *PremiumHandler) webhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	if !h.service.VerifySignature(body, c.GetHeader(signatureHeader)) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
		return
	}

	var payload models.WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid payload"})
		return
	}

	if err := h.service.HandleWebhook(c.Request.Context(), &payload); err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
