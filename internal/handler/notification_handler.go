package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/takeco/cmms/internal/service"
)

type NotificationHandler struct {
	svc *service.NotificationService
}

func NewNotificationHandler(svc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

// PublicKey GET /api/notifications/public-key
func (h *NotificationHandler) PublicKey(c *gin.Context) {
	OK(c, gin.H{"public_key": h.svc.PublicKey()})
}

// Subscribe POST /api/notifications/subscribe
func (h *NotificationHandler) Subscribe(c *gin.Context) {
	var req service.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	sub, err := h.svc.Subscribe(GetUserID(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, sub)
}

// Unsubscribe POST /api/notifications/unsubscribe
func (h *NotificationHandler) Unsubscribe(c *gin.Context) {
	var req struct {
		Endpoint string `json:"endpoint" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.svc.Unsubscribe(req.Endpoint); err != nil {
		Fail(c, err)
		return
	}
	Message(c, "Unsubscribed")
}

// Test POST /api/notifications/test
func (h *NotificationHandler) Test(c *gin.Context) {
	h.svc.SendToUser(GetUserID(c), "Test notification", "Push notifications are working")
	Message(c, "Test notification queued")
}
