package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/takeco/cmms/internal/entity"
	"github.com/takeco/cmms/internal/service"
)

type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Login POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	user, pair, err := h.svc.Login(c.Request.Context(), &req)
	if err != nil {
		Fail(c, err)
		return
	}

	OK(c, gin.H{"user": user, "tokens": pair})
}

// Register POST /api/auth/register
// Self-registration always lands on CUSTOMER; only an admin may set a role.
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if req.Role != "" && req.Role != entity.RoleCustomer && GetRole(c) != entity.RoleAdmin {
		Forbidden(c, "Only admins may assign roles")
		return
	}

	user, err := h.svc.Register(c.Request.Context(), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, user)
}

// Refresh POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, pair)
}

// Logout POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), GetUserID(c)); err != nil {
		Fail(c, err)
		return
	}
	Message(c, "Logged out")
}

// Profile GET /api/auth/profile
func (h *AuthHandler) Profile(c *gin.Context) {
	user, err := h.svc.Profile(GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, user)
}

// ChangePassword POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req service.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.svc.ChangePassword(c.Request.Context(), GetUserID(c), &req); err != nil {
		Fail(c, err)
		return
	}
	Message(c, "Password changed")
}
