package handler

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/takeco/cmms/internal/config"
	"github.com/takeco/cmms/internal/entity"
	"github.com/takeco/cmms/internal/repository"
	"github.com/takeco/cmms/internal/service"
)

// Handlers is the full set wired once at startup.
type Handlers struct {
	Auth         *AuthHandler
	Company      *CompanyHandler
	User         *UserHandler
	Machine      *MachineHandler
	Part         *PartHandler
	Inventory    *InventoryHandler
	PMTemplate   *PMTemplateHandler
	PMSchedule   *PMScheduleHandler
	Repair       *RepairHandler
	History      *HistoryHandler
	Notification *NotificationHandler
	Upload       *UploadHandler
}

func NewHandlers(svc *service.Services, cfg *config.Config) *Handlers {
	return &Handlers{
		Auth:         NewAuthHandler(svc.Auth),
		Company:      NewCompanyHandler(svc.Company),
		User:         NewUserHandler(svc.User),
		Machine:      NewMachineHandler(svc.Machine, svc.History),
		Part:         NewPartHandler(svc.Part),
		Inventory:    NewInventoryHandler(svc.Inventory),
		PMTemplate:   NewPMTemplateHandler(svc.PMTemplate),
		PMSchedule:   NewPMScheduleHandler(svc.PMSchedule),
		Repair:       NewRepairHandler(svc.Repair),
		History:      NewHistoryHandler(svc.History),
		Notification: NewNotificationHandler(svc.Notification),
		Upload:       NewUploadHandler(cfg),
	}
}

// Pagination echoed to list callers.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
}

func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"success": true, "data": data})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": data})
}

func Paginated(c *gin.Context, data interface{}, page, limit int, total int64) {
	totalPages := 0
	if limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(limit)))
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    data,
		"pagination": Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

func Message(c *gin.Context, message string) {
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message})
}

func BadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}

func Forbidden(c *gin.Context, message string) {
	c.JSON(http.StatusForbidden, gin.H{"success": false, "message": message})
}

// Fail maps typed service errors to status codes in one place. Anything
// unrecognized is a 500 with a generic message.
func Fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, service.ErrPrecondition):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "message": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Internal server error"})
	}
}

func GetUserID(c *gin.Context) string {
	if v, ok := c.Get("user_id"); ok {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

func GetRole(c *gin.Context) string {
	if v, ok := c.Get("role"); ok {
		if role, ok := v.(string); ok {
			return role
		}
	}
	return ""
}

// ScopeFor derives the row scope from the actor: admins see everything,
// everyone else only their own rows.
func ScopeFor(c *gin.Context) repository.AccessScope {
	if GetRole(c) == entity.RoleAdmin {
		return repository.ScopeAll()
	}
	return repository.ScopeOwnedBy(GetUserID(c))
}

func GetPagination(c *gin.Context) repository.Pagination {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "10"))
	return repository.Pagination{Page: page, Limit: limit}
}
