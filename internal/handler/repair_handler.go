package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/takeco/cmms/internal/repository"
	"github.com/takeco/cmms/internal/service"
)

type RepairHandler struct {
	svc *service.RepairService
}

func NewRepairHandler(svc *service.RepairService) *RepairHandler {
	return &RepairHandler{svc: svc}
}

// List GET /api/repairs
func (h *RepairHandler) List(c *gin.Context) {
	params := repository.RepairListParams{
		Scope:      ScopeFor(c),
		Search:     c.Query("search"),
		MachineID:  c.Query("machine_id"),
		Status:     c.Query("status"),
		Priority:   c.Query("priority"),
		DateFrom:   parseDate(c.Query("date_from")),
		DateTo:     parseDate(c.Query("date_to")),
		Pagination: GetPagination(c),
	}

	works, total, err := h.svc.List(params)
	if err != nil {
		Fail(c, err)
		return
	}
	page, limit, _ := params.Normalize()
	Paginated(c, works, page, limit, total)
}

// Get GET /api/repairs/:id
func (h *RepairHandler) Get(c *gin.Context) {
	work, err := h.svc.Get(c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, work)
}

// Create POST /api/repairs
func (h *RepairHandler) Create(c *gin.Context) {
	var req service.CreateRepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	work, err := h.svc.Create(GetUserID(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, work)
}

// Update PUT /api/repairs/:id
func (h *RepairHandler) Update(c *gin.Context) {
	var req service.UpdateRepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	work, err := h.svc.Update(c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, work)
}

// Start POST /api/repairs/:id/start
func (h *RepairHandler) Start(c *gin.Context) {
	work, err := h.svc.Start(c.Param("id"), GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, work)
}

// Cancel POST /api/repairs/:id/cancel
func (h *RepairHandler) Cancel(c *gin.Context) {
	work, err := h.svc.Cancel(c.Param("id"), GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, work)
}

// Complete POST /api/repairs/:id/complete
func (h *RepairHandler) Complete(c *gin.Context) {
	var req service.CompleteRepairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	work, err := h.svc.Complete(c.Param("id"), GetUserID(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, work)
}

// Delete DELETE /api/repairs/:id
func (h *RepairHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		Fail(c, err)
		return
	}
	Message(c, "Repair work deleted")
}

// AddItem POST /api/repairs/:id/items
func (h *RepairHandler) AddItem(c *gin.Context) {
	var req struct {
		Description string `json:"description" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.svc.AddItem(c.Param("id"), req.Description)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, item)
}

// UpdateItem PUT /api/repairs/:id/items/:itemId
func (h *RepairHandler) UpdateItem(c *gin.Context) {
	var req service.UpdateRepairItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	item, err := h.svc.UpdateItem(c.Param("itemId"), GetUserID(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, item)
}

// DeleteItem DELETE /api/repairs/:id/items/:itemId
func (h *RepairHandler) DeleteItem(c *gin.Context) {
	if err := h.svc.DeleteItem(c.Param("itemId")); err != nil {
		Fail(c, err)
		return
	}
	Message(c, "Item deleted")
}

// AddPhoto POST /api/repairs/:id/photos
func (h *RepairHandler) AddPhoto(c *gin.Context) {
	var req service.AddRepairPhotoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	photo, err := h.svc.AddPhoto(c.Param("id"), GetUserID(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, photo)
}

// DeletePhoto DELETE /api/repairs/:id/photos/:photoId
func (h *RepairHandler) DeletePhoto(c *gin.Context) {
	if err := h.svc.DeletePhoto(c.Param("photoId")); err != nil {
		Fail(c, err)
		return
	}
	Message(c, "Photo deleted")
}

// ConsumePart POST /api/repairs/:id/parts
func (h *RepairHandler) ConsumePart(c *gin.Context) {
	var req service.ConsumePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	usage, err := h.svc.ConsumePart(c.Param("id"), GetUserID(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, usage)
}

// ListParts GET /api/repairs/:id/parts
func (h *RepairHandler) ListParts(c *gin.Context) {
	parts, err := h.svc.ListParts(c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, parts)
}

// Assign POST /api/repairs/:id/assign
func (h *RepairHandler) Assign(c *gin.Context) {
	var req struct {
		UserID  string   `json:"user_id"`
		UserIDs []string `json:"user_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if len(req.UserIDs) > 0 {
		if err := h.svc.BulkAssign(c.Param("id"), req.UserIDs, GetUserID(c)); err != nil {
			Fail(c, err)
			return
		}
		Message(c, "Users assigned")
		return
	}
	if req.UserID == "" {
		BadRequest(c, "user_id or user_ids is required")
		return
	}
	if err := h.svc.Assign(c.Param("id"), req.UserID, GetUserID(c)); err != nil {
		Fail(c, err)
		return
	}
	Message(c, "User assigned")
}

// Unassign DELETE /api/repairs/:id/assign/:userId
func (h *RepairHandler) Unassign(c *gin.Context) {
	if err := h.svc.Unassign(c.Param("id"), c.Param("userId")); err != nil {
		Fail(c, err)
		return
	}
	Message(c, "User unassigned")
}

// StatusSummary GET /api/repairs/status-summary
func (h *RepairHandler) StatusSummary(c *gin.Context) {
	counts, err := h.svc.StatusSummary()
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, counts)
}
