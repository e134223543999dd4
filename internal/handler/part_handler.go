package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/takeco/cmms/internal/repository"
	"github.com/takeco/cmms/internal/service"
)

type PartHandler struct {
	svc *service.PartService
}

func NewPartHandler(svc *service.PartService) *PartHandler {
	return &PartHandler{svc: svc}
}

// List GET /api/parts
func (h *PartHandler) List(c *gin.Context) {
	params := repository.PartListParams{
		MachineID:  c.Query("machine_id"),
		Search:     c.Query("search"),
		Category:   c.Query("category"),
		LowStock:   c.Query("low_stock") == "true",
		Pagination: GetPagination(c),
	}

	parts, total, err := h.svc.List(params)
	if err != nil {
		Fail(c, err)
		return
	}
	page, limit, _ := params.Normalize()
	Paginated(c, parts, page, limit, total)
}

// Get GET /api/parts/:id
func (h *PartHandler) Get(c *gin.Context) {
	part, err := h.svc.Get(c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, part)
}

// Create POST /api/parts
func (h *PartHandler) Create(c *gin.Context) {
	var req service.CreatePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	part, err := h.svc.Create(GetUserID(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, part)
}

// Update PUT /api/parts/:id
func (h *PartHandler) Update(c *gin.Context) {
	var req service.UpdatePartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	part, err := h.svc.Update(c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, part)
}

// AdjustStock POST /api/parts/:id/adjust
func (h *PartHandler) AdjustStock(c *gin.Context) {
	var req service.StockAdjustRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	part, err := h.svc.AdjustStock(c.Param("id"), GetUserID(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, part)
}

// Delete DELETE /api/parts/:id
func (h *PartHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		Fail(c, err)
		return
	}
	Message(c, "Part deleted")
}

// LowStock GET /api/parts/low-stock
func (h *PartHandler) LowStock(c *gin.Context) {
	parts, err := h.svc.ListLowStock(c.Query("machine_id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, parts)
}

// Categories GET /api/parts/categories
func (h *PartHandler) Categories(c *gin.Context) {
	categories, err := h.svc.Categories(c.Query("machine_id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, categories)
}
