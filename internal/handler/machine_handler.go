package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/takeco/cmms/internal/repository"
	"github.com/takeco/cmms/internal/service"
)

type MachineHandler struct {
	svc     *service.MachineService
	history *service.HistoryService
}

func NewMachineHandler(svc *service.MachineService, history *service.HistoryService) *MachineHandler {
	return &MachineHandler{svc: svc, history: history}
}

// List GET /api/machines
func (h *MachineHandler) List(c *gin.Context) {
	params := repository.MachineListParams{
		Search:     c.Query("search"),
		CompanyID:  c.Query("company_id"),
		Status:     c.Query("status"),
		Category:   c.Query("category"),
		Pagination: GetPagination(c),
	}

	machines, total, err := h.svc.List(params)
	if err != nil {
		Fail(c, err)
		return
	}
	page, limit, _ := params.Normalize()
	Paginated(c, machines, page, limit, total)
}

// Get GET /api/machines/:id
func (h *MachineHandler) Get(c *gin.Context) {
	machine, err := h.svc.Get(c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, machine)
}

// GetByCode GET /api/machines/by-code/:code
func (h *MachineHandler) GetByCode(c *gin.Context) {
	machine, err := h.svc.GetByCode(c.Param("code"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, machine)
}

// Create POST /api/machines
func (h *MachineHandler) Create(c *gin.Context) {
	var req service.CreateMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	machine, err := h.svc.Create(&req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, machine)
}

// Update PUT /api/machines/:id
func (h *MachineHandler) Update(c *gin.Context) {
	var req service.UpdateMachineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	machine, err := h.svc.Update(c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, machine)
}

// UpdateStatus PATCH /api/machines/:id/status
func (h *MachineHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	machine, err := h.svc.UpdateStatus(c.Param("id"), req.Status)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, machine)
}

// BulkUpdateStatus PATCH /api/machines/bulk-status
func (h *MachineHandler) BulkUpdateStatus(c *gin.Context) {
	var req service.BulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	machines, err := h.svc.BulkUpdateStatus(&req)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, machines)
}

// Delete DELETE /api/machines/:id
func (h *MachineHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		Fail(c, err)
		return
	}
	Message(c, "Machine deleted")
}

// StatusSummary GET /api/machines/status-summary
func (h *MachineHandler) StatusSummary(c *gin.Context) {
	counts, err := h.svc.StatusSummary(c.Query("company_id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, counts)
}

// History GET /api/machines/:id/history
func (h *MachineHandler) History(c *gin.Context) {
	entries, err := h.history.ForMachine(c.Param("id"), GetPagination(c))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, entries)
}

// ListDocuments GET /api/machines/:id/documents
func (h *MachineHandler) ListDocuments(c *gin.Context) {
	docs, err := h.svc.ListDocuments(c.Param("id"), c.Query("doc_type"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, docs)
}

// AddDocument POST /api/machines/:id/documents
func (h *MachineHandler) AddDocument(c *gin.Context) {
	var req service.CreateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	doc, err := h.svc.AddDocument(c.Param("id"), GetUserID(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, doc)
}

// DeleteDocument DELETE /api/machines/:id/documents/:docId
func (h *MachineHandler) DeleteDocument(c *gin.Context) {
	if err := h.svc.DeleteDocument(c.Param("docId")); err != nil {
		Fail(c, err)
		return
	}
	Message(c, "Document deleted")
}
