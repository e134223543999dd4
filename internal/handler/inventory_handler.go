package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/takeco/cmms/internal/repository"
	"github.com/takeco/cmms/internal/service"
)

type InventoryHandler struct {
	svc *service.InventoryService
}

func NewInventoryHandler(svc *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{svc: svc}
}

func parseDate(raw string) *time.Time {
	if raw == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return &t
	}
	return nil
}

// List GET /api/inventory/transactions
func (h *InventoryHandler) List(c *gin.Context) {
	params := repository.TransactionListParams{
		PartID:          c.Query("part_id"),
		MachineID:       c.Query("machine_id"),
		TransactionType: c.Query("transaction_type"),
		ReferenceType:   c.Query("reference_type"),
		PerformedBy:     c.Query("performed_by"),
		DateFrom:        parseDate(c.Query("date_from")),
		DateTo:          parseDate(c.Query("date_to")),
		Pagination:      GetPagination(c),
	}

	txs, total, err := h.svc.List(params)
	if err != nil {
		Fail(c, err)
		return
	}
	page, limit, _ := params.Normalize()
	Paginated(c, txs, page, limit, total)
}

// Get GET /api/inventory/transactions/:id
func (h *InventoryHandler) Get(c *gin.Context) {
	tx, err := h.svc.Get(c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, tx)
}

// Create POST /api/inventory/transactions
func (h *InventoryHandler) Create(c *gin.Context) {
	var req service.CreateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	tx, err := h.svc.Apply(GetUserID(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, tx)
}

// Update PUT /api/inventory/transactions/:id
func (h *InventoryHandler) Update(c *gin.Context) {
	var req service.UpdateTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	tx, err := h.svc.Update(c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, tx)
}

// Delete DELETE /api/inventory/transactions/:id
func (h *InventoryHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		Fail(c, err)
		return
	}
	Message(c, "Transaction deleted")
}

// Summary GET /api/inventory/transactions/summary
func (h *InventoryHandler) Summary(c *gin.Context) {
	rows, err := h.svc.Summary(c.Query("part_id"), parseDate(c.Query("date_from")), parseDate(c.Query("date_to")))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, rows)
}

// AuditReport GET /api/inventory/transactions/audit-report
func (h *InventoryHandler) AuditReport(c *gin.Context) {
	report, err := h.svc.AuditReport(c.Query("machine_id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, report)
}

// ListByPart GET /api/parts/:id/transactions
func (h *InventoryHandler) ListByPart(c *gin.Context) {
	txs, err := h.svc.ListByPart(c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, txs)
}

// Audit GET /api/parts/:id/audit
func (h *InventoryHandler) Audit(c *gin.Context) {
	entry, err := h.svc.Audit(c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, entry)
}
