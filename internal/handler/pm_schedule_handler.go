package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/takeco/cmms/internal/repository"
	"github.com/takeco/cmms/internal/service"
)

type PMScheduleHandler struct {
	svc *service.PMScheduleService
}

func NewPMScheduleHandler(svc *service.PMScheduleService) *PMScheduleHandler {
	return &PMScheduleHandler{svc: svc}
}

// List GET /api/pm-schedules
func (h *PMScheduleHandler) List(c *gin.Context) {
	params := repository.PMScheduleListParams{
		Scope:      ScopeFor(c),
		Search:     c.Query("search"),
		MachineID:  c.Query("machine_id"),
		TemplateID: c.Query("template_id"),
		Status:     c.Query("status"),
		Priority:   c.Query("priority"),
		DueFrom:    parseDate(c.Query("due_from")),
		DueTo:      parseDate(c.Query("due_to")),
		Pagination: GetPagination(c),
	}

	schedules, total, err := h.svc.List(params)
	if err != nil {
		Fail(c, err)
		return
	}
	page, limit, _ := params.Normalize()
	Paginated(c, schedules, page, limit, total)
}

// Get GET /api/pm-schedules/:id
func (h *PMScheduleHandler) Get(c *gin.Context) {
	schedule, err := h.svc.Get(c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, schedule)
}

// Create POST /api/pm-schedules
func (h *PMScheduleHandler) Create(c *gin.Context) {
	var req service.CreatePMScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	schedule, err := h.svc.Create(GetUserID(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, schedule)
}

// Update PUT /api/pm-schedules/:id
func (h *PMScheduleHandler) Update(c *gin.Context) {
	var req service.UpdatePMScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	schedule, err := h.svc.Update(c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, schedule)
}

// Start POST /api/pm-schedules/:id/start
func (h *PMScheduleHandler) Start(c *gin.Context) {
	schedule, err := h.svc.Start(c.Param("id"), GetUserID(c))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, schedule)
}

// SaveResult PUT /api/pm-schedules/:id/results
func (h *PMScheduleHandler) SaveResult(c *gin.Context) {
	var req service.SaveResultRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	result, err := h.svc.SaveResult(c.Param("id"), GetUserID(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, result)
}

// Complete POST /api/pm-schedules/:id/complete
func (h *PMScheduleHandler) Complete(c *gin.Context) {
	var req service.CompletePMRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	schedule, err := h.svc.Complete(c.Param("id"), GetUserID(c), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, schedule)
}

// Assign POST /api/pm-schedules/:id/assign
func (h *PMScheduleHandler) Assign(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	if err := h.svc.Assign(c.Param("id"), req.UserID, GetUserID(c)); err != nil {
		Fail(c, err)
		return
	}
	Message(c, "User assigned")
}

// Unassign DELETE /api/pm-schedules/:id/assign/:userId
func (h *PMScheduleHandler) Unassign(c *gin.Context) {
	if err := h.svc.Unassign(c.Param("id"), c.Param("userId")); err != nil {
		Fail(c, err)
		return
	}
	Message(c, "User unassigned")
}

// Delete DELETE /api/pm-schedules/:id
func (h *PMScheduleHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		Fail(c, err)
		return
	}
	Message(c, "Schedule deleted")
}

// Dashboard GET /api/pm-schedules/dashboard
func (h *PMScheduleHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.svc.Dashboard()
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, dashboard)
}
