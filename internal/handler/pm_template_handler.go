package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/takeco/cmms/internal/repository"
	"github.com/takeco/cmms/internal/service"
)

type PMTemplateHandler struct {
	svc *service.PMTemplateService
}

func NewPMTemplateHandler(svc *service.PMTemplateService) *PMTemplateHandler {
	return &PMTemplateHandler{svc: svc}
}

// List GET /api/pm-templates
func (h *PMTemplateHandler) List(c *gin.Context) {
	params := repository.PMTemplateListParams{
		Search:          c.Query("search"),
		MachineCategory: c.Query("machine_category"),
		FrequencyType:   c.Query("frequency_type"),
		Pagination:      GetPagination(c),
	}

	templates, total, err := h.svc.List(params)
	if err != nil {
		Fail(c, err)
		return
	}
	page, limit, _ := params.Normalize()
	Paginated(c, templates, page, limit, total)
}

// Get GET /api/pm-templates/:id
func (h *PMTemplateHandler) Get(c *gin.Context) {
	template, err := h.svc.Get(c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, template)
}

// Create POST /api/pm-templates
func (h *PMTemplateHandler) Create(c *gin.Context) {
	var req service.CreatePMTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	template, err := h.svc.Create(&req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, template)
}

// Update PUT /api/pm-templates/:id
func (h *PMTemplateHandler) Update(c *gin.Context) {
	var req service.UpdatePMTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	template, err := h.svc.Update(c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, template)
}

// Delete DELETE /api/pm-templates/:id
func (h *PMTemplateHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		Fail(c, err)
		return
	}
	Message(c, "Template deleted")
}

// Categories GET /api/pm-templates/categories
func (h *PMTemplateHandler) Categories(c *gin.Context) {
	categories, err := h.svc.Categories()
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, categories)
}
