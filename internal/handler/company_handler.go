package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/takeco/cmms/internal/repository"
	"github.com/takeco/cmms/internal/service"
)

type CompanyHandler struct {
	svc *service.CompanyService
}

func NewCompanyHandler(svc *service.CompanyService) *CompanyHandler {
	return &CompanyHandler{svc: svc}
}

// List GET /api/companies
func (h *CompanyHandler) List(c *gin.Context) {
	params := repository.CompanyListParams{
		Search:     c.Query("search"),
		Pagination: GetPagination(c),
	}

	companies, total, err := h.svc.List(params)
	if err != nil {
		Fail(c, err)
		return
	}
	page, limit, _ := params.Normalize()
	Paginated(c, companies, page, limit, total)
}

// Get GET /api/companies/:id
func (h *CompanyHandler) Get(c *gin.Context) {
	company, err := h.svc.Get(c.Param("id"))
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, company)
}

// Create POST /api/companies
func (h *CompanyHandler) Create(c *gin.Context) {
	var req service.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	company, err := h.svc.Create(&req)
	if err != nil {
		Fail(c, err)
		return
	}
	Created(c, company)
}

// Update PUT /api/companies/:id
func (h *CompanyHandler) Update(c *gin.Context) {
	var req service.UpdateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	company, err := h.svc.Update(c.Param("id"), &req)
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, company)
}

// Delete DELETE /api/companies/:id
func (h *CompanyHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Param("id")); err != nil {
		Fail(c, err)
		return
	}
	Message(c, "Company deleted")
}

// Stats GET /api/companies/stats
func (h *CompanyHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats()
	if err != nil {
		Fail(c, err)
		return
	}
	OK(c, stats)
}
