package handler

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/takeco/cmms/internal/entity"
	"github.com/takeco/cmms/internal/middleware"
	"github.com/takeco/cmms/internal/repository"
	"github.com/takeco/cmms/internal/service"
	"github.com/takeco/cmms/internal/testutil"
)

func setupCompanyRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repos := repository.NewRepositories(db)
	h := NewCompanyHandler(service.NewCompanyService(repos.Company))

	r := testutil.SetupRouter()
	api := testutil.AuthGroup(r, "/api")
	companies := api.Group("/companies")
	{
		companies.GET("", h.List)
		companies.GET("/:id", h.Get)
		companies.POST("", middleware.RequireRole(entity.RoleAdmin), h.Create)
		companies.PUT("/:id", middleware.RequireRole(entity.RoleAdmin), h.Update)
		companies.DELETE("/:id", middleware.RequireRole(entity.RoleAdmin), h.Delete)
	}
	return r
}

func TestCompanyCRUDEnvelope(t *testing.T) {
	r := setupCompanyRouter(t)
	admin := testutil.AdminToken()

	w := testutil.DoRequest(r, http.MethodPost, "/api/companies", map[string]interface{}{
		"name":  "Takeco",
		"email": "info@takeco.example",
	}, admin)
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	if resp["success"] != true {
		t.Fatalf("envelope = %v", resp)
	}
	created := resp["data"].(map[string]interface{})
	id := created["id"].(string)

	w = testutil.DoRequest(r, http.MethodGet, "/api/companies/"+id, nil, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}

	w = testutil.DoRequest(r, http.MethodGet, "/api/companies?search=take", nil, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	resp = testutil.ParseResponse(w)
	pagination, ok := resp["pagination"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing pagination in %v", resp)
	}
	if pagination["total"].(float64) != 1 {
		t.Errorf("total = %v, want 1", pagination["total"])
	}

	w = testutil.DoRequest(r, http.MethodDelete, "/api/companies/"+id, nil, admin)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status = %d, body = %s", w.Code, w.Body.String())
	}

	w = testutil.DoRequest(r, http.MethodGet, "/api/companies/"+id, nil, admin)
	if w.Code != http.StatusNotFound {
		t.Errorf("get after delete status = %d, want 404", w.Code)
	}
}

func TestCompanyWriteRequiresAdmin(t *testing.T) {
	r := setupCompanyRouter(t)

	w := testutil.DoRequest(r, http.MethodPost, "/api/companies", map[string]interface{}{
		"name": "Takeco",
	}, testutil.TechnicianToken())
	if w.Code != http.StatusForbidden {
		t.Fatalf("technician create status = %d, want 403", w.Code)
	}

	// Reads stay open to any authenticated role.
	w = testutil.DoRequest(r, http.MethodGet, "/api/companies", nil, testutil.TechnicianToken())
	if w.Code != http.StatusOK {
		t.Fatalf("technician list status = %d, want 200", w.Code)
	}
}

func TestCompanyRejectsMissingToken(t *testing.T) {
	r := setupCompanyRouter(t)
	w := testutil.DoRequest(r, http.MethodGet, "/api/companies", nil, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", w.Code)
	}
}
