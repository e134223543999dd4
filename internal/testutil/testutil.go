// Package testutil provides shared helpers for package tests: an isolated
// in-memory database, a test router, token generation and request plumbing.
package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/takeco/cmms/internal/entity"
	"github.com/takeco/cmms/internal/middleware"
)

const JWTSecret = "cmms-test-jwt-secret"

// SetupTestDB opens a private in-memory database and migrates the full
// schema. Each call gets its own database; cleanup closes it.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:test_%s?mode=memory&cache=shared", uuid.New().String()[:8])
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	if err := entity.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test tables: %v", err)
	}

	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
	})

	return db
}

// SetupRouter creates a bare gin router in test mode.
func SetupRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())
	return r
}

// AuthGroup mounts a route group behind JWT auth using the test secret.
func AuthGroup(r *gin.Engine, path string) *gin.RouterGroup {
	return r.Group(path, middleware.JWTAuth(JWTSecret))
}

// GenerateTestToken signs a token the test JWT middleware accepts.
func GenerateTestToken(userID, username, role string) string {
	now := time.Now()
	claims := middleware.JWTClaims{
		UserID:   userID,
		Username: username,
		Role:     role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "takeco-cmms",
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, _ := token.SignedString([]byte(JWTSecret))
	return tokenString
}

// AdminToken returns a token for a default admin actor.
func AdminToken() string {
	return GenerateTestToken("admin-001", "admin", entity.RoleAdmin)
}

// TechnicianToken returns a token for a default technician actor.
func TechnicianToken() string {
	return GenerateTestToken("tech-001", "technician", entity.RoleTechnician)
}

// DoRequest executes an HTTP request against the test router.
func DoRequest(r *gin.Engine, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	if body != nil {
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// ParseResponse decodes the JSON envelope into a map.
func ParseResponse(w *httptest.ResponseRecorder) map[string]interface{} {
	var result map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &result)
	return result
}

// SeedCompany inserts a company row.
func SeedCompany(t *testing.T, db *gorm.DB, name string) *entity.Company {
	t.Helper()
	company := &entity.Company{
		ID:    uuid.New().String(),
		Name:  name,
		Email: name + "@example.com",
	}
	if err := db.Create(company).Error; err != nil {
		t.Fatalf("Failed to seed company: %v", err)
	}
	return company
}

// SeedUser inserts an active user with a bcrypt password.
func SeedUser(t *testing.T, db *gorm.DB, username, password, role string, companyID *string) *entity.User {
	t.Helper()
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	user := &entity.User{
		ID:           uuid.New().String(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: string(hash),
		Role:         role,
		CompanyID:    companyID,
		IsActive:     true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to seed user: %v", err)
	}
	return user
}

// SeedMachine inserts an ACTIVE machine.
func SeedMachine(t *testing.T, db *gorm.DB, code, companyID string) *entity.Machine {
	t.Helper()
	machine := &entity.Machine{
		ID:          uuid.New().String(),
		MachineCode: code,
		Name:        "Machine " + code,
		Category:    "CNC",
		Status:      entity.MachineStatusActive,
		CompanyID:   companyID,
	}
	if err := db.Create(machine).Error; err != nil {
		t.Fatalf("Failed to seed machine: %v", err)
	}
	return machine
}

// SeedPart inserts a part with the given on-hand quantity. The matching
// opening ledger row is seeded too so ledger and cache agree.
func SeedPart(t *testing.T, db *gorm.DB, machineID, code string, quantity int) *entity.MachinePart {
	t.Helper()
	part := &entity.MachinePart{
		ID:             uuid.New().String(),
		MachineID:      machineID,
		PartCode:       code,
		PartName:       "Part " + code,
		UOM:            "pcs",
		QuantityOnHand: quantity,
	}
	if err := db.Create(part).Error; err != nil {
		t.Fatalf("Failed to seed part: %v", err)
	}
	if quantity > 0 {
		tx := &entity.InventoryTransaction{
			ID:              uuid.New().String(),
			PartID:          part.ID,
			TransactionType: entity.TxTypeIn,
			Quantity:        quantity,
			ReferenceType:   entity.RefTypeManual,
			Remarks:         "Initial stock",
			PerformedBy:     "seed",
			TransactionDate: time.Now(),
		}
		if err := db.Create(tx).Error; err != nil {
			t.Fatalf("Failed to seed opening ledger row: %v", err)
		}
	}
	return part
}

// SeedPMTemplate inserts a template with the given checklist items.
func SeedPMTemplate(t *testing.T, db *gorm.DB, name, frequencyType string, frequencyValue int, checkItems ...string) *entity.PMTemplate {
	t.Helper()
	template := &entity.PMTemplate{
		ID:             uuid.New().String(),
		Name:           name,
		FrequencyType:  frequencyType,
		FrequencyValue: frequencyValue,
	}
	for i, item := range checkItems {
		template.Items = append(template.Items, entity.PMTemplateItem{
			ID:           uuid.New().String(),
			PMTemplateID: template.ID,
			ItemOrder:    i + 1,
			CheckItem:    item,
			IsRequired:   true,
		})
	}
	if err := db.Create(template).Error; err != nil {
		t.Fatalf("Failed to seed template: %v", err)
	}
	return template
}
