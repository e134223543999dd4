package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/takeco/cmms/internal/entity"
	"github.com/takeco/cmms/internal/repository"
)

type MachineService struct {
	db          *gorm.DB
	machineRepo *repository.MachineRepository
	companyRepo *repository.CompanyRepository
	docRepo     *repository.MachineDocumentRepository
}

func NewMachineService(db *gorm.DB, machineRepo *repository.MachineRepository, companyRepo *repository.CompanyRepository, docRepo *repository.MachineDocumentRepository) *MachineService {
	return &MachineService{db: db, machineRepo: machineRepo, companyRepo: companyRepo, docRepo: docRepo}
}

type CreateMachineRequest struct {
	MachineCode      string     `json:"machine_code" binding:"required,max=50"`
	Name             string     `json:"name" binding:"required,max=128"`
	Category         string     `json:"category"`
	Model            string     `json:"model"`
	SerialNumber     string     `json:"serial_number"`
	Location         string     `json:"location"`
	Status           string     `json:"status"`
	CompanyID        string     `json:"company_id" binding:"required"`
	InstallationDate *time.Time `json:"installation_date"`
	ImageURL         string     `json:"image_url"`
	Description      string     `json:"description"`
}

type UpdateMachineRequest struct {
	Name             *string    `json:"name"`
	Category         *string    `json:"category"`
	Model            *string    `json:"model"`
	SerialNumber     *string    `json:"serial_number"`
	Location         *string    `json:"location"`
	Status           *string    `json:"status"`
	CompanyID        *string    `json:"company_id"`
	InstallationDate *time.Time `json:"installation_date"`
	ImageURL         *string    `json:"image_url"`
	Description      *string    `json:"description"`
}

func validMachineStatus(status string) bool {
	switch status {
	case entity.MachineStatusActive, entity.MachineStatusInactive,
		entity.MachineStatusMaintenance, entity.MachineStatusRetired:
		return true
	}
	return false
}

func (s *MachineService) List(params repository.MachineListParams) ([]entity.Machine, int64, error) {
	return s.machineRepo.List(params)
}

func (s *MachineService) Get(id string) (*entity.Machine, error) {
	machine, err := s.machineRepo.GetByID(id)
	if err != nil {
		return nil, wrapNotFound(err, "machine")
	}
	return machine, nil
}

func (s *MachineService) GetByCode(code string) (*entity.Machine, error) {
	machine, err := s.machineRepo.GetByCode(code)
	if err != nil {
		return nil, wrapNotFound(err, "machine")
	}
	return machine, nil
}

func (s *MachineService) Create(req *CreateMachineRequest) (*entity.Machine, error) {
	if _, err := s.companyRepo.GetByID(req.CompanyID); err != nil {
		return nil, wrapNotFound(err, "company")
	}
	if _, err := s.machineRepo.GetByCode(req.MachineCode); err == nil {
		return nil, conflictf("machine code %q already exists", req.MachineCode)
	}

	status := req.Status
	if status == "" {
		status = entity.MachineStatusActive
	}
	if !validMachineStatus(status) {
		return nil, validationf("unknown machine status %q", status)
	}

	machine := &entity.Machine{
		ID:               uuid.New().String(),
		MachineCode:      req.MachineCode,
		Name:             req.Name,
		Category:         req.Category,
		Model:            req.Model,
		SerialNumber:     req.SerialNumber,
		Location:         req.Location,
		Status:           status,
		CompanyID:        req.CompanyID,
		InstallationDate: req.InstallationDate,
		ImageURL:         req.ImageURL,
		Description:      req.Description,
	}
	if err := s.machineRepo.Create(machine); err != nil {
		return nil, fmt.Errorf("create machine: %w", err)
	}
	return machine, nil
}

func (s *MachineService) Update(id string, req *UpdateMachineRequest) (*entity.Machine, error) {
	machine, err := s.machineRepo.GetByID(id)
	if err != nil {
		return nil, wrapNotFound(err, "machine")
	}

	if req.Name != nil {
		machine.Name = *req.Name
	}
	if req.Category != nil {
		machine.Category = *req.Category
	}
	if req.Model != nil {
		machine.Model = *req.Model
	}
	if req.SerialNumber != nil {
		machine.SerialNumber = *req.SerialNumber
	}
	if req.Location != nil {
		machine.Location = *req.Location
	}
	if req.Status != nil {
		if !validMachineStatus(*req.Status) {
			return nil, validationf("unknown machine status %q", *req.Status)
		}
		machine.Status = *req.Status
	}
	if req.CompanyID != nil {
		if _, err := s.companyRepo.GetByID(*req.CompanyID); err != nil {
			return nil, wrapNotFound(err, "company")
		}
		machine.CompanyID = *req.CompanyID
	}
	if req.InstallationDate != nil {
		machine.InstallationDate = req.InstallationDate
	}
	if req.ImageURL != nil {
		machine.ImageURL = *req.ImageURL
	}
	if req.Description != nil {
		machine.Description = *req.Description
	}

	if err := s.machineRepo.Update(machine); err != nil {
		return nil, fmt.Errorf("update machine: %w", err)
	}
	return machine, nil
}

// UpdateStatus is the narrow endpoint the mobile client uses.
func (s *MachineService) UpdateStatus(id, status string) (*entity.Machine, error) {
	if !validMachineStatus(status) {
		return nil, validationf("unknown machine status %q", status)
	}
	machine, err := s.machineRepo.GetByID(id)
	if err != nil {
		return nil, wrapNotFound(err, "machine")
	}
	if err := s.machineRepo.UpdateStatus(id, status); err != nil {
		return nil, fmt.Errorf("update machine status: %w", err)
	}
	machine.Status = status
	return machine, nil
}

type BulkStatusRequest struct {
	MachineIDs []string `json:"machine_ids" binding:"required,min=1"`
	Status     string   `json:"status" binding:"required"`
}

// BulkUpdateStatus flips a set of machines in one transaction; an unknown
// machine ID rolls the whole batch back.
func (s *MachineService) BulkUpdateStatus(req *BulkStatusRequest) ([]entity.Machine, error) {
	if !validMachineStatus(req.Status) {
		return nil, validationf("unknown machine status %q", req.Status)
	}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.machineRepo.WithTx(tx)
		for _, id := range req.MachineIDs {
			if _, err := repo.GetByID(id); err != nil {
				return wrapNotFound(err, "machine")
			}
			if err := repo.UpdateStatus(id, req.Status); err != nil {
				return fmt.Errorf("update machine status: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.machineRepo.ListByIDs(req.MachineIDs)
}

// Delete refuses while open repairs reference the machine.
func (s *MachineService) Delete(id string) error {
	if _, err := s.machineRepo.GetByID(id); err != nil {
		return wrapNotFound(err, "machine")
	}
	open, err := s.machineRepo.CountOpenRepairs(id, "")
	if err != nil {
		return err
	}
	if open > 0 {
		return conflictf("machine has %d open repair work(s)", open)
	}
	return s.machineRepo.Delete(id)
}

func (s *MachineService) StatusSummary(companyID string) ([]repository.MachineStatusCount, error) {
	return s.machineRepo.CountByStatus(companyID)
}

// ========== Documents ==========

type CreateDocumentRequest struct {
	Title    string `json:"title" binding:"required,max=128"`
	DocType  string `json:"doc_type"`
	FileURL  string `json:"file_url" binding:"required"`
	FileName string `json:"file_name"`
	FileSize int64  `json:"file_size"`
}

func (s *MachineService) ListDocuments(machineID, docType string) ([]entity.MachineDocument, error) {
	if _, err := s.machineRepo.GetByID(machineID); err != nil {
		return nil, wrapNotFound(err, "machine")
	}
	return s.docRepo.ListByMachine(machineID, docType)
}

func (s *MachineService) AddDocument(machineID, uploadedBy string, req *CreateDocumentRequest) (*entity.MachineDocument, error) {
	if _, err := s.machineRepo.GetByID(machineID); err != nil {
		return nil, wrapNotFound(err, "machine")
	}

	doc := &entity.MachineDocument{
		ID:         uuid.New().String(),
		MachineID:  machineID,
		Title:      req.Title,
		DocType:    req.DocType,
		FileURL:    req.FileURL,
		FileName:   req.FileName,
		FileSize:   req.FileSize,
		UploadedBy: uploadedBy,
	}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	return doc, nil
}

func (s *MachineService) DeleteDocument(id string) error {
	if _, err := s.docRepo.GetByID(id); err != nil {
		return wrapNotFound(err, "document")
	}
	return s.docRepo.Delete(id)
}
