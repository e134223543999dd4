package service

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/takeco/cmms/internal/entity"
	"github.com/takeco/cmms/internal/repository"
)

type PMTemplateService struct {
	templateRepo *repository.PMTemplateRepository
}

func NewPMTemplateService(templateRepo *repository.PMTemplateRepository) *PMTemplateService {
	return &PMTemplateService{templateRepo: templateRepo}
}

type TemplateItemInput struct {
	ItemOrder     int    `json:"item_order"`
	CheckItem     string `json:"check_item" binding:"required,max=255"`
	Description   string `json:"description"`
	StandardValue string `json:"standard_value"`
	Unit          string `json:"unit"`
	IsRequired    *bool  `json:"is_required"`
	RequiresPhoto bool   `json:"requires_photo"`
}

type CreatePMTemplateRequest struct {
	Name            string              `json:"name" binding:"required,max=128"`
	Description     string              `json:"description"`
	MachineCategory string              `json:"machine_category"`
	FrequencyType   string              `json:"frequency_type" binding:"required,oneof=HOURLY DAILY WEEKLY MONTHLY"`
	FrequencyValue  int                 `json:"frequency_value" binding:"required,min=1"`
	EstimatedHours  float64             `json:"estimated_hours"`
	Items           []TemplateItemInput `json:"items"`
}

type UpdatePMTemplateRequest struct {
	Name            *string             `json:"name"`
	Description     *string             `json:"description"`
	MachineCategory *string             `json:"machine_category"`
	FrequencyType   *string             `json:"frequency_type"`
	FrequencyValue  *int                `json:"frequency_value"`
	EstimatedHours  *float64            `json:"estimated_hours"`
	Items           []TemplateItemInput `json:"items"`
}

// NextDueDate advances from a base time by the template's recurrence. Unknown
// frequency types fall back to monthly so a bad row never stalls the chain.
func NextDueDate(base time.Time, frequencyType string, frequencyValue int) time.Time {
	if frequencyValue < 1 {
		frequencyValue = 1
	}
	switch frequencyType {
	case entity.FrequencyHourly:
		return base.Add(time.Duration(frequencyValue) * time.Hour)
	case entity.FrequencyDaily:
		return base.AddDate(0, 0, frequencyValue)
	case entity.FrequencyWeekly:
		return base.AddDate(0, 0, 7*frequencyValue)
	case entity.FrequencyMonthly:
		return base.AddDate(0, frequencyValue, 0)
	default:
		return base.AddDate(0, frequencyValue, 0)
	}
}

func buildItems(templateID string, inputs []TemplateItemInput) []entity.PMTemplateItem {
	items := make([]entity.PMTemplateItem, 0, len(inputs))
	for i, in := range inputs {
		order := in.ItemOrder
		if order == 0 {
			order = i + 1
		}
		required := true
		if in.IsRequired != nil {
			required = *in.IsRequired
		}
		items = append(items, entity.PMTemplateItem{
			ID:            uuid.New().String(),
			PMTemplateID:  templateID,
			ItemOrder:     order,
			CheckItem:     in.CheckItem,
			Description:   in.Description,
			StandardValue: in.StandardValue,
			Unit:          in.Unit,
			IsRequired:    required,
			RequiresPhoto: in.RequiresPhoto,
		})
	}
	return items
}

func (s *PMTemplateService) List(params repository.PMTemplateListParams) ([]entity.PMTemplate, int64, error) {
	return s.templateRepo.List(params)
}

func (s *PMTemplateService) Get(id string) (*entity.PMTemplate, error) {
	template, err := s.templateRepo.GetByID(id)
	if err != nil {
		return nil, wrapNotFound(err, "template")
	}
	return template, nil
}

func (s *PMTemplateService) Create(req *CreatePMTemplateRequest) (*entity.PMTemplate, error) {
	template := &entity.PMTemplate{
		ID:              uuid.New().String(),
		Name:            req.Name,
		Description:     req.Description,
		MachineCategory: req.MachineCategory,
		FrequencyType:   req.FrequencyType,
		FrequencyValue:  req.FrequencyValue,
		EstimatedHours:  req.EstimatedHours,
		Items:           buildItems("", req.Items),
	}
	for i := range template.Items {
		template.Items[i].PMTemplateID = template.ID
	}
	if err := s.templateRepo.Create(template); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	return template, nil
}

func (s *PMTemplateService) Update(id string, req *UpdatePMTemplateRequest) (*entity.PMTemplate, error) {
	template, err := s.templateRepo.GetByID(id)
	if err != nil {
		return nil, wrapNotFound(err, "template")
	}

	if req.Name != nil {
		template.Name = *req.Name
	}
	if req.Description != nil {
		template.Description = *req.Description
	}
	if req.MachineCategory != nil {
		template.MachineCategory = *req.MachineCategory
	}
	if req.FrequencyType != nil {
		switch *req.FrequencyType {
		case entity.FrequencyHourly, entity.FrequencyDaily, entity.FrequencyWeekly, entity.FrequencyMonthly:
			template.FrequencyType = *req.FrequencyType
		default:
			return nil, validationf("unknown frequency type %q", *req.FrequencyType)
		}
	}
	if req.FrequencyValue != nil {
		if *req.FrequencyValue < 1 {
			return nil, validationf("frequency value must be at least 1")
		}
		template.FrequencyValue = *req.FrequencyValue
	}
	if req.EstimatedHours != nil {
		template.EstimatedHours = *req.EstimatedHours
	}

	// Checklist edits only touch future schedules; existing results keep
	// referencing the old item rows through their ids.
	template.Items = nil
	if err := s.templateRepo.Update(template); err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	if req.Items != nil {
		if err := s.templateRepo.ReplaceItems(id, buildItems(id, req.Items)); err != nil {
			return nil, fmt.Errorf("replace template items: %w", err)
		}
	}
	return s.Get(id)
}

// Delete refuses while schedules reference the template.
func (s *PMTemplateService) Delete(id string) error {
	if _, err := s.templateRepo.GetByID(id); err != nil {
		return wrapNotFound(err, "template")
	}
	count, err := s.templateRepo.CountSchedules(id)
	if err != nil {
		return err
	}
	if count > 0 {
		return conflictf("template has %d schedule(s)", count)
	}
	return s.templateRepo.Delete(id)
}

func (s *PMTemplateService) Categories() ([]string, error) {
	return s.templateRepo.Categories()
}
