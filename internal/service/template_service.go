// internal/service/template_service.go
package service

import (
	"context"
	"strings"

	appErrors "github.com/carewave/callcare-backend/internal/errors"
	"github.com/carewave/callcare-backend/internal/model"
	"github.com/carewave/callcare-backend/internal/repository"
	"github.com/carewave/callcare-backend/internal/voice"
)

// RenderTemplate substitutes {placeholder} tokens from data.
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		if v == "" {
			v = "<unknown>"
		}
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

type TemplateService struct {
	TemplateRepo repository.TemplateRepositoryInterface
	Voice        VoiceAPI
}

func (s *TemplateService) CreateTemplate(orgID int, t *model.CampaignTemplate) (*model.CampaignTemplate, error) {
	if strings.TrimSpace(t.Name) == "" {
		return nil, appErrors.NewBadRequest("template name is required")
	}
	if strings.TrimSpace(t.BasePrompt) == "" {
		return nil, appErrors.NewBadRequest("base prompt is required")
	}
	t.OrganizationID = orgID
	if err := s.TemplateRepo.Create(t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TemplateService) GetTemplate(orgID, id int) (*model.CampaignTemplate, error) {
	return s.TemplateRepo.GetByID(orgID, id)
}

func (s *TemplateService) ListTemplates(orgID int) ([]model.CampaignTemplate, error) {
	return s.TemplateRepo.List(orgID)
}

func (s *TemplateService) UpdateTemplate(orgID int, t *model.CampaignTemplate) (*model.CampaignTemplate, error) {
	existing, err := s.TemplateRepo.GetByID(orgID, t.ID)
	if err != nil {
		return nil, err
	}
	if t.Name == "" {
		t.Name = existing.Name
	}
	if t.BasePrompt == "" {
		t.BasePrompt = existing.BasePrompt
	}
	t.OrganizationID = orgID
	if err := s.TemplateRepo.Update(t); err != nil {
		return nil, err
	}
	return s.TemplateRepo.GetByID(orgID, t.ID)
}

func (s *TemplateService) DeleteTemplate(orgID, id int) error {
	return s.TemplateRepo.Delete(orgID, id)
}

// GenerateTemplate proxies a plain-language description to the provider's
// LLM endpoint and returns an unsaved template draft.
func (s *TemplateService) GenerateTemplate(ctx context.Context, orgID int, description, specialty string) (*model.CampaignTemplate, error) {
	if strings.TrimSpace(description) == "" {
		return nil, appErrors.NewBadRequest("description is required")
	}

	resp, err := s.Voice.GeneratePrompt(ctx, &voice.GeneratePromptRequest{
		Description: description,
		Specialty:   specialty,
	})
	if err != nil {
		return nil, err
	}

	return &model.CampaignTemplate{
		OrganizationID: orgID,
		Specialty:      specialty,
		BasePrompt:     resp.Prompt,
		FirstMessage:   resp.FirstMessage,
	}, nil
}
