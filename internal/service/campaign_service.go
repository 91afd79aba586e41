// internal/service/campaign_service.go
package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	appErrors "github.com/carewave/callcare-backend/internal/errors"
	"github.com/carewave/callcare-backend/internal/model"
	"github.com/carewave/callcare-backend/internal/repository"
	"github.com/carewave/callcare-backend/internal/voice"
)

type CampaignService struct {
	CampaignRepo repository.CampaignRepositoryInterface
	TemplateRepo repository.TemplateRepositoryInterface
	PatientRepo  repository.PatientRepositoryInterface
	RequestRepo  repository.CampaignRequestRepositoryInterface
	Voice        VoiceAPI
}

// CampaignDetails is the detail view with per-status call stats.
type CampaignDetails struct {
	ID         int            `json:"id"`
	Name       string         `json:"name"`
	Direction  string         `json:"direction"`
	Status     string         `json:"status"`
	AgentID    string         `json:"agent_id,omitempty"`
	TemplateID *int           `json:"template_id,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  *time.Time     `json:"updated_at,omitempty"`
	Stats      map[string]int `json:"stats"`
}

type CreateCampaignInput struct {
	Name       string `json:"name"`
	Direction  string `json:"direction"`
	TemplateID *int   `json:"template_id"`
}

// CreateCampaign stores the row and provisions a provider-side agent when a
// template is attached.
func (s *CampaignService) CreateCampaign(ctx context.Context, orgID int, in CreateCampaignInput) (*model.Campaign, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, appErrors.NewBadRequest("campaign name is required")
	}
	if in.Direction != "" && in.Direction != model.CampaignDirectionOutbound && in.Direction != model.CampaignDirectionInbound {
		return nil, appErrors.NewBadRequest("direction must be outbound or inbound")
	}

	c := &model.Campaign{
		OrganizationID: orgID,
		Name:           in.Name,
		Direction:      in.Direction,
		Status:         model.CampaignStatusDraft,
		TemplateID:     in.TemplateID,
	}
	if err := s.CampaignRepo.Create(c); err != nil {
		return nil, err
	}

	if in.TemplateID != nil {
		agentID, err := s.provisionAgent(ctx, orgID, c)
		if err != nil {
			// The campaign row exists either way; the agent can be retried
			// on the next update.
			log.Warn().Err(err).Int("campaign_id", c.ID).Msg("⚠️ agent provisioning failed")
			return c, nil
		}
		c.AgentID = agentID
	}

	return c, nil
}

func (s *CampaignService) provisionAgent(ctx context.Context, orgID int, c *model.Campaign) (string, error) {
	tmpl, err := s.TemplateRepo.GetByID(orgID, *c.TemplateID)
	if err != nil {
		return "", err
	}

	prompt, err := s.Voice.CreatePrompt(ctx, &voice.Prompt{Content: tmpl.BasePrompt})
	if err != nil {
		return "", err
	}

	agent, err := s.Voice.CreateAgent(ctx, &voice.Agent{
		Name:         c.Name,
		Direction:    c.Direction,
		PromptID:     prompt.ID,
		FirstMessage: tmpl.FirstMessage,
	})
	if err != nil {
		return "", err
	}

	if err := s.CampaignRepo.UpdateAgentID(orgID, c.ID, agent.ID); err != nil {
		return "", err
	}
	return agent.ID, nil
}

type UpdateCampaignInput struct {
	Name       *string `json:"name"`
	TemplateID *int    `json:"template_id"`
}

// UpdateCampaign applies field changes and re-syncs the provider prompt
// when the template changed.
func (s *CampaignService) UpdateCampaign(ctx context.Context, orgID, campaignID int, in UpdateCampaignInput) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(orgID, campaignID)
	if err != nil {
		return nil, err
	}
	if c.Status == model.CampaignStatusArchived {
		return nil, appErrors.NewConflict("archived campaigns cannot be edited")
	}

	templateChanged := false
	if in.Name != nil && strings.TrimSpace(*in.Name) != "" {
		c.Name = *in.Name
	}
	if in.TemplateID != nil {
		c.TemplateID = in.TemplateID
		templateChanged = true
	}

	if err := s.CampaignRepo.Update(c); err != nil {
		return nil, err
	}

	if templateChanged && c.AgentID != "" {
		tmpl, err := s.TemplateRepo.GetByID(orgID, *c.TemplateID)
		if err != nil {
			return nil, err
		}
		if _, err := s.Voice.CreatePrompt(ctx, &voice.Prompt{Content: tmpl.BasePrompt}); err != nil {
			log.Warn().Err(err).Int("campaign_id", c.ID).Msg("⚠️ prompt sync failed")
		}
	} else if templateChanged && c.AgentID == "" {
		if agentID, err := s.provisionAgent(ctx, orgID, c); err == nil {
			c.AgentID = agentID
		}
	}

	return c, nil
}

// campaignTransitions lists the allowed status moves.
var campaignTransitions = map[string][]string{
	model.CampaignStatusDraft:  {model.CampaignStatusActive, model.CampaignStatusArchived},
	model.CampaignStatusActive: {model.CampaignStatusPaused, model.CampaignStatusArchived},
	model.CampaignStatusPaused: {model.CampaignStatusActive, model.CampaignStatusArchived},
}

func (s *CampaignService) TransitionStatus(orgID, campaignID int, target string) (*model.Campaign, error) {
	c, err := s.CampaignRepo.GetByID(orgID, campaignID)
	if err != nil {
		return nil, err
	}

	allowed := false
	for _, next := range campaignTransitions[c.Status] {
		if next == target {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, appErrors.NewConflict("campaign cannot move from %s to %s", c.Status, target)
	}

	if err := s.CampaignRepo.UpdateStatus(orgID, campaignID, target); err != nil {
		return nil, err
	}
	c.Status = target
	return c, nil
}

// ListCampaigns fetches campaigns with pagination
func (s *CampaignService) ListCampaigns(orgID, page, pageSize int, direction, status string) ([]model.Campaign, map[string]int, error) {
	page, pageSize, offset := clampPage(page, pageSize)

	ptrs, total, err := s.CampaignRepo.ListCampaigns(orgID, offset, pageSize, direction, status)
	if err != nil {
		return nil, nil, err
	}

	campaigns := make([]model.Campaign, len(ptrs))
	for i, c := range ptrs {
		campaigns[i] = *c
	}

	return campaigns, buildPagination(page, pageSize, total), nil
}

func (s *CampaignService) GetCampaignDetailsWithStats(orgID, campaignID int) (*CampaignDetails, error) {
	campaign, err := s.CampaignRepo.GetByID(orgID, campaignID)
	if err != nil {
		return nil, err
	}

	stats, err := s.CampaignRepo.GetCallStats(orgID, campaignID)
	if err != nil {
		return nil, err
	}

	return &CampaignDetails{
		ID:         campaign.ID,
		Name:       campaign.Name,
		Direction:  campaign.Direction,
		Status:     campaign.Status,
		AgentID:    campaign.AgentID,
		TemplateID: campaign.TemplateID,
		CreatedAt:  campaign.CreatedAt,
		UpdatedAt:  campaign.UpdatedAt,
		Stats:      stats,
	}, nil
}

// RenderPreview renders the campaign's template against one patient, with
// an optional override template for experimenting from the editor.
func (s *CampaignService) RenderPreview(orgID, campaignID, patientID int, overrideTemplate *string) (string, error) {
	campaign, err := s.CampaignRepo.GetByID(orgID, campaignID)
	if err != nil {
		return "", err
	}

	patient, err := s.PatientRepo.GetByID(orgID, patientID)
	if err != nil {
		return "", err
	}

	template := ""
	if campaign.TemplateID != nil {
		tmpl, err := s.TemplateRepo.GetByID(orgID, *campaign.TemplateID)
		if err != nil {
			return "", err
		}
		template = tmpl.BasePrompt
	}

	if overrideTemplate != nil && strings.TrimSpace(*overrideTemplate) != "" {
		template = *overrideTemplate
	}

	if strings.TrimSpace(template) == "" {
		return "", appErrors.NewBadRequest("template cannot be empty")
	}

	return RenderTemplate(template, PatientVariables(patient)), nil
}

// PatientVariables is the placeholder set available to prompt templates.
func PatientVariables(p *model.Patient) map[string]string {
	return map[string]string{
		"first_name":    p.FirstName,
		"last_name":     p.LastName,
		"phone":         p.Phone,
		"date_of_birth": p.DateOfBirth,
	}
}

// ====================== Campaign requests ======================

func (s *CampaignService) CreateCampaignRequest(orgID, requesterID int, description string) (*model.CampaignRequest, error) {
	if strings.TrimSpace(description) == "" {
		return nil, appErrors.NewBadRequest("description is required")
	}
	req := &model.CampaignRequest{
		OrganizationID: orgID,
		RequesterID:    requesterID,
		Description:    description,
	}
	if err := s.RequestRepo.Create(req); err != nil {
		return nil, err
	}
	return req, nil
}

func (s *CampaignService) ListCampaignRequests(orgID int, status string) ([]model.CampaignRequest, error) {
	return s.RequestRepo.List(orgID, status)
}

func (s *CampaignService) ReviewCampaignRequest(orgID, requestID int, status string) error {
	if status != model.CampaignRequestApproved && status != model.CampaignRequestRejected {
		return appErrors.NewBadRequest("status must be approved or rejected")
	}
	return s.RequestRepo.UpdateStatus(orgID, requestID, status)
}
