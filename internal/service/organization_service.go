// internal/service/organization_service.go
package service

import (
	"encoding/json"
	"strings"

	appErrors "github.com/carewave/callcare-backend/internal/errors"
	"github.com/carewave/callcare-backend/internal/model"
	"github.com/carewave/callcare-backend/internal/repository"
)

// OrganizationService syncs identity-provider events into local rows and
// serves the org admin surface.
type OrganizationService struct {
	OrgRepo  repository.OrganizationRepositoryInterface
	UserRepo repository.UserRepositoryInterface
}

func (s *OrganizationService) GetOrganization(orgID int) (*model.Organization, error) {
	return s.OrgRepo.GetByID(orgID)
}

func (s *OrganizationService) UpdateSettings(orgID int, settings json.RawMessage) error {
	if len(settings) == 0 {
		return appErrors.NewBadRequest("settings body is required")
	}
	if !json.Valid(settings) {
		return appErrors.NewBadRequest("settings must be valid JSON")
	}
	return s.OrgRepo.UpdateSettings(orgID, settings)
}

func (s *OrganizationService) ListMembers(orgID int) ([]model.User, error) {
	return s.UserRepo.ListByOrganization(orgID)
}

// ====================== Identity provider sync ======================

func (s *OrganizationService) SyncOrganization(externalID, name string) (*model.Organization, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, appErrors.NewBadRequest("organization external id is required")
	}
	org := &model.Organization{ExternalID: externalID, Name: name}
	if err := s.OrgRepo.UpsertByExternalID(org); err != nil {
		return nil, err
	}
	return org, nil
}

func (s *OrganizationService) RemoveOrganization(externalID string) error {
	return s.OrgRepo.DeleteByExternalID(externalID)
}

// SyncUser upserts a user into the org identified by orgExternalID. The
// org row must already exist; identity providers deliver organization
// events before membership events.
func (s *OrganizationService) SyncUser(externalID, orgExternalID, email, firstName, lastName, role string) (*model.User, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, appErrors.NewBadRequest("user external id is required")
	}

	org, err := s.OrgRepo.GetByExternalID(orgExternalID)
	if err != nil {
		return nil, err
	}
	if org == nil {
		return nil, appErrors.NewNotFound("organization %s not synced yet", orgExternalID)
	}

	u := &model.User{
		ExternalID:     externalID,
		OrganizationID: org.ID,
		Email:          email,
		FirstName:      firstName,
		LastName:       lastName,
		Role:           role,
	}
	if err := s.UserRepo.UpsertByExternalID(u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *OrganizationService) RemoveUser(externalID string) error {
	return s.UserRepo.DeleteByExternalID(externalID)
}
