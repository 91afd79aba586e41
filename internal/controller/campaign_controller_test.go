package controller_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/carewave/callcare-backend/internal/auth"
	"github.com/carewave/callcare-backend/internal/controller"
	appErrors "github.com/carewave/callcare-backend/internal/errors"
	"github.com/carewave/callcare-backend/internal/model"
	"github.com/carewave/callcare-backend/internal/service"
)

// --- Mock repositories ---

type MockCampaignRepo struct {
	campaign *model.Campaign
}

func (m *MockCampaignRepo) Create(c *model.Campaign) error { c.ID = 1; return nil }
func (m *MockCampaignRepo) GetByID(orgID, id int) (*model.Campaign, error) {
	if m.campaign == nil || m.campaign.OrganizationID != orgID {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return m.campaign, nil
}
func (m *MockCampaignRepo) Update(c *model.Campaign) error                      { return nil }
func (m *MockCampaignRepo) UpdateStatus(orgID, campaignID int, s string) error  { return nil }
func (m *MockCampaignRepo) UpdateAgentID(orgID, campaignID int, a string) error { return nil }
func (m *MockCampaignRepo) Archive(orgID, campaignID int) error                 { return nil }
func (m *MockCampaignRepo) GetCallStats(orgID, campaignID int) (map[string]int, error) {
	return map[string]int{"total": 3, "completed": 2, "pending": 1}, nil
}
func (m *MockCampaignRepo) ListCampaigns(orgID, offset, limit int, direction, status string) ([]*model.Campaign, int, error) {
	return []*model.Campaign{}, 0, nil
}

type MockTemplateRepo struct {
	template *model.CampaignTemplate
}

func (m *MockTemplateRepo) Create(t *model.CampaignTemplate) error { return nil }
func (m *MockTemplateRepo) GetByID(orgID, id int) (*model.CampaignTemplate, error) {
	if m.template == nil {
		return nil, appErrors.NewNotFound("template %d not found", id)
	}
	return m.template, nil
}
func (m *MockTemplateRepo) List(orgID int) ([]model.CampaignTemplate, error) { return nil, nil }
func (m *MockTemplateRepo) Update(t *model.CampaignTemplate) error           { return nil }
func (m *MockTemplateRepo) Delete(orgID, id int) error                       { return nil }

type MockPatientRepo struct {
	patient *model.Patient
}

func (m *MockPatientRepo) Create(p *model.Patient) error { return nil }
func (m *MockPatientRepo) GetByID(orgID, id int) (*model.Patient, error) {
	if m.patient == nil {
		return nil, appErrors.NewNotFound("patient %d not found", id)
	}
	return m.patient, nil
}
func (m *MockPatientRepo) GetByDedupeHash(orgID int, hash string) (*model.Patient, error) {
	return nil, nil
}
func (m *MockPatientRepo) List(orgID, offset, limit int, search string) ([]*model.Patient, int, error) {
	return nil, 0, nil
}
func (m *MockPatientRepo) ListByIDs(orgID int, ids []int) ([]*model.Patient, error) {
	return nil, nil
}
func (m *MockPatientRepo) Update(p *model.Patient) error  { return nil }
func (m *MockPatientRepo) SoftDelete(orgID, id int) error { return nil }

// --- Helpers ---

func scopedRequest(method, target string, body []byte, params map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	ctx := auth.WithScope(req.Context(), 1, 7)

	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)

	return req.WithContext(ctx)
}

// --- Tests ---

func TestPersonalizedPreviewHandler(t *testing.T) {
	one := 1
	svc := &service.CampaignService{
		CampaignRepo: &MockCampaignRepo{campaign: &model.Campaign{
			ID: 1, OrganizationID: 1, TemplateID: &one, Status: model.CampaignStatusDraft,
		}},
		TemplateRepo: &MockTemplateRepo{template: &model.CampaignTemplate{
			ID: 1, OrganizationID: 1,
			BasePrompt: "Hi {first_name} {last_name}, your visit is due.",
		}},
		PatientRepo: &MockPatientRepo{patient: &model.Patient{
			ID: 1, OrganizationID: 1, FirstName: "Maria", LastName: "Lopez", Phone: "+15550100001",
		}},
	}
	ctrl := &controller.CampaignController{CampaignService: svc}

	b, _ := json.Marshal(map[string]interface{}{"patient_id": 1})
	req := scopedRequest("POST", "/campaigns/1/personalized-preview", b, map[string]string{"id": "1"})
	w := httptest.NewRecorder()

	ctrl.PersonalizedPreview(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var res map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	msg, ok := res["rendered_message"].(string)
	if !ok {
		t.Fatalf("rendered_message not found or not a string")
	}
	if !strings.Contains(msg, "Maria") {
		t.Errorf("expected 'Maria' in message, got %q", msg)
	}
}

func TestGetCampaignReturnsStats(t *testing.T) {
	svc := &service.CampaignService{
		CampaignRepo: &MockCampaignRepo{campaign: &model.Campaign{
			ID: 1, OrganizationID: 1, Name: "Wellness outreach", Status: model.CampaignStatusActive,
		}},
	}
	ctrl := &controller.CampaignController{CampaignService: svc}

	req := scopedRequest("GET", "/campaigns/1", nil, map[string]string{"id": "1"})
	w := httptest.NewRecorder()

	ctrl.GetCampaign(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var details service.CampaignDetails
	if err := json.NewDecoder(w.Body).Decode(&details); err != nil {
		t.Fatal(err)
	}
	if details.Stats["total"] != 3 {
		t.Errorf("expected total 3 in stats, got %d", details.Stats["total"])
	}
}

func TestGetCampaignOtherOrgIs404(t *testing.T) {
	svc := &service.CampaignService{
		CampaignRepo: &MockCampaignRepo{campaign: &model.Campaign{
			ID: 1, OrganizationID: 99, // belongs to someone else
		}},
	}
	ctrl := &controller.CampaignController{CampaignService: svc}

	req := scopedRequest("GET", "/campaigns/1", nil, map[string]string{"id": "1"})
	w := httptest.NewRecorder()

	ctrl.GetCampaign(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("cross-org access should 404, got %d", w.Code)
	}
}

func TestTransitionStatusConflict(t *testing.T) {
	svc := &service.CampaignService{
		CampaignRepo: &MockCampaignRepo{campaign: &model.Campaign{
			ID: 1, OrganizationID: 1, Status: model.CampaignStatusArchived,
		}},
	}
	ctrl := &controller.CampaignController{CampaignService: svc}

	b, _ := json.Marshal(map[string]string{"status": "active"})
	req := scopedRequest("POST", "/campaigns/1/status", b, map[string]string{"id": "1"})
	w := httptest.NewRecorder()

	ctrl.TransitionStatus(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("archived -> active should 409, got %d", w.Code)
	}
}
