package handler_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	appErrors "github.com/carewave/callcare-backend/internal/errors"
	"github.com/carewave/callcare-backend/internal/handler"
	"github.com/carewave/callcare-backend/internal/model"
	"github.com/carewave/callcare-backend/internal/service"
)

// In-memory org store keyed by external id.
type MockSyncOrgRepo struct {
	MockOrgRepo
	orgs map[string]*model.Organization
}

func (m *MockSyncOrgRepo) GetByExternalID(externalID string) (*model.Organization, error) {
	return m.orgs[externalID], nil
}

func (m *MockSyncOrgRepo) UpsertByExternalID(o *model.Organization) error {
	if existing, ok := m.orgs[o.ExternalID]; ok {
		existing.Name = o.Name
		*o = *existing
		return nil
	}
	o.ID = len(m.orgs) + 1
	m.orgs[o.ExternalID] = o
	return nil
}

func (m *MockSyncOrgRepo) DeleteByExternalID(externalID string) error {
	delete(m.orgs, externalID)
	return nil
}

type MockUserRepo struct {
	users map[string]*model.User
}

func (m *MockUserRepo) GetByID(id int) (*model.User, error) {
	return nil, appErrors.NewNotFound("user %d not found", id)
}

func (m *MockUserRepo) GetByExternalID(externalID string) (*model.User, error) {
	return m.users[externalID], nil
}

func (m *MockUserRepo) UpsertByExternalID(u *model.User) error {
	if m.users == nil {
		m.users = map[string]*model.User{}
	}
	u.ID = len(m.users) + 1
	m.users[u.ExternalID] = u
	return nil
}

func (m *MockUserRepo) DeleteByExternalID(externalID string) error {
	delete(m.users, externalID)
	return nil
}

func (m *MockUserRepo) ListByOrganization(orgID int) ([]model.User, error) {
	return nil, nil
}

func newIdentityFixture() (*handler.IdentityWebhookHandler, *MockSyncOrgRepo, *MockUserRepo) {
	orgRepo := &MockSyncOrgRepo{orgs: map[string]*model.Organization{}}
	userRepo := &MockUserRepo{users: map[string]*model.User{}}
	h := &handler.IdentityWebhookHandler{
		Secret:     testSecret,
		OrgService: &service.OrganizationService{OrgRepo: orgRepo, UserRepo: userRepo},
	}
	return h, orgRepo, userRepo
}

func postIdentity(h *handler.IdentityWebhookHandler, body []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", "/webhooks/identity", bytes.NewReader(body))
	req.Header.Set("X-Identity-Signature", signature)
	w := httptest.NewRecorder()
	h.HandleEvent(w, req)
	return w
}

func TestIdentityWebhookRejectsBadSignature(t *testing.T) {
	h, _, _ := newIdentityFixture()
	body := []byte(`{"type":"organization.created","data":{"id":"org_1","name":"Clinic"}}`)

	if w := postIdentity(h, body, "bogus"); w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
}

func TestIdentityWebhookOrganizationLifecycle(t *testing.T) {
	h, orgRepo, _ := newIdentityFixture()

	body := []byte(`{"type":"organization.created","data":{"id":"org_1","name":"Lakeside Clinic"}}`)
	if w := postIdentity(h, body, sign(body, testSecret)); w.Code != http.StatusOK {
		t.Fatalf("create failed: %d", w.Code)
	}
	if orgRepo.orgs["org_1"] == nil || orgRepo.orgs["org_1"].Name != "Lakeside Clinic" {
		t.Fatalf("organization not synced: %+v", orgRepo.orgs)
	}

	body = []byte(`{"type":"organization.updated","data":{"id":"org_1","name":"Lakeside Family Clinic"}}`)
	if w := postIdentity(h, body, sign(body, testSecret)); w.Code != http.StatusOK {
		t.Fatalf("update failed: %d", w.Code)
	}
	if orgRepo.orgs["org_1"].Name != "Lakeside Family Clinic" {
		t.Errorf("rename not applied: %q", orgRepo.orgs["org_1"].Name)
	}

	body = []byte(`{"type":"organization.deleted","data":{"id":"org_1"}}`)
	if w := postIdentity(h, body, sign(body, testSecret)); w.Code != http.StatusOK {
		t.Fatalf("delete failed: %d", w.Code)
	}
	if orgRepo.orgs["org_1"] != nil {
		t.Error("organization should be removed")
	}
}

func TestIdentityWebhookUserRequiresKnownOrg(t *testing.T) {
	h, _, userRepo := newIdentityFixture()

	body := []byte(`{"type":"user.created","data":{"user_id":"user_1","organization_id":"org_missing","email":"a@b.c"}}`)
	w := postIdentity(h, body, sign(body, testSecret))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("user sync into an unknown org should fail, got %d", w.Code)
	}
	if len(userRepo.users) != 0 {
		t.Error("no user row should exist")
	}
}

func TestIdentityWebhookUserSync(t *testing.T) {
	h, _, userRepo := newIdentityFixture()

	orgBody := []byte(`{"type":"organization.created","data":{"id":"org_1","name":"Clinic"}}`)
	postIdentity(h, orgBody, sign(orgBody, testSecret))

	body := []byte(`{"type":"user.created","data":{"user_id":"user_1","organization_id":"org_1","email":"dana@clinic.example","first_name":"Dana","role":"admin"}}`)
	if w := postIdentity(h, body, sign(body, testSecret)); w.Code != http.StatusOK {
		t.Fatalf("user sync failed: %d", w.Code)
	}

	u := userRepo.users["user_1"]
	if u == nil || u.Email != "dana@clinic.example" || u.Role != "admin" {
		t.Errorf("user not synced: %+v", u)
	}
}

func TestIdentityWebhookUnknownTypeIsIgnored(t *testing.T) {
	h, _, _ := newIdentityFixture()

	body := []byte(`{"type":"session.created","data":{"id":"sess_1"}}`)
	w := postIdentity(h, body, sign(body, testSecret))
	if w.Code != http.StatusOK {
		t.Errorf("unknown types should be acked, got %d", w.Code)
	}
}
