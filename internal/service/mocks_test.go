package service_test

import (
	"context"
	"sync"
	"time"

	appErrors "github.com/carewave/callcare-backend/internal/errors"
	"github.com/carewave/callcare-backend/internal/model"
	"github.com/carewave/callcare-backend/internal/realtime"
	"github.com/carewave/callcare-backend/internal/repository"
	"github.com/carewave/callcare-backend/internal/voice"
)

// --- Mock repositories ---

type MockPatientRepo struct {
	mu       sync.Mutex
	patients map[int]*model.Patient
	byHash   map[string]*model.Patient
	nextID   int
}

func NewMockPatientRepo() *MockPatientRepo {
	return &MockPatientRepo{
		patients: map[int]*model.Patient{},
		byHash:   map[string]*model.Patient{},
		nextID:   1,
	}
}

func (m *MockPatientRepo) Create(p *model.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p.ID = m.nextID
	m.nextID++
	m.patients[p.ID] = p
	m.byHash[p.DedupeHash] = p
	return nil
}

func (m *MockPatientRepo) GetByID(orgID, id int) (*model.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok || p.OrganizationID != orgID {
		return nil, appErrors.NewNotFound("patient %d not found", id)
	}
	return p, nil
}

func (m *MockPatientRepo) GetByDedupeHash(orgID int, hash string) (*model.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byHash[hash]
	if !ok || p.OrganizationID != orgID {
		return nil, nil
	}
	return p, nil
}

func (m *MockPatientRepo) List(orgID, offset, limit int, search string) ([]*model.Patient, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Patient
	for _, p := range m.patients {
		if p.OrganizationID == orgID {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (m *MockPatientRepo) ListByIDs(orgID int, ids []int) ([]*model.Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Patient
	for _, id := range ids {
		if p, ok := m.patients[id]; ok && p.OrganizationID == orgID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *MockPatientRepo) Update(p *model.Patient) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patients[p.ID] = p
	m.byHash[p.DedupeHash] = p
	return nil
}

func (m *MockPatientRepo) SoftDelete(orgID, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.patients[id]
	if !ok || p.OrganizationID != orgID {
		return appErrors.NewNotFound("patient %d not found", id)
	}
	delete(m.patients, id)
	delete(m.byHash, p.DedupeHash)
	return nil
}

type MockCampaignRepo struct {
	campaigns map[int]*model.Campaign
	agentIDs  map[int]string
	statuses  map[int]string
}

func NewMockCampaignRepo(campaigns ...*model.Campaign) *MockCampaignRepo {
	m := &MockCampaignRepo{
		campaigns: map[int]*model.Campaign{},
		agentIDs:  map[int]string{},
		statuses:  map[int]string{},
	}
	for _, c := range campaigns {
		m.campaigns[c.ID] = c
	}
	return m
}

func (m *MockCampaignRepo) Create(c *model.Campaign) error {
	c.ID = len(m.campaigns) + 1
	if c.Status == "" {
		c.Status = model.CampaignStatusDraft
	}
	if c.Direction == "" {
		c.Direction = model.CampaignDirectionOutbound
	}
	m.campaigns[c.ID] = c
	return nil
}

func (m *MockCampaignRepo) GetByID(orgID, id int) (*model.Campaign, error) {
	c, ok := m.campaigns[id]
	if !ok || c.OrganizationID != orgID {
		return nil, appErrors.NewCampaignNotFound(id)
	}
	return c, nil
}

func (m *MockCampaignRepo) Update(c *model.Campaign) error {
	m.campaigns[c.ID] = c
	return nil
}

func (m *MockCampaignRepo) UpdateStatus(orgID, campaignID int, status string) error {
	m.statuses[campaignID] = status
	return nil
}

func (m *MockCampaignRepo) UpdateAgentID(orgID, campaignID int, agentID string) error {
	m.agentIDs[campaignID] = agentID
	return nil
}

func (m *MockCampaignRepo) ListCampaigns(orgID, offset, limit int, direction, status string) ([]*model.Campaign, int, error) {
	var out []*model.Campaign
	for _, c := range m.campaigns {
		if c.OrganizationID == orgID {
			out = append(out, c)
		}
	}
	return out, len(out), nil
}

func (m *MockCampaignRepo) GetCallStats(orgID, campaignID int) (map[string]int, error) {
	return map[string]int{"total": 0}, nil
}

func (m *MockCampaignRepo) Archive(orgID, campaignID int) error {
	m.statuses[campaignID] = model.CampaignStatusArchived
	return nil
}

type MockTemplateRepo struct {
	templates map[int]*model.CampaignTemplate
}

func NewMockTemplateRepo(templates ...*model.CampaignTemplate) *MockTemplateRepo {
	m := &MockTemplateRepo{templates: map[int]*model.CampaignTemplate{}}
	for _, t := range templates {
		m.templates[t.ID] = t
	}
	return m
}

func (m *MockTemplateRepo) Create(t *model.CampaignTemplate) error {
	t.ID = len(m.templates) + 1
	m.templates[t.ID] = t
	return nil
}

func (m *MockTemplateRepo) GetByID(orgID, id int) (*model.CampaignTemplate, error) {
	t, ok := m.templates[id]
	if !ok || t.OrganizationID != orgID {
		return nil, appErrors.NewNotFound("template %d not found", id)
	}
	return t, nil
}

func (m *MockTemplateRepo) List(orgID int) ([]model.CampaignTemplate, error) {
	var out []model.CampaignTemplate
	for _, t := range m.templates {
		if t.OrganizationID == orgID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *MockTemplateRepo) Update(t *model.CampaignTemplate) error {
	m.templates[t.ID] = t
	return nil
}

func (m *MockTemplateRepo) Delete(orgID, id int) error {
	delete(m.templates, id)
	return nil
}

type MockRunRepo struct {
	runs    map[int]*model.Run
	claimed map[int]bool
	nextID  int
}

func NewMockRunRepo(runs ...*model.Run) *MockRunRepo {
	m := &MockRunRepo{runs: map[int]*model.Run{}, claimed: map[int]bool{}, nextID: 1}
	for _, r := range runs {
		m.runs[r.ID] = r
		if r.ID >= m.nextID {
			m.nextID = r.ID + 1
		}
	}
	return m
}

func (m *MockRunRepo) Create(run *model.Run) error {
	run.ID = m.nextID
	m.nextID++
	if run.Status == "" {
		run.Status = model.RunStatusScheduled
	}
	m.runs[run.ID] = run
	return nil
}

func (m *MockRunRepo) GetByID(orgID, id int) (*model.Run, error) {
	r, ok := m.runs[id]
	if !ok || r.OrganizationID != orgID {
		return nil, appErrors.NewNotFound("run %d not found", id)
	}
	return r, nil
}

func (m *MockRunRepo) GetAny(id int) (*model.Run, error) {
	r, ok := m.runs[id]
	if !ok {
		return nil, appErrors.NewNotFound("run %d not found", id)
	}
	return r, nil
}

func (m *MockRunRepo) List(orgID, offset, limit int, campaignID int, status string) ([]*model.Run, int, error) {
	var out []*model.Run
	for _, r := range m.runs {
		if r.OrganizationID == orgID {
			out = append(out, r)
		}
	}
	return out, len(out), nil
}

func (m *MockRunRepo) UpdateStatus(orgID, runID int, status string) error {
	m.runs[runID].Status = status
	return nil
}

func (m *MockRunRepo) MarkStarted(runID int) error {
	m.runs[runID].Status = model.RunStatusInProgress
	now := time.Now()
	m.runs[runID].StartedAt = &now
	return nil
}

func (m *MockRunRepo) MarkCompleted(runID int, status string) error {
	m.runs[runID].Status = status
	now := time.Now()
	m.runs[runID].CompletedAt = &now
	return nil
}

func (m *MockRunRepo) ListDue(now time.Time, limit int) ([]*model.Run, error) {
	var out []*model.Run
	for _, r := range m.runs {
		if r.Status == model.RunStatusScheduled && r.ScheduledAt != nil && !r.ScheduledAt.After(now) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockRunRepo) ClaimForDispatch(runID int) (bool, error) {
	r, ok := m.runs[runID]
	if !ok || r.Status != model.RunStatusScheduled {
		return false, nil
	}
	r.Status = model.RunStatusDispatching
	m.claimed[runID] = true
	return true, nil
}

type MockCallRepo struct {
	calls  map[int]*model.Call
	nextID int
}

func NewMockCallRepo(calls ...*model.Call) *MockCallRepo {
	m := &MockCallRepo{calls: map[int]*model.Call{}, nextID: 1}
	for _, c := range calls {
		m.calls[c.ID] = c
		if c.ID >= m.nextID {
			m.nextID = c.ID + 1
		}
	}
	return m
}

func (m *MockCallRepo) CreateForRun(orgID, runID, campaignID, patientID int) (*model.Call, error) {
	for _, c := range m.calls {
		if c.RunID != nil && *c.RunID == runID && c.PatientID == patientID {
			return c, nil
		}
	}
	c := &model.Call{
		ID:             m.nextID,
		OrganizationID: orgID,
		RunID:          &runID,
		CampaignID:     campaignID,
		PatientID:      patientID,
		Status:         model.CallStatusPending,
	}
	m.nextID++
	m.calls[c.ID] = c
	return c, nil
}

func (m *MockCallRepo) GetByID(orgID, id int) (*model.Call, error) {
	c, ok := m.calls[id]
	if !ok || c.OrganizationID != orgID {
		return nil, appErrors.NewNotFound("call %d not found", id)
	}
	return c, nil
}

func (m *MockCallRepo) GetAny(id int) (*model.Call, error) {
	c, ok := m.calls[id]
	if !ok {
		return nil, appErrors.NewNotFound("call %d not found", id)
	}
	return c, nil
}

func (m *MockCallRepo) GetByProviderCallID(providerCallID string) (*model.Call, error) {
	for _, c := range m.calls {
		if c.ProviderCallID == providerCallID {
			return c, nil
		}
	}
	return nil, nil
}

func (m *MockCallRepo) List(orgID, offset, limit int, f repository.CallFilter) ([]*model.Call, int, error) {
	var out []*model.Call
	for _, c := range m.calls {
		if c.OrganizationID != orgID {
			continue
		}
		if f.RunID != 0 && (c.RunID == nil || *c.RunID != f.RunID) {
			continue
		}
		out = append(out, c)
	}
	return out, len(out), nil
}

func (m *MockCallRepo) UpdateStatus(id int, status, lastError string) error {
	c := m.calls[id]
	c.Status = status
	c.LastError = lastError
	return nil
}

func (m *MockCallRepo) MarkDispatchFailed(id int, lastError string) error {
	c := m.calls[id]
	c.Status = model.CallStatusFailed
	c.LastError = lastError
	c.RetryCount++
	return nil
}

func (m *MockCallRepo) SetProviderCallID(id int, providerCallID string) error {
	c := m.calls[id]
	c.ProviderCallID = providerCallID
	c.Status = model.CallStatusQueued
	return nil
}

func (m *MockCallRepo) ApplyResult(id int, res repository.CallResult) error {
	c := m.calls[id]
	c.Status = res.Status
	c.Outcome = res.Outcome
	c.DurationSeconds = res.DurationSeconds
	c.RecordingURL = res.RecordingURL
	c.Transcript = res.Transcript
	c.Summary = res.Summary
	return nil
}

func (m *MockCallRepo) PendingIDsForRun(runID int) ([]int, error) {
	var ids []int
	for _, c := range m.calls {
		if c.RunID != nil && *c.RunID == runID && c.Status == model.CallStatusPending {
			ids = append(ids, c.ID)
		}
	}
	return ids, nil
}

func (m *MockCallRepo) CancelPendingForRun(runID int) (int, error) {
	n := 0
	for _, c := range m.calls {
		if c.RunID == nil || *c.RunID != runID {
			continue
		}
		if c.Status == model.CallStatusPending || c.Status == model.CallStatusQueued {
			c.Status = model.CallStatusCanceled
			n++
		}
	}
	return n, nil
}

func (m *MockCallRepo) OutstandingForRun(runID int) (int, error) {
	n := 0
	for _, c := range m.calls {
		if c.RunID == nil || *c.RunID != runID {
			continue
		}
		switch c.Status {
		case model.CallStatusPending, model.CallStatusQueued,
			model.CallStatusRinging, model.CallStatusInProgress:
			n++
		}
	}
	return n, nil
}

type MockRequestRepo struct {
	requests map[int]*model.CampaignRequest
}

func NewMockRequestRepo() *MockRequestRepo {
	return &MockRequestRepo{requests: map[int]*model.CampaignRequest{}}
}

func (m *MockRequestRepo) Create(req *model.CampaignRequest) error {
	req.ID = len(m.requests) + 1
	if req.Status == "" {
		req.Status = model.CampaignRequestPending
	}
	m.requests[req.ID] = req
	return nil
}

func (m *MockRequestRepo) List(orgID int, status string) ([]model.CampaignRequest, error) {
	var out []model.CampaignRequest
	for _, r := range m.requests {
		if r.OrganizationID == orgID && (status == "" || r.Status == status) {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (m *MockRequestRepo) UpdateStatus(orgID, id int, status string) error {
	r, ok := m.requests[id]
	if !ok || r.OrganizationID != orgID {
		return appErrors.NewNotFound("campaign request %d not found", id)
	}
	r.Status = status
	return nil
}

// --- Mock voice provider ---

type MockVoiceAPI struct {
	PlaceCallErr error
	PlacedCalls  []*voice.PlaceCallRequest
	agents       int
	prompts      int
}

func (m *MockVoiceAPI) CreateAgent(ctx context.Context, a *voice.Agent) (*voice.Agent, error) {
	m.agents++
	out := *a
	out.ID = "agent_mock_1"
	return &out, nil
}

func (m *MockVoiceAPI) UpdateAgent(ctx context.Context, a *voice.Agent) (*voice.Agent, error) {
	return a, nil
}

func (m *MockVoiceAPI) CreatePrompt(ctx context.Context, p *voice.Prompt) (*voice.Prompt, error) {
	m.prompts++
	out := *p
	out.ID = "prompt_mock_1"
	return &out, nil
}

func (m *MockVoiceAPI) UpdatePrompt(ctx context.Context, p *voice.Prompt) (*voice.Prompt, error) {
	return p, nil
}

func (m *MockVoiceAPI) PlaceCall(ctx context.Context, req *voice.PlaceCallRequest) (*voice.PlaceCallResponse, error) {
	if m.PlaceCallErr != nil {
		return nil, m.PlaceCallErr
	}
	m.PlacedCalls = append(m.PlacedCalls, req)
	return &voice.PlaceCallResponse{CallID: "prov_call_1", Status: "queued"}, nil
}

func (m *MockVoiceAPI) GeneratePrompt(ctx context.Context, req *voice.GeneratePromptRequest) (*voice.GeneratePromptResponse, error) {
	return &voice.GeneratePromptResponse{
		Prompt:       "You are an assistant for " + req.Description,
		FirstMessage: "Hello {first_name}",
	}, nil
}

// --- Mock queue and realtime publishers ---

type MockQueue struct {
	mu        sync.Mutex
	Published []any
}

func (m *MockQueue) Publish(queueName string, payload any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Published = append(m.Published, payload)
	return nil
}

type CaptureRealtime struct {
	mu     sync.Mutex
	Events []realtime.Event
}

func (c *CaptureRealtime) PublishEvent(ctx context.Context, channel string, ev realtime.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Events = append(c.Events, ev)
	return nil
}

func (c *CaptureRealtime) ByType(t string) []realtime.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []realtime.Event
	for _, ev := range c.Events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out
}
