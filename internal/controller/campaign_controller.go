// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carewave/callcare-backend/internal/auth"
	appErrors "github.com/carewave/callcare-backend/internal/errors"
	"github.com/carewave/callcare-backend/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	var body service.CreateCampaignInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, appErrors.NewBadRequest("invalid body"))
		return
	}

	campaign, err := c.CampaignService.CreateCampaign(r.Context(), auth.OrgID(r.Context()), body)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, campaign)
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	direction := r.URL.Query().Get("direction")
	status := r.URL.Query().Get("status")

	campaigns, pagination, err := c.CampaignService.ListCampaigns(auth.OrgID(r.Context()), page, pageSize, direction, status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *CampaignController) GetCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, appErrors.NewBadRequest("invalid campaign id"))
		return
	}

	details, err := c.CampaignService.GetCampaignDetailsWithStats(auth.OrgID(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

func (c *CampaignController) UpdateCampaign(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, appErrors.NewBadRequest("invalid campaign id"))
		return
	}

	var body service.UpdateCampaignInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, appErrors.NewBadRequest("invalid body"))
		return
	}

	campaign, err := c.CampaignService.UpdateCampaign(r.Context(), auth.OrgID(r.Context()), id, body)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) TransitionStatus(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, appErrors.NewBadRequest("invalid campaign id"))
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, appErrors.NewBadRequest("invalid body"))
		return
	}

	campaign, err := c.CampaignService.TransitionStatus(auth.OrgID(r.Context()), id, body.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, campaign)
}

func (c *CampaignController) PersonalizedPreview(w http.ResponseWriter, r *http.Request) {
	campaignID, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, appErrors.NewBadRequest("invalid campaign id"))
		return
	}

	var body struct {
		PatientID        int     `json:"patient_id"`
		OverrideTemplate *string `json:"override_template"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, appErrors.NewBadRequest("invalid body"))
		return
	}

	rendered, err := c.CampaignService.RenderPreview(auth.OrgID(r.Context()), campaignID, body.PatientID, body.OverrideTemplate)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rendered_message": rendered,
		"used_template":    body.OverrideTemplate,
		"patient_id":       body.PatientID,
	})
}

// ====================== Campaign requests ======================

func (c *CampaignController) CreateCampaignRequest(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, appErrors.NewBadRequest("invalid body"))
		return
	}

	req, err := c.CampaignService.CreateCampaignRequest(auth.OrgID(r.Context()), auth.UserID(r.Context()), body.Description)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, req)
}

func (c *CampaignController) ListCampaignRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := c.CampaignService.ListCampaignRequests(auth.OrgID(r.Context()), r.URL.Query().Get("status"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": reqs})
}

func (c *CampaignController) ReviewCampaignRequest(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, appErrors.NewBadRequest("invalid request id"))
		return
	}

	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, appErrors.NewBadRequest("invalid body"))
		return
	}

	if err := c.CampaignService.ReviewCampaignRequest(auth.OrgID(r.Context()), id, body.Status); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": body.Status})
}
