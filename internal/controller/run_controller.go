// internal/controller/run_controller.go
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

type RunController struct {
	RunService *service.RunService
}

func (c *RunController) CreateRun(w http.ResponseWriter, r *http.Request) {
	var body service.CreateRunInput
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, appErrors.NewBadRequest("invalid body"))
		return
	}

	run, err := c.RunService.CreateRun(r.Context(), auth.OrgID(r.Context()), body)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, run)
}

func (c *RunController) ListRuns(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	campaignID, _ := strconv.Atoi(r.URL.Query().Get("campaign_id"))
	status := r.URL.Query().Get("status")

	runs, pagination, err := c.RunService.ListRuns(auth.OrgID(r.Context()), page, pageSize, campaignID, status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       runs,
		"pagination": pagination,
	})
}

func (c *RunController) GetRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, appErrors.NewBadRequest("invalid run id"))
		return
	}

	details, err := c.RunService.GetRunDetails(auth.OrgID(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, details)
}

func (c *RunController) StartRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, appErrors.NewBadRequest("invalid run id"))
		return
	}

	if err := c.RunService.StartRun(r.Context(), auth.OrgID(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "dispatching"})
}

func (c *RunController) CancelRun(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, appErrors.NewBadRequest("invalid run id"))
		return
	}

	run, err := c.RunService.CancelRun(r.Context(), auth.OrgID(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}
