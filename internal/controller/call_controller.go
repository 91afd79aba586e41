// internal/controller/call_controller.go
package controller

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carewave/callcare-backend/internal/auth"
	appErrors "github.com/carewave/callcare-backend/internal/errors"
	"github.com/carewave/callcare-backend/internal/repository"
	"github.com/carewave/callcare-backend/internal/service"
)

type CallController struct {
	CallService *service.CallService
}

func (c *CallController) ListCalls(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))

	filter := repository.CallFilter{
		Status:  q.Get("status"),
		Outcome: q.Get("outcome"),
	}
	filter.RunID, _ = strconv.Atoi(q.Get("run_id"))
	filter.CampaignID, _ = strconv.Atoi(q.Get("campaign_id"))
	filter.PatientID, _ = strconv.Atoi(q.Get("patient_id"))

	calls, pagination, err := c.CallService.ListCalls(auth.OrgID(r.Context()), page, pageSize, filter)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       calls,
		"pagination": pagination,
	})
}

func (c *CallController) GetCall(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, appErrors.NewBadRequest("invalid call id"))
		return
	}

	call, err := c.CallService.GetCall(auth.OrgID(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, call)
}
