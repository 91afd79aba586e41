// internal/controller/patient_controller.go
package controller

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/carewave/callcare-backend/internal/auth"
	appErrors "github.com/carewave/callcare-backend/internal/errors"
	"github.com/carewave/callcare-backend/internal/model"
	"github.com/carewave/callcare-backend/internal/service"
)

type PatientController struct {
	PatientService *service.PatientService
}

// UploadPatients ingests a JSON array of patient rows with dedupe.
func (c *PatientController) UploadPatients(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Patients []service.PatientUpload `json:"patients"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, appErrors.NewBadRequest("invalid body"))
		return
	}

	result, err := c.PatientService.UploadPatients(auth.OrgID(r.Context()), body.Patients)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

func (c *PatientController) ListPatients(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	search := r.URL.Query().Get("search")

	patients, pagination, err := c.PatientService.ListPatients(auth.OrgID(r.Context()), page, pageSize, search)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       patients,
		"pagination": pagination,
	})
}

func (c *PatientController) GetPatient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, appErrors.NewBadRequest("invalid patient id"))
		return
	}

	patient, err := c.PatientService.GetPatient(auth.OrgID(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

func (c *PatientController) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, appErrors.NewBadRequest("invalid patient id"))
		return
	}

	var body model.Patient
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, appErrors.NewBadRequest("invalid body"))
		return
	}
	body.ID = id

	patient, err := c.PatientService.UpdatePatient(auth.OrgID(r.Context()), &body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, patient)
}

func (c *PatientController) DeletePatient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, appErrors.NewBadRequest("invalid patient id"))
		return
	}

	if err := c.PatientService.DeletePatient(auth.OrgID(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
