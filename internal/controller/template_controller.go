// internal/controller/template_controller.go
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

type TemplateController struct {
	TemplateService *service.TemplateService
}

func (c *TemplateController) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	var body model.CampaignTemplate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, appErrors.NewBadRequest("invalid body"))
		return
	}

	tmpl, err := c.TemplateService.CreateTemplate(auth.OrgID(r.Context()), &body)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tmpl)
}

func (c *TemplateController) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := c.TemplateService.ListTemplates(auth.OrgID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": templates})
}

func (c *TemplateController) GetTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, appErrors.NewBadRequest("invalid template id"))
		return
	}

	tmpl, err := c.TemplateService.GetTemplate(auth.OrgID(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

func (c *TemplateController) UpdateTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, appErrors.NewBadRequest("invalid template id"))
		return
	}

	var body model.CampaignTemplate
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, appErrors.NewBadRequest("invalid body"))
		return
	}
	body.ID = id

	tmpl, err := c.TemplateService.UpdateTemplate(auth.OrgID(r.Context()), &body)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tmpl)
}

func (c *TemplateController) DeleteTemplate(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, appErrors.NewBadRequest("invalid template id"))
		return
	}

	if err := c.TemplateService.DeleteTemplate(auth.OrgID(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GenerateTemplate proxies the description to the provider's LLM endpoint
// and returns an unsaved draft for the editor.
func (c *TemplateController) GenerateTemplate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Description string `json:"description"`
		Specialty   string `json:"specialty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, appErrors.NewBadRequest("invalid body"))
		return
	}

	draft, err := c.TemplateService.GenerateTemplate(r.Context(), auth.OrgID(r.Context()), body.Description, body.Specialty)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}
