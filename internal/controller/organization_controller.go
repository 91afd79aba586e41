// internal/controller/organization_controller.go
package controller

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/carewave/callcare-backend/internal/auth"
	appErrors "github.com/carewave/callcare-backend/internal/errors"
	"github.com/carewave/callcare-backend/internal/service"
)

type OrganizationController struct {
	OrgService *service.OrganizationService
}

func (c *OrganizationController) GetOrganization(w http.ResponseWriter, r *http.Request) {
	org, err := c.OrgService.GetOrganization(auth.OrgID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, org)
}

func (c *OrganizationController) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	if auth.Role(r.Context()) != "admin" {
		writeError(w, appErrors.NewForbidden("admin role required"))
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, appErrors.NewBadRequest("invalid body"))
		return
	}

	if err := c.OrgService.UpdateSettings(auth.OrgID(r.Context()), json.RawMessage(body)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (c *OrganizationController) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := c.OrgService.ListMembers(auth.OrgID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"data": members})
}
