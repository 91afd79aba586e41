// internal/controller/analytics_controller.go
package controller

import (
	"net/http"
	"strconv"

	"github.com/carewave/callcare-backend/internal/auth"
	"github.com/carewave/callcare-backend/internal/service"
)

type AnalyticsController struct {
	AnalyticsService *service.AnalyticsService
}

func (c *AnalyticsController) GetDashboard(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))

	dashboard, err := c.AnalyticsService.GetDashboard(auth.OrgID(r.Context()), days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}
