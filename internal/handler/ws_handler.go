// internal/handler/ws_handler.go
package handler

import (
	"net/http"

	"github.com/carewave/callcare-backend/internal/auth"
	"github.com/carewave/callcare-backend/internal/realtime"
	"github.com/carewave/callcare-backend/internal/repository"
)

// WSHandler upgrades authenticated dashboard connections onto the realtime
// hub. Auth already ran as middleware; org/user scope is on the context.
type WSHandler struct {
	Hub *realtime.Hub
}

func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	orgID := auth.OrgID(r.Context())
	userID := auth.UserID(r.Context())
	if orgID == 0 {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	h.Hub.ServeWS(w, r, orgID, userID)
}

// NewChannelAuthorizer checks that run/campaign channels belong to the
// subscriber's organization before the hub accepts the subscription.
func NewChannelAuthorizer(runRepo repository.RunRepositoryInterface, campaignRepo repository.CampaignRepositoryInterface) realtime.AuthorizeFunc {
	return func(orgID int, channel string) bool {
		kind, id, ok := realtime.ParseChannelID(channel)
		if !ok {
			return false
		}
		switch kind {
		case "run":
			run, err := runRepo.GetByID(orgID, id)
			return err == nil && run != nil
		case "campaign":
			c, err := campaignRepo.GetByID(orgID, id)
			return err == nil && c != nil
		}
		return false
	}
}
