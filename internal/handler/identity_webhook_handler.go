// internal/handler/identity_webhook_handler.go
package handler

import (
	"io"
	"net/http"

	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	"github.com/carewave/callcare-backend/internal/metrics"
	"github.com/carewave/callcare-backend/internal/service"
)

const identitySignatureHeader = "X-Identity-Signature"

// IdentityWebhookHandler syncs user/organization lifecycle events from the
// identity provider into local tables. The provider owns authentication,
// membership, and invitations; we only mirror rows.
type IdentityWebhookHandler struct {
	Secret     string
	OrgService *service.OrganizationService
}

func (h *IdentityWebhookHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeWebhookError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if !verifySignature(body, r.Header.Get(identitySignatureHeader), h.Secret) {
		writeWebhookError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	payload := gjson.ParseBytes(body)
	eventType := payload.Get("type").String()
	data := payload.Get("data")
	if eventType == "" || !data.Exists() {
		writeWebhookError(w, http.StatusBadRequest, "missing type or data")
		return
	}
	metrics.WebhooksReceived.WithLabelValues(eventType).Inc()

	switch eventType {
	case "organization.created", "organization.updated":
		_, err = h.OrgService.SyncOrganization(data.Get("id").String(), data.Get("name").String())

	case "organization.deleted":
		err = h.OrgService.RemoveOrganization(data.Get("id").String())

	case "user.created", "user.updated", "organizationMembership.created", "organizationMembership.updated":
		_, err = h.OrgService.SyncUser(
			data.Get("user_id").String(),
			data.Get("organization_id").String(),
			data.Get("email").String(),
			data.Get("first_name").String(),
			data.Get("last_name").String(),
			data.Get("role").String(),
		)

	case "user.deleted", "organizationMembership.deleted":
		err = h.OrgService.RemoveUser(data.Get("user_id").String())

	default:
		log.Info().Str("type", eventType).Msg("unhandled identity event type")
		writeWebhookOK(w, "ignored")
		return
	}

	if err != nil {
		log.Error().Err(err).Str("type", eventType).Msg("identity sync failed")
		writeWebhookError(w, http.StatusInternalServerError, "sync failed")
		return
	}

	writeWebhookOK(w, "ok")
}
