// internal/handler/voice_webhook_handler.go
package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
	"github.com/tidwall/gjson"

	appErrors "github.com/carewave/callcare-backend/internal/errors"
	"github.com/carewave/callcare-backend/internal/metrics"
	"github.com/carewave/callcare-backend/internal/model"
	"github.com/carewave/callcare-backend/internal/repository"
	"github.com/carewave/callcare-backend/internal/service"
)

const voiceSignatureHeader = "X-Voice-Signature"

// VoiceWebhookHandler ingests call-lifecycle events from the voice-AI
// provider. The provider owns delivery and retries; we verify the
// signature, dedupe on event id, and map the payload onto the call row.
type VoiceWebhookHandler struct {
	OrgRepo     repository.OrganizationRepositoryInterface
	CallRepo    repository.CallRepositoryInterface
	EventRepo   repository.WebhookEventRepositoryInterface
	CallService *service.CallService
}

func (h *VoiceWebhookHandler) HandleCallEvent(w http.ResponseWriter, r *http.Request) {
	orgID, err := strconv.Atoi(chi.URLParam(r, "orgID"))
	if err != nil {
		writeWebhookError(w, http.StatusBadRequest, "invalid organization id")
		return
	}

	org, err := h.OrgRepo.GetByID(orgID)
	if err != nil {
		writeWebhookError(w, http.StatusBadRequest, "unknown organization")
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeWebhookError(w, http.StatusBadRequest, "unreadable body")
		return
	}

	if !verifySignature(body, r.Header.Get(voiceSignatureHeader), org.WebhookSecret) {
		writeWebhookError(w, http.StatusUnauthorized, "invalid signature")
		return
	}

	payload := gjson.ParseBytes(body)
	eventID := payload.Get("event.id").String()
	eventType := payload.Get("event.type").String()
	if eventID == "" || eventType == "" {
		writeWebhookError(w, http.StatusBadRequest, "missing event id or type")
		return
	}
	metrics.WebhooksReceived.WithLabelValues(eventType).Inc()

	call, err := h.resolveCall(orgID, payload)
	if err != nil {
		writeWebhookError(w, http.StatusInternalServerError, "call lookup failed")
		return
	}
	if call == nil {
		// The provider can deliver events for calls we never placed
		// (inbound campaigns). Ack so it stops retrying.
		log.Warn().Str("event_id", eventID).Int("org_id", orgID).Msg("⚠️ webhook for unknown call")
		writeWebhookOK(w, "ignored")
		return
	}

	// Idempotency: a seen event id has already been applied.
	seen, err := h.EventRepo.Seen(eventID)
	if err != nil {
		writeWebhookError(w, http.StatusInternalServerError, "event ledger failure")
		return
	}
	if seen {
		metrics.WebhooksDuplicate.Inc()
		writeWebhookOK(w, "duplicate")
		return
	}

	if err := h.apply(r, call, eventType, payload); err != nil {
		// Nothing recorded yet, so the provider's retry re-applies.
		writeWebhookError(w, http.StatusInternalServerError, "failed to apply event")
		return
	}

	// Record only after a successful apply. If this insert fails the retry
	// re-applies the same fields, which is safe: lifecycle updates are
	// status CASes and terminal results overwrite with identical values.
	callID := call.ID
	if _, err := h.EventRepo.Record(&model.WebhookEvent{
		ProviderEventID: eventID,
		OrganizationID:  orgID,
		CallID:          &callID,
		Type:            eventType,
		Payload:         json.RawMessage(body),
	}); err != nil {
		writeWebhookError(w, http.StatusInternalServerError, "event ledger failure")
		return
	}

	writeWebhookOK(w, "ok")
}

func (h *VoiceWebhookHandler) apply(r *http.Request, call *model.Call, eventType string, payload gjson.Result) error {
	ctx := r.Context()

	switch eventType {
	case "call.ringing":
		return h.CallService.ApplyStatusUpdate(ctx, call, model.CallStatusRinging)

	case "call.started":
		return h.CallService.ApplyStatusUpdate(ctx, call, model.CallStatusInProgress)

	case "call.ended", "call.analyzed":
		res := repository.CallResult{
			Status:          mapEndedStatus(payload.Get("call.status").String()),
			Outcome:         payload.Get("call.outcome").String(),
			DurationSeconds: int(payload.Get("call.duration_seconds").Int()),
			RecordingURL:    payload.Get("call.recording_url").String(),
			Transcript:      payload.Get("call.transcript").String(),
			Summary:         payload.Get("call.summary").String(),
		}
		if analysis := payload.Get("call.analysis"); analysis.Exists() {
			res.Analysis = json.RawMessage(analysis.Raw)
		}
		return h.CallService.ApplyResult(ctx, call, res)

	default:
		// Unrecognized event types are acked without effect.
		log.Info().Str("type", eventType).Msg("unhandled voice event type")
		return nil
	}
}

// resolveCall finds the local row by our metadata ref first, falling back
// to the provider's call id.
func (h *VoiceWebhookHandler) resolveCall(orgID int, payload gjson.Result) (*model.Call, error) {
	if ref := payload.Get("call.metadata_ref").String(); ref != "" {
		if id, err := strconv.Atoi(ref); err == nil {
			call, err := h.CallRepo.GetByID(orgID, id)
			if err == nil {
				return call, nil
			}
			// A stale ref falls through to the provider id; anything else
			// is a real lookup failure and must not be acked.
			if !appErrors.IsNotFound(err) {
				return nil, err
			}
		}
	}
	if providerID := payload.Get("call.id").String(); providerID != "" {
		call, err := h.CallRepo.GetByProviderCallID(providerID)
		if err != nil {
			return nil, err
		}
		if call != nil && call.OrganizationID != orgID {
			// Never apply another tenant's event.
			return nil, nil
		}
		return call, nil
	}
	return nil, nil
}

// mapEndedStatus folds provider end states onto local call statuses.
func mapEndedStatus(providerStatus string) string {
	switch providerStatus {
	case "completed", "ended":
		return model.CallStatusCompleted
	case "no_answer", "no-answer":
		return model.CallStatusNoAnswer
	case "busy":
		return model.CallStatusBusy
	case "voicemail", "machine":
		return model.CallStatusVoicemail
	case "failed", "error":
		return model.CallStatusFailed
	default:
		return model.CallStatusCompleted
	}
}

func verifySignature(body []byte, signature, secret string) bool {
	if secret == "" || signature == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func writeWebhookOK(w http.ResponseWriter, status string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": status})
}

func writeWebhookError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": msg})
}
