// internal/service/call_service.go
package service

import (
	"context"
	"strconv"

	"github.com/rs/zerolog/log"

	appErrors "github.com/carewave/callcare-backend/internal/errors"
	"github.com/carewave/callcare-backend/internal/metrics"
	"github.com/carewave/callcare-backend/internal/model"
	"github.com/carewave/callcare-backend/internal/queue"
	"github.com/carewave/callcare-backend/internal/realtime"
	"github.com/carewave/callcare-backend/internal/repository"
	"github.com/carewave/callcare-backend/internal/voice"
)

type CallService struct {
	CallRepo     repository.CallRepositoryInterface
	CampaignRepo repository.CampaignRepositoryInterface
	PatientRepo  repository.PatientRepositoryInterface
	Voice        VoiceAPI
	Realtime     realtime.Publisher
	Runs         *RunService
}

// DispatchCall is the worker entry point: hand one pending call to the
// voice provider. An error return requeues the job.
func (s *CallService) DispatchCall(ctx context.Context, job queue.CallDispatchJob) error {
	call, err := s.CallRepo.GetAny(job.CallID)
	if err != nil {
		if appErrors.IsNotFound(err) {
			log.Warn().Int("call_id", job.CallID).Msg("⚠️ call row gone, dropping job")
			return nil // no retry
		}
		return err
	}

	// Canceled or already-dispatched calls are not re-placed.
	if call.Status != model.CallStatusPending {
		log.Info().Int("call_id", call.ID).Str("status", call.Status).Msg("call not pending, skipping")
		return nil
	}

	patient, err := s.PatientRepo.GetByID(call.OrganizationID, call.PatientID)
	if err != nil {
		return err
	}

	campaign, err := s.CampaignRepo.GetByID(call.OrganizationID, call.CampaignID)
	if err != nil {
		return err
	}
	if campaign.AgentID == "" {
		// Nothing to dial with; retrying cannot help.
		metrics.CallsFailed.Inc()
		return s.CallRepo.UpdateStatus(call.ID, model.CallStatusFailed, "campaign has no provider agent")
	}

	resp, err := s.Voice.PlaceCall(ctx, &voice.PlaceCallRequest{
		AgentID:     campaign.AgentID,
		ToNumber:    patient.Phone,
		MetadataRef: strconv.Itoa(call.ID),
		Variables:   PatientVariables(patient),
	})
	if err != nil {
		if updateErr := s.CallRepo.MarkDispatchFailed(call.ID, err.Error()); updateErr != nil {
			log.Error().Err(updateErr).Int("call_id", call.ID).Msg("failed to record call failure")
		}
		metrics.CallsFailed.Inc()
		return err // triggers requeue
	}

	if err := s.CallRepo.SetProviderCallID(call.ID, resp.CallID); err != nil {
		return err
	}
	metrics.CallsDispatched.Inc()

	call.Status = model.CallStatusQueued
	call.ProviderCallID = resp.CallID
	s.publishCallEvent(ctx, call)

	log.Info().Int("call_id", call.ID).Str("provider_call_id", resp.CallID).Msg("📞 call placed")
	return nil
}

// ApplyStatusUpdate records a non-terminal lifecycle transition from a
// provider webhook (ringing, in progress).
func (s *CallService) ApplyStatusUpdate(ctx context.Context, call *model.Call, status string) error {
	if call.Terminal() {
		// A late start event after the end event; the terminal state wins.
		return nil
	}
	if err := s.CallRepo.UpdateStatus(call.ID, status, ""); err != nil {
		return err
	}
	call.Status = status
	s.publishCallEvent(ctx, call)
	return nil
}

// ApplyResult records the terminal outcome delivered by the provider and
// closes out the run if this was its last outstanding call.
func (s *CallService) ApplyResult(ctx context.Context, call *model.Call, res repository.CallResult) error {
	if err := s.CallRepo.ApplyResult(call.ID, res); err != nil {
		return err
	}
	call.Status = res.Status
	call.Outcome = res.Outcome
	s.publishCallEvent(ctx, call)

	if call.RunID != nil && s.Runs != nil {
		if err := s.Runs.MaybeComplete(ctx, call.OrganizationID, *call.RunID); err != nil {
			log.Warn().Err(err).Int("run_id", *call.RunID).Msg("⚠️ run completion check failed")
		}
	}
	return nil
}

func (s *CallService) publishCallEvent(ctx context.Context, call *model.Call) {
	if s.Realtime == nil {
		return
	}
	ev := realtime.Event{
		Type:           realtime.EventCallUpdated,
		OrganizationID: call.OrganizationID,
		CampaignID:     call.CampaignID,
		CallID:         call.ID,
		Status:         call.Status,
	}
	channels := []string{
		realtime.OrgChannel(call.OrganizationID),
		realtime.CampaignChannel(call.CampaignID),
	}
	if call.RunID != nil {
		ev.RunID = *call.RunID
		channels = append(channels, realtime.RunChannel(*call.RunID))
	}
	for _, ch := range channels {
		if err := s.Realtime.PublishEvent(ctx, ch, ev); err != nil {
			log.Warn().Err(err).Str("channel", ch).Msg("⚠️ realtime publish failed")
		}
	}
}

// ====================== Call log ======================

func (s *CallService) ListCalls(orgID, page, pageSize int, f repository.CallFilter) ([]model.Call, map[string]int, error) {
	page, pageSize, offset := clampPage(page, pageSize)

	ptrs, total, err := s.CallRepo.List(orgID, offset, pageSize, f)
	if err != nil {
		return nil, nil, err
	}

	calls := make([]model.Call, len(ptrs))
	for i, c := range ptrs {
		calls[i] = *c
	}

	return calls, buildPagination(page, pageSize, total), nil
}

func (s *CallService) GetCall(orgID, id int) (*model.Call, error) {
	return s.CallRepo.GetByID(orgID, id)
}
