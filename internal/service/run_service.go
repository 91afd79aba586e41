// internal/service/run_service.go
package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	appErrors "github.com/carewave/callcare-backend/internal/errors"
	"github.com/carewave/callcare-backend/internal/model"
	"github.com/carewave/callcare-backend/internal/queue"
	"github.com/carewave/callcare-backend/internal/realtime"
	"github.com/carewave/callcare-backend/internal/repository"
)

type RunService struct {
	RunRepo      repository.RunRepositoryInterface
	CallRepo     repository.CallRepositoryInterface
	CampaignRepo repository.CampaignRepositoryInterface
	PatientRepo  repository.PatientRepositoryInterface
	Queue        queue.Publisher
	Realtime     realtime.Publisher
}

type CreateRunInput struct {
	CampaignID  int        `json:"campaign_id"`
	Name        string     `json:"name"`
	PatientIDs  []int      `json:"patient_ids"`
	ScheduledAt *time.Time `json:"scheduled_at"`
}

// RunDetails is the detail view with per-status call stats.
type RunDetails struct {
	Run   *model.Run     `json:"run"`
	Stats map[string]int `json:"stats"`
}

// CreateRun validates the campaign and patient list and stores the run.
// A nil ScheduledAt dispatches immediately; otherwise the scheduler picks
// the run up once scheduled_at passes.
func (s *RunService) CreateRun(ctx context.Context, orgID int, in CreateRunInput) (*model.Run, error) {
	campaign, err := s.CampaignRepo.GetByID(orgID, in.CampaignID)
	if err != nil {
		return nil, err
	}
	if campaign.Status != model.CampaignStatusActive {
		return nil, appErrors.NewConflict("runs require an active campaign, got %s", campaign.Status)
	}
	if campaign.Direction != model.CampaignDirectionOutbound {
		return nil, appErrors.NewBadRequest("runs only apply to outbound campaigns")
	}
	if len(in.PatientIDs) == 0 {
		return nil, appErrors.NewBadRequest("patient_ids is required")
	}

	patients, err := s.PatientRepo.ListByIDs(orgID, in.PatientIDs)
	if err != nil {
		return nil, err
	}
	if len(patients) == 0 {
		return nil, appErrors.NewBadRequest("no matching patients in this organization")
	}

	run := &model.Run{
		OrganizationID: orgID,
		CampaignID:     in.CampaignID,
		Name:           in.Name,
		Status:         model.RunStatusScheduled,
		ScheduledAt:    in.ScheduledAt,
		PatientCount:   len(patients),
	}
	if err := s.RunRepo.Create(run); err != nil {
		return nil, err
	}

	// Call rows are created up front so the dashboard can show the batch
	// before any call is placed.
	for _, p := range patients {
		if _, err := s.CallRepo.CreateForRun(orgID, run.ID, in.CampaignID, p.ID); err != nil {
			log.Warn().Err(err).Int("run_id", run.ID).Int("patient_id", p.ID).Msg("⚠️ failed to create call row")
		}
	}

	if in.ScheduledAt == nil {
		if err := s.DispatchRun(ctx, run.ID); err != nil {
			return run, err
		}
	}

	return run, nil
}

// DispatchRun claims the run and enqueues one dispatch job per pending
// call. Safe to call twice: the claim flips exactly once and call creation
// is idempotent per (run, patient).
func (s *RunService) DispatchRun(ctx context.Context, runID int) error {
	claimed, err := s.RunRepo.ClaimForDispatch(runID)
	if err != nil {
		return err
	}
	if !claimed {
		log.Info().Int("run_id", runID).Msg("run already claimed, skipping dispatch")
		return nil
	}

	ids, err := s.CallRepo.PendingIDsForRun(runID)
	if err != nil {
		return err
	}

	queued := 0
	for _, callID := range ids {
		if err := s.Queue.Publish(queue.CallDispatchQueue, queue.CallDispatchJob{CallID: callID, RunID: runID}); err != nil {
			log.Error().Err(err).Int("call_id", callID).Msg("failed to enqueue call")
			continue
		}
		queued++
	}

	if err := s.RunRepo.MarkStarted(runID); err != nil {
		return err
	}

	if run, err := s.RunRepo.GetAny(runID); err == nil {
		s.publish(ctx, realtime.Event{
			Type:           realtime.EventRunStarted,
			OrganizationID: run.OrganizationID,
			RunID:          runID,
			CampaignID:     run.CampaignID,
			Status:         model.RunStatusInProgress,
			Payload:        map[string]int{"calls_queued": queued},
		})
	}

	log.Info().Int("run_id", runID).Int("queued", queued).Msg("🚀 run dispatched")
	return nil
}

// DispatchDue is the scheduler tick: claim and dispatch every run whose
// scheduled_at has passed.
func (s *RunService) DispatchDue(ctx context.Context, now time.Time) (int, error) {
	due, err := s.RunRepo.ListDue(now, 50)
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for _, run := range due {
		if err := s.DispatchRun(ctx, run.ID); err != nil {
			log.Error().Err(err).Int("run_id", run.ID).Msg("dispatch failed")
			continue
		}
		dispatched++
	}
	return dispatched, nil
}

func (s *RunService) StartRun(ctx context.Context, orgID, runID int) error {
	run, err := s.RunRepo.GetByID(orgID, runID)
	if err != nil {
		return err
	}
	if run.Status != model.RunStatusScheduled {
		return appErrors.NewConflict("run cannot be started in status: %s", run.Status)
	}
	return s.DispatchRun(ctx, runID)
}

func (s *RunService) CancelRun(ctx context.Context, orgID, runID int) (*model.Run, error) {
	run, err := s.RunRepo.GetByID(orgID, runID)
	if err != nil {
		return nil, err
	}
	switch run.Status {
	case model.RunStatusCompleted, model.RunStatusCanceled, model.RunStatusFailed:
		return nil, appErrors.NewConflict("run cannot be canceled in status: %s", run.Status)
	}

	canceled, err := s.CallRepo.CancelPendingForRun(runID)
	if err != nil {
		return nil, err
	}
	if err := s.RunRepo.MarkCompleted(runID, model.RunStatusCanceled); err != nil {
		return nil, err
	}
	run.Status = model.RunStatusCanceled

	s.publish(ctx, realtime.Event{
		Type:           realtime.EventRunCanceled,
		OrganizationID: orgID,
		RunID:          runID,
		CampaignID:     run.CampaignID,
		Status:         model.RunStatusCanceled,
		Payload:        map[string]int{"calls_canceled": canceled},
	})

	return run, nil
}

func (s *RunService) ListRuns(orgID, page, pageSize, campaignID int, status string) ([]model.Run, map[string]int, error) {
	page, pageSize, offset := clampPage(page, pageSize)

	ptrs, total, err := s.RunRepo.List(orgID, offset, pageSize, campaignID, status)
	if err != nil {
		return nil, nil, err
	}

	runs := make([]model.Run, len(ptrs))
	for i, r := range ptrs {
		runs[i] = *r
	}

	return runs, buildPagination(page, pageSize, total), nil
}

func (s *RunService) GetRunDetails(orgID, runID int) (*RunDetails, error) {
	run, err := s.RunRepo.GetByID(orgID, runID)
	if err != nil {
		return nil, err
	}

	stats := map[string]int{"total": 0}
	calls, _, err := s.CallRepo.List(orgID, 0, 1000, repository.CallFilter{RunID: runID})
	if err != nil {
		return nil, err
	}
	for _, c := range calls {
		stats[c.Status]++
		stats["total"]++
	}

	return &RunDetails{Run: run, Stats: stats}, nil
}

// MaybeComplete closes the run once no call is outstanding. Called after
// every terminal call update.
func (s *RunService) MaybeComplete(ctx context.Context, orgID, runID int) error {
	outstanding, err := s.CallRepo.OutstandingForRun(runID)
	if err != nil {
		return err
	}
	if outstanding > 0 {
		return nil
	}

	run, err := s.RunRepo.GetByID(orgID, runID)
	if err != nil {
		return err
	}
	if run.Status != model.RunStatusInProgress && run.Status != model.RunStatusDispatching {
		return nil
	}

	if err := s.RunRepo.MarkCompleted(runID, model.RunStatusCompleted); err != nil {
		return err
	}

	s.publish(ctx, realtime.Event{
		Type:           realtime.EventRunCompleted,
		OrganizationID: orgID,
		RunID:          runID,
		CampaignID:     run.CampaignID,
		Status:         model.RunStatusCompleted,
	})

	log.Info().Int("run_id", runID).Msg("✅ run completed")
	return nil
}

func (s *RunService) publish(ctx context.Context, ev realtime.Event) {
	if s.Realtime == nil {
		return
	}
	channels := []string{
		realtime.OrgChannel(ev.OrganizationID),
		realtime.RunChannel(ev.RunID),
		realtime.CampaignChannel(ev.CampaignID),
	}
	for _, ch := range channels {
		if err := s.Realtime.PublishEvent(ctx, ch, ev); err != nil {
			log.Warn().Err(err).Str("channel", ch).Msg("⚠️ realtime publish failed")
		}
	}
}
