// internal/service/analytics_service.go
package service

import (
	"time"

	"github.com/carewave/callcare-backend/internal/repository"
)

type AnalyticsService struct {
	AnalyticsRepo repository.AnalyticsRepositoryInterface
}

// Dashboard is the org-level analytics view the front end renders.
type Dashboard struct {
	Summary     *repository.AnalyticsSummary `json:"summary"`
	VolumeByDay []repository.DayCount        `json:"volume_by_day"`
	Outcomes    map[string]int               `json:"outcomes"`
	Campaigns   []repository.CampaignRollup  `json:"campaigns"`
	WindowDays  int                          `json:"window_days"`
}

func (s *AnalyticsService) GetDashboard(orgID, windowDays int) (*Dashboard, error) {
	if windowDays < 1 {
		windowDays = 30
	}
	if windowDays > 365 {
		windowDays = 365
	}
	since := time.Now().AddDate(0, 0, -windowDays)

	summary, err := s.AnalyticsRepo.Summary(orgID, since)
	if err != nil {
		return nil, err
	}
	volume, err := s.AnalyticsRepo.CallVolumeByDay(orgID, since)
	if err != nil {
		return nil, err
	}
	outcomes, err := s.AnalyticsRepo.OutcomeDistribution(orgID, since)
	if err != nil {
		return nil, err
	}
	rollups, err := s.AnalyticsRepo.CampaignRollups(orgID, since)
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Summary:     summary,
		VolumeByDay: volume,
		Outcomes:    outcomes,
		Campaigns:   rollups,
		WindowDays:  windowDays,
	}, nil
}
