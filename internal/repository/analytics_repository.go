package repository

import (
	"database/sql"
	"time"
)

type AnalyticsRepositoryInterface interface {
	CallVolumeByDay(orgID int, since time.Time) ([]DayCount, error)
	OutcomeDistribution(orgID int, since time.Time) (map[string]int, error)
	Summary(orgID int, since time.Time) (*AnalyticsSummary, error)
	CampaignRollups(orgID int, since time.Time) ([]CampaignRollup, error)
}

type DayCount struct {
	Day   string `json:"day"` // YYYY-MM-DD
	Count int    `json:"count"`
}

type AnalyticsSummary struct {
	TotalCalls      int     `json:"total_calls"`
	CompletedCalls  int     `json:"completed_calls"`
	AnswerRate      float64 `json:"answer_rate"`
	AvgDurationSecs float64 `json:"avg_duration_seconds"`
}

type CampaignRollup struct {
	CampaignID   int     `json:"campaign_id"`
	CampaignName string  `json:"campaign_name"`
	TotalCalls   int     `json:"total_calls"`
	Completed    int     `json:"completed"`
	Failed       int     `json:"failed"`
	AnswerRate   float64 `json:"answer_rate"`
}

type AnalyticsRepository struct {
	DB *sql.DB
}

func (r *AnalyticsRepository) CallVolumeByDay(orgID int, since time.Time) ([]DayCount, error) {
	query := `
        SELECT TO_CHAR(created_at, 'YYYY-MM-DD') AS day, COUNT(*)
        FROM calls
        WHERE organization_id=$1 AND created_at >= $2
        GROUP BY day ORDER BY day
    `
	rows, err := r.DB.Query(query, orgID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []DayCount{}
	for rows.Next() {
		var d DayCount
		if err := rows.Scan(&d.Day, &d.Count); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *AnalyticsRepository) OutcomeDistribution(orgID int, since time.Time) (map[string]int, error) {
	query := `
        SELECT outcome, COUNT(*)
        FROM calls
        WHERE organization_id=$1 AND created_at >= $2 AND outcome <> ''
        GROUP BY outcome
    `
	rows, err := r.DB.Query(query, orgID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	dist := map[string]int{}
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, err
		}
		dist[outcome] = count
	}
	return dist, rows.Err()
}

func (r *AnalyticsRepository) Summary(orgID int, since time.Time) (*AnalyticsSummary, error) {
	query := `
        SELECT COUNT(*),
               COUNT(*) FILTER (WHERE status = 'completed'),
               COALESCE(AVG(duration_seconds) FILTER (WHERE status = 'completed'), 0)
        FROM calls
        WHERE organization_id=$1 AND created_at >= $2
    `
	var s AnalyticsSummary
	if err := r.DB.QueryRow(query, orgID, since).Scan(&s.TotalCalls, &s.CompletedCalls, &s.AvgDurationSecs); err != nil {
		return nil, err
	}
	if s.TotalCalls > 0 {
		s.AnswerRate = float64(s.CompletedCalls) / float64(s.TotalCalls)
	}
	return &s, nil
}

func (r *AnalyticsRepository) CampaignRollups(orgID int, since time.Time) ([]CampaignRollup, error) {
	query := `
        SELECT c.campaign_id, cp.name,
               COUNT(*),
               COUNT(*) FILTER (WHERE c.status = 'completed'),
               COUNT(*) FILTER (WHERE c.status = 'failed')
        FROM calls c
        JOIN campaigns cp ON cp.id = c.campaign_id
        WHERE c.organization_id=$1 AND c.created_at >= $2
        GROUP BY c.campaign_id, cp.name
        ORDER BY COUNT(*) DESC
    `
	rows, err := r.DB.Query(query, orgID, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rollups := []CampaignRollup{}
	for rows.Next() {
		var cr CampaignRollup
		if err := rows.Scan(&cr.CampaignID, &cr.CampaignName, &cr.TotalCalls, &cr.Completed, &cr.Failed); err != nil {
			return nil, err
		}
		if cr.TotalCalls > 0 {
			cr.AnswerRate = float64(cr.Completed) / float64(cr.TotalCalls)
		}
		rollups = append(rollups, cr)
	}
	return rollups, rows.Err()
}

var _ AnalyticsRepositoryInterface = (*AnalyticsRepository)(nil)
