// internal/model/run.go
package model

import "time"

const (
	RunStatusScheduled   = "scheduled"
	RunStatusDispatching = "dispatching"
	RunStatusInProgress  = "in_progress"
	RunStatusCompleted   = "completed"
	RunStatusFailed      = "failed"
	RunStatusCanceled    = "canceled"
)

type Run struct {
	ID             int        `db:"id" json:"id"`
	OrganizationID int        `db:"organization_id" json:"organization_id"`
	CampaignID     int        `db:"campaign_id" json:"campaign_id"`
	Name           string     `db:"name" json:"name"`
	Status         string     `db:"status" json:"status"`
	ScheduledAt    *time.Time `db:"scheduled_at" json:"scheduled_at,omitempty"`
	StartedAt      *time.Time `db:"started_at" json:"started_at,omitempty"`
	CompletedAt    *time.Time `db:"completed_at" json:"completed_at,omitempty"`
	PatientCount   int        `db:"patient_count" json:"patient_count"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
