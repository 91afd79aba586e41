// internal/model/call.go
package model

import (
	"encoding/json"
	"time"
)

const (
	CallStatusPending    = "pending"
	CallStatusQueued     = "queued"
	CallStatusRinging    = "ringing"
	CallStatusInProgress = "in_progress"
	CallStatusCompleted  = "completed"
	CallStatusFailed     = "failed"
	CallStatusNoAnswer   = "no_answer"
	CallStatusBusy       = "busy"
	CallStatusVoicemail  = "voicemail"
	CallStatusCanceled   = "canceled"
)

type Call struct {
	ID              int             `db:"id" json:"id"`
	OrganizationID  int             `db:"organization_id" json:"organization_id"`
	RunID           *int            `db:"run_id" json:"run_id,omitempty"`
	CampaignID      int             `db:"campaign_id" json:"campaign_id"`
	PatientID       int             `db:"patient_id" json:"patient_id"`
	ProviderCallID  string          `db:"provider_call_id" json:"provider_call_id,omitempty"`
	Status          string          `db:"status" json:"status"`
	Outcome         string          `db:"outcome" json:"outcome,omitempty"`
	DurationSeconds int             `db:"duration_seconds" json:"duration_seconds"`
	RecordingURL    string          `db:"recording_url" json:"recording_url,omitempty"`
	Transcript      string          `db:"transcript" json:"transcript,omitempty"`
	Summary         string          `db:"summary" json:"summary,omitempty"`
	Analysis        json.RawMessage `db:"analysis" json:"analysis,omitempty"`
	LastError       string          `db:"last_error" json:"last_error,omitempty"`
	RetryCount      int             `db:"retry_count" json:"retry_count"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       *time.Time      `db:"updated_at" json:"updated_at,omitempty"`
}

// Terminal reports whether the call has reached a final state.
func (c *Call) Terminal() bool {
	switch c.Status {
	case CallStatusCompleted, CallStatusFailed, CallStatusNoAnswer,
		CallStatusBusy, CallStatusVoicemail, CallStatusCanceled:
		return true
	}
	return false
}
