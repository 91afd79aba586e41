// internal/model/campaign_request.go
package model

import "time"

const (
	CampaignRequestPending  = "pending"
	CampaignRequestApproved = "approved"
	CampaignRequestRejected = "rejected"
)

type CampaignRequest struct {
	ID             int        `db:"id" json:"id"`
	OrganizationID int        `db:"organization_id" json:"organization_id"`
	RequesterID    int        `db:"requester_id" json:"requester_id"`
	Description    string     `db:"description" json:"description"`
	Status         string     `db:"status" json:"status"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
