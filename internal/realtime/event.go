// Package realtime bridges service-side state changes to browser clients:
// services publish JSON events onto Redis pub/sub channels keyed by
// organization, run, campaign, or user, and the WebSocket hub fans the
// messages out to subscribed sockets.
package realtime

import "fmt"

// Event types published by services.
const (
	EventCallUpdated  = "call.updated"
	EventRunStarted   = "run.started"
	EventRunCompleted = "run.completed"
	EventRunCanceled  = "run.canceled"
)

// Event is the wire payload delivered to subscribers.
type Event struct {
	Type           string `json:"type"`
	OrganizationID int    `json:"organization_id"`
	RunID          int    `json:"run_id,omitempty"`
	CampaignID     int    `json:"campaign_id,omitempty"`
	CallID         int    `json:"call_id,omitempty"`
	Status         string `json:"status,omitempty"`
	Payload        any    `json:"payload,omitempty"`
}

// Channel name helpers. Subscriptions are keyed by these exact strings.

func OrgChannel(orgID int) string           { return fmt.Sprintf("org:%d", orgID) }
func RunChannel(runID int) string           { return fmt.Sprintf("run:%d", runID) }
func CampaignChannel(campaignID int) string { return fmt.Sprintf("campaign:%d", campaignID) }
func UserChannel(userID int) string         { return fmt.Sprintf("user:%d", userID) }
