// internal/model/webhook_event.go
package model

import (
	"encoding/json"
	"time"
)

// WebhookEvent is the idempotency ledger for inbound provider webhooks:
// an event id that already has a row has already been applied.
type WebhookEvent struct {
	ID              string          `db:"id" json:"id"` // uuid
	ProviderEventID string          `db:"provider_event_id" json:"provider_event_id"`
	OrganizationID  int             `db:"organization_id" json:"organization_id"`
	CallID          *int            `db:"call_id" json:"call_id,omitempty"`
	Type            string          `db:"type" json:"type"`
	Payload         json.RawMessage `db:"payload" json:"payload,omitempty"`
	ProcessedAt     time.Time       `db:"processed_at" json:"processed_at"`
}
