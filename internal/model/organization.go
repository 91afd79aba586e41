// internal/model/organization.go
package model

import (
	"encoding/json"
	"time"
)

type Organization struct {
	ID            int             `db:"id" json:"id"`
	ExternalID    string          `db:"external_id" json:"external_id"`
	Name          string          `db:"name" json:"name"`
	Settings      json.RawMessage `db:"settings" json:"settings,omitempty"`
	WebhookSecret string          `db:"webhook_secret" json:"-"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     *time.Time      `db:"updated_at" json:"updated_at,omitempty"`
}
