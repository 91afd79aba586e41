// internal/model/patient.go
package model

import (
	"encoding/json"
	"time"
)

type Patient struct {
	ID             int             `db:"id" json:"id"`
	OrganizationID int             `db:"organization_id" json:"organization_id"`
	Phone          string          `db:"phone" json:"phone"`
	FirstName      string          `db:"first_name" json:"first_name"`
	LastName       string          `db:"last_name" json:"last_name"`
	DateOfBirth    string          `db:"date_of_birth" json:"date_of_birth"` // YYYY-MM-DD
	ExternalRef    string          `db:"external_ref" json:"external_ref,omitempty"`
	Metadata       json.RawMessage `db:"metadata" json:"metadata,omitempty"`
	DedupeHash     string          `db:"dedupe_hash" json:"-"`
	DeletedAt      *time.Time      `db:"deleted_at" json:"-"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time      `db:"updated_at" json:"updated_at,omitempty"`
}
