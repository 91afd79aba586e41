// internal/model/user.go
package model

import "time"

type User struct {
	ID             int        `db:"id" json:"id"`
	ExternalID     string     `db:"external_id" json:"external_id"`
	OrganizationID int        `db:"organization_id" json:"organization_id"`
	Email          string     `db:"email" json:"email"`
	FirstName      string     `db:"first_name" json:"first_name"`
	LastName       string     `db:"last_name" json:"last_name"`
	Role           string     `db:"role" json:"role"` // admin, member
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      *time.Time `db:"updated_at" json:"updated_at,omitempty"`
}
