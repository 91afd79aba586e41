package repository

import (
	"database/sql"
	"encoding/json"
	"time"

	appErrors "github.com/carewave/callcare-backend/internal/errors"
	"github.com/carewave/callcare-backend/internal/model"
)

type OrganizationRepositoryInterface interface {
	GetByID(id int) (*model.Organization, error)
	GetByExternalID(externalID string) (*model.Organization, error)
	UpsertByExternalID(o *model.Organization) error
	DeleteByExternalID(externalID string) error
	UpdateSettings(id int, settings json.RawMessage) error
}

type OrganizationRepository struct {
	DB *sql.DB
}

const orgColumns = `id, external_id, name, settings, webhook_secret, created_at, updated_at`

func scanOrganization(row *sql.Row) (*model.Organization, error) {
	var o model.Organization
	err := row.Scan(&o.ID, &o.ExternalID, &o.Name, &o.Settings, &o.WebhookSecret, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrganizationRepository) GetByID(id int) (*model.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE id=$1`
	o, err := scanOrganization(r.DB.QueryRow(query, id))
	if err == sql.ErrNoRows {
		return nil, appErrors.NewNotFound("organization with ID %d not found", id)
	}
	return o, err
}

func (r *OrganizationRepository) GetByExternalID(externalID string) (*model.Organization, error) {
	query := `SELECT ` + orgColumns + ` FROM organizations WHERE external_id=$1`
	o, err := scanOrganization(r.DB.QueryRow(query, externalID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return o, err
}

// UpsertByExternalID keeps the local row in sync with the identity provider.
func (r *OrganizationRepository) UpsertByExternalID(o *model.Organization) error {
	if len(o.Settings) == 0 {
		o.Settings = json.RawMessage(`{}`)
	}
	query := `
        INSERT INTO organizations (external_id, name, settings, webhook_secret, created_at)
        VALUES ($1, $2, $3, $4, NOW())
        ON CONFLICT (external_id)
        DO UPDATE SET name=EXCLUDED.name, updated_at=NOW()
        RETURNING id, created_at
    `
	return r.DB.QueryRow(query, o.ExternalID, o.Name, o.Settings, o.WebhookSecret).
		Scan(&o.ID, &o.CreatedAt)
}

func (r *OrganizationRepository) DeleteByExternalID(externalID string) error {
	_, err := r.DB.Exec(`DELETE FROM organizations WHERE external_id=$1`, externalID)
	return err
}

func (r *OrganizationRepository) UpdateSettings(id int, settings json.RawMessage) error {
	query := `UPDATE organizations SET settings=$1, updated_at=$2 WHERE id=$3`
	_, err := r.DB.Exec(query, settings, time.Now(), id)
	return err
}

var _ OrganizationRepositoryInterface = (*OrganizationRepository)(nil)
