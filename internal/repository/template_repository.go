package repository

import (
	"database/sql"
	"strings"
	"time"

	appErrors "github.com/carewave/callcare-backend/internal/errors"
	"github.com/carewave/callcare-backend/internal/model"
)

type TemplateRepositoryInterface interface {
	Create(t *model.CampaignTemplate) error
	GetByID(orgID, id int) (*model.CampaignTemplate, error)
	List(orgID int) ([]model.CampaignTemplate, error)
	Update(t *model.CampaignTemplate) error
	Delete(orgID, id int) error
}

type TemplateRepository struct {
	DB *sql.DB
}

func (r *TemplateRepository) Create(t *model.CampaignTemplate) error {
	t.CreatedAt = time.Now()
	query := `
        INSERT INTO campaign_templates (organization_id, name, specialty, base_prompt, first_message, variables, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		t.OrganizationID, t.Name, t.Specialty, t.BasePrompt, t.FirstMessage,
		strings.Join(t.Variables, ","), t.CreatedAt,
	).Scan(&t.ID)
}

func (r *TemplateRepository) GetByID(orgID, id int) (*model.CampaignTemplate, error) {
	query := `
        SELECT id, organization_id, name, specialty, base_prompt, first_message, variables, created_at, updated_at
        FROM campaign_templates WHERE organization_id=$1 AND id=$2
    `
	var t model.CampaignTemplate
	var variables string
	err := r.DB.QueryRow(query, orgID, id).Scan(
		&t.ID, &t.OrganizationID, &t.Name, &t.Specialty, &t.BasePrompt,
		&t.FirstMessage, &variables, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("template with ID %d not found", id)
		}
		return nil, err
	}
	t.Variables = splitVariables(variables)
	return &t, nil
}

func (r *TemplateRepository) List(orgID int) ([]model.CampaignTemplate, error) {
	query := `
        SELECT id, organization_id, name, specialty, base_prompt, first_message, variables, created_at, updated_at
        FROM campaign_templates WHERE organization_id=$1 ORDER BY id DESC
    `
	rows, err := r.DB.Query(query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []model.CampaignTemplate{}
	for rows.Next() {
		var t model.CampaignTemplate
		var variables string
		if err := rows.Scan(
			&t.ID, &t.OrganizationID, &t.Name, &t.Specialty, &t.BasePrompt,
			&t.FirstMessage, &variables, &t.CreatedAt, &t.UpdatedAt,
		); err != nil {
			return nil, err
		}
		t.Variables = splitVariables(variables)
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

func (r *TemplateRepository) Update(t *model.CampaignTemplate) error {
	query := `
        UPDATE campaign_templates
        SET name=$1, specialty=$2, base_prompt=$3, first_message=$4, variables=$5, updated_at=NOW()
        WHERE organization_id=$6 AND id=$7
    `
	_, err := r.DB.Exec(query,
		t.Name, t.Specialty, t.BasePrompt, t.FirstMessage,
		strings.Join(t.Variables, ","), t.OrganizationID, t.ID,
	)
	return err
}

func (r *TemplateRepository) Delete(orgID, id int) error {
	res, err := r.DB.Exec(`DELETE FROM campaign_templates WHERE organization_id=$1 AND id=$2`, orgID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewNotFound("template with ID %d not found", id)
	}
	return nil
}

func splitVariables(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

var _ TemplateRepositoryInterface = (*TemplateRepository)(nil)
