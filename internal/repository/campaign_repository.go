package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	appErrors "github.com/carewave/callcare-backend/internal/errors"
	"github.com/carewave/callcare-backend/internal/model"
)

type CampaignRepositoryInterface interface {
	Create(c *model.Campaign) error
	GetByID(orgID, id int) (*model.Campaign, error)
	Update(c *model.Campaign) error
	UpdateStatus(orgID, campaignID int, status string) error
	UpdateAgentID(orgID, campaignID int, agentID string) error
	ListCampaigns(orgID, offset, limit int, direction, status string) ([]*model.Campaign, int, error)
	GetCallStats(orgID, campaignID int) (map[string]int, error)
	Archive(orgID, campaignID int) error
}

type CampaignRepository struct {
	DB *sql.DB
}

const campaignColumns = `id, organization_id, name, direction, status, agent_id, template_id, prompt_variables, created_at, updated_at`

func scanCampaign(scan func(dest ...any) error) (*model.Campaign, error) {
	var c model.Campaign
	err := scan(
		&c.ID, &c.OrganizationID, &c.Name, &c.Direction, &c.Status,
		&c.AgentID, &c.TemplateID, &c.PromptVariables, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ====================== Campaign CRUD ======================

func (r *CampaignRepository) Create(c *model.Campaign) error {
	c.CreatedAt = time.Now()
	if c.Status == "" {
		c.Status = model.CampaignStatusDraft
	}
	if c.Direction == "" {
		c.Direction = model.CampaignDirectionOutbound
	}
	if len(c.PromptVariables) == 0 {
		c.PromptVariables = json.RawMessage(`{}`)
	}
	query := `
        INSERT INTO campaigns (organization_id, name, direction, status, agent_id, template_id, prompt_variables, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		c.OrganizationID, c.Name, c.Direction, c.Status, c.AgentID,
		c.TemplateID, c.PromptVariables, c.CreatedAt,
	).Scan(&c.ID)
}

func (r *CampaignRepository) GetByID(orgID, id int) (*model.Campaign, error) {
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE organization_id=$1 AND id=$2`
	c, err := scanCampaign(r.DB.QueryRow(query, orgID, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewCampaignNotFound(id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CampaignRepository) Update(c *model.Campaign) error {
	query := `
        UPDATE campaigns
        SET name=$1, direction=$2, status=$3, template_id=$4, prompt_variables=$5, updated_at=NOW()
        WHERE organization_id=$6 AND id=$7
    `
	_, err := r.DB.Exec(query, c.Name, c.Direction, c.Status, c.TemplateID, c.PromptVariables, c.OrganizationID, c.ID)
	return err
}

func (r *CampaignRepository) UpdateStatus(orgID, campaignID int, status string) error {
	query := `UPDATE campaigns SET status=$1, updated_at=$2 WHERE organization_id=$3 AND id=$4`
	_, err := r.DB.Exec(query, status, time.Now(), orgID, campaignID)
	return err
}

func (r *CampaignRepository) UpdateAgentID(orgID, campaignID int, agentID string) error {
	query := `UPDATE campaigns SET agent_id=$1, updated_at=NOW() WHERE organization_id=$2 AND id=$3`
	_, err := r.DB.Exec(query, agentID, orgID, campaignID)
	return err
}

func (r *CampaignRepository) Archive(orgID, campaignID int) error {
	return r.UpdateStatus(orgID, campaignID, model.CampaignStatusArchived)
}

func (r *CampaignRepository) ListCampaigns(orgID, offset, limit int, direction, status string) ([]*model.Campaign, int, error) {
	campaigns := []*model.Campaign{}
	query := `SELECT ` + campaignColumns + ` FROM campaigns WHERE organization_id=$1`
	args := []interface{}{orgID}
	argPos := 2

	if direction != "" {
		query += fmt.Sprintf(" AND direction=$%d", argPos)
		args = append(args, direction)
		argPos++
	}
	if status != "" {
		query += fmt.Sprintf(" AND status=$%d", argPos)
		args = append(args, status)
		argPos++
	}

	query += fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCampaign(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		campaigns = append(campaigns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	// Count total
	countQuery := `SELECT COUNT(*) FROM campaigns WHERE organization_id=$1`
	argsCount := []interface{}{orgID}
	argPosCount := 2
	if direction != "" {
		countQuery += fmt.Sprintf(" AND direction=$%d", argPosCount)
		argsCount = append(argsCount, direction)
		argPosCount++
	}
	if status != "" {
		countQuery += fmt.Sprintf(" AND status=$%d", argPosCount)
		argsCount = append(argsCount, status)
	}

	var total int
	if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return campaigns, total, nil
}

// GetCallStats aggregates call counts by status for one campaign.
func (r *CampaignRepository) GetCallStats(orgID, campaignID int) (map[string]int, error) {
	query := `SELECT status, COUNT(*) FROM calls WHERE organization_id=$1 AND campaign_id=$2 GROUP BY status`
	rows, err := r.DB.Query(query, orgID, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := map[string]int{"total": 0}
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats[status] = count
		stats["total"] += count
	}
	return stats, rows.Err()
}

var _ CampaignRepositoryInterface = (*CampaignRepository)(nil)
