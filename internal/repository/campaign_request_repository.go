package repository

import (
	"database/sql"
	"time"

	appErrors "github.com/carewave/callcare-backend/internal/errors"
	"github.com/carewave/callcare-backend/internal/model"
)

type CampaignRequestRepositoryInterface interface {
	Create(req *model.CampaignRequest) error
	List(orgID int, status string) ([]model.CampaignRequest, error)
	UpdateStatus(orgID, id int, status string) error
}

type CampaignRequestRepository struct {
	DB *sql.DB
}

func (r *CampaignRequestRepository) Create(req *model.CampaignRequest) error {
	req.CreatedAt = time.Now()
	if req.Status == "" {
		req.Status = model.CampaignRequestPending
	}
	query := `
        INSERT INTO campaign_requests (organization_id, requester_id, description, status, created_at)
        VALUES ($1, $2, $3, $4, $5)
        RETURNING id
    `
	return r.DB.QueryRow(query, req.OrganizationID, req.RequesterID, req.Description, req.Status, req.CreatedAt).
		Scan(&req.ID)
}

func (r *CampaignRequestRepository) List(orgID int, status string) ([]model.CampaignRequest, error) {
	query := `
        SELECT id, organization_id, requester_id, description, status, created_at, updated_at
        FROM campaign_requests WHERE organization_id=$1
    `
	args := []interface{}{orgID}
	if status != "" {
		query += ` AND status=$2`
		args = append(args, status)
	}
	query += ` ORDER BY id DESC`

	rows, err := r.DB.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reqs := []model.CampaignRequest{}
	for rows.Next() {
		var cr model.CampaignRequest
		if err := rows.Scan(&cr.ID, &cr.OrganizationID, &cr.RequesterID, &cr.Description, &cr.Status, &cr.CreatedAt, &cr.UpdatedAt); err != nil {
			return nil, err
		}
		reqs = append(reqs, cr)
	}
	return reqs, rows.Err()
}

func (r *CampaignRequestRepository) UpdateStatus(orgID, id int, status string) error {
	res, err := r.DB.Exec(
		`UPDATE campaign_requests SET status=$1, updated_at=NOW() WHERE organization_id=$2 AND id=$3`,
		status, orgID, id,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewNotFound("campaign request with ID %d not found", id)
	}
	return nil
}

var _ CampaignRequestRepositoryInterface = (*CampaignRequestRepository)(nil)
