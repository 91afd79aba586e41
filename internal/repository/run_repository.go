package repository

import (
	"database/sql"
	"fmt"
	"time"

	appErrors "github.com/carewave/callcare-backend/internal/errors"
	"github.com/carewave/callcare-backend/internal/model"
)

type RunRepositoryInterface interface {
	Create(run *model.Run) error
	GetByID(orgID, id int) (*model.Run, error)
	GetAny(id int) (*model.Run, error)
	List(orgID, offset, limit int, campaignID int, status string) ([]*model.Run, int, error)
	UpdateStatus(orgID, runID int, status string) error
	MarkStarted(runID int) error
	MarkCompleted(runID int, status string) error
	ListDue(now time.Time, limit int) ([]*model.Run, error)
	ClaimForDispatch(runID int) (bool, error)
}

type RunRepository struct {
	DB *sql.DB
}

const runColumns = `id, organization_id, campaign_id, name, status, scheduled_at, started_at, completed_at, patient_count, created_at, updated_at`

func scanRun(scan func(dest ...any) error) (*model.Run, error) {
	var run model.Run
	err := scan(
		&run.ID, &run.OrganizationID, &run.CampaignID, &run.Name, &run.Status,
		&run.ScheduledAt, &run.StartedAt, &run.CompletedAt, &run.PatientCount,
		&run.CreatedAt, &run.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *RunRepository) Create(run *model.Run) error {
	run.CreatedAt = time.Now()
	if run.Status == "" {
		run.Status = model.RunStatusScheduled
	}
	query := `
        INSERT INTO runs (organization_id, campaign_id, name, status, scheduled_at, patient_count, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		run.OrganizationID, run.CampaignID, run.Name, run.Status,
		run.ScheduledAt, run.PatientCount, run.CreatedAt,
	).Scan(&run.ID)
}

func (r *RunRepository) GetByID(orgID, id int) (*model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE organization_id=$1 AND id=$2`
	run, err := scanRun(r.DB.QueryRow(query, orgID, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("run with ID %d not found", id)
		}
		return nil, err
	}
	return run, nil
}

// GetAny fetches a run without org scoping. Internal dispatch paths only;
// request handlers always go through GetByID.
func (r *RunRepository) GetAny(id int) (*model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE id=$1`
	run, err := scanRun(r.DB.QueryRow(query, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("run with ID %d not found", id)
		}
		return nil, err
	}
	return run, nil
}

func (r *RunRepository) List(orgID, offset, limit int, campaignID int, status string) ([]*model.Run, int, error) {
	runs := []*model.Run{}
	query := `SELECT ` + runColumns + ` FROM runs WHERE organization_id=$1`
	args := []interface{}{orgID}
	argPos := 2

	if campaignID > 0 {
		query += fmt.Sprintf(" AND campaign_id=$%d", argPos)
		args = append(args, campaignID)
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
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	countQuery := `SELECT COUNT(*) FROM runs WHERE organization_id=$1`
	argsCount := []interface{}{orgID}
	argPosCount := 2
	if campaignID > 0 {
		countQuery += fmt.Sprintf(" AND campaign_id=$%d", argPosCount)
		argsCount = append(argsCount, campaignID)
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

	return runs, total, nil
}

func (r *RunRepository) UpdateStatus(orgID, runID int, status string) error {
	query := `UPDATE runs SET status=$1, updated_at=$2 WHERE organization_id=$3 AND id=$4`
	_, err := r.DB.Exec(query, status, time.Now(), orgID, runID)
	return err
}

func (r *RunRepository) MarkStarted(runID int) error {
	query := `UPDATE runs SET status=$1, started_at=NOW(), updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, model.RunStatusInProgress, runID)
	return err
}

func (r *RunRepository) MarkCompleted(runID int, status string) error {
	query := `UPDATE runs SET status=$1, completed_at=NOW(), updated_at=NOW() WHERE id=$2`
	_, err := r.DB.Exec(query, status, runID)
	return err
}

// ListDue returns scheduled runs whose scheduled_at has passed.
func (r *RunRepository) ListDue(now time.Time, limit int) ([]*model.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs
        WHERE status=$1 AND scheduled_at IS NOT NULL AND scheduled_at <= $2
        ORDER BY scheduled_at LIMIT $3`
	rows, err := r.DB.Query(query, model.RunStatusScheduled, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	runs := []*model.Run{}
	for rows.Next() {
		run, err := scanRun(rows.Scan)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// ClaimForDispatch flips scheduled → dispatching iff nobody else did first,
// so two scheduler ticks never dispatch the same run twice.
func (r *RunRepository) ClaimForDispatch(runID int) (bool, error) {
	query := `UPDATE runs SET status=$1, updated_at=NOW() WHERE id=$2 AND status=$3`
	res, err := r.DB.Exec(query, model.RunStatusDispatching, runID, model.RunStatusScheduled)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

var _ RunRepositoryInterface = (*RunRepository)(nil)
