package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	appErrors "github.com/carewave/callcare-backend/internal/errors"
	"github.com/carewave/callcare-backend/internal/model"
)

type CallRepositoryInterface interface {
	CreateForRun(orgID, runID, campaignID, patientID int) (*model.Call, error)
	GetByID(orgID, id int) (*model.Call, error)
	GetAny(id int) (*model.Call, error)
	GetByProviderCallID(providerCallID string) (*model.Call, error)
	List(orgID, offset, limit int, f CallFilter) ([]*model.Call, int, error)
	UpdateStatus(id int, status, lastError string) error
	MarkDispatchFailed(id int, lastError string) error
	SetProviderCallID(id int, providerCallID string) error
	ApplyResult(id int, res CallResult) error
	PendingIDsForRun(runID int) ([]int, error)
	CancelPendingForRun(runID int) (int, error)
	OutstandingForRun(runID int) (int, error)
}

// CallFilter narrows the call log listing.
type CallFilter struct {
	RunID      int
	CampaignID int
	PatientID  int
	Status     string
	Outcome    string
}

// CallResult carries fields mapped off a provider webhook payload.
type CallResult struct {
	Status          string
	Outcome         string
	DurationSeconds int
	RecordingURL    string
	Transcript      string
	Summary         string
	Analysis        json.RawMessage
}

type CallRepository struct {
	DB *sql.DB
}

const callColumns = `id, organization_id, run_id, campaign_id, patient_id, provider_call_id,
       status, outcome, duration_seconds, recording_url, transcript, summary, analysis,
       last_error, retry_count, created_at, updated_at`

func scanCall(scan func(dest ...any) error) (*model.Call, error) {
	var c model.Call
	err := scan(
		&c.ID, &c.OrganizationID, &c.RunID, &c.CampaignID, &c.PatientID, &c.ProviderCallID,
		&c.Status, &c.Outcome, &c.DurationSeconds, &c.RecordingURL, &c.Transcript,
		&c.Summary, &c.Analysis, &c.LastError, &c.RetryCount, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateForRun is an idempotent insert: one call row per (run, patient).
// A conflicting insert returns the existing row instead.
func (r *CallRepository) CreateForRun(orgID, runID, campaignID, patientID int) (*model.Call, error) {
	query := `
        INSERT INTO calls (organization_id, run_id, campaign_id, patient_id, status, created_at)
        VALUES ($1, $2, $3, $4, 'pending', NOW())
        ON CONFLICT (run_id, patient_id) DO NOTHING
        RETURNING ` + callColumns
	c, err := scanCall(r.DB.QueryRow(query, orgID, runID, campaignID, patientID).Scan)
	if err == sql.ErrNoRows {
		// Row already existed, fetch it.
		existing := `SELECT ` + callColumns + ` FROM calls WHERE run_id=$1 AND patient_id=$2`
		return scanCall(r.DB.QueryRow(existing, runID, patientID).Scan)
	}
	return c, err
}

func (r *CallRepository) GetByID(orgID, id int) (*model.Call, error) {
	query := `SELECT ` + callColumns + ` FROM calls WHERE organization_id=$1 AND id=$2`
	c, err := scanCall(r.DB.QueryRow(query, orgID, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("call with ID %d not found", id)
		}
		return nil, err
	}
	return c, nil
}

// GetAny fetches a call without org scoping. Worker dispatch only.
func (r *CallRepository) GetAny(id int) (*model.Call, error) {
	query := `SELECT ` + callColumns + ` FROM calls WHERE id=$1`
	c, err := scanCall(r.DB.QueryRow(query, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("call with ID %d not found", id)
		}
		return nil, err
	}
	return c, nil
}

func (r *CallRepository) GetByProviderCallID(providerCallID string) (*model.Call, error) {
	query := `SELECT ` + callColumns + ` FROM calls WHERE provider_call_id=$1`
	c, err := scanCall(r.DB.QueryRow(query, providerCallID).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return c, nil
}

func (r *CallRepository) List(orgID, offset, limit int, f CallFilter) ([]*model.Call, int, error) {
	calls := []*model.Call{}
	where := ` WHERE organization_id=$1`
	args := []interface{}{orgID}
	argPos := 2

	appendFilter := func(cond string, val interface{}) {
		where += fmt.Sprintf(" AND %s=$%d", cond, argPos)
		args = append(args, val)
		argPos++
	}

	if f.RunID > 0 {
		appendFilter("run_id", f.RunID)
	}
	if f.CampaignID > 0 {
		appendFilter("campaign_id", f.CampaignID)
	}
	if f.PatientID > 0 {
		appendFilter("patient_id", f.PatientID)
	}
	if f.Status != "" {
		appendFilter("status", f.Status)
	}
	if f.Outcome != "" {
		appendFilter("outcome", f.Outcome)
	}

	query := `SELECT ` + callColumns + ` FROM calls` + where +
		fmt.Sprintf(" ORDER BY id DESC LIMIT $%d OFFSET $%d", argPos, argPos+1)
	rows, err := r.DB.Query(query, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	for rows.Next() {
		c, err := scanCall(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		calls = append(calls, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM calls` + where
	if err := r.DB.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return calls, total, nil
}

func (r *CallRepository) UpdateStatus(id int, status, lastError string) error {
	query := `UPDATE calls SET status=$1, last_error=$2, updated_at=NOW() WHERE id=$3`
	_, err := r.DB.Exec(query, status, lastError, id)
	return err
}

// MarkDispatchFailed records a failed placement attempt. The retry counter
// only moves on this path, never on webhook lifecycle updates.
func (r *CallRepository) MarkDispatchFailed(id int, lastError string) error {
	query := `UPDATE calls SET status=$1, last_error=$2, retry_count=retry_count+1, updated_at=NOW() WHERE id=$3`
	_, err := r.DB.Exec(query, model.CallStatusFailed, lastError, id)
	return err
}

func (r *CallRepository) SetProviderCallID(id int, providerCallID string) error {
	query := `UPDATE calls SET provider_call_id=$1, status=$2, updated_at=NOW() WHERE id=$3`
	_, err := r.DB.Exec(query, providerCallID, model.CallStatusQueued, id)
	return err
}

// ApplyResult writes the terminal fields delivered by a provider webhook.
func (r *CallRepository) ApplyResult(id int, res CallResult) error {
	if len(res.Analysis) == 0 {
		res.Analysis = json.RawMessage(`{}`)
	}
	query := `
        UPDATE calls
        SET status=$1, outcome=$2, duration_seconds=$3, recording_url=$4,
            transcript=$5, summary=$6, analysis=$7, updated_at=$8
        WHERE id=$9
    `
	_, err := r.DB.Exec(query,
		res.Status, res.Outcome, res.DurationSeconds, res.RecordingURL,
		res.Transcript, res.Summary, res.Analysis, time.Now(), id,
	)
	return err
}

func (r *CallRepository) PendingIDsForRun(runID int) ([]int, error) {
	rows, err := r.DB.Query(`SELECT id FROM calls WHERE run_id=$1 AND status=$2 ORDER BY id`, runID, model.CallStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []int{}
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *CallRepository) CancelPendingForRun(runID int) (int, error) {
	res, err := r.DB.Exec(
		`UPDATE calls SET status=$1, updated_at=NOW() WHERE run_id=$2 AND status IN ($3, $4)`,
		model.CallStatusCanceled, runID, model.CallStatusPending, model.CallStatusQueued,
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// OutstandingForRun counts calls that have not reached a terminal state.
func (r *CallRepository) OutstandingForRun(runID int) (int, error) {
	var n int
	err := r.DB.QueryRow(
		`SELECT COUNT(*) FROM calls WHERE run_id=$1 AND status IN ($2, $3, $4, $5)`,
		runID, model.CallStatusPending, model.CallStatusQueued,
		model.CallStatusRinging, model.CallStatusInProgress,
	).Scan(&n)
	return n, err
}

var _ CallRepositoryInterface = (*CallRepository)(nil)
