package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	appErrors "github.com/carewave/callcare-backend/internal/errors"
	"github.com/carewave/callcare-backend/internal/model"
)

type PatientRepositoryInterface interface {
	Create(p *model.Patient) error
	GetByID(orgID, id int) (*model.Patient, error)
	GetByDedupeHash(orgID int, hash string) (*model.Patient, error)
	List(orgID, offset, limit int, search string) ([]*model.Patient, int, error)
	ListByIDs(orgID int, ids []int) ([]*model.Patient, error)
	Update(p *model.Patient) error
	SoftDelete(orgID, id int) error
}

type PatientRepository struct {
	DB *sql.DB
}

const patientColumns = `id, organization_id, phone, first_name, last_name, date_of_birth,
       external_ref, metadata, dedupe_hash, deleted_at, created_at, updated_at`

func scanPatient(scan func(dest ...any) error) (*model.Patient, error) {
	var p model.Patient
	err := scan(
		&p.ID, &p.OrganizationID, &p.Phone, &p.FirstName, &p.LastName, &p.DateOfBirth,
		&p.ExternalRef, &p.Metadata, &p.DedupeHash, &p.DeletedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PatientRepository) Create(p *model.Patient) error {
	p.CreatedAt = time.Now()
	if len(p.Metadata) == 0 {
		p.Metadata = json.RawMessage(`{}`)
	}
	query := `
        INSERT INTO patients (organization_id, phone, first_name, last_name, date_of_birth,
                              external_ref, metadata, dedupe_hash, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id
    `
	return r.DB.QueryRow(query,
		p.OrganizationID, p.Phone, p.FirstName, p.LastName, p.DateOfBirth,
		p.ExternalRef, p.Metadata, p.DedupeHash, p.CreatedAt,
	).Scan(&p.ID)
}

func (r *PatientRepository) GetByID(orgID, id int) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE organization_id=$1 AND id=$2 AND deleted_at IS NULL`
	p, err := scanPatient(r.DB.QueryRow(query, orgID, id).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.NewNotFound("patient with ID %d not found", id)
		}
		return nil, err
	}
	return p, nil
}

// GetByDedupeHash is the identity-resolution lookup: one patient per
// (organization, dedupe hash).
func (r *PatientRepository) GetByDedupeHash(orgID int, hash string) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE organization_id=$1 AND dedupe_hash=$2 AND deleted_at IS NULL`
	p, err := scanPatient(r.DB.QueryRow(query, orgID, hash).Scan)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

func (r *PatientRepository) List(orgID, offset, limit int, search string) ([]*model.Patient, int, error) {
	patients := []*model.Patient{}
	query := `SELECT ` + patientColumns + ` FROM patients WHERE organization_id=$1 AND deleted_at IS NULL`
	args := []interface{}{orgID}
	argPos := 2

	if search != "" {
		query += fmt.Sprintf(" AND (first_name ILIKE $%d OR last_name ILIKE $%d OR phone LIKE $%d)", argPos, argPos, argPos)
		args = append(args, search+"%")
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
		p, err := scanPatient(rows.Scan)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	countQuery := `SELECT COUNT(*) FROM patients WHERE organization_id=$1 AND deleted_at IS NULL`
	argsCount := []interface{}{orgID}
	if search != "" {
		countQuery += " AND (first_name ILIKE $2 OR last_name ILIKE $2 OR phone LIKE $2)"
		argsCount = append(argsCount, search+"%")
	}

	var total int
	if err := r.DB.QueryRow(countQuery, argsCount...).Scan(&total); err != nil {
		return nil, 0, err
	}

	return patients, total, nil
}

func (r *PatientRepository) ListByIDs(orgID int, ids []int) ([]*model.Patient, error) {
	if len(ids) == 0 {
		return []*model.Patient{}, nil
	}
	query := `SELECT ` + patientColumns + ` FROM patients WHERE organization_id=$1 AND deleted_at IS NULL AND id = ANY($2)`
	rows, err := r.DB.Query(query, orgID, pq.Array(ids))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	patients := []*model.Patient{}
	for rows.Next() {
		p, err := scanPatient(rows.Scan)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

func (r *PatientRepository) Update(p *model.Patient) error {
	query := `
        UPDATE patients
        SET phone=$1, first_name=$2, last_name=$3, date_of_birth=$4,
            external_ref=$5, metadata=$6, dedupe_hash=$7, updated_at=NOW()
        WHERE organization_id=$8 AND id=$9
    `
	_, err := r.DB.Exec(query,
		p.Phone, p.FirstName, p.LastName, p.DateOfBirth,
		p.ExternalRef, p.Metadata, p.DedupeHash, p.OrganizationID, p.ID,
	)
	return err
}

func (r *PatientRepository) SoftDelete(orgID, id int) error {
	query := `UPDATE patients SET deleted_at=NOW() WHERE organization_id=$1 AND id=$2 AND deleted_at IS NULL`
	res, err := r.DB.Exec(query, orgID, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return appErrors.NewNotFound("patient with ID %d not found", id)
	}
	return nil
}

var _ PatientRepositoryInterface = (*PatientRepository)(nil)
