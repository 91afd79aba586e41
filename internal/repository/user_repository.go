package repository

import (
	"database/sql"

	"github.com/carewave/callcare-backend/internal/model"
)

type UserRepositoryInterface interface {
	GetByID(id int) (*model.User, error)
	GetByExternalID(externalID string) (*model.User, error)
	UpsertByExternalID(u *model.User) error
	DeleteByExternalID(externalID string) error
	ListByOrganization(orgID int) ([]model.User, error)
}

type UserRepository struct {
	DB *sql.DB
}

const userColumns = `id, external_id, organization_id, email, first_name, last_name, role, created_at, updated_at`

func (r *UserRepository) GetByID(id int) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	var u model.User
	err := r.DB.QueryRow(query, id).Scan(
		&u.ID, &u.ExternalID, &u.OrganizationID, &u.Email,
		&u.FirstName, &u.LastName, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) GetByExternalID(externalID string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE external_id=$1`
	var u model.User
	err := r.DB.QueryRow(query, externalID).Scan(
		&u.ID, &u.ExternalID, &u.OrganizationID, &u.Email,
		&u.FirstName, &u.LastName, &u.Role, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) UpsertByExternalID(u *model.User) error {
	if u.Role == "" {
		u.Role = "member"
	}
	query := `
        INSERT INTO users (external_id, organization_id, email, first_name, last_name, role, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
        ON CONFLICT (external_id)
        DO UPDATE SET email=EXCLUDED.email, first_name=EXCLUDED.first_name,
                      last_name=EXCLUDED.last_name, role=EXCLUDED.role,
                      organization_id=EXCLUDED.organization_id, updated_at=NOW()
        RETURNING id, created_at
    `
	return r.DB.QueryRow(query, u.ExternalID, u.OrganizationID, u.Email, u.FirstName, u.LastName, u.Role).
		Scan(&u.ID, &u.CreatedAt)
}

func (r *UserRepository) DeleteByExternalID(externalID string) error {
	_, err := r.DB.Exec(`DELETE FROM users WHERE external_id=$1`, externalID)
	return err
}

func (r *UserRepository) ListByOrganization(orgID int) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE organization_id=$1 ORDER BY id`
	rows, err := r.DB.Query(query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(
			&u.ID, &u.ExternalID, &u.OrganizationID, &u.Email,
			&u.FirstName, &u.LastName, &u.Role, &u.CreatedAt, &u.UpdatedAt,
		); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

var _ UserRepositoryInterface = (*UserRepository)(nil)
