// internal/service/patient_service.go
package service

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	appErrors "github.com/carewave/callcare-backend/internal/errors"
	"github.com/carewave/callcare-backend/internal/model"
	"github.com/carewave/callcare-backend/internal/repository"
)

type PatientService struct {
	PatientRepo repository.PatientRepositoryInterface
}

// PatientUpload is one row of an uploaded patient list.
type PatientUpload struct {
	Phone       string          `json:"phone"`
	FirstName   string          `json:"first_name"`
	LastName    string          `json:"last_name"`
	DateOfBirth string          `json:"date_of_birth"`
	ExternalRef string          `json:"external_ref"`
	Metadata    json.RawMessage `json:"metadata"`
}

// UploadResult reports what the dedupe pass did with each row.
type UploadResult struct {
	Created int `json:"created"`
	Merged  int `json:"merged"`
	Skipped int `json:"skipped"`
}

// NormalizePhone strips formatting and forces a leading country code so two
// spellings of the same number hash identically.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return ""
	}
	// US-style 10-digit numbers get the default country code.
	if len(digits) == 10 {
		digits = "1" + digits
	}
	return "+" + digits
}

// DedupeHash is the org-scoped identity of a patient: the same phone and
// date of birth in two organizations produce different hashes.
func DedupeHash(orgID int, phone, dateOfBirth string) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%s|%s", orgID, NormalizePhone(phone), strings.TrimSpace(dateOfBirth))
	return hex.EncodeToString(h.Sum(nil))
}

// UploadPatients ingests a patient list: new hashes become rows, known
// hashes merge any newly supplied fields, rows with no usable phone are
// skipped.
func (s *PatientService) UploadPatients(orgID int, uploads []PatientUpload) (*UploadResult, error) {
	if len(uploads) == 0 {
		return nil, appErrors.NewBadRequest("patient list is empty")
	}

	result := &UploadResult{}
	seen := map[string]bool{} // dedupe within the uploaded file itself

	for _, row := range uploads {
		phone := NormalizePhone(row.Phone)
		if phone == "" {
			result.Skipped++
			continue
		}

		hash := DedupeHash(orgID, row.Phone, row.DateOfBirth)
		if seen[hash] {
			result.Skipped++
			continue
		}
		seen[hash] = true

		existing, err := s.PatientRepo.GetByDedupeHash(orgID, hash)
		if err != nil {
			return nil, err
		}

		if existing != nil {
			if mergePatient(existing, row) {
				if err := s.PatientRepo.Update(existing); err != nil {
					return nil, err
				}
				result.Merged++
			} else {
				result.Skipped++
			}
			continue
		}

		p := &model.Patient{
			OrganizationID: orgID,
			Phone:          phone,
			FirstName:      strings.TrimSpace(row.FirstName),
			LastName:       strings.TrimSpace(row.LastName),
			DateOfBirth:    strings.TrimSpace(row.DateOfBirth),
			ExternalRef:    row.ExternalRef,
			Metadata:       row.Metadata,
			DedupeHash:     hash,
		}
		if err := s.PatientRepo.Create(p); err != nil {
			return nil, err
		}
		result.Created++
	}

	return result, nil
}

// mergePatient fills blanks on the existing row from the upload and reports
// whether anything changed. Upload values never overwrite non-empty fields.
func mergePatient(existing *model.Patient, row PatientUpload) bool {
	changed := false
	if existing.FirstName == "" && row.FirstName != "" {
		existing.FirstName = strings.TrimSpace(row.FirstName)
		changed = true
	}
	if existing.LastName == "" && row.LastName != "" {
		existing.LastName = strings.TrimSpace(row.LastName)
		changed = true
	}
	if existing.ExternalRef == "" && row.ExternalRef != "" {
		existing.ExternalRef = row.ExternalRef
		changed = true
	}
	if len(row.Metadata) > 0 && string(row.Metadata) != "{}" {
		existing.Metadata = row.Metadata
		changed = true
	}
	return changed
}

func (s *PatientService) GetPatient(orgID, id int) (*model.Patient, error) {
	return s.PatientRepo.GetByID(orgID, id)
}

func (s *PatientService) ListPatients(orgID, page, pageSize int, search string) ([]model.Patient, map[string]int, error) {
	page, pageSize, offset := clampPage(page, pageSize)

	ptrs, total, err := s.PatientRepo.List(orgID, offset, pageSize, search)
	if err != nil {
		return nil, nil, err
	}

	patients := make([]model.Patient, len(ptrs))
	for i, p := range ptrs {
		patients[i] = *p
	}

	return patients, buildPagination(page, pageSize, total), nil
}

func (s *PatientService) UpdatePatient(orgID int, p *model.Patient) (*model.Patient, error) {
	existing, err := s.PatientRepo.GetByID(orgID, p.ID)
	if err != nil {
		return nil, err
	}

	if p.Phone != "" {
		existing.Phone = NormalizePhone(p.Phone)
	}
	if p.FirstName != "" {
		existing.FirstName = p.FirstName
	}
	if p.LastName != "" {
		existing.LastName = p.LastName
	}
	if p.DateOfBirth != "" {
		existing.DateOfBirth = p.DateOfBirth
	}
	if p.ExternalRef != "" {
		existing.ExternalRef = p.ExternalRef
	}
	if len(p.Metadata) > 0 {
		existing.Metadata = p.Metadata
	}
	existing.DedupeHash = DedupeHash(orgID, existing.Phone, existing.DateOfBirth)

	if err := s.PatientRepo.Update(existing); err != nil {
		return nil, err
	}
	return existing, nil
}

func (s *PatientService) DeletePatient(orgID, id int) error {
	return s.PatientRepo.SoftDelete(orgID, id)
}
