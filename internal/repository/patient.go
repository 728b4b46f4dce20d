package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ashaconnect/ashaconnect/internal/model"
)

// ErrPatientNotFound indicates the patient does not exist in the central store.
var ErrPatientNotFound = errors.New("patient not found")

// CreatePatient inserts a new patient record.
func (r *Repository) CreatePatient(ctx context.Context, p *model.Patient) error {
	query := `
		INSERT INTO patients (id, name, age, gender, village, contact_number, pregnant, medical_history, registered_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Age,
		p.Gender,
		p.Village,
		p.ContactNumber,
		p.Pregnant,
		p.MedicalHistory,
		p.RegisteredBy,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create patient: %w", err)
	}
	return nil
}

// GetPatientByID retrieves a patient by ID.
func (r *Repository) GetPatientByID(ctx context.Context, id string) (*model.Patient, error) {
	query := patientSelect + ` WHERE id = $1`
	return r.scanPatient(r.pool.QueryRow(ctx, query, id))
}

// ListPatientsInput filters and paginates patient listings.
type ListPatientsInput struct {
	Village string
	Name    string
	Limit   int
	Offset  int
}

// ListPatients returns patients matching the filter, newest first.
func (r *Repository) ListPatients(ctx context.Context, input ListPatientsInput) ([]*model.Patient, error) {
	query := patientSelect + `
		WHERE ($1 = '' OR village = $1)
		  AND ($2 = '' OR name ILIKE '%' || $2 || '%')
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx, query, input.Village, input.Name, limit, input.Offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	defer rows.Close()

	var patients []*model.Patient
	for rows.Next() {
		p, err := r.scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}

// UpdatePatient updates an existing patient record.
func (r *Repository) UpdatePatient(ctx context.Context, p *model.Patient) error {
	query := `
		UPDATE patients
		SET name = $2, age = $3, gender = $4, village = $5, contact_number = $6,
		    pregnant = $7, medical_history = $8, updated_at = $9
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Age,
		p.Gender,
		p.Village,
		p.ContactNumber,
		p.Pregnant,
		p.MedicalHistory,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

// UpsertPatient inserts a patient, or updates it when the incoming row is
// newer than the stored one. Used by the sync engine; rows already newer in
// the central store win and the stale upload becomes a no-op.
func (r *Repository) UpsertPatient(ctx context.Context, p *model.Patient) error {
	query := `
		INSERT INTO patients (id, name, age, gender, village, contact_number, pregnant, medical_history, registered_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE
		SET name = EXCLUDED.name,
		    age = EXCLUDED.age,
		    gender = EXCLUDED.gender,
		    village = EXCLUDED.village,
		    contact_number = EXCLUDED.contact_number,
		    pregnant = EXCLUDED.pregnant,
		    medical_history = EXCLUDED.medical_history,
		    updated_at = EXCLUDED.updated_at
		WHERE patients.updated_at <= EXCLUDED.updated_at
	`

	_, err := r.pool.Exec(ctx, query,
		p.ID,
		p.Name,
		p.Age,
		p.Gender,
		p.Village,
		p.ContactNumber,
		p.Pregnant,
		p.MedicalHistory,
		p.RegisteredBy,
		p.CreatedAt,
		p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert patient: %w", err)
	}
	return nil
}

// DeletePatient removes a patient record.
func (r *Repository) DeletePatient(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM patients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPatientNotFound
	}
	return nil
}

const patientSelect = `
	SELECT id, name, age, gender, village, contact_number, pregnant, medical_history, registered_by, created_at, updated_at
	FROM patients
`

func (r *Repository) scanPatient(row pgx.Row) (*model.Patient, error) {
	var p model.Patient

	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Age,
		&p.Gender,
		&p.Village,
		&p.ContactNumber,
		&p.Pregnant,
		&p.MedicalHistory,
		&p.RegisteredBy,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("failed to scan patient: %w", err)
	}
	return &p, nil
}
