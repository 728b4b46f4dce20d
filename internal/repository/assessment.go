package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ashaconnect/ashaconnect/internal/model"
)

// ErrAssessmentNotFound indicates the assessment does not exist in the central store.
var ErrAssessmentNotFound = errors.New("assessment not found")

// CreateAssessment inserts a new health assessment.
func (r *Repository) CreateAssessment(ctx context.Context, a *model.Assessment) error {
	query := `
		INSERT INTO assessments (id, patient_id, symptoms, vital_signs, conditions, requires_referral, referral_reason, recommendations, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	return r.execAssessment(ctx, query, a)
}

// UpsertAssessment inserts an assessment, or updates it when the incoming row
// is newer than the stored one. Used by the sync engine.
func (r *Repository) UpsertAssessment(ctx context.Context, a *model.Assessment) error {
	query := `
		INSERT INTO assessments (id, patient_id, symptoms, vital_signs, conditions, requires_referral, referral_reason, recommendations, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE
		SET symptoms = EXCLUDED.symptoms,
		    vital_signs = EXCLUDED.vital_signs,
		    conditions = EXCLUDED.conditions,
		    requires_referral = EXCLUDED.requires_referral,
		    referral_reason = EXCLUDED.referral_reason,
		    recommendations = EXCLUDED.recommendations,
		    updated_at = EXCLUDED.updated_at
		WHERE assessments.updated_at <= EXCLUDED.updated_at
	`
	return r.execAssessment(ctx, query, a)
}

func (r *Repository) execAssessment(ctx context.Context, query string, a *model.Assessment) error {
	vitals, err := json.Marshal(a.VitalSigns)
	if err != nil {
		return fmt.Errorf("marshal vital signs: %w", err)
	}
	conditions, err := json.Marshal(a.Conditions)
	if err != nil {
		return fmt.Errorf("marshal conditions: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		a.ID,
		a.PatientID,
		a.Symptoms,
		vitals,
		conditions,
		a.RequiresReferral,
		a.ReferralReason,
		a.Recommendations,
		a.CreatedBy,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to write assessment: %w", err)
	}
	return nil
}

// GetAssessmentByID retrieves an assessment by ID.
func (r *Repository) GetAssessmentByID(ctx context.Context, id string) (*model.Assessment, error) {
	query := assessmentSelect + ` WHERE id = $1`
	return r.scanAssessment(r.pool.QueryRow(ctx, query, id))
}

// ListAssessmentsByPatient returns a patient's assessments, newest first.
func (r *Repository) ListAssessmentsByPatient(ctx context.Context, patientID string, limit, offset int) ([]*model.Assessment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := assessmentSelect + `
		WHERE patient_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.pool.Query(ctx, query, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list assessments: %w", err)
	}
	defer rows.Close()

	return r.collectAssessments(rows)
}

// ListReferrals returns assessments that flagged a referral, newest first.
func (r *Repository) ListReferrals(ctx context.Context, limit, offset int) ([]*model.Assessment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := assessmentSelect + `
		WHERE requires_referral = TRUE
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrals: %w", err)
	}
	defer rows.Close()

	return r.collectAssessments(rows)
}

const assessmentSelect = `
	SELECT id, patient_id, symptoms, vital_signs, conditions, requires_referral, referral_reason, recommendations, created_by, created_at, updated_at
	FROM assessments
`

func (r *Repository) collectAssessments(rows pgx.Rows) ([]*model.Assessment, error) {
	var assessments []*model.Assessment
	for rows.Next() {
		a, err := r.scanAssessment(rows)
		if err != nil {
			return nil, err
		}
		assessments = append(assessments, a)
	}
	return assessments, rows.Err()
}

func (r *Repository) scanAssessment(row pgx.Row) (*model.Assessment, error) {
	var (
		a          model.Assessment
		vitals     []byte
		conditions []byte
	)

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.Symptoms,
		&vitals,
		&conditions,
		&a.RequiresReferral,
		&a.ReferralReason,
		&a.Recommendations,
		&a.CreatedBy,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAssessmentNotFound
		}
		return nil, fmt.Errorf("failed to scan assessment: %w", err)
	}

	if len(vitals) > 0 {
		if err := json.Unmarshal(vitals, &a.VitalSigns); err != nil {
			return nil, fmt.Errorf("unmarshal vital signs: %w", err)
		}
	}
	if len(conditions) > 0 {
		if err := json.Unmarshal(conditions, &a.Conditions); err != nil {
			return nil, fmt.Errorf("unmarshal conditions: %w", err)
		}
	}
	return &a, nil
}
