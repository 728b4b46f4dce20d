package localstore

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ashaconnect/ashaconnect/internal/model"
)

// SavePatient writes a patient record to the local store.
// Existing records are replaced.
func (s *Store) SavePatient(ctx context.Context, p *model.Patient) error {
	row := &patientRow{}
	row.fromDomain(p)

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(row).Error
	if err != nil {
		return fmt.Errorf("save patient: %w", err)
	}
	return nil
}

// GetPatient retrieves a patient by ID.
func (s *Store) GetPatient(ctx context.Context, id string) (*model.Patient, error) {
	var row patientRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return row.toDomain(), nil
}

// ListPatients returns patients filtered by village and name, newest first.
func (s *Store) ListPatients(ctx context.Context, village, name string, limit int) ([]*model.Patient, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := s.db.WithContext(ctx).Model(&patientRow{})
	if village != "" {
		query = query.Where("village = ?", village)
	}
	if name != "" {
		query = query.Where("name LIKE ?", "%"+name+"%")
	}

	var rows []patientRow
	if err := query.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}

	patients := make([]*model.Patient, len(rows))
	for i := range rows {
		patients[i] = rows[i].toDomain()
	}
	return patients, nil
}

// SaveAssessment writes a health assessment to the local store.
func (s *Store) SaveAssessment(ctx context.Context, a *model.Assessment) error {
	row := &assessmentRow{}
	if err := row.fromDomain(a); err != nil {
		return fmt.Errorf("encode assessment: %w", err)
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(row).Error
	if err != nil {
		return fmt.Errorf("save assessment: %w", err)
	}
	return nil
}

// GetAssessment retrieves an assessment by ID.
func (s *Store) GetAssessment(ctx context.Context, id string) (*model.Assessment, error) {
	var row assessmentRow
	err := s.db.WithContext(ctx).First(&row, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get assessment: %w", err)
	}
	return row.toDomain()
}

// ListAssessmentsByPatient returns a patient's assessments, newest first.
func (s *Store) ListAssessmentsByPatient(ctx context.Context, patientID string, limit int) ([]*model.Assessment, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	var rows []assessmentRow
	err := s.db.WithContext(ctx).
		Where("patient_id = ?", patientID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}

	assessments := make([]*model.Assessment, 0, len(rows))
	for i := range rows {
		a, err := rows[i].toDomain()
		if err != nil {
			return nil, fmt.Errorf("decode assessment %s: %w", rows[i].ID, err)
		}
		assessments = append(assessments, a)
	}
	return assessments, nil
}
