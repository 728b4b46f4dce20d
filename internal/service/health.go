package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ashaconnect/ashaconnect/internal/assess"
	"github.com/ashaconnect/ashaconnect/internal/localstore"
	"github.com/ashaconnect/ashaconnect/internal/metrics"
	"github.com/ashaconnect/ashaconnect/internal/model"
	"github.com/ashaconnect/ashaconnect/internal/repository"
)

// Service-level errors for assessment operations.
var (
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrNoSymptoms         = errors.New("at least one symptom is required")
)

// llmTimeout bounds how long an assessment waits on the completion server
// before settling for the rule engine alone.
const llmTimeout = 30 * time.Second

// ModelAnalyzer runs the optional model-backed assessment pass.
type ModelAnalyzer interface {
	Available() bool
	Assess(ctx context.Context, symptoms []string, patient *model.Patient) (*assess.Result, error)
}

// HealthService runs health assessments and manages their records.
type HealthService struct {
	store    *localstore.Store
	repo     *repository.Repository
	patients *PatientService
	analyzer ModelAnalyzer
	trigger  SyncTrigger
	metrics  metrics.Recorder
	logger   *slog.Logger
}

// NewHealthService creates a HealthService. analyzer may be nil when no
// completion server is configured.
func NewHealthService(store *localstore.Store, repo *repository.Repository, patients *PatientService, analyzer ModelAnalyzer, trigger SyncTrigger, recorder metrics.Recorder, logger *slog.Logger) *HealthService {
	return &HealthService{
		store:    store,
		repo:     repo,
		patients: patients,
		analyzer: analyzer,
		trigger:  trigger,
		metrics:  recorder,
		logger:   logger.With("component", "service.health"),
	}
}

// AssessInput holds one assessment request.
type AssessInput struct {
	PatientID  string
	Symptoms   []string
	VitalSigns map[string]string
	AssessedBy string
}

// Assess evaluates symptoms, persists the assessment, and queues it for
// upload. The rule engine always runs; the language model augments it when
// reachable and its failure never fails the assessment.
func (s *HealthService) Assess(ctx context.Context, input AssessInput) (*model.Assessment, error) {
	symptoms := assess.NormalizeSymptoms(input.Symptoms)
	if len(symptoms) == 0 {
		return nil, ErrNoSymptoms
	}

	patient, err := s.patients.Get(ctx, input.PatientID)
	if err != nil {
		return nil, err
	}

	result := assess.Evaluate(assess.Input{
		Symptoms:   symptoms,
		Patient:    patient,
		VitalSigns: input.VitalSigns,
	})

	if s.analyzer != nil && s.analyzer.Available() {
		llmCtx, cancel := context.WithTimeout(ctx, llmTimeout)
		llmResult, err := s.analyzer.Assess(llmCtx, symptoms, patient)
		cancel()
		if err != nil {
			s.logger.Warn("model assessment unavailable", "error", err)
		} else {
			result = assess.Merge(result, llmResult)
		}
	}

	now := time.Now().UTC()
	assessment := &model.Assessment{
		ID:               uuid.NewString(),
		PatientID:        patient.ID,
		Symptoms:         symptoms,
		VitalSigns:       input.VitalSigns,
		Conditions:       result.Conditions,
		RequiresReferral: result.RequiresReferral,
		ReferralReason:   result.ReferralReason,
		Recommendations:  result.Recommendations,
		CreatedBy:        input.AssessedBy,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.store.SaveAssessment(ctx, assessment); err != nil {
		return nil, fmt.Errorf("save assessment: %w", err)
	}
	if err := s.enqueue(ctx, assessment); err != nil {
		return nil, err
	}

	s.metrics.IncAssessment(result.Source)
	if assessment.RequiresReferral {
		s.metrics.IncReferral()
	}
	s.logger.Info("assessment completed",
		"assessment_id", assessment.ID,
		"patient_id", patient.ID,
		"source", result.Source,
		"conditions", len(assessment.Conditions),
		"requires_referral", assessment.RequiresReferral,
	)
	return assessment, nil
}

// Get retrieves an assessment, preferring the local store and falling back
// to the central database for records synced from other devices.
func (s *HealthService) Get(ctx context.Context, id string) (*model.Assessment, error) {
	assessment, err := s.store.GetAssessment(ctx, id)
	if err == nil {
		return assessment, nil
	}
	if !errors.Is(err, localstore.ErrNotFound) {
		return nil, fmt.Errorf("get assessment: %w", err)
	}

	if s.repo != nil {
		assessment, err = s.repo.GetAssessmentByID(ctx, id)
		if err == nil {
			return assessment, nil
		}
		if !errors.Is(err, repository.ErrAssessmentNotFound) {
			return nil, fmt.Errorf("get assessment: %w", err)
		}
	}
	return nil, ErrAssessmentNotFound
}

// History lists a patient's assessments, newest first.
func (s *HealthService) History(ctx context.Context, patientID string, limit int) ([]*model.Assessment, error) {
	if _, err := s.patients.Get(ctx, patientID); err != nil {
		return nil, err
	}
	assessments, err := s.store.ListAssessmentsByPatient(ctx, patientID, limit)
	if err != nil {
		return nil, fmt.Errorf("list assessments: %w", err)
	}
	return assessments, nil
}

// Referrals lists assessments flagged for referral from the central
// database. Supervisor view.
func (s *HealthService) Referrals(ctx context.Context, limit, offset int) ([]*model.Assessment, error) {
	assessments, err := s.repo.ListReferrals(ctx, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list referrals: %w", err)
	}
	return assessments, nil
}

// Conditions returns the condition catalog.
func (s *HealthService) Conditions() []*model.Condition {
	return assess.Conditions()
}

func (s *HealthService) enqueue(ctx context.Context, a *model.Assessment) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal assessment: %w", err)
	}
	rec := &model.SyncRecord{
		RecordType: model.RecordTypeAssessment,
		RecordID:   a.ID,
		Operation:  model.SyncOpCreate,
		Payload:    payload,
		Priority:   model.SyncPriority(model.RecordTypeAssessment),
		Status:     model.SyncStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.Enqueue(ctx, rec); err != nil {
		return fmt.Errorf("queue assessment for sync: %w", err)
	}
	if s.trigger != nil {
		s.trigger.TriggerNow()
	}
	return nil
}
