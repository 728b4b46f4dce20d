package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ashaconnect/ashaconnect/internal/localstore"
	"github.com/ashaconnect/ashaconnect/internal/model"
)

// Service-level errors for patient operations.
var (
	ErrPatientNotFound = errors.New("patient not found")
	ErrInvalidAge      = errors.New("age must be between 0 and 120")
	ErrInvalidGender   = errors.New("gender must be male, female, or other")
)

// SyncTrigger lets services nudge the sync worker after queueing records.
type SyncTrigger interface {
	TriggerNow()
}

// PatientService manages patient records. Writes land in the local store
// first and reach the central database through the sync queue, so field
// registration works without connectivity.
type PatientService struct {
	store   *localstore.Store
	trigger SyncTrigger
	logger  *slog.Logger
}

// NewPatientService creates a PatientService.
func NewPatientService(store *localstore.Store, trigger SyncTrigger, logger *slog.Logger) *PatientService {
	return &PatientService{
		store:   store,
		trigger: trigger,
		logger:  logger.With("component", "service.patient"),
	}
}

// RegisterPatientInput holds the fields for registering a patient.
type RegisterPatientInput struct {
	Name           string
	Age            int
	Gender         string
	Village        string
	ContactNumber  string
	Pregnant       bool
	MedicalHistory []string
	RegisteredBy   string
}

// Register creates a patient record and queues it for upload.
func (s *PatientService) Register(ctx context.Context, input RegisterPatientInput) (*model.Patient, error) {
	if input.Age < 0 || input.Age > 120 {
		return nil, ErrInvalidAge
	}
	if !validGender(input.Gender) {
		return nil, ErrInvalidGender
	}

	now := time.Now().UTC()
	patient := &model.Patient{
		ID:             uuid.NewString(),
		Name:           input.Name,
		Age:            input.Age,
		Gender:         input.Gender,
		Village:        input.Village,
		ContactNumber:  input.ContactNumber,
		Pregnant:       input.Pregnant,
		MedicalHistory: input.MedicalHistory,
		RegisteredBy:   input.RegisteredBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.SavePatient(ctx, patient); err != nil {
		return nil, fmt.Errorf("save patient: %w", err)
	}
	if err := s.enqueue(ctx, patient, model.SyncOpCreate); err != nil {
		return nil, err
	}

	s.logger.Info("patient registered",
		"patient_id", patient.ID,
		"village", patient.Village,
	)
	return patient, nil
}

// Get retrieves a patient by ID.
func (s *PatientService) Get(ctx context.Context, id string) (*model.Patient, error) {
	patient, err := s.store.GetPatient(ctx, id)
	if err != nil {
		if errors.Is(err, localstore.ErrNotFound) {
			return nil, ErrPatientNotFound
		}
		return nil, fmt.Errorf("get patient: %w", err)
	}
	return patient, nil
}

// List returns patients filtered by village and name.
func (s *PatientService) List(ctx context.Context, village, name string, limit int) ([]*model.Patient, error) {
	patients, err := s.store.ListPatients(ctx, village, name, limit)
	if err != nil {
		return nil, fmt.Errorf("list patients: %w", err)
	}
	return patients, nil
}

// UpdatePatientInput holds the fields a worker may change on a patient.
type UpdatePatientInput struct {
	Name           *string
	Age            *int
	Gender         *string
	Village        *string
	ContactNumber  *string
	Pregnant       *bool
	MedicalHistory []string
}

// Update applies partial changes and queues the record for upload.
func (s *PatientService) Update(ctx context.Context, id string, input UpdatePatientInput) (*model.Patient, error) {
	patient, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		patient.Name = *input.Name
	}
	if input.Age != nil {
		if *input.Age < 0 || *input.Age > 120 {
			return nil, ErrInvalidAge
		}
		patient.Age = *input.Age
	}
	if input.Gender != nil {
		if !validGender(*input.Gender) {
			return nil, ErrInvalidGender
		}
		patient.Gender = *input.Gender
	}
	if input.Village != nil {
		patient.Village = *input.Village
	}
	if input.ContactNumber != nil {
		patient.ContactNumber = *input.ContactNumber
	}
	if input.Pregnant != nil {
		patient.Pregnant = *input.Pregnant
	}
	if input.MedicalHistory != nil {
		patient.MedicalHistory = input.MedicalHistory
	}
	patient.UpdatedAt = time.Now().UTC()

	if err := s.store.SavePatient(ctx, patient); err != nil {
		return nil, fmt.Errorf("save patient: %w", err)
	}
	if err := s.enqueue(ctx, patient, model.SyncOpUpdate); err != nil {
		return nil, err
	}
	return patient, nil
}

func (s *PatientService) enqueue(ctx context.Context, patient *model.Patient, op model.SyncOperation) error {
	payload, err := json.Marshal(patient)
	if err != nil {
		return fmt.Errorf("marshal patient: %w", err)
	}
	rec := &model.SyncRecord{
		RecordType: model.RecordTypePatient,
		RecordID:   patient.ID,
		Operation:  op,
		Payload:    payload,
		Priority:   model.SyncPriority(model.RecordTypePatient),
		Status:     model.SyncStatusPending,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.store.Enqueue(ctx, rec); err != nil {
		return fmt.Errorf("queue patient for sync: %w", err)
	}
	if s.trigger != nil {
		s.trigger.TriggerNow()
	}
	return nil
}

func validGender(g string) bool {
	switch g {
	case "male", "female", "other":
		return true
	}
	return false
}
