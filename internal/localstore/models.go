package localstore

import (
	"encoding/json"
	"time"

	"github.com/ashaconnect/ashaconnect/internal/model"
)

// patientRow is the database model for offline patient records.
type patientRow struct {
	ID             string `gorm:"primaryKey"`
	Name           string `gorm:"not null;index"`
	Age            int    `gorm:"not null"`
	Gender         string
	Village        string `gorm:"index"`
	ContactNumber  string
	Pregnant       bool
	MedicalHistory string // JSON array
	RegisteredBy   string
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// TableName specifies the table name for GORM.
func (patientRow) TableName() string {
	return "patients"
}

func (r *patientRow) toDomain() *model.Patient {
	return &model.Patient{
		ID:             r.ID,
		Name:           r.Name,
		Age:            r.Age,
		Gender:         r.Gender,
		Village:        r.Village,
		ContactNumber:  r.ContactNumber,
		Pregnant:       r.Pregnant,
		MedicalHistory: fromJSONList(r.MedicalHistory),
		RegisteredBy:   r.RegisteredBy,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func (r *patientRow) fromDomain(p *model.Patient) {
	r.ID = p.ID
	r.Name = p.Name
	r.Age = p.Age
	r.Gender = p.Gender
	r.Village = p.Village
	r.ContactNumber = p.ContactNumber
	r.Pregnant = p.Pregnant
	r.MedicalHistory = toJSONList(p.MedicalHistory)
	r.RegisteredBy = p.RegisteredBy
	r.CreatedAt = p.CreatedAt
	r.UpdatedAt = p.UpdatedAt
}

// assessmentRow is the database model for offline health assessments.
type assessmentRow struct {
	ID               string `gorm:"primaryKey"`
	PatientID        string `gorm:"not null;index"`
	Symptoms         string // JSON array
	VitalSigns       string // JSON object
	Conditions       string // JSON array
	RequiresReferral bool   `gorm:"index"`
	ReferralReason   string
	Recommendations  string // JSON array
	CreatedBy        string
	CreatedAt        time.Time `gorm:"not null;index"`
	UpdatedAt        time.Time `gorm:"not null"`
}

// TableName specifies the table name for GORM.
func (assessmentRow) TableName() string {
	return "health_assessments"
}

func (r *assessmentRow) toDomain() (*model.Assessment, error) {
	a := &model.Assessment{
		ID:               r.ID,
		PatientID:        r.PatientID,
		Symptoms:         fromJSONList(r.Symptoms),
		RequiresReferral: r.RequiresReferral,
		ReferralReason:   r.ReferralReason,
		Recommendations:  fromJSONList(r.Recommendations),
		CreatedBy:        r.CreatedBy,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if r.VitalSigns != "" {
		if err := json.Unmarshal([]byte(r.VitalSigns), &a.VitalSigns); err != nil {
			return nil, err
		}
	}
	if r.Conditions != "" {
		if err := json.Unmarshal([]byte(r.Conditions), &a.Conditions); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (r *assessmentRow) fromDomain(a *model.Assessment) error {
	vitals, err := json.Marshal(a.VitalSigns)
	if err != nil {
		return err
	}
	conditions, err := json.Marshal(a.Conditions)
	if err != nil {
		return err
	}

	r.ID = a.ID
	r.PatientID = a.PatientID
	r.Symptoms = toJSONList(a.Symptoms)
	r.VitalSigns = string(vitals)
	r.Conditions = string(conditions)
	r.RequiresReferral = a.RequiresReferral
	r.ReferralReason = a.ReferralReason
	r.Recommendations = toJSONList(a.Recommendations)
	r.CreatedBy = a.CreatedBy
	r.CreatedAt = a.CreatedAt
	r.UpdatedAt = a.UpdatedAt
	return nil
}

// syncRow is the database model for queued sync records.
type syncRow struct {
	ID         string `gorm:"primaryKey"`
	RecordType string `gorm:"not null;index"`
	RecordID   string `gorm:"not null;index"`
	Operation  string `gorm:"not null"`
	Payload    []byte
	Priority   int    `gorm:"not null;index"`
	Status     string `gorm:"not null;index"`
	RetryCount int    `gorm:"not null"`
	LastError  string
	NextRetry  *time.Time
	CreatedAt  time.Time `gorm:"not null;index"`
	SyncedAt   *time.Time
}

// TableName specifies the table name for GORM.
func (syncRow) TableName() string {
	return "sync_queue"
}

func (r *syncRow) toDomain() *model.SyncRecord {
	return &model.SyncRecord{
		ID:         r.ID,
		RecordType: model.RecordType(r.RecordType),
		RecordID:   r.RecordID,
		Operation:  model.SyncOperation(r.Operation),
		Payload:    r.Payload,
		Priority:   r.Priority,
		Status:     model.SyncStatus(r.Status),
		RetryCount: r.RetryCount,
		LastError:  r.LastError,
		NextRetry:  r.NextRetry,
		CreatedAt:  r.CreatedAt,
		SyncedAt:   r.SyncedAt,
	}
}

func (r *syncRow) fromDomain(rec *model.SyncRecord) {
	r.ID = rec.ID
	r.RecordType = string(rec.RecordType)
	r.RecordID = rec.RecordID
	r.Operation = string(rec.Operation)
	r.Payload = rec.Payload
	r.Priority = rec.Priority
	r.Status = string(rec.Status)
	r.RetryCount = rec.RetryCount
	r.LastError = rec.LastError
	r.NextRetry = rec.NextRetry
	r.CreatedAt = rec.CreatedAt
	r.SyncedAt = rec.SyncedAt
}

// resourceRow is the database model for offline reference resources
// (protocols, audio prompts, leaflets).
type resourceRow struct {
	ID           string `gorm:"primaryKey"`
	Name         string `gorm:"not null"`
	Category     string `gorm:"index"`
	Path         string `gorm:"not null"`
	Language     string
	SizeBytes    int64
	AccessCount  int64
	LastAccessed *time.Time
	CreatedAt    time.Time `gorm:"not null"`
}

// TableName specifies the table name for GORM.
func (resourceRow) TableName() string {
	return "resources"
}

func toJSONList(items []string) string {
	if len(items) == 0 {
		return "[]"
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func fromJSONList(data string) []string {
	if data == "" {
		return nil
	}
	var items []string
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil
	}
	return items
}
