package dto

import (
	"time"

	"github.com/ashaconnect/ashaconnect/internal/model"
)

// RegisterPatientRequest represents the request body for registering a patient.
type RegisterPatientRequest struct {
	Name           string   `json:"name" validate:"required,min=1,max=128"`
	Age            int      `json:"age" validate:"min=0,max=120"`
	Gender         string   `json:"gender" validate:"required,oneof=male female other"`
	Village        string   `json:"village" validate:"required,max=128"`
	ContactNumber  string   `json:"contact_number,omitempty" validate:"omitempty,max=20"`
	Pregnant       bool     `json:"pregnant,omitempty"`
	MedicalHistory []string `json:"medical_history,omitempty" validate:"omitempty,dive,max=256"`
}

// UpdatePatientRequest represents partial patient changes.
type UpdatePatientRequest struct {
	Name           *string  `json:"name,omitempty" validate:"omitempty,min=1,max=128"`
	Age            *int     `json:"age,omitempty" validate:"omitempty,min=0,max=120"`
	Gender         *string  `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
	Village        *string  `json:"village,omitempty" validate:"omitempty,max=128"`
	ContactNumber  *string  `json:"contact_number,omitempty" validate:"omitempty,max=20"`
	Pregnant       *bool    `json:"pregnant,omitempty"`
	MedicalHistory []string `json:"medical_history,omitempty" validate:"omitempty,dive,max=256"`
}

// PatientResponse represents a patient in API responses.
type PatientResponse struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	Gender         string    `json:"gender"`
	Village        string    `json:"village"`
	ContactNumber  string    `json:"contact_number,omitempty"`
	Pregnant       bool      `json:"pregnant,omitempty"`
	MedicalHistory []string  `json:"medical_history,omitempty"`
	Vulnerable     bool      `json:"vulnerable"`
	RegisteredBy   string    `json:"registered_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ToPatientResponse converts a Patient model to PatientResponse DTO.
func ToPatientResponse(p *model.Patient) *PatientResponse {
	return &PatientResponse{
		ID:             p.ID,
		Name:           p.Name,
		Age:            p.Age,
		Gender:         p.Gender,
		Village:        p.Village,
		ContactNumber:  p.ContactNumber,
		Pregnant:       p.Pregnant,
		MedicalHistory: p.MedicalHistory,
		Vulnerable:     p.IsVulnerable(),
		RegisteredBy:   p.RegisteredBy,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}

// ToPatientResponses converts a list of patients.
func ToPatientResponses(patients []*model.Patient) []*PatientResponse {
	out := make([]*PatientResponse, len(patients))
	for i, p := range patients {
		out[i] = ToPatientResponse(p)
	}
	return out
}
