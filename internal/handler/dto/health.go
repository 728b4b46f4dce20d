package dto

import (
	"time"

	"github.com/ashaconnect/ashaconnect/internal/model"
)

// AssessRequest represents the request body for a health assessment.
type AssessRequest struct {
	PatientID  string            `json:"patient_id" validate:"required"`
	Symptoms   []string          `json:"symptoms" validate:"required,min=1,dive,max=128"`
	VitalSigns map[string]string `json:"vital_signs,omitempty"`
}

// ConditionMatchResponse is a single matched condition within an assessment.
type ConditionMatchResponse struct {
	Condition  string `json:"condition"`
	Confidence int    `json:"confidence"`
}

// AssessmentResponse represents an assessment in API responses.
type AssessmentResponse struct {
	ID               string                   `json:"id"`
	PatientID        string                   `json:"patient_id"`
	Symptoms         []string                 `json:"symptoms"`
	VitalSigns       map[string]string        `json:"vital_signs,omitempty"`
	Conditions       []ConditionMatchResponse `json:"conditions"`
	RequiresReferral bool                     `json:"requires_referral"`
	ReferralReason   string                   `json:"referral_reason,omitempty"`
	Recommendations  []string                 `json:"recommendations"`
	CreatedBy        string                   `json:"created_by"`
	CreatedAt        time.Time                `json:"created_at"`
}

// ToAssessmentResponse converts an Assessment model to AssessmentResponse DTO.
func ToAssessmentResponse(a *model.Assessment) *AssessmentResponse {
	conditions := make([]ConditionMatchResponse, len(a.Conditions))
	for i, c := range a.Conditions {
		conditions[i] = ConditionMatchResponse{Condition: c.Condition, Confidence: c.Confidence}
	}
	return &AssessmentResponse{
		ID:               a.ID,
		PatientID:        a.PatientID,
		Symptoms:         a.Symptoms,
		VitalSigns:       a.VitalSigns,
		Conditions:       conditions,
		RequiresReferral: a.RequiresReferral,
		ReferralReason:   a.ReferralReason,
		Recommendations:  a.Recommendations,
		CreatedBy:        a.CreatedBy,
		CreatedAt:        a.CreatedAt,
	}
}

// ToAssessmentResponses converts a list of assessments.
func ToAssessmentResponses(assessments []*model.Assessment) []*AssessmentResponse {
	out := make([]*AssessmentResponse, len(assessments))
	for i, a := range assessments {
		out[i] = ToAssessmentResponse(a)
	}
	return out
}

// ConditionResponse describes a condition from the knowledge base.
type ConditionResponse struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Symptoms         []string `json:"symptoms"`
	Severity         string   `json:"severity"`
	RequiresReferral bool     `json:"requires_referral"`
	Treatments       []string `json:"treatments"`
	Prevention       []string `json:"prevention"`
}

// ToConditionResponse converts a Condition model to ConditionResponse DTO.
func ToConditionResponse(c *model.Condition) *ConditionResponse {
	return &ConditionResponse{
		ID:               c.ID,
		Name:             c.Name,
		Symptoms:         c.Symptoms,
		Severity:         string(c.Severity),
		RequiresReferral: c.RequiresReferral,
		Treatments:       c.Treatments,
		Prevention:       c.Prevention,
	}
}
