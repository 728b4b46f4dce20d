package model

import "time"

// ConditionMatch is a possible condition identified during an assessment,
// with a confidence percentage from 0 to 100.
type ConditionMatch struct {
	Condition  string `json:"condition"`
	Confidence int    `json:"confidence"`
}

// Assessment represents a health assessment for a patient.
type Assessment struct {
	ID               string             `json:"id"`
	PatientID        string             `json:"patient_id"`
	Symptoms         []string           `json:"symptoms"`
	VitalSigns       map[string]string  `json:"vital_signs,omitempty"`
	Conditions       []ConditionMatch   `json:"conditions"`
	RequiresReferral bool               `json:"requires_referral"`
	ReferralReason   string             `json:"referral_reason,omitempty"`
	Recommendations  []string           `json:"recommendations"`
	CreatedBy        string             `json:"created_by"`
	CreatedAt        time.Time          `json:"created_at"`
	UpdatedAt        time.Time          `json:"updated_at"`
}

// TopCondition returns the highest-confidence condition, or nil when
// the assessment identified nothing.
func (a *Assessment) TopCondition() *ConditionMatch {
	if len(a.Conditions) == 0 {
		return nil
	}
	top := &a.Conditions[0]
	for i := 1; i < len(a.Conditions); i++ {
		if a.Conditions[i].Confidence > top.Confidence {
			top = &a.Conditions[i]
		}
	}
	return top
}

// RequiresUrgentCare returns true when the assessment flagged a referral
// with high confidence in at least one condition.
func (a *Assessment) RequiresUrgentCare() bool {
	if !a.RequiresReferral {
		return false
	}
	top := a.TopCondition()
	return top != nil && top.Confidence >= 70
}
