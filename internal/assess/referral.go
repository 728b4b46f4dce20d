package assess

import (
	"fmt"
	"slices"

	"github.com/ashaconnect/ashaconnect/internal/model"
)

const (
	// referralConfidence is the confidence at which a referral-worthy
	// condition triggers a referral.
	referralConfidence = 70
	// vulnerableReferralConfidence is the lower threshold applied to
	// high-risk patients.
	vulnerableReferralConfidence = 50
)

// emergencySymptoms always trigger an immediate referral regardless of
// condition confidence.
var emergencySymptoms = []string{
	"difficulty breathing",
	"chest pain",
	"unconsciousness",
	"seizures",
	"severe bleeding",
	"severe dehydration",
}

// HasEmergencySymptom reports whether any symptom is on the emergency list.
// Symptoms must already be normalized.
func HasEmergencySymptom(symptoms []string) bool {
	for _, s := range symptoms {
		if slices.Contains(emergencySymptoms, s) {
			return true
		}
	}
	return false
}

// decideReferral sets the referral flag and reason on a result.
func decideReferral(result *Result, symptoms []string, patient *model.Patient) {
	for _, s := range symptoms {
		if slices.Contains(emergencySymptoms, s) {
			result.RequiresReferral = true
			result.ReferralReason = fmt.Sprintf("Emergency symptom reported: %s. Refer immediately.", s)
			return
		}
	}

	threshold := referralConfidence
	if patient != nil && patient.IsVulnerable() {
		threshold = vulnerableReferralConfidence
	}

	for _, match := range result.Conditions {
		cond := ConditionByID(match.Condition)
		if cond == nil || !cond.RequiresReferral {
			continue
		}
		if match.Confidence >= threshold {
			result.RequiresReferral = true
			result.ReferralReason = fmt.Sprintf("Possible %s (%d%% confidence) requires facility care.", cond.Name, match.Confidence)
			return
		}
	}
}

// recommendations builds the advice list for a result. Emergencies get
// referral instructions only; otherwise treatments for matched conditions
// are collected along with prevention advice for the top condition.
func recommendations(result *Result, symptoms []string) []string {
	if HasEmergencySymptom(symptoms) {
		return []string{
			"Arrange transport to the nearest health facility immediately",
			"Do not give food or water if the patient is unconscious",
			"Stay with the patient until handover to medical staff",
		}
	}

	var recs []string
	for _, match := range result.Conditions {
		cond := ConditionByID(match.Condition)
		if cond == nil {
			continue
		}
		for _, t := range cond.Treatments {
			if !slices.Contains(recs, t) {
				recs = append(recs, t)
			}
		}
	}

	if len(result.Conditions) > 0 {
		if top := ConditionByID(result.Conditions[0].Condition); top != nil {
			for _, p := range top.Prevention {
				if !slices.Contains(recs, p) {
					recs = append(recs, p)
				}
			}
		}
	}

	if len(recs) == 0 {
		recs = append(recs,
			"Monitor the patient and reassess if symptoms persist beyond two days",
			"Ensure adequate rest and fluids",
		)
	}

	return recs
}
