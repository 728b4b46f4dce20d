package llm

import (
	"fmt"
	"strings"

	"github.com/ashaconnect/ashaconnect/internal/model"
)

const symptomAnalysisTemplate = `You are a healthcare assistant helping community health workers in rural India.
Based on the following symptoms, analyze what might be the potential health conditions:
Symptoms: %s
Patient Information: Age: %s, Gender: %s
Medical History: %s
Provide a detailed analysis of the symptoms and potential conditions.`

const treatmentTemplate = `You are a healthcare assistant helping community health workers in rural India.
Based on the following diagnosis, recommend appropriate treatments and care instructions:
Diagnosis: %s
Severity: %s
Patient Information: Age: %s, Gender: %s
Medical History: %s
Provide detailed treatment recommendations and care instructions.`

const referralTemplate = `You are a healthcare assistant helping community health workers in rural India.
Based on the following information, determine if the patient needs to be referred to a healthcare facility:
Diagnosis: %s
Symptoms: %s
Patient Information: Age: %s, Gender: %s
Medical History: %s
Provide a clear recommendation on whether referral is needed and the urgency level.`

// SymptomAnalysisPrompt builds the prompt for condition identification.
func SymptomAnalysisPrompt(symptoms []string, patient *model.Patient) string {
	age, gender, history := patientFields(patient)
	return fmt.Sprintf(symptomAnalysisTemplate, strings.Join(symptoms, ", "), age, gender, history)
}

// TreatmentPrompt builds the prompt for care instructions for a diagnosis.
func TreatmentPrompt(diagnosis, severity string, patient *model.Patient) string {
	age, gender, history := patientFields(patient)
	return fmt.Sprintf(treatmentTemplate, diagnosis, severity, age, gender, history)
}

// ReferralPrompt builds the prompt for the referral decision.
func ReferralPrompt(diagnosis string, symptoms []string, patient *model.Patient) string {
	age, gender, history := patientFields(patient)
	return fmt.Sprintf(referralTemplate, diagnosis, strings.Join(symptoms, ", "), age, gender, history)
}

func patientFields(patient *model.Patient) (age, gender, history string) {
	age, gender, history = "Unknown", "Unknown", "None"
	if patient == nil {
		return
	}
	if patient.Age > 0 {
		age = fmt.Sprintf("%d", patient.Age)
	}
	if patient.Gender != "" {
		gender = patient.Gender
	}
	if len(patient.MedicalHistory) > 0 {
		history = strings.Join(patient.MedicalHistory, "; ")
	}
	return
}
