// Package assess implements the rule-based health assessment engine:
// symptom normalization, condition scoring, referral decisions, and
// treatment recommendations.
package assess

import "github.com/ashaconnect/ashaconnect/internal/model"

// catalog is the built-in condition knowledge base. Field deployments work
// offline, so the catalog ships with the binary instead of living in a table.
var catalog = []*model.Condition{
	{
		ID:               "malaria",
		Name:             "Malaria",
		Symptoms:         []string{"fever", "chills", "headache", "sweating", "body ache", "nausea"},
		Severity:         model.SeverityHigh,
		RequiresReferral: true,
		Treatments: []string{
			"Refer for blood test to confirm malaria",
			"Give paracetamol for fever as directed",
			"Ensure the patient drinks plenty of fluids",
		},
		Prevention: []string{
			"Sleep under an insecticide-treated bed net",
			"Remove standing water near the home",
		},
	},
	{
		ID:               "dengue",
		Name:             "Dengue",
		Symptoms:         []string{"fever", "headache", "pain behind eyes", "joint pain", "rash", "nausea"},
		Severity:         model.SeverityHigh,
		RequiresReferral: true,
		Treatments: []string{
			"Refer to PHC for platelet monitoring",
			"Give paracetamol only, never aspirin or ibuprofen",
			"Encourage oral fluids and rest",
		},
		Prevention: []string{
			"Cover water storage containers",
			"Use mosquito repellent during the day",
		},
	},
	{
		ID:               "diarrhea",
		Name:             "Diarrhea",
		Symptoms:         []string{"loose stools", "dehydration", "stomach pain", "weakness", "vomiting"},
		Severity:         model.SeverityModerate,
		RequiresReferral: false,
		Treatments: []string{
			"Start ORS solution immediately",
			"Give zinc supplements for 14 days",
			"Continue feeding, especially for children",
		},
		Prevention: []string{
			"Use safe drinking water",
			"Wash hands with soap before eating and cooking",
		},
	},
	{
		ID:               "pneumonia",
		Name:             "Pneumonia",
		Symptoms:         []string{"cough", "fever", "difficulty breathing", "chest pain", "rapid breathing"},
		Severity:         model.SeverityHigh,
		RequiresReferral: true,
		Treatments: []string{
			"Refer immediately for antibiotic treatment",
			"Keep the patient warm and resting",
			"Monitor breathing rate closely",
		},
		Prevention: []string{
			"Keep cooking areas ventilated",
			"Complete childhood immunizations",
		},
	},
	{
		ID:               "anemia",
		Name:             "Anemia",
		Symptoms:         []string{"fatigue", "weakness", "pale skin", "dizziness", "shortness of breath"},
		Severity:         model.SeverityModerate,
		RequiresReferral: false,
		Treatments: []string{
			"Provide iron and folic acid tablets",
			"Advise iron-rich foods such as green leafy vegetables",
			"Schedule a follow-up hemoglobin check",
		},
		Prevention: []string{
			"Take IFA supplementation during pregnancy",
			"Deworm children on schedule",
		},
	},
}

// Conditions returns the condition catalog.
func Conditions() []*model.Condition {
	out := make([]*model.Condition, len(catalog))
	copy(out, catalog)
	return out
}

// ConditionByID looks up a catalog entry. Returns nil when unknown.
func ConditionByID(id string) *model.Condition {
	for _, c := range catalog {
		if c.ID == id {
			return c
		}
	}
	return nil
}
