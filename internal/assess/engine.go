package assess

import (
	"math"
	"slices"
	"strings"

	"github.com/ashaconnect/ashaconnect/internal/model"
)

const (
	// scoreThreshold is the minimum match score for a condition to be reported.
	scoreThreshold = 0.3
	// vulnerabilityBonus is added to scores for each high-risk group the
	// patient belongs to.
	vulnerabilityBonus = 0.1
)

// symptomAliases maps colloquial symptom phrasings to catalog terms.
var symptomAliases = map[string]string{
	"temperature":          "fever",
	"high temperature":     "fever",
	"bukhar":               "fever",
	"loose motion":         "loose stools",
	"loose motions":        "loose stools",
	"watery stools":        "loose stools",
	"breathlessness":       "difficulty breathing",
	"trouble breathing":    "difficulty breathing",
	"cant breathe":         "difficulty breathing",
	"tired":                "fatigue",
	"tiredness":            "fatigue",
	"exhaustion":           "fatigue",
	"body pain":            "body ache",
	"muscle pain":          "body ache",
	"eye pain":             "pain behind eyes",
	"stomach ache":         "stomach pain",
	"belly pain":           "stomach pain",
	"throwing up":          "vomiting",
	"skin rash":            "rash",
	"shivering":            "chills",
	"cold shivers":         "chills",
	"giddiness":            "dizziness",
	"lightheaded":          "dizziness",
	"pale":                 "pale skin",
	"fast breathing":       "rapid breathing",
	"breathing fast":       "rapid breathing",
	"no energy":            "weakness",
}

// NormalizeSymptoms lowercases, trims, de-aliases, and deduplicates symptom
// inputs so free-text reports match the catalog vocabulary.
func NormalizeSymptoms(symptoms []string) []string {
	var out []string
	for _, s := range symptoms {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" {
			continue
		}
		if alias, ok := symptomAliases[s]; ok {
			s = alias
		}
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

// Input is one assessment request.
type Input struct {
	Symptoms   []string
	Patient    *model.Patient
	VitalSigns map[string]string
}

// Result is the outcome of an assessment.
type Result struct {
	Conditions       []model.ConditionMatch
	RequiresReferral bool
	ReferralReason   string
	Recommendations  []string
	Source           string // "rules" or "merged"
}

// Evaluate runs the rule-based assessment: score each catalog condition
// against the reported symptoms, decide referral, and collect treatment
// recommendations.
func Evaluate(input Input) *Result {
	symptoms := NormalizeSymptoms(input.Symptoms)

	result := &Result{Source: "rules"}
	for _, cond := range catalog {
		score := scoreCondition(cond, symptoms, input.Patient)
		if score < scoreThreshold {
			continue
		}
		result.Conditions = append(result.Conditions, model.ConditionMatch{
			Condition:  cond.ID,
			Confidence: int(math.Round(score * 100)),
		})
	}

	slices.SortFunc(result.Conditions, func(a, b model.ConditionMatch) int {
		return b.Confidence - a.Confidence
	})

	decideReferral(result, symptoms, input.Patient)
	result.Recommendations = recommendations(result, symptoms)
	return result
}

// scoreCondition computes match ratio plus vulnerability bonuses, capped at 1.
func scoreCondition(cond *model.Condition, symptoms []string, patient *model.Patient) float64 {
	if len(cond.Symptoms) == 0 || len(symptoms) == 0 {
		return 0
	}

	matched := 0
	for _, s := range cond.Symptoms {
		if slices.Contains(symptoms, s) {
			matched++
		}
	}
	if matched == 0 {
		return 0
	}

	score := float64(matched) / float64(len(cond.Symptoms))

	if patient != nil {
		if patient.IsChild() {
			score += vulnerabilityBonus
		}
		if patient.IsElderly() {
			score += vulnerabilityBonus
		}
		if patient.Pregnant {
			score += vulnerabilityBonus
		}
	}

	return math.Min(score, 1.0)
}

// Merge combines the rule-based result with a model-generated one.
// Confidences are averaged where both engines agree, unioned otherwise, and
// the referral flags are OR-ed so neither engine can suppress the other's
// escalation.
func Merge(rules, llm *Result) *Result {
	if llm == nil {
		return rules
	}

	merged := &Result{
		Source:           "merged",
		RequiresReferral: rules.RequiresReferral || llm.RequiresReferral,
		ReferralReason:   rules.ReferralReason,
	}
	if merged.ReferralReason == "" {
		merged.ReferralReason = llm.ReferralReason
	}

	byID := make(map[string]int, len(rules.Conditions))
	for _, c := range rules.Conditions {
		byID[c.Condition] = c.Confidence
	}

	seen := make(map[string]bool)
	for _, c := range llm.Conditions {
		// Model output casing is not guaranteed; catalog IDs are lowercase.
		id := strings.ToLower(c.Condition)
		if ruleConf, ok := byID[id]; ok {
			merged.Conditions = append(merged.Conditions, model.ConditionMatch{
				Condition:  id,
				Confidence: (ruleConf + c.Confidence) / 2,
			})
		} else {
			merged.Conditions = append(merged.Conditions, model.ConditionMatch{
				Condition:  id,
				Confidence: c.Confidence,
			})
		}
		seen[id] = true
	}
	for _, c := range rules.Conditions {
		if !seen[c.Condition] {
			merged.Conditions = append(merged.Conditions, c)
		}
	}

	slices.SortFunc(merged.Conditions, func(a, b model.ConditionMatch) int {
		return b.Confidence - a.Confidence
	})

	merged.Recommendations = rules.Recommendations
	for _, rec := range llm.Recommendations {
		if !slices.Contains(merged.Recommendations, rec) {
			merged.Recommendations = append(merged.Recommendations, rec)
		}
	}

	return merged
}
