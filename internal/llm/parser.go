package llm

import (
	"strings"

	"github.com/ashaconnect/ashaconnect/internal/model"
)

// conditionIndicators are phrases that precede a condition name in
// completion output.
var conditionIndicators = []string{
	"may indicate",
	"suggests",
	"points to",
	"could be",
	"possibility of",
	"symptoms of",
	"consistent with",
	"characteristic of",
}

// maxParsedConditions caps how many conditions are taken from one completion.
const maxParsedConditions = 5

// modelConfidence is the confidence assigned to model-identified conditions.
// Completion output carries no numeric score, so a fixed moderate value lets
// rule-engine matches dominate when both identify the same condition.
const modelConfidence = 50

// ParseConditions extracts condition names from free-text analysis output.
func ParseConditions(analysis string) []model.ConditionMatch {
	var out []model.ConditionMatch
	seen := map[string]bool{}

	for _, line := range strings.Split(analysis, "\n") {
		lower := strings.ToLower(line)
		for _, indicator := range conditionIndicators {
			idx := strings.Index(lower, indicator)
			if idx < 0 {
				continue
			}
			rest := lower[idx+len(indicator):]
			for _, name := range splitConditionList(rest) {
				if len(name) <= 3 || seen[name] {
					continue
				}
				seen[name] = true
				// Names stay lowercase so they key against the condition
				// catalog when results are merged.
				out = append(out, model.ConditionMatch{
					Condition:  name,
					Confidence: modelConfidence,
				})
				if len(out) >= maxParsedConditions {
					return out
				}
			}
		}
	}
	return out
}

// splitConditionList breaks "malaria, typhoid or dengue." into names.
func splitConditionList(s string) []string {
	repl := strings.NewReplacer(",", "#", ";", "#", ".", "#", " and ", "#", " or ", "#", ":", "")
	var out []string
	for _, part := range strings.Split(repl.Replace(s), "#") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseRecommendations extracts bullet and numbered list items from
// completion output.
func ParseRecommendations(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if !strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "*") &&
			!strings.HasPrefix(line, "•") && !startsWithNumber(line) {
			continue
		}
		clean := strings.TrimLeft(line, "-*•0123456789. ")
		if clean != "" {
			out = append(out, clean)
		}
	}
	return out
}

func startsWithNumber(line string) bool {
	if len(line) < 2 {
		return false
	}
	return line[0] >= '0' && line[0] <= '9' && (line[1] == '.' || line[1] == ')')
}

// ParseReferral reads a referral recommendation out of completion output.
// It returns whether referral is needed and the urgency level
// (emergency, urgent, or non-urgent).
func ParseReferral(text string) (needed bool, urgency string) {
	lower := strings.ToLower(text)
	urgency = "non-urgent"

	negations := []string{
		"no referral needed",
		"no referral is needed",
		"referral is not needed",
		"referral not needed",
		"does not need to be referred",
	}
	for _, n := range negations {
		if strings.Contains(lower, n) {
			return false, urgency
		}
	}

	affirmations := []string{
		"referral is needed",
		"referral needed",
		"referral is recommended",
		"referral recommended",
		"should be referred",
		"needs to be referred",
		"refer the patient",
		"refer immediately",
	}
	for _, a := range affirmations {
		if strings.Contains(lower, a) {
			needed = true
			break
		}
	}
	if !needed {
		return false, urgency
	}

	if strings.Contains(lower, "emergency") || strings.Contains(lower, "immediately") {
		urgency = "emergency"
	} else if strings.Contains(lower, "urgent") {
		urgency = "urgent"
	}
	return true, urgency
}
