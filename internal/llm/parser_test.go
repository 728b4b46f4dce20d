package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConditions(t *testing.T) {
	t.Parallel()

	analysis := `Based on the reported symptoms, here is my analysis.
- Fever with chills may indicate malaria, typhoid or dengue.
- The fatigue is consistent with anemia.
Monitor the patient closely.`

	conditions := ParseConditions(analysis)
	require.Len(t, conditions, 4)

	names := make([]string, 0, len(conditions))
	for _, c := range conditions {
		names = append(names, c.Condition)
		assert.Equal(t, modelConfidence, c.Confidence)
	}
	assert.Equal(t, []string{"malaria", "typhoid", "dengue", "anemia"}, names,
		"condition names stay lowercase so they match catalog IDs")
}

func TestParseConditionsDeduplicatesAndCaps(t *testing.T) {
	t.Parallel()

	analysis := `The fever may indicate malaria.
High fever also suggests malaria.
The pattern could be typhoid, dengue, influenza, pneumonia, tuberculosis.`

	conditions := ParseConditions(analysis)
	require.Len(t, conditions, maxParsedConditions)
	assert.Equal(t, "malaria", conditions[0].Condition)
}

func TestParseConditionsIgnoresShortFragments(t *testing.T) {
	t.Parallel()

	assert.Empty(t, ParseConditions("This could be flu."))
	assert.Empty(t, ParseConditions("Nothing to report here."))
}

func TestParseRecommendations(t *testing.T) {
	t.Parallel()

	text := `Treatment recommendations:
- Rest and stay hydrated
* Take paracetamol as directed
1. Monitor temperature twice daily
2) Return if symptoms worsen
Not a list item.`

	recs := ParseRecommendations(text)
	assert.Equal(t, []string{
		"Rest and stay hydrated",
		"Take paracetamol as directed",
		"Monitor temperature twice daily",
		"Return if symptoms worsen",
	}, recs)
}

func TestParseReferral(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		needed  bool
		urgency string
	}{
		{
			name:    "explicit no",
			text:    "No referral needed at this time. Provide home care.",
			needed:  false,
			urgency: "non-urgent",
		},
		{
			name:    "plain yes",
			text:    "Referral is recommended for further evaluation.",
			needed:  true,
			urgency: "non-urgent",
		},
		{
			name:    "urgent",
			text:    "Referral is needed. This is an urgent case.",
			needed:  true,
			urgency: "urgent",
		},
		{
			name:    "emergency",
			text:    "Refer the patient immediately to the nearest hospital.",
			needed:  true,
			urgency: "emergency",
		},
		{
			name:    "negation wins over urgency words",
			text:    "Although the symptoms sound urgent, no referral is needed.",
			needed:  false,
			urgency: "non-urgent",
		},
		{
			name:    "no signal",
			text:    "The patient has a mild cold.",
			needed:  false,
			urgency: "non-urgent",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			needed, urgency := ParseReferral(tt.text)
			assert.Equal(t, tt.needed, needed)
			assert.Equal(t, tt.urgency, urgency)
		})
	}
}
