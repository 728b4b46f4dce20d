package model

// Severity classifies how serious a condition is when untreated.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
)

// Condition is a catalog entry describing a recognizable health condition,
// its typical symptoms, and first-line guidance.
type Condition struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Symptoms         []string `json:"symptoms"`
	Severity         Severity `json:"severity"`
	RequiresReferral bool     `json:"requires_referral"`
	Treatments       []string `json:"treatments"`
	Prevention       []string `json:"prevention"`
}
