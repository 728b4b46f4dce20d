package model

import "time"

// Patient represents a patient registered by a field worker.
type Patient struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Age            int       `json:"age"`
	Gender         string    `json:"gender"`
	Village        string    `json:"village"`
	ContactNumber  string    `json:"contact_number,omitempty"`
	Pregnant       bool      `json:"pregnant,omitempty"`
	MedicalHistory []string  `json:"medical_history,omitempty"`
	RegisteredBy   string    `json:"registered_by"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// IsChild returns true for patients under five years of age.
func (p *Patient) IsChild() bool {
	return p.Age < 5
}

// IsElderly returns true for patients over sixty-five years of age.
func (p *Patient) IsElderly() bool {
	return p.Age > 65
}

// IsVulnerable returns true for patients in a high-risk group
// (young children, the elderly, pregnant women).
func (p *Patient) IsVulnerable() bool {
	return p.IsChild() || p.IsElderly() || p.Pregnant
}
