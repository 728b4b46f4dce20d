package llm

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ashaconnect/ashaconnect/internal/assess"
	"github.com/ashaconnect/ashaconnect/internal/model"
)

// Analyzer runs the full model-backed assessment flow: condition
// identification, treatment recommendations, and the referral decision.
type Analyzer struct {
	client *Client
	logger *slog.Logger
}

// NewAnalyzer wraps a completion client.
func NewAnalyzer(client *Client, logger *slog.Logger) *Analyzer {
	return &Analyzer{
		client: client,
		logger: logger.With("component", "llm.analyzer"),
	}
}

// Available reports whether model-backed assessment can run at all.
func (a *Analyzer) Available() bool {
	return a.client.Available()
}

// Assess produces a model-backed assessment result for the given symptoms.
// Any failure returns ErrUnavailable so the caller can proceed with the
// rule engine alone.
func (a *Analyzer) Assess(ctx context.Context, symptoms []string, patient *model.Patient) (*assess.Result, error) {
	if !a.client.Available() {
		return nil, ErrUnavailable
	}

	analysis, err := a.client.Complete(ctx, SymptomAnalysisPrompt(symptoms, patient))
	if err != nil {
		return nil, err
	}
	conditions := ParseConditions(analysis)
	if len(conditions) == 0 {
		a.logger.Debug("no conditions extracted from analysis")
		return nil, ErrUnavailable
	}

	result := &assess.Result{
		Conditions: conditions,
		Source:     "llm",
	}
	top := conditions[0].Condition

	if treatment, err := a.client.Complete(ctx, TreatmentPrompt(top, "Medium", patient)); err == nil {
		result.Recommendations = ParseRecommendations(treatment)
	} else {
		a.logger.Warn("treatment prompt failed", "error", err)
	}

	if referral, err := a.client.Complete(ctx, ReferralPrompt(top, symptoms, patient)); err == nil {
		needed, urgency := ParseReferral(referral)
		result.RequiresReferral = needed
		if needed {
			result.ReferralReason = fmt.Sprintf("Model recommended %s referral for %s.", urgency, top)
		}
	} else {
		a.logger.Warn("referral prompt failed", "error", err)
	}

	return result, nil
}
