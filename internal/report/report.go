// Package report builds usage and outcome reports from the central
// database. It uses database/sql directly since reporting queries are
// aggregate-heavy and read only.
package report

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Reporter runs reporting queries against the central database.
type Reporter struct {
	db *sql.DB
}

// New creates a Reporter. The database handle is opened with the pq
// driver and shared with nothing else.
func New(db *sql.DB) *Reporter {
	return &Reporter{db: db}
}

// Open connects to the central database for reporting.
func Open(databaseURL string) (*sql.DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open reporting connection: %w", err)
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// DayCount is a per-day tally.
type DayCount struct {
	Day   time.Time `json:"day"`
	Count int64     `json:"count"`
}

// ConditionCount is a per-condition tally.
type ConditionCount struct {
	Condition string `json:"condition"`
	Count     int64  `json:"count"`
}

// VillageCount is a per-village tally.
type VillageCount struct {
	Village string `json:"village"`
	Count   int64  `json:"count"`
}

// UsageReport summarizes field activity over a reporting window.
type UsageReport struct {
	From              time.Time        `json:"from"`
	To                time.Time        `json:"to"`
	TotalAssessments  int64            `json:"total_assessments"`
	TotalReferrals    int64            `json:"total_referrals"`
	ReferralRate      float64          `json:"referral_rate"`
	TotalPatients     int64            `json:"total_patients"`
	ActiveWorkers     int64            `json:"active_workers"`
	AssessmentsPerDay []DayCount       `json:"assessments_per_day"`
	TopConditions     []ConditionCount `json:"top_conditions"`
	PatientsByVillage []VillageCount   `json:"patients_by_village"`
}

// Usage builds the usage report for the given window.
func (r *Reporter) Usage(ctx context.Context, from, to time.Time) (*UsageReport, error) {
	report := &UsageReport{From: from, To: to}

	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE requires_referral),
		       COUNT(DISTINCT created_by)
		FROM assessments
		WHERE created_at >= $1 AND created_at < $2
	`, from, to).Scan(&report.TotalAssessments, &report.TotalReferrals, &report.ActiveWorkers)
	if err != nil {
		return nil, fmt.Errorf("assessment totals: %w", err)
	}
	if report.TotalAssessments > 0 {
		report.ReferralRate = float64(report.TotalReferrals) / float64(report.TotalAssessments)
	}

	err = r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM patients WHERE created_at >= $1 AND created_at < $2
	`, from, to).Scan(&report.TotalPatients)
	if err != nil {
		return nil, fmt.Errorf("patient totals: %w", err)
	}

	report.AssessmentsPerDay, err = r.assessmentsPerDay(ctx, from, to)
	if err != nil {
		return nil, err
	}
	report.TopConditions, err = r.topConditions(ctx, from, to, 5)
	if err != nil {
		return nil, err
	}
	report.PatientsByVillage, err = r.patientsByVillage(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (r *Reporter) assessmentsPerDay(ctx context.Context, from, to time.Time) ([]DayCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT date_trunc('day', created_at) AS day, COUNT(*)
		FROM assessments
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY day
		ORDER BY day
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("assessments per day: %w", err)
	}
	defer rows.Close()

	var out []DayCount
	for rows.Next() {
		var dc DayCount
		if err := rows.Scan(&dc.Day, &dc.Count); err != nil {
			return nil, fmt.Errorf("scan day count: %w", err)
		}
		out = append(out, dc)
	}
	return out, rows.Err()
}

// topConditions counts occurrences of each condition across the stored
// assessment results. Conditions are a JSONB array of matches.
func (r *Reporter) topConditions(ctx context.Context, from, to time.Time, limit int) ([]ConditionCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT cond->>'condition' AS condition, COUNT(*)
		FROM assessments, jsonb_array_elements(conditions) AS cond
		WHERE created_at >= $1 AND created_at < $2
		GROUP BY condition
		ORDER BY COUNT(*) DESC, condition
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, fmt.Errorf("top conditions: %w", err)
	}
	defer rows.Close()

	var out []ConditionCount
	for rows.Next() {
		var cc ConditionCount
		if err := rows.Scan(&cc.Condition, &cc.Count); err != nil {
			return nil, fmt.Errorf("scan condition count: %w", err)
		}
		out = append(out, cc)
	}
	return out, rows.Err()
}

func (r *Reporter) patientsByVillage(ctx context.Context, from, to time.Time) ([]VillageCount, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT village, COUNT(*)
		FROM patients
		WHERE created_at >= $1 AND created_at < $2 AND village <> ''
		GROUP BY village
		ORDER BY COUNT(*) DESC, village
	`, from, to)
	if err != nil {
		return nil, fmt.Errorf("patients by village: %w", err)
	}
	defer rows.Close()

	var out []VillageCount
	for rows.Next() {
		var vc VillageCount
		if err := rows.Scan(&vc.Village, &vc.Count); err != nil {
			return nil, fmt.Errorf("scan village count: %w", err)
		}
		out = append(out, vc)
	}
	return out, rows.Err()
}

// ReferralsBySymptom counts referrals containing each of the given
// symptoms, for outbreak spotting.
func (r *Reporter) ReferralsBySymptom(ctx context.Context, from, to time.Time, symptoms []string) (map[string]int64, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT s, COUNT(*)
		FROM assessments, unnest(symptoms) AS s
		WHERE requires_referral
		  AND created_at >= $1 AND created_at < $2
		  AND s = ANY($3)
		GROUP BY s
	`, from, to, pq.Array(symptoms))
	if err != nil {
		return nil, fmt.Errorf("referrals by symptom: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64, len(symptoms))
	for rows.Next() {
		var (
			symptom string
			count   int64
		)
		if err := rows.Scan(&symptom, &count); err != nil {
			return nil, fmt.Errorf("scan symptom count: %w", err)
		}
		out[symptom] = count
	}
	return out, rows.Err()
}
