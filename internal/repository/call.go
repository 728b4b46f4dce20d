package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ashaconnect/ashaconnect/internal/model"
)

// ErrCallNotFound indicates the call record does not exist in the central store.
var ErrCallNotFound = errors.New("call record not found")

// UpsertCallRecord writes a call record uploaded by the sync engine.
// Completed calls are immutable, so the last write simply wins.
func (r *Repository) UpsertCallRecord(ctx context.Context, c *model.CallRecord) error {
	query := `
		INSERT INTO call_records (id, caller_number, direction, start_time, end_time, duration_seconds, language, status, recording_path, transcript, assessment_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE
		SET end_time = EXCLUDED.end_time,
		    duration_seconds = EXCLUDED.duration_seconds,
		    status = EXCLUDED.status,
		    recording_path = EXCLUDED.recording_path,
		    transcript = EXCLUDED.transcript,
		    assessment_id = EXCLUDED.assessment_id
	`

	transcript, err := json.Marshal(c.Transcript)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}

	_, err = r.pool.Exec(ctx, query,
		c.ID,
		c.CallerNumber,
		string(c.Direction),
		c.StartTime,
		c.EndTime,
		c.DurationSec,
		c.Language,
		string(c.Status),
		c.RecordingPath,
		transcript,
		c.AssessmentID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert call record: %w", err)
	}
	return nil
}

// ListCallRecords returns call records, newest first.
func (r *Repository) ListCallRecords(ctx context.Context, limit, offset int) ([]*model.CallRecord, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	query := `
		SELECT id, caller_number, direction, start_time, end_time, duration_seconds, language, status, recording_path, transcript, assessment_id
		FROM call_records
		ORDER BY start_time DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list call records: %w", err)
	}
	defer rows.Close()

	var calls []*model.CallRecord
	for rows.Next() {
		c, err := scanCallRecord(rows)
		if err != nil {
			return nil, err
		}
		calls = append(calls, c)
	}
	return calls, rows.Err()
}

func scanCallRecord(row pgx.Row) (*model.CallRecord, error) {
	var (
		c          model.CallRecord
		direction  string
		status     string
		transcript []byte
	)

	err := row.Scan(
		&c.ID,
		&c.CallerNumber,
		&direction,
		&c.StartTime,
		&c.EndTime,
		&c.DurationSec,
		&c.Language,
		&status,
		&c.RecordingPath,
		&transcript,
		&c.AssessmentID,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCallNotFound
		}
		return nil, fmt.Errorf("failed to scan call record: %w", err)
	}

	c.Direction = model.CallDirection(direction)
	c.Status = model.CallStatus(status)
	if len(transcript) > 0 {
		if err := json.Unmarshal(transcript, &c.Transcript); err != nil {
			return nil, fmt.Errorf("unmarshal transcript: %w", err)
		}
	}
	return &c, nil
}
