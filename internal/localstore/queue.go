package localstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"

	"github.com/ashaconnect/ashaconnect/internal/model"
)

// Enqueue adds a record to the sync queue. Queue IDs are ULIDs, so
// records with equal priority sort by creation time.
func (s *Store) Enqueue(ctx context.Context, rec *model.SyncRecord) error {
	if rec.ID == "" {
		rec.ID = ulid.Make().String()
	}

	row := &syncRow{}
	row.fromDomain(rec)

	if err := s.db.WithContext(ctx).Create(row).Error; err != nil {
		return fmt.Errorf("enqueue sync record: %w", err)
	}
	return nil
}

// PendingRecords returns the next batch of records due for upload.
// Ordering is strictly priority DESC, retry_count ASC, created_at ASC, so
// high-priority records go first and repeatedly failing ones fall behind
// fresh ones of the same priority.
func (s *Store) PendingRecords(ctx context.Context, limit int, now time.Time) ([]*model.SyncRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []syncRow
	err := s.db.WithContext(ctx).
		Where("status = ?", string(model.SyncStatusPending)).
		Where("next_retry IS NULL OR next_retry <= ?", now).
		Order("priority DESC, retry_count ASC, created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("get pending records: %w", err)
	}

	records := make([]*model.SyncRecord, len(rows))
	for i := range rows {
		records[i] = rows[i].toDomain()
	}
	return records, nil
}

// MarkSynced marks a record as successfully uploaded.
func (s *Store) MarkSynced(ctx context.Context, id string, at time.Time) error {
	return s.updateQueueRow(ctx, id, map[string]any{
		"status":     string(model.SyncStatusSynced),
		"synced_at":  at,
		"last_error": "",
		"next_retry": nil,
	})
}

// MarkRetry schedules a record for another attempt after a transient failure.
func (s *Store) MarkRetry(ctx context.Context, id string, retryCount int, errMsg string, nextRetry time.Time) error {
	return s.updateQueueRow(ctx, id, map[string]any{
		"status":      string(model.SyncStatusPending),
		"retry_count": retryCount,
		"last_error":  errMsg,
		"next_retry":  nextRetry,
	})
}

// MarkFailed marks a record as permanently failed.
// Failed records stay put until ResetFailed requeues them.
func (s *Store) MarkFailed(ctx context.Context, id string, errMsg string) error {
	return s.updateQueueRow(ctx, id, map[string]any{
		"status":     string(model.SyncStatusFailed),
		"last_error": errMsg,
		"next_retry": nil,
	})
}

func (s *Store) updateQueueRow(ctx context.Context, id string, fields map[string]any) error {
	result := s.db.WithContext(ctx).
		Model(&syncRow{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return fmt.Errorf("update sync record: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ResetFailed requeues all failed records as pending with a cleared retry
// schedule. Returns the number of records requeued.
func (s *Store) ResetFailed(ctx context.Context) (int64, error) {
	result := s.db.WithContext(ctx).
		Model(&syncRow{}).
		Where("status = ?", string(model.SyncStatusFailed)).
		Updates(map[string]any{
			"status":      string(model.SyncStatusPending),
			"retry_count": 0,
			"last_error":  "",
			"next_retry":  nil,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("reset failed records: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// QueueStatus is a snapshot of the sync queue.
type QueueStatus struct {
	Pending       int64      `json:"pending"`
	Synced        int64      `json:"synced"`
	Failed        int64      `json:"failed"`
	LastSyncedAt  *time.Time `json:"last_synced_at,omitempty"`
	OldestPending *time.Time `json:"oldest_pending,omitempty"`
}

// Status returns per-status counts plus the last successful upload time and
// the age of the oldest record still waiting.
func (s *Store) Status(ctx context.Context) (*QueueStatus, error) {
	status := &QueueStatus{}

	type statusCount struct {
		Status string
		N      int64
	}
	var counts []statusCount
	err := s.db.WithContext(ctx).
		Model(&syncRow{}).
		Select("status, COUNT(*) AS n").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("count queue records: %w", err)
	}
	for _, c := range counts {
		switch model.SyncStatus(c.Status) {
		case model.SyncStatusPending:
			status.Pending = c.N
		case model.SyncStatusSynced:
			status.Synced = c.N
		case model.SyncStatusFailed:
			status.Failed = c.N
		}
	}

	var last syncRow
	err = s.db.WithContext(ctx).
		Where("status = ?", string(model.SyncStatusSynced)).
		Order("synced_at DESC").
		First(&last).Error
	if err == nil {
		status.LastSyncedAt = last.SyncedAt
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find last synced record: %w", err)
	}

	var oldest syncRow
	err = s.db.WithContext(ctx).
		Where("status = ?", string(model.SyncStatusPending)).
		Order("created_at ASC").
		First(&oldest).Error
	if err == nil {
		t := oldest.CreatedAt
		status.OldestPending = &t
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find oldest pending record: %w", err)
	}

	return status, nil
}

// CleanupSynced deletes synced queue records older than the cutoff.
// Returns the number of records removed.
func (s *Store) CleanupSynced(ctx context.Context, olderThan time.Time) (int64, error) {
	result := s.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", string(model.SyncStatusSynced), olderThan).
		Delete(&syncRow{})
	if result.Error != nil {
		return 0, fmt.Errorf("cleanup synced records: %w", result.Error)
	}
	return result.RowsAffected, nil
}
