package localstore

import (
	"context"
	"fmt"

	"github.com/ashaconnect/ashaconnect/internal/model"
)

const (
	// storageHighWatermark is the fraction of the storage budget at which
	// cleanup starts.
	storageHighWatermark = 0.8
	// storageTarget is the fraction of the storage budget cleanup aims for.
	storageTarget = 0.6
	// cleanupBatchSize is how many synced records are removed per pass.
	cleanupBatchSize = 200
	// maxCleanupPasses bounds the cleanup loop.
	maxCleanupPasses = 50
)

// EnforceStorageBudget deletes the oldest synced queue records when the
// database file grows past 80% of maxBytes, until it falls to 60% or no
// deletable records remain. Pending and failed records are never removed.
// Returns the number of records deleted.
func (s *Store) EnforceStorageBudget(ctx context.Context, maxBytes int64) (int64, error) {
	if maxBytes <= 0 {
		return 0, nil
	}

	size, err := s.FileSizeBytes()
	if err != nil {
		return 0, err
	}
	if float64(size) < float64(maxBytes)*storageHighWatermark {
		return 0, nil
	}

	s.logger.Warn("local store over storage watermark",
		"size_bytes", size,
		"budget_bytes", maxBytes,
	)

	target := int64(float64(maxBytes) * storageTarget)
	var deleted int64

	for pass := 0; pass < maxCleanupPasses; pass++ {
		var ids []string
		err := s.db.WithContext(ctx).
			Model(&syncRow{}).
			Where("status = ?", string(model.SyncStatusSynced)).
			Order("created_at ASC").
			Limit(cleanupBatchSize).
			Pluck("id", &ids).Error
		if err != nil {
			return deleted, fmt.Errorf("find deletable records: %w", err)
		}
		if len(ids) == 0 {
			break
		}

		result := s.db.WithContext(ctx).
			Where("id IN ?", ids).
			Delete(&syncRow{})
		if result.Error != nil {
			return deleted, fmt.Errorf("delete synced records: %w", result.Error)
		}
		deleted += result.RowsAffected

		// SQLite only returns space to the filesystem after a VACUUM.
		if err := s.db.WithContext(ctx).Exec("VACUUM").Error; err != nil {
			return deleted, fmt.Errorf("vacuum local store: %w", err)
		}

		size, err = s.FileSizeBytes()
		if err != nil {
			return deleted, err
		}
		if size <= target {
			break
		}
	}

	s.logger.Info("storage cleanup finished",
		"deleted", deleted,
		"size_bytes", size,
	)
	return deleted, nil
}
