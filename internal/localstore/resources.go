package localstore

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Resource is an offline reference asset (protocol document, audio prompt,
// health leaflet) available without connectivity.
type Resource struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Category     string     `json:"category"`
	Path         string     `json:"path"`
	Language     string     `json:"language,omitempty"`
	SizeBytes    int64      `json:"size_bytes"`
	AccessCount  int64      `json:"access_count"`
	LastAccessed *time.Time `json:"last_accessed,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
}

// RegisterResource adds or replaces a resource entry.
func (s *Store) RegisterResource(ctx context.Context, res *Resource) error {
	row := &resourceRow{
		ID:           res.ID,
		Name:         res.Name,
		Category:     res.Category,
		Path:         res.Path,
		Language:     res.Language,
		SizeBytes:    res.SizeBytes,
		AccessCount:  res.AccessCount,
		LastAccessed: res.LastAccessed,
		CreatedAt:    res.CreatedAt,
	}

	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(row).Error
	if err != nil {
		return fmt.Errorf("register resource: %w", err)
	}
	return nil
}

// ListResources returns resources, optionally filtered by category.
func (s *Store) ListResources(ctx context.Context, category string) ([]*Resource, error) {
	query := s.db.WithContext(ctx).Model(&resourceRow{})
	if category != "" {
		query = query.Where("category = ?", category)
	}

	var rows []resourceRow
	if err := query.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}

	resources := make([]*Resource, len(rows))
	for i, r := range rows {
		resources[i] = &Resource{
			ID:           r.ID,
			Name:         r.Name,
			Category:     r.Category,
			Path:         r.Path,
			Language:     r.Language,
			SizeBytes:    r.SizeBytes,
			AccessCount:  r.AccessCount,
			LastAccessed: r.LastAccessed,
			CreatedAt:    r.CreatedAt,
		}
	}
	return resources, nil
}

// TouchResource records an access to a resource.
func (s *Store) TouchResource(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).
		Model(&resourceRow{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"access_count":  gorm.Expr("access_count + 1"),
			"last_accessed": time.Now().UTC(),
		})
	if result.Error != nil {
		return fmt.Errorf("touch resource: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteResource removes a resource entry.
func (s *Store) DeleteResource(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&resourceRow{})
	if result.Error != nil {
		return fmt.Errorf("delete resource: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
