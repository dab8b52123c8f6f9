// Package repo implements the persistence layer for form submissions. This
// file provides the GORM-backed Store used for both SQLite and Postgres.
//
// The repository follows a "thin" approach: it performs persistence and
// simple query composition, leaving validation to the services package.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-form-collector/internal/domain"
)

// SQLStore persists submissions in the "submissions" table.
type SQLStore struct {
	DB *gorm.DB
}

// NewSQLStore binds a Store to an open GORM handle. Call AutoMigrate first.
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{DB: db}
}

// Append inserts one row. The insert is a single statement, so readers never
// see a partial record.
func (s *SQLStore) Append(ctx context.Context, sub *domain.Submission) error {
	return s.DB.WithContext(ctx).Create(sub).Error
}

// List returns every row ordered by time descending (newest first).
func (s *SQLStore) List(ctx context.Context) ([]domain.Submission, error) {
	out := make([]domain.Submission, 0)
	err := s.DB.WithContext(ctx).
		Order("time DESC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Stats returns the row count and the newest time.
//
// It executes two lightweight queries. When the table is empty, the returned
// count is 0 and latest is nil.
func (s *SQLStore) Stats(ctx context.Context) (count int64, latest *time.Time, err error) {
	q := s.DB.WithContext(ctx).Model(&domain.Submission{})

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Get latest time (avoid MAX() -> TEXT in SQLite)
	var row struct {
		Time time.Time
	}
	if err = s.DB.WithContext(ctx).Model(&domain.Submission{}).
		Select("time").Order("time DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.Time, nil
}
