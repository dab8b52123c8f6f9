// Package repo implements the persistence layer for form submissions.
//
// Every backend satisfies Store, so the intake service can be wired to an
// in-memory slice, a GORM-managed SQL table (SQLite or Postgres) or a MongoDB
// collection without changing business logic.
//
// Ordering contract:
//   - MemoryStore lists records in insertion order (oldest first).
//   - SQLStore and MongoStore list records by time descending (newest first).
//
// All backends return raw driver errors; translating them into service-level
// errors is the caller's job.
package repo

import (
	"context"
	"time"

	"github.com/tbourn/go-form-collector/internal/domain"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

// Store is the submission persistence contract.
//
// Implementations must be safe for concurrent use. Append must be atomic with
// respect to other appends, and List must never expose a partially written
// record.
type Store interface {
	// Append persists s as a new record. Existing records are never touched.
	Append(ctx context.Context, s *domain.Submission) error
	// List returns a fully materialized snapshot of all records.
	List(ctx context.Context) ([]domain.Submission, error)
	// Stats returns the record count and the newest Time (nil when empty).
	Stats(ctx context.Context) (count int64, latest *time.Time, err error)
}
