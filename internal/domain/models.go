// Package domain defines the persistence model for form submissions. The
// Submission type is mapped with GORM for the SQL backends and with BSON tags
// for the document backend, so every store shares one record shape.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// NameMaxLen caps the stored (normalized) name by rune count.
const NameMaxLen = 50

// Submission is a single name/email pair accepted by the intake service.
//
// Fields:
//   - ID: UUID primary key assigned on acceptance (char(36)).
//   - Name: submitted name; escaped and trimmed when validation is strict.
//   - Email: submitted email; normalized when validation is strict.
//     Both are unbounded text columns so lax mode can store any value.
//   - Time: server-side acceptance timestamp (UTC), indexed for listing.
//
// Records are immutable once stored.
type Submission struct {
	ID    string    `json:"id"    gorm:"type:char(36);primaryKey" bson:"_id"`
	Name  string    `json:"name"  gorm:"type:text;not null" bson:"name"`
	Email string    `json:"email" gorm:"type:text;not null" bson:"email"`
	Time  time.Time `json:"time"  gorm:"not null;index:idx_submissions_time" bson:"time"`
}

// TableName returns the database table name for Submission.
func (Submission) TableName() string { return "submissions" }

// NewSubmission builds a record with a fresh UUID. A zero at defaults to the
// current time; the stored timestamp is always UTC.
func NewSubmission(name, email string, at time.Time) *Submission {
	if at.IsZero() {
		at = time.Now()
	}
	return &Submission{
		ID:    uuid.NewString(),
		Name:  name,
		Email: email,
		Time:  at.UTC(),
	}
}
