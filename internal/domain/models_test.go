package domain

import (
	"strings"
	"sync"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:domain_models?mode=memory&cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	return db
}

func TestTableName(t *testing.T) {
	if (Submission{}).TableName() != "submissions" {
		t.Fatalf("Submission.TableName() = %q; want %q", (Submission{}).TableName(), "submissions")
	}
}

func TestNewSubmission_AssignsIDAndUTCTime(t *testing.T) {
	loc := time.FixedZone("X", 3*60*60)
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, loc)

	s := NewSubmission("Ada", "ada@example.com", at)
	if _, err := uuid.Parse(s.ID); err != nil {
		t.Fatalf("expected UUID id, got %q", s.ID)
	}
	if s.Name != "Ada" || s.Email != "ada@example.com" {
		t.Fatalf("fields not copied: %+v", s)
	}
	if !s.Time.Equal(at) || s.Time.Location() != time.UTC {
		t.Fatalf("time must equal input and be UTC, got %v", s.Time)
	}
}

func TestNewSubmission_ZeroTimeDefaultsToNow(t *testing.T) {
	before := time.Now()
	s := NewSubmission("a", "b", time.Time{})
	after := time.Now()

	if s.Time.Before(before.Add(-time.Millisecond)) || s.Time.After(after.Add(time.Millisecond)) {
		t.Fatalf("default time %v not within [%v, %v]", s.Time, before, after)
	}
}

func TestNewSubmission_UniqueIDs(t *testing.T) {
	a := NewSubmission("a", "a@x.io", time.Time{})
	b := NewSubmission("a", "a@x.io", time.Time{})
	if a.ID == b.ID {
		t.Fatalf("expected distinct ids")
	}
}

func TestMigration_CreatesTableAndTimeIndex(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Submission{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()
	if !m.HasTable(&Submission{}) {
		t.Fatalf("expected submissions table")
	}
	if !m.HasIndex(&Submission{}, "idx_submissions_time") {
		t.Fatalf("expected index idx_submissions_time")
	}

	s := NewSubmission("Ada", "ada@example.com", time.Now())
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	var got Submission
	if err := db.First(&got, "id = ?", s.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Name != s.Name || got.Email != s.Email {
		t.Fatalf("round trip mismatch: %+v vs %+v", got, s)
	}
}

func TestSchema_NameAndEmailAreUnboundedText(t *testing.T) {
	sch, err := schema.Parse(&Submission{}, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("parse schema: %v", err)
	}
	for _, col := range []string{"name", "email"} {
		f := sch.LookUpField(col)
		if f == nil {
			t.Fatalf("missing field %q", col)
		}
		if f.Size != 0 || !strings.EqualFold(string(f.DataType), "text") {
			t.Fatalf("%s: type=%q size=%d; want unbounded text", col, f.DataType, f.Size)
		}
	}
}

func TestMigration_StoresLongValuesVerbatim(t *testing.T) {
	db := newDomainDB(t)
	if err := db.AutoMigrate(&Submission{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	name := strings.Repeat("<n>", 200)
	email := strings.Repeat("a", 300) + "@example.com"
	s := NewSubmission(name, email, time.Now())
	if err := db.Create(s).Error; err != nil {
		t.Fatalf("insert: %v", err)
	}
	var got Submission
	if err := db.First(&got, "id = ?", s.ID).Error; err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Name != name || got.Email != email {
		t.Fatalf("long values changed: name=%d email=%d bytes", len(got.Name), len(got.Email))
	}
}
