// Package audit persists processing events for traceability. Events carry
// counts and category names only; detected values never reach the store.
package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

var log = logrus.New()

// SetLogLevel sets the logging level for the audit package.
func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}

// Event represents the schema of the audit_events table.
type Event struct {
	ID         uint      `gorm:"primaryKey"`
	DocumentID string    `gorm:"size:64;not null;index"`
	Stage      string    `gorm:"size:32;not null"` // extract, detect, redact, compliance
	Detail     string    `gorm:"size:255"`
	PageCount  int       `gorm:"not null;default:0"`
	EntityType string    `gorm:"size:64"`
	Count      int       `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"autoCreateTime"`
}

// Store wraps the SQLite-backed event log. A nil *Store is a no-op sink so
// callers need no conditional around every write.
type Store struct {
	db *gorm.DB
}

// Open initializes the SQLite database and migrates the schema.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("error creating audit directory: %w", err)
	}

	dbPath := filepath.Join(dir, "audit.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("error opening audit database: %w", err)
	}

	if err := db.AutoMigrate(&Event{}); err != nil {
		return nil, fmt.Errorf("error migrating audit schema: %w", err)
	}

	log.WithField("path", dbPath).Debug("Audit store opened")
	return &Store{db: db}, nil
}

// Record inserts one event.
func (s *Store) Record(event Event) error {
	if s == nil {
		return nil
	}
	return s.db.Create(&event).Error
}

// ByDocument retrieves all events for a document in insertion order.
func (s *Store) ByDocument(documentID string) ([]Event, error) {
	if s == nil {
		return nil, nil
	}
	var events []Event
	result := s.db.Where("document_id = ?", documentID).Order("id").Find(&events)
	return events, result.Error
}
