// Package testutil provides shared fixtures for factorydesk tests.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/robertguss/factorydesk/internal/config"
	"github.com/robertguss/factorydesk/internal/domain"
	"github.com/robertguss/factorydesk/internal/storage"
)

// FixedNow is the reference clock used by fixtures
var FixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// Clock returns a time source frozen at FixedNow
func Clock() func() time.Time {
	return func() time.Time { return FixedNow }
}

// NewTestConfig creates a Config rooted in a temp directory
func NewTestConfig(t *testing.T) *config.Config {
	t.Helper()

	dataDir := filepath.Join(t.TempDir(), "data")
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		t.Fatalf("failed to create data dir: %v", err)
	}

	cfg := config.New()
	cfg.DataDir = dataDir
	cfg.DatabasePath = filepath.Join(dataDir, "test.db")
	cfg.OrdersFile = filepath.Join(dataDir, "orders.json")
	cfg.CORSAllowedOrigins = []string{"http://localhost:*"}
	cfg.LogLevel = "error"
	return cfg
}

// NewTestStorage creates an in-memory SQLite storage, closed when the test completes
func NewTestStorage(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	s, err := storage.NewInMemoryStorage()
	if err != nil {
		t.Fatalf("failed to create in-memory storage: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})

	return s
}

// NewTestJSONStorage creates a file store in a temp directory
func NewTestJSONStorage(t *testing.T) *storage.JSONFileStorage {
	t.Helper()

	s, err := storage.NewJSONFileStorage(filepath.Join(t.TempDir(), "orders.json"))
	if err != nil {
		t.Fatalf("failed to create json storage: %v", err)
	}
	return s
}

// NewOrderAt builds an order created two days before FixedNow with the given progress
func NewOrderAt(id string, stages domain.StageSet, status domain.OrderStatus) *domain.Order {
	created := FixedNow.Add(-48 * time.Hour)
	o := domain.NewOrder(id, "Acme Textiles", "Cotton shirts", 120, created)
	o.CompletedStages = stages
	o.Status = status
	return o
}

// SeedOrder stores an order with the given progress and returns it
func SeedOrder(t *testing.T, s storage.Storage, id string, stages domain.StageSet, status domain.OrderStatus) *domain.Order {
	t.Helper()

	o := NewOrderAt(id, stages, status)
	if err := s.CreateOrder(context.Background(), o); err != nil {
		t.Fatalf("failed to seed order %s: %v", id, err)
	}
	return o
}

// CreateTempFileInDir writes a file with the given content in dir
func CreateTempFileInDir(t *testing.T, dir, filename, content string) string {
	t.Helper()

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write file %s: %v", path, err)
	}

	return path
}

// OrdersJSON returns an orders file as the back-office web app writes it,
// with stage numbers stored as strings
func OrdersJSON() string {
	return `[
  {
    "id": "WEB-1",
    "customerName": "Nile Fabrics",
    "product": "Linen scarves",
    "quantity": 300,
    "completedStages": ["1", "2"],
    "timelineNotes": {"2": "sent to dye house B"},
    "status": "processing",
    "lastUpdated": "2026-03-12T10:00:00Z",
    "createdAt": "2026-03-10T08:00:00Z"
  },
  {
    "id": "WEB-2",
    "customerName": "Delta Uniforms",
    "completedStages": [1],
    "status": "pending",
    "lastUpdated": "2026-03-13T08:00:00Z",
    "createdAt": "2026-03-13T08:00:00Z"
  }
]`
}
