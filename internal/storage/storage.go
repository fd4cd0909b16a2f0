package storage

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/robertguss/factorydesk/internal/domain"
)

// Store drivers
const (
	DriverSQLite = "sqlite"
	DriverJSON   = "json"
)

// OrderStore is the persistence contract the production timeline relies on.
// Both methods report a missing order with an error wrapping domain.ErrNotFound.
type OrderStore interface {
	GetOrder(ctx context.Context, id string) (*domain.Order, error)

	// UpdateOrder merges the patch into the stored order and returns the result.
	// Fields absent from the patch are left unchanged.
	UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error)
}

// OrderFilter provides filtering options for listing orders
type OrderFilter struct {
	Status   domain.OrderStatus // Filter by status
	Customer string             // Filter by customer name (partial match)
	Limit    int                // Max results (default 100)
	Offset   int                // Pagination offset
}

// Stats represents aggregate order counts
type Stats struct {
	TotalOrders int
	ByStatus    map[domain.OrderStatus]int
}

// Storage defines the full set of persistence operations
type Storage interface {
	OrderStore

	// Lifecycle
	Close() error

	// Orders
	CreateOrder(ctx context.Context, order *domain.Order) error
	ListOrders(ctx context.Context, filter *OrderFilter) ([]*domain.Order, error)
	CountOrders(ctx context.Context, filter *OrderFilter) (int, error)
	DeleteOrder(ctx context.Context, id string) error

	// Statistics
	GetStats(ctx context.Context) (*Stats, error)
}

// Open creates a storage for the given driver. For sqlite the path is the
// database file (or ":memory:"); for json it is the orders file.
func Open(driver, path string) (Storage, error) {
	switch driver {
	case DriverSQLite, "":
		return NewSQLiteStorage(path)
	case DriverJSON:
		return NewJSONFileStorage(path)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}

// GetDatabasePath returns the default database path
func GetDatabasePath(dataDir string) string {
	return filepath.Join(dataDir, "factorydesk.db")
}

// GetOrdersFilePath returns the default orders file path
func GetOrdersFilePath(dataDir string) string {
	return filepath.Join(dataDir, "orders.json")
}

func notFound(id string) error {
	return fmt.Errorf("%w: %s", domain.ErrNotFound, id)
}

func defaultLimit(filter *OrderFilter) int {
	if filter == nil || filter.Limit <= 0 {
		return 100
	}
	return filter.Limit
}
