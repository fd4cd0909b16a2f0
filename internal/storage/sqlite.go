package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/robertguss/factorydesk/internal/domain"
)

// SQLiteStorage implements Storage using SQLite
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Every pooled connection to ":memory:" would see its own empty database
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA foreign_keys = ON",
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	s := &SQLiteStorage{db: db}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return s, nil
}

// NewInMemoryStorage creates an in-memory SQLite storage (for testing)
func NewInMemoryStorage() (*SQLiteStorage, error) {
	return NewSQLiteStorage(":memory:")
}

func (s *SQLiteStorage) migrate() error {
	if _, err := s.db.Exec(initialMigration); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}
	return nil
}

// completed_stages holds the domain.StageSet bitmask, bit 0 = stage 1
const initialMigration = `
CREATE TABLE IF NOT EXISTS orders (
    id TEXT PRIMARY KEY,
    customer_name TEXT,
    product TEXT,
    quantity INTEGER DEFAULT 0,
    completed_stages INTEGER NOT NULL DEFAULT 1,
    status TEXT NOT NULL,
    last_updated TEXT NOT NULL,
    created_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS timeline_notes (
    order_id TEXT NOT NULL,
    stage_id TEXT NOT NULL,
    note TEXT NOT NULL,
    PRIMARY KEY (order_id, stage_id),
    FOREIGN KEY (order_id) REFERENCES orders(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(status);
CREATE INDEX IF NOT EXISTS idx_orders_created_at ON orders(created_at DESC);

CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL DEFAULT (datetime('now'))
);

INSERT OR IGNORE INTO schema_version (version) VALUES (1);
`

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// CreateOrder inserts a new order. An empty ID is replaced with a generated one.
func (s *SQLiteStorage) CreateOrder(ctx context.Context, order *domain.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	if order.LastUpdated.IsZero() {
		order.LastUpdated = order.CreatedAt
	}
	if order.Status == "" {
		order.Status = domain.OrderPending
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_name, product, quantity, completed_stages, status, last_updated, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		order.ID,
		nullableString(order.CustomerName),
		nullableString(order.Product),
		order.Quantity,
		int(order.CompletedStages),
		string(order.Status),
		formatTime(order.LastUpdated),
		formatTime(order.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	if err := replaceNotes(ctx, tx, order.ID, order.TimelineNotes); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetOrder retrieves an order with its timeline notes
func (s *SQLiteStorage) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, customer_name, product, quantity, completed_stages, status, last_updated, created_at
		FROM orders WHERE id = ?
	`, id)

	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	notes, err := s.getNotesBatch(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	order.TimelineNotes = notesOrEmpty(notes[id])

	return order, nil
}

// UpdateOrder merges the patch into the stored order in one transaction
func (s *SQLiteStorage) UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM orders WHERE id = ?", id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}

	var sets []string
	var args []any
	if patch.CompletedStages != nil {
		sets = append(sets, "completed_stages = ?")
		args = append(args, int(*patch.CompletedStages))
	}
	if patch.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, string(*patch.Status))
	}
	if patch.LastUpdated != nil {
		sets = append(sets, "last_updated = ?")
		args = append(args, formatTime(*patch.LastUpdated))
	}

	if len(sets) > 0 {
		args = append(args, id)
		query := "UPDATE orders SET " + strings.Join(sets, ", ") + " WHERE id = ?"
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return nil, fmt.Errorf("failed to update order: %w", err)
		}
	}

	if patch.TimelineNotes != nil {
		if err := replaceNotes(ctx, tx, id, patch.TimelineNotes); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return s.GetOrder(ctx, id)
}

// ListOrders retrieves orders matching the filter, newest first
func (s *SQLiteStorage) ListOrders(ctx context.Context, filter *OrderFilter) ([]*domain.Order, error) {
	query := `
		SELECT id, customer_name, product, quantity, completed_stages, status, last_updated, created_at
		FROM orders
	`
	where, args := buildWhereClause(filter)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY created_at DESC, id"

	offset := 0
	if filter != nil {
		offset = filter.Offset
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", defaultLimit(filter), offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.Order
	var ids []string
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
		ids = append(ids, order.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	rows.Close()

	// Notes for all listed orders in one query
	if len(ids) > 0 {
		notesByOrder, err := s.getNotesBatch(ctx, ids)
		if err != nil {
			return nil, err
		}
		for _, order := range orders {
			order.TimelineNotes = notesOrEmpty(notesByOrder[order.ID])
		}
	}

	return orders, nil
}

// CountOrders returns the count of orders matching the filter
func (s *SQLiteStorage) CountOrders(ctx context.Context, filter *OrderFilter) (int, error) {
	query := `SELECT COUNT(*) FROM orders`
	where, args := buildWhereClause(filter)
	if where != "" {
		query += " WHERE " + where
	}

	var count int
	err := s.db.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}

// DeleteOrder deletes an order and its notes
func (s *SQLiteStorage) DeleteOrder(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM orders WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return notFound(id)
	}
	return nil
}

// GetStats returns order counts by status
func (s *SQLiteStorage) GetStats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByStatus: make(map[domain.OrderStatus]int)}

	rows, err := s.db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM orders GROUP BY status
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get order stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.ByStatus[domain.OrderStatus(status)] = count
		stats.TotalOrders += count
	}

	return stats, rows.Err()
}

// Helper functions

// getNotesBatch loads notes for several orders in one query
func (s *SQLiteStorage) getNotesBatch(ctx context.Context, orderIDs []string) (map[string]map[string]string, error) {
	placeholders := make([]string, len(orderIDs))
	args := make([]any, len(orderIDs))
	for i, id := range orderIDs {
		placeholders[i] = "?"
		args[i] = id
	}

	query := fmt.Sprintf(`
		SELECT order_id, stage_id, note
		FROM timeline_notes
		WHERE order_id IN (%s)
	`, strings.Join(placeholders, ","))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load timeline notes: %w", err)
	}
	defer rows.Close()

	notesByOrder := make(map[string]map[string]string)
	for rows.Next() {
		var orderID, stageID, note string
		if err := rows.Scan(&orderID, &stageID, &note); err != nil {
			return nil, err
		}
		if notesByOrder[orderID] == nil {
			notesByOrder[orderID] = make(map[string]string)
		}
		notesByOrder[orderID][stageID] = note
	}

	return notesByOrder, rows.Err()
}

func replaceNotes(ctx context.Context, tx *sql.Tx, orderID string, notes map[string]string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM timeline_notes WHERE order_id = ?", orderID); err != nil {
		return fmt.Errorf("failed to clear timeline notes: %w", err)
	}
	for stageID, note := range notes {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO timeline_notes (order_id, stage_id, note) VALUES (?, ?, ?)
		`, orderID, stageID, note)
		if err != nil {
			return fmt.Errorf("failed to insert timeline note: %w", err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*domain.Order, error) {
	var order domain.Order
	var customer, product sql.NullString
	var stages int
	var status, lastUpdated, createdAt string

	err := row.Scan(
		&order.ID,
		&customer,
		&product,
		&order.Quantity,
		&stages,
		&status,
		&lastUpdated,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}

	order.CustomerName = customer.String
	order.Product = product.String
	// Bits beyond the catalog are dropped
	order.CompletedStages = domain.NewStageSet(domain.StageSet(stages).Sequences()...)
	order.Status = domain.OrderStatus(status)
	order.LastUpdated, _ = time.Parse(time.RFC3339Nano, lastUpdated)
	order.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

	return &order, nil
}

// escapeLikeWildcards escapes SQL LIKE wildcards (% and _) in user input
func escapeLikeWildcards(s string) string {
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, "%", "\\%")
	s = strings.ReplaceAll(s, "_", "\\_")
	return s
}

func buildWhereClause(filter *OrderFilter) (string, []any) {
	if filter == nil {
		return "", nil
	}

	var conditions []string
	var args []any

	if filter.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.Customer != "" {
		conditions = append(conditions, "customer_name LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLikeWildcards(filter.Customer)+"%")
	}

	return strings.Join(conditions, " AND "), args
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func notesOrEmpty(notes map[string]string) map[string]string {
	if notes == nil {
		return make(map[string]string)
	}
	return notes
}
