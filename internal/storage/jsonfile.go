package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/robertguss/factorydesk/internal/domain"
)

// JSONFileStorage implements Storage on a single JSON array file, the layout
// the back-office web app reads and writes. Every call reads the file and
// every change rewrites it; concurrent writers outside this process win or
// lose by last write. Fields the web app keeps that Order does not model are
// preserved, and records this process does not change are written back as
// they were read.
type JSONFileStorage struct {
	path    string
	mu      sync.Mutex
	onWrite func(path string, data []byte)
}

// NewJSONFileStorage creates a file-backed storage, creating the file if needed
func NewJSONFileStorage(path string) (*JSONFileStorage, error) {
	s := &JSONFileStorage{path: path}

	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := s.writeAll(nil); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("failed to stat orders file: %w", err)
	}

	return s, nil
}

// Path returns the orders file location
func (s *JSONFileStorage) Path() string {
	return s.path
}

// OnWrite registers a hook called with the new file content just before
// each write replaces the file
func (s *JSONFileStorage) OnWrite(fn func(path string, data []byte)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onWrite = fn
}

// Close is a no-op; the file is not held open between calls
func (s *JSONFileStorage) Close() error {
	return nil
}

// CreateOrder appends a new order. An empty ID is replaced with a generated one.
func (s *JSONFileStorage) CreateOrder(ctx context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return err
	}

	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	if indexOf(records, order.ID) >= 0 {
		return fmt.Errorf("order %s already exists", order.ID)
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

	rec, err := newRecord(order)
	if err != nil {
		return err
	}
	return s.writeAll(append(records, rec))
}

// GetOrder reads the file and returns the order with the given ID
func (s *JSONFileStorage) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return nil, err
	}

	idx := indexOf(records, id)
	if idx < 0 {
		return nil, notFound(id)
	}
	return records[idx].order, nil
}

// UpdateOrder merges the patch into the stored order and rewrites the file.
// Only the keys the patch sets are replaced in the stored record.
func (s *JSONFileStorage) UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return nil, err
	}

	idx := indexOf(records, id)
	if idx < 0 {
		return nil, notFound(id)
	}

	rec := records[idx]
	if err := rec.apply(patch); err != nil {
		return nil, err
	}
	if err := s.writeAll(records); err != nil {
		return nil, err
	}

	return rec.order.Clone(), nil
}

// ListOrders returns orders matching the filter, newest first
func (s *JSONFileStorage) ListOrders(ctx context.Context, filter *OrderFilter) ([]*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return nil, err
	}

	matched := filterOrders(records, filter)
	sort.SliceStable(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	offset := 0
	if filter != nil && filter.Offset > 0 {
		offset = filter.Offset
	}
	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]

	if limit := defaultLimit(filter); len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// CountOrders returns the count of orders matching the filter
func (s *JSONFileStorage) CountOrders(ctx context.Context, filter *OrderFilter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return 0, err
	}
	return len(filterOrders(records, filter)), nil
}

// DeleteOrder removes an order from the file
func (s *JSONFileStorage) DeleteOrder(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return err
	}

	idx := indexOf(records, id)
	if idx < 0 {
		return notFound(id)
	}

	records = append(records[:idx], records[idx+1:]...)
	return s.writeAll(records)
}

// GetStats returns order counts by status
func (s *JSONFileStorage) GetStats(ctx context.Context) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.readAll()
	if err != nil {
		return nil, err
	}

	orders := filterOrders(records, nil)
	stats := &Stats{
		TotalOrders: len(orders),
		ByStatus:    make(map[domain.OrderStatus]int),
	}
	for _, o := range orders {
		stats.ByStatus[o.Status]++
	}
	return stats, nil
}

// readAll decodes the array one record at a time, so a loosely typed record
// cannot make the rest of the file unreadable
func (s *JSONFileStorage) readAll() ([]*jsonRecord, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read orders file: %w", err)
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(data, &elems); err != nil {
		return nil, fmt.Errorf("failed to parse orders file: %w", err)
	}

	records := make([]*jsonRecord, 0, len(elems))
	for _, elem := range elems {
		records = append(records, decodeRecord(elem))
	}
	return records, nil
}

// writeAll replaces the file via a temp file and rename
func (s *JSONFileStorage) writeAll(records []*jsonRecord) error {
	elems := make([]json.RawMessage, 0, len(records))
	for _, rec := range records {
		raw, err := rec.encode()
		if err != nil {
			return err
		}
		elems = append(elems, raw)
	}

	data, err := json.MarshalIndent(elems, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal orders: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".orders-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write orders: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write orders: %w", err)
	}

	if s.onWrite != nil {
		s.onWrite(s.path, data)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace orders file: %w", err)
	}
	return nil
}

func indexOf(records []*jsonRecord, id string) int {
	for i, rec := range records {
		if rec.order != nil && rec.order.ID == id {
			return i
		}
	}
	return -1
}

// filterOrders returns clones of the decoded orders matching the filter
func filterOrders(records []*jsonRecord, filter *OrderFilter) []*domain.Order {
	matched := make([]*domain.Order, 0, len(records))
	for _, rec := range records {
		o := rec.order
		if o == nil {
			continue
		}
		if filter != nil {
			if filter.Status != "" && o.Status != filter.Status {
				continue
			}
			if filter.Customer != "" &&
				!strings.Contains(strings.ToLower(o.CustomerName), strings.ToLower(filter.Customer)) {
				continue
			}
		}
		matched = append(matched, o.Clone())
	}
	return matched
}
