package storage

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertguss/factorydesk/internal/domain"
)

func TestNewJSONFileStorage(t *testing.T) {
	t.Run("creates missing file and directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "orders.json")

		s, err := NewJSONFileStorage(path)
		require.NoError(t, err)
		assert.Equal(t, path, s.Path())

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.JSONEq(t, "[]", string(data))
	})

	t.Run("keeps existing file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "orders.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"id":"a","status":"pending","completedStages":[1]}]`), 0644))

		s, err := NewJSONFileStorage(path)
		require.NoError(t, err)

		n, err := s.CountOrders(context.Background(), nil)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})
}

func TestJSONFileStorage_ReadsWebAppFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	raw := `[
	  {
	    "id": "ord-7",
	    "customerName": "Nile Fabrics",
	    "completedStages": [1, "2", 3.0, "x", 9],
	    "timelineNotes": {"2": "vat 3"},
	    "status": "processing",
	    "lastUpdated": "2026-02-01T10:00:00Z",
	    "createdAt": "2026-01-30T08:00:00Z"
	  }
	]`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	s, err := NewJSONFileStorage(path)
	require.NoError(t, err)

	got, err := s.GetOrder(context.Background(), "ord-7")
	require.NoError(t, err)
	assert.Equal(t, "{1,2,3}", got.CompletedStages.String())
	assert.Equal(t, "vat 3", got.TimelineNotes["2"])
	assert.Equal(t, domain.OrderProcessing, got.Status)
}

func TestJSONFileStorage_EmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0644))

	s, err := NewJSONFileStorage(path)
	require.NoError(t, err)

	orders, err := s.ListOrders(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestJSONFileStorage_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	s, err := NewJSONFileStorage(path)
	require.NoError(t, err)

	_, err = s.GetOrder(context.Background(), "x")
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrNotFound))
}

func TestJSONFileStorage_WritesArrayOfStageNumbers(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	s, err := NewJSONFileStorage(path)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.CreateOrder(ctx, createTestOrder("o-1", "Acme", baseTime)))

	stages := domain.NewStageSet(1, 2)
	_, err = s.UpdateOrder(ctx, "o-1", domain.OrderPatch{CompletedStages: &stages})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, []any{1.0, 2.0}, decoded[0]["completedStages"])

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), ".orders-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestJSONFileStorage_UpdateReturnsCopy(t *testing.T) {
	s, err := NewJSONFileStorage(filepath.Join(t.TempDir(), "orders.json"))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, s.CreateOrder(ctx, createTestOrder("o-1", "Acme", baseTime)))

	got, err := s.UpdateOrder(ctx, "o-1", domain.OrderPatch{TimelineNotes: map[string]string{"1": "x"}})
	require.NoError(t, err)
	got.TimelineNotes["1"] = "mutated"

	again, err := s.GetOrder(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, "x", again.TimelineNotes["1"])
}

const webAppOrders = `[
  {
    "id": "o-1",
    "customerName": "Nile Fabrics",
    "completedStages": [1],
    "status": "pending",
    "lastUpdated": "2026-02-01T10:00:00Z",
    "createdAt": "2026-01-30T08:00:00Z",
    "totalPrice": 950,
    "items": [{"sku": "TS-01", "qty": 40}],
    "invoiceId": "inv-7"
  },
  {
    "id": "o-2",
    "customerName": "Delta Weaving",
    "completedStages": ["1", "2"],
    "status": "processing",
    "lastUpdated": "2026-02-02T10:00:00Z",
    "createdAt": "2026-01-31T08:00:00Z",
    "paidAt": null,
    "shipping": {"carrier": "Aramex"}
  }
]`

func readRecords(t *testing.T, path string) []map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal(data, &records))
	return records
}

func TestJSONFileStorage_PreservesWebAppFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	require.NoError(t, os.WriteFile(path, []byte(webAppOrders), 0644))

	s, err := NewJSONFileStorage(path)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("update rewrites only patched keys", func(t *testing.T) {
		stages := domain.NewStageSet(1, 2, 3)
		status := domain.OrderProcessing
		_, err := s.UpdateOrder(ctx, "o-1", domain.OrderPatch{
			CompletedStages: &stages,
			Status:          &status,
			TimelineNotes:   map[string]string{"2": "vat 3"},
		})
		require.NoError(t, err)

		records := readRecords(t, path)
		require.Len(t, records, 2)

		first := records[0]
		assert.Equal(t, 950.0, first["totalPrice"])
		assert.Equal(t, "inv-7", first["invoiceId"])
		assert.Len(t, first["items"], 1)
		assert.Equal(t, []any{1.0, 2.0, 3.0}, first["completedStages"])
		assert.Equal(t, "processing", first["status"])
		assert.Equal(t, "2026-02-01T10:00:00Z", first["lastUpdated"])
		assert.Equal(t, map[string]any{"2": "vat 3"}, first["timelineNotes"])

		second := records[1]
		assert.Equal(t, []any{"1", "2"}, second["completedStages"], "untouched records keep their encoding")
		assert.Contains(t, second, "paidAt")
		assert.Equal(t, map[string]any{"carrier": "Aramex"}, second["shipping"])
	})

	t.Run("create and delete leave other records alone", func(t *testing.T) {
		require.NoError(t, s.CreateOrder(ctx, createTestOrder("o-3", "Acme", baseTime)))
		require.NoError(t, s.DeleteOrder(ctx, "o-3"))

		records := readRecords(t, path)
		require.Len(t, records, 2)
		assert.Equal(t, "inv-7", records[0]["invoiceId"])
		assert.Equal(t, map[string]any{"carrier": "Aramex"}, records[1]["shipping"])
	})
}

func TestJSONFileStorage_LooselyTypedRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	raw := `[
	  {"id": 1712345678901, "customerName": "Numeric Id", "completedStages": [1], "status": "pending", "quantity": "250"},
	  {"id": "o-2", "customerName": "Blank Dates", "completedStages": [1, 2], "status": "processing", "lastUpdated": "", "createdAt": "not a date"},
	  {"id": "o-3", "completedStages": "oops", "status": "pending", "timelineNotes": {"1": "ok", "2": 5}, "createdAt": 1767225600000},
	  null,
	  {"customerName": "No id"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	s, err := NewJSONFileStorage(path)
	require.NoError(t, err)
	ctx := context.Background()

	t.Run("numeric id reads as text", func(t *testing.T) {
		got, err := s.GetOrder(ctx, "1712345678901")
		require.NoError(t, err)
		assert.Equal(t, "Numeric Id", got.CustomerName)
		assert.Equal(t, 250, got.Quantity)
	})

	t.Run("empty or unparseable times are zero", func(t *testing.T) {
		got, err := s.GetOrder(ctx, "o-2")
		require.NoError(t, err)
		assert.True(t, got.LastUpdated.IsZero())
		assert.True(t, got.CreatedAt.IsZero())
		assert.Equal(t, "{1,2}", got.CompletedStages.String())
	})

	t.Run("bad stages and notes degrade per field", func(t *testing.T) {
		got, err := s.GetOrder(ctx, "o-3")
		require.NoError(t, err)
		assert.Equal(t, 0, got.CompletedStages.Len())
		assert.Equal(t, map[string]string{"1": "ok"}, got.TimelineNotes)
		assert.Equal(t, "2026-01-01T00:00:00Z", got.CreatedAt.Format(time.RFC3339))
	})

	t.Run("records without an id are skipped but kept", func(t *testing.T) {
		n, err := s.CountOrders(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, 3, n)

		_, err = s.UpdateOrder(ctx, "o-2", domain.OrderPatch{TimelineNotes: map[string]string{"2": "dye lot 4"}})
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var elems []json.RawMessage
		require.NoError(t, json.Unmarshal(data, &elems))
		require.Len(t, elems, 5)
		assert.Equal(t, "null", string(elems[3]))
		assert.Contains(t, string(data), "1712345678901")
		assert.Contains(t, string(data), `"No id"`)
	})
}

func TestJSONFileStorage_OnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "orders.json")
	s, err := NewJSONFileStorage(path)
	require.NoError(t, err)

	var hookPath string
	var hookData []byte
	s.OnWrite(func(p string, data []byte) {
		hookPath = p
		hookData = append([]byte(nil), data...)
	})

	require.NoError(t, s.CreateOrder(context.Background(), createTestOrder("o-1", "Acme", baseTime)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, path, hookPath)
	assert.Equal(t, string(data), string(hookData))
}
