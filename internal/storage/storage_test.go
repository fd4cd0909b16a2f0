package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertguss/factorydesk/internal/domain"
)

var baseTime = time.Date(2026, 2, 1, 8, 0, 0, 0, time.UTC)

func createTestOrder(id, customer string, created time.Time) *domain.Order {
	return domain.NewOrder(id, customer, "Cotton shirts", 120, created)
}

// storageDrivers opens one fresh store per driver
func storageDrivers(t *testing.T) map[string]Storage {
	t.Helper()

	sqliteStore, err := NewInMemoryStorage()
	require.NoError(t, err)

	jsonStore, err := NewJSONFileStorage(filepath.Join(t.TempDir(), "orders.json"))
	require.NoError(t, err)

	t.Cleanup(func() {
		sqliteStore.Close()
		jsonStore.Close()
	})

	return map[string]Storage{
		DriverSQLite: sqliteStore,
		DriverJSON:   jsonStore,
	}
}

func TestStorage_CreateAndGet(t *testing.T) {
	for name, s := range storageDrivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			order := createTestOrder("o-1", "Acme Textiles", baseTime)
			order.TimelineNotes["1"] = "fabric checked"

			require.NoError(t, s.CreateOrder(ctx, order))

			got, err := s.GetOrder(ctx, "o-1")
			require.NoError(t, err)
			assert.Equal(t, "Acme Textiles", got.CustomerName)
			assert.Equal(t, "Cotton shirts", got.Product)
			assert.Equal(t, 120, got.Quantity)
			assert.Equal(t, domain.NewStageSet(1), got.CompletedStages)
			assert.Equal(t, domain.OrderPending, got.Status)
			assert.True(t, baseTime.Equal(got.CreatedAt))
			assert.True(t, baseTime.Equal(got.LastUpdated))
			assert.Equal(t, map[string]string{"1": "fabric checked"}, got.TimelineNotes)
		})
	}
}

func TestStorage_CreateAssignsID(t *testing.T) {
	for name, s := range storageDrivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			order := &domain.Order{CompletedStages: domain.NewStageSet(1)}

			require.NoError(t, s.CreateOrder(ctx, order))
			assert.NotEmpty(t, order.ID)
			assert.Equal(t, domain.OrderPending, order.Status)
			assert.False(t, order.CreatedAt.IsZero())

			_, err := s.GetOrder(ctx, order.ID)
			assert.NoError(t, err)
		})
	}
}

func TestStorage_CreateDuplicate(t *testing.T) {
	for name, s := range storageDrivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, s.CreateOrder(ctx, createTestOrder("dup", "A", baseTime)))
			assert.Error(t, s.CreateOrder(ctx, createTestOrder("dup", "B", baseTime)))
		})
	}
}

func TestStorage_GetNotFound(t *testing.T) {
	for name, s := range storageDrivers(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.GetOrder(context.Background(), "missing")
			require.Error(t, err)
			assert.True(t, errors.Is(err, domain.ErrNotFound))
		})
	}
}

func TestStorage_UpdateOrder(t *testing.T) {
	for name, s := range storageDrivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			order := createTestOrder("o-1", "Acme", baseTime)
			order.TimelineNotes["1"] = "keep me"
			require.NoError(t, s.CreateOrder(ctx, order))

			t.Run("progress fields only", func(t *testing.T) {
				stages := domain.StagesThrough(3)
				status := domain.OrderProcessing
				updated := baseTime.Add(2 * time.Hour)

				got, err := s.UpdateOrder(ctx, "o-1", domain.OrderPatch{
					CompletedStages: &stages,
					Status:          &status,
					LastUpdated:     &updated,
				})
				require.NoError(t, err)
				assert.Equal(t, stages, got.CompletedStages)
				assert.Equal(t, domain.OrderProcessing, got.Status)
				assert.True(t, updated.Equal(got.LastUpdated))
				assert.Equal(t, "keep me", got.TimelineNotes["1"])
				assert.Equal(t, "Acme", got.CustomerName)
			})

			t.Run("notes replace the whole map", func(t *testing.T) {
				got, err := s.UpdateOrder(ctx, "o-1", domain.OrderPatch{
					TimelineNotes: map[string]string{"3": "dye batch delayed"},
				})
				require.NoError(t, err)
				assert.Equal(t, map[string]string{"3": "dye batch delayed"}, got.TimelineNotes)
				assert.Equal(t, domain.StagesThrough(3), got.CompletedStages)
			})

			t.Run("empty notes map clears all notes", func(t *testing.T) {
				got, err := s.UpdateOrder(ctx, "o-1", domain.OrderPatch{
					TimelineNotes: map[string]string{},
				})
				require.NoError(t, err)
				assert.Empty(t, got.TimelineNotes)
				assert.NotNil(t, got.TimelineNotes)
			})

			t.Run("persisted for later reads", func(t *testing.T) {
				got, err := s.GetOrder(ctx, "o-1")
				require.NoError(t, err)
				assert.Equal(t, domain.StagesThrough(3), got.CompletedStages)
				assert.Empty(t, got.TimelineNotes)
			})
		})
	}
}

func TestStorage_UpdateNotFound(t *testing.T) {
	for name, s := range storageDrivers(t) {
		t.Run(name, func(t *testing.T) {
			status := domain.OrderProcessing
			_, err := s.UpdateOrder(context.Background(), "missing", domain.OrderPatch{Status: &status})
			assert.True(t, errors.Is(err, domain.ErrNotFound))
		})
	}
}

func TestStorage_ListOrders(t *testing.T) {
	for name, s := range storageDrivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i, customer := range []string{"Acme", "Bolt Garments", "acme north", "Zed_Co"} {
				o := createTestOrder("", customer, baseTime.Add(time.Duration(i)*time.Hour))
				if i%2 == 1 {
					o.Status = domain.OrderProcessing
				}
				require.NoError(t, s.CreateOrder(ctx, o))
			}

			t.Run("newest first", func(t *testing.T) {
				orders, err := s.ListOrders(ctx, nil)
				require.NoError(t, err)
				require.Len(t, orders, 4)
				assert.Equal(t, "Zed_Co", orders[0].CustomerName)
				assert.Equal(t, "Acme", orders[3].CustomerName)
			})

			t.Run("by status", func(t *testing.T) {
				orders, err := s.ListOrders(ctx, &OrderFilter{Status: domain.OrderProcessing})
				require.NoError(t, err)
				assert.Len(t, orders, 2)
			})

			t.Run("by customer is case insensitive", func(t *testing.T) {
				orders, err := s.ListOrders(ctx, &OrderFilter{Customer: "ACME"})
				require.NoError(t, err)
				assert.Len(t, orders, 2)
			})

			t.Run("customer wildcards are literal", func(t *testing.T) {
				orders, err := s.ListOrders(ctx, &OrderFilter{Customer: "_"})
				require.NoError(t, err)
				require.Len(t, orders, 1)
				assert.Equal(t, "Zed_Co", orders[0].CustomerName)
			})

			t.Run("limit and offset", func(t *testing.T) {
				orders, err := s.ListOrders(ctx, &OrderFilter{Limit: 2, Offset: 1})
				require.NoError(t, err)
				require.Len(t, orders, 2)
				assert.Equal(t, "acme north", orders[0].CustomerName)
			})

			t.Run("count ignores paging", func(t *testing.T) {
				n, err := s.CountOrders(ctx, &OrderFilter{Status: domain.OrderPending, Limit: 1})
				require.NoError(t, err)
				assert.Equal(t, 2, n)
			})
		})
	}
}

func TestStorage_DeleteOrder(t *testing.T) {
	for name, s := range storageDrivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			order := createTestOrder("o-1", "Acme", baseTime)
			order.TimelineNotes["2"] = "note"
			require.NoError(t, s.CreateOrder(ctx, order))

			require.NoError(t, s.DeleteOrder(ctx, "o-1"))

			_, err := s.GetOrder(ctx, "o-1")
			assert.True(t, errors.Is(err, domain.ErrNotFound))

			err = s.DeleteOrder(ctx, "o-1")
			assert.True(t, errors.Is(err, domain.ErrNotFound))
		})
	}
}

func TestStorage_GetStats(t *testing.T) {
	for name, s := range storageDrivers(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			statuses := []domain.OrderStatus{domain.OrderPending, domain.OrderProcessing, domain.OrderProcessing, domain.OrderCompleted}
			for _, st := range statuses {
				o := createTestOrder("", "Acme", baseTime)
				o.Status = st
				require.NoError(t, s.CreateOrder(ctx, o))
			}

			stats, err := s.GetStats(ctx)
			require.NoError(t, err)
			assert.Equal(t, 4, stats.TotalOrders)
			assert.Equal(t, 2, stats.ByStatus[domain.OrderProcessing])
			assert.Equal(t, 1, stats.ByStatus[domain.OrderCompleted])
		})
	}
}

func TestOpen(t *testing.T) {
	t.Run("sqlite", func(t *testing.T) {
		s, err := Open(DriverSQLite, ":memory:")
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &SQLiteStorage{}, s)
	})

	t.Run("json", func(t *testing.T) {
		s, err := Open(DriverJSON, filepath.Join(t.TempDir(), "orders.json"))
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &JSONFileStorage{}, s)
	})

	t.Run("unknown driver", func(t *testing.T) {
		_, err := Open("postgres", "x")
		assert.Error(t, err)
	})
}

func TestDefaultPaths(t *testing.T) {
	assert.Equal(t, filepath.Join("data", "factorydesk.db"), GetDatabasePath("data"))
	assert.Equal(t, filepath.Join("data", "orders.json"), GetOrdersFilePath("data"))
}
