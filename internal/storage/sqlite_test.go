package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertguss/factorydesk/internal/domain"
)

func TestNewSQLiteStorage(t *testing.T) {
	t.Run("creates in-memory storage", func(t *testing.T) {
		s, err := NewSQLiteStorage(":memory:")
		require.NoError(t, err)
		require.NotNil(t, s)
		defer s.Close()
	})

	t.Run("persists across reopen", func(t *testing.T) {
		dbPath := filepath.Join(t.TempDir(), "test.db")
		ctx := context.Background()

		s, err := NewSQLiteStorage(dbPath)
		require.NoError(t, err)
		order := createTestOrder("o-1", "Acme", baseTime)
		order.TimelineNotes["4"] = "seams doubled"
		require.NoError(t, s.CreateOrder(ctx, order))
		require.NoError(t, s.Close())

		s, err = NewSQLiteStorage(dbPath)
		require.NoError(t, err)
		defer s.Close()

		got, err := s.GetOrder(ctx, "o-1")
		require.NoError(t, err)
		assert.Equal(t, "seams doubled", got.TimelineNotes["4"])
	})

	t.Run("migration is idempotent", func(t *testing.T) {
		s, err := NewInMemoryStorage()
		require.NoError(t, err)
		defer s.Close()
		assert.NoError(t, s.migrate())
	})
}

func TestSQLiteStorage_DropsUnknownStageBits(t *testing.T) {
	s, err := NewInMemoryStorage()
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	require.NoError(t, s.CreateOrder(ctx, createTestOrder("o-1", "Acme", baseTime)))

	_, err = s.db.ExecContext(ctx, "UPDATE orders SET completed_stages = ? WHERE id = ?", 0xFF|0x300, "o-1")
	require.NoError(t, err)

	got, err := s.GetOrder(ctx, "o-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StagesThrough(domain.StageCount), got.CompletedStages)
}

func TestSQLiteStorage_DeleteCascadesNotes(t *testing.T) {
	s, err := NewInMemoryStorage()
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	order := createTestOrder("o-1", "Acme", baseTime)
	order.TimelineNotes["2"] = "a"
	order.TimelineNotes["3"] = "b"
	require.NoError(t, s.CreateOrder(ctx, order))
	require.NoError(t, s.DeleteOrder(ctx, "o-1"))

	var n int
	require.NoError(t, s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM timeline_notes").Scan(&n))
	assert.Equal(t, 0, n)
}

func TestEscapeLikeWildcards(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{"50%", "50\\%"},
		{"a_b", "a\\_b"},
		{"back\\slash", "back\\\\slash"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, escapeLikeWildcards(tt.in))
	}
}

func TestBuildWhereClause(t *testing.T) {
	where, args := buildWhereClause(nil)
	assert.Empty(t, where)
	assert.Nil(t, args)

	where, args = buildWhereClause(&OrderFilter{Status: domain.OrderCompleted, Customer: "acme"})
	assert.Equal(t, "status = ? AND customer_name LIKE ? ESCAPE '\\'", where)
	assert.Equal(t, []any{"completed", "%acme%"}, args)
}
