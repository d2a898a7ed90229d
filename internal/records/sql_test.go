package records_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brinda/clasico/internal/database"
	"github.com/brinda/clasico/internal/migrations"
	"github.com/brinda/clasico/internal/records"
)

func newSQLStore(t *testing.T, migrate bool) *records.SQLStore {
	t.Helper()
	db, err := database.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	if migrate {
		require.NoError(t, migrations.Run(db, migrations.SQLite))
	}
	return records.NewSQLStore(db)
}

// stores runs fn against every implementation that can run without a server.
func stores(t *testing.T, fn func(t *testing.T, s records.Store)) {
	t.Run("sql", func(t *testing.T) { fn(t, newSQLStore(t, true)) })
	t.Run("memory", func(t *testing.T) {
		fn(t, records.NewMemory(records.Completions, records.UserRewards))
	})
}

func TestInsertSelect(t *testing.T) {
	stores(t, func(t *testing.T, s records.Store) {
		ctx := context.Background()
		a, err := s.Insert(ctx, records.Completions, records.Record{"user_id": "u1", "mode": "individual"})
		require.NoError(t, err)
		assert.NotEmpty(t, a.ID())
		assert.NotEmpty(t, a["created_at"])

		_, err = s.Insert(ctx, records.Completions, records.Record{"user_id": "u2", "mode": "grupo"})
		require.NoError(t, err)

		got, err := s.Select(ctx, records.Completions, records.Filter{"user_id": "u1"})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, a.ID(), got[0].ID())
		assert.Equal(t, "individual", got[0]["mode"])

		all, err := s.Select(ctx, records.Completions, nil)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})
}

func TestInsertUpserts(t *testing.T) {
	stores(t, func(t *testing.T, s records.Store) {
		ctx := context.Background()
		_, err := s.Insert(ctx, records.UserRewards, records.Record{"id": "r1", "claimed": false})
		require.NoError(t, err)
		_, err = s.Insert(ctx, records.UserRewards, records.Record{"id": "r1", "claimed": true})
		require.NoError(t, err)

		got, err := s.Select(ctx, records.UserRewards, records.Filter{"claimed": true})
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "r1", got[0].ID())
	})
}

func TestUpdate(t *testing.T) {
	stores(t, func(t *testing.T, s records.Store) {
		ctx := context.Background()
		_, err := s.Insert(ctx, records.UserRewards, records.Record{"id": "r1", "claimed": false, "user_id": "u"})
		require.NoError(t, err)

		r, err := s.Update(ctx, records.UserRewards, "r1", records.Record{"claimed": true})
		require.NoError(t, err)
		assert.Equal(t, true, r["claimed"])
		assert.Equal(t, "u", r["user_id"])

		_, err = s.Update(ctx, records.UserRewards, "missing", records.Record{"claimed": true})
		assert.ErrorIs(t, err, records.ErrNotFound)
	})
}

func TestMissingTableIsRecoverable(t *testing.T) {
	s := newSQLStore(t, false)
	_, err := s.Select(context.Background(), records.Archetypes, nil)
	require.ErrorIs(t, err, records.ErrTableMissing)
	assert.True(t, records.Recoverable(err))

	_, err = s.Insert(context.Background(), records.Archetypes, records.Record{"name": "x"})
	assert.ErrorIs(t, err, records.ErrTableMissing)

	m := records.NewMemory()
	_, err = m.Select(context.Background(), records.Archetypes, nil)
	assert.ErrorIs(t, err, records.ErrTableMissing)
	_, err = m.Insert(context.Background(), records.Archetypes, records.Record{"name": "x"})
	assert.ErrorIs(t, err, records.ErrTableMissing)
}

func TestRejectsBadNames(t *testing.T) {
	s := newSQLStore(t, true)
	_, err := s.Select(context.Background(), "archetypes; DROP TABLE routes", nil)
	assert.ErrorIs(t, err, records.ErrInvalidTable)

	_, err = s.Select(context.Background(), records.Archetypes, records.Filter{"team') OR 1=1 --": "x"})
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	type completion struct {
		ID     string `json:"id"`
		UserID string `json:"user_id"`
	}
	got, err := records.Decode[completion]([]records.Record{{"id": "c1", "user_id": "u1"}})
	require.NoError(t, err)
	assert.Equal(t, []completion{{ID: "c1", UserID: "u1"}}, got)

	_, err = records.Decode[completion]([]records.Record{{"id": "c2", "user_id": 42}})
	assert.ErrorIs(t, err, records.ErrSchemaMismatch)
}
