package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/inbox/internal/model"
	"github.com/nhle/inbox/internal/store"
)

// NewTestStore creates an in-memory SQLiteStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(store.MemoryPath)
	require.NoError(t, err, "creating test store")

	t.Cleanup(func() {
		assert.NoError(t, s.Close(), "closing test store")
	})

	return s
}

// SeedMessages inserts msgs so that msgs[0] ends up first in listing order,
// and returns the assigned ids in the same order as msgs.
func SeedMessages(t *testing.T, s store.Store, msgs ...model.Message) []int64 {
	t.Helper()

	ids := make([]int64, len(msgs))
	for i := len(msgs) - 1; i >= 0; i-- {
		id, err := s.InsertMessage(context.Background(), msgs[i])
		require.NoError(t, err, "seeding message %q", msgs[i].Subject)
		ids[i] = id
	}
	return ids
}
