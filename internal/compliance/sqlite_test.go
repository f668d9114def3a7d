package compliance

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "checks.db"))
	require.NoError(t, err)
	t.Cleanup(store.Close)
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	checkedAt := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)
	checks := []Check{
		{ApplicationID: "app-1", Type: CheckEntityEligibility, Status: StatusPass, Message: "ok", CheckedAt: checkedAt},
		{ApplicationID: "app-1", Type: CheckOverseasFinding, Status: StatusWarning, Message: "missing finding",
			Details: map[string]any{"activity_ids": []any{"act-1"}}, CheckedAt: checkedAt},
	}
	require.NoError(t, store.ReplaceChecks(ctx, "app-1", checks))

	got, err := store.ListChecks(ctx, "app-1")
	require.NoError(t, err)
	require.Len(t, got, 2)

	// Ordered by check type.
	assert.Equal(t, CheckEntityEligibility, got[0].Type)
	assert.Equal(t, CheckOverseasFinding, got[1].Type)
	assert.Equal(t, "missing finding", got[1].Message)
	assert.Equal(t, []any{"act-1"}, got[1].Details["activity_ids"])
	assert.True(t, got[0].CheckedAt.Equal(checkedAt))
	assert.NotEmpty(t, got[0].ID)
}

func TestSQLiteStoreReplaceDropsStaleChecks(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	first := []Check{
		{ApplicationID: "app-1", Type: CheckEntityEligibility, Status: StatusFail, CheckedAt: time.Now().UTC()},
		{ApplicationID: "app-1", Type: CheckDocumentation, Status: StatusWarning, CheckedAt: time.Now().UTC()},
	}
	require.NoError(t, store.ReplaceChecks(ctx, "app-1", first))

	second := []Check{
		{ApplicationID: "app-1", Type: CheckEntityEligibility, Status: StatusPass, CheckedAt: time.Now().UTC()},
	}
	require.NoError(t, store.ReplaceChecks(ctx, "app-1", second))

	got, err := store.ListChecks(ctx, "app-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, StatusPass, got[0].Status)
}

func TestSQLiteStoreScopesByApplication(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.ReplaceChecks(ctx, "app-1", []Check{
		{ApplicationID: "app-1", Type: CheckEntityEligibility, Status: StatusPass, CheckedAt: time.Now().UTC()},
	}))
	require.NoError(t, store.ReplaceChecks(ctx, "app-2", []Check{
		{ApplicationID: "app-2", Type: CheckEntityEligibility, Status: StatusFail, CheckedAt: time.Now().UTC()},
	}))

	got, err := store.ListChecks(ctx, "app-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, StatusPass, got[0].Status)
}
