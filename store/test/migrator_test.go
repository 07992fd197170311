package test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/slotdesk/store"
)

func TestMigrateRecordsSchemaVersion(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	current, err := ts.GetCurrentSchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, "0.1.1", current)

	setting, err := ts.GetSystemSetting(ctx, "schema_version")
	require.NoError(t, err)
	require.NotNil(t, setting)
	assert.Equal(t, current, setting.Value)

	// A second run on an initialized database is a no-op.
	require.NoError(t, ts.Migrate(ctx))
}

func TestMigrateAppliesPendingScripts(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	_, err := ts.UpsertSystemSetting(ctx, &store.SystemSetting{Name: "schema_version", Value: "0.1.0"})
	require.NoError(t, err)
	require.NoError(t, ts.Migrate(ctx))

	setting, err := ts.GetSystemSetting(ctx, "schema_version")
	require.NoError(t, err)
	assert.Equal(t, "0.1.1", setting.Value)
}

func TestMigrateRefusesDowngrade(t *testing.T) {
	ctx := context.Background()
	ts := NewTestingStore(ctx, t)

	_, err := ts.UpsertSystemSetting(ctx, &store.SystemSetting{Name: "schema_version", Value: "9.0.0"})
	require.NoError(t, err)
	err = ts.Migrate(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot downgrade")
}
