package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-account-keeper/internal/crypto"
	"github.com/MKhiriev/go-account-keeper/internal/mock"
	"github.com/MKhiriev/go-account-keeper/models"
	"go.uber.org/mock/gomock"
)

func TestMigrateAll_IsIdempotentOnRealStore(t *testing.T) {
	ctrl := gomock.NewController(t)
	services, storages := newSQLiteServices(t, mock.NewMockUpstreamAdapter(ctrl))
	ctx := context.Background()

	legacy := models.SecretMaterial{Kind: models.SecretLegacyPlaintext, Value: "hunter2"}
	hashed := models.SecretMaterial{Kind: models.SecretLegacyHash, Value: "$2b$12$abcdefghijklmnopqrstuv"}
	require.NoError(t, storages.Accounts.UpsertAndActivate(ctx, 1, "plain", "t1", legacy))
	require.NoError(t, storages.Accounts.UpsertAndActivate(ctx, 2, "hashed", "t2", hashed))
	require.NoError(t, storages.Accounts.UpsertAndActivate(ctx, 3, "none", "t3", models.NoSecret()))

	first, err := services.MigrationService.MigrateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Scanned)
	assert.Equal(t, 1, first.Migrated)
	assert.Equal(t, 1, first.Unmigratable)
	assert.Empty(t, first.Failed)

	second, err := services.MigrationService.MigrateAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Migrated)
	assert.Equal(t, 1, second.SkippedAlreadyCurrent)
	assert.Equal(t, 1, second.Unmigratable)
	assert.NotEqual(t, first.RunID, second.RunID)

	active, ok, err := storages.Accounts.GetActive(ctx, 1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.SecretEncrypted, active.Secret.Kind)
	assert.True(t, crypto.IsCurrentScheme(active.Secret.Value))

	// the hash is retained as it was
	active, _, err = storages.Accounts.GetActive(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, hashed, active.Secret)
}
