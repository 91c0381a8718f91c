// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"strings"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-account-keeper/models"
)

var (
	pgBuilder     = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	sqliteBuilder = sq.StatementBuilder.PlaceholderFormat(sq.Question)
)

func Test_buildDeactivateOthersQuery(t *testing.T) {
	query, args, err := buildDeactivateOthersQuery(pgBuilder, 42, "alice")
	require.NoError(t, err)

	q := strings.ToLower(query)
	require.Contains(t, q, "update accounts set is_active = $1")
	require.Contains(t, q, "user_id = $3")
	require.Contains(t, q, "username <> $4")

	// squirrel orders Eq keys alphabetically: is_active, user_id
	assert.Equal(t, []any{0, 1, int64(42), "alice"}, args)
}

func Test_buildUpsertActiveQuery(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name       string
		secret     models.SecretMaterial
		wantKind   string
		wantSecret string
	}{
		{
			name:       "encrypted secret",
			secret:     models.EncryptedSecret("aesgcm-v1:abc"),
			wantKind:   "encrypted",
			wantSecret: "aesgcm-v1:abc",
		},
		{
			name:       "no secret",
			secret:     models.NoSecret(),
			wantKind:   "none",
			wantSecret: "",
		},
		{
			name:       "zero value secret",
			secret:     models.SecretMaterial{},
			wantKind:   "none",
			wantSecret: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args, err := buildUpsertActiveQuery(sqliteBuilder, 7, "bob", "tok", tt.secret, now)
			require.NoError(t, err)

			q := strings.ToLower(query)
			require.Contains(t, q, "insert into accounts")
			require.Contains(t, q, "on conflict (user_id, username) do update")
			require.Contains(t, q, "is_active = 1")
			require.Equal(t, 7, strings.Count(query, "?"))

			assert.Equal(t, []any{int64(7), "bob", tt.wantSecret, tt.wantKind, "tok", 1, now}, args)
		})
	}
}

func Test_buildSelectActiveQuery(t *testing.T) {
	query, args, err := buildSelectActiveQuery(pgBuilder, 42)
	require.NoError(t, err)

	q := strings.ToLower(query)
	for _, c := range identityColumns {
		require.Contains(t, q, c)
	}
	require.Contains(t, q, "from accounts")
	assert.Equal(t, []any{1, int64(42)}, args)
}

func Test_buildListQuery(t *testing.T) {
	query, args, err := buildListQuery(pgBuilder, 42)
	require.NoError(t, err)

	q := strings.ToLower(query)
	require.Contains(t, q, "select username, is_active from accounts")
	require.True(t, strings.HasSuffix(q, "order by username"))
	assert.Equal(t, []any{int64(42)}, args)
}

func Test_buildCountQuery(t *testing.T) {
	t.Run("whole owner", func(t *testing.T) {
		query, args, err := buildCountOwnerQuery(pgBuilder, 42)
		require.NoError(t, err)
		require.NotContains(t, query, "username")
		assert.Equal(t, []any{int64(42)}, args)
	})

	t.Run("empty label still filters on username", func(t *testing.T) {
		query, args, err := buildCountQuery(pgBuilder, 42, "")
		require.NoError(t, err)
		require.Contains(t, query, "username = $2")
		assert.Equal(t, []any{int64(42), ""}, args)
	})

	t.Run("single label", func(t *testing.T) {
		query, args, err := buildCountQuery(pgBuilder, 42, "alice")
		require.NoError(t, err)
		require.Contains(t, query, "username = $2")
		assert.Equal(t, []any{int64(42), "alice"}, args)
	})
}

func Test_buildSelectIdentityQuery(t *testing.T) {
	query, args, err := buildSelectIdentityQuery(sqliteBuilder, 42, "alice")
	require.NoError(t, err)
	require.Contains(t, query, "user_id = ? AND username = ?")
	require.NotContains(t, query, "is_active =")
	assert.Equal(t, []any{int64(42), "alice"}, args)
}

func Test_buildActivateQuery(t *testing.T) {
	query, args, err := buildActivateQuery(pgBuilder, 42, "alice")
	require.NoError(t, err)
	require.Contains(t, strings.ToLower(query), "update accounts set is_active = $1")
	assert.Equal(t, []any{1, int64(42), "alice"}, args)
}

func Test_buildDeleteQueries(t *testing.T) {
	query, args, err := buildDeleteQuery(pgBuilder, 42, "alice")
	require.NoError(t, err)
	require.Contains(t, strings.ToLower(query), "delete from accounts")
	assert.Equal(t, []any{int64(42), "alice"}, args)

	query, args, err = buildDeleteAllQuery(pgBuilder, 42)
	require.NoError(t, err)
	require.NotContains(t, query, "username")
	assert.Equal(t, []any{int64(42)}, args)
}

func Test_buildUpdateTokenQuery(t *testing.T) {
	now := time.Now().UTC()

	query, args, err := buildUpdateTokenQuery(pgBuilder, 42, "alice", "new-token", now)
	require.NoError(t, err)

	q := strings.ToLower(query)
	require.Contains(t, q, "session_token = $1")
	require.NotContains(t, q, "is_active")
	assert.Equal(t, []any{"new-token", now, int64(42), "alice"}, args)
}

func Test_buildListSecretsQuery(t *testing.T) {
	query, args, err := buildListSecretsQuery(pgBuilder)
	require.NoError(t, err)

	q := strings.ToLower(query)
	require.Contains(t, q, "secret_kind <> $1")
	require.Contains(t, q, "secret <> $2")
	require.True(t, strings.HasSuffix(q, "order by user_id, username"))
	assert.Equal(t, []any{"none", ""}, args)
}

func Test_buildReplaceSecretQuery(t *testing.T) {
	now := time.Now().UTC()
	from := models.SecretMaterial{Kind: models.SecretLegacyPlaintext, Value: "hunter2"}
	to := models.EncryptedSecret("aesgcm-v1:xyz")

	query, args, err := buildReplaceSecretQuery(pgBuilder, 42, "alice", from, to, now)
	require.NoError(t, err)

	require.Contains(t, query, "secret_kind = $1")
	require.Contains(t, query, "secret = $2")
	// where clause keys sorted: secret, secret_kind, user_id, username
	assert.Equal(t, []any{
		"encrypted", "aesgcm-v1:xyz", now,
		"hunter2", "legacy_plaintext", int64(42), "alice",
	}, args)
}

func Test_secretColumns(t *testing.T) {
	kind, value := secretColumns(models.SecretMaterial{Kind: models.SecretEncrypted})
	assert.Equal(t, "none", kind)
	assert.Empty(t, value)

	kind, value = secretColumns(models.SecretMaterial{Kind: models.SecretLegacyHash, Value: "$2b$10$x"})
	assert.Equal(t, "legacy_hash", kind)
	assert.Equal(t, "$2b$10$x", value)
}
