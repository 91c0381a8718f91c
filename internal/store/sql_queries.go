package store

import (
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-account-keeper/models"
)

const (
	accountsTable   = "accounts"
	activeIndexName = "accounts_one_active_per_user"

	advisoryLockQuery = `SELECT pg_advisory_xact_lock($1)`

	upsertConflictSuffix = `ON CONFLICT (user_id, username) DO UPDATE SET
		secret = excluded.secret,
		secret_kind = excluded.secret_kind,
		session_token = excluded.session_token,
		is_active = 1,
		updated_at = excluded.updated_at`
)

var identityColumns = []string{
	"user_id",
	"username",
	"session_token",
	"secret_kind",
	"secret",
	"is_active",
	"updated_at",
}

func buildDeactivateOthersQuery(b sq.StatementBuilderType, ownerID int64, label string) (string, []any, error) {
	return b.Update(accountsTable).
		Set("is_active", 0).
		Where(sq.Eq{"user_id": ownerID, "is_active": 1}).
		Where(sq.NotEq{"username": label}).
		ToSql()
}

func buildUpsertActiveQuery(b sq.StatementBuilderType, ownerID int64, label, token string, secret models.SecretMaterial, now time.Time) (string, []any, error) {
	kind, value := secretColumns(secret)
	return b.Insert(accountsTable).
		Columns("user_id", "username", "secret", "secret_kind", "session_token", "is_active", "updated_at").
		Values(ownerID, label, value, kind, token, 1, now).
		Suffix(upsertConflictSuffix).
		ToSql()
}

func buildSelectActiveQuery(b sq.StatementBuilderType, ownerID int64) (string, []any, error) {
	return b.Select(identityColumns...).
		From(accountsTable).
		Where(sq.Eq{"user_id": ownerID, "is_active": 1}).
		ToSql()
}

func buildListQuery(b sq.StatementBuilderType, ownerID int64) (string, []any, error) {
	return b.Select("username", "is_active").
		From(accountsTable).
		Where(sq.Eq{"user_id": ownerID}).
		OrderBy("username").
		ToSql()
}

func buildSelectIdentityQuery(b sq.StatementBuilderType, ownerID int64, label string) (string, []any, error) {
	return b.Select(identityColumns...).
		From(accountsTable).
		Where(sq.Eq{"user_id": ownerID, "username": label}).
		ToSql()
}

func buildCountQuery(b sq.StatementBuilderType, ownerID int64, label string) (string, []any, error) {
	return b.Select("COUNT(*)").
		From(accountsTable).
		Where(sq.Eq{"user_id": ownerID, "username": label}).
		ToSql()
}

func buildCountOwnerQuery(b sq.StatementBuilderType, ownerID int64) (string, []any, error) {
	return b.Select("COUNT(*)").
		From(accountsTable).
		Where(sq.Eq{"user_id": ownerID}).
		ToSql()
}

func buildActivateQuery(b sq.StatementBuilderType, ownerID int64, label string) (string, []any, error) {
	return b.Update(accountsTable).
		Set("is_active", 1).
		Where(sq.Eq{"user_id": ownerID, "username": label}).
		ToSql()
}

func buildDeleteQuery(b sq.StatementBuilderType, ownerID int64, label string) (string, []any, error) {
	return b.Delete(accountsTable).
		Where(sq.Eq{"user_id": ownerID, "username": label}).
		ToSql()
}

func buildDeleteAllQuery(b sq.StatementBuilderType, ownerID int64) (string, []any, error) {
	return b.Delete(accountsTable).
		Where(sq.Eq{"user_id": ownerID}).
		ToSql()
}

func buildUpdateTokenQuery(b sq.StatementBuilderType, ownerID int64, label, token string, now time.Time) (string, []any, error) {
	return b.Update(accountsTable).
		Set("session_token", token).
		Set("updated_at", now).
		Where(sq.Eq{"user_id": ownerID, "username": label}).
		ToSql()
}

func buildListSecretsQuery(b sq.StatementBuilderType) (string, []any, error) {
	return b.Select("user_id", "username", "secret_kind", "secret").
		From(accountsTable).
		Where(sq.NotEq{"secret_kind": string(models.SecretNone)}).
		Where(sq.NotEq{"secret": ""}).
		OrderBy("user_id", "username").
		ToSql()
}

func buildReplaceSecretQuery(b sq.StatementBuilderType, ownerID int64, label string, from, to models.SecretMaterial, now time.Time) (string, []any, error) {
	fromKind, fromValue := secretColumns(from)
	toKind, toValue := secretColumns(to)
	return b.Update(accountsTable).
		Set("secret_kind", toKind).
		Set("secret", toValue).
		Set("updated_at", now).
		Where(sq.Eq{
			"user_id":     ownerID,
			"username":    label,
			"secret_kind": fromKind,
			"secret":      fromValue,
		}).
		ToSql()
}

// secretColumns flattens the tagged secret into its two columns. A record
// without a secret is stored as ('none', '').
func secretColumns(s models.SecretMaterial) (kind string, value string) {
	if s.IsEmpty() {
		return string(models.SecretNone), ""
	}
	return string(s.Kind), s.Value
}
