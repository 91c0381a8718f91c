// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MKhiriev/go-account-keeper/internal/adapter"
	"github.com/MKhiriev/go-account-keeper/internal/config"
	"github.com/MKhiriev/go-account-keeper/internal/crypto"
	"github.com/MKhiriev/go-account-keeper/internal/logger"
	"github.com/MKhiriev/go-account-keeper/internal/mock"
	"github.com/MKhiriev/go-account-keeper/internal/store"
	"github.com/MKhiriev/go-account-keeper/internal/utils"
	"github.com/MKhiriev/go-account-keeper/internal/validators"
	"github.com/MKhiriev/go-account-keeper/models"
)

const ownerID = int64(42)

type accountSvcDeps struct {
	accounts *mock.MockAccountRepository
	upstream *mock.MockUpstreamAdapter
	cipher   *mock.MockCipherService
	hasher   *mock.MockPasswordHasher
}

// newTestAccountSvc creates an accountService wired to mocks, without lazy
// migration.
func newTestAccountSvc(t *testing.T, ctrl *gomock.Controller) (*accountService, accountSvcDeps) {
	t.Helper()
	deps := accountSvcDeps{
		accounts: mock.NewMockAccountRepository(ctrl),
		upstream: mock.NewMockUpstreamAdapter(ctrl),
		cipher:   mock.NewMockCipherService(ctrl),
		hasher:   mock.NewMockPasswordHasher(ctrl),
	}

	svc := NewAccountService(
		deps.accounts,
		deps.upstream,
		deps.cipher,
		deps.hasher,
		nil,
		validators.NewCredentialsValidator(),
		config.App{HashKey: "test-hash-key"},
		logger.Nop(),
	).(*accountService)

	return svc, deps
}

func encryptedFallback() (crypto.Ciphertext, models.SecretMaterial) {
	ct := crypto.Ciphertext{Scheme: crypto.SchemeAESGCMv1, Blob: "c2VhbGVk"}
	return ct, models.EncryptedSecret(ct.String())
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": exp.Unix(),
	}).SignedString([]byte("upstream-secret"))
	require.NoError(t, err)
	return token
}

// ── AuthenticateAndStore ────────────────────────────────────────────────────

func TestAccountService_AuthenticateAndStore_WithoutPassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, deps := newTestAccountSvc(t, ctrl)
	ctx := context.Background()

	gomock.InOrder(
		deps.upstream.EXPECT().Authenticate(ctx, "alice", "pw").Return("tok", nil),
		deps.accounts.EXPECT().UpsertAndActivate(ctx, ownerID, "alice", "tok", models.NoSecret()).Return(nil),
	)

	err := svc.AuthenticateAndStore(ctx, ownerID, models.Credentials{Username: "alice", Password: "pw"})
	require.NoError(t, err)
}

func TestAccountService_AuthenticateAndStore_RemembersEncryptedPassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, deps := newTestAccountSvc(t, ctrl)
	ctx := context.Background()
	ct, secret := encryptedFallback()

	gomock.InOrder(
		deps.cipher.EXPECT().Encrypt("pw").Return(ct, nil),
		deps.upstream.EXPECT().Authenticate(ctx, "alice", "pw").Return("tok", nil),
		deps.accounts.EXPECT().UpsertAndActivate(ctx, ownerID, "alice", "tok", secret).Return(nil),
	)

	err := svc.AuthenticateAndStore(ctx, ownerID, models.Credentials{
		Username:         "alice",
		Password:         "pw",
		RememberPassword: true,
	})
	require.NoError(t, err)
}

func TestAccountService_AuthenticateAndStore_Errors(t *testing.T) {
	tests := []struct {
		name    string
		creds   models.Credentials
		setup   func(d accountSvcDeps)
		wantErr error
	}{
		{
			name:    "invalid input",
			creds:   models.Credentials{Username: "", Password: "pw"},
			setup:   func(d accountSvcDeps) {},
			wantErr: ErrInvalidDataProvided,
		},
		{
			name:  "cipher key not configured",
			creds: models.Credentials{Username: "alice", Password: "pw", RememberPassword: true},
			setup: func(d accountSvcDeps) {
				d.cipher.EXPECT().Encrypt("pw").Return(crypto.Ciphertext{}, crypto.ErrKeyNotConfigured)
			},
			wantErr: crypto.ErrKeyNotConfigured,
		},
		{
			name:  "upstream rejects credentials",
			creds: models.Credentials{Username: "alice", Password: "bad"},
			setup: func(d accountSvcDeps) {
				d.upstream.EXPECT().Authenticate(gomock.Any(), "alice", "bad").
					Return("", adapter.ErrInvalidCredentials)
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name:  "upstream down",
			creds: models.Credentials{Username: "alice", Password: "pw"},
			setup: func(d accountSvcDeps) {
				d.upstream.EXPECT().Authenticate(gomock.Any(), "alice", "pw").
					Return("", &adapter.HTTPError{Status: 502})
			},
			wantErr: ErrUpstreamUnavailable,
		},
		{
			name:  "store unavailable",
			creds: models.Credentials{Username: "alice", Password: "pw"},
			setup: func(d accountSvcDeps) {
				d.upstream.EXPECT().Authenticate(gomock.Any(), "alice", "pw").Return("tok", nil)
				d.accounts.EXPECT().UpsertAndActivate(gomock.Any(), ownerID, "alice", "tok", gomock.Any()).
					Return(store.ErrUnavailable)
			},
			wantErr: store.ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc, deps := newTestAccountSvc(t, ctrl)
			tt.setup(deps)

			err := svc.AuthenticateAndStore(context.Background(), ownerID, tt.creds)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

// ── WithActiveSession ───────────────────────────────────────────────────────

func TestAccountService_WithActiveSession_NoActiveAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, deps := newTestAccountSvc(t, ctrl)

	deps.accounts.EXPECT().GetActive(gomock.Any(), ownerID).Return(models.Identity{}, false, nil)

	err := svc.WithActiveSession(context.Background(), ownerID, func(context.Context, string) error {
		t.Fatal("op must not run")
		return nil
	})
	require.ErrorIs(t, err, ErrNoActiveAccount)
}

func TestAccountService_WithActiveSession_StoreUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, deps := newTestAccountSvc(t, ctrl)

	deps.accounts.EXPECT().GetActive(gomock.Any(), ownerID).Return(models.Identity{}, false, store.ErrUnavailable)

	err := svc.WithActiveSession(context.Background(), ownerID, func(context.Context, string) error { return nil })
	require.ErrorIs(t, err, store.ErrUnavailable)
	require.NotErrorIs(t, err, ErrNoActiveAccount)
}

func TestAccountService_WithActiveSession_ValidToken(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, deps := newTestAccountSvc(t, ctrl)

	deps.accounts.EXPECT().GetActive(gomock.Any(), ownerID).
		Return(models.Identity{OwnerID: ownerID, Label: "alice", SessionToken: "tok", IsActive: true}, true, nil)

	var seen []string
	err := svc.WithActiveSession(context.Background(), ownerID, func(ctx context.Context, token string) error {
		seen = append(seen, token)
		owner, ok := utils.GetOwnerIDFromContext(ctx)
		assert.True(t, ok)
		assert.Equal(t, ownerID, owner)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"tok"}, seen)
}

func TestAccountService_WithActiveSession_OpErrorPassesThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, deps := newTestAccountSvc(t, ctrl)
	_, secret := encryptedFallback()
	opErr := errors.New("schedule not published")

	deps.accounts.EXPECT().GetActive(gomock.Any(), ownerID).
		Return(models.Identity{OwnerID: ownerID, Label: "alice", SessionToken: "tok", Secret: secret}, true, nil)

	calls := 0
	err := svc.WithActiveSession(context.Background(), ownerID, func(context.Context, string) error {
		calls++
		return opErr
	})
	require.ErrorIs(t, err, opErr)
	assert.Equal(t, 1, calls)
}

func TestAccountService_WithActiveSession_SilentReauth(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, deps := newTestAccountSvc(t, ctrl)
	ct, secret := encryptedFallback()

	identity := models.Identity{OwnerID: ownerID, Label: "alice", SessionToken: "stale", Secret: secret, IsActive: true}

	gomock.InOrder(
		deps.accounts.EXPECT().GetActive(gomock.Any(), ownerID).Return(identity, true, nil),
		deps.cipher.EXPECT().Decrypt(ct).Return("pw", nil),
		deps.upstream.EXPECT().Authenticate(gomock.Any(), "alice", "pw").Return("fresh", nil),
		deps.accounts.EXPECT().UpdateToken(gomock.Any(), ownerID, "alice", "fresh").Return(nil),
	)

	var seen []string
	err := svc.WithActiveSession(context.Background(), ownerID, func(_ context.Context, token string) error {
		seen = append(seen, token)
		if token == "stale" {
			return adapter.ErrUnauthenticated
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"stale", "fresh"}, seen)
}

func TestAccountService_WithActiveSession_NoFallbackSecret(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, deps := newTestAccountSvc(t, ctrl)

	deps.accounts.EXPECT().GetActive(gomock.Any(), ownerID).
		Return(models.Identity{OwnerID: ownerID, Label: "alice", SessionToken: "stale", Secret: models.NoSecret()}, true, nil)

	calls := 0
	err := svc.WithActiveSession(context.Background(), ownerID, func(context.Context, string) error {
		calls++
		return adapter.ErrUnauthenticated
	})
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, 1, calls)
}

func TestAccountService_WithActiveSession_ReauthOnlyOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, deps := newTestAccountSvc(t, ctrl)
	ct, secret := encryptedFallback()

	deps.accounts.EXPECT().GetActive(gomock.Any(), ownerID).
		Return(models.Identity{OwnerID: ownerID, Label: "alice", SessionToken: "stale", Secret: secret}, true, nil)
	deps.cipher.EXPECT().Decrypt(ct).Return("pw", nil).Times(1)
	deps.upstream.EXPECT().Authenticate(gomock.Any(), "alice", "pw").Return("fresh", nil).Times(1)
	deps.accounts.EXPECT().UpdateToken(gomock.Any(), ownerID, "alice", "fresh").Return(nil).Times(1)

	calls := 0
	err := svc.WithActiveSession(context.Background(), ownerID, func(context.Context, string) error {
		calls++
		return adapter.ErrUnauthenticated
	})
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, 2, calls)
}

func TestAccountService_WithActiveSession_ReauthFailures(t *testing.T) {
	ct, secret := encryptedFallback()

	tests := []struct {
		name      string
		setup     func(d accountSvcDeps)
		wantErr   error
		wantCause error
	}{
		{
			name: "password changed upstream",
			setup: func(d accountSvcDeps) {
				d.cipher.EXPECT().Decrypt(ct).Return("old-pw", nil)
				d.upstream.EXPECT().Authenticate(gomock.Any(), "alice", "old-pw").Return("", adapter.ErrInvalidCredentials)
			},
			wantErr:   ErrSessionExpired,
			wantCause: ErrInvalidCredentials,
		},
		{
			name: "stored secret tampered",
			setup: func(d accountSvcDeps) {
				d.cipher.EXPECT().Decrypt(ct).Return("", crypto.ErrInvalidOrTampered)
			},
			wantErr: ErrSessionExpired,
		},
		{
			name: "upstream down during re-auth",
			setup: func(d accountSvcDeps) {
				d.cipher.EXPECT().Decrypt(ct).Return("pw", nil)
				d.upstream.EXPECT().Authenticate(gomock.Any(), "alice", "pw").Return("", errors.New("dial tcp: timeout"))
			},
			wantErr:   ErrSessionExpired,
			wantCause: ErrUpstreamUnavailable,
		},
		{
			name: "identity deleted meanwhile",
			setup: func(d accountSvcDeps) {
				d.cipher.EXPECT().Decrypt(ct).Return("pw", nil)
				d.upstream.EXPECT().Authenticate(gomock.Any(), "alice", "pw").Return("fresh", nil)
				d.accounts.EXPECT().UpdateToken(gomock.Any(), ownerID, "alice", "fresh").Return(store.ErrNotFound)
			},
			wantErr: ErrNoActiveAccount,
		},
		{
			name: "token cannot be stored",
			setup: func(d accountSvcDeps) {
				d.cipher.EXPECT().Decrypt(ct).Return("pw", nil)
				d.upstream.EXPECT().Authenticate(gomock.Any(), "alice", "pw").Return("fresh", nil)
				d.accounts.EXPECT().UpdateToken(gomock.Any(), ownerID, "alice", "fresh").Return(store.ErrUnavailable)
			},
			wantErr: store.ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc, deps := newTestAccountSvc(t, ctrl)

			deps.accounts.EXPECT().GetActive(gomock.Any(), ownerID).
				Return(models.Identity{OwnerID: ownerID, Label: "alice", SessionToken: "stale", Secret: secret}, true, nil)
			tt.setup(deps)

			calls := 0
			err := svc.WithActiveSession(context.Background(), ownerID, func(context.Context, string) error {
				calls++
				return adapter.ErrUnauthenticated
			})
			require.ErrorIs(t, err, tt.wantErr)
			if tt.wantCause != nil {
				require.ErrorIs(t, err, tt.wantCause)
			}
			assert.Equal(t, 1, calls)
		})
	}
}

func TestAccountService_WithActiveSession_ExpiredJWTReauthsFirst(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, deps := newTestAccountSvc(t, ctrl)
	ct, secret := encryptedFallback()

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }
	expired := signedToken(t, now.Add(-time.Hour))
	fresh := signedToken(t, now.Add(time.Hour))

	gomock.InOrder(
		deps.accounts.EXPECT().GetActive(gomock.Any(), ownerID).
			Return(models.Identity{OwnerID: ownerID, Label: "alice", SessionToken: expired, Secret: secret}, true, nil),
		deps.cipher.EXPECT().Decrypt(ct).Return("pw", nil),
		deps.upstream.EXPECT().Authenticate(gomock.Any(), "alice", "pw").Return(fresh, nil),
		deps.accounts.EXPECT().UpdateToken(gomock.Any(), ownerID, "alice", fresh).Return(nil),
	)

	var seen []string
	err := svc.WithActiveSession(context.Background(), ownerID, func(_ context.Context, token string) error {
		seen = append(seen, token)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{fresh}, seen)
}

func TestAccountService_WithActiveSession_ExpiredJWTWithoutFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, deps := newTestAccountSvc(t, ctrl)

	now := time.Now()
	svc.now = func() time.Time { return now }

	deps.accounts.EXPECT().GetActive(gomock.Any(), ownerID).
		Return(models.Identity{OwnerID: ownerID, Label: "alice", SessionToken: signedToken(t, now.Add(-time.Minute))}, true, nil)

	err := svc.WithActiveSession(context.Background(), ownerID, func(context.Context, string) error {
		t.Fatal("op must not run with an expired token")
		return nil
	})
	require.ErrorIs(t, err, ErrSessionExpired)
}

func TestAccountService_WithActiveSession_LazyMigration(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, deps := newTestAccountSvc(t, ctrl)
	secrets := mock.NewMockSecretRepository(ctrl)
	svc.migrator = NewMigrationService(secrets, deps.cipher, logger.Nop())

	legacy := models.SecretMaterial{Kind: models.SecretLegacyPlaintext, Value: "pw"}
	ct, encrypted := encryptedFallback()

	gomock.InOrder(
		deps.accounts.EXPECT().GetActive(gomock.Any(), ownerID).
			Return(models.Identity{OwnerID: ownerID, Label: "alice", SessionToken: "stale", Secret: legacy}, true, nil),
		deps.cipher.EXPECT().Encrypt("pw").Return(ct, nil),
		secrets.EXPECT().ReplaceSecret(gomock.Any(), ownerID, "alice", legacy, encrypted).Return(nil),
		// the upgraded secret is what re-auth uses
		deps.cipher.EXPECT().Decrypt(ct).Return("pw", nil),
		deps.upstream.EXPECT().Authenticate(gomock.Any(), "alice", "pw").Return("fresh", nil),
		deps.accounts.EXPECT().UpdateToken(gomock.Any(), ownerID, "alice", "fresh").Return(nil),
	)

	err := svc.WithActiveSession(context.Background(), ownerID, func(_ context.Context, token string) error {
		if token == "stale" {
			return adapter.ErrUnauthenticated
		}
		return nil
	})
	require.NoError(t, err)
}

func TestAccountService_GetActive_LazyMigrationFailureKeepsIdentity(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, deps := newTestAccountSvc(t, ctrl)
	secrets := mock.NewMockSecretRepository(ctrl)
	svc.migrator = NewMigrationService(secrets, deps.cipher, logger.Nop())

	legacy := models.SecretMaterial{Kind: models.SecretLegacyPlaintext, Value: "pw"}
	identity := models.Identity{OwnerID: ownerID, Label: "alice", SessionToken: "tok", Secret: legacy, IsActive: true}

	deps.accounts.EXPECT().GetActive(gomock.Any(), ownerID).Return(identity, true, nil)
	deps.cipher.EXPECT().Encrypt("pw").Return(crypto.Ciphertext{}, crypto.ErrKeyNotConfigured)

	got, ok, err := svc.GetActive(context.Background(), ownerID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, identity, got)
}

// ── pass-throughs ───────────────────────────────────────────────────────────

func TestAccountService_PassThroughs(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, deps := newTestAccountSvc(t, ctrl)
	ctx := context.Background()

	summaries := []models.AccountSummary{{Label: "alice", IsActive: true}}
	deps.accounts.EXPECT().List(ctx, ownerID).Return(summaries, nil)
	deps.accounts.EXPECT().SetActive(ctx, ownerID, "ghost").Return(store.ErrNotFound)
	deps.accounts.EXPECT().Delete(ctx, ownerID, "alice").Return(nil)
	deps.accounts.EXPECT().DeleteAll(ctx, ownerID).Return(nil)
	deps.accounts.EXPECT().HasAny(ctx, ownerID).Return(true, nil)
	deps.accounts.EXPECT().GetActive(ctx, ownerID).Return(models.Identity{}, false, nil)

	got, err := svc.List(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, summaries, got)

	require.ErrorIs(t, svc.SetActive(ctx, ownerID, "ghost"), store.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, ownerID, "alice"))
	require.NoError(t, svc.DeleteAll(ctx, ownerID))

	has, err := svc.HasAny(ctx, ownerID)
	require.NoError(t, err)
	assert.True(t, has)

	_, ok, err := svc.GetActive(ctx, ownerID)
	require.NoError(t, err)
	assert.False(t, ok)
}

// ── VerifyLegacyPassword ────────────────────────────────────────────────────

func TestAccountService_VerifyLegacyPassword(t *testing.T) {
	ct, encrypted := encryptedFallback()

	tests := []struct {
		name     string
		secret   models.SecretMaterial
		password string
		setup    func(d accountSvcDeps)
		want     bool
	}{
		{
			name:     "legacy hash",
			secret:   models.SecretMaterial{Kind: models.SecretLegacyHash, Value: "$2b$10$hash"},
			password: "pw",
			setup: func(d accountSvcDeps) {
				d.hasher.EXPECT().Verify("pw", "$2b$10$hash").Return(true, nil)
			},
			want: true,
		},
		{
			name:     "legacy plaintext match",
			secret:   models.SecretMaterial{Kind: models.SecretLegacyPlaintext, Value: "pw"},
			password: "pw",
			setup:    func(d accountSvcDeps) {},
			want:     true,
		},
		{
			name:     "legacy plaintext mismatch",
			secret:   models.SecretMaterial{Kind: models.SecretLegacyPlaintext, Value: "pw"},
			password: "other",
			setup:    func(d accountSvcDeps) {},
			want:     false,
		},
		{
			name:     "encrypted",
			secret:   encrypted,
			password: "pw",
			setup: func(d accountSvcDeps) {
				d.cipher.EXPECT().Decrypt(ct).Return("pw", nil)
			},
			want: true,
		},
		{
			name:     "no secret",
			secret:   models.NoSecret(),
			password: "pw",
			setup:    func(d accountSvcDeps) {},
			want:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc, deps := newTestAccountSvc(t, ctrl)

			deps.accounts.EXPECT().Get(gomock.Any(), ownerID, "alice").
				Return(models.Identity{OwnerID: ownerID, Label: "alice", Secret: tt.secret}, true, nil)
			tt.setup(deps)

			got, err := svc.VerifyLegacyPassword(context.Background(), ownerID, "alice", tt.password)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAccountService_VerifyLegacyPassword_UnknownLabel(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, deps := newTestAccountSvc(t, ctrl)

	deps.accounts.EXPECT().Get(gomock.Any(), ownerID, "ghost").Return(models.Identity{}, false, nil)

	ok, err := svc.VerifyLegacyPassword(context.Background(), ownerID, "ghost", "pw")
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.False(t, ok)
}

func TestAccountService_VerifyLegacyPassword_StoreUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, deps := newTestAccountSvc(t, ctrl)

	deps.accounts.EXPECT().Get(gomock.Any(), ownerID, "alice").Return(models.Identity{}, false, store.ErrUnavailable)

	_, err := svc.VerifyLegacyPassword(context.Background(), ownerID, "alice", "pw")
	require.ErrorIs(t, err, store.ErrUnavailable)
}
