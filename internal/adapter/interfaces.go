// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter talks to the upstream journal API on behalf of the
// account keeper.
//
// [UpstreamAdapter] exposes the two operations the session façade needs:
// exchanging credentials for a bearer token and performing an authenticated
// call with such a token. HTTP status codes are mapped by errors_mapper.go
// onto the sentinel values of this package, so callers can use [errors.Is]
// (e.g. [ErrInvalidCredentials] for a rejected login, [ErrUnauthenticated]
// for an expired token).
package adapter

import (
	"context"

	"github.com/MKhiriev/go-account-keeper/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/adapter_mock.go -package=mock

// UpstreamAdapter is the client of the upstream service whose identities the
// keeper stores.
type UpstreamAdapter interface {
	// Authenticate exchanges a username and password for an opaque session
	// token. Returns [ErrInvalidCredentials] when the upstream rejects them
	// and an [*HTTPError] for any other non-2xx answer.
	Authenticate(ctx context.Context, username, password string) (string, error)

	// Call performs req with token as bearer. Returns [ErrUnauthenticated]
	// when the upstream no longer accepts the token.
	Call(ctx context.Context, token string, req models.UpstreamRequest) (models.UpstreamResponse, error)
}
