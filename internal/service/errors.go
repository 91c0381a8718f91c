package service

import "errors"

var (
	ErrInvalidDataProvided = errors.New("invalid data provided")

	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	ErrSessionExpired      = errors.New("session expired")
	ErrNoActiveAccount     = errors.New("no active account")

	ErrMigrationInProgress = errors.New("secret migration already in progress")
	ErrUnsupportedScheme   = errors.New("unsupported cipher scheme")
	ErrUnknownSecretKind   = errors.New("unknown secret kind")
)
