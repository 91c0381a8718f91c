// Package utils provides general-purpose helpers used across the account
// keeper: context keys, token fingerprinting, JWT inspection, the upstream
// HTTP client, run identifiers, and per-owner locking.
package utils

import (
	"context"
)

// contextKey is a private type for context keys.
// Using a dedicated type instead of a plain string prevents key collisions
// with other packages that may use string-based keys in the context.
type contextKey string

// String returns the string representation of the context key.
// Implements the fmt.Stringer interface.
func (c contextKey) String() string {
	return string(c)
}

// OwnerIDCtxKey is the key used to store the chat owner identifier in the
// context passed to session operations.
var OwnerIDCtxKey = contextKey("ownerID")

// ContextWithOwnerID returns a copy of ctx carrying ownerID.
func ContextWithOwnerID(ctx context.Context, ownerID int64) context.Context {
	return context.WithValue(ctx, OwnerIDCtxKey, ownerID)
}

// GetOwnerIDFromContext retrieves the owner identifier from the context.
//
// Returns the owner ID and an ok flag:
//   - ok == true  — value is found and has the correct int64 type
//   - ok == false — value is missing or has an unexpected type
func GetOwnerIDFromContext(ctx context.Context) (int64, bool) {
	ownerID, ok := ctx.Value(OwnerIDCtxKey).(int64)
	return ownerID, ok
}
