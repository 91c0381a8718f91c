// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

// Credentials are the upstream login and password entered by the owner in the
// chat front-end.
type Credentials struct {
	// Username is the upstream login. It becomes the identity label.
	Username string `json:"username" validate:"required,max=256"`

	// Password is the upstream password. It is kept only in memory unless
	// RememberPassword is set, in which case it is stored encrypted.
	Password string `json:"-" validate:"required"`

	// RememberPassword enables silent re-authentication when the session
	// token expires.
	RememberPassword bool `json:"remember_password"`
}
