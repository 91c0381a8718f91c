// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "net/url"

// UpstreamRequest is an authenticated request to the upstream journal API.
// The bearer token is attached by the adapter, never by the caller.
type UpstreamRequest struct {
	// Method is the HTTP method; GET when empty.
	Method string

	// Path is the API path relative to the adapter base URL,
	// e.g. "/api/v2/schedule/operations/get-by-date-range".
	Path string

	// Query holds URL query parameters.
	Query url.Values

	// Body is serialised as JSON when non-nil.
	Body any
}

// UpstreamResponse is the raw successful answer of the upstream API.
type UpstreamResponse struct {
	StatusCode int
	Body       []byte
}

// LoginRequest is the payload of the upstream login endpoint.
type LoginRequest struct {
	ApplicationKey string `json:"application_key"`
	IDCity         *int   `json:"id_city"`
	Password       string `json:"password"`
	Username       string `json:"username"`
}

// LoginResponse is the subset of the upstream login answer the store needs.
// Depending on the API version the token comes either as access_token or
// as token.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Token       string `json:"token"`
}

// SessionToken returns whichever token field the upstream filled in.
func (r LoginResponse) SessionToken() string {
	if r.AccessToken != "" {
		return r.AccessToken
	}
	return r.Token
}
