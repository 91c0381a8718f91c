// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package adapter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/MKhiriev/go-account-keeper/internal/config"
	"github.com/MKhiriev/go-account-keeper/internal/logger"
	"github.com/MKhiriev/go-account-keeper/internal/utils"
	"github.com/MKhiriev/go-account-keeper/models"
)

const loginPath = "/api/v2/auth/login"

type httpUpstreamAdapter struct {
	client *utils.HTTPClient

	applicationKey string
	hashKey        string

	logger *logger.Logger
}

// NewHTTPUpstreamAdapter constructs the resty implementation of
// [UpstreamAdapter] for the journal API at adapterCfg.HTTPAddress.
//
// hashKey keys the token fingerprints written to debug logs.
func NewHTTPUpstreamAdapter(adapterCfg config.Adapter, hashKey string, log *logger.Logger) (UpstreamAdapter, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAddress, err)
	}

	return &httpUpstreamAdapter{
		client:         utils.NewHTTPClient(baseURL, adapterCfg.RequestTimeout),
		applicationKey: adapterCfg.ApplicationKey,
		hashKey:        hashKey,
		logger:         log,
	}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// Authenticate implements [UpstreamAdapter]. It POSTs the credentials to
// the login endpoint and returns access_token, falling back to token.
func (h *httpUpstreamAdapter) Authenticate(ctx context.Context, username, password string) (string, error) {
	var loginResp models.LoginResponse

	resp, err := h.client.R().
		SetContext(ctx).
		SetBody(models.LoginRequest{
			ApplicationKey: h.applicationKey,
			Username:       username,
			Password:       password,
		}).
		SetResult(&loginResp).
		Post(loginPath)
	if err != nil {
		return "", fmt.Errorf("login request: %w", err)
	}
	if err = mapLoginError(resp); err != nil {
		logger.FromContext(ctx).Debug().
			Str("func", "httpUpstreamAdapter.Authenticate").
			Int("status", resp.StatusCode()).
			Msg("upstream rejected login")
		return "", err
	}

	token := loginResp.SessionToken()
	if token == "" {
		return "", ErrMissingToken
	}

	logger.FromContext(ctx).Debug().
		Str("func", "httpUpstreamAdapter.Authenticate").
		Str("token_fp", utils.TokenFingerprint(token, h.hashKey)).
		Msg("upstream issued session token")

	return token, nil
}

// Call implements [UpstreamAdapter].
func (h *httpUpstreamAdapter) Call(ctx context.Context, token string, req models.UpstreamRequest) (models.UpstreamResponse, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	r := h.client.R().
		SetContext(ctx).
		SetAuthToken(token)
	if len(req.Query) > 0 {
		r.SetQueryParamsFromValues(req.Query)
	}
	if req.Body != nil {
		r.SetBody(req.Body)
	}

	log := h.logger
	if ownerID, ok := utils.GetOwnerIDFromContext(ctx); ok {
		log = log.WithOwner(ownerID)
	}

	resp, err := r.Execute(method, req.Path)
	if err != nil {
		log.Err(err).Str("func", "httpUpstreamAdapter.Call").Str("path", req.Path).Msg("upstream request failed")
		return models.UpstreamResponse{}, fmt.Errorf("%s %s request: %w", method, req.Path, err)
	}
	if err = mapCallError(resp); err != nil {
		log.Debug().Err(err).Str("func", "httpUpstreamAdapter.Call").Str("path", req.Path).Msg("upstream rejected call")
		return models.UpstreamResponse{}, err
	}

	return models.UpstreamResponse{
		StatusCode: resp.StatusCode(),
		Body:       resp.Body(),
	}, nil
}
