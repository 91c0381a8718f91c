// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewHTTPClient_NotNil(t *testing.T) {
	client := NewHTTPClient("http://localhost", time.Second)

	if client == nil {
		t.Fatal("expected non-nil *HTTPClient, got nil")
	}
	if client.Client == nil {
		t.Fatal("expected embedded *resty.Client to be non-nil, got nil")
	}
}

func TestNewHTTPClient_Independence(t *testing.T) {
	client1 := NewHTTPClient("http://localhost", time.Second)
	client2 := NewHTTPClient("http://localhost", time.Second)

	if client1.Client == client2.Client {
		t.Fatal("expected independent *resty.Client instances")
	}
}

func TestNewHTTPClient_Settings(t *testing.T) {
	client := NewHTTPClient("http://upstream.local", 7*time.Second)

	if client.BaseURL != "http://upstream.local" {
		t.Errorf("expected base URL to be set, got %q", client.BaseURL)
	}
	if client.GetClient().Timeout != 7*time.Second {
		t.Errorf("expected timeout 7s, got %v", client.GetClient().Timeout)
	}
}

func TestNewHTTPClient_SendsDefaultHeaders(t *testing.T) {
	var gotOrigin, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotOrigin = r.Header.Get("Origin")
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, time.Second)
	if _, err := client.R().Get("/ping"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotOrigin != defaultOrigin {
		t.Errorf("expected Origin %q, got %q", defaultOrigin, gotOrigin)
	}
	if gotUA != defaultUserAgent {
		t.Errorf("expected User-Agent %q, got %q", defaultUserAgent, gotUA)
	}
}
