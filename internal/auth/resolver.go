// Copyright (c) 2026 WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package auth

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// AdminKeyPrefix marks API keys issued to backend services. Admin keys carry
// a truncated HMAC signature and are verified locally without any network
// call.
const AdminKeyPrefix = "qrb_admin_"

const adminSigLen = 16

// sentinelKey keys the single shared session used when authentication is
// disabled process-wide (local development).
const sentinelKey = "dev_anonymous"

// Validation is the external authority's answer for one API key.
type Validation struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id"`
	Tier   string `json:"tier"`
	Email  string `json:"email"`
}

// KeyValidator validates API keys against an external authority.
type KeyValidator interface {
	Validate(ctx context.Context, apiKey string) (*Validation, error)
}

// BackendValidator validates API keys against the subscription backend over
// HTTP with a bounded timeout.
type BackendValidator struct {
	baseURL string
	secret  string
	client  *http.Client
}

// NewBackendValidator creates a validator for the given backend base URL.
func NewBackendValidator(baseURL, secret string, timeout time.Duration) *BackendValidator {
	return &BackendValidator{
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		client:  &http.Client{Timeout: timeout},
	}
}

// Validate posts the key to the backend's validate-key endpoint. Any
// transport failure, timeout, or non-200 status is returned as an error; the
// caller treats all of them uniformly as unresolvable.
func (v *BackendValidator) Validate(ctx context.Context, apiKey string) (*Validation, error) {
	payload, err := json.Marshal(map[string]string{"api_key": apiKey})
	if err != nil {
		return nil, fmt.Errorf("failed to encode validation request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		v.baseURL+"/api/qr-builder/validate-key", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build validation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+v.secret)

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("backend validation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("backend validation returned status %d", resp.StatusCode)
	}

	var validation Validation
	if err := json.NewDecoder(resp.Body).Decode(&validation); err != nil {
		return nil, fmt.Errorf("failed to decode validation response: %w", err)
	}
	return &validation, nil
}

// Resolver turns an inbound credential (or its absence) into a Session.
type Resolver struct {
	store       *SessionStore
	validator   KeyValidator
	secret      string
	authEnabled bool
	logger      *zap.Logger
}

// NewResolver creates a resolver bound to the given store. The validator is
// only consulted for non-admin keys when authentication is enabled.
func NewResolver(store *SessionStore, validator KeyValidator, secret string, authEnabled bool, logger *zap.Logger) *Resolver {
	return &Resolver{
		store:       store,
		validator:   validator,
		secret:      secret,
		authEnabled: authEnabled,
		logger:      logger,
	}
}

// Resolve produces the session for a request. No session state is mutated
// until resolution succeeds, so a request cancelled during external
// validation leaves no partial quota increment behind.
//
// Resolution order:
//  1. auth disabled: shared business-tier dev session, any credential
//     accepted without a network call
//  2. no key: anonymous free-tier session derived from the caller's address
//  3. admin-prefixed key: local HMAC verification, admin tier, no network
//  4. anything else: external backend validation; unresolvable means
//     unauthenticated, never a silent downgrade to free tier
func (r *Resolver) Resolve(ctx context.Context, apiKey, remoteAddr string) (*Session, error) {
	if !r.authEnabled {
		return r.store.GetOrCreate("anonymous", TierBusiness, sentinelKey, ""), nil
	}

	if apiKey == "" {
		ip := clientIP(remoteAddr)
		anonKey := "anon_" + shortHash(ip, 8)
		return r.store.GetOrCreate("anonymous_"+ip, TierFree, anonKey, ""), nil
	}

	if strings.HasPrefix(apiKey, AdminKeyPrefix) {
		if verifyAdminKey(apiKey, r.secret) {
			return r.store.GetOrCreate("admin", TierAdmin, apiKey, ""), nil
		}
		return nil, NewUnauthenticated(CodeInvalidAPIKey, "invalid API key")
	}

	validation, err := r.validator.Validate(ctx, apiKey)
	if err != nil {
		// Upstream outage is logged distinctly for operators but surfaces to
		// the caller as plain unauthenticated.
		r.logger.Warn("Backend key validation unavailable", zap.Error(err))
		return nil, NewUnauthenticated(CodeInvalidAPIKey, "unable to validate API key")
	}
	if !validation.Valid {
		return nil, NewUnauthenticated(CodeInvalidAPIKey, "invalid API key")
	}

	tier, err := ParseTier(validation.Tier)
	if err != nil {
		r.logger.Warn("Backend returned unknown tier",
			zap.String("tier", validation.Tier),
			zap.String("user_id", validation.UserID),
		)
		return nil, NewUnauthenticated(CodeUnknownTier, "backend returned an unknown tier")
	}

	return r.store.GetOrCreate(validation.UserID, tier, apiKey, validation.Email), nil
}

// MintAdminKey derives a signed admin key for the given identifier. Used by
// backend tooling to issue keys that the service can verify offline.
func MintAdminKey(secret, id string) string {
	body := AdminKeyPrefix + id
	return body + "_" + adminSignature(secret, body)
}

// verifyAdminKey checks the trailing signature of an admin-prefixed key using
// a keyed hash comparison.
func verifyAdminKey(apiKey, secret string) bool {
	idx := strings.LastIndex(apiKey, "_")
	if idx <= len(AdminKeyPrefix) {
		return false
	}
	body, sig := apiKey[:idx], apiKey[idx+1:]
	if len(sig) != adminSigLen {
		return false
	}
	expected := adminSignature(secret, body)
	return hmac.Equal([]byte(sig), []byte(expected))
}

// adminSignature computes the fixed-width truncated HMAC-SHA256 of a key body.
func adminSignature(secret, body string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	return hex.EncodeToString(mac.Sum(nil))[:adminSigLen]
}

// shortHash returns the first n hex characters of the SHA-256 of s, giving a
// stable fixed-width pseudo-identity for unauthenticated callers.
func shortHash(s string, n int) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:n]
}

// clientIP strips the port from a remote address when present.
func clientIP(remoteAddr string) string {
	if host, _, err := net.SplitHostPort(remoteAddr); err == nil {
		return host
	}
	return remoteAddr
}
