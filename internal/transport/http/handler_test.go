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

package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wso2-open-operations/qr-builder/internal/auth"
	"github.com/wso2-open-operations/qr-builder/internal/config"
	"github.com/wso2-open-operations/qr-builder/internal/qr"
)

const testSecret = "webhook-test-secret"

// tierValidator maps API keys to fixed validation results.
type tierValidator struct {
	keys map[string]*auth.Validation
}

func (v *tierValidator) Validate(ctx context.Context, apiKey string) (*auth.Validation, error) {
	if result, ok := v.keys[apiKey]; ok {
		return result, nil
	}
	return &auth.Validation{Valid: false}, nil
}

type testEnv struct {
	router http.Handler
	store  *auth.SessionStore
}

func newTestEnv(t *testing.T, authEnabled bool) *testEnv {
	t.Helper()

	cfg := &config.Config{
		Port:           "8080",
		Environment:    "test",
		AuthEnabled:    authEnabled,
		BackendSecret:  testSecret,
		AllowedOrigins: []string{"*"},
		MaxUploadBytes: 10 << 20,
		MinQRSize:      21,
		MaxQRSize:      4000,
		DefaultSize:    300,
		MaxDataLength:  4296,
	}

	log := zap.NewNop()
	svc := qr.NewService(log, cfg.MinQRSize, cfg.MaxQRSize, cfg.MaxDataLength)
	store := auth.NewSessionStore(auth.DefaultTierLimits)
	validator := &tierValidator{keys: map[string]*auth.Validation{
		"free-key":     {Valid: true, UserID: "user-free", Tier: "free"},
		"pro-key":      {Valid: true, UserID: "user-pro", Tier: "pro"},
		"business-key": {Valid: true, UserID: "user-biz", Tier: "business"},
	}}
	resolver := auth.NewResolver(store, validator, testSecret, authEnabled, log)
	handler := NewHandler(svc, store, resolver, log, cfg)

	return &testEnv{
		router: NewRouter(handler, cfg, log),
		store:  store,
	}
}

func (env *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	env.router.ServeHTTP(rec, req)
	return rec
}

func postForm(path, apiKey string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if apiKey != "" {
		req.Header.Set(APIKeyHeader, apiKey)
	}
	return req
}

func decodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, false)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeJSON(t, rec)["status"])
}

func TestTiersEndpoint(t *testing.T) {
	env := newTestEnv(t, false)
	rec := env.do(httptest.NewRequest(http.MethodGet, "/tiers", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	tiers := decodeJSON(t, rec)["tiers"].([]any)
	require.Len(t, tiers, 3)
	first := tiers[0].(map[string]any)
	assert.Equal(t, "free", first["tier"])
}

func TestGenerateBasicSuccess(t *testing.T) {
	env := newTestEnv(t, false)

	rec := env.do(postForm("/generate/basic", "", url.Values{"data": {"https://example.com"}}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Body.Bytes())

	// A successful render lands in the usage log.
	assert.Equal(t, 1, env.store.UsageLogSize())
}

func TestGenerateBasicInvalidKey(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(postForm("/generate/basic", "bogus-key", url.Values{"data": {"x"}}))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	body := decodeJSON(t, rec)
	assert.Equal(t, auth.CodeInvalidAPIKey, body["code"])

	// A rejected request never appears in the usage log.
	assert.Zero(t, env.store.UsageLogSize())
}

func TestGenerateBasicRateLimit(t *testing.T) {
	env := newTestEnv(t, true)
	form := url.Values{"data": {"rate limit me"}}

	// Free tier allows 5 per minute.
	for i := 0; i < 5; i++ {
		rec := env.do(postForm("/generate/basic", "free-key", form))
		require.Equal(t, http.StatusOK, rec.Code, "request %d: %s", i+1, rec.Body.String())
	}

	rec := env.do(postForm("/generate/basic", "free-key", form))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Equal(t, "5", rec.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, auth.CodeMinuteLimitExceeded, decodeJSON(t, rec)["code"])
}

func TestGenerateLogoForbiddenOnFreeTier(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(postForm("/generate/logo", "free-key", url.Values{"data": {"x"}}))
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, auth.CodeStyleNotAllowed, decodeJSON(t, rec)["code"])
}

func TestGenerateBasicCustomColorsDenied(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(postForm("/generate/basic", "free-key", url.Values{
		"data":       {"x"},
		"fill_color": {"#FF0000"},
	}))
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, auth.CodeCustomColorsDenied, decodeJSON(t, rec)["code"])
}

func TestGenerateBasicSizeExceedsTier(t *testing.T) {
	env := newTestEnv(t, true)

	rec := env.do(postForm("/generate/basic", "free-key", url.Values{
		"data": {"x"},
		"size": {"1000"},
	}))
	require.Equal(t, http.StatusForbidden, rec.Code)
	body := decodeJSON(t, rec)
	assert.Equal(t, auth.CodeSizeExceedsTier, body["code"])
	assert.Equal(t, float64(500), body["limit"])
}

func TestBatchEmbedLimitExceeded(t *testing.T) {
	env := newTestEnv(t, true)

	// Pro tier batch limit is 10; send 11 backgrounds.
	req := multipartBatchRequest(t, "pro-key", 11)
	rec := env.do(req)
	require.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())
	body := decodeJSON(t, rec)
	assert.Equal(t, auth.CodeBatchLimitExceeded, body["code"])
	assert.Equal(t, float64(10), body["limit"])
}

func TestBatchEmbedSuccess(t *testing.T) {
	env := newTestEnv(t, true)

	req := multipartBatchRequest(t, "business-key", 2)
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
}

func TestAccountEndpoint(t *testing.T) {
	env := newTestEnv(t, true)

	// Account reads never consume quota.
	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/account", nil)
		req.Header.Set(APIKeyHeader, "free-key")
		rec := env.do(req)
		require.Equal(t, http.StatusOK, rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/account", nil)
	req.Header.Set(APIKeyHeader, "free-key")
	rec := env.do(req)
	body := decodeJSON(t, rec)
	session := body["session"].(map[string]any)
	assert.Equal(t, "free", session["tier"])
	assert.Equal(t, float64(0), session["requests_today"])
}

// testPNG renders a small solid background suitable for embedding.
func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 200))
	for y := 0; y < 200; y++ {
		for x := 0; x < 200; x++ {
			img.Set(x, y, color.RGBA{0x33, 0x66, 0x99, 0xff})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// multipartBatchRequest builds a /batch/embed request with n tiny PNG
// backgrounds.
func multipartBatchRequest(t *testing.T, apiKey string, n int) *http.Request {
	t.Helper()

	background := testPNG(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("data", "https://example.com"))
	for i := 0; i < n; i++ {
		fw, err := mw.CreateFormFile("backgrounds", fmt.Sprintf("bg%d.png", i))
		require.NoError(t, err)
		_, err = fw.Write(background)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/batch/embed", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set(APIKeyHeader, apiKey)
	return req
}
