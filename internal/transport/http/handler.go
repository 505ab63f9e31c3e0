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
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/wso2-open-operations/qr-builder/internal/auth"
	"github.com/wso2-open-operations/qr-builder/internal/config"
	"github.com/wso2-open-operations/qr-builder/internal/metrics"
	"github.com/wso2-open-operations/qr-builder/internal/qr"
)

// APIKeyHeader carries the caller's API key.
const APIKeyHeader = "X-API-Key"

// Handler serves the QR generation API.
type Handler struct {
	svc      *qr.Service
	store    *auth.SessionStore
	resolver *auth.Resolver
	logger   *zap.Logger
	cfg      *config.Config
}

// NewHandler creates the HTTP handler set for the service.
func NewHandler(svc *qr.Service, store *auth.SessionStore, resolver *auth.Resolver, logger *zap.Logger, cfg *config.Config) *Handler {
	return &Handler{
		svc:      svc,
		store:    store,
		resolver: resolver,
		logger:   logger,
		cfg:      cfg,
	}
}

// HealthCheck handles GET /health for liveness probes.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Tiers handles GET /tiers with the public pricing table.
func (h *Handler) Tiers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tiers": auth.AllTiersInfo(h.store.TierTable()),
	})
}

// Account handles GET /account: the resolved session's tier, limits, and
// usage statistics. Reading account state is not billable and consumes no
// quota.
func (h *Handler) Account(w http.ResponseWriter, r *http.Request) {
	session, authErr := h.resolve(r)
	if authErr != nil {
		writeAuthError(w, authErr)
		return
	}

	snapshot := session.Snapshot()
	writeJSON(w, http.StatusOK, map[string]any{
		"session": snapshot,
		"limits":  auth.Info(session.Tier(), session.Limits()),
		"stats":   h.store.StatsFor(snapshot.UserID),
	})
}

// GenerateBasic handles POST /generate/basic.
func (h *Handler) GenerateBasic(w http.ResponseWriter, r *http.Request) {
	session, authErr := h.authorize(r, auth.StyleBasic)
	if authErr != nil {
		writeAuthError(w, authErr)
		return
	}

	data := r.FormValue("data")
	fillColor := formValue(r, "fill_color", "black")
	backColor := formValue(r, "back_color", "white")

	size, err := h.parseSize(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_size", err.Error())
		return
	}

	if gateErr := firstGateError(session.CheckSize(size), session.CheckCustomColors(fillColor, backColor)); gateErr != nil {
		writeAuthError(w, gateErr)
		return
	}

	png, err := h.svc.Generate(data, size, fillColor, backColor)
	h.logUsage(session, auth.StyleBasic, err == nil, map[string]string{"size": strconv.Itoa(size)})
	if err != nil {
		writeError(w, http.StatusBadRequest, "generation_failed", err.Error())
		return
	}

	servePNG(w, png)
}

// GenerateText handles POST /generate/text.
func (h *Handler) GenerateText(w http.ResponseWriter, r *http.Request) {
	session, authErr := h.authorize(r, auth.StyleText)
	if authErr != nil {
		writeAuthError(w, authErr)
		return
	}

	data := r.FormValue("data")
	text := r.FormValue("text")
	fontColor := formValue(r, "font_color", "black")

	size, err := h.parseSize(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_size", err.Error())
		return
	}

	if gateErr := firstGateError(session.CheckSize(size), session.CheckCustomColors(fontColor)); gateErr != nil {
		writeAuthError(w, gateErr)
		return
	}

	png, err := h.svc.GenerateWithText(data, text, size, fontColor)
	h.logUsage(session, auth.StyleText, err == nil, map[string]string{"size": strconv.Itoa(size)})
	if err != nil {
		writeError(w, http.StatusBadRequest, "generation_failed", err.Error())
		return
	}

	servePNG(w, png)
}

// GenerateLogo handles POST /generate/logo (multipart, logo file upload).
func (h *Handler) GenerateLogo(w http.ResponseWriter, r *http.Request) {
	session, authErr := h.authorize(r, auth.StyleLogo)
	if authErr != nil {
		writeAuthError(w, authErr)
		return
	}

	if err := h.parseMultipart(w, r); err != nil {
		writeUploadError(w, err)
		return
	}

	data := r.FormValue("data")
	logoScale := parseFloat(r.FormValue("logo_scale"), 0.25)

	size, err := h.parseSize(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_size", err.Error())
		return
	}
	if gateErr := session.CheckSize(size); gateErr != nil {
		writeAuthError(w, gateErr)
		return
	}

	logo, err := readUpload(r, "logo")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing_upload", err.Error())
		return
	}

	png, err := h.svc.GenerateWithLogo(data, logo, size, logoScale)
	h.logUsage(session, auth.StyleLogo, err == nil, map[string]string{"size": strconv.Itoa(size)})
	if err != nil {
		writeError(w, http.StatusBadRequest, "generation_failed", err.Error())
		return
	}

	servePNG(w, png)
}

// Embed handles POST /embed (multipart, background file upload).
func (h *Handler) Embed(w http.ResponseWriter, r *http.Request) {
	session, authErr := h.authorize(r, auth.StyleEmbed)
	if authErr != nil {
		writeAuthError(w, authErr)
		return
	}

	if err := h.parseMultipart(w, r); err != nil {
		writeUploadError(w, err)
		return
	}

	data := r.FormValue("data")
	opts := h.embedOptions(r)

	if gateErr := session.CheckCustomColors(opts.FillColor, opts.BackColor); gateErr != nil {
		writeAuthError(w, gateErr)
		return
	}

	background, err := readUpload(r, "background")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing_upload", err.Error())
		return
	}

	png, err := h.svc.Embed(background, data, opts)
	h.logUsage(session, auth.StyleEmbed, err == nil, nil)
	if err != nil {
		writeError(w, http.StatusBadRequest, "generation_failed", err.Error())
		return
	}

	servePNG(w, png)
}

// BatchEmbed handles POST /batch/embed: the same QR embedded into multiple
// uploaded backgrounds, returned as a ZIP archive.
func (h *Handler) BatchEmbed(w http.ResponseWriter, r *http.Request) {
	session, authErr := h.authorize(r, auth.StyleEmbed)
	if authErr != nil {
		writeAuthError(w, authErr)
		return
	}

	if err := h.parseMultipart(w, r); err != nil {
		writeUploadError(w, err)
		return
	}

	data := r.FormValue("data")
	opts := h.embedOptions(r)

	if gateErr := session.CheckCustomColors(opts.FillColor, opts.BackColor); gateErr != nil {
		writeAuthError(w, gateErr)
		return
	}

	files := uploadHeaders(r, "backgrounds")
	if gateErr := session.CheckBatchSize(len(files)); gateErr != nil {
		writeAuthError(w, gateErr)
		return
	}

	items := make([]qr.BatchItem, 0, len(files))
	for _, fh := range files {
		content, err := readUploadHeader(fh)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_upload", err.Error())
			return
		}
		items = append(items, qr.BatchItem{Name: fh.Filename, Background: content})
	}

	archive, err := h.svc.EmbedBatch(r.Context(), items, data, opts)
	h.logUsage(session, auth.StyleEmbed, err == nil, map[string]string{
		"batch_size": strconv.Itoa(len(items)),
	})
	if err != nil {
		writeError(w, http.StatusBadRequest, "generation_failed", err.Error())
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="batch_qr.zip"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// resolve turns the request credential into a session without consuming
// quota.
func (h *Handler) resolve(r *http.Request) (*auth.Session, *auth.Error) {
	session, err := h.resolver.Resolve(r.Context(), r.Header.Get(APIKeyHeader), r.RemoteAddr)
	if err != nil {
		var authErr *auth.Error
		if errors.As(err, &authErr) {
			return nil, authErr
		}
		return nil, auth.NewUnauthenticated(auth.CodeInvalidAPIKey, "unable to resolve credentials")
	}
	return session, nil
}

// authorize resolves the caller and runs quota admission. Feature gates run
// after admission in the individual handlers, so a quota-rejected request
// never reaches them.
func (h *Handler) authorize(r *http.Request, style string) (*auth.Session, *auth.Error) {
	session, authErr := h.resolve(r)
	if authErr != nil {
		return nil, authErr
	}

	result := h.store.Admit(session)
	if !result.Allowed {
		return nil, auth.NewQuotaExceeded(result.Code, result.Reason, result.Limit)
	}

	if gateErr := session.CheckStyle(style); gateErr != nil {
		return nil, gateErr
	}
	return session, nil
}

// logUsage appends a usage record. Accounting is best-effort and never
// changes the response already decided for the caller.
func (h *Handler) logUsage(session *auth.Session, style string, success bool, metadata map[string]string) {
	h.store.LogUsage(session.Snapshot().UserID, style, success, metadata)
	metrics.SetUsageLogSize(h.store.UsageLogSize())
}

func (h *Handler) parseSize(r *http.Request) (int, error) {
	raw := r.FormValue("size")
	if raw == "" {
		return h.cfg.DefaultSize, nil
	}
	size, err := strconv.Atoi(raw)
	if err != nil || size < h.cfg.MinQRSize || size > h.cfg.MaxQRSize {
		return 0, fmt.Errorf("invalid size parameter: must be between %d and %d", h.cfg.MinQRSize, h.cfg.MaxQRSize)
	}
	return size, nil
}

func (h *Handler) embedOptions(r *http.Request) qr.EmbedOptions {
	opts := qr.DefaultEmbedOptions()
	if v := r.FormValue("scale"); v != "" {
		opts.Scale = parseFloat(v, opts.Scale)
	}
	if v := r.FormValue("position"); v != "" {
		opts.Position = v
	}
	if v := r.FormValue("margin"); v != "" {
		if margin, err := strconv.Atoi(v); err == nil && margin >= 0 {
			opts.Margin = margin
		}
	}
	opts.FillColor = formValue(r, "fill_color", opts.FillColor)
	opts.BackColor = formValue(r, "back_color", opts.BackColor)
	return opts
}

// parseMultipart enforces the upload size cap before reading any file parts.
func (h *Handler) parseMultipart(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, h.cfg.MaxUploadBytes)
	return r.ParseMultipartForm(h.cfg.MaxUploadBytes)
}

func writeUploadError(w http.ResponseWriter, err error) {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeError(w, http.StatusRequestEntityTooLarge, "upload_too_large", "request body too large")
		return
	}
	writeError(w, http.StatusBadRequest, "invalid_multipart", "failed to parse multipart form")
}

func firstGateError(errs ...*auth.Error) *auth.Error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

func formValue(r *http.Request, key, fallback string) string {
	if v := r.FormValue(key); v != "" {
		return v
	}
	return fallback
}

func parseFloat(raw string, fallback float64) float64 {
	if raw == "" {
		return fallback
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return fallback
}

func uploadHeaders(r *http.Request, field string) []*multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	return r.MultipartForm.File[field]
}

func readUpload(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		return nil, fmt.Errorf("missing %q file upload", field)
	}
	defer file.Close()
	return io.ReadAll(file)
}

func readUploadHeader(fh *multipart.FileHeader) ([]byte, error) {
	file, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload %q: %w", fh.Filename, err)
	}
	defer file.Close()
	return io.ReadAll(file)
}

func servePNG(w http.ResponseWriter, png []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(png)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
