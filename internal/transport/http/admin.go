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
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wso2-open-operations/qr-builder/internal/auth"
	"github.com/wso2-open-operations/qr-builder/internal/metrics"
)

// AdminUsage handles GET /admin/usage?since=: the usage records strictly
// newer than the checkpoint, for billing reconciliation. The since parameter
// accepts Unix seconds or RFC 3339; omitted means everything.
func (h *Handler) AdminUsage(w http.ResponseWriter, r *http.Request) {
	since := time.Time{}
	if raw := r.URL.Query().Get("since"); raw != "" {
		parsed, err := parseSince(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_since", "since must be Unix seconds or RFC 3339")
			return
		}
		since = parsed
	}

	records := h.store.UsageSince(since)
	writeJSON(w, http.StatusOK, map[string]any{
		"records": records,
		"count":   len(records),
	})
}

// AdminStats handles GET /admin/stats/{user_id}.
func (h *Handler) AdminStats(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["user_id"]
	writeJSON(w, http.StatusOK, map[string]any{
		"user_id": userID,
		"stats":   h.store.StatsFor(userID),
	})
}

// AdminCleanup handles POST /admin/cleanup: drop usage records older than the
// given retention window.
func (h *Handler) AdminCleanup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Days int `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Days < 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "days must be a non-negative integer")
		return
	}

	removed := h.store.Cleanup(req.Days)
	metrics.SetUsageLogSize(h.store.UsageLogSize())

	h.logger.Info("Usage log cleanup completed",
		zap.Int("retention_days", req.Days),
		zap.Int("removed", removed),
	)
	writeJSON(w, http.StatusOK, map[string]int{"removed": removed})
}

// AdminUpdateTier handles POST /admin/tier: push a subscription change into a
// live session so the new limits apply without waiting for key re-validation.
func (h *Handler) AdminUpdateTier(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
		Tier   string `json:"tier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.APIKey == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "api_key and tier are required")
		return
	}

	tier, err := auth.ParseTier(req.Tier)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown_tier", err.Error())
		return
	}

	updated := h.store.UpdateTier(req.APIKey, tier)
	status := "updated"
	if !updated {
		// No session yet: the tier takes effect when the key is next resolved.
		status = "not_yet_seen"
	}

	h.logger.Info("Tier update pushed",
		zap.String("tier", string(tier)),
		zap.String("status", status),
	)
	writeJSON(w, http.StatusOK, map[string]string{"status": status})
}

// AdminInvalidateSession handles DELETE /admin/sessions/{key}: evict the
// session so the next request re-resolves the credential from scratch.
func (h *Handler) AdminInvalidateSession(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	h.store.Invalidate(key)
	w.WriteHeader(http.StatusNoContent)
}

// parseSince accepts a Unix-seconds integer or an RFC 3339 timestamp.
func parseSince(raw string) (time.Time, error) {
	if secs, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Parse(time.RFC3339, raw)
}
