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

	"github.com/wso2-open-operations/qr-builder/internal/auth"
	"github.com/wso2-open-operations/qr-builder/internal/metrics"
)

// errorResponse is the JSON body for every rejection.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Limit int    `json:"limit,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: message, Code: code})
}

// writeAuthError maps an auth failure onto its HTTP response, including
// rate-limit observability headers for quota rejections.
func writeAuthError(w http.ResponseWriter, err *auth.Error) {
	metrics.BlockedRequest(err.Code)

	if err.Category == auth.CategoryQuotaExceeded {
		w.Header().Set("Retry-After", strconv.Itoa(int(err.RetryAfter.Seconds())))
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(err.Limit))
		w.Header().Set("X-RateLimit-Remaining", "0")
	}
	writeJSON(w, err.HTTPStatus(), errorResponse{
		Error: err.Message,
		Code:  err.Code,
		Limit: err.Limit,
	})
}
