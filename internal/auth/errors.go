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
	"fmt"
	"net/http"
	"time"
)

// Category classifies authorization failures for callers.
type Category string

// Failure categories surfaced to API clients. Upstream validation outages are
// collapsed into Unauthenticated for the caller and logged distinctly for
// operators.
const (
	CategoryUnauthenticated  Category = "unauthenticated"
	CategoryQuotaExceeded    Category = "quota_exceeded"
	CategoryFeatureForbidden Category = "feature_forbidden"
	CategoryValidation       Category = "validation_error"
)

// Machine-readable reason codes.
const (
	CodeInvalidAPIKey       = "invalid_api_key"
	CodeAuthRequired        = "authentication_required"
	CodeMinuteLimitExceeded = "minute_limit_exceeded"
	CodeDailyLimitExceeded  = "daily_limit_exceeded"
	CodeStyleNotAllowed     = "style_not_allowed"
	CodeCustomColorsDenied  = "custom_colors_not_allowed"
	CodeSizeExceedsTier     = "size_exceeds_tier"
	CodeBatchNotOffered     = "batch_not_offered"
	CodeBatchLimitExceeded  = "batch_limit_exceeded"
	CodeInvalidBatchCount   = "invalid_batch_count"
	CodeUnknownTier         = "unknown_tier"
)

// Error is a user-actionable authorization failure. Every rejection carries a
// category and code; quota rejections additionally carry the configured limit
// and a suggested retry delay for observability headers.
type Error struct {
	Category   Category
	Code       string
	Message    string
	Limit      int
	RetryAfter time.Duration
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// HTTPStatus maps the failure category onto an HTTP status code.
func (e *Error) HTTPStatus() int {
	switch e.Category {
	case CategoryUnauthenticated:
		return http.StatusUnauthorized
	case CategoryQuotaExceeded:
		return http.StatusTooManyRequests
	case CategoryFeatureForbidden:
		return http.StatusForbidden
	case CategoryValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// NewUnauthenticated builds an unauthenticated error with the given code.
func NewUnauthenticated(code, message string) *Error {
	return &Error{Category: CategoryUnauthenticated, Code: code, Message: message}
}

// NewQuotaExceeded builds a quota rejection carrying the configured limit and
// the fixed 60-second suggested backoff.
func NewQuotaExceeded(code, message string, limit int) *Error {
	return &Error{
		Category:   CategoryQuotaExceeded,
		Code:       code,
		Message:    message,
		Limit:      limit,
		RetryAfter: time.Minute,
	}
}

// NewFeatureForbidden builds a tier-gating rejection.
func NewFeatureForbidden(code, message string, limit int) *Error {
	return &Error{Category: CategoryFeatureForbidden, Code: code, Message: message, Limit: limit}
}

// NewValidationError builds a malformed-input rejection.
func NewValidationError(code, message string) *Error {
	return &Error{Category: CategoryValidation, Code: code, Message: message}
}
