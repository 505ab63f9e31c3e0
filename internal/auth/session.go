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
	"strings"
	"sync"
	"time"
)

// Session is the live quota state for one credential. It is created on first
// successful resolution and lives for the process lifetime, keyed by API key.
// All counter access goes through the session mutex, so concurrent admission
// checks for the same credential serialize.
type Session struct {
	mu sync.Mutex

	UserID string
	APIKey string
	Email  string

	tier   Tier
	limits map[Tier]TierLimits

	requestsThisMinute int
	requestsToday      int
	minuteResetTime    time.Time
	dayResetTime       time.Time
}

// AdmitResult is the outcome of a quota admission check.
type AdmitResult struct {
	Allowed    bool
	Code       string
	Reason     string
	Limit      int
	Remaining  int
	RetryAfter time.Duration
}

func newSession(userID string, tier Tier, apiKey, email string, limits map[Tier]TierLimits, now time.Time) *Session {
	return &Session{
		UserID:          userID,
		APIKey:          apiKey,
		Email:           email,
		tier:            tier,
		limits:          limits,
		minuteResetTime: now,
		dayResetTime:    now,
	}
}

// Tier returns the session's current tier.
func (s *Session) Tier() Tier {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tier
}

// Limits returns the limit record for the session's current tier.
func (s *Session) Limits() TierLimits {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.limits[s.tier]
}

func (s *Session) setTier(tier Tier) {
	s.mu.Lock()
	s.tier = tier
	s.mu.Unlock()
}

// admit performs the lazy window resets and the per-minute/per-day quota
// checks, incrementing both counters when the request is admitted. The
// per-minute check runs first, so when both windows are exhausted the caller
// sees the minute-limit reason. Window expiry is strictly greater-than: a
// request landing exactly on the boundary still counts against the old window.
func (s *Session) admit(now time.Time) AdmitResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.minuteResetTime) > time.Minute {
		s.requestsThisMinute = 0
		s.minuteResetTime = now
	}
	if now.Sub(s.dayResetTime) > 24*time.Hour {
		s.requestsToday = 0
		s.dayResetTime = now
	}

	limits := s.limits[s.tier]

	if s.requestsThisMinute >= limits.RequestsPerMinute {
		return AdmitResult{
			Code:       CodeMinuteLimitExceeded,
			Reason:     fmt.Sprintf("rate limit exceeded: %d requests/minute", limits.RequestsPerMinute),
			Limit:      limits.RequestsPerMinute,
			RetryAfter: time.Minute,
		}
	}
	if s.requestsToday >= limits.RequestsPerDay {
		return AdmitResult{
			Code:       CodeDailyLimitExceeded,
			Reason:     fmt.Sprintf("daily limit exceeded: %d requests/day", limits.RequestsPerDay),
			Limit:      limits.RequestsPerDay,
			RetryAfter: time.Minute,
		}
	}

	s.requestsThisMinute++
	s.requestsToday++

	return AdmitResult{
		Allowed:   true,
		Limit:     limits.RequestsPerMinute,
		Remaining: limits.RequestsPerMinute - s.requestsThisMinute,
	}
}

// CheckStyle verifies that the session's tier may use the given style.
func (s *Session) CheckStyle(style string) *Error {
	if s.Limits().AllowsStyle(style) {
		return nil
	}
	return NewFeatureForbidden(CodeStyleNotAllowed,
		fmt.Sprintf("%q style is not available on the %s tier", style, s.Tier()), 0)
}

// CheckCustomColors verifies that any custom (hex) color values among the
// given parameters are permitted for the session's tier. Named colors are
// always allowed.
func (s *Session) CheckCustomColors(colors ...string) *Error {
	custom := false
	for _, c := range colors {
		if strings.HasPrefix(c, "#") {
			custom = true
			break
		}
	}
	if !custom || s.Limits().CustomColors {
		return nil
	}
	return NewFeatureForbidden(CodeCustomColorsDenied,
		fmt.Sprintf("custom hex colors are not available on the %s tier", s.Tier()), 0)
}

// CheckSize verifies that the requested output dimension does not exceed the
// tier's maximum.
func (s *Session) CheckSize(size int) *Error {
	limits := s.Limits()
	if size <= limits.MaxQRSize {
		return nil
	}
	return NewFeatureForbidden(CodeSizeExceedsTier,
		fmt.Sprintf("size %d exceeds the %s tier maximum of %d", size, s.Tier(), limits.MaxQRSize),
		limits.MaxQRSize)
}

// CheckBatchSize verifies a batch item count against the tier's batch limit.
// A tier whose batch limit is zero does not offer batch processing at all,
// which is reported distinctly from exceeding a non-zero limit.
func (s *Session) CheckBatchSize(count int) *Error {
	if count <= 0 {
		return NewValidationError(CodeInvalidBatchCount, "batch count must be positive")
	}
	limits := s.Limits()
	if limits.BatchLimit == 0 {
		return NewFeatureForbidden(CodeBatchNotOffered,
			fmt.Sprintf("batch processing is not offered on the %s tier", s.Tier()), 0)
	}
	if count > limits.BatchLimit {
		return NewFeatureForbidden(CodeBatchLimitExceeded,
			fmt.Sprintf("batch of %d exceeds the %s tier limit of %d", count, s.Tier(), limits.BatchLimit),
			limits.BatchLimit)
	}
	return nil
}

// Snapshot is a point-in-time copy of a session's quota state.
type Snapshot struct {
	UserID             string `json:"user_id"`
	Tier               string `json:"tier"`
	RequestsThisMinute int    `json:"requests_this_minute"`
	RequestsToday      int    `json:"requests_today"`
}

// Snapshot returns a consistent copy of the session's identity and counters.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		UserID:             s.UserID,
		Tier:               string(s.tier),
		RequestsThisMinute: s.requestsThisMinute,
		RequestsToday:      s.requestsToday,
	}
}
