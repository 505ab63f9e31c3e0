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
	"sync"
	"time"
)

// UsageRecord is an immutable audit entry for one billable attempt. Records
// are appended on success and failure alike and removed only by Cleanup.
type UsageRecord struct {
	Timestamp time.Time         `json:"timestamp"`
	UserID    string            `json:"user_id"`
	Style     string            `json:"style"`
	Success   bool              `json:"success"`
	Metadata  map[string]string `json:"metadata"`
}

// UserStats aggregates the usage log for one identity.
type UserStats struct {
	TotalRequests int            `json:"total_requests"`
	Successful    int            `json:"successful"`
	ByStyle       map[string]int `json:"by_style"`
}

// SessionStore owns the credential-to-session mapping and the append-only
// usage log. All state is in memory; a restart loses sessions and unflushed
// usage entries, which is acceptable because billing reconciliation polls
// UsageSince frequently from an external system.
//
// The store mutex guards the session map and the usage log. Per-session
// counter mutation is guarded by each session's own mutex, so two concurrent
// admission checks for the same credential cannot both observe stale counters.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	usageLog []UsageRecord

	limits map[Tier]TierLimits
	now    func() time.Time
}

// NewSessionStore creates a store with the given tier table. Pass
// DefaultTierLimits outside of tests.
func NewSessionStore(limits map[Tier]TierLimits) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		limits:   limits,
		now:      time.Now,
	}
}

// TierTable returns the tier table the store was configured with.
func (st *SessionStore) TierTable() map[Tier]TierLimits {
	return st.limits
}

// GetOrCreate returns the session for the credential, creating one at the
// resolved tier if absent. An existing session has its tier overwritten with
// the freshly resolved value (tiers can change between requests) while its
// counters are preserved.
func (st *SessionStore) GetOrCreate(userID string, tier Tier, apiKey, email string) *Session {
	st.mu.Lock()
	sess, ok := st.sessions[apiKey]
	if !ok {
		sess = newSession(userID, tier, apiKey, email, st.limits, st.now())
		st.sessions[apiKey] = sess
		st.mu.Unlock()
		return sess
	}
	st.mu.Unlock()

	sess.setTier(tier)
	return sess
}

// Admit decides whether the session may perform another billable request,
// consuming one unit of quota when allowed.
func (st *SessionStore) Admit(sess *Session) AdmitResult {
	return sess.admit(st.now())
}

// UpdateTier overwrites the tier of an existing session in place. It returns
// false when no session exists yet for the credential; that is not an error,
// the new tier simply applies on the session's first creation.
func (st *SessionStore) UpdateTier(apiKey string, tier Tier) bool {
	st.mu.Lock()
	sess, ok := st.sessions[apiKey]
	st.mu.Unlock()
	if !ok {
		return false
	}
	sess.setTier(tier)
	return true
}

// Invalidate removes any session for the credential. Removing an absent
// session is not an error.
func (st *SessionStore) Invalidate(apiKey string) {
	st.mu.Lock()
	delete(st.sessions, apiKey)
	st.mu.Unlock()
}

// LogUsage appends one usage record with the current timestamp. Logging is
// best-effort bookkeeping for billing sync and never fails the caller. The
// timestamp is read under the store lock so append order is timestamp order;
// billing sync checkpoints on the max stored timestamp and an inversion would
// let it skip records.
func (st *SessionStore) LogUsage(userID, style string, success bool, metadata map[string]string) {
	if metadata == nil {
		metadata = map[string]string{}
	}
	st.mu.Lock()
	st.usageLog = append(st.usageLog, UsageRecord{
		Timestamp: st.now(),
		UserID:    userID,
		Style:     style,
		Success:   success,
		Metadata:  metadata,
	})
	st.mu.Unlock()
}

// UsageSince returns the records with timestamp strictly after t, oldest
// first. The result is a copy and safe to use after the call.
func (st *SessionStore) UsageSince(t time.Time) []UsageRecord {
	st.mu.Lock()
	defer st.mu.Unlock()

	out := make([]UsageRecord, 0)
	for _, record := range st.usageLog {
		if record.Timestamp.After(t) {
			out = append(out, record)
		}
	}
	return out
}

// StatsFor aggregates the usage log for one identity.
func (st *SessionStore) StatsFor(userID string) UserStats {
	st.mu.Lock()
	defer st.mu.Unlock()

	stats := UserStats{ByStyle: make(map[string]int)}
	for _, record := range st.usageLog {
		if record.UserID != userID {
			continue
		}
		stats.TotalRequests++
		if record.Success {
			stats.Successful++
		}
		stats.ByStyle[record.Style]++
	}
	return stats
}

// Cleanup removes every record older than now minus the given number of days
// and returns the count removed. This is the only destructive operation on
// the log.
func (st *SessionStore) Cleanup(days int) int {
	cutoff := st.now().Add(-time.Duration(days) * 24 * time.Hour)

	st.mu.Lock()
	defer st.mu.Unlock()

	kept := st.usageLog[:0]
	removed := 0
	for _, record := range st.usageLog {
		if record.Timestamp.After(cutoff) {
			kept = append(kept, record)
		} else {
			removed++
		}
	}
	st.usageLog = kept
	return removed
}

// UsageLogSize returns the number of records currently held in the log.
func (st *SessionStore) UsageLogSize() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.usageLog)
}
