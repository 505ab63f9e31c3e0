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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsageSinceStrictOrdering(t *testing.T) {
	clock := newFakeClock()
	st := newTestStore(clock)

	st.LogUsage("user-1", StyleBasic, true, nil)
	mark := clock.Now()
	clock.Advance(time.Second)
	st.LogUsage("user-1", StyleText, true, nil)
	clock.Advance(time.Second)
	st.LogUsage("user-2", StyleBasic, false, nil)

	// Strictly after: the record at the checkpoint itself is excluded.
	records := st.UsageSince(mark)
	require.Len(t, records, 2)
	assert.Equal(t, StyleText, records[0].Style)
	assert.Equal(t, StyleBasic, records[1].Style)

	all := st.UsageSince(time.Time{})
	assert.Len(t, all, 3)
}

func TestLogUsageNilMetadata(t *testing.T) {
	clock := newFakeClock()
	st := newTestStore(clock)

	st.LogUsage("user-1", StyleBasic, true, nil)
	records := st.UsageSince(time.Time{})
	require.Len(t, records, 1)
	assert.NotNil(t, records[0].Metadata, "metadata serializes as an object, never null")
}

func TestStatsFor(t *testing.T) {
	clock := newFakeClock()
	st := newTestStore(clock)

	st.LogUsage("user-1", StyleBasic, true, nil)
	st.LogUsage("user-1", StyleBasic, false, nil)
	st.LogUsage("user-1", StyleText, true, nil)
	st.LogUsage("user-2", StyleLogo, true, nil)

	stats := st.StatsFor("user-1")
	assert.Equal(t, 3, stats.TotalRequests)
	assert.Equal(t, 2, stats.Successful)
	assert.Equal(t, 2, stats.ByStyle[StyleBasic])
	assert.Equal(t, 1, stats.ByStyle[StyleText])

	empty := st.StatsFor("nobody")
	assert.Zero(t, empty.TotalRequests)
	assert.NotNil(t, empty.ByStyle)
}

func TestCleanup(t *testing.T) {
	clock := newFakeClock()
	st := newTestStore(clock)

	st.LogUsage("user-1", StyleBasic, true, nil)
	clock.Advance(48 * time.Hour)
	st.LogUsage("user-1", StyleText, true, nil)

	removed := st.Cleanup(1)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, st.UsageLogSize())

	// Cleanup is idempotent for the same retention window.
	assert.Zero(t, st.Cleanup(1))

	// A zero-day retention drops everything at or before now.
	removed = st.Cleanup(0)
	assert.Equal(t, 1, removed)
	assert.Zero(t, st.UsageLogSize())
}

func TestUpdateTier(t *testing.T) {
	clock := newFakeClock()
	st := newTestStore(clock)

	assert.False(t, st.UpdateTier("unseen-key", TierPro), "unknown credential is not an error")

	sess := st.GetOrCreate("user-1", TierFree, "key-1", "")
	require.True(t, st.UpdateTier("key-1", TierBusiness))
	assert.Equal(t, TierBusiness, sess.Tier())
}

func TestInvalidateResetsQuota(t *testing.T) {
	clock := newFakeClock()
	st := newTestStore(clock)

	sess := st.GetOrCreate("user-1", TierFree, "key-1", "")
	for i := 0; i < 5; i++ {
		require.True(t, st.Admit(sess).Allowed)
	}
	require.False(t, st.Admit(sess).Allowed)

	st.Invalidate("key-1")
	st.Invalidate("key-1") // removing twice is fine

	fresh := st.GetOrCreate("user-1", TierFree, "key-1", "")
	assert.NotSame(t, sess, fresh)
	assert.True(t, st.Admit(fresh).Allowed, "re-created session starts with fresh counters")
}

func TestConcurrentLogUsage(t *testing.T) {
	st := NewSessionStore(DefaultTierLimits)

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			userID := fmt.Sprintf("user-%d", w)
			for i := 0; i < perWorker; i++ {
				st.LogUsage(userID, StyleBasic, true, nil)
			}
		}(w)
	}
	wg.Wait()

	assert.Equal(t, workers*perWorker, st.UsageLogSize())
	for w := 0; w < workers; w++ {
		stats := st.StatsFor(fmt.Sprintf("user-%d", w))
		assert.Equal(t, perWorker, stats.TotalRequests)
	}
}

func TestConcurrentLogUsageTimestampOrder(t *testing.T) {
	st := NewSessionStore(DefaultTierLimits)

	// The sequence counter is unsynchronized on purpose: it stays race-free
	// only if the store reads the clock under its own lock, and the assigned
	// timestamps stay in append order for the same reason.
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	seq := 0
	st.now = func() time.Time {
		seq++
		return base.Add(time.Duration(seq) * time.Millisecond)
	}

	const workers = 8
	const perWorker = 50

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				st.LogUsage(fmt.Sprintf("user-%d", w), StyleBasic, true, nil)
			}
		}(w)
	}
	wg.Wait()

	records := st.UsageSince(time.Time{})
	require.Len(t, records, workers*perWorker)
	for i := 1; i < len(records); i++ {
		require.False(t, records[i].Timestamp.Before(records[i-1].Timestamp),
			"record %d (%v) is older than record %d (%v)",
			i, records[i].Timestamp, i-1, records[i-1].Timestamp)
	}
}

func TestConcurrentAdmitSingleSession(t *testing.T) {
	st := NewSessionStore(DefaultTierLimits)
	sess := st.GetOrCreate("user-1", TierFree, "key-1", "")

	const attempts = 50
	results := make(chan bool, attempts)

	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- st.Admit(sess).Allowed
		}()
	}
	wg.Wait()
	close(results)

	admitted := 0
	for allowed := range results {
		if allowed {
			admitted++
		}
	}
	// Free tier allows exactly 5 per minute regardless of interleaving.
	assert.Equal(t, 5, admitted)
}
