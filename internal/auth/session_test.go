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
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock provides a manually advanced time source for window tests.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(clock *fakeClock) *SessionStore {
	st := NewSessionStore(DefaultTierLimits)
	st.now = clock.Now
	return st
}

func TestAdmitMinuteLimit(t *testing.T) {
	clock := newFakeClock()
	st := newTestStore(clock)
	sess := st.GetOrCreate("user-1", TierFree, "key-1", "u1@example.com")

	for i := 0; i < 5; i++ {
		result := st.Admit(sess)
		require.True(t, result.Allowed, "request %d should be admitted", i+1)
		assert.Equal(t, 5-(i+1), result.Remaining)
	}

	result := st.Admit(sess)
	require.False(t, result.Allowed)
	assert.Equal(t, CodeMinuteLimitExceeded, result.Code)
	assert.Equal(t, 5, result.Limit)
	assert.Equal(t, time.Minute, result.RetryAfter)
}

func TestAdmitMinuteWindowBoundary(t *testing.T) {
	clock := newFakeClock()
	st := newTestStore(clock)
	sess := st.GetOrCreate("user-1", TierFree, "key-1", "")

	for i := 0; i < 5; i++ {
		require.True(t, st.Admit(sess).Allowed)
	}

	// Exactly sixty seconds later the old window still applies.
	clock.Advance(time.Minute)
	result := st.Admit(sess)
	require.False(t, result.Allowed)
	assert.Equal(t, CodeMinuteLimitExceeded, result.Code)

	// One more second crosses the boundary and resets the minute counter.
	clock.Advance(time.Second)
	result = st.Admit(sess)
	require.True(t, result.Allowed)

	snap := sess.Snapshot()
	assert.Equal(t, 1, snap.RequestsThisMinute)
	assert.Equal(t, 6, snap.RequestsToday, "daily counter survives minute resets")
}

func TestAdmitDailyLimit(t *testing.T) {
	clock := newFakeClock()
	st := newTestStore(clock)
	sess := st.GetOrCreate("user-1", TierFree, "key-1", "")

	// Free tier: 5/minute, 10/day. Spend the daily budget across minutes.
	for i := 0; i < 10; i++ {
		require.True(t, st.Admit(sess).Allowed)
		if (i+1)%5 == 0 {
			clock.Advance(time.Minute + time.Second)
		}
	}

	result := st.Admit(sess)
	require.False(t, result.Allowed)
	assert.Equal(t, CodeDailyLimitExceeded, result.Code)
	assert.Equal(t, 10, result.Limit)
}

func TestAdmitMinuteCheckedBeforeDay(t *testing.T) {
	clock := newFakeClock()
	st := newTestStore(clock)
	sess := st.GetOrCreate("user-1", TierFree, "key-1", "")

	// Exhaust the day in bursts, ending with a full minute window too.
	for i := 0; i < 10; i++ {
		require.True(t, st.Admit(sess).Allowed)
		if i == 4 {
			clock.Advance(time.Minute + time.Second)
		}
	}

	// Both windows are now exhausted; the minute reason wins.
	result := st.Admit(sess)
	require.False(t, result.Allowed)
	assert.Equal(t, CodeMinuteLimitExceeded, result.Code)
}

func TestAdmitDayWindowReset(t *testing.T) {
	clock := newFakeClock()
	st := newTestStore(clock)
	sess := st.GetOrCreate("user-1", TierFree, "key-1", "")

	for i := 0; i < 5; i++ {
		require.True(t, st.Admit(sess).Allowed)
	}

	clock.Advance(24*time.Hour + time.Second)
	result := st.Admit(sess)
	require.True(t, result.Allowed)

	snap := sess.Snapshot()
	assert.Equal(t, 1, snap.RequestsToday)
}

func TestTierChangePreservesCounters(t *testing.T) {
	clock := newFakeClock()
	st := newTestStore(clock)
	sess := st.GetOrCreate("user-1", TierFree, "key-1", "")

	for i := 0; i < 3; i++ {
		require.True(t, st.Admit(sess).Allowed)
	}

	// Re-resolution at a new tier must not grant a fresh quota window.
	again := st.GetOrCreate("user-1", TierPro, "key-1", "")
	assert.Same(t, sess, again)
	assert.Equal(t, TierPro, again.Tier())

	snap := again.Snapshot()
	assert.Equal(t, 3, snap.RequestsThisMinute)
	assert.Equal(t, 3, snap.RequestsToday)

	// Pro limits apply immediately on the next admission.
	result := st.Admit(again)
	require.True(t, result.Allowed)
	assert.Equal(t, 30, result.Limit)
}

func TestCheckStyle(t *testing.T) {
	clock := newFakeClock()
	st := newTestStore(clock)

	free := st.GetOrCreate("user-1", TierFree, "key-1", "")
	assert.Nil(t, free.CheckStyle(StyleBasic))
	assert.Nil(t, free.CheckStyle(StyleText))

	err := free.CheckStyle(StyleLogo)
	require.NotNil(t, err)
	assert.Equal(t, CodeStyleNotAllowed, err.Code)
	assert.Equal(t, http.StatusForbidden, err.HTTPStatus())

	pro := st.GetOrCreate("user-2", TierPro, "key-2", "")
	assert.Nil(t, pro.CheckStyle(StyleLogo))
	assert.Nil(t, pro.CheckStyle(StyleEmbed))
}

func TestCheckCustomColors(t *testing.T) {
	clock := newFakeClock()
	st := newTestStore(clock)

	free := st.GetOrCreate("user-1", TierFree, "key-1", "")
	assert.Nil(t, free.CheckCustomColors("black", "white"), "named colors are always allowed")

	err := free.CheckCustomColors("#FF0000", "white")
	require.NotNil(t, err)
	assert.Equal(t, CodeCustomColorsDenied, err.Code)

	pro := st.GetOrCreate("user-2", TierPro, "key-2", "")
	assert.Nil(t, pro.CheckCustomColors("#FF0000", "#00FF00"))
}

func TestCheckSize(t *testing.T) {
	clock := newFakeClock()
	st := newTestStore(clock)
	free := st.GetOrCreate("user-1", TierFree, "key-1", "")

	assert.Nil(t, free.CheckSize(500), "tier maximum itself is allowed")

	err := free.CheckSize(501)
	require.NotNil(t, err)
	assert.Equal(t, CodeSizeExceedsTier, err.Code)
	assert.Equal(t, 500, err.Limit)
}

func TestCheckBatchSize(t *testing.T) {
	clock := newFakeClock()
	st := newTestStore(clock)

	free := st.GetOrCreate("user-1", TierFree, "key-1", "")
	pro := st.GetOrCreate("user-2", TierPro, "key-2", "")

	err := free.CheckBatchSize(1)
	require.NotNil(t, err)
	assert.Equal(t, CodeBatchNotOffered, err.Code, "zero batch limit means the feature is not offered")

	err = pro.CheckBatchSize(11)
	require.NotNil(t, err)
	assert.Equal(t, CodeBatchLimitExceeded, err.Code)
	assert.Equal(t, 10, err.Limit)

	assert.Nil(t, pro.CheckBatchSize(10))

	err = pro.CheckBatchSize(0)
	require.NotNil(t, err)
	assert.Equal(t, CodeInvalidBatchCount, err.Code)
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
}
