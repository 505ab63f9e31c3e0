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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTier(t *testing.T) {
	for _, name := range []string{"free", "pro", "business", "admin"} {
		tier, err := ParseTier(name)
		require.NoError(t, err)
		assert.Equal(t, Tier(name), tier)
	}

	for _, name := range []string{"", "FREE", "platinum", "Pro "} {
		_, err := ParseTier(name)
		assert.Error(t, err, "tier %q must be rejected", name)
	}
}

func TestTierLimitsOrdering(t *testing.T) {
	free := DefaultTierLimits[TierFree]
	pro := DefaultTierLimits[TierPro]
	business := DefaultTierLimits[TierBusiness]

	assert.Less(t, free.RequestsPerMinute, pro.RequestsPerMinute)
	assert.Less(t, pro.RequestsPerMinute, business.RequestsPerMinute)
	assert.Less(t, free.RequestsPerDay, pro.RequestsPerDay)
	assert.Less(t, pro.MaxQRSize, business.MaxQRSize)
	assert.Less(t, free.Priority, pro.Priority)
}

func TestAllowsStyle(t *testing.T) {
	free := DefaultTierLimits[TierFree]
	assert.True(t, free.AllowsStyle(StyleBasic))
	assert.True(t, free.AllowsStyle(StyleText))
	assert.False(t, free.AllowsStyle(StyleLogo))
	assert.False(t, free.AllowsStyle(StyleEmbed))

	pro := DefaultTierLimits[TierPro]
	for _, style := range []string{StyleBasic, StyleText, StyleLogo, StyleArtistic, StyleQArt, StyleEmbed} {
		assert.True(t, pro.AllowsStyle(style))
	}
}

func TestAllTiersInfoHidesAdmin(t *testing.T) {
	infos := AllTiersInfo(DefaultTierLimits)
	require.Len(t, infos, 3)
	assert.Equal(t, "free", infos[0].Tier)
	assert.Equal(t, "pro", infos[1].Tier)
	assert.Equal(t, "business", infos[2].Tier)
	for _, info := range infos {
		assert.NotEqual(t, "admin", info.Tier)
	}
}
