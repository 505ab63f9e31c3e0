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

// Package auth provides API key authentication, tier-based access control,
// rate limiting, and usage accounting for the QR builder service.
package auth

import (
	"fmt"
)

// Tier is a named subscription level controlling rate and feature limits.
type Tier string

// Subscription tiers. Admin is reserved for backend services.
const (
	TierFree     Tier = "free"
	TierPro      Tier = "pro"
	TierBusiness Tier = "business"
	TierAdmin    Tier = "admin"
)

// QR style identifiers gated per tier.
const (
	StyleBasic    = "basic"
	StyleText     = "text"
	StyleLogo     = "logo"
	StyleArtistic = "artistic"
	StyleQArt     = "qart"
	StyleEmbed    = "embed"
)

// ParseTier converts a string into a known Tier. Unknown values are rejected
// here so tier typos surface at the boundary instead of deep in quota logic.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierFree, TierPro, TierBusiness, TierAdmin:
		return Tier(s), nil
	}
	return "", fmt.Errorf("unknown tier %q", s)
}

// TierLimits describes the rate limits and feature access for one tier.
// Values are process-wide static configuration, loaded once and never mutated.
type TierLimits struct {
	RequestsPerMinute int
	RequestsPerDay    int
	MaxQRSize         int
	AllowedStyles     []string
	BatchLimit        int
	CustomColors      bool
	Priority          int
}

// AllowsStyle reports whether the given style name is available on this tier.
func (l TierLimits) AllowsStyle(style string) bool {
	for _, s := range l.AllowedStyles {
		if s == style {
			return true
		}
	}
	return false
}

// DefaultTierLimits is the standard tier table. Callers inject it (or a test
// variant) into NewSessionStore rather than reading it as global state.
var DefaultTierLimits = map[Tier]TierLimits{
	TierFree: {
		RequestsPerMinute: 5,
		RequestsPerDay:    10,
		MaxQRSize:         500,
		AllowedStyles:     []string{StyleBasic, StyleText},
		BatchLimit:        0,
		CustomColors:      false,
		Priority:          1,
	},
	TierPro: {
		RequestsPerMinute: 30,
		RequestsPerDay:    500,
		MaxQRSize:         2000,
		AllowedStyles:     []string{StyleBasic, StyleText, StyleLogo, StyleArtistic, StyleQArt, StyleEmbed},
		BatchLimit:        10,
		CustomColors:      true,
		Priority:          5,
	},
	TierBusiness: {
		RequestsPerMinute: 100,
		RequestsPerDay:    5000,
		MaxQRSize:         4000,
		AllowedStyles:     []string{StyleBasic, StyleText, StyleLogo, StyleArtistic, StyleQArt, StyleEmbed},
		BatchLimit:        50,
		CustomColors:      true,
		Priority:          10,
	},
	TierAdmin: {
		RequestsPerMinute: 1000,
		RequestsPerDay:    100000,
		MaxQRSize:         4000,
		AllowedStyles:     []string{StyleBasic, StyleText, StyleLogo, StyleArtistic, StyleQArt, StyleEmbed},
		BatchLimit:        100,
		CustomColors:      true,
		Priority:          100,
	},
}

// TierInfo is the externally visible description of a tier, served on the
// pricing endpoint.
type TierInfo struct {
	Tier   string `json:"tier"`
	Limits struct {
		RequestsPerMinute int `json:"requests_per_minute"`
		RequestsPerDay    int `json:"requests_per_day"`
		MaxQRSize         int `json:"max_qr_size"`
		BatchLimit        int `json:"batch_limit"`
	} `json:"limits"`
	Features struct {
		AllowedStyles []string `json:"allowed_styles"`
		CustomColors  bool     `json:"custom_colors"`
	} `json:"features"`
}

// Info builds the external description of a single tier.
func Info(tier Tier, limits TierLimits) TierInfo {
	info := TierInfo{Tier: string(tier)}
	info.Limits.RequestsPerMinute = limits.RequestsPerMinute
	info.Limits.RequestsPerDay = limits.RequestsPerDay
	info.Limits.MaxQRSize = limits.MaxQRSize
	info.Limits.BatchLimit = limits.BatchLimit
	info.Features.AllowedStyles = limits.AllowedStyles
	info.Features.CustomColors = limits.CustomColors
	return info
}

// AllTiersInfo returns descriptions of every public tier, in ascending
// priority order. The admin tier is internal and never exposed.
func AllTiersInfo(table map[Tier]TierLimits) []TierInfo {
	var infos []TierInfo
	for _, tier := range []Tier{TierFree, TierPro, TierBusiness} {
		if limits, ok := table[tier]; ok {
			infos = append(infos, Info(tier, limits))
		}
	}
	return infos
}
