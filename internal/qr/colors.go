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

package qr

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

var namedColors = map[string]color.RGBA{
	"black":  {0x00, 0x00, 0x00, 0xff},
	"white":  {0xff, 0xff, 0xff, 0xff},
	"red":    {0xff, 0x00, 0x00, 0xff},
	"green":  {0x00, 0x80, 0x00, 0xff},
	"blue":   {0x00, 0x00, 0xff, 0xff},
	"yellow": {0xff, 0xff, 0x00, 0xff},
	"orange": {0xff, 0xa5, 0x00, 0xff},
	"purple": {0x80, 0x00, 0x80, 0xff},
	"gray":   {0x80, 0x80, 0x80, 0xff},
	"grey":   {0x80, 0x80, 0x80, 0xff},
}

// ParseColor accepts a known color name or a #RRGGBB hex value.
func ParseColor(value string) (color.Color, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if c, ok := namedColors[v]; ok {
		return c, nil
	}
	if strings.HasPrefix(v, "#") {
		return parseHexColor(v)
	}
	return nil, fmt.Errorf("unknown color %q: use a named color or #RRGGBB", value)
}

// IsCustomColor reports whether a color parameter is a custom hex value
// rather than a named color. Tier gating treats only hex values as custom.
func IsCustomColor(value string) bool {
	return strings.HasPrefix(strings.TrimSpace(value), "#")
}

func parseHexColor(v string) (color.Color, error) {
	hexPart := strings.TrimPrefix(v, "#")
	if len(hexPart) != 6 {
		return nil, fmt.Errorf("invalid hex color %q: expected #RRGGBB", v)
	}
	n, err := strconv.ParseUint(hexPart, 16, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid hex color %q: %w", v, err)
	}
	return color.RGBA{
		R: uint8(n >> 16),
		G: uint8(n >> 8),
		B: uint8(n),
		A: 0xff,
	}, nil
}
