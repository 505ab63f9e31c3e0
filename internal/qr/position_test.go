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
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatePosition(t *testing.T) {
	tests := []struct {
		position string
		wantX    int
		wantY    int
	}{
		{PositionCenter, 250, 150},
		{PositionTopLeft, 20, 20},
		{PositionTopRight, 480, 20},
		{PositionBottomLeft, 20, 280},
		{PositionBottomRight, 480, 280},
	}

	for _, tt := range tests {
		x, y, err := CalculatePosition(600, 400, 100, tt.position, 20)
		require.NoError(t, err, tt.position)
		assert.Equal(t, tt.wantX, x, "%s x", tt.position)
		assert.Equal(t, tt.wantY, y, "%s y", tt.position)
	}
}

func TestCalculatePositionCaseInsensitive(t *testing.T) {
	x, y, err := CalculatePosition(600, 400, 100, "Top-Left", 10)
	require.NoError(t, err)
	assert.Equal(t, 10, x)
	assert.Equal(t, 10, y)
}

func TestCalculatePositionUnknown(t *testing.T) {
	_, _, err := CalculatePosition(600, 400, 100, "middle", 20)
	assert.Error(t, err)
}

func TestParseColor(t *testing.T) {
	c, err := ParseColor("black")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0, 0, 0, 0xff}, c)

	c, err = ParseColor(" RED ")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0xff, 0, 0, 0xff}, c)

	c, err = ParseColor("#1A2B3C")
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{0x1a, 0x2b, 0x3c, 0xff}, c)

	for _, bad := range []string{"", "mauve", "#12345", "#GGGGGG", "123456"} {
		_, err := ParseColor(bad)
		assert.Error(t, err, "color %q", bad)
	}
}

func TestIsCustomColor(t *testing.T) {
	assert.True(t, IsCustomColor("#FF0000"))
	assert.True(t, IsCustomColor("  #abc123"))
	assert.False(t, IsCustomColor("red"))
	assert.False(t, IsCustomColor(""))
}
