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
	"strings"
)

// Placement names accepted for embedding.
const (
	PositionCenter      = "center"
	PositionTopLeft     = "top-left"
	PositionTopRight    = "top-right"
	PositionBottomLeft  = "bottom-left"
	PositionBottomRight = "bottom-right"
)

// CalculatePosition returns the top-left coordinates for a QR of qrSize
// placed on a bgW x bgH background. Margin is the edge spacing in pixels and
// is ignored for center placement.
func CalculatePosition(bgW, bgH, qrSize int, position string, margin int) (int, int, error) {
	switch strings.ToLower(position) {
	case PositionCenter:
		return (bgW - qrSize) / 2, (bgH - qrSize) / 2, nil
	case PositionBottomRight:
		return bgW - qrSize - margin, bgH - qrSize - margin, nil
	case PositionBottomLeft:
		return margin, bgH - qrSize - margin, nil
	case PositionTopRight:
		return bgW - qrSize - margin, margin, nil
	case PositionTopLeft:
		return margin, margin, nil
	}
	return 0, 0, fmt.Errorf("unsupported position %q: use one of center, top-left, top-right, bottom-left, bottom-right", position)
}
