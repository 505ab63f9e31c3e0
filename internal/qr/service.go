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

// Package qr provides QR code generation, captioning, logo overlays, and
// image embedding.
package qr

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	// Background uploads may be JPEG as well as PNG.
	_ "image/jpeg"
)

// Service generates QR code images within configured size and data bounds.
type Service struct {
	logger        *zap.Logger
	minSize       int
	maxSize       int
	maxDataLength int
}

// NewService creates a new QR generation service instance.
func NewService(logger *zap.Logger, minSize, maxSize, maxDataLength int) *Service {
	return &Service{
		logger:        logger,
		minSize:       minSize,
		maxSize:       maxSize,
		maxDataLength: maxDataLength,
	}
}

func (s *Service) validateData(data string) error {
	if strings.TrimSpace(data) == "" {
		return fmt.Errorf("data cannot be empty")
	}
	if len(data) > s.maxDataLength {
		return fmt.Errorf("data exceeds maximum length of %d characters", s.maxDataLength)
	}
	return nil
}

func (s *Service) validateSize(size int) error {
	if size < s.minSize || size > s.maxSize {
		return fmt.Errorf("invalid size: must be between %d and %d", s.minSize, s.maxSize)
	}
	return nil
}

// newCode builds a QR symbol with the given colors. Recovery level High
// matches the original generator and leaves headroom for overlays.
func (s *Service) newCode(data string, fillColor, backColor string) (*qrcode.QRCode, error) {
	if err := s.validateData(data); err != nil {
		return nil, err
	}

	fill, err := ParseColor(fillColor)
	if err != nil {
		return nil, fmt.Errorf("fill color: %w", err)
	}
	back, err := ParseColor(backColor)
	if err != nil {
		return nil, fmt.Errorf("back color: %w", err)
	}

	code, err := qrcode.New(data, qrcode.High)
	if err != nil {
		return nil, fmt.Errorf("failed to encode QR code: %w", err)
	}
	code.ForegroundColor = fill
	code.BackgroundColor = back
	return code, nil
}

// Generate creates a standalone PNG QR code.
func (s *Service) Generate(data string, size int, fillColor, backColor string) ([]byte, error) {
	if err := s.validateSize(size); err != nil {
		return nil, err
	}

	code, err := s.newCode(data, fillColor, backColor)
	if err != nil {
		return nil, err
	}

	out, err := code.PNG(size)
	if err != nil {
		return nil, fmt.Errorf("failed to render QR code: %w", err)
	}

	s.logger.Debug("QR code generated",
		zap.Int("size", size),
		zap.Int("output_bytes", len(out)),
	)
	return out, nil
}

// Image renders the QR symbol as an in-memory image for compositing.
func (s *Service) Image(data string, size int, fillColor, backColor string) (image.Image, error) {
	code, err := s.newCode(data, fillColor, backColor)
	if err != nil {
		return nil, err
	}
	return code.Image(size), nil
}

// GenerateWithText renders a QR code with a short caption centered on the
// symbol. The caption sits on a background-colored plate; High recovery
// absorbs the obscured modules.
func (s *Service) GenerateWithText(data, text string, size int, fontColor string) ([]byte, error) {
	if err := s.validateSize(size); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text cannot be empty")
	}

	fc, err := ParseColor(fontColor)
	if err != nil {
		return nil, fmt.Errorf("font color: %w", err)
	}

	base, err := s.Image(data, size, "black", "white")
	if err != nil {
		return nil, err
	}

	canvas := image.NewRGBA(base.Bounds())
	draw.Draw(canvas, canvas.Bounds(), base, image.Point{}, draw.Src)

	face := basicfont.Face7x13
	textW := font.MeasureString(face, text).Ceil()
	textH := face.Metrics().Height.Ceil()

	cx := canvas.Bounds().Dx() / 2
	cy := canvas.Bounds().Dy() / 2

	// Plate behind the caption so it stays legible over dark modules.
	pad := 6
	plate := image.Rect(cx-textW/2-pad, cy-textH/2-pad, cx+textW/2+pad, cy+textH/2+pad)
	draw.Draw(canvas, plate, image.NewUniform(color.White), image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  canvas,
		Src:  image.NewUniform(fc),
		Face: face,
		Dot: fixed.Point26_6{
			X: fixed.I(cx - textW/2),
			Y: fixed.I(cy + textH/2 - face.Metrics().Descent.Ceil()),
		},
	}
	drawer.DrawString(text)

	return encodePNG(canvas)
}

// GenerateWithLogo renders a QR code with a logo image composited over its
// center. logoScale is the logo width as a fraction of the QR size and must
// be in (0, 0.5]; larger overlays would defeat error correction.
func (s *Service) GenerateWithLogo(data string, logo []byte, size int, logoScale float64) ([]byte, error) {
	if err := s.validateSize(size); err != nil {
		return nil, err
	}
	if logoScale <= 0 || logoScale > 0.5 {
		return nil, fmt.Errorf("logo scale must be between 0 and 0.5")
	}

	logoImg, _, err := image.Decode(bytes.NewReader(logo))
	if err != nil {
		return nil, fmt.Errorf("failed to decode logo image: %w", err)
	}

	base, err := s.Image(data, size, "black", "white")
	if err != nil {
		return nil, err
	}

	canvas := image.NewRGBA(base.Bounds())
	draw.Draw(canvas, canvas.Bounds(), base, image.Point{}, draw.Src)

	qrW := canvas.Bounds().Dx()
	logoW := int(float64(qrW) * logoScale)
	logoH := logoW * logoImg.Bounds().Dy() / logoImg.Bounds().Dx()
	if logoW < 1 || logoH < 1 {
		return nil, fmt.Errorf("logo too small after scaling")
	}

	x := (qrW - logoW) / 2
	y := (canvas.Bounds().Dy() - logoH) / 2

	pad := logoW / 10
	plate := image.Rect(x-pad, y-pad, x+logoW+pad, y+logoH+pad)
	draw.Draw(canvas, plate, image.NewUniform(color.White), image.Point{}, draw.Src)

	target := image.Rect(x, y, x+logoW, y+logoH)
	xdraw.CatmullRom.Scale(canvas, target, logoImg, logoImg.Bounds(), xdraw.Over, nil)

	return encodePNG(canvas)
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}
