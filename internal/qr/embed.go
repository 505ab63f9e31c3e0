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
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"path"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// EmbedOptions controls QR placement when embedding into a background image.
type EmbedOptions struct {
	// Scale is the QR width as a fraction of the background width, in (0, 1].
	Scale     float64
	Position  string
	Margin    int
	FillColor string
	BackColor string
}

// DefaultEmbedOptions mirrors the CLI and API defaults.
func DefaultEmbedOptions() EmbedOptions {
	return EmbedOptions{
		Scale:     0.3,
		Position:  PositionCenter,
		Margin:    20,
		FillColor: "black",
		BackColor: "white",
	}
}

// BatchItem is one background image in a batch embed request.
type BatchItem struct {
	Name       string
	Background []byte
}

// Embed generates a QR for data and composites it onto the background image,
// returning the merged image as PNG.
func (s *Service) Embed(background []byte, data string, opts EmbedOptions) ([]byte, error) {
	if opts.Scale <= 0 || opts.Scale > 1 {
		return nil, fmt.Errorf("scale must be between 0 and 1")
	}

	bg, _, err := image.Decode(bytes.NewReader(background))
	if err != nil {
		return nil, fmt.Errorf("failed to decode background image: %w", err)
	}

	bgW := bg.Bounds().Dx()
	bgH := bg.Bounds().Dy()

	qrSize := int(float64(bgW) * opts.Scale)
	if qrSize < s.minSize {
		return nil, fmt.Errorf("background too small: QR would be %dpx, minimum is %d", qrSize, s.minSize)
	}

	qrImg, err := s.Image(data, qrSize, opts.FillColor, opts.BackColor)
	if err != nil {
		return nil, err
	}
	// Image may round up to a whole module multiple.
	qrSize = qrImg.Bounds().Dx()

	x, y, err := CalculatePosition(bgW, bgH, qrSize, opts.Position, opts.Margin)
	if err != nil {
		return nil, err
	}

	canvas := image.NewRGBA(bg.Bounds())
	draw.Draw(canvas, canvas.Bounds(), bg, bg.Bounds().Min, draw.Src)
	target := image.Rect(x, y, x+qrSize, y+qrSize).Add(bg.Bounds().Min)
	draw.Draw(canvas, target, qrImg, image.Point{}, draw.Over)

	s.logger.Debug("QR embedded into background",
		zap.Int("bg_width", bgW),
		zap.Int("bg_height", bgH),
		zap.Int("qr_size", qrSize),
		zap.String("position", opts.Position),
	)

	return encodePNG(canvas)
}

// EmbedBatch embeds the same QR into every background concurrently and
// returns a ZIP archive. Entry names are the original filename with `_qr`
// appended before the extension; all entries are PNG.
func (s *Service) EmbedBatch(ctx context.Context, items []BatchItem, data string, opts EmbedOptions) ([]byte, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("no background images provided")
	}

	results := make([][]byte, len(items))

	g, gCtx := errgroup.WithContext(ctx)
	for i, item := range items {
		i, item := i, item
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			out, err := s.Embed(item.Background, data, opts)
			if err != nil {
				return fmt.Errorf("item %q: %w", item.Name, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, item := range items {
		w, err := zw.Create(outputName(item.Name))
		if err != nil {
			return nil, fmt.Errorf("failed to create ZIP entry: %w", err)
		}
		if _, err := w.Write(results[i]); err != nil {
			return nil, fmt.Errorf("failed to write ZIP entry: %w", err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize ZIP: %w", err)
	}

	s.logger.Info("Batch embed completed",
		zap.Int("images", len(items)),
		zap.Int("zip_bytes", buf.Len()),
	)

	return buf.Bytes(), nil
}

// outputName derives the ZIP entry name for one background image.
func outputName(name string) string {
	if name == "" {
		name = "image.png"
	}
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	return stem + "_qr.png"
}
