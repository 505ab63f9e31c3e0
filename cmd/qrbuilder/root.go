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

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wso2-open-operations/qr-builder/internal/qr"
)

const (
	cliMinSize       = 21
	cliMaxSize       = 4000
	cliMaxDataLength = 4296
)

func newService(verbose bool) *qr.Service {
	log := zap.NewNop()
	if verbose {
		if built, err := zap.NewDevelopment(); err == nil {
			log = built
		}
	}
	return qr.NewService(log, cliMinSize, cliMaxSize, cliMaxDataLength)
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "qrbuilder",
		Short:         "Generate QR codes and embed them into images",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newQRCmd(&verbose))
	root.AddCommand(newEmbedCmd(&verbose))
	root.AddCommand(newBatchEmbedCmd(&verbose))
	return root
}

func newQRCmd(verbose *bool) *cobra.Command {
	var (
		output    string
		size      int
		fillColor string
		backColor string
	)

	cmd := &cobra.Command{
		Use:   "qr <data>",
		Short: "Generate a standalone QR code PNG",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := newService(*verbose)
			png, err := svc.Generate(args[0], size, fillColor, backColor)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, png, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			cmd.Printf("QR code written to %s (%d bytes)\n", output, len(png))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "qr.png", "output file path")
	cmd.Flags().IntVarP(&size, "size", "s", 500, "QR size in pixels")
	cmd.Flags().StringVar(&fillColor, "fill-color", "black", "foreground color (name or #RRGGBB)")
	cmd.Flags().StringVar(&backColor, "back-color", "white", "background color (name or #RRGGBB)")
	return cmd
}

func newEmbedCmd(verbose *bool) *cobra.Command {
	var (
		output string
		opts   = qr.DefaultEmbedOptions()
	)

	cmd := &cobra.Command{
		Use:   "embed <background> <data>",
		Short: "Embed a QR code into a background image",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			background, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read background: %w", err)
			}

			svc := newService(*verbose)
			png, err := svc.Embed(background, args[1], opts)
			if err != nil {
				return err
			}

			if output == "" {
				ext := filepath.Ext(args[0])
				output = strings.TrimSuffix(args[0], ext) + "_qr.png"
			}
			if err := os.WriteFile(output, png, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			cmd.Printf("Embedded QR written to %s (%d bytes)\n", output, len(png))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file path (default: <background>_qr.png)")
	cmd.Flags().Float64Var(&opts.Scale, "scale", opts.Scale, "QR width as a fraction of the background width")
	cmd.Flags().StringVar(&opts.Position, "position", opts.Position, "placement: center, top-left, top-right, bottom-left, bottom-right")
	cmd.Flags().IntVar(&opts.Margin, "margin", opts.Margin, "margin from the edge in pixels")
	cmd.Flags().StringVar(&opts.FillColor, "fill-color", opts.FillColor, "QR foreground color")
	cmd.Flags().StringVar(&opts.BackColor, "back-color", opts.BackColor, "QR background color")
	return cmd
}

func newBatchEmbedCmd(verbose *bool) *cobra.Command {
	var (
		output string
		opts   = qr.DefaultEmbedOptions()
	)

	cmd := &cobra.Command{
		Use:   "batch-embed <glob> <data>",
		Short: "Embed the same QR into every matching image, producing a ZIP",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			matches, err := filepath.Glob(args[0])
			if err != nil {
				return fmt.Errorf("invalid glob pattern: %w", err)
			}
			if len(matches) == 0 {
				return fmt.Errorf("no files match %q", args[0])
			}

			items := make([]qr.BatchItem, 0, len(matches))
			for _, match := range matches {
				content, err := os.ReadFile(match)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", match, err)
				}
				items = append(items, qr.BatchItem{Name: filepath.Base(match), Background: content})
			}

			svc := newService(*verbose)
			archive, err := svc.EmbedBatch(context.Background(), items, args[1], opts)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, archive, 0o644); err != nil {
				return fmt.Errorf("failed to write %s: %w", output, err)
			}
			cmd.Printf("Batch of %d images written to %s (%d bytes)\n", len(items), output, len(archive))
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "batch_qr.zip", "output ZIP path")
	cmd.Flags().Float64Var(&opts.Scale, "scale", opts.Scale, "QR width as a fraction of the background width")
	cmd.Flags().StringVar(&opts.Position, "position", opts.Position, "placement: center, top-left, top-right, bottom-left, bottom-right")
	cmd.Flags().IntVar(&opts.Margin, "margin", opts.Margin, "margin from the edge in pixels")
	cmd.Flags().StringVar(&opts.FillColor, "fill-color", opts.FillColor, "QR foreground color")
	cmd.Flags().StringVar(&opts.BackColor, "back-color", opts.BackColor, "QR background color")
	return cmd
}
