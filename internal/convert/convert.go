// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert implements the PDF-to-Markdown stage. The heavy lifting
// (layout analysis, OCR, math rendering) happens inside a pluggable
// conversion backend; this package persists the rendered Markdown and any
// extracted images into the per-document output subdirectory.
package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jaden/paper-pipeline/pkg/types"
)

// Result is what a conversion backend returns for one PDF.
type Result struct {
	// Markdown is the rendered document text.
	Markdown string

	// PageCount is the number of pages processed, when the backend
	// reports it.
	PageCount int

	// Images maps image filename to raw content. All images are persisted
	// next to the Markdown output.
	Images map[string][]byte
}

// Converter transforms a PDF file into Markdown text plus extracted images.
// Different backends implement this interface; tests supply fakes.
type Converter interface {
	Convert(ctx context.Context, pdfPath string) (*Result, error)
}

// BaseName returns the document identifier derived from a PDF path: the
// filename with its extension stripped. All expected output paths hang off
// this name.
func BaseName(pdfPath string) string {
	return strings.TrimSuffix(filepath.Base(pdfPath), filepath.Ext(pdfPath))
}

// ConvertPDF runs the converter on pdfPath and writes the Markdown (with
// YAML frontmatter) and all images into outputDir/<base>/. It returns the
// path of the written Markdown file. Progress goes to w.
func ConvertPDF(ctx context.Context, c Converter, pdfPath, outputDir string, cfg types.ConversionConfig, w io.Writer) (string, error) {
	base := BaseName(pdfPath)
	subdir := filepath.Join(outputDir, base)
	mdPath := filepath.Join(subdir, base+".md")

	fmt.Fprintf(w, "converting %s\n", base)

	result, err := c.Convert(ctx, pdfPath)
	if err != nil {
		return "", fmt.Errorf("converting %s: %w", base, err)
	}

	if err := os.MkdirAll(subdir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}

	content := addFrontmatter(pdfPath, cfg.Model, result.PageCount, result.Markdown)
	if err := os.WriteFile(mdPath, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing markdown: %w", err)
	}

	for name, data := range result.Images {
		if err := os.WriteFile(filepath.Join(subdir, name), data, 0o644); err != nil {
			return "", fmt.Errorf("writing image %s: %w", name, err)
		}
	}

	fmt.Fprintf(w, "converted %s (%d pages, %d images)\n", base, result.PageCount, len(result.Images))
	return mdPath, nil
}

// addFrontmatter prepends YAML frontmatter identifying the source PDF and
// conversion settings to the rendered Markdown.
func addFrontmatter(pdfPath, model string, pages int, body string) string {
	ts := time.Now().UTC().Format(time.RFC3339)
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "source_pdf: %q\n", pdfPath)
	if model != "" {
		fmt.Fprintf(&b, "model: %q\n", model)
	}
	if pages > 0 {
		fmt.Fprintf(&b, "pages: %d\n", pages)
	}
	fmt.Fprintf(&b, "converted_at: %q\n", ts)
	b.WriteString("---\n\n")
	b.WriteString(body)
	return b.String()
}
