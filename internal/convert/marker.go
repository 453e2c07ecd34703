// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jaden/paper-pipeline/internal/container"
	"github.com/jaden/paper-pipeline/pkg/types"
)

// Defaults for the containerized marker backend.
const (
	DefaultImage        = "marker:latest"
	defaultOutputFormat = "markdown"
)

// MarkerConverter converts PDFs by piping them through the marker container
// image. The container reads the PDF on stdin and emits a JSON result on
// stdout; actual text generation inside marker is delegated to the
// configured completion model.
type MarkerConverter struct {
	runtime container.Runtime
	image   string
	cfg     types.ConversionConfig
	ai      types.AIConfig
}

// markerResult is the JSON document the marker container writes to stdout.
// Image contents arrive base64-encoded, which encoding/json decodes into
// byte slices directly.
type markerResult struct {
	Markdown  string            `json:"markdown"`
	PageCount int               `json:"page_count"`
	Images    map[string][]byte `json:"images"`
}

// NewMarkerConverter creates a converter that runs the marker image through
// the given container runtime. It verifies the image exists locally before
// returning.
func NewMarkerConverter(rt container.Runtime, cfg types.ConversionConfig, ai types.AIConfig) (*MarkerConverter, error) {
	image := cfg.Image
	if image == "" {
		image = DefaultImage
	}
	if err := rt.ImageExists(image); err != nil {
		return nil, fmt.Errorf("marker image not available in %s: %w", rt.Name(), err)
	}
	return &MarkerConverter{runtime: rt, image: image, cfg: cfg, ai: ai}, nil
}

// Convert pipes the PDF at pdfPath through the marker container and parses
// the JSON result.
func (m *MarkerConverter) Convert(ctx context.Context, pdfPath string) (*Result, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening PDF %s: %w", pdfPath, err)
	}
	defer f.Close()

	var out bytes.Buffer
	if err := m.runtime.Run(m.image, m.args(), m.env(), f, &out); err != nil {
		return nil, fmt.Errorf("running marker on %s: %w", pdfPath, err)
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("marker produced empty output for %s", pdfPath)
	}

	var res markerResult
	if err := json.Unmarshal(out.Bytes(), &res); err != nil {
		return nil, fmt.Errorf("parsing marker result: %w", err)
	}
	if res.Markdown == "" {
		return nil, fmt.Errorf("marker returned no markdown for %s", pdfPath)
	}

	return &Result{
		Markdown:  res.Markdown,
		PageCount: res.PageCount,
		Images:    res.Images,
	}, nil
}

// args builds the marker command line from the conversion settings.
func (m *MarkerConverter) args() []string {
	format := m.cfg.OutputFormat
	if format == "" {
		format = defaultOutputFormat
	}
	args := []string{"--output-format", format}
	if m.cfg.ForceOCR {
		args = append(args, "--force-ocr")
	}
	if m.cfg.RedoInlineMath {
		args = append(args, "--redo-inline-math")
	}
	if m.cfg.Model != "" {
		args = append(args, "--use-llm", "--llm-model", m.cfg.Model)
	}
	return args
}

// env passes the completion service credentials into the container so marker
// can delegate text generation.
func (m *MarkerConverter) env() []string {
	var env []string
	if m.ai.APIKey != "" {
		env = append(env, "OPENROUTER_API_KEY="+m.ai.APIKey)
	}
	if m.ai.BaseURL != "" {
		env = append(env, "OPENROUTER_BASE_URL="+m.ai.BaseURL)
	}
	return env
}
