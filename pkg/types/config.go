// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the configuration structures shared across pipeline
// stages. All settings are passed explicitly into stage drivers at invocation
// time; there is no process-wide mutable configuration.
package types

import "time"

// AIConfig holds shared settings for stages that call the text-completion API.
type AIConfig struct {
	// BaseURL is the completion endpoint base (default: the OpenRouter
	// OpenAI-compatible endpoint). Pointing it elsewhere allows direct
	// vendor endpoints or local proxies.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is the authentication key for the completion API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Referer and Title are sent as HTTP-Referer and X-Title headers;
	// OpenRouter uses them for request attribution.
	Referer string `json:"referer" yaml:"referer"`
	Title   string `json:"title" yaml:"title"`

	// MaxRetries is the number of retry attempts for transient completion
	// failures (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Timeout is the HTTP request timeout for completion calls.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// ConversionConfig holds settings for the PDF-to-Markdown stage.
type ConversionConfig struct {
	// Model is the model identifier the conversion backend delegates
	// text generation to (e.g. "anthropic/claude-haiku-4.5").
	Model string `json:"model" yaml:"model"`

	// Image is the container image that runs the conversion backend.
	Image string `json:"image" yaml:"image"`

	// ForceOCR forces OCR on every page instead of trusting embedded text.
	ForceOCR bool `json:"force_ocr" yaml:"force_ocr"`

	// RedoInlineMath re-renders inline math expressions during conversion.
	RedoInlineMath bool `json:"redo_inline_math" yaml:"redo_inline_math"`

	// OutputFormat selects the rendered output format (default "markdown").
	OutputFormat string `json:"output_format" yaml:"output_format"`
}

// StageConfig holds settings for one windowed transformation stage
// (Markdown-to-transcript or transcript-to-expansion).
type StageConfig struct {
	// Model is the completion model identifier for this stage.
	Model string `json:"model" yaml:"model"`

	// WindowSize is the number of input lines per window. Must be positive.
	WindowSize int `json:"window_size" yaml:"window_size"`

	// Instructions is the path to the side file holding the stage's
	// transformation rules. The file must exist; its contents are prepended
	// to every window prompt.
	Instructions string `json:"instructions" yaml:"instructions"`
}

// HistoryConfig holds settings for the run ledger.
type HistoryConfig struct {
	// Dir is the directory holding the ledger database. Empty disables
	// run recording.
	Dir string `json:"dir" yaml:"dir"`
}

// PipelineConfig groups all stage configurations for one pipeline invocation.
type PipelineConfig struct {
	// OutputDir is the base directory under which the per-document output
	// subdirectory is created.
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	AI         AIConfig         `json:"ai" yaml:"ai"`
	Conversion ConversionConfig `json:"conversion" yaml:"conversion"`
	Transcript StageConfig      `json:"transcript" yaml:"transcript"`
	Expansion  StageConfig      `json:"expansion" yaml:"expansion"`
	History    HistoryConfig    `json:"history" yaml:"history"`
}
