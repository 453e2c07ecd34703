// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package transform turns one window of input into transformed text by
// prompting an external text-completion service. The Transformer interface
// isolates the stage driver from the service so it can be swapped for a stub
// in tests or a different backend in production.
package transform

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/jaden/paper-pipeline/internal/assemble"
)

// Transformer produces the transformed text for one window given its
// assembled context.
type Transformer interface {
	Transform(ctx context.Context, bundle assemble.Bundle) (string, error)
}

// Completer abstracts the text-completion service: one model identifier and
// one user-role prompt in, one completion string out.
type Completer interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
}

// PromptTransformer renders the window's context bundle into a single prompt
// and sends it to the completion service.
type PromptTransformer struct {
	// Instructions is the stage's transformation rules text, prepended to
	// every prompt.
	Instructions string

	// Model is the completion model identifier for this stage.
	Model string

	// Client performs the completion call.
	Client Completer
}

// Transform renders the prompt for bundle and returns the service's response
// verbatim.
func (p *PromptTransformer) Transform(ctx context.Context, bundle assemble.Bundle) (string, error) {
	prompt, err := renderPrompt(p.Instructions, bundle)
	if err != nil {
		return "", fmt.Errorf("rendering prompt for window %d: %w", bundle.Index, err)
	}
	return p.Client.Complete(ctx, p.Model, prompt)
}

// LoadInstructions reads a stage's instructions side file. A missing or
// empty file is a configuration error, caught before any network call.
func LoadInstructions(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading instructions file: %w", err)
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return "", fmt.Errorf("instructions file %s is empty", path)
	}
	return text, nil
}

// TransientError wraps a failure that may succeed on retry: network errors,
// rate limiting, upstream outages, and malformed responses.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return e.Err.Error() }

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether err (or anything it wraps) is retryable.
func IsTransient(err error) bool {
	var t *TransientError
	return errors.As(err, &t)
}
