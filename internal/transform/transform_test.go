// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package transform

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaden/paper-pipeline/internal/assemble"
)

// captureCompleter records the prompt it was handed and returns a canned
// completion.
type captureCompleter struct {
	model  string
	prompt string
	out    string
	err    error
}

func (c *captureCompleter) Complete(_ context.Context, model, prompt string) (string, error) {
	c.model = model
	c.prompt = prompt
	return c.out, c.err
}

func TestPromptTransformer_TranscriptLayout(t *testing.T) {
	client := &captureCompleter{out: "transcribed"}
	tr := &PromptTransformer{
		Instructions: "RULES GO HERE",
		Model:        "anthropic/claude-haiku-4.5",
		Client:       client,
	}

	bundle := assemble.Bundle{
		Mode:           assemble.ModeNeighbors,
		Previous:       assemble.NoPreviousContent,
		Current:        "current window text",
		Next:           "next window text",
		PreviousOutput: "[No previous transcript]",
	}

	out, err := tr.Transform(context.Background(), bundle)
	require.NoError(t, err)
	assert.Equal(t, "transcribed", out)
	assert.Equal(t, "anthropic/claude-haiku-4.5", client.model)

	p := client.prompt
	assert.True(t, strings.HasPrefix(p, "RULES GO HERE"), "instructions must lead the prompt")

	// Fixed section order.
	sections := []string{
		"PREVIOUS ORIGINAL WINDOW (for context only):",
		"CURRENT ORIGINAL WINDOW (PROCESS THIS):",
		"NEXT ORIGINAL WINDOW (for context only):",
		"PREVIOUS TRANSCRIPT OUTPUT (for consistency):",
		"YOUR TASK:",
		"Return ONLY the transcript text, nothing else.",
	}
	last := -1
	for _, s := range sections {
		idx := strings.Index(p, s)
		require.GreaterOrEqual(t, idx, 0, "prompt missing section %q", s)
		assert.Greater(t, idx, last, "section %q out of order", s)
		last = idx
	}

	assert.Contains(t, p, assemble.NoPreviousContent)
	assert.Contains(t, p, "current window text")
	assert.Equal(t, 1, strings.Count(p, "current window text"), "transcript prompt must not repeat the window")
}

func TestPromptTransformer_ExpansionLayout(t *testing.T) {
	client := &captureCompleter{out: "expanded"}
	tr := &PromptTransformer{Instructions: "EXPANSION RULES", Model: "moonshotai/kimi-k2-thinking", Client: client}

	bundle := assemble.Bundle{
		Mode:           assemble.ModeFullDocument,
		FullDocument:   "the whole transcript",
		Current:        "window to expand",
		PreviousOutput: "[No previous expansion]",
		RepeatCurrent:  true,
	}

	_, err := tr.Transform(context.Background(), bundle)
	require.NoError(t, err)

	p := client.prompt
	sections := []string{
		"FULL ORIGINAL TRANSCRIPT (for paper-wide context and references):",
		"CURRENT TRANSCRIPT WINDOW (EXPAND THIS):",
		"PREVIOUS EXPANSION OUTPUT (for consistency):",
		"CURRENT WINDOW REPEATED (to reduce risk of rewording):",
		"Return ONLY the expanded text, nothing else.",
	}
	last := -1
	for _, s := range sections {
		idx := strings.Index(p, s)
		require.GreaterOrEqual(t, idx, 0, "prompt missing section %q", s)
		assert.Greater(t, idx, last, "section %q out of order", s)
		last = idx
	}

	assert.Equal(t, 2, strings.Count(p, "window to expand"), "repeat flag must duplicate the window")
	assert.NotContains(t, p, "NEXT ORIGINAL WINDOW")
}

func TestPromptTransformer_NoRepeat(t *testing.T) {
	client := &captureCompleter{}
	tr := &PromptTransformer{Instructions: "R", Model: "m", Client: client}

	bundle := assemble.Bundle{
		Mode:          assemble.ModeFullDocument,
		FullDocument:  "doc",
		Current:       "window to expand",
		RepeatCurrent: false,
	}
	_, err := tr.Transform(context.Background(), bundle)
	require.NoError(t, err)

	assert.Equal(t, 1, strings.Count(client.prompt, "window to expand"))
	assert.NotContains(t, client.prompt, "CURRENT WINDOW REPEATED")
}

func TestLoadInstructions(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "rules.txt")
	require.NoError(t, os.WriteFile(path, []byte("  follow the rules\n"), 0o644))

	text, err := LoadInstructions(path)
	require.NoError(t, err)
	assert.Equal(t, "follow the rules", text)

	_, err = LoadInstructions(filepath.Join(dir, "absent.txt"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.txt")
	require.NoError(t, os.WriteFile(empty, []byte("  \n"), 0o644))
	_, err = LoadInstructions(empty)
	assert.Error(t, err)
}

func TestIsTransient(t *testing.T) {
	assert.False(t, IsTransient(nil))
	assert.False(t, IsTransient(os.ErrNotExist))
	assert.True(t, IsTransient(&TransientError{Err: os.ErrDeadlineExceeded}))
}
