// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package stage drives one windowed transformation stage: it partitions the
// input document, feeds each window plus its assembled context to a
// transformer, and stitches the per-window results into the output document.
//
// Windows are processed strictly in index order because each window's prompt
// carries the previous window's output. That continuity state is owned
// exclusively by the driver for the duration of one run.
package stage

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jaden/paper-pipeline/internal/assemble"
	"github.com/jaden/paper-pipeline/internal/transform"
	"github.com/jaden/paper-pipeline/internal/window"
)

// separator joins retained window outputs in the final document.
const separator = "\n\n"

// Config holds the windowing and context policy for one stage run.
type Config struct {
	// WindowSize is the number of input lines per window. Must be positive.
	WindowSize int

	// Mode selects neighbor-window or full-document context assembly.
	Mode assemble.Mode

	// RepeatCurrent duplicates the current window in each prompt.
	RepeatCurrent bool

	// ContinuitySentinel is the text standing in for the previous output
	// when continuity is unset or was reset.
	ContinuitySentinel string

	// MaxRetries bounds per-window retries of transient transformer
	// failures (default 3).
	MaxRetries int

	// TrimTrailingBlanks drops trailing blank lines from the input before
	// windowing. The expansion stage uses this so its final windows are
	// not padded with emptiness.
	TrimTrailingBlanks bool
}

// Summary reports what one stage run did.
type Summary struct {
	// Windows is the number of windows the input partitioned into.
	Windows int

	// Kept counts windows whose transformed output was retained.
	Kept int

	// Empty counts windows that produced empty output and were dropped.
	Empty int
}

// Run transforms the document at inputPath window by window and writes the
// stitched result to outputPath. Progress is reported per window to w.
//
// Empty transformer output is not an error: the window contributes nothing
// and continuity resets, but the event is reported since an upstream refusal
// can look exactly like this. Any other failure aborts the run with no
// output file written; a rerun starts over from window zero.
func Run(ctx context.Context, inputPath, outputPath string, t transform.Transformer, cfg Config, w io.Writer) (Summary, error) {
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return Summary{}, fmt.Errorf("reading input %s: %w", inputPath, err)
	}
	content := string(data)

	lines := splitLines(content)
	if cfg.TrimTrailingBlanks {
		for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
			lines = lines[:len(lines)-1]
		}
	}

	windows, err := window.Partition(lines, cfg.WindowSize)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Windows: len(windows)}

	if len(windows) == 0 {
		fmt.Fprintf(w, "input %s is empty; writing empty output\n", inputPath)
		return summary, writeOutput(outputPath, "")
	}

	fmt.Fprintf(w, "%d lines, %d windows of up to %d lines\n", len(lines), len(windows), cfg.WindowSize)

	asmCfg := assemble.Config{
		Mode:               cfg.Mode,
		RepeatCurrent:      cfg.RepeatCurrent,
		ContinuitySentinel: cfg.ContinuitySentinel,
	}

	var parts []string
	continuity := ""

	for i, win := range windows {
		fmt.Fprintf(w, "window %d/%d (lines %d-%d)\n", i+1, len(windows), win.Start+1, win.End)

		bundle := assemble.Assemble(windows, i, continuity, content, asmCfg)

		out, err := callWithRetry(ctx, t, bundle, cfg.MaxRetries)
		if err != nil {
			return summary, fmt.Errorf("transforming window %d (lines %d-%d): %w", i+1, win.Start+1, win.End, err)
		}

		trimmed := strings.TrimSpace(out)
		if trimmed == "" {
			// Deliberately not an error, but worth flagging: a refusal
			// upstream manifests the same way.
			fmt.Fprintf(w, "window %d/%d produced no output; continuity reset\n", i+1, len(windows))
			continuity = ""
			summary.Empty++
			continue
		}

		parts = append(parts, trimmed)
		continuity = trimmed
		summary.Kept++
	}

	if err := writeOutput(outputPath, strings.Join(parts, separator)); err != nil {
		return summary, err
	}

	fmt.Fprintf(w, "wrote %s (%d windows: %d kept, %d empty)\n", outputPath, summary.Windows, summary.Kept, summary.Empty)
	return summary, nil
}

// backoffBase controls the base duration for per-window retry backoff.
// Tests override this to avoid real sleeps.
var backoffBase = time.Second

// callWithRetry invokes the transformer, retrying transient failures with
// exponential backoff. Permanent failures return immediately.
func callWithRetry(ctx context.Context, t transform.Transformer, bundle assemble.Bundle, maxRetries int) (string, error) {
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		out, err := t.Transform(ctx, bundle)
		if err == nil {
			return out, nil
		}
		if !transform.IsTransient(err) {
			return "", err
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// splitLines breaks content into lines with terminators stripped. A single
// trailing newline does not produce a final empty line; interior blank lines
// are preserved.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}
	content = strings.TrimSuffix(content, "\n")
	if content == "" {
		return nil
	}
	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}

// writeOutput creates the output's directory if needed and writes the stage
// document in one shot.
func writeOutput(path, content string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing output %s: %w", path, err)
	}
	return nil
}
