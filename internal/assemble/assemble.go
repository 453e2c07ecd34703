// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assemble derives the contextual material each window's prompt
// carries: neighboring input windows, the full input document, and the
// previous window's transformed output.
package assemble

import (
	"strings"

	"github.com/jaden/paper-pipeline/internal/window"
)

// Mode selects which contextual material accompanies the current window.
type Mode int

const (
	// ModeNeighbors carries one window of lookback and lookahead over the
	// input, for stages where local context suffices.
	ModeNeighbors Mode = iota

	// ModeFullDocument carries the entire input document, for stages that
	// need long-range referential context. Re-sending the whole document
	// per window trades request cost for context completeness; this is
	// intentional, not an optimization target.
	ModeFullDocument
)

// Sentinel text substituted when a context slot has nothing to offer. The
// exact wording is part of the prompt contract with the instructions files.
const (
	NoPreviousContent  = "[No previous content]"
	NoFollowingContent = "[No following content]"
	NoPreviousOutput   = "[No previous output]"
)

// Config selects the assembly variant for one stage.
type Config struct {
	Mode Mode

	// RepeatCurrent duplicates the current window's content in the bundle
	// so the prompt can restate it, reducing the risk that the model
	// paraphrases instead of preserving source wording.
	RepeatCurrent bool

	// ContinuitySentinel replaces the previous-output slot when continuity
	// is unset or was reset. Empty selects NoPreviousOutput.
	ContinuitySentinel string
}

// Bundle is the assembled context handed to the transformer for one window.
// Every text field is ready for direct prompt insertion; empty slots already
// carry their sentinel.
type Bundle struct {
	Mode  Mode
	Index int
	Total int

	// Start and End are the current window's line range (half-open, 0-based).
	Start int
	End   int

	// Previous and Next hold the neighboring input windows in ModeNeighbors.
	Previous string
	Current  string
	Next     string

	// FullDocument holds the entire input document in ModeFullDocument.
	FullDocument string

	// PreviousOutput is the continuity state: the prior window's transformed
	// output, or the continuity sentinel.
	PreviousOutput string

	RepeatCurrent bool
}

// Assemble builds the context bundle for windows[index]. continuity is the
// prior window's trimmed output, or "" when unset or reset. fullDoc is the
// raw input document, consulted only in ModeFullDocument.
func Assemble(windows []window.Window, index int, continuity, fullDoc string, cfg Config) Bundle {
	cur := windows[index]

	b := Bundle{
		Mode:          cfg.Mode,
		Index:         index,
		Total:         len(windows),
		Start:         cur.Start,
		End:           cur.End,
		Current:       strings.Join(cur.Lines, "\n"),
		RepeatCurrent: cfg.RepeatCurrent,
	}

	sentinel := cfg.ContinuitySentinel
	if sentinel == "" {
		sentinel = NoPreviousOutput
	}
	b.PreviousOutput = continuity
	if b.PreviousOutput == "" {
		b.PreviousOutput = sentinel
	}

	switch cfg.Mode {
	case ModeFullDocument:
		b.FullDocument = fullDoc
	default:
		b.Previous = NoPreviousContent
		if index > 0 {
			b.Previous = strings.Join(windows[index-1].Lines, "\n")
		}
		b.Next = NoFollowingContent
		if index < len(windows)-1 {
			b.Next = strings.Join(windows[index+1].Lines, "\n")
		}
	}

	return b
}
