// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package assemble

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaden/paper-pipeline/internal/window"
)

// threeWindows partitions six lines into three windows of two.
func threeWindows(t *testing.T) []window.Window {
	t.Helper()
	lines := []string{"a", "b", "c", "d", "e", "f"}
	windows, err := window.Partition(lines, 2)
	require.NoError(t, err)
	require.Len(t, windows, 3)
	return windows
}

func TestAssemble_NeighborMode(t *testing.T) {
	windows := threeWindows(t)
	cfg := Config{Mode: ModeNeighbors}

	first := Assemble(windows, 0, "", "", cfg)
	assert.Equal(t, NoPreviousContent, first.Previous)
	assert.Equal(t, "a\nb", first.Current)
	assert.Equal(t, "c\nd", first.Next)
	assert.Equal(t, NoPreviousOutput, first.PreviousOutput)

	middle := Assemble(windows, 1, "earlier output", "", cfg)
	assert.Equal(t, "a\nb", middle.Previous)
	assert.Equal(t, "c\nd", middle.Current)
	assert.Equal(t, "e\nf", middle.Next)
	assert.Equal(t, "earlier output", middle.PreviousOutput)

	last := Assemble(windows, 2, "earlier output", "", cfg)
	assert.Equal(t, "c\nd", last.Previous)
	assert.Equal(t, "e\nf", last.Current)
	assert.Equal(t, NoFollowingContent, last.Next)
}

func TestAssemble_FullDocumentMode(t *testing.T) {
	windows := threeWindows(t)
	doc := "a\nb\nc\nd\ne\nf"
	cfg := Config{Mode: ModeFullDocument, RepeatCurrent: true}

	b := Assemble(windows, 1, "", doc, cfg)
	assert.Equal(t, doc, b.FullDocument)
	assert.Equal(t, "c\nd", b.Current)
	assert.True(t, b.RepeatCurrent)

	// Neighbor slots stay empty in full-document mode.
	assert.Empty(t, b.Previous)
	assert.Empty(t, b.Next)
}

func TestAssemble_ContinuitySentinel(t *testing.T) {
	windows := threeWindows(t)
	cfg := Config{Mode: ModeNeighbors, ContinuitySentinel: "[No previous transcript]"}

	unset := Assemble(windows, 0, "", "", cfg)
	assert.Equal(t, "[No previous transcript]", unset.PreviousOutput)

	set := Assemble(windows, 1, "kept output", "", cfg)
	assert.Equal(t, "kept output", set.PreviousOutput)
}

func TestAssemble_LineRange(t *testing.T) {
	windows := threeWindows(t)
	b := Assemble(windows, 2, "", "", Config{Mode: ModeNeighbors})
	assert.Equal(t, 4, b.Start)
	assert.Equal(t, 6, b.End)
	assert.Equal(t, 2, b.Index)
	assert.Equal(t, 3, b.Total)
}
