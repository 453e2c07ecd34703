// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline coordinates the three document stages end to end:
// PDF to Markdown, Markdown to transcript, transcript to expansion. Stage
// outputs live in a fixed per-document layout, and a stage whose output file
// already exists is skipped, so an interrupted run resumes by rerunning.
package pipeline

import "path/filepath"

// Paths is the per-document output layout under the pipeline output
// directory. All three stage outputs share one subdirectory named after the
// source PDF.
type Paths struct {
	// Base is the PDF filename without its extension; it identifies the
	// document everywhere in the pipeline.
	Base string

	// Dir is the document's output subdirectory.
	Dir string

	Markdown   string
	Transcript string
	Expansion  string
}

// DerivePaths computes the output layout for the PDF at pdfPath.
func DerivePaths(pdfPath, outputDir string) Paths {
	base := filepath.Base(pdfPath)
	if ext := filepath.Ext(base); ext != "" {
		base = base[:len(base)-len(ext)]
	}
	dir := filepath.Join(outputDir, base)
	return Paths{
		Base:       base,
		Dir:        dir,
		Markdown:   filepath.Join(dir, base+".md"),
		Transcript: filepath.Join(dir, base+"-transcript.md"),
		Expansion:  filepath.Join(dir, base+"-expanded.md"),
	}
}
