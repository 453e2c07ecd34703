// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/jaden/paper-pipeline/internal/assemble"
	"github.com/jaden/paper-pipeline/internal/convert"
	"github.com/jaden/paper-pipeline/internal/history"
	"github.com/jaden/paper-pipeline/internal/stage"
	"github.com/jaden/paper-pipeline/internal/transform"
	"github.com/jaden/paper-pipeline/pkg/types"
)

// Stage names as recorded in logs and the run ledger.
const (
	StageMarkdown   = "markdown"
	StageTranscript = "transcript"
	StageExpansion  = "expansion"
)

// Default window sizes. The transcript stage reads raw converted Markdown and
// can afford large windows; the expansion stage rewrites dense transcript
// prose and uses small ones.
const (
	DefaultTranscriptWindow = 50
	DefaultExpansionWindow  = 10
)

// Continuity sentinels for the two windowed stages.
const (
	TranscriptSentinel = "[No previous transcript]"
	ExpansionSentinel  = "[No previous expansion]"
)

// Coordinator runs pipeline stages for one or more PDFs. The converter may be
// nil when no container runtime is available; the Markdown stage then fails
// unless its output already exists.
type Coordinator struct {
	cfg       types.PipelineConfig
	converter convert.Converter
	client    transform.Completer
	store     *history.Store
	log       zerolog.Logger
	progress  io.Writer
}

// New creates a Coordinator. store may be nil to disable run recording, and
// progress may be nil to discard per-window progress output.
func New(cfg types.PipelineConfig, converter convert.Converter, client transform.Completer, store *history.Store, log zerolog.Logger, progress io.Writer) *Coordinator {
	if progress == nil {
		progress = io.Discard
	}
	return &Coordinator{
		cfg:       cfg,
		converter: converter,
		client:    client,
		store:     store,
		log:       log,
		progress:  progress,
	}
}

// Run executes all three stages for the PDF at pdfPath, skipping any stage
// whose output file already exists.
func (c *Coordinator) Run(ctx context.Context, pdfPath string) error {
	if err := c.ConvertStage(ctx, pdfPath); err != nil {
		return err
	}
	if err := c.TranscriptStage(ctx, pdfPath); err != nil {
		return err
	}
	return c.ExpandStage(ctx, pdfPath)
}

// ConvertStage produces the Markdown rendering of the PDF.
func (c *Coordinator) ConvertStage(ctx context.Context, pdfPath string) error {
	paths, err := c.checkPDF(pdfPath)
	if err != nil {
		return err
	}
	if c.skip(paths, StageMarkdown, paths.Markdown) {
		return nil
	}
	if c.converter == nil {
		return fmt.Errorf("no conversion backend available and %s does not exist", paths.Markdown)
	}

	c.log.Info().Str("paper", paths.Base).Str("stage", StageMarkdown).Msg("converting PDF")
	start := time.Now()

	if _, err := convert.ConvertPDF(ctx, c.converter, pdfPath, c.cfg.OutputDir, c.cfg.Conversion, c.progress); err != nil {
		c.record(ctx, history.Run{
			PaperID: paths.Base, Stage: StageMarkdown, Status: history.StatusFailed,
			Model: c.cfg.Conversion.Model, Duration: time.Since(start),
		})
		return fmt.Errorf("markdown stage for %s: %w", paths.Base, err)
	}
	if err := c.verify(StageMarkdown, paths.Markdown); err != nil {
		return err
	}

	c.record(ctx, history.Run{
		PaperID: paths.Base, Stage: StageMarkdown, Status: history.StatusCompleted,
		Model: c.cfg.Conversion.Model, Duration: time.Since(start), Output: paths.Markdown,
	})
	c.log.Info().Str("paper", paths.Base).Str("stage", StageMarkdown).
		Dur("elapsed", time.Since(start)).Msg("stage completed")
	return nil
}

// TranscriptStage turns the converted Markdown into a clean transcript using
// neighbor-window context.
func (c *Coordinator) TranscriptStage(ctx context.Context, pdfPath string) error {
	size := c.cfg.Transcript.WindowSize
	if size <= 0 {
		size = DefaultTranscriptWindow
	}
	return c.windowedStage(ctx, pdfPath, StageTranscript, c.cfg.Transcript, stage.Config{
		WindowSize:         size,
		Mode:               assemble.ModeNeighbors,
		ContinuitySentinel: TranscriptSentinel,
		MaxRetries:         c.cfg.AI.MaxRetries,
	})
}

// ExpandStage expands the transcript with full-document context. The current
// window is repeated in each prompt and trailing blank input lines are
// dropped before windowing.
func (c *Coordinator) ExpandStage(ctx context.Context, pdfPath string) error {
	size := c.cfg.Expansion.WindowSize
	if size <= 0 {
		size = DefaultExpansionWindow
	}
	return c.windowedStage(ctx, pdfPath, StageExpansion, c.cfg.Expansion, stage.Config{
		WindowSize:         size,
		Mode:               assemble.ModeFullDocument,
		RepeatCurrent:      true,
		ContinuitySentinel: ExpansionSentinel,
		MaxRetries:         c.cfg.AI.MaxRetries,
		TrimTrailingBlanks: true,
	})
}

// windowedStage runs one transformation stage through the shared driver.
func (c *Coordinator) windowedStage(ctx context.Context, pdfPath, name string, stageCfg types.StageConfig, runCfg stage.Config) error {
	paths, err := c.checkPDF(pdfPath)
	if err != nil {
		return err
	}

	inputPath, outputPath, prior := c.stageIO(paths, name)
	if c.skip(paths, name, outputPath) {
		return nil
	}
	if _, err := os.Stat(inputPath); err != nil {
		return fmt.Errorf("%s stage for %s: input %s does not exist; run the %s stage first", name, paths.Base, inputPath, prior)
	}

	instructions, err := transform.LoadInstructions(stageCfg.Instructions)
	if err != nil {
		return fmt.Errorf("%s stage for %s: %w", name, paths.Base, err)
	}

	t := &transform.PromptTransformer{
		Instructions: instructions,
		Model:        stageCfg.Model,
		Client:       c.client,
	}

	c.log.Info().Str("paper", paths.Base).Str("stage", name).
		Str("model", stageCfg.Model).Int("window_size", runCfg.WindowSize).
		Msg("transforming")
	start := time.Now()

	summary, err := stage.Run(ctx, inputPath, outputPath, t, runCfg, c.progress)
	if err != nil {
		c.record(ctx, history.Run{
			PaperID: paths.Base, Stage: name, Status: history.StatusFailed,
			Model: stageCfg.Model, Windows: summary.Windows,
			Kept: summary.Kept, Empty: summary.Empty, Duration: time.Since(start),
		})
		return fmt.Errorf("%s stage for %s: %w", name, paths.Base, err)
	}
	if err := c.verify(name, outputPath); err != nil {
		return err
	}

	c.record(ctx, history.Run{
		PaperID: paths.Base, Stage: name, Status: history.StatusCompleted,
		Model: stageCfg.Model, Windows: summary.Windows,
		Kept: summary.Kept, Empty: summary.Empty,
		Duration: time.Since(start), Output: outputPath,
	})
	c.log.Info().Str("paper", paths.Base).Str("stage", name).
		Int("windows", summary.Windows).Int("kept", summary.Kept).Int("empty", summary.Empty).
		Dur("elapsed", time.Since(start)).Msg("stage completed")
	return nil
}

// stageIO maps a windowed stage name to its input, output, and the stage that
// produces the input.
func (c *Coordinator) stageIO(paths Paths, name string) (input, output, prior string) {
	switch name {
	case StageTranscript:
		return paths.Markdown, paths.Transcript, StageMarkdown
	default:
		return paths.Transcript, paths.Expansion, StageTranscript
	}
}

// checkPDF verifies the source PDF exists before any stage work starts.
func (c *Coordinator) checkPDF(pdfPath string) (Paths, error) {
	if _, err := os.Stat(pdfPath); err != nil {
		return Paths{}, fmt.Errorf("source PDF %s: %w", pdfPath, err)
	}
	return DerivePaths(pdfPath, c.cfg.OutputDir), nil
}

// skip reports whether the stage's output already exists, logging and
// recording the skip when it does.
func (c *Coordinator) skip(paths Paths, name, outputPath string) bool {
	if _, err := os.Stat(outputPath); err != nil {
		return false
	}
	c.log.Info().Str("paper", paths.Base).Str("stage", name).
		Str("output", outputPath).Msg("output exists; skipping stage")
	c.record(context.Background(), history.Run{
		PaperID: paths.Base, Stage: name, Status: history.StatusSkipped, Output: outputPath,
	})
	return true
}

// verify confirms the stage's reported output is actually on disk.
func (c *Coordinator) verify(name, outputPath string) error {
	if _, err := os.Stat(outputPath); err != nil {
		return fmt.Errorf("%s stage reported success but output %s is missing: %w", name, outputPath, err)
	}
	return nil
}

// record writes a ledger entry. The ledger is observational; failures are
// logged and otherwise ignored so they never abort a pipeline run.
func (c *Coordinator) record(ctx context.Context, run history.Run) {
	if c.store == nil {
		return
	}
	if err := c.store.Record(ctx, run); err != nil {
		c.log.Warn().Err(err).Str("paper", run.PaperID).Str("stage", run.Stage).
			Msg("could not record run in history ledger")
	}
}
