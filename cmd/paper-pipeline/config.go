package main

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/jaden/paper-pipeline/internal/container"
	"github.com/jaden/paper-pipeline/internal/convert"
	"github.com/jaden/paper-pipeline/internal/history"
	"github.com/jaden/paper-pipeline/internal/pipeline"
	"github.com/jaden/paper-pipeline/internal/transform"
	"github.com/jaden/paper-pipeline/pkg/types"
)

// pipelineConfig assembles the full stage configuration from viper settings
// and loaded secrets.
func pipelineConfig() types.PipelineConfig {
	return types.PipelineConfig{
		OutputDir: viper.GetString("output_dir"),
		AI: types.AIConfig{
			BaseURL:    viper.GetString("ai.base_url"),
			APIKey:     secretDefault("openrouter-api-key", viper.GetString("ai.api_key")),
			Referer:    viper.GetString("ai.referer"),
			Title:      viper.GetString("ai.title"),
			MaxRetries: viper.GetInt("ai.max_retries"),
			Timeout:    viper.GetDuration("ai.timeout"),
		},
		Conversion: types.ConversionConfig{
			Model:          viper.GetString("conversion.model"),
			Image:          viper.GetString("conversion.image"),
			ForceOCR:       viper.GetBool("conversion.force_ocr"),
			RedoInlineMath: viper.GetBool("conversion.redo_inline_math"),
			OutputFormat:   viper.GetString("conversion.output_format"),
		},
		Transcript: types.StageConfig{
			Model:        viper.GetString("transcript.model"),
			WindowSize:   viper.GetInt("transcript.window_size"),
			Instructions: viper.GetString("transcript.instructions"),
		},
		Expansion: types.StageConfig{
			Model:        viper.GetString("expansion.model"),
			WindowSize:   viper.GetInt("expansion.window_size"),
			Instructions: viper.GetString("expansion.instructions"),
		},
		History: types.HistoryConfig{
			Dir: viper.GetString("history.dir"),
		},
	}
}

// newCoordinator wires a pipeline coordinator from the current configuration.
// The completion client is built only when needTransform is set, and the
// conversion backend only when needConvert is set; a missing container
// runtime with needConvert surfaces later, when the Markdown stage actually
// has work to do. The returned cleanup closes the history ledger.
func newCoordinator(needConvert, needTransform bool) (*pipeline.Coordinator, func(), error) {
	cfg := pipelineConfig()

	var client transform.Completer
	if needTransform {
		c, err := transform.NewOpenRouterClient(cfg.AI)
		if err != nil {
			return nil, nil, fmt.Errorf("configuring completion client: %w", err)
		}
		client = c
	}

	var converter convert.Converter
	if needConvert {
		rt, err := container.DetectRuntime()
		if err != nil {
			logger.Warn().Err(err).Msg("no container runtime; PDF conversion unavailable")
		} else {
			mc, err := convert.NewMarkerConverter(rt, cfg.Conversion, cfg.AI)
			if err != nil {
				logger.Warn().Err(err).Msg("conversion backend unavailable")
			} else {
				converter = mc
			}
		}
	}

	var store *history.Store
	cleanup := func() {}
	if cfg.History.Dir != "" {
		s, err := history.Open(cfg.History.Dir)
		if err != nil {
			logger.Warn().Err(err).Msg("history ledger unavailable; runs will not be recorded")
		} else {
			store = s
			cleanup = func() { s.Close() }
		}
	}

	return pipeline.New(cfg, converter, client, store, logger, os.Stderr), cleanup, nil
}
