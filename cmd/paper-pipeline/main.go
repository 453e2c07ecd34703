// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package main is the entry point for the paper-pipeline CLI.
//
// paper-pipeline turns research paper PDFs into expanded study documents in
// three stages: PDF to Markdown (containerized converter), Markdown to
// transcript, and transcript to expansion. Each stage is a subcommand; run
// executes all three in order.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jaden/paper-pipeline/internal/convert"
	"github.com/jaden/paper-pipeline/internal/secrets"
	"github.com/jaden/paper-pipeline/internal/transform"
)

// version is set at build time via ldflags.
var version = "dev"

// loadedSecrets holds API keys loaded from .secrets/ at startup.
var loadedSecrets map[string]string

// logger is the process-wide structured logger, configured in the root
// command's PersistentPreRunE.
var logger zerolog.Logger

// secretDefault returns fallback when set, otherwise the secret value for key.
func secretDefault(key, fallback string) string {
	if fallback != "" {
		return fallback
	}
	if v, ok := loadedSecrets[key]; ok {
		return v
	}
	return ""
}

// rootCmd is the base command for the paper-pipeline CLI.
var rootCmd = &cobra.Command{
	Use:   "paper-pipeline",
	Short: "Turn paper PDFs into expanded study documents",
	Long: `paper-pipeline converts research paper PDFs into documents suitable for
deep reading. Three stages run in order: convert renders the PDF to Markdown
through a containerized converter, transcript rewrites the Markdown into clean
prose, and expand elaborates the transcript sentence by sentence.

The two text stages process the document in line windows, carrying each
window's output into the next window's prompt so terminology and narrative
stay consistent across the document. Stage outputs are plain files under the
output directory; a stage whose output already exists is skipped, so rerunning
after an interruption resumes where the pipeline left off.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := zerolog.InfoLevel
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = zerolog.DebugLevel
		}
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
			Level(level).With().Timestamp().Logger()

		s, err := secrets.Load(".secrets/")
		if err != nil {
			return err
		}
		loadedSecrets = s
		if len(s) > 0 {
			keys := make([]string, 0, len(s))
			for k := range s {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			logger.Debug().Strs("keys", keys).Msg("loaded secrets")
		}
		return nil
	},
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ./paper-pipeline.yaml or ~/.config/paper-pipeline/config.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "enable debug logging")
}

func initConfig() {
	cfgFile, _ := rootCmd.PersistentFlags().GetString("config")
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("paper-pipeline")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")

		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "paper-pipeline"))
		}
	}

	viper.SetDefault("output_dir", "papers")

	viper.SetDefault("ai.base_url", transform.DefaultBaseURL)
	viper.SetDefault("ai.referer", "https://github.com/jaden/paper-pipeline")
	viper.SetDefault("ai.title", "paper-pipeline")
	viper.SetDefault("ai.max_retries", 3)

	viper.SetDefault("conversion.model", "anthropic/claude-haiku-4.5")
	viper.SetDefault("conversion.image", convert.DefaultImage)
	viper.SetDefault("conversion.force_ocr", false)
	viper.SetDefault("conversion.redo_inline_math", false)

	viper.SetDefault("transcript.model", "anthropic/claude-haiku-4.5")
	viper.SetDefault("transcript.window_size", 50)
	viper.SetDefault("transcript.instructions", "instructions/transcript.txt")

	viper.SetDefault("expansion.model", "moonshotai/kimi-k2-thinking")
	viper.SetDefault("expansion.window_size", 10)
	viper.SetDefault("expansion.instructions", "instructions/expansion.txt")

	viper.SetDefault("history.dir", ".history")

	viper.SetEnvPrefix("PAPER_PIPELINE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
