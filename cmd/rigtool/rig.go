package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/avatarforge/autorig/internal/classifier"
	"github.com/avatarforge/autorig/internal/config"
	"github.com/avatarforge/autorig/internal/logger"
	"github.com/avatarforge/autorig/internal/pipeline"
	"github.com/avatarforge/autorig/internal/tiers"
)

func newRigCommand(cfg **config.Config) *cobra.Command {
	var outFlag string
	var planFlag string

	cmd := &cobra.Command{
		Use:   "rig <model.glb>",
		Short: "Synthesize a skeleton and morph targets into a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading model: %w", err)
			}

			engine := buildEngine(*cfg)
			result, err := engine.Rig(cmd.Context(), data, planFlag)
			if err != nil {
				return err
			}

			out := outFlag
			if out == "" {
				out = riggedPath(args[0])
			}
			if err := os.WriteFile(out, result.RiggedBytes, 0o644); err != nil {
				return fmt.Errorf("writing rigged model: %w", err)
			}

			stats := result.Statistics
			fmt.Fprintf(cmd.OutOrStdout(),
				"%s: %d bones, %d morphs, %d -> %d bytes (%s strategy, %dms)\n",
				out, stats.BoneCount, stats.MorphCount,
				stats.OriginalSize, stats.RiggedSize, stats.Strategy, stats.ProcessingTimeMs)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outFlag, "output", "o", "", "Output path (default: <input>.rigged.glb)")
	cmd.Flags().StringVarP(&planFlag, "plan", "p", "free", "Subscription plan identifier")

	return cmd
}

// buildEngine wires the pipeline from loaded configuration.
func buildEngine(cfg *config.Config) *pipeline.Engine {
	provider := tiers.NewProvider(cfg.Tiers)

	var cls *classifier.Client
	if cfg.Classifier.Enabled {
		cls = classifier.NewClient(classifier.Config{
			BaseURL:        cfg.Classifier.BaseURL,
			APIKey:         cfg.Classifier.APIKey,
			TimeoutSeconds: cfg.Classifier.TimeoutSeconds,
		})
	}

	return pipeline.New(provider, cls, cfg.CeilingBytes(), logger.Log)
}

// riggedPath derives the default output path from the input path.
func riggedPath(in string) string {
	if idx := strings.LastIndex(in, "."); idx > 0 {
		return in[:idx] + ".rigged" + in[idx:]
	}
	return in + ".rigged"
}
