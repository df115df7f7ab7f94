package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/lehigh-university-libraries/image-analyzer/internal/config"
	"github.com/lehigh-university-libraries/image-analyzer/internal/media"
	"github.com/lehigh-university-libraries/image-analyzer/internal/prompt"
	"github.com/lehigh-university-libraries/image-analyzer/internal/providers"
	"github.com/lehigh-university-libraries/image-analyzer/internal/selection"
	"github.com/spf13/cobra"
)

func newAnalyzeCmd() *cobra.Command {
	var (
		provider string
		fields   []string
	)

	cmd := &cobra.Command{
		Use:   "analyze <image>",
		Short: "Analyze a single image and print the model's JSON answer",
		Long: `Reads an image from disk, verifies the provider credential and asks the model
for the selected output fields.

Fields: description, color-palette, aspect-ratio, subjects-detected`,
		Example: `  # Ask Claude for the aspect ratio
  image-analyzer analyze photo.png --field aspect-ratio

  # Use a local Ollama model for everything
  image-analyzer analyze scan.jpg --provider ollama \
    --field description --field color-palette --field aspect-ratio --field subjects-detected`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := providers.ParseID(provider)
			if err != nil {
				return err
			}

			state := selection.New()
			state.Subscribe(func(snap selection.Snapshot) {
				slog.Debug("Selection changed", "progress", snap.Progress, "ready", snap.Ready)
			})

			for _, name := range fields {
				f, err := prompt.ParseField(name)
				if err != nil {
					return err
				}
				state.SetField(f, true)
			}
			state.SetModel(id, true)

			img, err := loadImage(args[0])
			if err != nil {
				return err
			}
			state.SetImage(img)

			snap := state.Snapshot()
			if !snap.Ready {
				return fmt.Errorf("not ready to analyze: image=%t model=%t fields=%t", snap.ImageReady, snap.ModelReady, snap.FieldsReady)
			}

			orchestrator, err := newOrchestrator()
			if err != nil {
				return err
			}
			store, err := openCredentials()
			if err != nil {
				return err
			}
			credential, hasKey := store.Get(id)

			slog.Info("Analyzing image",
				"file", img.Name,
				"type", img.MediaType,
				"size", humanize.Bytes(uint64(len(img.Data))),
				"provider", id,
				"fields", state.Fields(),
				"has_key", hasKey,
			)

			result := orchestrator.Analyze(cmd.Context(), id, state.Image(), state.Fields(), credential)
			if err := result.Err(); err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSpace(result.Text))
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", string(providers.Anthropic), "Provider to use (anthropic, openai, ollama, gemini)")
	cmd.Flags().StringArrayVarP(&fields, "field", "f", nil, "Output field to request (repeatable)")

	return cmd
}

func loadImage(path string) (*media.Image, error) {
	if !media.Accepted(path) {
		return nil, fmt.Errorf("unsupported image type: %s", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	return media.Read(f, path, config.GetUploadLimit())
}
