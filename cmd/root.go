package cmd

import (
	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/image-analyzer/internal/config"
	"github.com/spf13/cobra"
)

func NewRootCmd(version string) *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "image-analyzer",
		Short: "Structured image analysis with vision-capable LLMs",
		Long: `Image Analyzer sends an image to a vision-capable LLM and asks for a
structured JSON description: a free-text description, the color palette,
the aspect ratio and the subjects detected.

It can run as a web service or analyze a single image from the terminal.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
			return config.Init(cfgFile)
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.config/image-analyzer/config.yaml)")

	cmd.AddCommand(newServeCmd(version))
	cmd.AddCommand(newAnalyzeCmd())
	cmd.AddCommand(newKeyCmd())

	return cmd
}
