package cmd

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/lehigh-university-libraries/image-analyzer/internal/config"
	"github.com/lehigh-university-libraries/image-analyzer/internal/credentials"
	"github.com/lehigh-university-libraries/image-analyzer/internal/providers"
	"github.com/spf13/cobra"
)

func newKeyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage provider API keys",
	}

	cmd.AddCommand(newKeySetCmd())
	cmd.AddCommand(newKeyListCmd())

	return cmd
}

func newKeySetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <provider> [key]",
		Short: "Store an API key for a provider",
		Long: `Stores an API key in the credential file. When the key is omitted it is read
from standard input so it stays out of the shell history. An empty key removes
the stored one.`,
		Example: `  echo "$KEY" | image-analyzer key set anthropic`,
		Args:    cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := providers.ParseID(args[0])
			if err != nil {
				return err
			}

			var secret string
			if len(args) == 2 {
				secret = args[1]
			} else {
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return fmt.Errorf("failed to read key: %w", err)
				}
				secret = line
			}

			store, err := openCredentials()
			if err != nil {
				return err
			}
			if err := store.Set(id, secret); err != nil {
				return err
			}

			if strings.TrimSpace(secret) == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Removed key for %s\n", id)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Stored key for %s in %s\n", id, config.GetCredentialsFile())
			}
			return nil
		},
	}
}

func newKeyListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show which providers have a key",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openCredentials()
			if err != nil {
				return err
			}

			configured := store.Providers()
			for _, id := range providers.All {
				status := "not set"
				if slices.Contains(configured, id) {
					status = "set"
				}
				if id == providers.Ollama {
					status = "not required"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-10s %-12s (%s)\n", id, status, credentials.EnvVar(id))
			}
			return nil
		},
	}
}
