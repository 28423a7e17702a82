package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

func newDecksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decks",
		Short: "List the decks known to the backend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			decks, err := cfg.Backend(slog.Default()).Decks(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list decks: %w", err)
			}
			for _, d := range decks {
				marker := " "
				if d == cfg.Deck {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, d)
			}
			return nil
		},
	}
}
