package cmd

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lehigh-university-libraries/flashcarder/internal/session"
	"github.com/lehigh-university-libraries/flashcarder/internal/tui"
	"github.com/spf13/cobra"
)

func newRedCardsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "redcards",
		Short: "Review replacement suggestions for flagged cards",
		Long: `Fetches the flagged ("red") cards of the deck together with the
replacements the backend suggests, lets you pick which suggestions to
keep, and sends the choices back.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := requireDeck(cfg); err != nil {
				return err
			}

			sess := session.New(cfg.Backend(slog.Default()),
				session.WithDeck(cfg.Deck),
				session.WithLogger(slog.Default()),
			)
			defer sess.Close()

			cards, err := sess.FetchRedCards(cmd.Context())
			if err != nil {
				return err
			}
			if len(cards) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No flagged cards in", cfg.Deck)
				return nil
			}

			final, err := tea.NewProgram(tui.NewRedCards(cmd.Context(), sess), tea.WithAltScreen()).Run()
			if err != nil {
				return fmt.Errorf("failed to run red card review: %w", err)
			}
			if m, ok := final.(tui.RedCardsModel); ok && m.Saved() {
				fmt.Fprintf(cmd.OutOrStdout(), "Saved choices for %d flagged cards.\n", len(cards))
			}
			return nil
		},
	}
}
