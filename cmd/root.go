package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/lehigh-university-libraries/flashcarder/internal/config"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "flashcarder",
		Short: "Turn notes and screenshots into flashcards",
		Long: `Flashcarder is the front-end for a flashcard extraction service.

Paste or type study notes, attach images, and send them to the backend.
In auto mode the extracted cards go straight into your deck; in manual
mode you review, edit and pick the pairs before they are added.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()
		},
		SilenceUsage: true,
	}

	flags := cmd.PersistentFlags()
	flags.String("api-url", "", "Extraction service base URL (env FLASHCARDER_API_URL)")
	flags.String("deck", "", "Target deck (env FLASHCARDER_DECK)")
	flags.String("mode", "", "Submission mode: auto or manual (env FLASHCARDER_MODE)")
	flags.String("contract", "", "Backend contract: unified or split (env FLASHCARDER_CONTRACT)")
	flags.Duration("timeout", 0, "Per-request timeout (env FLASHCARDER_TIMEOUT)")
	flags.String("log-level", "", "Log level: debug, info, warn, error (env FLASHCARDER_LOG_LEVEL)")

	// Add subcommands
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newDecksCmd())
	cmd.AddCommand(newSubmitCmd())
	cmd.AddCommand(newRedCardsCmd())
	cmd.AddCommand(newBatchCmd())

	return cmd
}

// loadConfig resolves the environment, lets explicit flags win, validates
// the result and installs the default logger.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.FromEnv()
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("api-url") {
		cfg.APIURL, _ = flags.GetString("api-url")
	}
	if flags.Changed("deck") {
		cfg.Deck, _ = flags.GetString("deck")
	}
	if flags.Changed("mode") {
		mode, _ := flags.GetString("mode")
		cfg.Mode = strings.ToLower(mode)
	}
	if flags.Changed("contract") {
		contract, _ := flags.GetString("contract")
		cfg.Contract = strings.ToLower(contract)
	}
	if flags.Changed("timeout") {
		cfg.Timeout, _ = flags.GetDuration("timeout")
	}
	if flags.Changed("log-level") {
		level, _ := flags.GetString("log-level")
		cfg.LogLevel = strings.ToLower(level)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()})))
	slog.Debug("Configuration loaded", "api_url", cfg.APIURL, "deck", cfg.Deck, "mode", cfg.Mode, "contract", cfg.Contract)
	return cfg, nil
}

// requireDeck fails early when no deck was configured
func requireDeck(cfg config.Config) error {
	if strings.TrimSpace(cfg.Deck) == "" {
		return fmt.Errorf("no deck configured: pass --deck or set FLASHCARDER_DECK")
	}
	return nil
}
