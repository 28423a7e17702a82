package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/lehigh-university-libraries/flashcarder/internal/activity"
	"github.com/lehigh-university-libraries/flashcarder/internal/models"
	"github.com/lehigh-university-libraries/flashcarder/internal/session"
	"github.com/lehigh-university-libraries/flashcarder/internal/transcript"
	"github.com/lehigh-university-libraries/flashcarder/internal/tui"
	"github.com/spf13/cobra"
)

func newSubmitCmd() *cobra.Command {
	var (
		text           string
		files          []string
		yes            bool
		transcriptPath string
	)

	cmd := &cobra.Command{
		Use:   "submit [notes...]",
		Short: "Send notes and images to the extraction service",
		Long: `Submits text and images to the backend.

In auto mode the cards are added at once and the per-card outcome is
printed. In manual mode the extracted pairs open in an interactive
review where they can be toggled and edited before confirming.

Text may come from --text, from the arguments, or from stdin with "-".`,
		Example: `  # Review the pairs extracted from a note
  flashcarder submit --deck Geography "Paris is the capital of France"

  # Add cards straight away from a file and a screenshot
  cat notes.txt | flashcarder submit --mode auto --file slide.png -

  # Skip the review and keep a transcript
  flashcarder submit --yes --transcript out/run.yaml --text "..."`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if err := requireDeck(cfg); err != nil {
				return err
			}

			body, err := gatherText(cmd.InOrStdin(), text, args)
			if err != nil {
				return err
			}

			sess := session.New(cfg.Backend(slog.Default()),
				session.WithDeck(cfg.Deck),
				session.WithMode(cfg.ModeValue()),
				session.WithLogger(slog.Default()),
			)
			defer sess.Close()

			sess.SetText(body)
			for _, path := range files {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", path, err)
				}
				sess.AddFiles(models.File{Name: filepath.Base(path), Size: int64(len(data)), Data: data})
			}

			out := cmd.OutOrStdout()
			_, submitErr := sess.Submit(cmd.Context())

			if submitErr == nil && sess.State() == session.ReviewPending {
				if yes {
					_, submitErr = sess.Confirm(cmd.Context())
				} else {
					final, err := tea.NewProgram(tui.NewReview(cmd.Context(), sess), tea.WithAltScreen()).Run()
					if err != nil {
						return fmt.Errorf("failed to run review: %w", err)
					}
					if m, ok := final.(tui.ReviewModel); ok && m.Cancelled() {
						fmt.Fprintln(out, "Review cancelled; nothing was added.")
					}
				}
			}

			printLog(out, sess)

			if transcriptPath != "" {
				if err := transcript.Save(transcriptPath, transcript.FromSession(sess)); err != nil {
					return err
				}
				slog.Info("Transcript written", "path", transcriptPath)
			}

			if submitErr != nil {
				return submitErr
			}
			if notice := sess.Notice(); notice != "" {
				return fmt.Errorf("%s", notice)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&text, "text", "t", "", "Note text to submit")
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "Image to attach (repeatable)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm every extracted pair without the review screen")
	cmd.Flags().StringVar(&transcriptPath, "transcript", "", "Write the activity log to this YAML file")

	return cmd
}

// gatherText joins --text and the arguments; "-" reads stdin
func gatherText(stdin io.Reader, text string, args []string) (string, error) {
	parts := []string{}
	if text != "" {
		parts = append(parts, text)
	}
	for _, a := range args {
		if a == "-" {
			data, err := io.ReadAll(stdin)
			if err != nil {
				return "", fmt.Errorf("failed to read stdin: %w", err)
			}
			parts = append(parts, string(data))
			continue
		}
		parts = append(parts, a)
	}
	return strings.Join(parts, "\n"), nil
}

// printLog writes the activity log oldest first
func printLog(w io.Writer, sess *session.Session) {
	for _, e := range sess.Log().Entries() {
		fmt.Fprintln(w, activity.Render(activity.Format(e)))
	}
}
