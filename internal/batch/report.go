package batch

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/lehigh-university-libraries/flashcarder/internal/models"
)

// WriteReport renders report as text, json or csv
func WriteReport(w io.Writer, report *Report, format string) error {
	switch format {
	case "text", "":
		return writeText(w, report)
	case "json":
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(report)
	case "csv":
		return writeCSV(w, report)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeText(w io.Writer, report *Report) error {
	var b strings.Builder
	b.WriteString("========================================\n")
	b.WriteString("Flashcard Batch Report\n")
	b.WriteString("========================================\n")
	fmt.Fprintf(&b, "Mode:        %s\n", report.Mode)
	fmt.Fprintf(&b, "Notes:       %d\n", report.Summary.Total)
	fmt.Fprintf(&b, "Succeeded:   %d\n", report.Summary.Succeeded)
	fmt.Fprintf(&b, "Failed:      %d\n", report.Summary.Failed)
	fmt.Fprintf(&b, "Cards added: %d\n", report.Summary.CardsAdded)
	for _, status := range sortedStatuses(report.Summary.Statuses) {
		fmt.Fprintf(&b, "  %s: %d\n", status, report.Summary.Statuses[status])
	}

	b.WriteString("\nDetailed Results:\n")
	b.WriteString("========================================\n")
	for i, r := range report.Results {
		fmt.Fprintf(&b, "\n[%d] %s (deck %q) %s\n", i+1, r.ID, r.Deck, r.State)
		if r.Error != "" {
			fmt.Fprintf(&b, "  Error: %s\n", r.Error)
			continue
		}
		if r.Notice != "" {
			fmt.Fprintf(&b, "  Notice: %s\n", r.Notice)
		}
		fmt.Fprintf(&b, "  Extracted: %d\n", r.Extracted)
		for _, status := range sortedStatuses(r.Statuses) {
			fmt.Fprintf(&b, "  %s: %d\n", status, r.Statuses[status])
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeCSV(w io.Writer, report *Report) error {
	writer := csv.NewWriter(w)

	header := []string{"ID", "Deck", "State", "Extracted", "Added", "Other", "Notice", "Error", "Elapsed MS"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, r := range report.Results {
		added, other := 0, 0
		for status, n := range r.Statuses {
			if status == string(models.StatusOK) {
				added += n
			} else {
				other += n
			}
		}
		row := []string{
			r.ID,
			r.Deck,
			r.State,
			fmt.Sprintf("%d", r.Extracted),
			fmt.Sprintf("%d", added),
			fmt.Sprintf("%d", other),
			r.Notice,
			r.Error,
			fmt.Sprintf("%d", r.ElapsedMS),
		}
		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}
