package cli

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"mercator-hq/archivist/pkg/archive"
)

// OutputFormat represents the output format for command results.
type OutputFormat string

const (
	// FormatText is plain text output (default).
	FormatText OutputFormat = "text"
	// FormatJSON is JSON output.
	FormatJSON OutputFormat = "json"
	// FormatCSV is CSV output of the moves of a run.
	FormatCSV OutputFormat = "csv"
)

// ParseFormat validates an output format name.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatCSV:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q: must be text, json or csv", s)
	}
}

// Formatter formats command output.
type Formatter interface {
	Format(data interface{}) ([]byte, error)
	FormatTo(w io.Writer, data interface{}) error
}

// TextFormatter formats output as plain text. A *archive.RunSummary is
// rendered as a report; anything else with %v.
type TextFormatter struct{}

// Format converts data to text format.
func (f *TextFormatter) Format(data interface{}) ([]byte, error) {
	var sb strings.Builder
	if err := f.FormatTo(&sb, data); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

// FormatTo writes data to writer in text format.
func (f *TextFormatter) FormatTo(w io.Writer, data interface{}) error {
	summary, ok := data.(*archive.RunSummary)
	if !ok {
		_, err := fmt.Fprintf(w, "%v\n", data)
		return err
	}
	return writeSummaryText(w, summary)
}

func writeSummaryText(w io.Writer, s *archive.RunSummary) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	mode := ""
	if s.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(tw, "Run %s%s\n", s.RunID, mode)
	fmt.Fprintf(tw, "  State:\t%s\n", s.State)
	fmt.Fprintf(tw, "  Base:\t%s\n", s.BasePath)
	fmt.Fprintf(tw, "  Target:\t%s\n", s.TargetPath)
	fmt.Fprintf(tw, "  Policy:\t%s\n", s.Mode)
	if !s.Cutoff.IsZero() {
		fmt.Fprintf(tw, "  Cutoff:\t%s\n", s.Cutoff.Format(time.RFC3339))
	}
	fmt.Fprintf(tw, "  Duration:\t%s\n", s.Duration().Round(time.Millisecond))
	fmt.Fprintf(tw, "  Evaluated:\t%d (eligible %d, skipped %d, indeterminate %d)\n",
		s.EvaluatedCount, s.EligibleCount, s.SkippedCount, s.IndeterminateCount)
	if s.DryRun {
		fmt.Fprintf(tw, "  Planned:\t%d\n", s.PlannedCount)
	} else {
		fmt.Fprintf(tw, "  Moved:\t%d (folders %d, items %d)\n",
			s.MovedCount, s.MovedByKind(archive.KindWholeFolder), s.MovedByKind(archive.KindSingleItem))
		fmt.Fprintf(tw, "  Failed:\t%d\n", s.FailedCount)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(s.Moves) > 0 {
		fmt.Fprintln(w, "\nMoves:")
		for _, m := range s.Moves {
			fmt.Fprintf(w, "  [%s] %s -> %s (%s)\n", m.Outcome, m.SourcePath, m.DestPath, m.Kind)
		}
	}

	if len(s.Errors) > 0 {
		fmt.Fprintf(w, "\nErrors (%d):\n", len(s.Errors))
		for _, e := range s.Errors {
			fmt.Fprintf(w, "  ✗ %s\n", e.Error())
		}
	}

	return nil
}

// JSONFormatter formats output as JSON.
type JSONFormatter struct {
	Indent bool
}

// Format converts data to JSON format.
func (f *JSONFormatter) Format(data interface{}) ([]byte, error) {
	if f.Indent {
		return json.MarshalIndent(data, "", "  ")
	}
	return json.Marshal(data)
}

// FormatTo writes data to writer in JSON format.
func (f *JSONFormatter) FormatTo(w io.Writer, data interface{}) error {
	encoder := json.NewEncoder(w)
	if f.Indent {
		encoder.SetIndent("", "  ")
	}
	return encoder.Encode(data)
}

// MoveHeaders are the CSV columns written for run moves.
var MoveHeaders = []string{"run_id", "source", "destination", "kind", "outcome", "error"}

// CSVFormatter writes the moves of a *archive.RunSummary as CSV.
type CSVFormatter struct {
	Headers []string
}

// Format converts data to CSV format.
func (f *CSVFormatter) Format(data interface{}) ([]byte, error) {
	var sb strings.Builder
	if err := f.FormatTo(&sb, data); err != nil {
		return nil, err
	}
	return []byte(sb.String()), nil
}

// FormatTo writes data to writer in CSV format.
func (f *CSVFormatter) FormatTo(w io.Writer, data interface{}) error {
	summary, ok := data.(*archive.RunSummary)
	if !ok {
		return fmt.Errorf("CSV output is not supported for %T", data)
	}

	csvWriter := csv.NewWriter(w)

	headers := f.Headers
	if len(headers) == 0 {
		headers = MoveHeaders
	}
	if err := csvWriter.Write(headers); err != nil {
		return err
	}

	for _, m := range summary.Moves {
		row := []string{summary.RunID, m.SourcePath, m.DestPath, string(m.Kind), string(m.Outcome), m.Error}
		if err := csvWriter.Write(row); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// NewFormatter creates a new formatter for the specified format.
func NewFormatter(format OutputFormat) Formatter {
	switch format {
	case FormatJSON:
		return &JSONFormatter{Indent: true}
	case FormatCSV:
		return &CSVFormatter{}
	default:
		return &TextFormatter{}
	}
}
