package api

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// OutputFormat defines the output format for CLI commands.
type OutputFormat string

const (
	OutputFormatYAML OutputFormat = "yaml"
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatSummary prints the session and artifact paths of a
	// document result, one per line. Other values fall back to YAML.
	OutputFormatSummary OutputFormat = "summary"
)

// DefaultOutput is the default output format.
var DefaultOutput OutputFormat = OutputFormatYAML

// globalOutputFormat is set by the root command's --output flag.
var globalOutputFormat OutputFormat = OutputFormatYAML

// Summarizer is implemented by document results. Each pair is a label and
// a value; labels repeat for per-page lines.
type Summarizer interface {
	Summary() [][2]string
}

// SetOutputFormat sets the global output format.
func SetOutputFormat(format string) error {
	switch OutputFormat(strings.ToLower(format)) {
	case OutputFormatJSON:
		globalOutputFormat = OutputFormatJSON
	case OutputFormatYAML:
		globalOutputFormat = OutputFormatYAML
	case OutputFormatSummary:
		globalOutputFormat = OutputFormatSummary
	case "":
		globalOutputFormat = DefaultOutput
	default:
		return fmt.Errorf("unknown output format %q (want yaml, json or summary)", format)
	}
	return nil
}

// GetOutputFormat returns the current global output format.
func GetOutputFormat() OutputFormat {
	return globalOutputFormat
}

// Output writes data to stdout in the configured format.
func Output(data any) error {
	return OutputTo(os.Stdout, globalOutputFormat, data)
}

// OutputTo writes data to the given writer in the specified format.
func OutputTo(w io.Writer, format OutputFormat, data any) error {
	switch format {
	case OutputFormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(data)
	case OutputFormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(data)
	case OutputFormatSummary:
		s, ok := data.(Summarizer)
		if !ok {
			return OutputTo(w, OutputFormatYAML, data)
		}
		return writeSummary(w, s.Summary())
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}
}

func writeSummary(w io.Writer, lines [][2]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, l := range lines {
		if l[1] == "" {
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\n", l[0], l[1])
	}
	return tw.Flush()
}

// OutputToFile writes data to path, choosing the format from the extension:
// .json, .txt for a summary, otherwise yaml.
func OutputToFile(data any, path string) error {
	format := OutputFormatYAML
	switch {
	case strings.HasSuffix(strings.ToLower(path), ".json"):
		format = OutputFormatJSON
	case strings.HasSuffix(strings.ToLower(path), ".txt"):
		format = OutputFormatSummary
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()
	return OutputTo(f, format, data)
}

// SaveDownload writes a downloaded artifact to path and reports it on w.
func SaveDownload(w io.Writer, path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Fprintf(w, "Saved %s (%d bytes)\n", path, len(data))
	return nil
}
