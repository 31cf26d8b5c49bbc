// =============================================================================
// Tax Hall Analytics - Summary Export
// =============================================================================
//
// This module serialises an Analysis for the chart layer and for archival.
// Only the envelope metadata and the Summary are written: canonical records
// never leave the process.
//
// FORMATS:
//   - json : camelCase keys as consumed by the dashboard
//   - yaml : same keys, for humans
//   - xml  : see internal/xmlwriter
//   - xlsx : one sheet per ranking (see xlsx.go)
//
// =============================================================================

package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/tax-hall-analytics/internal/converter"
	"github.com/ginjaninja78/tax-hall-analytics/internal/xmlwriter"
	"gopkg.in/yaml.v3"
)

// Format is an output encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXML  Format = "xml"
	FormatXLSX Format = "xlsx"
)

// ParseFormat validates a format name. Matching is case-insensitive and
// "yml" is accepted for yaml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "xml":
		return FormatXML, nil
	case "xlsx":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("unsupported output format %q", s)
}

// Extension returns the file extension, including the dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// Write encodes the analysis in the given format.
//
// PARAMETERS:
//   - w: Destination.
//   - a: The analysis to export.
//   - format: The output encoding.
//
// RETURNS:
//   - An error if encoding or writing fails.
func Write(w io.Writer, a *converter.Analysis, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(a); err != nil {
			return fmt.Errorf("failed to encode json: %w", err)
		}
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(a); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
	case FormatXML:
		opts := xmlwriter.DefaultGenerateOptions()
		opts.RootAttributes = []xmlwriter.Attr{
			{Name: "id", Value: a.ID.String()},
			{Name: "source", Value: a.Source},
		}
		if _, err := w.Write(xmlwriter.Generate(a.Summary, opts)); err != nil {
			return fmt.Errorf("failed to write xml: %w", err)
		}
	case FormatXLSX:
		return WriteWorkbook(w, a)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
	return nil
}
