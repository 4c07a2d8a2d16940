// Package export renders workbench datasets (picklists, validation rules,
// field dependencies, migration results) to CSV and JSON.
package export

import (
	"fmt"
	"io"
)

// Dataset is a named table ready for export.
type Dataset struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Exporter defines the interface for all export formats.
type Exporter interface {
	Export(ds *Dataset, w io.Writer) error
	Extension() string
	ContentType() string
}

// NewExporter creates a new exporter based on format.
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "csv", "":
		return &CSVExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: csv, json)", format)
	}
}
