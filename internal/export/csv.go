package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// utf8BOM is prepended so spreadsheet tools detect the encoding.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVExporter writes datasets as UTF-8 CSV with a BOM, comma-delimited,
// RFC 4180 quoting.
type CSVExporter struct{}

// Export writes the dataset's header row followed by all data rows.
func (e *CSVExporter) Export(ds *Dataset, w io.Writer) error {
	if _, err := w.Write(utf8BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if len(ds.Header) > 0 {
		if err := cw.Write(ds.Header); err != nil {
			return err
		}
	}
	for _, row := range ds.Rows {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Extension returns the file extension for this format.
func (e *CSVExporter) Extension() string {
	return "csv"
}

// ContentType returns the MIME type for this format.
func (e *CSVExporter) ContentType() string {
	return "text/csv; charset=utf-8"
}

// ReadCSV parses CSV data into rows, tolerating a leading UTF-8 BOM.
// Fails with an error when the input has no rows at all.
func ReadCSV(r io.Reader) ([][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing CSV: %w", err)
	}
	return rows, nil
}
