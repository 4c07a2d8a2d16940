package export

import (
	"encoding/json"
	"io"
)

// JSONExporter writes datasets as pretty-printed JSON: an array of objects
// keyed by the dataset's header.
type JSONExporter struct{}

// Export writes the dataset as a JSON array.
func (e *JSONExporter) Export(ds *Dataset, w io.Writer) error {
	objects := make([]map[string]string, 0, len(ds.Rows))
	for _, row := range ds.Rows {
		obj := make(map[string]string, len(ds.Header))
		for i, col := range ds.Header {
			if i < len(row) {
				obj[col] = row[i]
			}
		}
		objects = append(objects, obj)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(objects)
}

// Extension returns the file extension for this format.
func (e *JSONExporter) Extension() string {
	return "json"
}

// ContentType returns the MIME type for this format.
func (e *JSONExporter) ContentType() string {
	return "application/json"
}
